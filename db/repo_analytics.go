package db

import (
	"context"
	"errors"
	"math"
	"time"

	"toolhub/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UsagePercentage 自购入（无购入日期按建档）以来处于借出状态的时间占比。
// 四舍五入取整并截到 [0,100]，给展示层直接用。
func (r *Repo) UsagePercentage(ctx context.Context, toolID string, now time.Time) (int, error) {
	t, err := r.FindToolByID(ctx, toolID)
	if err != nil {
		return 0, err
	}

	var as []models.Assignment
	if err := r.DB.WithContext(ctx).
		Where("tool_id = ?", toolID).
		Find(&as).Error; err != nil {
		return 0, err
	}

	var used time.Duration
	for _, a := range as {
		end := now
		if a.ReturnedAt != nil {
			end = *a.ReturnedAt
		}
		if end.After(a.AssignedAt) {
			used += end.Sub(a.AssignedAt)
		}
	}

	since := t.CreatedAt
	if t.PurchaseDate != nil {
		since = *t.PurchaseDate
	}
	elapsed := now.Sub(since)
	if elapsed <= 0 {
		return 0, nil
	}

	pct := int(math.Round(100 * float64(used) / float64(elapsed)))
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, nil
}

type HolderKind string

const (
	HolderPerson   HolderKind = "person"
	HolderUser     HolderKind = "user"
	HolderLocation HolderKind = "location"
	HolderNone     HolderKind = "unattributed"
)

type DamageCostRow struct {
	Holder   HolderKind      `json:"holder"`
	HolderID string          `json:"holderId,omitempty"`
	Total    decimal.Decimal `json:"total"`
	Tools    []string        `json:"tools"`
}

// DamageCosts 把当前 damaged/lost 的工具按“最近一次保管人”归账，
// 累加购入价。从未被分配过的工具落回自身兜底字段，都没有就记 unattributed。
func (r *Repo) DamageCosts(ctx context.Context) ([]DamageCostRow, error) {
	var tools []models.Tool
	if err := r.DB.WithContext(ctx).
		Where("status IN ?", []models.ToolStatus{models.ToolDamaged, models.ToolLost}).
		Find(&tools).Error; err != nil {
		return nil, err
	}

	type key struct {
		kind HolderKind
		id   string
	}
	acc := make(map[key]*DamageCostRow)

	for _, t := range tools {
		k := key{kind: HolderNone}

		var last models.Assignment
		err := r.DB.WithContext(ctx).
			Where("tool_id = ?", t.ID).
			Order("assigned_at DESC").
			First(&last).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		switch {
		case err == nil:
			switch {
			case last.PersonID != nil:
				k = key{HolderPerson, *last.PersonID}
			case last.UserID != nil:
				k = key{HolderUser, *last.UserID}
			case last.LocationID != nil:
				k = key{HolderLocation, *last.LocationID}
			}
		case t.PersonID != nil:
			k = key{HolderPerson, *t.PersonID}
		case t.LocationID != nil:
			k = key{HolderLocation, *t.LocationID}
		}

		row, ok := acc[k]
		if !ok {
			row = &DamageCostRow{Holder: k.kind, HolderID: k.id, Total: decimal.Zero}
			acc[k] = row
		}
		if t.PurchasePrice != nil {
			row.Total = row.Total.Add(*t.PurchasePrice)
		}
		row.Tools = append(row.Tools, t.ID)
	}

	rows := make([]DamageCostRow, 0, len(acc))
	for _, row := range acc {
		rows = append(rows, *row)
	}
	return rows, nil
}
