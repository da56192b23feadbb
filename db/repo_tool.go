package db

import (
	"context"
	"strings"
	"time"

	"toolhub/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tools

func (r *Repo) CreateTool(ctx context.Context, t *models.Tool, actorID string) (*models.Tool, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = models.ToolAvailable
	}
	if !t.Status.Valid() {
		return nil, ErrInvalidTransition
	}
	if t.LocationID != nil && t.PersonID != nil {
		return nil, ErrInvalidTarget
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		return appendEvent(tx, &models.Event{
			ToolID:       t.ID,
			Type:         models.EventCreated,
			NewStatus:    &t.Status,
			ToLocationID: t.LocationID,
			ToPersonID:   t.PersonID,
			UserID:       actorID,
		})
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

type UpdateToolInput struct {
	Name          *string
	Serial        *string
	PurchaseDate  *time.Time
	PurchasePrice *decimal.Decimal
	Note          string
}

func (r *Repo) UpdateTool(ctx context.Context, toolID string, in UpdateToolInput, actorID string) (*models.Tool, error) {
	var t models.Tool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&t, "id = ?", toolID).Error; err != nil {
			return err
		}
		patch := map[string]any{}
		if in.Name != nil {
			patch["name"] = *in.Name
		}
		if in.Serial != nil {
			patch["serial"] = *in.Serial
		}
		if in.PurchaseDate != nil {
			patch["purchase_date"] = *in.PurchaseDate
		}
		if in.PurchasePrice != nil {
			patch["purchase_price"] = *in.PurchasePrice
		}
		if len(patch) == 0 {
			return nil
		}
		if err := tx.Model(&models.Tool{}).Where("id = ?", t.ID).Updates(patch).Error; err != nil {
			return err
		}
		if err := tx.First(&t, "id = ?", t.ID).Error; err != nil {
			return err
		}
		return appendEvent(tx, &models.Event{
			ToolID: t.ID,
			Type:   models.EventUpdated,
			Note:   in.Note,
			UserID: actorID,
		})
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repo) FindToolByID(ctx context.Context, id string) (*models.Tool, error) {
	var t models.Tool
	if err := r.DB.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repo) openAssignmentCount(tx *gorm.DB, toolID string) (int64, error) {
	var n int64
	err := tx.Model(&models.Assignment{}).
		Where("tool_id = ? AND returned_at IS NULL", toolID).
		Count(&n).Error
	return n, err
}

// SetStatus 状态变更必须和保管状态自洽：
// in_use 只有存在未归还 Assignment 时合法，其余状态都要求没有。
func (r *Repo) SetStatus(ctx context.Context, toolID string, newStatus models.ToolStatus, actor Actor, note string) (*models.Tool, error) {
	if !newStatus.Valid() {
		return nil, ErrInvalidTransition
	}
	var t models.Tool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&t, "id = ?", toolID).Error; err != nil {
			return err
		}
		open, err := r.openAssignmentCount(tx, toolID)
		if err != nil {
			return err
		}
		if newStatus == models.ToolInUse && open == 0 {
			return ErrInvalidTransition
		}
		if newStatus != models.ToolInUse && open > 0 {
			return ErrInvalidTransition
		}
		old := t.Status
		if err := tx.Model(&models.Tool{}).
			Where("id = ?", t.ID).
			Update("status", newStatus).Error; err != nil {
			return err
		}
		t.Status = newStatus
		return appendEvent(tx, &models.Event{
			ToolID:    t.ID,
			Type:      models.EventStatusChanged,
			OldStatus: &old,
			NewStatus: &newStatus,
			Note:      note,
			UserID:    actor.UserID,
		})
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ReturnToService 维修完成重新上架。available 时是幂等空操作，
// maintenance 以外的其它状态一律拒绝。
func (r *Repo) ReturnToService(ctx context.Context, toolID string, actor Actor) (*models.Tool, error) {
	var t models.Tool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&t, "id = ?", toolID).Error; err != nil {
			return err
		}
		if t.Status == models.ToolAvailable {
			return nil
		}
		if t.Status != models.ToolMaintenance {
			return ErrInvalidTransition
		}
		old := t.Status
		newStatus := models.ToolAvailable
		if err := tx.Model(&models.Tool{}).
			Where("id = ?", t.ID).
			Update("status", newStatus).Error; err != nil {
			return err
		}
		t.Status = newStatus
		return appendEvent(tx, &models.Event{
			ToolID:    t.ID,
			Type:      models.EventStatusChanged,
			OldStatus: &old,
			NewStatus: &newStatus,
			Note:      "return to service",
			UserID:    actor.UserID,
		})
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Relocate 落位变更：地点和个人最多给一个，另一个被清空。
// 和保管无关的纯位置移动（如 Request 履约）也走这里。
func (r *Repo) Relocate(ctx context.Context, toolID string, locationID, personID *string, actor Actor, note string) (*models.Tool, error) {
	if locationID != nil && personID != nil {
		return nil, ErrInvalidTarget
	}
	var t models.Tool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&t, "id = ?", toolID).Error; err != nil {
			return err
		}
		fromLoc, fromPer := t.LocationID, t.PersonID
		if err := tx.Model(&models.Tool{}).
			Where("id = ?", t.ID).
			Updates(map[string]any{"location_id": locationID, "person_id": personID}).Error; err != nil {
			return err
		}
		t.LocationID, t.PersonID = locationID, personID
		return appendEvent(tx, &models.Event{
			ToolID:         t.ID,
			Type:           models.EventMoved,
			FromLocationID: fromLoc,
			ToLocationID:   locationID,
			FromPersonID:   fromPer,
			ToPersonID:     personID,
			Note:           note,
			UserID:         actor.UserID,
		})
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Custody 派生出的“当前在谁手里”。有未归还 Assignment 以它为准，
// 否则退回 Tool 自身的兜底字段（从未被正式分配的工具）。
type Custody struct {
	Assigned   bool    `json:"assigned"`
	PersonID   *string `json:"personId,omitempty"`
	LocationID *string `json:"locationId,omitempty"`
	UserID     *string `json:"userId,omitempty"`
}

func (r *Repo) CurrentCustody(ctx context.Context, toolID string) (*Custody, error) {
	var a models.Assignment
	err := r.DB.WithContext(ctx).
		Where("tool_id = ? AND returned_at IS NULL", toolID).
		Order("assigned_at DESC").
		First(&a).Error
	if err == nil {
		return &Custody{Assigned: true, PersonID: a.PersonID, LocationID: a.LocationID, UserID: a.UserID}, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	t, err := r.FindToolByID(ctx, toolID)
	if err != nil {
		return nil, err
	}
	return &Custody{PersonID: t.PersonID, LocationID: t.LocationID}, nil
}

// 管理端列表：工具 + 当前未归还的保管记录
type ToolRow struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Serial        *string            `json:"serial,omitempty"`
	Status        models.ToolStatus  `json:"status"`
	PurchaseDate  *time.Time         `json:"purchaseDate,omitempty"`
	PurchasePrice *decimal.Decimal   `json:"purchasePrice,omitempty"`
	LocationID    *string            `json:"locationId,omitempty"`
	PersonID      *string            `json:"personId,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
	Assignment    *models.Assignment `json:"assignment,omitempty" gorm:"-"`
}

type ToolsQuery struct {
	Q      string // 模糊搜索：serial/name
	Status string // "", "available", "in_use", "pending_return", ...
	Page   int
	Size   int
}

type PagedTools struct {
	Total int64     `json:"total"`
	Tools []ToolRow `json:"tools"`
}

func (r *Repo) ListTools(ctx context.Context, q ToolsQuery) (*PagedTools, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Size <= 0 || q.Size > 200 {
		q.Size = 20
	}

	tx := r.DB.WithContext(ctx).Model(&models.Tool{})
	if s := strings.TrimSpace(q.Q); s != "" {
		pat := "%" + strings.ToLower(s) + "%"
		tx = tx.Where("LOWER(serial) LIKE ? OR LOWER(name) LIKE ?", pat, pat)
	}
	if q.Status == "pending_return" {
		tx = tx.Where("id IN (?)", r.DB.Model(&models.Assignment{}).
			Select("tool_id").
			Where("return_status = ?", models.ReturnPending))
	} else if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var tools []models.Tool
	if err := tx.
		Order("created_at DESC").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Find(&tools).Error; err != nil {
		return nil, err
	}

	rows := make([]ToolRow, 0, len(tools))
	ids := make([]string, 0, len(tools))
	for _, t := range tools {
		ids = append(ids, t.ID)
		rows = append(rows, ToolRow{
			ID: t.ID, Name: t.Name, Serial: t.Serial, Status: t.Status,
			PurchaseDate: t.PurchaseDate, PurchasePrice: t.PurchasePrice,
			LocationID: t.LocationID, PersonID: t.PersonID,
			CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt,
		})
	}
	if len(ids) > 0 {
		var open []models.Assignment
		if err := r.DB.WithContext(ctx).
			Where("tool_id IN ? AND returned_at IS NULL", ids).
			Find(&open).Error; err != nil {
			return nil, err
		}
		byTool := make(map[string]*models.Assignment, len(open))
		for i := range open {
			byTool[open[i].ToolID] = &open[i]
		}
		for i := range rows {
			rows[i].Assignment = byTool[rows[i].ID]
		}
	}
	return &PagedTools{Total: total, Tools: rows}, nil
}
