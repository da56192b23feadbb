package db

import (
	"context"
	"testing"
	"time"

	"toolhub/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertAssignment(t *testing.T, r *Repo, toolID string, holder models.Assignment, from time.Time, to *time.Time) *models.Assignment {
	t.Helper()
	a := holder
	a.ID = uuid.NewString()
	a.ToolID = toolID
	a.AssignedAt = from
	a.ReturnedAt = to
	a.ReturnStatus = models.ReturnActive
	if to != nil {
		a.ReturnStatus = models.ReturnDone
	}
	require.NoError(t, r.DB.Create(&a).Error)
	return &a
}

func TestUsagePercentage_40Of100Days(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	purchased := daysAgo(100)
	tool := &models.Tool{ID: uuid.NewString(), Name: "excavator", PurchaseDate: &purchased}
	require.NoError(t, r.DB.Create(tool).Error)

	// 两段借出合计 40 天
	end1 := daysAgo(65)
	end2 := daysAgo(10)
	insertAssignment(t, r, tool.ID, models.Assignment{}, daysAgo(90), &end1)
	insertAssignment(t, r, tool.ID, models.Assignment{}, daysAgo(25), &end2)

	pct, err := r.UsagePercentage(ctx, tool.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 40, pct)
}

func TestUsagePercentage_OpenAssignmentCountsToNow(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	purchased := daysAgo(10)
	tool := &models.Tool{ID: uuid.NewString(), Name: "pump", PurchaseDate: &purchased}
	require.NoError(t, r.DB.Create(tool).Error)
	insertAssignment(t, r, tool.ID, models.Assignment{}, daysAgo(5), nil)

	pct, err := r.UsagePercentage(ctx, tool.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 50, pct)
}

func TestUsagePercentage_ClampedTo100(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	// 无购入日期按建档时间算；保管比建档还早 → 截到 100
	tool := &models.Tool{ID: uuid.NewString(), Name: "old drill"}
	require.NoError(t, r.DB.Create(tool).Error)
	insertAssignment(t, r, tool.ID, models.Assignment{}, daysAgo(30), nil)

	pct, err := r.UsagePercentage(ctx, tool.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 100, pct)
}

func TestDamageCosts_AttributedToMostRecentHolder(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	per := seedPerson(t, r, "kim")
	loc := seedLocation(t, r, "site A")

	// 两件损坏的都最后在 kim 手里
	d1 := &models.Tool{ID: uuid.NewString(), Name: "d1", Status: models.ToolDamaged, PurchasePrice: priced("120.50")}
	d2 := &models.Tool{ID: uuid.NewString(), Name: "d2", Status: models.ToolLost, PurchasePrice: priced("79.50")}
	require.NoError(t, r.DB.Create(d1).Error)
	require.NoError(t, r.DB.Create(d2).Error)

	old := daysAgo(40)
	insertAssignment(t, r, d1.ID, models.Assignment{LocationID: &loc.ID}, daysAgo(60), &old)
	end1 := daysAgo(2)
	insertAssignment(t, r, d1.ID, models.Assignment{PersonID: &per.ID}, daysAgo(30), &end1)
	end2 := daysAgo(1)
	insertAssignment(t, r, d2.ID, models.Assignment{PersonID: &per.ID}, daysAgo(20), &end2)

	// 从未分配的损坏件：落回自身地点字段
	d3 := &models.Tool{ID: uuid.NewString(), Name: "d3", Status: models.ToolDamaged, PurchasePrice: priced("50"), LocationID: &loc.ID}
	require.NoError(t, r.DB.Create(d3).Error)

	// 完好的不参与
	ok := &models.Tool{ID: uuid.NewString(), Name: "fine", Status: models.ToolAvailable, PurchasePrice: priced("999")}
	require.NoError(t, r.DB.Create(ok).Error)

	rows, err := r.DamageCosts(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byHolder := map[string]DamageCostRow{}
	for _, row := range rows {
		byHolder[string(row.Holder)+"/"+row.HolderID] = row
	}

	kim := byHolder["person/"+per.ID]
	assert.True(t, kim.Total.Equal(*priced("200")), "got %s", kim.Total)
	assert.Len(t, kim.Tools, 2)

	site := byHolder["location/"+loc.ID]
	assert.True(t, site.Total.Equal(*priced("50")), "got %s", site.Total)
}
