package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"toolhub/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))
	return NewRepo(gdb)
}

func seedUser(t *testing.T, r *Repo, username string, admin bool) *models.User {
	t.Helper()
	u := &models.User{ID: uuid.NewString(), Username: username, DisplayName: username, IsAdmin: admin}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func seedPerson(t *testing.T, r *Repo, name string) *models.Person {
	t.Helper()
	p := &models.Person{ID: uuid.NewString(), Name: name}
	require.NoError(t, r.CreatePerson(context.Background(), p))
	return p
}

func seedLocation(t *testing.T, r *Repo, name string) *models.Location {
	t.Helper()
	l := &models.Location{ID: uuid.NewString(), Name: name}
	require.NoError(t, r.CreateLocation(context.Background(), l))
	return l
}

func seedTool(t *testing.T, r *Repo, name string, actorID string) *models.Tool {
	t.Helper()
	tool, err := r.CreateTool(context.Background(), &models.Tool{Name: name}, actorID)
	require.NoError(t, err)
	return tool
}

func priced(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func countEvents(t *testing.T, r *Repo, toolID string, typ models.EventType) int64 {
	t.Helper()
	var n int64
	q := r.DB.Model(&models.Event{}).Where("tool_id = ?", toolID)
	if typ != "" {
		q = q.Where("type = ?", typ)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func lastEvent(t *testing.T, r *Repo, toolID string) *models.Event {
	t.Helper()
	var e models.Event
	require.NoError(t, r.DB.
		Where("tool_id = ?", toolID).
		Order("created_at DESC, id DESC").
		First(&e).Error)
	return &e
}

func daysAgo(n int) time.Time { return time.Now().UTC().AddDate(0, 0, -n) }
