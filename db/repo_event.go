package db

import (
	"context"
	"fmt"
	"time"

	"toolhub/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// appendEvent 只在其它写操作的事务里调用，UI 不直接触发。
// 除必填字段外不做校验，事件随所属事务一起提交或回滚。
func appendEvent(tx *gorm.DB, e *models.Event) error {
	if e.ToolID == "" || e.Type == "" {
		return fmt.Errorf("append event: missing tool or type")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := tx.Create(e).Error; err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

type EventQuery struct {
	ToolID string
	From   *time.Time
	To     *time.Time
	Page   int
	Size   int
}

type PagedEvents struct {
	Total  int64          `json:"total"`
	Events []models.Event `json:"events"`
}

// QueryEvents 按时间倒序分页；供单工具历史和全局事件日历两种视图用。
func (r *Repo) QueryEvents(ctx context.Context, q EventQuery) (*PagedEvents, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Size <= 0 || q.Size > 200 {
		q.Size = 50
	}

	tx := r.DB.WithContext(ctx).Model(&models.Event{})
	if q.ToolID != "" {
		tx = tx.Where("tool_id = ?", q.ToolID)
	}
	if q.From != nil {
		tx = tx.Where("created_at >= ?", *q.From)
	}
	if q.To != nil {
		tx = tx.Where("created_at < ?", *q.To)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var evs []models.Event
	if err := tx.
		Order("created_at DESC").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Find(&evs).Error; err != nil {
		return nil, err
	}
	return &PagedEvents{Total: total, Events: evs}, nil
}
