package models

import "time"

const EventTable = "th_events"

type EventType string

const (
	EventAssigned      EventType = "assigned"
	EventReturned      EventType = "returned"
	EventMoved         EventType = "moved"
	EventStatusChanged EventType = "status_changed"
	EventCreated       EventType = "created"
	EventUpdated       EventType = "updated"
)

// Event 审计事件，只插入，不更新不删除。
// 每次 Tool/Assignment 写操作在同一事务里恰好追加一条。
type Event struct {
	ID     string    `gorm:"type:uuid;primaryKey" json:"id"`
	ToolID string    `gorm:"type:uuid;index;not null" json:"toolId"`
	Type   EventType `gorm:"size:20;index;not null" json:"type"`

	FromLocationID *string `gorm:"type:uuid" json:"fromLocationId,omitempty"`
	ToLocationID   *string `gorm:"type:uuid" json:"toLocationId,omitempty"`
	FromPersonID   *string `gorm:"type:uuid" json:"fromPersonId,omitempty"`
	ToPersonID     *string `gorm:"type:uuid" json:"toPersonId,omitempty"`

	OldStatus *ToolStatus `gorm:"size:20" json:"oldStatus,omitempty"`
	NewStatus *ToolStatus `gorm:"size:20" json:"newStatus,omitempty"`

	Note   string `gorm:"size:500" json:"note,omitempty"`
	UserID string `gorm:"type:uuid;index" json:"userId"` // 操作人

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (Event) TableName() string { return EventTable }
