package models

import "time"

const RequestTable = "th_tool_requests"

type RequestType string

const (
	RequestNew      RequestType = "new"
	RequestExisting RequestType = "existing"
)

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestFulfilled RequestStatus = "fulfilled"
)

// ToolRequest “把工具 X 送到地点 Y”。针对地点调度，不产生保管关系。
type ToolRequest struct {
	ID          string      `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID string      `gorm:"type:uuid;index;not null" json:"requesterId"`
	Type        RequestType `gorm:"size:10;not null" json:"type"`

	ToolID     *string `gorm:"type:uuid;index" json:"toolId,omitempty"` // existing 时必填
	ToolName   string  `gorm:"size:200" json:"toolName,omitempty"`      // new 时的自由文本
	LocationID string  `gorm:"type:uuid;index;not null" json:"locationId"`
	Notes      string  `gorm:"size:500" json:"notes,omitempty"`

	Status    RequestStatus `gorm:"size:10;index;not null;default:'pending'" json:"status"`
	DecidedBy *string       `gorm:"type:uuid" json:"decidedBy,omitempty"`
	DecidedAt *time.Time    `json:"decidedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (ToolRequest) TableName() string { return RequestTable }
