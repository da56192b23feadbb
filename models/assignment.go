package models

import "time"

const AssignmentTable = "th_assignments"

type ReturnStatus string

const (
	ReturnActive  ReturnStatus = "active"
	ReturnPending ReturnStatus = "pending_return"
	ReturnDone    ReturnStatus = "returned"
)

type ReturnCondition string

const (
	ConditionGood        ReturnCondition = "good"
	ConditionMaintenance ReturnCondition = "maintenance"
	ConditionDamaged     ReturnCondition = "damaged"
	ConditionLost        ReturnCondition = "lost"
)

func (c ReturnCondition) Valid() bool {
	switch c {
	case ConditionGood, ConditionMaintenance, ConditionDamaged, ConditionLost:
		return true
	}
	return false
}

// ToolStatusAfter 归还条件对应的工具终态
func (c ReturnCondition) ToolStatusAfter() ToolStatus {
	switch c {
	case ConditionMaintenance:
		return ToolMaintenance
	case ConditionDamaged:
		return ToolDamaged
	case ConditionLost:
		return ToolLost
	default:
		return ToolAvailable
	}
}

// Assignment 一次保管关系。保管目标三选一：
// 个人(PersonID)；地点(LocationID)；用户+地点(UserID+LocationID)。
// return_status = returned 之后记录不再变化。
type Assignment struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	ToolID string `gorm:"type:uuid;index;not null" json:"toolId"`

	PersonID   *string `gorm:"type:uuid;index" json:"personId,omitempty"`
	LocationID *string `gorm:"type:uuid;index" json:"locationId,omitempty"`
	UserID     *string `gorm:"type:uuid;index" json:"userId,omitempty"`

	AssignedAt time.Time `gorm:"index;not null" json:"assignedAt"`
	AssignedBy string    `gorm:"type:uuid" json:"assignedBy"`
	Note       string    `gorm:"size:255" json:"note,omitempty"`

	ReturnStatus      ReturnStatus     `gorm:"size:20;not null;default:'active'" json:"returnStatus"`
	ReturnRequestedAt *time.Time       `json:"returnRequestedAt,omitempty"`
	ReturnCondition   *ReturnCondition `gorm:"size:20" json:"returnCondition,omitempty"`
	ReturnLocationID  *string          `gorm:"type:uuid" json:"returnLocationId,omitempty"`
	ReturnNotes       string           `gorm:"size:500" json:"returnNotes,omitempty"`

	ReturnedAt *time.Time `gorm:"index" json:"returnedAt,omitempty"`
	ApprovedBy *string    `gorm:"type:uuid" json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Assignment) TableName() string { return AssignmentTable }

func (a *Assignment) Open() bool { return a.ReturnedAt == nil }
