package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const ToolTable = "th_tools"

type ToolStatus string

const (
	ToolAvailable   ToolStatus = "available"
	ToolInUse       ToolStatus = "in_use"
	ToolMaintenance ToolStatus = "maintenance"
	ToolDamaged     ToolStatus = "damaged"
	ToolLost        ToolStatus = "lost"
	ToolRetired     ToolStatus = "retired"
)

func (s ToolStatus) Valid() bool {
	switch s {
	case ToolAvailable, ToolInUse, ToolMaintenance, ToolDamaged, ToolLost, ToolRetired:
		return true
	}
	return false
}

// Tool 唯一件。LocationID/PersonID 只是“从未被正式分配”时的兜底位置，
// 活跃的保管关系以 Assignment 为准，最多一个非空。
type Tool struct {
	ID            string           `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string           `gorm:"size:200;not null" json:"name"`
	Serial        *string          `gorm:"size:120;uniqueIndex" json:"serial,omitempty"`
	PurchaseDate  *time.Time       `json:"purchaseDate,omitempty"`
	PurchasePrice *decimal.Decimal `gorm:"type:numeric(12,2)" json:"purchasePrice,omitempty"`
	Status        ToolStatus       `gorm:"size:20;not null;default:'available'" json:"status"`

	LocationID *string `gorm:"type:uuid;index" json:"locationId,omitempty"`
	PersonID   *string `gorm:"type:uuid;index" json:"personId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Tool) TableName() string { return ToolTable }
