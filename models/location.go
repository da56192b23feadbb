package models

import "time"

const LocationTable = "th_locations"
const UserLocationTable = "th_user_locations"

type Location struct {
	ID              string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name            string    `gorm:"size:200;not null" json:"name"`
	Address         string    `gorm:"size:255" json:"address,omitempty"`
	IsBaseWarehouse bool      `gorm:"not null;default:false" json:"isBaseWarehouse"` // 默认归还/入库点
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (Location) TableName() string { return LocationTable }

// UserLocation 非管理员可操作的地点授权
type UserLocation struct {
	UserID     string    `gorm:"type:uuid;primaryKey" json:"userId"`
	LocationID string    `gorm:"type:uuid;primaryKey" json:"locationId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (UserLocation) TableName() string { return UserLocationTable }
