// Package domain contains the inventory item read model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ItemStatus represents inventory lifecycle states.
type ItemStatus string

const (
	ItemStatusActive   ItemStatus = "active"
	ItemStatusReleased ItemStatus = "released"
	ItemStatusPending  ItemStatus = "pending"
)

// Item is an inventory unit in storage. Inventory management owns the writes;
// billing reads eligibility fields only.
type Item struct {
	ID           snowflake.ID  `gorm:"primaryKey"`
	TenantID     snowflake.ID  `gorm:"not null;index"`
	AccountID    snowflake.ID  `gorm:"not null;index"`
	SidemarkID   *snowflake.ID `gorm:"index"`
	ItemCode     string        `gorm:"type:text;not null"`
	ClassCode    *string       `gorm:"type:text"`
	Status       ItemStatus    `gorm:"type:text;not null;default:'active'"`
	ReceivedDate time.Time     `gorm:"not null"`
	ReleasedDate *time.Time    `gorm:""`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Item) TableName() string { return "items" }
