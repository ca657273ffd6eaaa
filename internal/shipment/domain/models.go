// Package domain contains the shipment read model used by previews.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type ShipmentStatus string

const (
	ShipmentStatusScheduled ShipmentStatus = "scheduled"
	ShipmentStatusReceived  ShipmentStatus = "received"
	ShipmentStatusShipped   ShipmentStatus = "shipped"
)

// Direction distinguishes inbound receiving from outbound shipping.
type Direction string

const (
	DirectionReceiving Direction = "receiving"
	DirectionShipping  Direction = "shipping"
)

// Shipment is an inbound or outbound load. Dock operations own the writes.
type Shipment struct {
	ID        snowflake.ID   `gorm:"primaryKey"`
	TenantID  snowflake.ID   `gorm:"not null;index"`
	AccountID snowflake.ID   `gorm:"not null;index"`
	Direction Direction      `gorm:"type:text;not null;default:'receiving'"`
	Status    ShipmentStatus `gorm:"type:text;not null;default:'scheduled'"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Shipment) TableName() string { return "shipments" }

// ShipmentItem links a shipment to the items on it.
type ShipmentItem struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	TenantID   snowflake.ID `gorm:"not null;index"`
	ShipmentID snowflake.ID `gorm:"not null;index"`
	ItemID     snowflake.ID `gorm:"not null;index"`
}

// TableName sets the database table name.
func (ShipmentItem) TableName() string { return "shipment_items" }
