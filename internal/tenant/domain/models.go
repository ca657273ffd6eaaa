// Package domain contains the tenant registry read model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Tenant is one customer organization on the platform. Tenant provisioning is
// owned by account administration; billing only enumerates active tenants.
type Tenant struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Name      string       `gorm:"type:text;not null"`
	IsActive  bool         `gorm:"not null;default:true"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }
