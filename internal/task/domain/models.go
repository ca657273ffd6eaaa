// Package domain contains the warehouse task read model used by previews.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type TaskStatus string

const (
	TaskStatusOpen      TaskStatus = "open"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusCanceled  TaskStatus = "canceled"
)

// Task is a unit of warehouse work (inspection, repair, delivery prep). Task
// management owns the writes; billing reads it to price pending work.
type Task struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	TenantID    snowflake.ID `gorm:"not null;index"`
	AccountID   snowflake.ID `gorm:"not null;index"`
	TaskType    string       `gorm:"type:text;not null"`
	ServiceCode *string      `gorm:"type:text"`
	Status      TaskStatus   `gorm:"type:text;not null;default:'open'"`
	CompletedAt *time.Time   `gorm:""`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Task) TableName() string { return "tasks" }

// TaskItem links a task to the items it covers.
type TaskItem struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	TenantID snowflake.ID `gorm:"not null;index"`
	TaskID   snowflake.ID `gorm:"not null;index"`
	ItemID   snowflake.ID `gorm:"not null;index"`
}

// TableName sets the database table name.
func (TaskItem) TableName() string { return "task_items" }
