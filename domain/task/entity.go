package task

import (
	"time"
)

// Currency is the only settlement currency supported by the marketplace.
const Currency = "GHS"

// Priority indicates how urgently a client wants a task handled.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// Task is a unit of paid work posted by a client.
type Task struct {
	ID              string         `gorm:"column:id;primaryKey;type:text"`
	Title           string         `gorm:"column:title;not null;type:text"`
	Description     string         `gorm:"column:description;not null;type:text"`
	ClientID        string         `gorm:"column:client_id;index;not null;type:text"`
	TaskerID        *string        `gorm:"column:tasker_id;index;type:text"`
	CategoryID      string         `gorm:"column:category_id;index;not null;type:text"`
	AddressID       string         `gorm:"column:address_id;not null;type:text"`
	ScheduledAt     time.Time      `gorm:"column:scheduled_at;not null"`
	DurationEstMins int            `gorm:"column:duration_est_mins;not null"`
	Status          Status         `gorm:"column:status;index;not null;type:text"`
	Priority        Priority       `gorm:"column:priority;not null;type:text"`
	IsUrgent        bool           `gorm:"column:is_urgent;not null;default:false"`
	Price           Money          `gorm:"column:price_pesewas;not null"`
	PlatformFee     Money          `gorm:"column:platform_fee_pesewas;not null"`
	Currency        string         `gorm:"column:currency;not null;type:text"`
	Location        string         `gorm:"column:location;type:text"`
	Latitude        *float64       `gorm:"column:latitude"`
	Longitude       *float64       `gorm:"column:longitude"`
	Requirements    map[string]any `gorm:"column:requirements;type:text;serializer:json"`
	Images          []string       `gorm:"column:images;type:text;serializer:json"`
	CompletionNotes *string        `gorm:"column:completion_notes;type:text"`
	CreatedAt       time.Time      `gorm:"column:created_at;index;not null"`
	UpdatedAt       *time.Time     `gorm:"column:updated_at;autoUpdateTime:false"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}
