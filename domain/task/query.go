package task

import "time"

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 50
)

// Filter holds optional search predicates. A nil field means no constraint.
type Filter struct {
	Query      *string   `json:"query,omitempty"`
	CategoryID *string   `json:"category_id,omitempty"`
	Status     *Status   `json:"status,omitempty"`
	ClientID   *string   `json:"client_id,omitempty"`
	TaskerID   *string   `json:"tasker_id,omitempty"`
	MinPrice   *Money    `json:"min_price,omitempty"`
	MaxPrice   *Money    `json:"max_price,omitempty"`
	Location   *string   `json:"location,omitempty"`
	Priority   *Priority `json:"priority,omitempty"`
	IsUrgent   *bool     `json:"is_urgent,omitempty"`
}

// PageRequest selects one page of an ordered result.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest applies defaults for zero values and rejects out-of-range
// values with ErrInvalidPagination.
func NewPageRequest(page, limit int) (PageRequest, error) {
	if page == 0 {
		page = DefaultPage
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if page < 1 || limit < 1 || limit > MaxLimit {
		return PageRequest{}, ErrInvalidPagination
	}
	return PageRequest{Page: page, Limit: limit}, nil
}

// Offset is the number of rows skipped before this page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages returns ceil(total/limit).
func (p PageRequest) TotalPages(total int64) int {
	if p.Limit <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

// Patch is a partial update. Only non-nil fields are written.
type Patch struct {
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	CategoryID      *string    `json:"category_id,omitempty"`
	AddressID       *string    `json:"address_id,omitempty"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	DurationEstMins *int       `json:"duration_est_mins,omitempty"`
	Price           *Money     `json:"price,omitempty"`
	Priority        *Priority  `json:"priority,omitempty"`
	IsUrgent        *bool      `json:"is_urgent,omitempty"`
	Status          *Status    `json:"status,omitempty"`
	TaskerID        *string    `json:"tasker_id,omitempty"`
	Location        *string    `json:"location,omitempty"`
	CompletionNotes *string    `json:"completion_notes,omitempty"`

	// PlatformFee is derived from Price and never taken from input.
	PlatformFee *Money `json:"-"`
}

// Fields lists the names of the caller-supplied fields that are set.
func (p Patch) Fields() []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(p.Title != nil, "title")
	add(p.Description != nil, "description")
	add(p.CategoryID != nil, "categoryId")
	add(p.AddressID != nil, "addressId")
	add(p.ScheduledAt != nil, "scheduledAt")
	add(p.DurationEstMins != nil, "durationEstMins")
	add(p.Price != nil, "priceGHS")
	add(p.Priority != nil, "priority")
	add(p.IsUrgent != nil, "isUrgent")
	add(p.Status != nil, "status")
	add(p.TaskerID != nil, "taskerId")
	add(p.Location != nil, "location")
	add(p.CompletionNotes != nil, "completionNotes")
	return fields
}

// IsEmpty reports whether the patch sets no caller-supplied field.
func (p Patch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Draft is the client-supplied content of a new task.
type Draft struct {
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	CategoryID      string         `json:"category_id"`
	AddressID       string         `json:"address_id"`
	ScheduledAt     time.Time      `json:"scheduled_at"`
	DurationEstMins int            `json:"duration_est_mins"`
	Price           Money          `json:"price"`
	Priority        Priority       `json:"priority,omitempty"`
	IsUrgent        bool           `json:"is_urgent"`
	Location        string         `json:"location,omitempty"`
	Latitude        *float64       `json:"latitude,omitempty"`
	Longitude       *float64       `json:"longitude,omitempty"`
	Requirements    map[string]any `json:"requirements,omitempty"`
	Images          []string       `json:"images,omitempty"`
}
