package api

import (
	"time"

	domain "github.com/example/task-marketplace/domain/task"
	"github.com/example/task-marketplace/modules/identity"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ListResponse is the envelope for paginated task searches.
type ListResponse struct {
	Success    bool           `json:"success"`
	Data       []TaskResponse `json:"data"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}

// CreateTaskRequest is the body of POST /tasks.
type CreateTaskRequest struct {
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	CategoryID      string         `json:"categoryId"`
	AddressID       string         `json:"addressId"`
	ScheduledAt     time.Time      `json:"scheduledAt"`
	DurationEstMins int            `json:"durationEstMins"`
	PriceGHS        float64        `json:"priceGHS"`
	Priority        string         `json:"priority,omitempty"`
	IsUrgent        bool           `json:"isUrgent"`
	Location        string         `json:"location,omitempty"`
	Latitude        *float64       `json:"latitude,omitempty"`
	Longitude       *float64       `json:"longitude,omitempty"`
	Requirements    map[string]any `json:"requirements,omitempty"`
	Images          []string       `json:"images,omitempty"`
}

func (r CreateTaskRequest) toDraft() (domain.Draft, error) {
	price, err := domain.PriceFromGHS(r.PriceGHS)
	if err != nil {
		return domain.Draft{}, err
	}
	return domain.Draft{
		Title:           r.Title,
		Description:     r.Description,
		CategoryID:      r.CategoryID,
		AddressID:       r.AddressID,
		ScheduledAt:     r.ScheduledAt,
		DurationEstMins: r.DurationEstMins,
		Price:           price,
		Priority:        domain.Priority(r.Priority),
		IsUrgent:        r.IsUrgent,
		Location:        r.Location,
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
		Requirements:    r.Requirements,
		Images:          r.Images,
	}, nil
}

// CreateTaskData is returned after a task is created.
type CreateTaskData struct {
	TaskID string `json:"taskId"`
}

// UpdateTaskRequest is the body of PUT /tasks/:id. Absent fields are left
// unchanged.
type UpdateTaskRequest struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	CategoryID      *string    `json:"categoryId"`
	AddressID       *string    `json:"addressId"`
	ScheduledAt     *time.Time `json:"scheduledAt"`
	DurationEstMins *int       `json:"durationEstMins"`
	PriceGHS        *float64   `json:"priceGHS"`
	Priority        *string    `json:"priority"`
	IsUrgent        *bool      `json:"isUrgent"`
	Status          *string    `json:"status"`
	TaskerID        *string    `json:"taskerId"`
	Location        *string    `json:"location"`
	CompletionNotes *string    `json:"completionNotes"`
}

func (r UpdateTaskRequest) toPatch() (domain.Patch, error) {
	patch := domain.Patch{
		Title:           r.Title,
		Description:     r.Description,
		CategoryID:      r.CategoryID,
		AddressID:       r.AddressID,
		ScheduledAt:     r.ScheduledAt,
		DurationEstMins: r.DurationEstMins,
		IsUrgent:        r.IsUrgent,
		TaskerID:        r.TaskerID,
		Location:        r.Location,
		CompletionNotes: r.CompletionNotes,
	}
	if r.PriceGHS != nil {
		price, err := domain.PriceFromGHS(*r.PriceGHS)
		if err != nil {
			return domain.Patch{}, err
		}
		patch.Price = &price
	}
	if r.Priority != nil {
		priority := domain.Priority(*r.Priority)
		patch.Priority = &priority
	}
	if r.Status != nil {
		status := domain.Status(*r.Status)
		patch.Status = &status
	}
	return patch, nil
}

// Coordinates is the optional geographic position of a task.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TaskResponse is the public JSON view of a task.
type TaskResponse struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	ClientID        string         `json:"clientId"`
	TaskerID        *string        `json:"taskerId"`
	CategoryID      string         `json:"categoryId"`
	AddressID       string         `json:"addressId"`
	ScheduledAt     string         `json:"scheduledAt"`
	DurationEstMins int            `json:"durationEstMins"`
	Status          string         `json:"status"`
	Priority        string         `json:"priority"`
	IsUrgent        bool           `json:"isUrgent"`
	PriceGHS        float64        `json:"priceGHS"`
	PlatformFeeGHS  float64        `json:"platformFeeGHS"`
	Currency        string         `json:"currency"`
	Location        string         `json:"location"`
	Coordinates     *Coordinates   `json:"coordinates,omitempty"`
	Requirements    map[string]any `json:"requirements,omitempty"`
	Images          []string       `json:"images,omitempty"`
	CompletionNotes *string        `json:"completionNotes,omitempty"`
	CreatedAt       string         `json:"createdAt"`
	UpdatedAt       *string        `json:"updatedAt"`
}

func newTaskResponse(t *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		ClientID:        t.ClientID,
		TaskerID:        t.TaskerID,
		CategoryID:      t.CategoryID,
		AddressID:       t.AddressID,
		ScheduledAt:     t.ScheduledAt.UTC().Format(time.RFC3339),
		DurationEstMins: t.DurationEstMins,
		Status:          string(t.Status),
		Priority:        string(t.Priority),
		IsUrgent:        t.IsUrgent,
		PriceGHS:        t.Price.GHS(),
		PlatformFeeGHS:  t.PlatformFee.GHS(),
		Currency:        t.Currency,
		Location:        t.Location,
		Requirements:    t.Requirements,
		Images:          t.Images,
		CompletionNotes: t.CompletionNotes,
		CreatedAt:       t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.Latitude != nil && t.Longitude != nil {
		resp.Coordinates = &Coordinates{Latitude: *t.Latitude, Longitude: *t.Longitude}
	}
	if t.UpdatedAt != nil {
		updated := t.UpdatedAt.UTC().Format(time.RFC3339)
		resp.UpdatedAt = &updated
	}
	return resp
}

// RequestOTPRequest is the body of POST /auth/request-otp.
type RequestOTPRequest struct {
	Phone string `json:"phone"`
}

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// DashboardData is the body of GET /admin/dashboard.
type DashboardData struct {
	TotalUsers      int64            `json:"totalUsers"`
	ActiveTaskers   int64            `json:"activeTaskers"`
	TotalTasks      int64            `json:"totalTasks"`
	TasksByStatus   map[string]int64 `json:"tasksByStatus"`
	TotalRevenueGHS float64          `json:"totalRevenueGHS"`
}

// UserListResponse is the envelope for the paginated user directory.
type UserListResponse struct {
	Success    bool                    `json:"success"`
	Data       []identity.UserResponse `json:"data"`
	Total      int64                   `json:"total"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
	TotalPages int                     `json:"totalPages"`
}
