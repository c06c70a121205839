package task

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	domain "github.com/example/task-marketplace/domain/task"
	"github.com/example/task-marketplace/events"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ListResult is one page of a task search.
type ListResult struct {
	Items      []*domain.Task `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

// Service implements the task lifecycle: creation, browsing, partial
// updates and cancellation.
type Service struct {
	repo      TaskRepository
	publisher EventPublisher
	now       func() time.Time
	newID     func() string

	// reads collapses concurrent lookups of the same task into one query.
	reads singleflight.Group
}

// NewService creates a new Service.
func NewService(repo TaskRepository, publisher EventPublisher) *Service {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.New().String() },
	}
}

// CreateTask validates draft and stores a new task owned by caller.
func (s *Service) CreateTask(ctx context.Context, caller domain.Caller, draft domain.Draft) (*domain.Task, error) {
	if !domain.CanCreate(caller.Role) {
		return nil, domain.ErrForbidden
	}
	if draft.Priority == "" {
		draft.Priority = domain.PriorityMedium
	}
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	t := &domain.Task{
		ID:              s.newID(),
		Title:           strings.TrimSpace(draft.Title),
		Description:     strings.TrimSpace(draft.Description),
		ClientID:        caller.SubjectID,
		TaskerID:        nil,
		CategoryID:      draft.CategoryID,
		AddressID:       draft.AddressID,
		ScheduledAt:     draft.ScheduledAt.UTC(),
		DurationEstMins: draft.DurationEstMins,
		Status:          domain.StatusCreated,
		Priority:        draft.Priority,
		IsUrgent:        draft.IsUrgent,
		Price:           draft.Price,
		PlatformFee:     domain.ComputeFee(draft.Price),
		Currency:        domain.Currency,
		Location:        draft.Location,
		Latitude:        draft.Latitude,
		Longitude:       draft.Longitude,
		Requirements:    draft.Requirements,
		Images:          draft.Images,
		CreatedAt:       s.now(),
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	event := events.TaskCreatedEvent{
		TaskID:         t.ID,
		Title:          t.Title,
		ClientID:       t.ClientID,
		CategoryID:     t.CategoryID,
		PriceGHS:       t.Price.GHS(),
		PlatformFeeGHS: t.PlatformFee.GHS(),
		IsUrgent:       t.IsUrgent,
		CreatedAt:      t.CreatedAt,
	}
	if err := s.publisher.TaskCreated(event); err != nil {
		// Event publishing is best-effort; log but don't fail the operation
		log.Printf("[task] Warning: failed to publish TaskCreated event for task %s: %v", t.ID, err)
	}
	return t, nil
}

// ListTasks returns one page of tasks matching filter, newest first.
// Zero page or limit selects the default.
func (s *Service) ListTasks(ctx context.Context, filter domain.Filter, page, limit int) (*ListResult, error) {
	req, err := domain.NewPageRequest(page, limit)
	if err != nil {
		return nil, err
	}
	if filter.Status != nil {
		if err := domain.ValidateStatus(*filter.Status); err != nil {
			return nil, err
		}
	}
	if filter.Priority != nil {
		if err := domain.ValidatePriority(*filter.Priority); err != nil {
			return nil, err
		}
	}

	items, total, err := s.repo.Search(ctx, filter, req)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: req.TotalPages(total),
	}, nil
}

// GetTask returns the task with the given id. The returned task may be
// shared with concurrent callers and must not be modified.
func (s *Service) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	// the shared lookup must outlive the first caller's cancellation
	lookupCtx := context.WithoutCancel(ctx)
	val, err, _ := s.reads.Do(id, func() (any, error) {
		return s.repo.FindByID(lookupCtx, id)
	})
	if err != nil {
		return nil, err
	}
	t, ok := val.(*domain.Task)
	if !ok || t == nil {
		return nil, domain.ErrTaskNotFound
	}
	return t, nil
}

// UpdateTask applies patch to the task after checking ownership, payload
// and lifecycle rules, in that order.
func (s *Service) UpdateTask(ctx context.Context, caller domain.Caller, id string, patch domain.Patch) error {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanUpdate(caller, t) {
		return domain.ErrForbidden
	}
	if patch.IsEmpty() {
		return domain.ErrEmptyPatch
	}
	if patch.TaskerID != nil && !domain.CanAssign(caller, t) {
		return domain.ErrForbidden
	}
	if err := validatePatch(patch); err != nil {
		return err
	}
	if t.Status.IsTerminal() {
		return domain.ErrTaskTerminal
	}

	target := t.Status
	if patch.Status != nil {
		if !domain.CanTransition(t.Status, *patch.Status) {
			return domain.ErrInvalidTransition
		}
		target = *patch.Status
	}
	if err := checkAssignment(t, patch, target); err != nil {
		return err
	}

	patch.PlatformFee = nil
	if patch.Price != nil {
		fee := domain.ComputeFee(*patch.Price)
		patch.PlatformFee = &fee
	}

	now := s.now()
	if err := s.repo.Update(ctx, id, t.Status, patch, now); err != nil {
		return s.resolveConflict(ctx, id, err, false)
	}

	event := events.TaskUpdatedEvent{
		TaskID:    t.ID,
		ClientID:  t.ClientID,
		TaskerID:  t.TaskerID,
		UpdatedBy: caller.SubjectID,
		Fields:    patch.Fields(),
		UpdatedAt: now,
	}
	if patch.TaskerID != nil {
		event.TaskerID = patch.TaskerID
	}
	if target != t.Status {
		event.FromStatus = string(t.Status)
		event.ToStatus = string(target)
	}
	if err := s.publisher.TaskUpdated(event); err != nil {
		log.Printf("[task] Warning: failed to publish TaskUpdated event for task %s: %v", t.ID, err)
	}
	return nil
}

// CancelTask cancels the task on behalf of its owning client. Cancelling an
// already cancelled task succeeds without writing.
func (s *Service) CancelTask(ctx context.Context, caller domain.Caller, id string) error {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanCancel(caller, t) {
		return domain.ErrForbidden
	}
	switch t.Status {
	case domain.StatusCancelled:
		return nil
	case domain.StatusCompleted:
		return domain.ErrTaskTerminal
	}

	now := s.now()
	if err := s.repo.Cancel(ctx, id, now); err != nil {
		return s.resolveConflict(ctx, id, err, true)
	}

	event := events.TaskCancelledEvent{
		TaskID:      t.ID,
		ClientID:    t.ClientID,
		TaskerID:    t.TaskerID,
		CancelledAt: now,
	}
	if err := s.publisher.TaskCancelled(event); err != nil {
		log.Printf("[task] Warning: failed to publish TaskCancelled event for task %s: %v", t.ID, err)
	}
	return nil
}

// Stats returns platform-wide task statistics. Only admins may read them.
func (s *Service) Stats(ctx context.Context, caller domain.Caller) (*domain.Stats, error) {
	if !domain.CanViewStats(caller.Role) {
		return nil, domain.ErrForbidden
	}
	return s.repo.Stats(ctx)
}

// resolveConflict explains a write that lost a race. A task that became
// terminal in between reports ErrTaskTerminal, and a cancel that lost to
// another cancel has nothing left to do.
func (s *Service) resolveConflict(ctx context.Context, id string, err error, cancelling bool) error {
	if !errors.Is(err, domain.ErrTaskConflict) {
		return err
	}
	current, findErr := s.repo.FindByID(ctx, id)
	if findErr != nil {
		return err
	}
	if cancelling && current.Status == domain.StatusCancelled {
		return nil
	}
	if current.Status.IsTerminal() {
		return domain.ErrTaskTerminal
	}
	return err
}

func validateDraft(d domain.Draft) error {
	if err := domain.ValidateTitle(d.Title); err != nil {
		return err
	}
	if err := domain.ValidateDescription(d.Description); err != nil {
		return err
	}
	if err := domain.ValidatePrice(d.Price); err != nil {
		return err
	}
	if err := domain.ValidateDuration(d.DurationEstMins); err != nil {
		return err
	}
	if err := domain.ValidateReference("categoryId", d.CategoryID); err != nil {
		return err
	}
	if err := domain.ValidateReference("addressId", d.AddressID); err != nil {
		return err
	}
	if d.ScheduledAt.IsZero() {
		return domain.Invalid("scheduledAt is required")
	}
	return domain.ValidatePriority(d.Priority)
}

func validatePatch(p domain.Patch) error {
	if p.Title != nil {
		if err := domain.ValidateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if err := domain.ValidateDescription(*p.Description); err != nil {
			return err
		}
	}
	if p.Price != nil {
		if err := domain.ValidatePrice(*p.Price); err != nil {
			return err
		}
	}
	if p.DurationEstMins != nil {
		if err := domain.ValidateDuration(*p.DurationEstMins); err != nil {
			return err
		}
	}
	if p.CategoryID != nil {
		if err := domain.ValidateReference("categoryId", *p.CategoryID); err != nil {
			return err
		}
	}
	if p.AddressID != nil {
		if err := domain.ValidateReference("addressId", *p.AddressID); err != nil {
			return err
		}
	}
	if p.ScheduledAt != nil && p.ScheduledAt.IsZero() {
		return domain.Invalid("scheduledAt must be a valid time")
	}
	if p.Priority != nil {
		if err := domain.ValidatePriority(*p.Priority); err != nil {
			return err
		}
	}
	if p.TaskerID != nil {
		if err := domain.ValidateReference("taskerId", *p.TaskerID); err != nil {
			return err
		}
	}
	if p.Status != nil {
		if err := domain.ValidateStatus(*p.Status); err != nil {
			return err
		}
		if *p.Status == domain.StatusCancelled {
			return domain.Invalid("status CANCELLED can only be set by cancelling the task")
		}
	}
	return nil
}

// checkAssignment keeps taskerId consistent with the target status: a task
// enters ASSIGNED only with a tasker, a tasker is only set on an assigned
// task, and no working status past ASSIGNED is reached without one.
func checkAssignment(t *domain.Task, p domain.Patch, target domain.Status) error {
	if target != t.Status && target.RequiresTasker() && t.TaskerID == nil {
		return domain.Invalid("task has no assigned tasker")
	}
	if p.TaskerID != nil && target != domain.StatusAssigned {
		return domain.Invalid("taskerId can only be set when the task is assigned")
	}
	if target == domain.StatusAssigned && t.Status != domain.StatusAssigned &&
		p.TaskerID == nil && t.TaskerID == nil {
		return domain.Invalid("taskerId is required to assign a task")
	}
	return nil
}
