package task

// Status is a position in the task lifecycle.
type Status string

const (
	StatusCreated    Status = "CREATED"
	StatusAssigned   Status = "ASSIGNED"
	StatusEnRoute    Status = "EN_ROUTE"
	StatusOnSite     Status = "ON_SITE"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusDisputed   Status = "DISPUTED"
)

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusAssigned, StatusEnRoute, StatusOnSite,
		StatusInProgress, StatusCompleted, StatusCancelled, StatusDisputed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// RequiresTasker reports whether a task in s must have a tasker: every
// working status past ASSIGNED.
func (s Status) RequiresTasker() bool {
	switch s {
	case StatusEnRoute, StatusOnSite, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// forward lists the successors reachable through a regular update.
// CANCELLED is omitted everywhere: only the cancel operation reaches it.
var forward = map[Status][]Status{
	StatusCreated:    {StatusAssigned, StatusDisputed},
	StatusAssigned:   {StatusEnRoute, StatusDisputed},
	StatusEnRoute:    {StatusOnSite, StatusDisputed},
	StatusOnSite:     {StatusInProgress, StatusDisputed},
	StatusInProgress: {StatusCompleted, StatusDisputed},
	StatusDisputed:   {StatusInProgress, StatusCompleted},
}

// CanTransition reports whether an update may move a task from one status to
// another. Re-stating the current status of a live task is allowed.
func CanTransition(from, to Status) bool {
	if from.IsTerminal() {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range forward[from] {
		if next == to {
			return true
		}
	}
	return false
}
