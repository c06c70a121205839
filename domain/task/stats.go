package task

// Stats summarises stored tasks for platform oversight.
type Stats struct {
	TotalTasks int64            `json:"total_tasks"`
	ByStatus   map[Status]int64 `json:"by_status"`

	// Revenue is the platform fee earned on completed tasks.
	Revenue Money `json:"revenue"`
}
