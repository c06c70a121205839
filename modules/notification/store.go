package notification

import (
	"sync"
	"time"
)

// DefaultCapacity is how many notifications the store keeps.
const DefaultCapacity = 1000

// Notification is a message addressed to one platform user.
type Notification struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"taskId"`
	RecipientID string    `json:"recipientId"`
	Type        string    `json:"type"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store is a bounded in-memory notification log. Once full, the oldest
// entries are dropped.
type Store struct {
	mu       sync.RWMutex
	entries  []Notification
	capacity int
}

// NewStore creates a store holding at most capacity entries.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		entries:  make([]Notification, 0, capacity),
		capacity: capacity,
	}
}

// Add appends n, evicting the oldest entry when the store is full.
func (s *Store) Add(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == s.capacity {
		copy(s.entries, s.entries[1:])
		s.entries = s.entries[:len(s.entries)-1]
	}
	s.entries = append(s.entries, n)
}

// ForRecipient returns up to limit notifications for recipientID, newest
// first. A limit <= 0 returns all of them.
func (s *Store) ForRecipient(recipientID string, limit int) []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Notification, 0)
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].RecipientID != recipientID {
			continue
		}
		result = append(result, s.entries[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result
}

// Len returns the number of stored notifications.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
