package notification

import (
	"fmt"
	"sync"
	"testing"
)

func TestStore_EvictsOldest(t *testing.T) {
	s := NewStore(3)
	for i := 1; i <= 5; i++ {
		s.Add(Notification{ID: fmt.Sprint(i), RecipientID: "user-1"})
	}

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	got := s.ForRecipient("user-1", 0)
	want := []string{"5", "4", "3"}
	for i, n := range got {
		if n.ID != want[i] {
			t.Errorf("entry %d = %s, want %s", i, n.ID, want[i])
		}
	}
}

func TestStore_ForRecipient(t *testing.T) {
	s := NewStore(10)
	s.Add(Notification{ID: "a", RecipientID: "client"})
	s.Add(Notification{ID: "b", RecipientID: "tasker"})
	s.Add(Notification{ID: "c", RecipientID: "client"})
	s.Add(Notification{ID: "d", RecipientID: "client"})

	tests := []struct {
		name      string
		recipient string
		limit     int
		want      []string
	}{
		{"all for client", "client", 0, []string{"d", "c", "a"}},
		{"limited", "client", 2, []string{"d", "c"}},
		{"other recipient", "tasker", 5, []string{"b"}},
		{"unknown", "nobody", 5, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.ForRecipient(tt.recipient, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("ForRecipient() returned %d entries, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("entry %d = %s, want %s", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestStore_DefaultCapacity(t *testing.T) {
	s := NewStore(0)
	for i := 0; i < DefaultCapacity+10; i++ {
		s.Add(Notification{RecipientID: "u"})
	}
	if s.Len() != DefaultCapacity {
		t.Errorf("Len() = %d, want %d", s.Len(), DefaultCapacity)
	}
}

func TestStore_ConcurrentAdd(t *testing.T) {
	s := NewStore(50)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				s.Add(Notification{RecipientID: "u"})
				s.ForRecipient("u", 5)
			}
		}()
	}
	wg.Wait()

	if s.Len() != 50 {
		t.Errorf("Len() = %d, want 50", s.Len())
	}
}
