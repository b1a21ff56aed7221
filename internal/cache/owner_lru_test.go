package cache

import (
	"testing"
	"time"
)

func TestOwnerLRU_EvictsLeastRecentlyRead(t *testing.T) {
	c := NewOwnerLRU[string](2, time.Minute)

	c.Put("user-1", "2024-03-01", "a")
	c.Put("user-2", "2024-03-01", "b")
	if got, ok := c.Get("user-1", "2024-03-01"); !ok || got != "a" {
		t.Errorf("Get(user-1) = (%q, %v), want (a, true)", got, ok)
	}

	// user-2 was read least recently and makes room
	c.Put("user-3", "2024-03-01", "c")
	if _, ok := c.Get("user-2", "2024-03-01"); ok {
		t.Error("user-2 snapshot should have been evicted")
	}
	if c.Len() != 2 || c.Owners() != 2 {
		t.Errorf("Len, Owners = %d, %d, want 2, 2", c.Len(), c.Owners())
	}

	c.Put("user-1", "2024-03-01", "updated")
	if got, _ := c.Get("user-1", "2024-03-01"); got != "updated" {
		t.Errorf("Get(user-1) = %q, want updated", got)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2 after replace", c.Len())
	}
}

func TestOwnerLRU_Invalidate(t *testing.T) {
	c := NewOwnerLRU[int](10, time.Minute)
	c.Put("user-1", "2024-03-01", 1)
	c.Put("user-1", "2024-03-02", 2)
	c.Put("user-10", "2024-03-01", 3)
	c.Put("user-2", "2024-03-01", 4)

	tests := []struct {
		owner string
		want  int
	}{
		{"user-1", 2},
		{"user-1", 0},
		{"nobody", 0},
	}
	for _, tt := range tests {
		if got := c.Invalidate(tt.owner); got != tt.want {
			t.Errorf("Invalidate(%q) = %d, want %d", tt.owner, got, tt.want)
		}
	}
	if _, ok := c.Get("user-10", "2024-03-01"); !ok {
		t.Error("user-10 snapshot should survive")
	}
	if c.Len() != 2 || c.Owners() != 2 {
		t.Errorf("Len, Owners = %d, %d, want 2, 2", c.Len(), c.Owners())
	}

	// the freed capacity is reusable
	c.Put("user-1", "2024-03-03", 5)
	if got, ok := c.Get("user-1", "2024-03-03"); !ok || got != 5 {
		t.Errorf("Get(user-1) = (%d, %v), want (5, true)", got, ok)
	}
}

func TestOwnerLRU_Expiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	c := NewOwnerLRU[int](10, time.Minute)
	c.clock = func() time.Time { return now }

	c.Put("user-1", "a", 1)
	c.Put("user-1", "b", 2)

	now = now.Add(30 * time.Second)
	c.Put("user-2", "c", 3)

	now = now.Add(45 * time.Second)
	if _, ok := c.Get("user-1", "a"); ok {
		t.Error("Get(a) should miss after ttl")
	}
	if cleaned := c.CleanExpired(); cleaned != 1 {
		t.Errorf("CleanExpired() = %d, want 1", cleaned)
	}
	if c.Owners() != 1 {
		t.Errorf("Owners() = %d, want 1", c.Owners())
	}
	if got, ok := c.Get("user-2", "c"); !ok || got != 3 {
		t.Errorf("Get(c) = (%d, %v), want (3, true)", got, ok)
	}
}

func TestOwnerLRU_Unbounded(t *testing.T) {
	c := NewOwnerLRU[int](0, 0)
	c.clock = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }
	for i, owner := range []string{"a", "b", "c", "d"} {
		c.Put(owner, "k", i)
	}
	if c.Len() != 4 {
		t.Errorf("Len() = %d, want 4", c.Len())
	}
	if cleaned := c.CleanExpired(); cleaned != 0 {
		t.Errorf("CleanExpired() = %d, want 0 without ttl", cleaned)
	}
}

func TestManager_CleanNow(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	c := NewOwnerLRU[int](10, time.Second)
	c.clock = func() time.Time { return now }
	c.Put("user-1", "a", 1)

	m := NewManager()
	m.Register(c)
	now = now.Add(2 * time.Second)

	if cleaned := m.CleanNow(); cleaned != 1 {
		t.Errorf("CleanNow() = %d, want 1", cleaned)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
