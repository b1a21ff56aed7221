package cache

import (
	"container/list"
	"sync"
	"time"
)

// OwnerLRU holds derived snapshots (one per owner and key) with a shared capacity.
// Entries of an owner are indexed together so a write by that owner drops them in one
// step, and the least recently read snapshot is the one evicted when full.
type OwnerLRU[T any] struct {
	mu     sync.Mutex
	limit  int
	ttl    time.Duration
	owners map[string]map[string]*list.Element
	recent *list.List
	clock  func() time.Time
}

var _ Cache[int] = (*OwnerLRU[int])(nil)

type snapshot[T any] struct {
	owner    string
	key      string
	value    T
	storedAt time.Time
}

// NewOwnerLRU keeps at most limit snapshots, each for ttl. A limit <= 0 is unbounded
// and a ttl <= 0 never expires.
func NewOwnerLRU[T any](limit int, ttl time.Duration) *OwnerLRU[T] {
	return &OwnerLRU[T]{
		limit:  limit,
		ttl:    ttl,
		owners: make(map[string]map[string]*list.Element),
		recent: list.New(),
		clock:  time.Now,
	}
}

func (c *OwnerLRU[T]) stale(s *snapshot[T], now time.Time) bool {
	return c.ttl > 0 && now.Sub(s.storedAt) >= c.ttl
}

// Get returns the owner's snapshot for key and marks it as recently read.
func (c *OwnerLRU[T]) Get(owner, key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.owners[owner][key]
	if !ok {
		return zero, false
	}
	s := elem.Value.(*snapshot[T])
	if c.stale(s, c.clock()) {
		c.drop(elem)
		return zero, false
	}
	c.recent.MoveToFront(elem)
	return s.value, true
}

// Put stores v as the owner's snapshot for key, replacing any previous one.
func (c *OwnerLRU[T]) Put(owner, key string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &snapshot[T]{owner: owner, key: key, value: v, storedAt: c.clock()}
	keys := c.owners[owner]
	if keys == nil {
		keys = make(map[string]*list.Element)
		c.owners[owner] = keys
	}
	if elem, ok := keys[key]; ok {
		elem.Value = s
		c.recent.MoveToFront(elem)
		return
	}
	keys[key] = c.recent.PushFront(s)

	for c.limit > 0 && c.recent.Len() > c.limit {
		c.drop(c.recent.Back())
	}
}

// Invalidate drops every snapshot of owner and reports how many there were.
func (c *OwnerLRU[T]) Invalidate(owner string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := c.owners[owner]
	for _, elem := range keys {
		c.recent.Remove(elem)
	}
	delete(c.owners, owner)
	return len(keys)
}

func (c *OwnerLRU[T]) drop(elem *list.Element) {
	s := c.recent.Remove(elem).(*snapshot[T])
	keys := c.owners[s.owner]
	delete(keys, s.key)
	if len(keys) == 0 {
		delete(c.owners, s.owner)
	}
}

// CleanExpired drops stale snapshots and returns how many went.
func (c *OwnerLRU[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	removed := 0
	for elem := c.recent.Back(); elem != nil; {
		prev := elem.Prev()
		if c.stale(elem.Value.(*snapshot[T]), now) {
			c.drop(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

// Len is the number of snapshots held across all owners.
func (c *OwnerLRU[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recent.Len()
}

// Owners is the number of owners with at least one snapshot.
func (c *OwnerLRU[T]) Owners() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.owners)
}
