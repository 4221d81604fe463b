package core

import (
	"sort"
	"time"
)

// DefaultTypingTTL is how long a typing entry stays active without a
// refresh. The client layer sends an explicit stop after a quiet period;
// the TTL only covers clients that vanish mid-keystroke.
const DefaultTypingTTL = time.Second

// TypingSet tracks which users are currently composing a message. Expiry is
// computed at query time, so no background timer is needed; entries past
// their deadline are logically absent even before they are purged.
//
// Like Presence, a TypingSet is owned by a Room and accessed only through
// its serialized mutation path.
type TypingSet struct {
	ttl       time.Duration
	deadlines map[int]time.Time
	now       func() time.Time
}

func NewTypingSet(ttl time.Duration) *TypingSet {
	if ttl <= 0 {
		ttl = DefaultTypingTTL
	}
	return &TypingSet{
		ttl:       ttl,
		deadlines: make(map[int]time.Time),
		now:       time.Now,
	}
}

// MarkTyping inserts or refreshes the user's entry with a fresh deadline.
func (t *TypingSet) MarkTyping(userID int) {
	t.deadlines[userID] = t.now().Add(t.ttl)
}

// ClearTyping removes the user's entry immediately.
func (t *TypingSet) ClearTyping(userID int) {
	delete(t.deadlines, userID)
}

// ActiveTypists returns the IDs of users whose entries have not expired,
// ordered by ID. Expired entries are purged as a side effect.
func (t *TypingSet) ActiveTypists() []int {
	now := t.now()
	ids := make([]int, 0, len(t.deadlines))
	for id, deadline := range t.deadlines {
		if now.After(deadline) {
			delete(t.deadlines, id)
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
