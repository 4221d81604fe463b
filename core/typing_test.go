package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTypingSet(t *testing.T) {

	t.Run("mark then clear leaves no residue", func(t *testing.T) {
		ts := NewTypingSet(time.Second)
		ts.MarkTyping(1)
		ts.ClearTyping(1)
		assert.Empty(t, ts.ActiveTypists())
	})

	t.Run("entries expire at query time", func(t *testing.T) {
		now := time.Now()
		ts := NewTypingSet(time.Second)
		ts.now = func() time.Time { return now }

		ts.MarkTyping(1)
		ts.MarkTyping(2)
		assert.Equal(t, []int{1, 2}, ts.ActiveTypists())

		now = now.Add(1500 * time.Millisecond)
		assert.Empty(t, ts.ActiveTypists())
	})

	t.Run("mark refreshes the deadline", func(t *testing.T) {
		now := time.Now()
		ts := NewTypingSet(time.Second)
		ts.now = func() time.Time { return now }

		ts.MarkTyping(1)
		now = now.Add(800 * time.Millisecond)
		ts.MarkTyping(1)
		now = now.Add(800 * time.Millisecond)
		assert.Equal(t, []int{1}, ts.ActiveTypists())
	})

	t.Run("expired entries are purged", func(t *testing.T) {
		now := time.Now()
		ts := NewTypingSet(time.Second)
		ts.now = func() time.Time { return now }

		ts.MarkTyping(1)
		now = now.Add(2 * time.Second)
		ts.ActiveTypists()
		assert.Empty(t, ts.deadlines)
	})

	t.Run("zero ttl falls back to the default", func(t *testing.T) {
		ts := NewTypingSet(0)
		assert.Equal(t, DefaultTypingTTL, ts.ttl)
	})
}
