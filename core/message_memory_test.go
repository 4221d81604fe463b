package core

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryMessageStore(t *testing.T) {
	ctx := context.Background()

	t.Run("append assigns increasing ids starting at one", func(t *testing.T) {
		s := NewMemoryMessageStore()
		first, err := s.Append(ctx, "hello", 1, "alice", KindMessage)
		require.Nil(t, err)
		second, err := s.Append(ctx, "world", 1, "alice", KindMessage)
		require.Nil(t, err)
		assert.Equal(t, 1, first.ID)
		assert.Equal(t, 2, second.ID)
	})

	t.Run("recent returns last n oldest first", func(t *testing.T) {
		s := NewMemoryMessageStore()
		for i := 0; i < 60; i++ {
			_, err := s.Append(ctx, fmt.Sprintf("msg %d", i+1), 1, "alice", KindMessage)
			require.Nil(t, err)
		}

		recent, err := s.Recent(ctx, 50)
		require.Nil(t, err)
		require.Len(t, recent, 50)
		assert.Equal(t, 11, recent[0].ID)
		assert.Equal(t, 60, recent[49].ID)
	})

	t.Run("recent with fewer messages returns all", func(t *testing.T) {
		s := NewMemoryMessageStore()
		s.Append(ctx, "only", 1, "alice", KindMessage)

		recent, err := s.Recent(ctx, 50)
		require.Nil(t, err)
		assert.Len(t, recent, 1)
	})

	t.Run("ids are never reused under concurrent appends", func(t *testing.T) {
		s := NewMemoryMessageStore()
		var wg sync.WaitGroup
		ids := make(chan int, 100)
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				msg, err := s.Append(ctx, "race", 1, "alice", KindMessage)
				require.Nil(t, err)
				ids <- msg.ID
			}()
		}
		wg.Wait()
		close(ids)

		seen := make(map[int]bool)
		for id := range ids {
			assert.False(t, seen[id], "id %d assigned twice", id)
			seen[id] = true
		}
		assert.Len(t, seen, 100)
	})
}
