package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteMessageStore(t *testing.T) {

	t.Run("append persists and assigns increasing ids", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()

		first, err := f.messageStore.Append(f.ctx, "hello", 1, "alice", KindMessage)
		require.Nil(t, err)
		second, err := f.messageStore.Append(f.ctx, "world", 1, "alice", KindMessage)
		require.Nil(t, err)
		assert.Greater(t, second.ID, first.ID)

		recent, err := f.messageStore.Recent(f.ctx, 10)
		require.Nil(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "hello", recent[0].Content)
		assert.Equal(t, "world", recent[1].Content)
		assert.Equal(t, KindMessage, recent[0].Kind)
	})

	t.Run("recent caps at limit oldest first", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()

		for i := 0; i < 60; i++ {
			_, err := f.messageStore.Append(f.ctx, fmt.Sprintf("msg %d", i+1), 1, "alice", KindMessage)
			require.Nil(t, err)
		}

		recent, err := f.messageStore.Recent(f.ctx, 50)
		require.Nil(t, err)
		require.Len(t, recent, 50)
		assert.Equal(t, "msg 11", recent[0].Content)
		assert.Equal(t, "msg 60", recent[49].Content)
		for i := 1; i < len(recent); i++ {
			assert.Greater(t, recent[i].ID, recent[i-1].ID)
		}
	})

	t.Run("recent on empty log", func(t *testing.T) {
		f := NewStoreFixture(t)
		defer f.tearDown()

		recent, err := f.messageStore.Recent(f.ctx, 50)
		require.Nil(t, err)
		assert.Empty(t, recent)
	})

	t.Run("closed database reports storage unavailable", func(t *testing.T) {
		f := NewStoreFixture(t)
		f.tearDown()

		_, err := f.messageStore.Append(f.ctx, "hello", 1, "alice", KindMessage)
		assert.ErrorIs(t, err, ErrStorageUnavailable)

		_, err = f.messageStore.Recent(f.ctx, 10)
		assert.ErrorIs(t, err, ErrStorageUnavailable)
	})
}
