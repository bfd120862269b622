package scores

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/memorymatch/internal/storage"
)

func TestStore_TopOrdersFastestFirst(t *testing.T) {
	db, err := storage.OpenAndMigrate(filepath.Join(t.TempDir(), "scores.db"))
	require.NoError(t, err)
	defer db.Close()

	clock := clockwork.NewFakeClock()
	s := NewStore(db, clock)
	ctx := context.Background()

	for _, e := range []Entry{
		{Username: "carol", ElapsedMs: 50000},
		{Username: "alice", ElapsedMs: 42000},
		{Username: "bob", ElapsedMs: 42000},
		{Username: "Guest", ElapsedMs: 61234},
	} {
		require.NoError(t, s.Insert(ctx, e.Username, e.ElapsedMs))
		clock.Advance(time.Second)
	}

	top, err := s.Top(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "alice", top[0].Username)
	assert.Equal(t, "bob", top[1].Username)
	assert.Equal(t, "carol", top[2].Username)
	assert.Equal(t, int64(42000), top[0].ElapsedMs)

	all, err := s.Top(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestStore_InsertValidates(t *testing.T) {
	db, err := storage.OpenAndMigrate(filepath.Join(t.TempDir(), "scores.db"))
	require.NoError(t, err)
	defer db.Close()

	s := NewStore(db, nil)
	assert.ErrorIs(t, s.Insert(context.Background(), "  ", 10), ErrEmptyName)
	assert.ErrorIs(t, s.Insert(context.Background(), "alice", -1), ErrNegativeElapsed)
}
