package local

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/memorymatch/internal/accounts"
	"github.com/robalobadob/memorymatch/internal/scores"
	"github.com/robalobadob/memorymatch/internal/session"
	"github.com/robalobadob/memorymatch/internal/storage"
)

func TestGateways(t *testing.T) {
	db, err := storage.OpenAndMigrate(filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	auth := Auth{Users: accounts.NewStore(db, accounts.WithBcryptCost(bcrypt.MinCost))}
	lb := Leaderboard{Scores: scores.NewStore(db, nil), Limit: 2}

	msg, err := auth.Register(ctx, "alice", "password1")
	require.NoError(t, err)
	assert.Equal(t, MsgRegistered, msg)

	msg, err = auth.Register(ctx, "alice", "password1")
	require.NoError(t, err)
	assert.Equal(t, accounts.ErrUsernameTaken.Error(), msg)

	res, err := auth.Login(ctx, "alice", "password1")
	require.NoError(t, err)
	assert.Equal(t, session.LoginResult{Success: true, Msg: MsgLoggedIn}, res)

	res, err = auth.Login(ctx, "alice", "nope-nope")
	require.NoError(t, err)
	assert.False(t, res.Success)

	require.NoError(t, lb.Submit(ctx, session.ScoreRecord{DisplayName: "alice", ElapsedMs: 42000}))
	require.NoError(t, lb.Submit(ctx, session.ScoreRecord{DisplayName: "Guest", ElapsedMs: 30000}))
	require.NoError(t, lb.Submit(ctx, session.ScoreRecord{DisplayName: "bob", ElapsedMs: 90000}))

	top, err := lb.FetchTop(ctx)
	require.NoError(t, err)
	assert.Equal(t, []session.RankedEntry{
		{Username: "Guest", ElapsedMs: 30000},
		{Username: "alice", ElapsedMs: 42000},
	}, top)
}
