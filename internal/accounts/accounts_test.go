package accounts

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/memorymatch/internal/storage"
)

func newStore(t *testing.T) (*Store, *clockwork.FakeClock) {
	t.Helper()
	db, err := storage.OpenAndMigrate(filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	return NewStore(db, WithBcryptCost(bcrypt.MinCost), WithClock(clock)), clock
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"ok", "alice_01", "password1", nil},
		{"short name", "al", "password1", ErrInvalidUsername},
		{"long name", "abcdefghijklmnopqrstuvwxy", "password1", ErrInvalidUsername},
		{"bad rune", "al ice", "password1", ErrInvalidUsername},
		{"short password", "alice", "short", ErrInvalidPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Validate(tt.username, tt.password), tt.wantErr)
		})
	}
}

func TestStore_RegisterAndAuthenticate(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	u, err := s.Register(ctx, "  Alice ", "password1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Username)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), u.CreatedAt)

	got, err := s.Authenticate(ctx, "alice", "password1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.CreatedAt, got.CreatedAt)

	_, err = s.Authenticate(ctx, "alice", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Authenticate(ctx, "nobody", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestStore_UsernameTakenIgnoresCase(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "alice", "password1")
	require.NoError(t, err)
	_, err = s.Register(ctx, "ALICE", "password2")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestStore_FindByID(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	u, err := s.Register(ctx, "bob", "password1")
	require.NoError(t, err)

	got, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)

	_, err = s.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
