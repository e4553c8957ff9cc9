package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
	"github.com/ericfisherdev/timeguru/internal/domain/port/driven"
)

func TestAccountRepo_NoCurrentAccount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)

	_, err := repo.Current(context.Background())
	assert.ErrorIs(t, err, driven.ErrNoAccount)
}

func TestAccountRepo_SwitchAccounts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.SetCurrent(ctx, model.Account{ID: 1, Email: "a@example.com", DefaultWorkspaceID: 9}))
	require.NoError(t, repo.SetCurrent(ctx, model.Account{ID: 2, Email: "b@example.com"}))

	acct, err := repo.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), acct.ID)
	assert.Equal(t, "b@example.com", acct.Email)

	require.NoError(t, repo.SetCurrent(ctx, model.Account{ID: 1, Email: "a@example.com", DefaultWorkspaceID: 9}))
	acct, err = repo.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), acct.ID)
	assert.Equal(t, int64(9), acct.DefaultWorkspaceID)
}
