package repository

import (
	"context"
	"testing"

	"tapcoin/models"
	"tapcoin/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRepository_Record(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	accounts := NewAccountRepository(testDB.DB)
	repo := NewLedgerRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, accounts.Create(ctx, testutil.CreateTestAccount(1, "alice")))

	entry := testutil.CreateTestLedgerEntry(1, models.EntryTypeDailyReward, 0, 500)
	err := repo.Record(ctx, entry)
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestLedgerRepository_GetByAccount(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	accounts := NewAccountRepository(testDB.DB)
	repo := NewLedgerRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, accounts.Create(ctx, testutil.CreateTestAccount(1, "alice")))

	require.NoError(t, repo.Record(ctx, testutil.CreateTestLedgerEntry(1, models.EntryTypeTap, 0, 1)))

	relatedID := int64(7)
	relatedType := models.RelatedTypeUpgrade
	require.NoError(t, repo.Record(ctx, &models.LedgerEntry{
		AccountID:     1,
		BalanceBefore: 1,
		BalanceAfter:  0,
		ChangeAmount:  -1,
		EntryType:     models.EntryTypeUpgrade,
		Metadata:      map[string]any{"new_power": 2},
		RelatedID:     &relatedID,
		RelatedType:   &relatedType,
	}))

	entries, err := repo.GetByAccount(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first
	assert.Equal(t, models.EntryTypeUpgrade, entries[0].EntryType)
	require.NotNil(t, entries[0].RelatedID)
	assert.Equal(t, int64(7), *entries[0].RelatedID)
	assert.Equal(t, float64(2), entries[0].Metadata["new_power"])

	assert.Equal(t, models.EntryTypeTap, entries[1].EntryType)
	assert.Nil(t, entries[1].RelatedID)
}

func TestLedgerRepository_RefundOnce(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	accounts := NewAccountRepository(testDB.DB)
	withdrawals := NewWithdrawalRepository(testDB.DB)
	repo := NewLedgerRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, accounts.Create(ctx, testutil.CreateTestAccount(1, "alice")))

	withdrawal := testutil.CreateTestWithdrawal(1, 55000)
	require.NoError(t, withdrawals.Create(ctx, withdrawal))

	relatedType := models.RelatedTypeWithdrawal
	refund := func() *models.LedgerEntry {
		return &models.LedgerEntry{
			AccountID:     1,
			BalanceBefore: 0,
			BalanceAfter:  55000,
			ChangeAmount:  55000,
			EntryType:     models.EntryTypeWithdrawalRefund,
			RelatedID:     &withdrawal.ID,
			RelatedType:   &relatedType,
		}
	}

	has, err := repo.HasRefund(ctx, withdrawal.ID)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, repo.Record(ctx, refund()))

	has, err = repo.HasRefund(ctx, withdrawal.ID)
	require.NoError(t, err)
	assert.True(t, has)

	// A second refund entry for the same request hits the partial unique
	// index, regardless of what the caller thinks the state is
	err = repo.Record(ctx, refund())
	assert.ErrorIs(t, err, models.ErrStoreConflict)
}
