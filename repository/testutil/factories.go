package testutil

import (
	"fmt"

	"tapcoin/models"
)

// CreateTestAccount creates a test account with default values
func CreateTestAccount(id int64, displayName string) *models.Account {
	return &models.Account{
		ID:           id,
		DisplayName:  displayName,
		Coins:        0,
		TapPower:     1,
		ReferralCode: fmt.Sprintf("ref_test%08d", id),
	}
}

// CreateTestAccountWithCoins creates a test account with a specific balance
func CreateTestAccountWithCoins(id int64, displayName string, coins int64) *models.Account {
	account := CreateTestAccount(id, displayName)
	account.Coins = coins
	return account
}

// CreateTestWithdrawal creates a pending test withdrawal request
func CreateTestWithdrawal(accountID int64, amount int64) *models.Withdrawal {
	return &models.Withdrawal{
		AccountID: accountID,
		Method:    "ton",
		Address:   "UQtest-address",
		Amount:    amount,
		Status:    models.WithdrawalStatusPending,
	}
}

// CreateTestLedgerEntry creates a test ledger entry for the given account
func CreateTestLedgerEntry(accountID int64, entryType models.EntryType, before, after int64) *models.LedgerEntry {
	return &models.LedgerEntry{
		AccountID:     accountID,
		BalanceBefore: before,
		BalanceAfter:  after,
		ChangeAmount:  after - before,
		EntryType:     entryType,
		Metadata: map[string]any{
			"test": true,
		},
	}
}
