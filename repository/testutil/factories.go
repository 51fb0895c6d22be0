package testutil

import (
	"github.com/shopspring/decimal"

	"custodian/domain/entities"
)

// CreateTestEscrow creates a funded escrow for the given owner
func CreateTestEscrow(owner string, amount int64, unlockPrice string) *entities.Escrow {
	return &entities.Escrow{
		Address:      entities.DeriveEscrowAddress(owner),
		Owner:        owner,
		LockedAmount: amount,
		UnlockPrice:  decimal.RequireFromString(unlockPrice),
	}
}

// CreateTestGame creates an unrolled escape game bound to the owner's escrow
func CreateTestGame(owner, clientSeed string) *entities.EscapeGame {
	return entities.NewEscapeGame(owner, entities.DeriveEscrowAddress(owner), clientSeed, 6)
}

// CreateTestBalanceHistory creates a balance history entry with default amounts
func CreateTestBalanceHistory(owner string, transactionType entities.TransactionType) *entities.BalanceHistory {
	return &entities.BalanceHistory{
		Owner:           owner,
		BalanceBefore:   1000,
		BalanceAfter:    400,
		ChangeAmount:    -600,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
	}
}
