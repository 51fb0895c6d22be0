package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Escrow is the custody record holding a depositor's locked funds and the
// price threshold that releases them. It exists only while funded: creation
// and funding happen in one atomic step, and a successful withdrawal zeroes
// and deletes it in one atomic step.
type Escrow struct {
	Address      string          `db:"address"`
	Owner        string          `db:"owner"`
	LockedAmount int64           `db:"locked_amount"`
	UnlockPrice  decimal.Decimal `db:"unlock_price"`
	CreatedAt    time.Time       `db:"created_at"`
}

// NewEscrow builds a funded escrow record at the owner's deterministic address
func NewEscrow(owner string, amount int64, unlockPrice decimal.Decimal) (*Escrow, error) {
	if amount <= 0 {
		return nil, NewInstructionError(CodeInvalidAmount, "escrow amount must be positive, got %d", amount)
	}
	return &Escrow{
		Address:      DeriveEscrowAddress(owner),
		Owner:        owner,
		LockedAmount: amount,
		UnlockPrice:  unlockPrice,
	}, nil
}

// ReleaseReason names which condition released an escrow
type ReleaseReason string

const (
	ReleaseReasonPrice      ReleaseReason = "price_above_threshold"
	ReleaseReasonDoubles    ReleaseReason = "rolled_doubles"
	ReleaseReasonExhaustion ReleaseReason = "attempts_exhausted"
)

// WithdrawalResult reports a successful release back to the caller
type WithdrawalResult struct {
	Owner          string
	Address        string
	ReleasedAmount int64
	NewBalance     int64
	Reason         ReleaseReason
}

// ReleasableAtPrice reports whether the given feed value satisfies the price
// condition. The comparison is strict: a price exactly at the threshold does
// not release.
func (e *Escrow) ReleasableAtPrice(value decimal.Decimal) bool {
	return value.GreaterThan(e.UnlockPrice)
}
