package entities

import (
	"math"
	"time"
)

// Account holds a depositor's spendable balance in base currency units.
// Deposits and oracle fees debit it; a successful withdrawal credits it.
type Account struct {
	Owner     string    `db:"owner"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CheckedAdd returns a+b, failing with ArithmeticOverflow instead of wrapping.
func CheckedAdd(a, b int64) (int64, error) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, NewInstructionError(CodeArithmeticOverflow, "adding %d to %d overflows", b, a)
	}
	if b < 0 && a < math.MinInt64-b {
		return 0, NewInstructionError(CodeArithmeticOverflow, "adding %d to %d overflows", b, a)
	}
	return a + b, nil
}

// CheckedSub returns a-b, failing with ArithmeticOverflow instead of wrapping.
func CheckedSub(a, b int64) (int64, error) {
	if b == math.MinInt64 {
		return 0, NewInstructionError(CodeArithmeticOverflow, "subtracting %d from %d overflows", b, a)
	}
	return CheckedAdd(a, -b)
}
