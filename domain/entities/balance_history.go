package entities

import "time"

// TransactionType categorizes a balance change for the audit trail
type TransactionType string

const (
	TransactionTypeEscrowDeposit TransactionType = "escrow_deposit"
	TransactionTypeEscrowRelease TransactionType = "escrow_release"
	TransactionTypeOracleFee     TransactionType = "oracle_fee"
	TransactionTypeAdminCredit   TransactionType = "admin_credit"
)

// BalanceHistory records a single balance change on an account. Escrow and
// game records are reclaimed when they close; this table is what remains for
// audit.
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	Owner               string          `db:"owner"`
	BalanceBefore       int64           `db:"balance_before"`
	BalanceAfter        int64           `db:"balance_after"`
	ChangeAmount        int64           `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	CreatedAt           time.Time       `db:"created_at"`
}
