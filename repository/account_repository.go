package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"custodian/database"
	"custodian/domain/entities"
)

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q Queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepository creates a new account repository bound to a transaction
func newAccountRepository(tx Queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

// GetByOwner retrieves an account by owner identity
func (r *AccountRepository) GetByOwner(ctx context.Context, owner string) (*entities.Account, error) {
	query := `
		SELECT owner, balance, created_at, updated_at
		FROM accounts
		WHERE owner = $1
	`

	var account entities.Account
	err := r.q.QueryRow(ctx, query, owner).Scan(
		&account.Owner,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account for owner %s: %w", owner, err)
	}

	return &account, nil
}

// Create creates a new account with the initial balance
func (r *AccountRepository) Create(ctx context.Context, owner string, initialBalance int64) (*entities.Account, error) {
	query := `
		INSERT INTO accounts (owner, balance)
		VALUES ($1, $2)
		RETURNING owner, balance, created_at, updated_at
	`

	var account entities.Account
	err := r.q.QueryRow(ctx, query, owner, initialBalance).Scan(
		&account.Owner,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account for owner %s: %w", owner, err)
	}

	return &account, nil
}

// UpdateBalance sets an account's balance
func (r *AccountRepository) UpdateBalance(ctx context.Context, owner string, newBalance int64) error {
	query := `
		UPDATE accounts
		SET balance = $2, updated_at = now()
		WHERE owner = $1
	`

	tag, err := r.q.Exec(ctx, query, owner, newBalance)
	if err != nil {
		return fmt.Errorf("failed to update balance for owner %s: %w", owner, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no account for owner %s", owner)
	}

	return nil
}
