package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"custodian/database"
	"custodian/domain/entities"
)

// EscrowRepository implements the EscrowRepository interface
type EscrowRepository struct {
	q Queryable
}

// NewEscrowRepository creates a new escrow repository
func NewEscrowRepository(db *database.DB) *EscrowRepository {
	return &EscrowRepository{q: db.Pool}
}

// newEscrowRepository creates a new escrow repository bound to a transaction
func newEscrowRepository(tx Queryable) *EscrowRepository {
	return &EscrowRepository{q: tx}
}

// The unlock price travels as text so the NUMERIC column round-trips into an
// exact decimal with no float intermediate.

func (r *EscrowRepository) scanEscrow(row pgx.Row) (*entities.Escrow, error) {
	var escrow entities.Escrow
	var unlockPrice string
	err := row.Scan(
		&escrow.Address,
		&escrow.Owner,
		&escrow.LockedAmount,
		&unlockPrice,
		&escrow.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	escrow.UnlockPrice, err = decimal.NewFromString(unlockPrice)
	if err != nil {
		return nil, fmt.Errorf("failed to parse unlock price %q: %w", unlockPrice, err)
	}

	return &escrow, nil
}

// GetByOwner retrieves the live escrow for an owner
func (r *EscrowRepository) GetByOwner(ctx context.Context, owner string) (*entities.Escrow, error) {
	query := `
		SELECT address, owner, locked_amount, unlock_price::text, created_at
		FROM escrows
		WHERE owner = $1
	`

	escrow, err := r.scanEscrow(r.q.QueryRow(ctx, query, owner))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow for owner %s: %w", owner, err)
	}

	return escrow, nil
}

// GetByAddress retrieves an escrow by its derived address
func (r *EscrowRepository) GetByAddress(ctx context.Context, address string) (*entities.Escrow, error) {
	query := `
		SELECT address, owner, locked_amount, unlock_price::text, created_at
		FROM escrows
		WHERE address = $1
	`

	escrow, err := r.scanEscrow(r.q.QueryRow(ctx, query, address))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow %s: %w", address, err)
	}

	return escrow, nil
}

// Create persists a new escrow record
func (r *EscrowRepository) Create(ctx context.Context, escrow *entities.Escrow) error {
	query := `
		INSERT INTO escrows (address, owner, locked_amount, unlock_price)
		VALUES ($1, $2, $3, $4::numeric)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		escrow.Address,
		escrow.Owner,
		escrow.LockedAmount,
		escrow.UnlockPrice.String(),
	).Scan(&escrow.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create escrow %s: %w", escrow.Address, err)
	}

	return nil
}

// Delete removes an escrow record; the game and request rows bound to it go
// with it via cascade
func (r *EscrowRepository) Delete(ctx context.Context, address string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM escrows WHERE address = $1`, address)
	if err != nil {
		return fmt.Errorf("failed to delete escrow %s: %w", address, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no escrow at address %s", address)
	}

	return nil
}
