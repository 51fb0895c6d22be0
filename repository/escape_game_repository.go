package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"custodian/database"
	"custodian/domain/entities"
)

// EscapeGameRepository implements the EscapeGameRepository interface
type EscapeGameRepository struct {
	q Queryable
}

// NewEscapeGameRepository creates a new escape game repository
func NewEscapeGameRepository(db *database.DB) *EscapeGameRepository {
	return &EscapeGameRepository{q: db.Pool}
}

// newEscapeGameRepository creates a new escape game repository bound to a transaction
func newEscapeGameRepository(tx Queryable) *EscapeGameRepository {
	return &EscapeGameRepository{q: tx}
}

const gameColumns = `address, owner, escrow_address, client_seed, die_sides, roll_count, die1, die2, last_update, created_at`

func (r *EscapeGameRepository) scanGame(row pgx.Row) (*entities.EscapeGame, error) {
	var game entities.EscapeGame
	err := row.Scan(
		&game.Address,
		&game.Owner,
		&game.EscrowAddress,
		&game.ClientSeed,
		&game.DieSides,
		&game.RollCount,
		&game.Die1,
		&game.Die2,
		&game.LastUpdate,
		&game.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// GetByAddress retrieves a game by its derived address
func (r *EscapeGameRepository) GetByAddress(ctx context.Context, address string) (*entities.EscapeGame, error) {
	query := `SELECT ` + gameColumns + ` FROM escape_games WHERE address = $1`

	game, err := r.scanGame(r.q.QueryRow(ctx, query, address))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game %s: %w", address, err)
	}

	return game, nil
}

// GetByEscrow retrieves the game bound to an escrow
func (r *EscapeGameRepository) GetByEscrow(ctx context.Context, escrowAddress string) (*entities.EscapeGame, error) {
	query := `SELECT ` + gameColumns + ` FROM escape_games WHERE escrow_address = $1`

	game, err := r.scanGame(r.q.QueryRow(ctx, query, escrowAddress))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game for escrow %s: %w", escrowAddress, err)
	}

	return game, nil
}

// Create persists a new game record
func (r *EscapeGameRepository) Create(ctx context.Context, game *entities.EscapeGame) error {
	query := `
		INSERT INTO escape_games (address, owner, escrow_address, client_seed, die_sides)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		game.Address,
		game.Owner,
		game.EscrowAddress,
		game.ClientSeed,
		game.DieSides,
	).Scan(&game.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create game %s: %w", game.Address, err)
	}

	return nil
}

// RecordDelivery applies one delivered roll in a single statement: dice are
// written, the roll count incremented and the update marker advanced
// together, so a reader never observes a half-applied delivery.
func (r *EscapeGameRepository) RecordDelivery(ctx context.Context, address string, die1, die2 uint8) (*entities.EscapeGame, error) {
	query := `
		UPDATE escape_games
		SET die1 = $2, die2 = $3, roll_count = roll_count + 1, last_update = now()
		WHERE address = $1
		RETURNING ` + gameColumns

	game, err := r.scanGame(r.q.QueryRow(ctx, query, address, die1, die2))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("no game at address %s", address)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record delivery for game %s: %w", address, err)
	}

	return game, nil
}
