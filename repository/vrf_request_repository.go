package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"custodian/database"
	"custodian/domain/entities"
)

// VRFRequestRepository implements the VRFRequestRepository interface
type VRFRequestRepository struct {
	q Queryable
}

// NewVRFRequestRepository creates a new VRF request repository
func NewVRFRequestRepository(db *database.DB) *VRFRequestRepository {
	return &VRFRequestRepository{q: db.Pool}
}

// newVRFRequestRepository creates a new VRF request repository bound to a transaction
func newVRFRequestRepository(tx Queryable) *VRFRequestRepository {
	return &VRFRequestRepository{q: tx}
}

func (r *VRFRequestRepository) scanRequest(row pgx.Row) (*entities.VRFRequest, error) {
	var request entities.VRFRequest
	err := row.Scan(
		&request.ID,
		&request.GameAddress,
		&request.ClientSeed,
		&request.Status,
		&request.CreatedAt,
		&request.FulfilledAt,
	)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// Create persists a new pending request. The partial unique index on
// (game_address) WHERE pending backstops the one-outstanding-roll rule.
func (r *VRFRequestRepository) Create(ctx context.Context, request *entities.VRFRequest) error {
	query := `
		INSERT INTO vrf_requests (id, game_address, client_seed, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		request.ID,
		request.GameAddress,
		request.ClientSeed,
		request.Status,
	).Scan(&request.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create vrf request %s: %w", request.ID, err)
	}

	return nil
}

// GetByID retrieves a request by identity
func (r *VRFRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.VRFRequest, error) {
	query := `
		SELECT id, game_address, client_seed, status, created_at, fulfilled_at
		FROM vrf_requests
		WHERE id = $1
	`

	request, err := r.scanRequest(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vrf request %s: %w", id, err)
	}

	return request, nil
}

// GetPendingByGame retrieves the outstanding request for a game
func (r *VRFRequestRepository) GetPendingByGame(ctx context.Context, gameAddress string) (*entities.VRFRequest, error) {
	query := `
		SELECT id, game_address, client_seed, status, created_at, fulfilled_at
		FROM vrf_requests
		WHERE game_address = $1 AND status = 'pending'
	`

	request, err := r.scanRequest(r.q.QueryRow(ctx, query, gameAddress))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending request for game %s: %w", gameAddress, err)
	}

	return request, nil
}

// MarkFulfilled transitions a pending request to fulfilled
func (r *VRFRequestRepository) MarkFulfilled(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE vrf_requests
		SET status = 'fulfilled', fulfilled_at = now()
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark request %s fulfilled: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no pending request %s", id)
	}

	return nil
}
