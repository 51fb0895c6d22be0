package entities

import (
	"time"

	"github.com/google/uuid"
)

// EscapeGame tracks one depositor's dice game against the VRF oracle. The
// request path never writes the dice fields; only a delivered randomness
// callback mutates RollCount, Die1, Die2 and LastUpdate, so a polling client
// can tell a pending roll from a delivered one by watching LastUpdate advance.
type EscapeGame struct {
	Address       string     `db:"address"`
	Owner         string     `db:"owner"`
	EscrowAddress string     `db:"escrow_address"`
	ClientSeed    string     `db:"client_seed"`
	DieSides      uint8      `db:"die_sides"`
	RollCount     int        `db:"roll_count"`
	Die1          uint8      `db:"die1"`
	Die2          uint8      `db:"die2"`
	LastUpdate    *time.Time `db:"last_update"`
	CreatedAt     time.Time  `db:"created_at"`
}

// NewEscapeGame builds an unrolled game bound to one escrow and one
// depositor-supplied client seed.
func NewEscapeGame(owner, escrowAddress, clientSeed string, dieSides uint8) *EscapeGame {
	return &EscapeGame{
		Address:       DeriveGameAddress(owner, escrowAddress, clientSeed),
		Owner:         owner,
		EscrowAddress: escrowAddress,
		ClientSeed:    clientSeed,
		DieSides:      dieSides,
	}
}

// RolledDoubles reports whether the last delivered roll was a winning pair.
// Zero dice mean no delivery has happened yet and never count as doubles.
func (g *EscapeGame) RolledDoubles() bool {
	return g.Die1 != 0 && g.Die1 == g.Die2
}

// Resolved reports whether the game grants release: doubles on any delivered
// roll, or the attempt budget exhausted. Exhaustion releases regardless of
// dice values so a depositor is never locked in indefinitely.
func (g *EscapeGame) Resolved(maxAttempts int) bool {
	return g.RolledDoubles() || g.RollCount >= maxAttempts
}

// DeriveDice reduces delivered randomness to two die faces in [1, sides].
// The byte-modulo reduction carries a small bias toward low faces when 256 is
// not a multiple of sides; bounded and accepted, see DESIGN.md.
func DeriveDice(randomness []byte, sides uint8) (die1, die2 uint8, err error) {
	if sides == 0 {
		return 0, 0, NewInstructionError(CodeInternal, "die with zero sides")
	}
	if len(randomness) < 2 {
		return 0, 0, NewInstructionError(CodeStaleOrForeignRandomness, "randomness too short: %d bytes", len(randomness))
	}
	return randomness[0]%sides + 1, randomness[1]%sides + 1, nil
}

// RequestStatus is the lifecycle state of one randomness request
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusFulfilled RequestStatus = "fulfilled"
)

// VRFRequest is one outstanding or completed randomness request. At most one
// pending request may exist per game; delivery for anything other than the
// pending request is rejected as stale or foreign.
type VRFRequest struct {
	ID          uuid.UUID     `db:"id"`
	GameAddress string        `db:"game_address"`
	ClientSeed  string        `db:"client_seed"`
	Status      RequestStatus `db:"status"`
	CreatedAt   time.Time     `db:"created_at"`
	FulfilledAt *time.Time    `db:"fulfilled_at"`
}

// NewVRFRequest builds a pending request for the given game
func NewVRFRequest(gameAddress, clientSeed string) *VRFRequest {
	return &VRFRequest{
		ID:          uuid.New(),
		GameAddress: gameAddress,
		ClientSeed:  clientSeed,
		Status:      RequestStatusPending,
	}
}

// IsPending reports whether the request still awaits oracle delivery
func (r *VRFRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}
