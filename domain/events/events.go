package events

import "custodian/domain/entities"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeEscrowFunded   EventType = "escrow_funded"
	EventTypeEscrowReleased EventType = "escrow_released"
	EventTypeRollRequested  EventType = "roll_requested"
	EventTypeDiceRolled     EventType = "dice_rolled"
	EventTypeBalanceChange  EventType = "balance_change"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// EscrowFundedEvent is emitted when a deposit creates and funds an escrow
type EscrowFundedEvent struct {
	Owner        string
	Address      string
	LockedAmount int64
	UnlockPrice  string // decimal string, fixed-point
}

func (e EscrowFundedEvent) Type() EventType {
	return EventTypeEscrowFunded
}

// EscrowReleasedEvent is emitted when a withdrawal closes an escrow
type EscrowReleasedEvent struct {
	Owner          string
	Address        string
	ReleasedAmount int64
	Reason         entities.ReleaseReason
}

func (e EscrowReleasedEvent) Type() EventType {
	return EventTypeEscrowReleased
}

// RollRequestedEvent is the randomness request handed to the VRF oracle queue.
// CallbackSubject and CallbackAccounts form the callback descriptor the oracle
// must echo verbatim when it delivers.
type RollRequestedEvent struct {
	RequestID        string
	Owner            string
	GameAddress      string
	ClientSeed       string
	CallbackSubject  string
	CallbackAccounts []string
}

func (e RollRequestedEvent) Type() EventType {
	return EventTypeRollRequested
}

// DiceRolledEvent is emitted when a randomness delivery lands on a game
type DiceRolledEvent struct {
	RequestID   string
	GameAddress string
	Die1        uint8
	Die2        uint8
	RollCount   int
	Doubles     bool
}

func (e DiceRolledEvent) Type() EventType {
	return EventTypeDiceRolled
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	Owner           string
	OldBalance      int64
	NewBalance      int64
	ChangeAmount    int64
	TransactionType entities.TransactionType
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}
