package infrastructure

import (
	"fmt"

	"custodian/domain/events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects.
// Roll requests are special: they route to the VRF oracle's request subject,
// so publishing the event is the oracle queue submission.
type EventSubjectMapper struct {
	vrfRequestSubject string
}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper(vrfRequestSubject string) *EventSubjectMapper {
	return &EventSubjectMapper{vrfRequestSubject: vrfRequestSubject}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeEscrowFunded:
		return "custody.escrow.funded"
	case events.EventTypeEscrowReleased:
		return "custody.escrow.released"
	case events.EventTypeRollRequested:
		return m.vrfRequestSubject
	case events.EventTypeDiceRolled:
		return "custody.game.dice_rolled"
	case events.EventTypeBalanceChange:
		return "custody.accounts.balance_changed"
	default:
		// Fallback for unknown event types
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// GetCustodyEventSubjects returns the subjects this service emits audit
// events on, excluding the oracle request subject which has its own stream
func (m *EventSubjectMapper) GetCustodyEventSubjects() []string {
	return []string{
		"custody.escrow.funded",
		"custody.escrow.released",
		"custody.game.dice_rolled",
		"custody.accounts.balance_changed",
	}
}
