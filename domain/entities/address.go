package entities

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain-separation tags for deterministic record addressing. Changing a tag
// changes every derived address, so they are versioned.
const (
	escrowAddressTag = "custody/escrow/v1"
	gameAddressTag   = "custody/game/v1"
)

// DeriveEscrowAddress returns the storage address of the escrow record for the
// given owner. The derivation is a pure function of the owner identity, which
// is what guarantees at most one live escrow per owner: a second deposit lands
// on the same address.
func DeriveEscrowAddress(owner string) string {
	h := sha256.New()
	h.Write([]byte(escrowAddressTag))
	h.Write([]byte(owner))
	return hex.EncodeToString(h.Sum(nil))
}

// DeriveGameAddress returns the storage address of the escape game record
// bound to an owner, their escrow, and the depositor-supplied client seed that
// identifies this game's randomness requests.
func DeriveGameAddress(owner, escrowAddress, clientSeed string) string {
	h := sha256.New()
	h.Write([]byte(gameAddressTag))
	h.Write([]byte(owner))
	h.Write([]byte(escrowAddress))
	h.Write([]byte(clientSeed))
	return hex.EncodeToString(h.Sum(nil))
}
