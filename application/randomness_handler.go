package application

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"custodian/domain/entities"
	"custodian/domain/services"
)

// FulfillmentMessage is the wire shape of one VRF oracle delivery. The
// signature covers the request identity concatenated with the raw randomness,
// attested by the oracle authority key.
type FulfillmentMessage struct {
	RequestID  string `json:"request_id"`
	Randomness string `json:"randomness"` // hex
	Signature  string `json:"signature"`  // hex ed25519
}

// RandomnessHandler consumes VRF oracle deliveries. Only deliveries signed by
// the configured oracle authority reach the game state.
type RandomnessHandler struct {
	uowFactory      UnitOfWorkFactory
	oracleAuthority ed25519.PublicKey
}

// NewRandomnessHandler creates a handler trusting the given authority key,
// supplied as hex
func NewRandomnessHandler(uowFactory UnitOfWorkFactory, oracleAuthorityHex string) (*RandomnessHandler, error) {
	pub, err := hex.DecodeString(oracleAuthorityHex)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("oracle authority %q is not a valid ed25519 public key", oracleAuthorityHex)
	}

	return &RandomnessHandler{
		uowFactory:      uowFactory,
		oracleAuthority: ed25519.PublicKey(pub),
	}, nil
}

// HandleFulfillment verifies and applies one oracle delivery
func (h *RandomnessHandler) HandleFulfillment(ctx context.Context, msg FulfillmentMessage) (*entities.EscapeGame, error) {
	requestID, err := uuid.Parse(msg.RequestID)
	if err != nil {
		return nil, entities.WrapInstructionError(entities.CodeStaleOrForeignRandomness, err, "delivery names no valid request")
	}

	randomness, err := hex.DecodeString(msg.Randomness)
	if err != nil {
		return nil, entities.WrapInstructionError(entities.CodeStaleOrForeignRandomness, err, "delivered randomness is not hex")
	}

	if err := h.verifyAuthority(requestID, randomness, msg.Signature); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	gameService := services.NewEscapeGameService(
		uow.AccountRepository(),
		uow.EscrowRepository(),
		uow.EscapeGameRepository(),
		uow.VRFRequestRepository(),
		uow.BalanceHistoryRepository(),
		uow.EventBus(),
	)

	game, err := gameService.ConsumeRandomness(ctx, requestID, randomness)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"request": requestID,
		"game":    game.Address,
		"die1":    game.Die1,
		"die2":    game.Die2,
		"rolls":   game.RollCount,
		"doubles": game.RolledDoubles(),
	}).Info("Randomness consumed")

	return game, nil
}

// verifyAuthority checks the oracle signature over requestID || randomness
func (h *RandomnessHandler) verifyAuthority(requestID uuid.UUID, randomness []byte, signatureHex string) error {
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return entities.NewInstructionError(entities.CodeUnauthorized, "oracle signature is malformed")
	}

	signed := FulfillmentSigningBytes(requestID, randomness)
	if !ed25519.Verify(h.oracleAuthority, signed, sig) {
		return entities.NewInstructionError(entities.CodeUnauthorized, "delivery is not signed by the oracle authority")
	}

	return nil
}

// FulfillmentSigningBytes returns the bytes the oracle authority signs for one
// delivery. Exported so oracle-side tooling and tests sign the same material.
func FulfillmentSigningBytes(requestID uuid.UUID, randomness []byte) []byte {
	buf := make([]byte, 0, len(requestID)+len(randomness))
	buf = append(buf, requestID[:]...)
	buf = append(buf, randomness...)
	return buf
}
