package application

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"

	"custodian/domain/entities"
)

// Instruction names accepted on the custody request surface
const (
	InstructionDeposit     = "deposit"
	InstructionWithdraw    = "withdraw"
	InstructionInitGame    = "init_game"
	InstructionRequestRoll = "request_roll"
)

// SignedInstruction is the wire envelope for every client-submitted
// instruction. Owner doubles as the signing identity: a hex-encoded ed25519
// public key. The signature covers the canonical signing bytes, so a relayed
// or replayed envelope cannot be altered without invalidating it.
type SignedInstruction struct {
	Instruction string          `json:"instruction"`
	Owner       string          `json:"owner"`
	Nonce       string          `json:"nonce"`
	Signature   string          `json:"signature"`
	Payload     json.RawMessage `json:"payload"`
}

// DepositPayload carries the deposit instruction arguments
type DepositPayload struct {
	Amount      int64  `json:"amount"`
	UnlockPrice string `json:"unlock_price"`
}

// WithdrawPayload carries the withdraw instruction arguments
type WithdrawPayload struct {
	// MaxConfidence overrides the configured confidence bound when set
	MaxConfidence *string `json:"max_confidence,omitempty"`
}

// InitGamePayload carries the init_game instruction arguments
type InitGamePayload struct {
	ClientSeed string `json:"client_seed"`
}

// SigningBytes returns the canonical byte string the owner signs: each
// envelope field on its own line, payload bytes last. Field order is fixed so
// signer and verifier always agree.
func (si *SignedInstruction) SigningBytes() []byte {
	buf := make([]byte, 0, len(si.Instruction)+len(si.Owner)+len(si.Nonce)+len(si.Payload)+3)
	buf = append(buf, si.Instruction...)
	buf = append(buf, '\n')
	buf = append(buf, si.Owner...)
	buf = append(buf, '\n')
	buf = append(buf, si.Nonce...)
	buf = append(buf, '\n')
	buf = append(buf, si.Payload...)
	return buf
}

// Verify checks that the envelope's signature was produced by the owner key.
// Malformed keys or signatures fail the same way a wrong signature does.
func (si *SignedInstruction) Verify() error {
	pub, err := hex.DecodeString(si.Owner)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return entities.NewInstructionError(entities.CodeUnauthorized, "owner %q is not a valid signing key", si.Owner)
	}

	sig, err := hex.DecodeString(si.Signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return entities.NewInstructionError(entities.CodeUnauthorized, "signature is malformed")
	}

	if !ed25519.Verify(ed25519.PublicKey(pub), si.SigningBytes(), sig) {
		return entities.NewInstructionError(entities.CodeUnauthorized, "signature does not match owner %s", si.Owner)
	}

	return nil
}

// Sign fills in the envelope's signature using the given private key.
// The public half must already be set as Owner.
func (si *SignedInstruction) Sign(priv ed25519.PrivateKey) {
	si.Signature = hex.EncodeToString(ed25519.Sign(priv, si.SigningBytes()))
}
