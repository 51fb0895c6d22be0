package infrastructure

import (
	"context"
	"encoding/json"
	"errors"

	log "github.com/sirupsen/logrus"

	"custodian/application"
	"custodian/domain/entities"
)

// Instruction request/reply subjects served by the consumer
const (
	SubjectDeposit     = "custody.deposit"
	SubjectWithdraw    = "custody.withdraw"
	SubjectInitGame    = "custody.init_game"
	SubjectRequestRoll = "custody.request_roll"
)

// InstructionReply is the wire shape of every instruction response. A failed
// instruction carries its stable error code; the state change it attempted
// was rolled back in full.
type InstructionReply struct {
	OK      bool            `json:"ok"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// InstructionConsumer serves the custody instruction surface over NATS
// request/reply. Every request is a signed envelope; the signature gates
// access before any handler runs.
type InstructionConsumer struct {
	natsClient *NATSClient
	handler    *application.InstructionHandler
}

// NewInstructionConsumer creates a new instruction consumer
func NewInstructionConsumer(natsClient *NATSClient, handler *application.InstructionHandler) *InstructionConsumer {
	return &InstructionConsumer{
		natsClient: natsClient,
		handler:    handler,
	}
}

// Start subscribes to all instruction subjects
func (c *InstructionConsumer) Start(ctx context.Context) error {
	subjects := map[string]string{
		SubjectDeposit:     application.InstructionDeposit,
		SubjectWithdraw:    application.InstructionWithdraw,
		SubjectInitGame:    application.InstructionInitGame,
		SubjectRequestRoll: application.InstructionRequestRoll,
	}

	for subject, instruction := range subjects {
		subject, instruction := subject, instruction
		err := c.natsClient.SubscribeRequest(subject, func(data []byte) []byte {
			return c.serve(ctx, instruction, data)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// serve verifies and dispatches one instruction, always producing a reply
func (c *InstructionConsumer) serve(ctx context.Context, instruction string, data []byte) []byte {
	var envelope application.SignedInstruction
	if err := json.Unmarshal(data, &envelope); err != nil {
		return errorReply(entities.NewInstructionError(entities.CodeInternal, "request is not a valid instruction envelope"))
	}

	if envelope.Instruction != instruction {
		return errorReply(entities.NewInstructionError(entities.CodeUnauthorized,
			"envelope names instruction %q but was submitted on the %q subject", envelope.Instruction, instruction))
	}

	if err := envelope.Verify(); err != nil {
		log.WithFields(log.Fields{
			"instruction": instruction,
			"owner":       envelope.Owner,
		}).Warn("Rejected instruction with bad signature")
		return errorReply(err)
	}

	result, err := c.dispatch(ctx, instruction, &envelope)
	if err != nil {
		code := entities.CodeOf(err)
		logger := log.WithFields(log.Fields{
			"instruction": instruction,
			"owner":       envelope.Owner,
			"code":        code,
		})
		if code == entities.CodeInternal {
			logger.WithError(err).Error("Instruction failed")
		} else {
			logger.Info("Instruction rejected")
		}
		return errorReply(err)
	}

	return successReply(result)
}

func (c *InstructionConsumer) dispatch(ctx context.Context, instruction string, envelope *application.SignedInstruction) (any, error) {
	switch instruction {
	case application.InstructionDeposit:
		var payload application.DepositPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return nil, entities.WrapInstructionError(entities.CodeInvalidAmount, err, "deposit payload is not decodable")
		}
		return c.handler.Deposit(ctx, envelope.Owner, payload)

	case application.InstructionWithdraw:
		var payload application.WithdrawPayload
		if len(envelope.Payload) > 0 {
			if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
				return nil, entities.WrapInstructionError(entities.CodeInvalidAmount, err, "withdraw payload is not decodable")
			}
		}
		return c.handler.Withdraw(ctx, envelope.Owner, payload)

	case application.InstructionInitGame:
		var payload application.InitGamePayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return nil, entities.WrapInstructionError(entities.CodeInternal, err, "init_game payload is not decodable")
		}
		return c.handler.InitGame(ctx, envelope.Owner, payload)

	case application.InstructionRequestRoll:
		return c.handler.RequestRoll(ctx, envelope.Owner)

	default:
		return nil, entities.NewInstructionError(entities.CodeInternal, "unknown instruction %q", instruction)
	}
}

func successReply(result any) []byte {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return errorReply(entities.WrapInstructionError(entities.CodeInternal, err, "failed to encode result"))
	}
	reply, _ := json.Marshal(InstructionReply{OK: true, Result: resultJSON})
	return reply
}

func errorReply(err error) []byte {
	msg := err.Error()
	var ie *entities.InstructionError
	if errors.As(err, &ie) {
		msg = ie.Message
	}
	reply, _ := json.Marshal(InstructionReply{
		OK:      false,
		Code:    string(entities.CodeOf(err)),
		Message: msg,
	})
	return reply
}
