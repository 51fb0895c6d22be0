package application

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"custodian/domain/entities"
	"custodian/domain/interfaces"
	"custodian/domain/services"
)

// InstructionHandler executes verified custody instructions. Each instruction
// runs as one unit of work: all of its state changes commit together or not
// at all, and its events flush only after commit.
type InstructionHandler struct {
	uowFactory UnitOfWorkFactory
	priceFeed  interfaces.PriceFeed
}

// NewInstructionHandler creates a new instruction handler
func NewInstructionHandler(uowFactory UnitOfWorkFactory, priceFeed interfaces.PriceFeed) *InstructionHandler {
	return &InstructionHandler{
		uowFactory: uowFactory,
		priceFeed:  priceFeed,
	}
}

// Deposit creates and funds an escrow for the owner
func (h *InstructionHandler) Deposit(ctx context.Context, owner string, payload DepositPayload) (*entities.Escrow, error) {
	unlockPrice, err := decimal.NewFromString(payload.UnlockPrice)
	if err != nil {
		return nil, entities.WrapInstructionError(entities.CodeInvalidArgument, err, "unlock price %q is not a decimal", payload.UnlockPrice)
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	escrowService := h.escrowService(uow)
	escrow, err := escrowService.Deposit(ctx, owner, payload.Amount, unlockPrice)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"owner":   owner,
		"address": escrow.Address,
		"amount":  escrow.LockedAmount,
	}).Info("Escrow funded")

	return escrow, nil
}

// Withdraw releases the owner's escrow if a release condition holds
func (h *InstructionHandler) Withdraw(ctx context.Context, owner string, payload WithdrawPayload) (*entities.WithdrawalResult, error) {
	var maxConfidence *decimal.Decimal
	if payload.MaxConfidence != nil {
		parsed, err := decimal.NewFromString(*payload.MaxConfidence)
		if err != nil {
			return nil, entities.WrapInstructionError(entities.CodeInvalidArgument, err, "max confidence %q is not a decimal", *payload.MaxConfidence)
		}
		maxConfidence = &parsed
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	escrowService := h.escrowService(uow)
	result, err := escrowService.Withdraw(ctx, owner, maxConfidence)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"owner":   owner,
		"address": result.Address,
		"amount":  result.ReleasedAmount,
		"reason":  result.Reason,
	}).Info("Escrow released")

	return result, nil
}

// InitGame creates the escape game bound to the owner's escrow
func (h *InstructionHandler) InitGame(ctx context.Context, owner string, payload InitGamePayload) (*entities.EscapeGame, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	gameService := h.escapeGameService(uow)
	game, err := gameService.InitGame(ctx, owner, payload.ClientSeed)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"owner":  owner,
		"game":   game.Address,
		"escrow": game.EscrowAddress,
	}).Info("Escape game initialized")

	return game, nil
}

// RequestRoll funds the oracle fee and submits a randomness request. The
// request reaches the oracle queue only when the commit succeeds, so a fee
// debit and a queued request always appear together.
func (h *InstructionHandler) RequestRoll(ctx context.Context, owner string) (*entities.VRFRequest, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	gameService := h.escapeGameService(uow)
	request, err := gameService.RequestRoll(ctx, owner)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"owner":   owner,
		"request": request.ID,
		"game":    request.GameAddress,
	}).Info("Roll requested")

	return request, nil
}

func (h *InstructionHandler) escrowService(uow UnitOfWork) interfaces.EscrowService {
	return services.NewEscrowService(
		uow.AccountRepository(),
		uow.EscrowRepository(),
		uow.EscapeGameRepository(),
		uow.BalanceHistoryRepository(),
		h.priceFeed,
		uow.EventBus(),
	)
}

func (h *InstructionHandler) escapeGameService(uow UnitOfWork) interfaces.EscapeGameService {
	return services.NewEscapeGameService(
		uow.AccountRepository(),
		uow.EscrowRepository(),
		uow.EscapeGameRepository(),
		uow.VRFRequestRepository(),
		uow.BalanceHistoryRepository(),
		uow.EventBus(),
	)
}
