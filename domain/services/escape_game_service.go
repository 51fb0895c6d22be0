package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"custodian/config"
	"custodian/domain/entities"
	"custodian/domain/events"
	"custodian/domain/interfaces"
)

type escapeGameService struct {
	accountRepo    interfaces.AccountRepository
	escrowRepo     interfaces.EscrowRepository
	gameRepo       interfaces.EscapeGameRepository
	vrfRequestRepo interfaces.VRFRequestRepository
	historyRepo    interfaces.BalanceHistoryRepository
	eventPublisher interfaces.EventPublisher
}

// NewEscapeGameService creates a new escape game service
func NewEscapeGameService(
	accountRepo interfaces.AccountRepository,
	escrowRepo interfaces.EscrowRepository,
	gameRepo interfaces.EscapeGameRepository,
	vrfRequestRepo interfaces.VRFRequestRepository,
	historyRepo interfaces.BalanceHistoryRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.EscapeGameService {
	return &escapeGameService{
		accountRepo:    accountRepo,
		escrowRepo:     escrowRepo,
		gameRepo:       gameRepo,
		vrfRequestRepo: vrfRequestRepo,
		historyRepo:    historyRepo,
		eventPublisher: eventPublisher,
	}
}

// InitGame creates the escape game record bound to the owner's escrow.
// Callable exactly once per escrow; the unique escrow binding in storage
// backstops the existence check.
func (s *escapeGameService) InitGame(ctx context.Context, owner, clientSeed string) (*entities.EscapeGame, error) {
	cfg := config.Get()

	escrow, err := s.escrowRepo.GetByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to look up escrow: %w", err)
	}
	if escrow == nil {
		return nil, entities.NewInstructionError(entities.CodeEscrowNotFound, "no live escrow for owner %s", owner)
	}

	existing, err := s.gameRepo.GetByEscrow(ctx, escrow.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing game: %w", err)
	}
	if existing != nil {
		return nil, entities.NewInstructionError(entities.CodeGameAlreadyInitialized, "escrow %s already has an escape game", escrow.Address)
	}

	game := entities.NewEscapeGame(owner, escrow.Address, clientSeed, cfg.DieSides)
	if err := s.gameRepo.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create escape game: %w", err)
	}

	return game, nil
}

// RequestRoll funds the oracle fee and submits a randomness request. It never
// touches the dice fields; a stale request can therefore never masquerade as
// a fresh result.
func (s *escapeGameService) RequestRoll(ctx context.Context, owner string) (*entities.VRFRequest, error) {
	cfg := config.Get()

	escrow, err := s.escrowRepo.GetByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to look up escrow: %w", err)
	}
	if escrow == nil {
		return nil, entities.NewInstructionError(entities.CodeEscrowNotFound, "no live escrow for owner %s", owner)
	}

	game, err := s.gameRepo.GetByEscrow(ctx, escrow.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to look up escape game: %w", err)
	}
	if game == nil {
		return nil, entities.NewInstructionError(entities.CodeGameNotInitialized, "escrow %s has no escape game", escrow.Address)
	}
	if game.Resolved(cfg.MaxRollAttempts) {
		return nil, entities.NewInstructionError(entities.CodeGameAlreadyResolved, "game %s is already resolved", game.Address)
	}

	pending, err := s.vrfRequestRepo.GetPendingByGame(ctx, game.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to look up pending request: %w", err)
	}
	if pending != nil {
		return nil, entities.NewInstructionError(entities.CodeRollAlreadyPending, "roll %s is still awaiting delivery", pending.ID)
	}

	account, err := s.accountRepo.GetByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil || account.Balance < cfg.VRFFee {
		var have int64
		if account != nil {
			have = account.Balance
		}
		return nil, entities.NewInstructionError(entities.CodeInsufficientFeeFunds, "spendable balance %d cannot cover oracle fee %d", have, cfg.VRFFee)
	}

	newBalance, err := entities.CheckedSub(account.Balance, cfg.VRFFee)
	if err != nil {
		return nil, err
	}

	request := entities.NewVRFRequest(game.Address, game.ClientSeed)

	if err := s.accountRepo.UpdateBalance(ctx, owner, newBalance); err != nil {
		return nil, fmt.Errorf("failed to debit oracle fee: %w", err)
	}
	if err := s.vrfRequestRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create randomness request: %w", err)
	}

	history := &entities.BalanceHistory{
		Owner:           owner,
		BalanceBefore:   account.Balance,
		BalanceAfter:    newBalance,
		ChangeAmount:    -cfg.VRFFee,
		TransactionType: entities.TransactionTypeOracleFee,
		TransactionMetadata: map[string]any{
			"request_id":   request.ID.String(),
			"game_address": game.Address,
		},
	}
	if err := s.historyRepo.Record(ctx, history); err != nil {
		return nil, fmt.Errorf("failed to record fee debit: %w", err)
	}

	if err := s.eventPublisher.Publish(events.BalanceChangeEvent{
		Owner:           owner,
		OldBalance:      account.Balance,
		NewBalance:      newBalance,
		ChangeAmount:    -cfg.VRFFee,
		TransactionType: entities.TransactionTypeOracleFee,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish balance change event: %w", err)
	}

	// The event doubles as the oracle queue submission: the subject mapper
	// routes it to the oracle's request subject, and the transactional
	// publisher holds it until this step commits. The callback accounts name
	// everything the delivery will touch, echoed back verbatim by the oracle.
	if err := s.eventPublisher.Publish(events.RollRequestedEvent{
		RequestID:        request.ID.String(),
		Owner:            owner,
		GameAddress:      game.Address,
		ClientSeed:       game.ClientSeed,
		CallbackSubject:  cfg.VRFFulfillmentSubject,
		CallbackAccounts: []string{escrow.Address, game.Address, request.ID.String()},
	}); err != nil {
		return nil, fmt.Errorf("failed to publish roll requested event: %w", err)
	}

	return request, nil
}

// ConsumeRandomness applies one oracle delivery. Deliveries that do not match
// the outstanding pending request, repeat an already-consumed one, or carry
// degenerate randomness are rejected without touching the game.
func (s *escapeGameService) ConsumeRandomness(ctx context.Context, requestID uuid.UUID, randomness []byte) (*entities.EscapeGame, error) {
	request, err := s.vrfRequestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up request: %w", err)
	}
	if request == nil {
		return nil, entities.NewInstructionError(entities.CodeStaleOrForeignRandomness, "no randomness request %s", requestID)
	}
	if !request.IsPending() {
		return nil, entities.NewInstructionError(entities.CodeStaleOrForeignRandomness, "request %s was already fulfilled", requestID)
	}
	if allZero(randomness) {
		return nil, entities.NewInstructionError(entities.CodeStaleOrForeignRandomness, "delivered randomness is empty")
	}

	game, err := s.gameRepo.GetByAddress(ctx, request.GameAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to look up escape game: %w", err)
	}
	if game == nil {
		return nil, entities.NewInstructionError(entities.CodeStaleOrForeignRandomness, "game %s no longer exists", request.GameAddress)
	}

	die1, die2, err := entities.DeriveDice(randomness, game.DieSides)
	if err != nil {
		return nil, err
	}

	updated, err := s.gameRepo.RecordDelivery(ctx, game.Address, die1, die2)
	if err != nil {
		return nil, fmt.Errorf("failed to record delivery: %w", err)
	}
	if err := s.vrfRequestRepo.MarkFulfilled(ctx, request.ID); err != nil {
		return nil, fmt.Errorf("failed to mark request fulfilled: %w", err)
	}

	if err := s.eventPublisher.Publish(events.DiceRolledEvent{
		RequestID:   request.ID.String(),
		GameAddress: game.Address,
		Die1:        updated.Die1,
		Die2:        updated.Die2,
		RollCount:   updated.RollCount,
		Doubles:     updated.RolledDoubles(),
	}); err != nil {
		return nil, fmt.Errorf("failed to publish dice rolled event: %w", err)
	}

	return updated, nil
}

// allZero reports whether the buffer is empty or entirely zero bytes, which
// the oracle produces only when it has nothing to deliver
func allZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}
