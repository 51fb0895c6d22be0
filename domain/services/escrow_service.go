package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"custodian/config"
	"custodian/domain/entities"
	"custodian/domain/events"
	"custodian/domain/interfaces"
)

type escrowService struct {
	accountRepo    interfaces.AccountRepository
	escrowRepo     interfaces.EscrowRepository
	gameRepo       interfaces.EscapeGameRepository
	historyRepo    interfaces.BalanceHistoryRepository
	priceFeed      interfaces.PriceFeed
	eventPublisher interfaces.EventPublisher
}

// NewEscrowService creates a new escrow service
func NewEscrowService(
	accountRepo interfaces.AccountRepository,
	escrowRepo interfaces.EscrowRepository,
	gameRepo interfaces.EscapeGameRepository,
	historyRepo interfaces.BalanceHistoryRepository,
	priceFeed interfaces.PriceFeed,
	eventPublisher interfaces.EventPublisher,
) interfaces.EscrowService {
	return &escrowService{
		accountRepo:    accountRepo,
		escrowRepo:     escrowRepo,
		gameRepo:       gameRepo,
		historyRepo:    historyRepo,
		priceFeed:      priceFeed,
		eventPublisher: eventPublisher,
	}
}

// Deposit creates and funds the owner's escrow in one atomic step. The unit of
// work rolls everything back on any failure, so there is never a created but
// unfunded record.
func (s *escrowService) Deposit(ctx context.Context, owner string, amount int64, unlockPrice decimal.Decimal) (*entities.Escrow, error) {
	if amount <= 0 {
		return nil, entities.NewInstructionError(entities.CodeInvalidAmount, "deposit amount must be positive, got %d", amount)
	}

	existing, err := s.escrowRepo.GetByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing escrow: %w", err)
	}
	if existing != nil {
		return nil, entities.NewInstructionError(entities.CodeDuplicateEscrow, "owner %s already has a live escrow at %s", owner, existing.Address)
	}

	account, err := s.accountRepo.GetByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil || account.Balance < amount {
		var have int64
		if account != nil {
			have = account.Balance
		}
		return nil, entities.NewInstructionError(entities.CodeInsufficientFunds, "spendable balance %d is less than deposit amount %d", have, amount)
	}

	newBalance, err := entities.CheckedSub(account.Balance, amount)
	if err != nil {
		return nil, err
	}

	escrow, err := entities.NewEscrow(owner, amount, unlockPrice)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.UpdateBalance(ctx, owner, newBalance); err != nil {
		return nil, fmt.Errorf("failed to debit account: %w", err)
	}
	if err := s.escrowRepo.Create(ctx, escrow); err != nil {
		return nil, fmt.Errorf("failed to create escrow: %w", err)
	}

	history := &entities.BalanceHistory{
		Owner:           owner,
		BalanceBefore:   account.Balance,
		BalanceAfter:    newBalance,
		ChangeAmount:    -amount,
		TransactionType: entities.TransactionTypeEscrowDeposit,
		TransactionMetadata: map[string]any{
			"escrow_address": escrow.Address,
			"unlock_price":   unlockPrice.String(),
		},
	}
	if err := s.historyRepo.Record(ctx, history); err != nil {
		return nil, fmt.Errorf("failed to record balance change: %w", err)
	}

	if err := s.eventPublisher.Publish(events.BalanceChangeEvent{
		Owner:           owner,
		OldBalance:      account.Balance,
		NewBalance:      newBalance,
		ChangeAmount:    -amount,
		TransactionType: entities.TransactionTypeEscrowDeposit,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish balance change event: %w", err)
	}

	if err := s.eventPublisher.Publish(events.EscrowFundedEvent{
		Owner:        owner,
		Address:      escrow.Address,
		LockedAmount: amount,
		UnlockPrice:  unlockPrice.String(),
	}); err != nil {
		return nil, fmt.Errorf("failed to publish escrow funded event: %w", err)
	}

	return escrow, nil
}

// Withdraw evaluates both release conditions and, if either holds, transfers
// the locked amount back to the owner and deletes the record in the same step.
func (s *escrowService) Withdraw(ctx context.Context, owner string, maxConfidence *decimal.Decimal) (*entities.WithdrawalResult, error) {
	cfg := config.Get()

	escrow, err := s.escrowRepo.GetByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to look up escrow: %w", err)
	}
	if escrow == nil {
		return nil, entities.NewInstructionError(entities.CodeEscrowNotFound, "no live escrow for owner %s", owner)
	}

	reason, err := s.evaluateRelease(ctx, cfg, escrow, maxConfidence)
	if err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("escrow %s has no backing account", escrow.Address)
	}

	newBalance, err := entities.CheckedAdd(account.Balance, escrow.LockedAmount)
	if err != nil {
		return nil, err
	}

	// Credit and destroy together: the record never exists with zero funds.
	if err := s.accountRepo.UpdateBalance(ctx, owner, newBalance); err != nil {
		return nil, fmt.Errorf("failed to credit account: %w", err)
	}
	if err := s.escrowRepo.Delete(ctx, escrow.Address); err != nil {
		return nil, fmt.Errorf("failed to close escrow: %w", err)
	}

	history := &entities.BalanceHistory{
		Owner:           owner,
		BalanceBefore:   account.Balance,
		BalanceAfter:    newBalance,
		ChangeAmount:    escrow.LockedAmount,
		TransactionType: entities.TransactionTypeEscrowRelease,
		TransactionMetadata: map[string]any{
			"escrow_address": escrow.Address,
			"reason":         string(reason),
		},
	}
	if err := s.historyRepo.Record(ctx, history); err != nil {
		return nil, fmt.Errorf("failed to record balance change: %w", err)
	}

	if err := s.eventPublisher.Publish(events.BalanceChangeEvent{
		Owner:           owner,
		OldBalance:      account.Balance,
		NewBalance:      newBalance,
		ChangeAmount:    escrow.LockedAmount,
		TransactionType: entities.TransactionTypeEscrowRelease,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish balance change event: %w", err)
	}

	if err := s.eventPublisher.Publish(events.EscrowReleasedEvent{
		Owner:          owner,
		Address:        escrow.Address,
		ReleasedAmount: escrow.LockedAmount,
		Reason:         reason,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish escrow released event: %w", err)
	}

	return &entities.WithdrawalResult{
		Owner:          owner,
		Address:        escrow.Address,
		ReleasedAmount: escrow.LockedAmount,
		NewBalance:     newBalance,
		Reason:         reason,
	}, nil
}

// evaluateRelease checks the escape game's win/exhaustion condition first and
// falls back to the price condition. A resolved game releases on its own terms
// with no dependency on the feed, so funds stay reachable through a feed
// outage or decommissioning. On the price path, a feed the service cannot
// trust is an error, never a silent pass.
func (s *escrowService) evaluateRelease(ctx context.Context, cfg *config.Config, escrow *entities.Escrow, maxConfidence *decimal.Decimal) (entities.ReleaseReason, error) {
	game, err := s.gameRepo.GetByEscrow(ctx, escrow.Address)
	if err != nil {
		return "", fmt.Errorf("failed to look up escape game: %w", err)
	}
	if game != nil && game.Resolved(cfg.MaxRollAttempts) {
		if game.RolledDoubles() {
			return entities.ReleaseReasonDoubles, nil
		}
		return entities.ReleaseReasonExhaustion, nil
	}

	quote, err := s.priceFeed.Current(ctx)
	if err != nil {
		if entities.IsCode(err, entities.CodeFeedUnavailable) {
			return "", err
		}
		return "", entities.WrapInstructionError(entities.CodeFeedUnavailable, err, "price feed fetch failed")
	}
	if quote == nil {
		return "", entities.NewInstructionError(entities.CodeFeedUnavailable, "price feed returned no value")
	}

	maxAge := time.Duration(cfg.MaxFeedAgeSeconds) * time.Second
	if quote.StaleAt(time.Now().UTC(), maxAge) {
		return "", entities.NewInstructionError(entities.CodeStaleOrLowConfidenceFeed, "feed last updated %s, older than %s", quote.UpdatedAt.Format(time.RFC3339), maxAge)
	}

	bound := cfg.DefaultMaxConfidence
	if maxConfidence != nil {
		bound = *maxConfidence
	}
	if quote.ExceedsConfidence(bound) {
		return "", entities.NewInstructionError(entities.CodeStaleOrLowConfidenceFeed, "feed confidence %s exceeds bound %s", quote.Confidence, bound)
	}

	if escrow.ReleasableAtPrice(quote.Value) {
		return entities.ReleaseReasonPrice, nil
	}

	return "", entities.NewInstructionError(entities.CodePriceConditionUnmet,
		"current price %s does not exceed unlock price %s and the escape game is unresolved", quote.Value, escrow.UnlockPrice)
}
