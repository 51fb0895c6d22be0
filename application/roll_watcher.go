package application

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"custodian/domain/entities"
)

// RollWatcher polls a game record until an oracle delivery lands. Delivery is
// observable as the roll count advancing past the baseline taken when the
// roll was requested; the dice fields alone cannot distinguish a fresh roll
// from the previous one.
type RollWatcher struct {
	uowFactory UnitOfWorkFactory
	interval   time.Duration
	timeout    time.Duration
}

// NewRollWatcher creates a watcher with the given poll interval and deadline
func NewRollWatcher(uowFactory UnitOfWorkFactory, interval, timeout time.Duration) *RollWatcher {
	return &RollWatcher{
		uowFactory: uowFactory,
		interval:   interval,
		timeout:    timeout,
	}
}

// AwaitDelivery blocks until the game's roll count exceeds sinceRollCount,
// the deadline passes, or the context is cancelled. It returns the delivered
// game state on success.
func (w *RollWatcher) AwaitDelivery(ctx context.Context, gameAddress string, sinceRollCount int) (*entities.EscapeGame, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		game, err := w.snapshot(ctx, gameAddress)
		if err != nil {
			return nil, err
		}
		if game == nil {
			return nil, entities.NewInstructionError(entities.CodeGameNotInitialized, "no game at address %s", gameAddress)
		}
		if game.RollCount > sinceRollCount {
			log.WithFields(log.Fields{
				"game":  gameAddress,
				"rolls": game.RollCount,
				"die1":  game.Die1,
				"die2":  game.Die2,
			}).Debug("Observed roll delivery")
			return game, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("no delivery for game %s after %s: %w", gameAddress, w.timeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// snapshot reads the game in a short read-only transaction
func (w *RollWatcher) snapshot(ctx context.Context, gameAddress string) (*entities.EscapeGame, error) {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.EscapeGameRepository().GetByAddress(ctx, gameAddress)
}
