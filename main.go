package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"custodian/cmd"
	"custodian/config"
	"custodian/database"
	"custodian/domain/entities"
	"custodian/domain/events"
	"custodian/domain/interfaces"
	"custodian/infrastructure"
	"custodian/repository"
)

func main() {
	// Check for migration subcommands
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(); err != nil {
			log.Fatal("Migration error:", err)
		}
		return
	}

	// Check for balance adjustment subcommands
	if len(os.Args) > 1 && os.Args[1] == "credit" {
		if err := handleCredit(); err != nil {
			log.Fatal("Credit error:", err)
		}
		return
	}

	// Normal service operation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	// Run the application
	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error:", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: custodian migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

// handleCredit sets an owner's spendable balance, creating the account when it
// does not exist yet. Deposits and oracle fees only ever spend funds, so this
// is how balances enter the system.
func handleCredit() error {
	if len(os.Args) < 4 {
		return fmt.Errorf("usage: custodian credit owner balance")
	}
	owner := os.Args[2]
	balance, err := strconv.ParseInt(os.Args[3], 10, 64)
	if err != nil {
		return fmt.Errorf("balance %q is not an integer: %w", os.Args[3], err)
	}
	if balance < 0 {
		return fmt.Errorf("balance must not be negative")
	}

	ctx := context.Background()
	cfg := config.Get()

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Admin credits bypass the event bus
	uowFactory := repository.NewUnitOfWorkFactory(db, func() interfaces.TransactionalEventPublisher {
		return infrastructure.NewNoopEventPublisher()
	})
	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByOwner(ctx, owner)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}

	var initialBalance int64
	if account == nil {
		if _, err := uow.AccountRepository().Create(ctx, owner, balance); err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
	} else {
		initialBalance = account.Balance
		if err := uow.AccountRepository().UpdateBalance(ctx, owner, balance); err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}
	}

	history := &entities.BalanceHistory{
		Owner:           owner,
		BalanceBefore:   initialBalance,
		BalanceAfter:    balance,
		ChangeAmount:    balance - initialBalance,
		TransactionType: entities.TransactionTypeAdminCredit,
		TransactionMetadata: map[string]any{
			"admin": "true",
		},
	}
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance change: %w", err)
	}

	if err := uow.EventBus().Publish(events.BalanceChangeEvent{
		Owner:           owner,
		OldBalance:      initialBalance,
		NewBalance:      balance,
		ChangeAmount:    balance - initialBalance,
		TransactionType: entities.TransactionTypeAdminCredit,
	}); err != nil {
		return fmt.Errorf("failed to publish balance change event: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Set balance for %s: %d -> %d", owner, initialBalance, balance)
	return nil
}
