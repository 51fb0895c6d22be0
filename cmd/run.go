package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"custodian/application"
	"custodian/config"
	"custodian/database"
	"custodian/domain/interfaces"
	"custodian/infrastructure"
	"custodian/repository"
)

// Run initializes and starts the custody service
func Run(ctx context.Context) error {
	log.Println("Starting custodian...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize NATS
	log.Println("Connecting to NATS...")
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	// Ensure streams exist before anything publishes or subscribes
	subjectMapper := infrastructure.NewEventSubjectMapper(cfg.VRFRequestSubject)
	eventPublisher := infrastructure.NewNATSEventPublisher(natsClient, subjectMapper)
	if err := eventPublisher.EnsureCustodyEventStream(); err != nil {
		return fmt.Errorf("failed to ensure custody event stream: %w", err)
	}
	if err := natsClient.EnsureOracleStreams(cfg.VRFRequestSubject, cfg.VRFFulfillmentSubject); err != nil {
		return fmt.Errorf("failed to ensure oracle streams: %w", err)
	}

	// Initialize unit of work factory; each unit of work buffers its events
	// until commit
	uowFactory := repository.NewUnitOfWorkFactory(db, func() interfaces.TransactionalEventPublisher {
		return infrastructure.NewNATSTransactionalPublisher(eventPublisher)
	})

	// Initialize the price feed boundary
	priceFeed := infrastructure.NewNATSPriceFeed(natsClient, cfg.PriceFeedSubject)

	// Initialize handlers
	instructionHandler := application.NewInstructionHandler(uowFactory, priceFeed)
	randomnessHandler, err := application.NewRandomnessHandler(uowFactory, cfg.OracleAuthority)
	if err != nil {
		return fmt.Errorf("failed to initialize randomness handler: %w", err)
	}

	// Serve the instruction surface
	instructionConsumer := infrastructure.NewInstructionConsumer(natsClient, instructionHandler)
	if err := instructionConsumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start instruction consumer: %w", err)
	}

	// Consume oracle deliveries
	fulfillmentConsumer := infrastructure.NewVRFFulfillmentConsumer(natsClient, randomnessHandler, cfg.VRFFulfillmentSubject)
	if err := fulfillmentConsumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start fulfillment consumer: %w", err)
	}

	// Wait for context cancellation
	log.Printf("Custodian is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down custodian...")

	if err := natsClient.Close(); err != nil {
		log.Printf("Error closing NATS connection: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}
