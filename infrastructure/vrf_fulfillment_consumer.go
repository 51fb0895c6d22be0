package infrastructure

import (
	"context"
	"encoding/json"

	log "github.com/sirupsen/logrus"

	"custodian/application"
	"custodian/domain/entities"
)

// VRFFulfillmentConsumer consumes oracle randomness deliveries from the
// fulfillment subject and applies them through the randomness handler.
type VRFFulfillmentConsumer struct {
	natsClient *NATSClient
	handler    *application.RandomnessHandler
	subject    string
}

// NewVRFFulfillmentConsumer creates a new fulfillment consumer
func NewVRFFulfillmentConsumer(natsClient *NATSClient, handler *application.RandomnessHandler, subject string) *VRFFulfillmentConsumer {
	return &VRFFulfillmentConsumer{
		natsClient: natsClient,
		handler:    handler,
		subject:    subject,
	}
}

// Start subscribes to the fulfillment subject with a durable consumer
func (c *VRFFulfillmentConsumer) Start(ctx context.Context) error {
	return c.natsClient.Subscribe(c.subject, func(data []byte) error {
		return c.handleMessage(ctx, data)
	})
}

// handleMessage applies one delivery. Rejected deliveries are terminal and
// must not be redelivered, so instruction-level rejections return nil and the
// message is acked; only transient failures propagate for retry.
func (c *VRFFulfillmentConsumer) handleMessage(ctx context.Context, data []byte) error {
	var msg application.FulfillmentMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.WithError(err).Warn("Dropping undecodable fulfillment message")
		return nil
	}

	game, err := c.handler.HandleFulfillment(ctx, msg)
	if err != nil {
		if code := entities.CodeOf(err); code != entities.CodeInternal {
			log.WithFields(log.Fields{
				"request": msg.RequestID,
				"code":    code,
				"error":   err,
			}).Warn("Rejected oracle delivery")
			return nil
		}
		return err
	}

	log.WithFields(log.Fields{
		"request": msg.RequestID,
		"game":    game.Address,
		"rolls":   game.RollCount,
	}).Info("Applied oracle delivery")

	return nil
}
