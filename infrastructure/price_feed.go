package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"custodian/domain/entities"
	"custodian/domain/interfaces"
)

// priceQuoteMessage is the wire shape the price oracle answers with
type priceQuoteMessage struct {
	Value      string    `json:"value"`
	Confidence string    `json:"confidence"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NATSPriceFeed fetches quotes from the price oracle over NATS request/reply
type NATSPriceFeed struct {
	natsClient *NATSClient
	subject    string
	timeout    time.Duration
}

// NewNATSPriceFeed creates a price feed bound to the oracle's reply subject
func NewNATSPriceFeed(natsClient *NATSClient, subject string) interfaces.PriceFeed {
	return &NATSPriceFeed{
		natsClient: natsClient,
		subject:    subject,
		timeout:    5 * time.Second,
	}
}

// Current fetches the latest quote. Any transport or decode failure surfaces
// as a feed unavailable error so callers fail closed rather than releasing on
// a quote they cannot trust.
func (f *NATSPriceFeed) Current(ctx context.Context) (*entities.PriceQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	data, err := f.natsClient.Request(ctx, f.subject, nil)
	if err != nil {
		return nil, entities.WrapInstructionError(entities.CodeFeedUnavailable, err, "price oracle did not answer on %s", f.subject)
	}

	var msg priceQuoteMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, entities.WrapInstructionError(entities.CodeFeedUnavailable, err, "price oracle reply is not decodable")
	}

	value, err := decimal.NewFromString(msg.Value)
	if err != nil {
		return nil, entities.WrapInstructionError(entities.CodeFeedUnavailable, err, "price oracle value %q is not a decimal", msg.Value)
	}
	confidence, err := decimal.NewFromString(msg.Confidence)
	if err != nil {
		return nil, entities.WrapInstructionError(entities.CodeFeedUnavailable, err, "price oracle confidence %q is not a decimal", msg.Confidence)
	}

	return &entities.PriceQuote{
		Value:      value,
		Confidence: confidence,
		UpdatedAt:  msg.UpdatedAt,
	}, nil
}
