package kafka

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"

	// Local Packages
	models "tx-gateway/models"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

type produceClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Producer publishes ledger events keyed by transaction id, so all events of
// one transaction land on the same partition in order.
type Producer struct {
	Client produceClient
	Topic  string
	Logger *zap.Logger
}

func NewProducer(brokers []string, topic string, logger *zap.Logger, metrics *kprom.Metrics) (*Producer, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}
	if metrics != nil {
		opts = append(opts, kgo.WithHooks(metrics))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	return &Producer{Client: client, Topic: topic, Logger: logger}, nil
}

func (p *Producer) Publish(ctx context.Context, event models.LedgerEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger event: %w", err)
	}

	record := &kgo.Record{
		Key:   []byte(event.TransactionID),
		Value: value,
		Topic: p.Topic,
	}
	if err := p.Client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce ledger event: %w", err)
	}

	p.Logger.Debug("published ledger event",
		zap.String("transaction_id", event.TransactionID),
		zap.String("type", string(event.Type)),
	)
	return nil
}

func (p *Producer) Close() {
	p.Client.Close()
}
