package kafka

import (
	// Go Internal Packages
	"context"
	"errors"
	"time"

	// Local Packages
	models "tx-gateway/models"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

type ConsumerConfig struct {
	Brokers        []string
	Name           string
	Topic          string
	RecordsPerPoll int
}

type RecordProcessor interface {
	ProcessRecords(ctx context.Context, records []models.Record) error
}

type DeadLetterQueue interface {
	Send(ctx context.Context, records []models.Record) error
}

// fetchClient is the part of *kgo.Client the poll loop uses.
type fetchClient interface {
	PollRecords(ctx context.Context, maxPollRecords int) kgo.Fetches
	CommitRecords(ctx context.Context, rs ...*kgo.Record) error
	AllowRebalance()
	Close()
}

const defaultDLQBackoff = time.Second

type Consumer struct {
	Client    fetchClient
	Config    *ConsumerConfig
	Processor RecordProcessor
	DLQ       DeadLetterQueue
	Logger    *zap.Logger
	// DLQBackoff is the wait between dead letter retries, one second if zero.
	DLQBackoff time.Duration
}

// NewConsumer creates a group consumer for the configured topic
// (PS: Must call Poll to start consuming the records)
func NewConsumer(conf *ConsumerConfig, logger *zap.Logger, processor RecordProcessor, dlq DeadLetterQueue, metrics *kprom.Metrics) (*Consumer, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(conf.Brokers...), // Connects to Kafka brokers
		kgo.ConsumerGroup(conf.Name),     // Specifies the consumer group
		kgo.ConsumeTopics(conf.Topic),    // Specifies a single topic to consume
		kgo.DisableAutoCommit(),          // Offsets are committed after processing
		kgo.BlockRebalanceOnPoll(),       // Blocks rebalancing until the poll loop is running
	}
	if metrics != nil {
		opts = append(opts, kgo.WithHooks(metrics))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}

	return &Consumer{Client: client, Config: conf, Processor: processor, DLQ: dlq, Logger: logger}, nil
}

// Poll consumes until ctx is cancelled or the client is closed. A batch that
// fails processing goes to the dead letter queue and is committed once it is
// stored there, so one bad batch does not stall the partition.
func (c *Consumer) Poll(ctx context.Context) error {
	defer c.Client.Close()

	for {
		if ctx.Err() != nil {
			c.Logger.Warn("polling stopped: context canceled")
			return ctx.Err()
		}

		fetches := c.Client.PollRecords(ctx, c.Config.RecordsPerPoll)

		if fetches.IsClientClosed() {
			return errors.New("kafka client closed")
		}
		if errors.Is(fetches.Err0(), context.Canceled) {
			return errors.New("context got canceled")
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.Logger.Error("fetch error", zap.String("topic", topic), zap.Int32("partition", partition), zap.Error(err))
		})

		c.handle(ctx, fetches.Records())
		c.Client.AllowRebalance()
	}
}

// handle processes one polled batch and commits it.
func (c *Consumer) handle(ctx context.Context, raw []*kgo.Record) {
	if len(raw) == 0 {
		return
	}
	records := make([]models.Record, len(raw))
	for idx, record := range raw {
		records[idx] = models.Record{
			Key:   record.Key,
			Value: record.Value,
			Topic: record.Topic,
		}
	}

	if err := c.Processor.ProcessRecords(ctx, records); err != nil {
		c.Logger.Error("failed to process records", zap.Int("count", len(records)), zap.Error(err))
		if c.DLQ != nil && !c.sendToDLQ(ctx, records) {
			return
		}
	}

	if err := c.Client.CommitRecords(ctx, raw...); err != nil {
		c.Logger.Error("failed to commit records", zap.Error(err))
	}
}

// sendToDLQ retries until the batch is stored or ctx ends. It reports whether
// the batch was stored; an unstored batch must not be committed.
func (c *Consumer) sendToDLQ(ctx context.Context, records []models.Record) bool {
	backoff := c.DLQBackoff
	if backoff <= 0 {
		backoff = defaultDLQBackoff
	}

	for {
		err := c.DLQ.Send(ctx, records)
		if err == nil {
			return true
		}
		c.Logger.Error("failed to send records to dead letter queue", zap.Int("count", len(records)), zap.Error(err))

		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
	}
}
