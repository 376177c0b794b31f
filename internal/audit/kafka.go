package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/twmb/franz-go/pkg/kgo"

	"taxrelief/internal/record/models"
)

var publishFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "taxrelief_audit_publish_failures_total",
	Help: "Audit feed records that could not be delivered to the broker",
})

// KafkaFeed publishes events to a topic, keyed by record ID so one record's
// history stays ordered within a partition.
type KafkaFeed struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaFeed connects a producer. Delivery is asynchronous; failures are
// logged and counted.
func NewKafkaFeed(brokers []string, topic string, logger *slog.Logger) (*KafkaFeed, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.ProduceRequestTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect audit feed: %w", err)
	}
	return &KafkaFeed{client: client, topic: topic, logger: logger}, nil
}

// auditRecord is the wire form of one event on the feed.
type auditRecord struct {
	RecordID   string          `json:"record_id"`
	Sequence   int64           `json:"sequence"`
	Kind       string          `json:"kind"`
	OccurredAt time.Time       `json:"occurred_at"`
	Actor      string          `json:"actor"`
	Payload    json.RawMessage `json:"payload"`
}

func (f *KafkaFeed) Publish(ctx context.Context, ev models.Event) error {
	payload, err := models.MarshalPayload(ev.Payload)
	if err != nil {
		return err
	}
	value, err := json.Marshal(auditRecord{
		RecordID:   ev.RecordID.String(),
		Sequence:   ev.Sequence,
		Kind:       string(ev.Kind),
		OccurredAt: ev.OccurredAt,
		Actor:      ev.Actor,
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("encode audit record: %w", err)
	}

	f.client.Produce(ctx, &kgo.Record{
		Topic: f.topic,
		Key:   []byte(ev.RecordID.String()),
		Value: value,
	}, func(_ *kgo.Record, err error) {
		if err != nil {
			publishFailures.Inc()
			f.logger.Warn("audit feed publish failed",
				"record_id", ev.RecordID,
				"sequence", ev.Sequence,
				"error", err,
			)
		}
	})
	return nil
}

// Close flushes buffered records and releases the client.
func (f *KafkaFeed) Close(ctx context.Context) error {
	if err := f.client.Flush(ctx); err != nil {
		return fmt.Errorf("flush audit feed: %w", err)
	}
	f.client.Close()
	return nil
}
