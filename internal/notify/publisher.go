// Package notify publishes finished-run events to Kafka for the
// notification collaborators (chat bots, dashboards). Delivery is
// best-effort: the engine's records are the source of truth, the stream is
// a convenience.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"claimtrail/internal/ingest"
	"claimtrail/internal/revalidation"
)

// Event type discriminators on the wire.
const (
	EventBatchCompleted = "batch_completed"
	EventCycleCompleted = "cycle_completed"
)

// Envelope is the wire format for every published event.
type Envelope struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// BatchCompletedPayload summarizes one finished import.
type BatchCompletedPayload struct {
	BatchID   string `json:"batch_id"`
	Tenant    string `json:"tenant"`
	Source    string `json:"source"`
	Baseline  bool   `json:"baseline"`
	Total     int    `json:"total"`
	New       int    `json:"new"`
	Updated   int    `json:"updated"`
	Unchanged int    `json:"unchanged"`
	Errored   int    `json:"errored"`
	Approved  int    `json:"approved"`
	Pending   int    `json:"pending"`
	Rejected  int    `json:"rejected"`
	NotFound  int    `json:"not_found"`
}

// CycleCompletedPayload summarizes one finished revalidation run that is
// worth notifying about.
type CycleCompletedPayload struct {
	CycleID       string `json:"cycle_id"`
	Tenant        string `json:"tenant,omitempty"`
	Processed     int    `json:"processed"`
	NewlyApproved int    `json:"newly_approved"`
	StillRejected int    `json:"still_rejected"`
	StillNotFound int    `json:"still_not_found"`
	CostChanges   int    `json:"cost_changes"`
	DurationMS    int64  `json:"duration_ms"`
}

// KafkaPublisher writes envelopes to a single topic, keyed by tenant so
// one tenant's events stay ordered.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaPublisher connects to the brokers. Close must be called to flush
// in-flight records on shutdown.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic, logger: logger}, nil
}

// EnsureTopic creates the topic if it does not exist yet.
func (p *KafkaPublisher) EnsureTopic(ctx context.Context, partitions int32) error {
	admin := kadm.NewClient(p.client)
	resp, err := admin.CreateTopics(ctx, partitions, 1, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, res := range resp {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", res.Topic, res.Err)
		}
	}
	return nil
}

// BatchCompleted publishes a finished import. Fire-and-forget.
func (p *KafkaPublisher) BatchCompleted(ctx context.Context, record *ingest.BatchRecord) {
	payload := BatchCompletedPayload{
		BatchID:   record.ID.String(),
		Tenant:    record.Tenant.String(),
		Source:    record.Source,
		Baseline:  record.Baseline,
		Total:     record.Stats.Total,
		New:       record.Stats.New,
		Updated:   record.Stats.Updated,
		Unchanged: record.Stats.Unchanged,
		Errored:   record.Stats.Errored,
		Approved:  record.Stats.Approved,
		Pending:   record.Stats.Pending,
		Rejected:  record.Stats.Rejected,
		NotFound:  record.Stats.NotFound,
	}
	p.publish(ctx, EventBatchCompleted, record.Tenant.String(), record.CreatedAt, payload)
}

// CycleCompleted publishes a finished revalidation run. Fire-and-forget.
func (p *KafkaPublisher) CycleCompleted(ctx context.Context, record *revalidation.CycleRecord) {
	payload := CycleCompletedPayload{
		CycleID:       record.ID.String(),
		Processed:     record.Processed,
		NewlyApproved: record.NewlyApproved,
		StillRejected: record.StillRejected,
		StillNotFound: record.StillNotFound,
		CostChanges:   record.CostChanges,
		DurationMS:    record.Duration().Milliseconds(),
	}
	key := "global"
	if record.Tenant != nil {
		payload.Tenant = record.Tenant.String()
		key = record.Tenant.String()
	}
	p.publish(ctx, EventCycleCompleted, key, record.FinishedAt, payload)
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType, key string, occurredAt time.Time, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "marshal event payload", "type", eventType, "error", err)
		return
	}
	body, err := json.Marshal(Envelope{Type: eventType, OccurredAt: occurredAt, Payload: raw})
	if err != nil {
		p.logger.ErrorContext(ctx, "marshal event envelope", "type", eventType, "error", err)
		return
	}

	record := &kgo.Record{Topic: p.topic, Key: []byte(key), Value: body}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("publish event", "type", eventType, "topic", p.topic, "error", err)
		}
	})
}

// Close flushes in-flight records and releases the client.
func (p *KafkaPublisher) Close() {
	p.client.Close()
}
