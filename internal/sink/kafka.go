// Package sink publishes completed run reports to external systems.
package sink

//go:generate mockgen -destination=mocks/mock_writer.go -package=mocks github.com/jpalmerr/pulsecheck/internal/sink MessageWriter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jpalmerr/pulsecheck"
)

// RunIDHeader carries the run identifier on every published message.
const RunIDHeader = "run_id"

// MessageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one message per outcome to a Kafka topic.
// Messages are keyed by target so outcomes for the same target land
// on the same partition.
type KafkaPublisher struct {
	writer MessageWriter
	now    func() time.Time
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: false,
		},
		now: time.Now,
	}
}

// NewKafkaPublisherWithWriter builds a publisher using a custom writer (tests).
func NewKafkaPublisherWithWriter(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, now: time.Now}
}

// Publish sends every outcome of the report in a single batch.
// An empty report publishes nothing.
func (p *KafkaPublisher) Publish(ctx context.Context, report *pulsecheck.Report) error {
	if report == nil || len(report.Outcomes) == 0 {
		return nil
	}

	ts := p.now().UTC()
	msgs := make([]kafka.Message, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		payload, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("failed to encode outcome for %s: %w", o.Target, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(o.Target),
			Value:   payload,
			Headers: []kafka.Header{{Key: RunIDHeader, Value: []byte(report.RunID)}},
			Time:    ts,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish %d outcomes: %w", len(msgs), err)
	}
	return nil
}

// Close shuts down the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
