package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"regdesk/internal/registration/models"
)

// DefaultTopic receives registration events when Kafka is configured.
const DefaultTopic = "registrations"

// Producer is the subset of *kgo.Client used for dispatch.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Kafka produces each submission as a JSON record keyed by email.
type Kafka struct {
	producer Producer
	topic    string
}

func NewKafka(producer Producer, topic string) *Kafka {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Kafka{producer: producer, topic: topic}
}

func (n *Kafka) Send(ctx context.Context, submission models.Submission) error {
	value, err := json.Marshal(submission)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}
	record := &kgo.Record{
		Topic: n.topic,
		Key:   []byte(submission.Email),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	if err := n.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("%w: produce to %s: %v", ErrNetwork, n.topic, err)
	}
	return nil
}
