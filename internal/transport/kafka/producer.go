package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/IBM/sarama"

	"delivery-orchestrator/internal/domain"
)

var newSyncProducer = sarama.NewSyncProducer

// NotificationSink publishes notifications to a Kafka topic, keyed by channel so that the
// messages of one recipient stay in one partition.
type NotificationSink struct {
	producer sarama.SyncProducer
	topic    string
}

// NewNotificationSink creates the sink. It returns nil when Kafka is not configured.
func NewNotificationSink(brokers []string, topic string) (*NotificationSink, error) {
	if len(brokers) == 0 || strings.TrimSpace(topic) == "" {
		return nil, nil
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	p, err := newSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &NotificationSink{producer: p, topic: topic}, nil
}

// Name implements notify.Sink.
func (s *NotificationSink) Name() string { return "kafka" }

// Deliver implements notify.Sink.
func (s *NotificationSink) Deliver(_ context.Context, channel string, n domain.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	_, _, err = s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(channel),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("kind"), Value: []byte(n.Kind)},
		},
	})
	if err != nil {
		return fmt.Errorf("send notification to %s: %w", s.topic, err)
	}
	return nil
}

// Close closes the producer.
func (s *NotificationSink) Close() error {
	if s == nil {
		return nil
	}
	return s.producer.Close()
}
