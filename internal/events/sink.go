package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// Sink forwards events outside the process.
type Sink interface {
	Send(ctx context.Context, event Event) error
	Close()
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Send(context.Context, Event) error { return nil }
func (NopSink) Close()                            {}

// KafkaSink produces events as JSON records keyed by ticket id, so one ticket's
// events stay ordered within a partition.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	logger *zap.Logger
}

// NewKafkaSink connects a franz-go producer. Records that are not acknowledged
// within deliveryTimeout fail and are logged.
func NewKafkaSink(brokers []string, clientID, topic string, deliveryTimeout time.Duration, logger *zap.Logger) (*KafkaSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.RecordDeliveryTimeout(deliveryTimeout),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaSink{client: client, topic: topic, logger: logger}, nil
}

// Send buffers the record and returns without waiting for the broker. A full
// buffer fails the record immediately. Delivery errors are logged.
func (s *KafkaSink) Send(ctx context.Context, event Event) error {
	record, err := Record(s.topic, event)
	if err != nil {
		return err
	}
	s.client.TryProduce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil {
			s.logger.Warn("kafka delivery failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.String("key", string(r.Key)),
				zap.Error(err))
		}
	})
	return nil
}

// Close flushes and closes the producer.
func (s *KafkaSink) Close() {
	if s != nil && s.client != nil {
		s.client.Close()
	}
}

// Record encodes event as a Kafka record.
func Record(topic string, event Event) (*kgo.Record, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	key := "customer-" + strconv.FormatInt(event.CustomerID, 10)
	if event.TicketID != 0 {
		key = "ticket-" + strconv.FormatInt(event.TicketID, 10)
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}, nil
}
