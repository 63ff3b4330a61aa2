package events

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tuichain-backend/internal/domain/events"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes events to one topic, keyed by loan id so the events of a
// loan stay ordered within a partition.
type Kafka struct {
	w     messageWriter
	topic string
}

var _ events.Publisher = (*Kafka)(nil)

func NewKafka(brokers []string, topic string) (*Kafka, error) {
	var addrs []string
	for _, b := range brokers {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	if topic == "" {
		topic = "tuichain.events"
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(addrs...),
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
	}
	return &Kafka{w: w, topic: topic}, nil
}

func (k *Kafka) Publish(ctx context.Context, e events.Event) error {
	b, err := encode(e)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Topic: k.topic,
		Key:   []byte(strconv.FormatUint(e.LoanID, 10)),
		Value: b,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}
	if err := k.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka topic %s: %w", k.topic, err)
	}
	return nil
}

func (k *Kafka) Close() error { return k.w.Close() }
