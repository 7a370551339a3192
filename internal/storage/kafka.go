package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/pkg/config"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes each packet keyed by run id.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

var _ contracts.PacketSink = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher for cfg.Kafka. Brokers are required.
func NewKafkaPublisher(cfg config.KafkaConfig) (*KafkaPublisher, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("brokers are required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Gzip,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
	}
	return &KafkaPublisher{writer: writer, topic: cfg.Topic}, nil
}

// Name implements contracts.PacketSink.
func (p *KafkaPublisher) Name() string {
	return "kafka"
}

// Save implements contracts.PacketSink.
func (p *KafkaPublisher) Save(ctx context.Context, packet *contracts.AdvicePacket) error {
	value, err := json.Marshal(packet)
	if err != nil {
		return fmt.Errorf("marshal packet: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(packet.RunID),
		Value: value,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
