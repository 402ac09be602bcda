// Package events publishes transcription job lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"speech-batch-transcriber/internal/observability/metrics"
)

// Publisher publishes job events to a single Kafka topic keyed by job name.
type Publisher struct {
	writer    *kafka.Writer
	principal string
	topic     string
	enabled   bool
	metrics   *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers   []string
	Topic     string
	Principal string
	Enabled   bool
}

// New creates a Kafka event publisher. Without brokers, or when disabled,
// events are only logged.
func New(cfg *Config, m *metrics.Metrics) *Publisher {
	if m == nil {
		m = metrics.DefaultMetrics
	}

	if cfg == nil {
		log.Debug().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Debug().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal: cfg.Principal,
			topic:     cfg.Topic,
			enabled:   false,
			metrics:   m,
		}
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writer:    writer,
		principal: cfg.Principal,
		topic:     cfg.Topic,
		enabled:   true,
		metrics:   m,
	}
}

// Publish writes event as JSON. Events for one job share a key so they stay ordered.
func (p *Publisher) Publish(ctx context.Context, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", p.topic).Msg("Failed to marshal event")
		return err
	}

	eventType := eventTypeOf(payload)

	log.Debug().
		Str("principal", p.principal).
		Str("topic", p.topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || p.writer == nil {
		p.metrics.RecordKafkaPublish(p.topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", p.topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(p.topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(p.topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close flushes and closes the Kafka writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing Kafka writer")
		return err
	}
	return nil
}

// eventTypeOf reads the eventType field of a marshalled event, if any.
func eventTypeOf(payload []byte) string {
	var head struct {
		EventType string `json:"eventType"`
	}
	if err := json.Unmarshal(payload, &head); err != nil || head.EventType == "" {
		return "unknown"
	}
	return head.EventType
}
