// Package notify publishes signal events to a message broker when a chart's
// latest point shows special-cause variation.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/soltixdb/xmrchart/internal/config"
)

// Type identifies a notification backend
type Type string

const (
	TypeMemory Type = "memory"
	TypeNATS   Type = "nats"
	TypeRedis  Type = "redis"
	TypeKafka  Type = "kafka"
)

// Publisher publishes messages to a subject/topic
type Publisher interface {
	// Publish publishes a message to a subject/topic
	Publish(ctx context.Context, subject string, data []byte) error

	// Close closes the connection
	Close() error
}

// MessageHandler handles delivered messages
type MessageHandler func(subject string, data []byte)

// NewPublisher creates a Publisher for cfg.Type
func NewPublisher(cfg config.NotifyConfig) (Publisher, error) {
	switch Type(strings.ToLower(cfg.Type)) {
	case TypeNATS:
		return newNATSPublisher(cfg.URL)

	case TypeRedis:
		return newRedisPublisher(RedisConfig{
			URL:    cfg.URL,
			Stream: cfg.RedisStream,
		})

	case TypeKafka:
		return newKafkaPublisher(KafkaConfig{
			Brokers: cfg.KafkaBrokers,
		})

	case TypeMemory, "":
		return NewMemoryPublisher(), nil

	default:
		return nil, fmt.Errorf("unsupported notify type: %s (supported: nats, redis, kafka, memory)", cfg.Type)
	}
}
