package repository

import (
	"context"

	"github.com/saferoute-service/internal/domain"
)

// StreamRepository is the job queue, backed by Redis streams with consumer
// groups. Delivery is at-least-once; consumers must tolerate duplicates.
type StreamRepository interface {
	// Publish appends a message to a stream.
	Publish(ctx context.Context, stream string, data interface{}) error

	// CreateConsumerGroup creates the consumer group, tolerating an
	// already-existing group.
	CreateConsumerGroup(ctx context.Context, stream, group string) error

	// Consume reads messages for a consumer group until the context ends.
	Consume(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error)

	// Ack acknowledges a processed message.
	Ack(ctx context.Context, stream, group, messageID string) error
}

// AnomalyFlagger hands an occurrence off to the external moderation
// pipeline. One-way; detection itself is out of scope.
type AnomalyFlagger interface {
	Flag(ctx context.Context, occurrence *domain.Occurrence, reason string) error
}

// AuditRepository records actor actions for later review.
type AuditRepository interface {
	Record(ctx context.Context, action, actorID string, details map[string]interface{}) error
}
