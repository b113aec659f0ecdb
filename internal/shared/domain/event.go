package domain

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is the contract every published event satisfies. The routing
// key doubles as the message topic once the event leaves the process.
type DomainEvent interface {
	EventID() uuid.UUID
	AggregateID() uuid.UUID
	AggregateType() string
	RoutingKey() string
	OccurredAt() time.Time
	Metadata() EventMetadata
}

// EventMetadata ties an event back to the request and user that caused it.
type EventMetadata struct {
	CorrelationID uuid.UUID
	UserID        uuid.UUID
}

// BaseEvent carries the fields shared by all concrete events. Embedding it
// leaves only the payload for the event type to define.
type BaseEvent struct {
	eventID       uuid.UUID
	aggregateID   uuid.UUID
	aggregateType string
	routingKey    string
	occurredAt    time.Time
	metadata      EventMetadata
}

// NewBaseEvent stamps a fresh event identity and occurrence time.
func NewBaseEvent(aggregateID uuid.UUID, aggregateType, routingKey string) BaseEvent {
	return BaseEvent{
		eventID:       uuid.New(),
		aggregateID:   aggregateID,
		aggregateType: aggregateType,
		routingKey:    routingKey,
		occurredAt:    time.Now().UTC(),
	}
}

func (b BaseEvent) EventID() uuid.UUID      { return b.eventID }
func (b BaseEvent) AggregateID() uuid.UUID  { return b.aggregateID }
func (b BaseEvent) AggregateType() string   { return b.aggregateType }
func (b BaseEvent) RoutingKey() string      { return b.routingKey }
func (b BaseEvent) OccurredAt() time.Time   { return b.occurredAt }
func (b BaseEvent) Metadata() EventMetadata { return b.metadata }

// SetMetadata attaches correlation and actor information after construction.
// Handlers call this once, right before the event is written to the outbox.
func (b *BaseEvent) SetMetadata(metadata EventMetadata) {
	b.metadata = metadata
}
