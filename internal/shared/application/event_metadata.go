package application

import (
	"github.com/google/uuid"

	"github.com/waypointhq/waypoint/internal/shared/domain"
)

type metadataSetter interface {
	SetMetadata(metadata domain.EventMetadata)
}

// NewEventMetadata mints metadata for one command invocation. Every event
// the command emits shares the same correlation ID.
func NewEventMetadata(userID uuid.UUID) domain.EventMetadata {
	return domain.EventMetadata{
		CorrelationID: uuid.New(),
		UserID:        userID,
	}
}

// ApplyEventMetadata stamps metadata onto each event that accepts it.
// Events must be pointers for the stamp to stick.
func ApplyEventMetadata(events []domain.DomainEvent, metadata domain.EventMetadata) {
	for _, event := range events {
		if setter, ok := event.(metadataSetter); ok {
			setter.SetMetadata(metadata)
		}
	}
}
