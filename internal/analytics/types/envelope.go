package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sabjimart/sabji-backend/pkg/enums"
)

// Envelope represents one domain event as the analytics pipeline sees it.
type Envelope struct {
	EventID       string
	EventType     enums.AnalyticsEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   string
	OccurredAt    time.Time
	ActorRole     enums.Role
	ActorID       *uuid.UUID
	Payload       json.RawMessage
}
