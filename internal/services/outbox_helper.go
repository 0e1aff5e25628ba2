package services

import (
	"context"
	"encoding/json"
	"time"

	"coaching-messenger/internal/domain/outbox"
	"coaching-messenger/internal/repository"

	"github.com/google/uuid"
)

// createOutboxEvent stages an event in tx so it commits with the change it
// describes.
func createOutboxEvent(ctx context.Context, repo repository.OutboxRepository, tx repository.DBTX, aggregateType string, aggregateID uuid.UUID, eventType string, payload interface{}) error {
	if repo == nil {
		return nil
	}
	data := []byte("{}")
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		data = raw
	}
	now := time.Now().UTC()
	return repo.Create(ctx, tx, &outbox.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID.String(),
		EventType:     eventType,
		Payload:       data,
		Status:        outbox.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}
