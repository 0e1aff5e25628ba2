package outbox

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"coaching-messenger/internal/domain/outbox"
	"coaching-messenger/internal/events"
	"coaching-messenger/internal/repository"
	"coaching-messenger/pkg/logger"
)

type Processor struct {
	repo       repository.OutboxRepository
	publisher  events.Publisher
	log        *logger.Logger
	batchSize  int
	interval   time.Duration
	maxRetries int
}

func NewProcessor(repo repository.OutboxRepository, publisher events.Publisher, log *logger.Logger, batchSize int, interval time.Duration, maxRetries int) *Processor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Processor{
		repo:       repo,
		publisher:  publisher,
		log:        log,
		batchSize:  batchSize,
		interval:   interval,
		maxRetries: maxRetries,
	}
}

func (p *Processor) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch publishes up to batchSize pending events and returns how many
// were delivered.
func (p *Processor) ProcessBatch(ctx context.Context) int {
	batch, err := p.repo.GetPending(ctx, p.batchSize, p.maxRetries)
	if err != nil {
		p.log.Logger.Warn("outbox fetch failed", zap.Error(err))
		return 0
	}

	delivered := 0
	for _, e := range batch {
		if err := p.repo.MarkProcessing(ctx, e.ID); err != nil {
			p.log.Logger.Warn("outbox mark processing failed", zap.String("event_id", e.ID.String()), zap.Error(err))
			continue
		}

		env := events.Envelope{
			EventType:     e.EventType,
			AggregateType: e.AggregateType,
			AggregateID:   e.AggregateID,
			OccurredAt:    e.CreatedAt.UTC(),
			Payload:       json.RawMessage(e.Payload),
		}
		payload, err := json.Marshal(env)
		if err != nil {
			_ = p.repo.MarkFailed(ctx, e.ID, err.Error())
			continue
		}

		if err := p.publisher.Publish(ctx, events.ResolveChannel(env), payload); err != nil {
			p.retryOrFail(ctx, e, err)
			continue
		}

		if err := p.repo.MarkCompleted(ctx, e.ID); err != nil {
			p.log.Logger.Warn("outbox mark completed failed", zap.String("event_id", e.ID.String()), zap.Error(err))
			continue
		}
		delivered++
	}
	return delivered
}

// retryOrFail returns the event to PENDING with a bumped retry count, or marks
// it FAILED once the retries are spent.
func (p *Processor) retryOrFail(ctx context.Context, e outbox.OutboxEvent, cause error) {
	if e.RetryCount+1 >= p.maxRetries {
		p.log.Logger.Error("outbox event dropped", zap.String("event_id", e.ID.String()), zap.String("event_type", e.EventType), zap.Error(cause))
		_ = p.repo.MarkFailed(ctx, e.ID, cause.Error())
		return
	}
	p.log.Logger.Warn("outbox publish failed", zap.String("event_id", e.ID.String()), zap.Error(cause))
	_ = p.repo.IncrementRetry(ctx, e.ID)
}
