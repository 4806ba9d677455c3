package worker

import (
	"context"
	"encoding/json"

	"submission-processor/internal/models"
	"submission-processor/internal/storage"
	"submission-processor/pkg/metrics"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Worker consumes processed-submission events and maintains the rollup
// counters the reporting screens read. Events are idempotence-free counters;
// a redelivered message double-counts, which is acceptable for dashboards.
type Worker struct {
	channel *amqp.Channel
	db      *storage.MongoDB
	logger  *zap.Logger
}

func NewWorker(channel *amqp.Channel, db *storage.MongoDB, logger *zap.Logger) *Worker {
	return &Worker{
		channel: channel,
		db:      db,
		logger:  logger,
	}
}

func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			var event models.SubmissionEvent
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				w.logger.Error("Failed to unmarshal submission event",
					zap.Error(err),
					zap.String("body", string(msg.Body)))
				metrics.RollupEvents.WithLabelValues("invalid").Inc()
				msg.Nack(false, false)
				continue
			}

			if err := w.db.IncrementScopeStats(ctx, event); err != nil {
				w.logger.Error("Failed to update submission stats",
					zap.Error(err),
					zap.String("submission_id", event.SubmissionID))
				metrics.RollupEvents.WithLabelValues("failed").Inc()
				msg.Nack(false, true)
				continue
			}

			w.logger.Debug("Recorded submission rollup",
				zap.String("submission_id", event.SubmissionID),
				zap.Int("matched_rules", event.MatchedRules))
			metrics.RollupEvents.WithLabelValues("success").Inc()
			msg.Ack(false)
		}
	}()

	return nil
}
