package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danarifka/studyplan-api/internal/models"
	"github.com/danarifka/studyplan-api/pkg/jobs"
)

type retrainResourceSource interface {
	ListAll(ctx context.Context) ([]models.LearningResource, error)
}

type retrainTarget interface {
	Train(ctx context.Context, resources []models.LearningResource) error
}

type retrainMetrics interface {
	RecordRetrain()
}

// RetrainCoordinator rebuilds the recommendation model in the background
// whenever the resource corpus changes. Retraining is idempotent, so a failed
// job simply retries through the queue.
type RetrainCoordinator struct {
	resources retrainResourceSource
	target    retrainTarget
	metrics   retrainMetrics
	queue     *jobs.Queue
	logger    *zap.Logger
}

// NewRetrainCoordinator builds the coordinator and its backing queue. The
// metrics collector is optional.
func NewRetrainCoordinator(resources retrainResourceSource, target retrainTarget, metrics retrainMetrics, workers int, logger *zap.Logger) *RetrainCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &RetrainCoordinator{
		resources: resources,
		target:    target,
		metrics:   metrics,
		logger:    logger,
	}
	// Rebuilds are idempotent and full-corpus, so back-to-back triggers
	// collapse into a single pending job.
	c.queue = jobs.NewQueue("recommender-retrain", c.handle, jobs.QueueConfig{
		Workers:        workers,
		CoalesceByType: true,
		Logger:         logger,
	})
	return c
}

// Start begins background processing.
func (c *RetrainCoordinator) Start(ctx context.Context) {
	c.queue.Start(ctx)
}

// Stop drains the queue and stops the workers.
func (c *RetrainCoordinator) Stop() {
	c.queue.Stop()
}

// EnqueueRetrain schedules a model rebuild. Errors are logged rather than
// returned; a dropped retrain leaves the previous model serving.
func (c *RetrainCoordinator) EnqueueRetrain(reason string) {
	err := c.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "retrain",
		Payload: reason,
	})
	if err != nil {
		c.logger.Warn("failed to enqueue retrain", zap.String("reason", reason), zap.Error(err))
	}
}

func (c *RetrainCoordinator) handle(ctx context.Context, job jobs.Job) error {
	resources, err := c.resources.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(resources) == 0 {
		c.logger.Warn("skipping retrain on empty corpus")
		return nil
	}
	if err := c.target.Train(ctx, resources); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.RecordRetrain()
	}
	if reason, ok := job.Payload.(string); ok {
		c.logger.Info("recommender retrained", zap.String("reason", reason))
	}
	return nil
}
