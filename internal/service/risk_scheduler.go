package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-pedagogy-api/internal/models"
	appErrors "github.com/noah-isme/sma-pedagogy-api/pkg/errors"
	"github.com/noah-isme/sma-pedagogy-api/pkg/jobs"
)

type schoolIDLister interface {
	ListIDs(ctx context.Context) ([]string, error)
}

type riskRunner interface {
	Run(ctx context.Context, schoolID string, actor models.Actor) (models.RiskRunSummary, error)
}

// RiskScheduler fans scheduled evaluations out to a worker queue, one job per school.
type RiskScheduler struct {
	schools   schoolIDLister
	evaluator riskRunner
	queue     *jobs.Queue[string]
	logger    *zap.Logger
}

// NewRiskScheduler builds the scheduler and its queue. The queue is idle until Start.
func NewRiskScheduler(schools schoolIDLister, evaluator riskRunner, cfg jobs.QueueConfig, logger *zap.Logger) *RiskScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RiskScheduler{schools: schools, evaluator: evaluator, logger: logger}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	s.queue = jobs.NewQueue("risk-evaluation", s.handle, cfg)
	return s
}

// Start launches the queue workers.
func (s *RiskScheduler) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for in-flight evaluations.
func (s *RiskScheduler) Stop() {
	s.queue.Stop()
}

// EnqueueAll queues an evaluation for every school. Schools with a pending job are skipped.
func (s *RiskScheduler) EnqueueAll(ctx context.Context) error {
	ids, err := s.schools.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("list schools: %w", err)
	}
	queued := 0
	for _, id := range ids {
		err := s.queue.Enqueue(jobs.Job[string]{Key: id, Payload: id})
		switch {
		case errors.Is(err, jobs.ErrDuplicate):
			s.logger.Debug("risk evaluation already pending", zap.String("school_id", id))
		case err != nil:
			return fmt.Errorf("enqueue school %s: %w", id, err)
		default:
			queued++
		}
	}
	s.logger.Info("risk evaluations queued", zap.Int("schools", len(ids)), zap.Int("queued", queued))
	return nil
}

func (s *RiskScheduler) handle(ctx context.Context, job jobs.Job[string]) error {
	_, err := s.evaluator.Run(ctx, job.Payload, models.SystemActor(job.Payload))
	if errors.Is(err, appErrors.ErrLocked) {
		s.logger.Info("risk evaluation skipped, another run holds the lock", zap.String("school_id", job.Payload))
		return nil
	}
	return err
}
