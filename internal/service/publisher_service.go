package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/vinyareddy314/cms-go/internal/dto"
	"github.com/vinyareddy314/cms-go/internal/models"
	appErrors "github.com/vinyareddy314/cms-go/pkg/errors"
)

type publisherLessonStore interface {
	SelectDueForUpdate(ctx context.Context, tx *sqlx.Tx) ([]models.DueLesson, error)
	PublishDue(ctx context.Context, tx *sqlx.Tx, id string) (bool, error)
}

type publisherTermStore interface {
	ProgramIDForTerm(ctx context.Context, tx *sqlx.Tx, termID string) (string, error)
}

// PublisherService is the scheduled-publish coordinator. Each tick claims the
// due set with SKIP LOCKED row selection, so any number of worker instances
// can poll the same database: concurrent ticks partition the due lessons
// between them instead of colliding.
type PublisherService struct {
	lessons  publisherLessonStore
	terms    publisherTermStore
	programs programCascader
	assets   thumbnailVariantLister
	tx       txProvider
	metrics  *MetricsService
	logger   *zap.Logger
	policy   PublishPolicy
}

// NewPublisherService wires the coordinator.
func NewPublisherService(
	lessons publisherLessonStore,
	terms publisherTermStore,
	programs programCascader,
	assets thumbnailVariantLister,
	tx txProvider,
	metrics *MetricsService,
	logger *zap.Logger,
	policy PublishPolicy,
) *PublisherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublisherService{
		lessons:  lessons,
		terms:    terms,
		programs: programs,
		assets:   assets,
		tx:       tx,
		metrics:  metrics,
		logger:   logger,
		policy:   policy,
	}
}

// Tick runs one scan-and-publish pass over the due set in a single
// transaction. Lessons with unmet thumbnail preconditions are left scheduled
// and retried on later ticks; any other failure rolls the whole batch back.
func (s *PublisherService) Tick(ctx context.Context) (summary *dto.TickSummary, err error) {
	startedAt := time.Now().UTC()

	defer func() {
		if err != nil && s.metrics != nil {
			s.metrics.ObserveTickFailure()
		}
	}()

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin tick transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	due, err := s.lessons.SelectDueForUpdate(ctx, tx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to claim due lessons")
	}

	published := 0
	skipped := 0
	for _, lesson := range due {
		ok, gateErr := checkThumbnailGate(ctx, s.assets, tx, lesson.ID, lesson.PrimaryLanguage, s.policy.AllowMissingThumbnails)
		if gateErr != nil {
			err = appErrors.Wrap(gateErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check thumbnails")
			return nil, err
		}
		if !ok {
			skipped++
			s.logger.Warn("publish_skipped_missing_thumbnails",
				zap.String("lesson_id", lesson.ID),
				zap.String("language", lesson.PrimaryLanguage),
			)
			continue
		}

		updated, pubErr := s.lessons.PublishDue(ctx, tx, lesson.ID)
		if pubErr != nil {
			err = appErrors.Wrap(pubErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish due lesson")
			return nil, err
		}
		if !updated {
			// lost race: the row no longer satisfies scheduled + due
			continue
		}
		published++

		programID, cascadeErr := s.terms.ProgramIDForTerm(ctx, tx, lesson.TermID)
		if cascadeErr != nil {
			err = appErrors.Wrap(cascadeErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve program")
			return nil, err
		}
		if cascadeErr := s.programs.AutoPublish(ctx, tx, programID); cascadeErr != nil {
			err = appErrors.Wrap(cascadeErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cascade program status")
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit tick")
		return nil, err
	}

	summary = &dto.TickSummary{
		StartedAt:      startedAt,
		DueCount:       len(due),
		PublishedCount: published,
		SkippedCount:   skipped,
	}

	if s.metrics != nil {
		s.metrics.ObserveTick(time.Since(startedAt), summary.DueCount, published, skipped)
	}
	s.logger.Info("worker_tick_complete",
		zap.Time("started_at", summary.StartedAt),
		zap.Int("due_count", summary.DueCount),
		zap.Int("published_count", summary.PublishedCount),
		zap.Int("skipped_count", summary.SkippedCount),
	)

	return summary, nil
}

// Run executes an immediate tick and then polls on the configured interval
// until the context is cancelled. Tick failures are logged and absorbed; the
// next interval retries the same due set from scratch.
func (s *PublisherService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	if _, err := s.Tick(ctx); err != nil {
		s.logger.Error("tick failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("publisher stopping", zap.Error(ctx.Err()))
			return
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil {
				s.logger.Error("tick failed", zap.Error(err))
			}
		}
	}
}
