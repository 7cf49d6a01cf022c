package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-core/internal/dto"
	"github.com/noah-isme/sma-academic-core/internal/models"
	"github.com/noah-isme/sma-academic-core/internal/repository"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
	"github.com/noah-isme/sma-academic-core/pkg/logger"
)

const defaultRetentionKeepYears = 2

type retentionMetrics interface {
	RecordPurge(deleted int64)
}

// SessionRetentionService removes stale class sessions that never received attendance.
type SessionRetentionService struct {
	uow              repository.UnitOfWork
	validator        *validator.Validate
	logger           *zap.Logger
	metrics          retentionMetrics
	defaultKeepYears int
	now              func() time.Time
}

// NewSessionRetentionService constructs the retention service.
func NewSessionRetentionService(uow repository.UnitOfWork, validate *validator.Validate, logger *zap.Logger, metrics retentionMetrics, defaultKeepYears int) *SessionRetentionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = (*MetricsService)(nil)
	}
	if defaultKeepYears <= 0 {
		defaultKeepYears = defaultRetentionKeepYears
	}
	return &SessionRetentionService{
		uow:              uow,
		validator:        validate,
		logger:           logger,
		metrics:          metrics,
		defaultKeepYears: defaultKeepYears,
		now:              time.Now,
	}
}

// Cutoff returns January 1st of the oldest year that is kept.
func (s *SessionRetentionService) Cutoff(keepYears int) time.Time {
	if keepYears <= 0 {
		keepYears = s.defaultKeepYears
	}
	return time.Date(s.now().Year()-keepYears, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// Purge deletes sessions dated before the cutoff that have no attendance rows.
func (s *SessionRetentionService) Purge(ctx context.Context, keepYears int) (*dto.PurgeSessionsResult, error) {
	if keepYears <= 0 {
		keepYears = s.defaultKeepYears
	}
	cutoff := s.Cutoff(keepYears)

	var deleted int64
	err := s.uow.Do(ctx, repository.TxOptions{LockKey: sessionGenerationLockKey}, func(ctx context.Context, st repository.Stores) error {
		var err error
		deleted, err = st.Sessions.PurgeBefore(ctx, cutoff)
		return err
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to purge class sessions")
	}

	s.metrics.RecordPurge(deleted)
	logger.WithContext(ctx, s.logger).Info("class sessions purged",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff),
		zap.Int("keep_years", keepYears),
	)
	return &dto.PurgeSessionsResult{
		Deleted:   deleted,
		Cutoff:    cutoff.Format(models.SessionDateLayout),
		KeepYears: keepYears,
	}, nil
}

// PurgeRequest validates the request and runs Purge.
func (s *SessionRetentionService) PurgeRequest(ctx context.Context, req dto.PurgeSessionsRequest) (*dto.PurgeSessionsResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid purge request")
	}
	return s.Purge(ctx, req.KeepYears)
}
