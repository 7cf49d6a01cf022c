package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-core/internal/dto"
	"github.com/noah-isme/sma-academic-core/internal/models"
	"github.com/noah-isme/sma-academic-core/internal/repository"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
	"github.com/noah-isme/sma-academic-core/pkg/logger"
)

const (
	defaultSessionHorizonMonths = 4
	sessionGenerationLockKey    = "class_sessions:generate"
)

type generatorMetrics interface {
	RecordGeneration(generated, skipped int)
}

// SessionGeneratorConfig tunes session generation.
type SessionGeneratorConfig struct {
	DefaultHorizonMonths int
	BatchTimeout         time.Duration
}

// SessionGeneratorService materializes dated class sessions from weekly schedules.
type SessionGeneratorService struct {
	uow       repository.UnitOfWork
	validator *validator.Validate
	logger    *zap.Logger
	metrics   generatorMetrics
	cfg       SessionGeneratorConfig
	now       func() time.Time
}

// NewSessionGeneratorService constructs the generator.
func NewSessionGeneratorService(uow repository.UnitOfWork, validate *validator.Validate, logger *zap.Logger, metrics generatorMetrics, cfg SessionGeneratorConfig) *SessionGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = (*MetricsService)(nil)
	}
	if cfg.DefaultHorizonMonths <= 0 {
		cfg.DefaultHorizonMonths = defaultSessionHorizonMonths
	}
	return &SessionGeneratorService{
		uow:       uow,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Generate parses the request range and generates sessions for it.
func (s *SessionGeneratorService) Generate(ctx context.Context, req dto.GenerateSessionsRequest) (*dto.GenerateSessionsResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation request")
	}

	start := models.DateOnly(s.now())
	if req.StartDate != "" {
		parsed, err := time.Parse(models.SessionDateLayout, req.StartDate)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "startDate must use YYYY-MM-DD")
		}
		start = parsed
	}
	end := start.AddDate(0, s.cfg.DefaultHorizonMonths, 0)
	if req.EndDate != "" {
		parsed, err := time.Parse(models.SessionDateLayout, req.EndDate)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "endDate must use YYYY-MM-DD")
		}
		end = parsed
	}

	return s.GenerateRange(ctx, start, end, req.CourseIDs, req.Overwrite)
}

// GenerateRange creates a session for every weekly occurrence of the selected schedules between
// start and end inclusive. Existing sessions are skipped, or rewritten when overwrite is set.
// The whole batch commits or rolls back as one unit.
func (s *SessionGeneratorService) GenerateRange(ctx context.Context, start, end time.Time, courseIDs []string, overwrite bool) (*dto.GenerateSessionsResult, error) {
	start = models.DateOnly(start)
	end = models.DateOnly(end)
	filter := models.ClassScheduleFilter{CourseIDs: compactIDs(courseIDs)}
	if len(courseIDs) > 0 && len(filter.CourseIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoSchedules, "no class schedules match the requested courses")
	}

	if s.cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.BatchTimeout)
		defer cancel()
	}

	log := logger.WithContext(ctx, s.logger)
	result := &dto.GenerateSessionsResult{
		StartDate: start.Format(models.SessionDateLayout),
		EndDate:   end.Format(models.SessionDateLayout),
	}

	err := s.uow.Do(ctx, repository.TxOptions{LockKey: sessionGenerationLockKey}, func(ctx context.Context, st repository.Stores) error {
		result.Generated, result.Skipped, result.Schedules = 0, 0, 0

		schedules, err := st.Schedules.List(ctx, filter)
		if err != nil {
			return err
		}
		if len(schedules) == 0 {
			return appErrors.Clone(appErrors.ErrNoSchedules, "no class schedules match the requested courses")
		}
		result.Schedules = len(schedules)

		for _, schedule := range schedules {
			weekday, ok := schedule.Weekday()
			if !ok {
				log.Warn("schedule has unmapped weekday",
					zap.String("schedule_id", schedule.ID),
					zap.String("day_of_week", schedule.DayOfWeek),
				)
				continue
			}
			generated, skipped, err := s.materialize(ctx, st, schedule, weekday, start, end, overwrite)
			if err != nil {
				return fmt.Errorf("schedule %s: %w", schedule.ID, err)
			}
			result.Generated += generated
			result.Skipped += skipped
		}
		return nil
	})
	if err != nil {
		result.Generated, result.Skipped = 0, 0
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		log.Error("session generation rolled back", zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "session generation aborted")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "session generation failed")
	}

	s.metrics.RecordGeneration(result.Generated, result.Skipped)
	log.Info("class sessions generated",
		zap.String("start", result.StartDate),
		zap.String("end", result.EndDate),
		zap.Int("schedules", result.Schedules),
		zap.Int("generated", result.Generated),
		zap.Int("skipped", result.Skipped),
		zap.Bool("overwrite", overwrite),
	)
	return result, nil
}

func (s *SessionGeneratorService) materialize(ctx context.Context, st repository.Stores, schedule models.ClassSchedule, weekday time.Weekday, start, end time.Time, overwrite bool) (int, int, error) {
	generated, skipped := 0, 0

	cursor := start
	for cursor.Weekday() != weekday {
		cursor = cursor.AddDate(0, 0, 1)
	}

	for ; !cursor.After(end); cursor = cursor.AddDate(0, 0, 7) {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}

		key := models.ClassSessionKey{CourseID: schedule.CourseID, SessionDate: cursor, StartTime: schedule.StartTime}
		existing, err := st.Sessions.FindByKey(ctx, key)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			session := &models.ClassSession{
				CourseID:    schedule.CourseID,
				SessionDate: cursor,
				StartTime:   schedule.StartTime,
				EndTime:     schedule.EndTime,
				SessionType: schedule.SessionType,
				Room:        schedule.Room,
			}
			if err := st.Sessions.Create(ctx, session); err != nil {
				return 0, 0, err
			}
			generated++
		case err != nil:
			return 0, 0, err
		case overwrite:
			existing.EndTime = schedule.EndTime
			existing.SessionType = schedule.SessionType
			existing.Room = schedule.Room
			if err := st.Sessions.UpdateDetails(ctx, existing); err != nil {
				return 0, 0, err
			}
			generated++
		default:
			skipped++
		}
	}
	return generated, skipped, nil
}

func compactIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
