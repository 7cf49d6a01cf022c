package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-core/internal/dto"
	"github.com/noah-isme/sma-academic-core/internal/models"
	"github.com/noah-isme/sma-academic-core/internal/repository"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
	"github.com/noah-isme/sma-academic-core/pkg/logger"
)

const firstClassGroupName = "Class 1"

var trailingNumber = regexp.MustCompile(`^(.*?)\s+(\d+)$`)

type allocatorMetrics interface {
	RecordGroupCreated()
	RecordAssignment(status models.AssignmentStatus)
	RecordAllocationRetry()
}

// ClassGroupAllocatorConfig tunes the allocator.
type ClassGroupAllocatorConfig struct {
	DefaultCapacity int
	MaxRetries      int
}

// ClassGroupAllocator resolves class groups with free capacity and assigns students to them.
type ClassGroupAllocator struct {
	uow       repository.UnitOfWork
	validator *validator.Validate
	logger    *zap.Logger
	metrics   allocatorMetrics
	cfg       ClassGroupAllocatorConfig
}

// NewClassGroupAllocator constructs the allocator.
func NewClassGroupAllocator(uow repository.UnitOfWork, validate *validator.Validate, logger *zap.Logger, metrics allocatorMetrics, cfg ClassGroupAllocatorConfig) *ClassGroupAllocator {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = (*MetricsService)(nil)
	}
	if cfg.DefaultCapacity <= 0 {
		cfg.DefaultCapacity = models.DefaultClassGroupCapacity
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &ClassGroupAllocator{uow: uow, validator: validate, logger: logger, metrics: metrics, cfg: cfg}
}

// GetOrCreateGroup returns the oldest group of the cohort with a free seat, creating the next
// numbered group when every existing one is full.
func (s *ClassGroupAllocator) GetOrCreateGroup(ctx context.Context, majorID, academicYear string, semester int, shift string, defaultCapacity int) (*models.ClassGroup, error) {
	key := models.ClassGroupKey{MajorID: majorID, AcademicYear: academicYear, Semester: semester, Shift: shift}.Normalize()
	if key.MajorID == "" || key.AcademicYear == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "majorId and academicYear are required")
	}
	capacity := s.capacity(defaultCapacity)

	var (
		group   *models.ClassGroup
		created bool
	)
	_, err := s.withRetry(ctx, key.LockKey(), func(ctx context.Context, st repository.Stores) error {
		var err error
		group, created, err = s.resolve(ctx, st, key, capacity)
		return err
	})
	if err != nil {
		return nil, s.translate(err, "failed to resolve class group")
	}
	if created {
		s.metrics.RecordGroupCreated()
		logger.WithContext(ctx, s.logger).Info("class group created",
			zap.String("class_group_id", group.ID),
			zap.String("name", group.Name),
			zap.String("major_id", key.MajorID),
			zap.String("academic_year", key.AcademicYear),
			zap.Int("semester", key.Semester),
		)
	}
	return group, nil
}

// Resolve validates the request and delegates to GetOrCreateGroup.
func (s *ClassGroupAllocator) Resolve(ctx context.Context, req dto.ResolveClassGroupRequest) (*models.ClassGroup, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class group request")
	}
	return s.GetOrCreateGroup(ctx, req.MajorID, req.AcademicYear, req.Semester, req.Shift, req.DefaultCapacity)
}

// AssignStudent points the student's assignment for the period at classGroupID, inserting it when absent.
// Missing assignment storage yields an UNAVAILABLE result instead of an error.
func (s *ClassGroupAllocator) AssignStudent(ctx context.Context, studentID, classGroupID, academicYear string, semester int) (*models.AssignmentResult, error) {
	studentID = strings.TrimSpace(studentID)
	classGroupID = strings.TrimSpace(classGroupID)
	academicYear = strings.TrimSpace(academicYear)
	if studentID == "" || classGroupID == "" || academicYear == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId, classGroupId and academicYear are required")
	}
	semester = models.NormalizeSemester(semester)

	result := &models.AssignmentResult{StudentID: studentID, ClassGroupID: classGroupID, AcademicYear: academicYear, Semester: semester}
	lockKey := fmt.Sprintf("student_class_group:%s:%s:%d", studentID, academicYear, semester)
	_, err := s.withRetry(ctx, lockKey, func(ctx context.Context, st repository.Stores) error {
		status, err := assign(ctx, st, studentID, classGroupID, academicYear, semester)
		result.Status = status
		return err
	})
	if err != nil {
		if repository.IsStoreUnavailable(err) {
			return s.unavailable(ctx, result, err), nil
		}
		return nil, s.translate(err, "failed to assign student")
	}
	s.metrics.RecordAssignment(result.Status)
	return result, nil
}

// Assign validates the request and delegates to AssignStudent.
func (s *ClassGroupAllocator) Assign(ctx context.Context, req dto.AssignStudentRequest) (*models.AssignmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment request")
	}
	return s.AssignStudent(ctx, req.StudentID, req.ClassGroupID, req.AcademicYear, req.Semester)
}

// Allocate resolves a group and assigns the student inside one unit of work.
func (s *ClassGroupAllocator) Allocate(ctx context.Context, req dto.AllocateStudentRequest) (*dto.AllocationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation request")
	}
	key := models.ClassGroupKey{MajorID: req.MajorID, AcademicYear: req.AcademicYear, Semester: req.Semester, Shift: req.Shift}.Normalize()
	studentID := strings.TrimSpace(req.StudentID)
	capacity := s.capacity(req.DefaultCapacity)

	out := &dto.AllocationResult{}
	attempts, err := s.withRetry(ctx, key.LockKey(), func(ctx context.Context, st repository.Stores) error {
		seated, err := seatedGroup(ctx, st, key, studentID)
		if err != nil {
			return err
		}
		if seated != nil {
			out.ClassGroup = seated
			out.GroupCreated = false
			out.Assignment = models.AssignmentResult{
				Status:       models.AssignmentUpdated,
				StudentID:    studentID,
				ClassGroupID: seated.ID,
				AcademicYear: key.AcademicYear,
				Semester:     key.Semester,
			}
			return nil
		}

		group, created, err := s.resolve(ctx, st, key, capacity)
		if err != nil {
			return err
		}
		status, err := assign(ctx, st, studentID, group.ID, key.AcademicYear, key.Semester)
		if err != nil {
			return err
		}
		out.ClassGroup = group
		out.GroupCreated = created
		out.Assignment = models.AssignmentResult{
			Status:       status,
			StudentID:    studentID,
			ClassGroupID: group.ID,
			AcademicYear: key.AcademicYear,
			Semester:     key.Semester,
		}
		return nil
	})
	out.Attempts = attempts
	if err != nil {
		if repository.IsStoreUnavailable(err) {
			out.ClassGroup = nil
			out.GroupCreated = false
			out.Assignment = *s.unavailable(ctx, &models.AssignmentResult{
				StudentID:    studentID,
				AcademicYear: key.AcademicYear,
				Semester:     key.Semester,
			}, err)
			return out, nil
		}
		return nil, s.translate(err, "failed to allocate student")
	}

	if out.GroupCreated {
		s.metrics.RecordGroupCreated()
	}
	s.metrics.RecordAssignment(out.Assignment.Status)
	logger.WithContext(ctx, s.logger).Info("student allocated",
		zap.String("student_id", studentID),
		zap.String("class_group_id", out.ClassGroup.ID),
		zap.String("class_group", out.ClassGroup.Name),
		zap.Bool("group_created", out.GroupCreated),
		zap.String("status", string(out.Assignment.Status)),
	)
	return out, nil
}

// CountAssignments returns the seats used in a group for the period.
func (s *ClassGroupAllocator) CountAssignments(ctx context.Context, classGroupID, academicYear string, semester int) (int, error) {
	var total int
	err := s.uow.Do(ctx, repository.TxOptions{ReadOnly: true}, func(ctx context.Context, st repository.Stores) error {
		var err error
		total, err = st.Assignments.CountByGroup(ctx, classGroupID, academicYear, models.NormalizeSemester(semester))
		return err
	})
	if err != nil {
		return 0, s.translate(err, "failed to count assignments")
	}
	return total, nil
}

// seatedGroup returns the cohort group already holding the student for the period, or nil.
func seatedGroup(ctx context.Context, st repository.Stores, key models.ClassGroupKey, studentID string) (*models.ClassGroup, error) {
	current, err := st.Assignments.FindByStudent(ctx, studentID, key.AcademicYear, key.Semester)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	groups, err := st.ClassGroups.ListByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		if groups[i].ID == current.ClassGroupID {
			group := groups[i]
			return &group, nil
		}
	}
	return nil, nil
}

func (s *ClassGroupAllocator) resolve(ctx context.Context, st repository.Stores, key models.ClassGroupKey, capacity int) (*models.ClassGroup, bool, error) {
	groups, err := st.ClassGroups.ListByKey(ctx, key)
	if err != nil {
		return nil, false, err
	}
	for i := range groups {
		used, err := st.Assignments.CountByGroup(ctx, groups[i].ID, key.AcademicYear, key.Semester)
		if err != nil {
			return nil, false, err
		}
		if used < groups[i].EffectiveCapacity(capacity) {
			group := groups[i]
			return &group, false, nil
		}
	}

	group := &models.ClassGroup{
		Name:         NextClassGroupName(groups),
		MajorID:      key.MajorID,
		AcademicYear: key.AcademicYear,
		Semester:     key.Semester,
		Shift:        key.ShiftPtr(),
		Capacity:     capacity,
	}
	if err := st.ClassGroups.Create(ctx, group); err != nil {
		return nil, false, err
	}
	return group, true, nil
}

func assign(ctx context.Context, st repository.Stores, studentID, classGroupID, academicYear string, semester int) (models.AssignmentStatus, error) {
	updated, err := st.Assignments.UpdateGroup(ctx, studentID, academicYear, semester, classGroupID)
	if err != nil {
		return "", err
	}
	if updated {
		return models.AssignmentUpdated, nil
	}
	err = st.Assignments.Create(ctx, &models.StudentClassGroup{
		StudentID:    studentID,
		ClassGroupID: classGroupID,
		AcademicYear: academicYear,
		Semester:     semester,
	})
	if err != nil {
		return "", err
	}
	return models.AssignmentCreated, nil
}

// withRetry runs fn in a locked unit of work, repeating it while it fails on a unique index.
func (s *ClassGroupAllocator) withRetry(ctx context.Context, lockKey string, fn func(ctx context.Context, st repository.Stores) error) (int, error) {
	for attempt := 1; ; attempt++ {
		err := s.uow.Do(ctx, repository.TxOptions{LockKey: lockKey}, fn)
		if err == nil || !repository.IsUniqueViolation(err) || attempt > s.cfg.MaxRetries {
			return attempt, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return attempt, ctxErr
		}
		s.metrics.RecordAllocationRetry()
		logger.WithContext(ctx, s.logger).Warn("allocation conflict, retrying",
			zap.String("lock_key", lockKey),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}

func (s *ClassGroupAllocator) unavailable(ctx context.Context, result *models.AssignmentResult, err error) *models.AssignmentResult {
	result.Status = models.AssignmentUnavailable
	s.metrics.RecordAssignment(models.AssignmentUnavailable)
	logger.WithContext(ctx, s.logger).Warn("assignment storage unavailable",
		zap.String("student_id", result.StudentID),
		zap.String("academic_year", result.AcademicYear),
		zap.Int("semester", result.Semester),
		zap.Error(err),
	)
	return result
}

func (s *ClassGroupAllocator) capacity(requested int) int {
	if requested > 0 {
		return requested
	}
	return s.cfg.DefaultCapacity
}

func (s *ClassGroupAllocator) translate(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, message)
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, repository.ErrReferenceMissing):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "class group not found")
	case repository.IsUniqueViolation(err):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message)
	case repository.IsStoreUnavailable(err):
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, message)
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}

// NextClassGroupName derives the name of the group that follows the newest of groups.
// "Class 1" starts a cohort; "Class 7" is followed by "Class 8" and a name without a
// trailing number gets " 2" appended.
func NextClassGroupName(groups []models.ClassGroup) string {
	if len(groups) == 0 {
		return firstClassGroupName
	}
	name := groups[len(groups)-1].Name
	if m := trailingNumber.FindStringSubmatch(name); m != nil {
		n, err := strconv.Atoi(m[2])
		if err == nil {
			base := strings.TrimSpace(m[1])
			if base == "" {
				base = "Class"
			}
			return base + " " + strconv.Itoa(n+1)
		}
	}
	return strings.TrimSpace(name) + " 2"
}
