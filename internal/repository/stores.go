package repository

import (
	"context"
	"time"

	"github.com/noah-isme/sma-academic-core/internal/models"
)

// ClassGroupStore reads and writes class groups.
type ClassGroupStore interface {
	// ListByKey returns the groups of a cohort, oldest first.
	ListByKey(ctx context.Context, key models.ClassGroupKey) ([]models.ClassGroup, error)
	FindByID(ctx context.Context, id string) (*models.ClassGroup, error)
	Create(ctx context.Context, group *models.ClassGroup) error
}

// AssignmentStore reads and writes student class-group assignments.
type AssignmentStore interface {
	CountByGroup(ctx context.Context, classGroupID, academicYear string, semester int) (int, error)
	// FindByStudent returns sql.ErrNoRows when the student has no assignment for the period.
	FindByStudent(ctx context.Context, studentID, academicYear string, semester int) (*models.StudentClassGroup, error)
	// UpdateGroup repoints the student's assignment for the period and reports whether a row changed.
	UpdateGroup(ctx context.Context, studentID, academicYear string, semester int, classGroupID string) (bool, error)
	Create(ctx context.Context, assignment *models.StudentClassGroup) error
}

// ScheduleStore reads weekly class schedules.
type ScheduleStore interface {
	List(ctx context.Context, filter models.ClassScheduleFilter) ([]models.ClassSchedule, error)
}

// SessionStore reads and writes dated class sessions.
type SessionStore interface {
	// FindByKey returns sql.ErrNoRows when no session matches.
	FindByKey(ctx context.Context, key models.ClassSessionKey) (*models.ClassSession, error)
	Create(ctx context.Context, session *models.ClassSession) error
	// UpdateDetails rewrites end time, type and room of an existing session.
	UpdateDetails(ctx context.Context, session *models.ClassSession) error
	// PurgeBefore deletes sessions dated before cutoff that have no attendance rows.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Stores bundles the stores bound to one unit of work.
type Stores struct {
	ClassGroups ClassGroupStore
	Assignments AssignmentStore
	Schedules   ScheduleStore
	Sessions    SessionStore
}

// TxOptions tunes a unit of work.
type TxOptions struct {
	// LockKey serializes units of work sharing the same key for the lifetime of the transaction.
	LockKey  string
	ReadOnly bool
}

// UnitOfWork runs fn atomically: every write made through s is committed when fn returns nil
// and discarded otherwise.
type UnitOfWork interface {
	Do(ctx context.Context, opts TxOptions, fn func(ctx context.Context, s Stores) error) error
}
