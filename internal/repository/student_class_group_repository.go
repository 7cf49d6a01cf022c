package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-academic-core/internal/models"
)

// StudentClassGroupRepository persists student assignments to class groups.
type StudentClassGroupRepository struct {
	db sqlx.ExtContext
}

// NewStudentClassGroupRepository constructs the repository.
func NewStudentClassGroupRepository(db sqlx.ExtContext) *StudentClassGroupRepository {
	return &StudentClassGroupRepository{db: db}
}

// CountByGroup counts current-period assignments of a group.
func (r *StudentClassGroupRepository) CountByGroup(ctx context.Context, classGroupID, academicYear string, semester int) (int, error) {
	const query = `SELECT COUNT(*) FROM student_class_groups WHERE class_group_id = $1 AND academic_year = $2 AND semester = $3`
	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, query, classGroupID, academicYear, semester); err != nil {
		return 0, wrapErr("count class group assignments", err)
	}
	return total, nil
}

// FindByStudent returns the student's assignment for the period.
func (r *StudentClassGroupRepository) FindByStudent(ctx context.Context, studentID, academicYear string, semester int) (*models.StudentClassGroup, error) {
	const query = `SELECT id, student_id, class_group_id, academic_year, semester, created_at, updated_at
FROM student_class_groups WHERE student_id = $1 AND academic_year = $2 AND semester = $3`
	var assignment models.StudentClassGroup
	if err := sqlx.GetContext(ctx, r.db, &assignment, query, studentID, academicYear, semester); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, wrapErr("find student class group", err)
	}
	return &assignment, nil
}

// UpdateGroup points an existing period assignment at classGroupID.
func (r *StudentClassGroupRepository) UpdateGroup(ctx context.Context, studentID, academicYear string, semester int, classGroupID string) (bool, error) {
	const query = `UPDATE student_class_groups SET class_group_id = $1, updated_at = $2
WHERE student_id = $3 AND academic_year = $4 AND semester = $5`
	result, err := r.db.ExecContext(ctx, query, classGroupID, time.Now().UTC(), studentID, academicYear, semester)
	if err != nil {
		return false, wrapErr("update student class group", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("student class group rows affected: %w", err)
	}
	return affected > 0, nil
}

// Create inserts a new assignment.
func (r *StudentClassGroupRepository) Create(ctx context.Context, assignment *models.StudentClassGroup) error {
	if assignment == nil {
		return fmt.Errorf("assignment payload is nil")
	}
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now

	const query = `INSERT INTO student_class_groups (id, student_id, class_group_id, academic_year, semester, created_at, updated_at)
VALUES (:id, :student_id, :class_group_id, :academic_year, :semester, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, assignment); err != nil {
		return wrapErr("insert student class group", err)
	}
	return nil
}
