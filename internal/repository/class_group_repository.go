package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-academic-core/internal/models"
)

const classGroupColumns = `id, name, major_id, academic_year, semester, shift, capacity, created_at, updated_at`

// ClassGroupRepository persists class groups.
type ClassGroupRepository struct {
	db sqlx.ExtContext
}

// NewClassGroupRepository constructs the repository over a database handle or transaction.
func NewClassGroupRepository(db sqlx.ExtContext) *ClassGroupRepository {
	return &ClassGroupRepository{db: db}
}

// ListByKey returns the groups of a cohort ordered by creation. An empty shift matches NULL or blank shifts only.
func (r *ClassGroupRepository) ListByKey(ctx context.Context, key models.ClassGroupKey) ([]models.ClassGroup, error) {
	const query = `SELECT ` + classGroupColumns + ` FROM class_groups
WHERE major_id = $1 AND academic_year = $2 AND semester = $3 AND COALESCE(shift, '') = $4
ORDER BY created_at ASC, id ASC`
	var groups []models.ClassGroup
	if err := sqlx.SelectContext(ctx, r.db, &groups, query, key.MajorID, key.AcademicYear, key.Semester, key.Shift); err != nil {
		return nil, wrapErr("list class groups", err)
	}
	return groups, nil
}

// FindByID loads a class group.
func (r *ClassGroupRepository) FindByID(ctx context.Context, id string) (*models.ClassGroup, error) {
	const query = `SELECT ` + classGroupColumns + ` FROM class_groups WHERE id = $1`
	var group models.ClassGroup
	if err := sqlx.GetContext(ctx, r.db, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// Create inserts a class group.
func (r *ClassGroupRepository) Create(ctx context.Context, group *models.ClassGroup) error {
	if group == nil {
		return fmt.Errorf("class group payload is nil")
	}
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now

	const query = `INSERT INTO class_groups (` + classGroupColumns + `)
VALUES (:id, :name, :major_id, :academic_year, :semester, :shift, :capacity, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, group); err != nil {
		return wrapErr("insert class group", err)
	}
	return nil
}
