package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-academic-core/internal/models"
)

// ClassScheduleRepository reads weekly class schedules.
type ClassScheduleRepository struct {
	db sqlx.ExtContext
}

// NewClassScheduleRepository constructs the repository.
func NewClassScheduleRepository(db sqlx.ExtContext) *ClassScheduleRepository {
	return &ClassScheduleRepository{db: db}
}

// List returns schedules, optionally limited to the given courses.
func (r *ClassScheduleRepository) List(ctx context.Context, filter models.ClassScheduleFilter) ([]models.ClassSchedule, error) {
	query := `SELECT id, course_id, day_of_week, start_time, end_time, session_type, room, created_at, updated_at
FROM class_schedules`
	var args []interface{}
	if len(filter.CourseIDs) > 0 {
		query += ` WHERE course_id = ANY($1)`
		args = append(args, pq.Array(filter.CourseIDs))
	}
	query += ` ORDER BY course_id ASC, created_at ASC, id ASC`

	var schedules []models.ClassSchedule
	if err := sqlx.SelectContext(ctx, r.db, &schedules, query, args...); err != nil {
		return nil, wrapErr("list class schedules", err)
	}
	return schedules, nil
}
