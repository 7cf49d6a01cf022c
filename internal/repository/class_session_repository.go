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

const classSessionColumns = `id, course_id, session_date, start_time, end_time, session_type, room, created_at, updated_at`

// ClassSessionRepository persists dated class sessions.
type ClassSessionRepository struct {
	db sqlx.ExtContext
}

// NewClassSessionRepository constructs the repository.
func NewClassSessionRepository(db sqlx.ExtContext) *ClassSessionRepository {
	return &ClassSessionRepository{db: db}
}

// FindByKey loads the session identified by (course, date, start time).
func (r *ClassSessionRepository) FindByKey(ctx context.Context, key models.ClassSessionKey) (*models.ClassSession, error) {
	const query = `SELECT ` + classSessionColumns + ` FROM class_sessions
WHERE course_id = $1 AND session_date = $2 AND start_time = $3`
	var session models.ClassSession
	if err := sqlx.GetContext(ctx, r.db, &session, query, key.CourseID, models.DateOnly(key.SessionDate), key.StartTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, wrapErr("find class session", err)
	}
	return &session, nil
}

// Create inserts a session.
func (r *ClassSessionRepository) Create(ctx context.Context, session *models.ClassSession) error {
	if session == nil {
		return fmt.Errorf("class session payload is nil")
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	session.SessionDate = models.DateOnly(session.SessionDate)

	const query = `INSERT INTO class_sessions (` + classSessionColumns + `)
VALUES (:id, :course_id, :session_date, :start_time, :end_time, :session_type, :room, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, session); err != nil {
		return wrapErr("insert class session", err)
	}
	return nil
}

// UpdateDetails rewrites the mutable columns of a session.
func (r *ClassSessionRepository) UpdateDetails(ctx context.Context, session *models.ClassSession) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("class session id is required")
	}
	session.UpdatedAt = time.Now().UTC()

	const query = `UPDATE class_sessions SET end_time = $1, session_type = $2, room = $3, updated_at = $4 WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, session.EndTime, session.SessionType, session.Room, session.UpdatedAt, session.ID)
	if err != nil {
		return wrapErr("update class session", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("class session rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// PurgeBefore removes sessions older than cutoff with no recorded attendance.
func (r *ClassSessionRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM class_sessions s
WHERE s.session_date < $1
AND NOT EXISTS (SELECT 1 FROM class_session_attendances a WHERE a.class_session_id = s.id)`
	result, err := r.db.ExecContext(ctx, query, models.DateOnly(cutoff))
	if err != nil {
		return 0, wrapErr("purge class sessions", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purged class sessions rows affected: %w", err)
	}
	return affected, nil
}
