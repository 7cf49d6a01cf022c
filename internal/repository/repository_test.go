package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-academic-core/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var classGroupCols = []string{"id", "name", "major_id", "academic_year", "semester", "shift", "capacity", "created_at", "updated_at"}

func TestClassGroupRepositoryListByKey(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassGroupRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(classGroupCols).
		AddRow("g1", "Class 1", "m1", "2024/2025", 1, nil, 2, now, now).
		AddRow("g2", "Class 2", "m1", "2024/2025", 1, "", 2, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_groups\nWHERE major_id = $1 AND academic_year = $2 AND semester = $3 AND COALESCE(shift, '') = $4\nORDER BY created_at ASC, id ASC")).
		WithArgs("m1", "2024/2025", 1, "").
		WillReturnRows(rows)

	groups, err := repo.ListByKey(context.Background(), models.ClassGroupKey{MajorID: "m1", AcademicYear: "2024/2025", Semester: 1})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Nil(t, groups[0].Shift)
	assert.Equal(t, "Class 2", groups[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassGroupRepositoryCreateClassifiesUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassGroupRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_groups")).
		WithArgs(sqlmock.AnyArg(), "Class 2", "m1", "2024/2025", 1, nil, 40, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "ux_class_groups_key_name"})

	group := &models.ClassGroup{Name: "Class 2", MajorID: "m1", AcademicYear: "2024/2025", Semester: 1, Capacity: 40}
	err := repo.Create(context.Background(), group)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.NotEmpty(t, group.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentClassGroupRepositoryCountAndUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentClassGroupRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM student_class_groups WHERE class_group_id = $1 AND academic_year = $2 AND semester = $3")).
		WithArgs("g1", "2024/2025", 2).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE student_class_groups SET class_group_id = $1, updated_at = $2")).
		WithArgs("g1", sqlmock.AnyArg(), "s1", "2024/2025", 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	total, err := repo.CountByGroup(context.Background(), "g1", "2024/2025", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	updated, err := repo.UpdateGroup(context.Background(), "s1", "2024/2025", 2, "g1")
	require.NoError(t, err)
	assert.False(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentClassGroupRepositoryFindByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentClassGroupRepository(db)
	now := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)

	cols := []string{"id", "student_id", "class_group_id", "academic_year", "semester", "created_at", "updated_at"}
	query := regexp.QuoteMeta("FROM student_class_groups WHERE student_id = $1 AND academic_year = $2 AND semester = $3")
	mock.ExpectQuery(query).
		WithArgs("s1", "2024/2025", 1).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("a1", "s1", "g1", "2024/2025", 1, now, now))
	mock.ExpectQuery(query).
		WithArgs("s2", "2024/2025", 1).
		WillReturnRows(sqlmock.NewRows(cols))

	found, err := repo.FindByStudent(context.Background(), "s1", "2024/2025", 1)
	require.NoError(t, err)
	assert.Equal(t, "g1", found.ClassGroupID)

	_, err = repo.FindByStudent(context.Background(), "s2", "2024/2025", 1)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentClassGroupRepositoryMissingTable(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentClassGroupRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE student_class_groups")).
		WillReturnError(&pq.Error{Code: "42P01", Message: `relation "student_class_groups" does not exist`})

	_, err := repo.UpdateGroup(context.Background(), "s1", "2024/2025", 1, "g1")
	assert.True(t, IsStoreUnavailable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassScheduleRepositoryListFiltersCourses(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassScheduleRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "course_id", "day_of_week", "start_time", "end_time", "session_type", "room", "created_at", "updated_at"}).
		AddRow("sc1", "c1", "Monday", "08:00", "09:40", "LECTURE", "R101", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_schedules WHERE course_id = ANY($1) ORDER BY course_id ASC, created_at ASC, id ASC")).
		WithArgs(pq.Array([]string{"c1"})).
		WillReturnRows(rows)

	schedules, err := repo.List(context.Background(), models.ClassScheduleFilter{CourseIDs: []string{"c1"}})
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, "Monday", schedules[0].DayOfWeek)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryFindByKeyNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	date := time.Date(2024, 9, 2, 15, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE course_id = $1 AND session_date = $2 AND start_time = $3")).
		WithArgs("c1", time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC), "08:00").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByKey(context.Background(), models.ClassSessionKey{CourseID: "c1", SessionDate: date, StartTime: "08:00"})
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryUpdateDetails(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_sessions SET end_time = $1, session_type = $2, room = $3, updated_at = $4 WHERE id = $5")).
		WithArgs("10:00", "LAB", "L2", sqlmock.AnyArg(), "cs1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_sessions")).
		WithArgs("10:00", "LAB", "L2", sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateDetails(context.Background(), &models.ClassSession{ID: "cs1", EndTime: "10:00", SessionType: "LAB", Room: "L2"}))
	err := repo.UpdateDetails(context.Background(), &models.ClassSession{ID: "missing", EndTime: "10:00", SessionType: "LAB", Room: "L2"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryPurgeBefore(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	cutoff := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM class_sessions s\nWHERE s.session_date < $1\nAND NOT EXISTS (SELECT 1 FROM class_session_attendances a WHERE a.class_session_id = s.id)")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 12))

	deleted, err := repo.PurgeBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 12, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLUnitOfWorkCommitsWithAdvisoryLock(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	uow := NewSQLUnitOfWork(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("class_group:m1:2024/2025:1:").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM student_class_groups")).
		WithArgs("g1", "2024/2025", 1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	err := uow.Do(context.Background(), TxOptions{LockKey: "class_group:m1:2024/2025:1:"}, func(ctx context.Context, s Stores) error {
		total, err := s.Assignments.CountByGroup(ctx, "g1", "2024/2025", 1)
		assert.Equal(t, 1, total)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLUnitOfWorkRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	uow := NewSQLUnitOfWork(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_sessions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := uow.Do(context.Background(), TxOptions{}, func(ctx context.Context, s Stores) error {
		require.NoError(t, s.Sessions.Create(ctx, &models.ClassSession{CourseID: "c1", SessionDate: time.Now(), StartTime: "08:00", EndTime: "09:00", SessionType: "LECTURE"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobLockRepositoryWithoutClient(t *testing.T) {
	repo := NewJobLockRepository(nil, nil)
	token, ok, err := repo.Acquire(context.Background(), "sessions.generate", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, token)
	assert.NoError(t, repo.Release(context.Background(), "sessions.generate", token))
	assert.NoError(t, repo.Close())
}
