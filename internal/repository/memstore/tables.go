package memstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-academic-core/internal/models"
	"github.com/noah-isme/sma-academic-core/internal/repository"
)

type classGroupStore struct{ tx *tx }

func (s *classGroupStore) ListByKey(_ context.Context, key models.ClassGroupKey) ([]models.ClassGroup, error) {
	if err := s.tx.check(OpListClassGroups); err != nil {
		return nil, err
	}
	var out []models.ClassGroup
	for _, g := range s.tx.data.groups {
		if key.Matches(g) {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *classGroupStore) FindByID(_ context.Context, id string) (*models.ClassGroup, error) {
	if err := s.tx.check(OpFindClassGroup); err != nil {
		return nil, err
	}
	for _, g := range s.tx.data.groups {
		if g.ID == id {
			found := g
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *classGroupStore) Create(_ context.Context, group *models.ClassGroup) error {
	if err := s.tx.check(OpCreateClassGroup); err != nil {
		return err
	}
	for _, g := range s.tx.data.groups {
		if g.Name == group.Name && g.MajorID == group.MajorID && g.AcademicYear == group.AcademicYear &&
			g.Semester == group.Semester && g.ShiftValue() == group.ShiftValue() {
			return fmt.Errorf("insert class group: %w", repository.ErrUniqueViolation)
		}
	}
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now
	s.tx.data.groups = append(s.tx.data.groups, *group)
	return nil
}

type assignmentStore struct{ tx *tx }

func (s *assignmentStore) CountByGroup(_ context.Context, classGroupID, academicYear string, semester int) (int, error) {
	if err := s.tx.check(OpCountAssignments); err != nil {
		return 0, err
	}
	total := 0
	for _, a := range s.tx.data.assignments {
		if a.ClassGroupID == classGroupID && a.AcademicYear == academicYear && a.Semester == semester {
			total++
		}
	}
	return total, nil
}

func (s *assignmentStore) FindByStudent(_ context.Context, studentID, academicYear string, semester int) (*models.StudentClassGroup, error) {
	if err := s.tx.check(OpFindAssignment); err != nil {
		return nil, err
	}
	for _, a := range s.tx.data.assignments {
		if a.StudentID == studentID && a.AcademicYear == academicYear && a.Semester == semester {
			found := a
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *assignmentStore) UpdateGroup(_ context.Context, studentID, academicYear string, semester int, classGroupID string) (bool, error) {
	if err := s.tx.check(OpUpdateAssignment); err != nil {
		return false, err
	}
	updated := false
	for i := range s.tx.data.assignments {
		a := &s.tx.data.assignments[i]
		if a.StudentID == studentID && a.AcademicYear == academicYear && a.Semester == semester {
			a.ClassGroupID = classGroupID
			a.UpdatedAt = time.Now().UTC()
			updated = true
		}
	}
	return updated, nil
}

func (s *assignmentStore) Create(_ context.Context, assignment *models.StudentClassGroup) error {
	if err := s.tx.check(OpCreateAssignment); err != nil {
		return err
	}
	for _, a := range s.tx.data.assignments {
		if a.StudentID == assignment.StudentID && a.AcademicYear == assignment.AcademicYear && a.Semester == assignment.Semester {
			return fmt.Errorf("insert student class group: %w", repository.ErrUniqueViolation)
		}
	}
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now
	s.tx.data.assignments = append(s.tx.data.assignments, *assignment)
	return nil
}

type scheduleStore struct{ tx *tx }

func (s *scheduleStore) List(_ context.Context, filter models.ClassScheduleFilter) ([]models.ClassSchedule, error) {
	if err := s.tx.check(OpListSchedules); err != nil {
		return nil, err
	}
	courses := make(map[string]struct{}, len(filter.CourseIDs))
	for _, id := range filter.CourseIDs {
		courses[id] = struct{}{}
	}
	var out []models.ClassSchedule
	for _, sc := range s.tx.data.schedules {
		if len(courses) > 0 {
			if _, ok := courses[sc.CourseID]; !ok {
				continue
			}
		}
		out = append(out, sc)
	}
	return out, nil
}

type sessionStore struct{ tx *tx }

func (s *sessionStore) FindByKey(_ context.Context, key models.ClassSessionKey) (*models.ClassSession, error) {
	if err := s.tx.check(OpFindSession); err != nil {
		return nil, err
	}
	want := models.DateOnly(key.SessionDate)
	for _, cs := range s.tx.data.sessions {
		if cs.CourseID == key.CourseID && cs.StartTime == key.StartTime && cs.SessionDate.Equal(want) {
			found := cs
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *sessionStore) Create(_ context.Context, session *models.ClassSession) error {
	if err := s.tx.check(OpCreateSession); err != nil {
		return err
	}
	session.SessionDate = models.DateOnly(session.SessionDate)
	for _, cs := range s.tx.data.sessions {
		if sameKey(cs.Key(), session.Key()) {
			return fmt.Errorf("insert class session: %w", repository.ErrUniqueViolation)
		}
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	s.tx.data.sessions = append(s.tx.data.sessions, *session)
	return nil
}

func (s *sessionStore) UpdateDetails(_ context.Context, session *models.ClassSession) error {
	if err := s.tx.check(OpUpdateSession); err != nil {
		return err
	}
	for i := range s.tx.data.sessions {
		cs := &s.tx.data.sessions[i]
		if cs.ID == session.ID {
			cs.EndTime = session.EndTime
			cs.SessionType = session.SessionType
			cs.Room = session.Room
			cs.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *sessionStore) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	if err := s.tx.check(OpPurgeSessions); err != nil {
		return 0, err
	}
	cutoff = models.DateOnly(cutoff)
	kept := s.tx.data.sessions[:0:0]
	var deleted int64
	for _, cs := range s.tx.data.sessions {
		if cs.SessionDate.Before(cutoff) && s.tx.data.attendance[cs.ID] == 0 {
			deleted++
			continue
		}
		kept = append(kept, cs)
	}
	s.tx.data.sessions = kept
	return deleted, nil
}

func sameKey(a, b models.ClassSessionKey) bool {
	return a.CourseID == b.CourseID && a.StartTime == b.StartTime && a.SessionDate.Equal(b.SessionDate)
}
