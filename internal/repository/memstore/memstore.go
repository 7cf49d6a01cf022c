// Package memstore is an in-memory unit of work over the academic stores.
// Each unit of work runs against a private copy of the tables that replaces the shared
// state only when the work succeeds, so a failed run leaves nothing behind.
package memstore

import (
	"context"
	"sync"

	"github.com/noah-isme/sma-academic-core/internal/models"
	"github.com/noah-isme/sma-academic-core/internal/repository"
)

// Operation names passed to the fault hook.
const (
	OpListClassGroups  = "class_groups.list"
	OpFindClassGroup   = "class_groups.find"
	OpCreateClassGroup = "class_groups.create"
	OpCountAssignments = "assignments.count"
	OpFindAssignment   = "assignments.find"
	OpUpdateAssignment = "assignments.update"
	OpCreateAssignment = "assignments.create"
	OpListSchedules    = "schedules.list"
	OpFindSession      = "sessions.find"
	OpCreateSession    = "sessions.create"
	OpUpdateSession    = "sessions.update"
	OpPurgeSessions    = "sessions.purge"
)

// FaultFunc is consulted before every store operation; a non-nil error aborts the operation.
type FaultFunc func(op string) error

type tables struct {
	groups      []models.ClassGroup
	assignments []models.StudentClassGroup
	schedules   []models.ClassSchedule
	sessions    []models.ClassSession
	attendance  map[string]int
}

func (t *tables) clone() *tables {
	c := &tables{
		groups:      append([]models.ClassGroup(nil), t.groups...),
		assignments: append([]models.StudentClassGroup(nil), t.assignments...),
		schedules:   append([]models.ClassSchedule(nil), t.schedules...),
		sessions:    append([]models.ClassSession(nil), t.sessions...),
		attendance:  make(map[string]int, len(t.attendance)),
	}
	for k, v := range t.attendance {
		c.attendance[k] = v
	}
	return c
}

// Store holds the tables and serializes units of work.
type Store struct {
	mu    sync.Mutex
	data  *tables
	fault FaultFunc
	runs  int
}

// New returns an empty store.
func New() *Store {
	return &Store{data: &tables{attendance: make(map[string]int)}}
}

var _ repository.UnitOfWork = (*Store)(nil)

// Do runs fn against a copy of the tables and keeps the copy when fn succeeds.
// Units of work never overlap, so the lock key needs no separate handling.
func (s *Store) Do(ctx context.Context, _ repository.TxOptions, fn func(ctx context.Context, st repository.Stores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++

	if err := ctx.Err(); err != nil {
		return err
	}

	work := &tx{data: s.data.clone(), fault: s.fault}
	stores := repository.Stores{
		ClassGroups: &classGroupStore{tx: work},
		Assignments: &assignmentStore{tx: work},
		Schedules:   &scheduleStore{tx: work},
		Sessions:    &sessionStore{tx: work},
	}
	if err := fn(ctx, stores); err != nil {
		return err
	}
	s.data = work.data
	return nil
}

// SetFault installs a hook consulted before each store operation. Pass nil to clear it.
func (s *Store) SetFault(f FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

// Runs reports how many units of work have started.
func (s *Store) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// AddClassGroup seeds a class group.
func (s *Store) AddClassGroup(g models.ClassGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.groups = append(s.data.groups, g)
}

// AddAssignment seeds an assignment.
func (s *Store) AddAssignment(a models.StudentClassGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.assignments = append(s.data.assignments, a)
}

// AddSchedule seeds a weekly schedule.
func (s *Store) AddSchedule(sc models.ClassSchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.schedules = append(s.data.schedules, sc)
}

// AddSession seeds a session.
func (s *Store) AddSession(cs models.ClassSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs.SessionDate = models.DateOnly(cs.SessionDate)
	s.data.sessions = append(s.data.sessions, cs)
}

// AddAttendance records one attendance row for a session.
func (s *Store) AddAttendance(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.attendance[sessionID]++
}

// ClassGroups returns a snapshot of the class groups.
func (s *Store) ClassGroups() []models.ClassGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ClassGroup(nil), s.data.groups...)
}

// Assignments returns a snapshot of the assignments.
func (s *Store) Assignments() []models.StudentClassGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.StudentClassGroup(nil), s.data.assignments...)
}

// Sessions returns a snapshot of the sessions.
func (s *Store) Sessions() []models.ClassSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ClassSession(nil), s.data.sessions...)
}

type tx struct {
	data  *tables
	fault FaultFunc
}

func (t *tx) check(op string) error {
	if t.fault == nil {
		return nil
	}
	return t.fault(op)
}
