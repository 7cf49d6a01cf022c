package models

import (
	"fmt"
	"strings"
	"time"
)

// DefaultClassGroupCapacity is used when neither the group nor the caller provides a capacity.
const DefaultClassGroupCapacity = 40

// ClassGroup represents one section of a major/year/semester/shift cohort.
type ClassGroup struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	MajorID      string    `db:"major_id" json:"major_id"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Semester     int       `db:"semester" json:"semester"`
	Shift        *string   `db:"shift" json:"shift,omitempty"`
	Capacity     int       `db:"capacity" json:"capacity"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ShiftValue returns the group's shift or an empty string when unset.
func (g ClassGroup) ShiftValue() string {
	if g.Shift == nil {
		return ""
	}
	return *g.Shift
}

// EffectiveCapacity returns the stored capacity, or fallback when the stored value is not positive.
func (g ClassGroup) EffectiveCapacity(fallback int) int {
	if g.Capacity > 0 {
		return g.Capacity
	}
	return fallback
}

// ClassGroupKey identifies a cohort of class groups.
type ClassGroupKey struct {
	MajorID      string
	AcademicYear string
	Semester     int
	Shift        string
}

// NormalizeSemester maps anything other than 1 or 2 to 1.
func NormalizeSemester(semester int) int {
	if semester == 1 || semester == 2 {
		return semester
	}
	return 1
}

// Normalize returns the key with a valid semester and a trimmed shift.
func (k ClassGroupKey) Normalize() ClassGroupKey {
	k.MajorID = strings.TrimSpace(k.MajorID)
	k.AcademicYear = strings.TrimSpace(k.AcademicYear)
	k.Semester = NormalizeSemester(k.Semester)
	k.Shift = strings.TrimSpace(k.Shift)
	return k
}

// Matches reports whether g belongs to the key. An empty shift only matches unset shifts.
func (k ClassGroupKey) Matches(g ClassGroup) bool {
	return g.MajorID == k.MajorID &&
		g.AcademicYear == k.AcademicYear &&
		g.Semester == k.Semester &&
		g.ShiftValue() == k.Shift
}

// LockKey is the string hashed into the allocation advisory lock.
func (k ClassGroupKey) LockKey() string {
	return fmt.Sprintf("class_group:%s:%s:%d:%s", k.MajorID, k.AcademicYear, k.Semester, k.Shift)
}

// ShiftPtr returns nil for an empty shift so it is stored as NULL.
func (k ClassGroupKey) ShiftPtr() *string {
	if k.Shift == "" {
		return nil
	}
	shift := k.Shift
	return &shift
}

// StudentClassGroup links a student to a class group for one academic period.
type StudentClassGroup struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	ClassGroupID string    `db:"class_group_id" json:"class_group_id"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Semester     int       `db:"semester" json:"semester"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AssignmentStatus reports how an assignment request was applied.
type AssignmentStatus string

// Possible assignment outcomes.
const (
	AssignmentCreated     AssignmentStatus = "CREATED"
	AssignmentUpdated     AssignmentStatus = "UPDATED"
	AssignmentUnavailable AssignmentStatus = "UNAVAILABLE"
)

// AssignmentResult is returned by student assignment.
type AssignmentResult struct {
	Status       AssignmentStatus `json:"status"`
	StudentID    string           `json:"student_id"`
	ClassGroupID string           `json:"class_group_id"`
	AcademicYear string           `json:"academic_year"`
	Semester     int              `json:"semester"`
}

// Assigned reports whether the assignment was persisted.
func (r AssignmentResult) Assigned() bool {
	return r.Status == AssignmentCreated || r.Status == AssignmentUpdated
}
