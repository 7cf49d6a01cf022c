package dto

import "github.com/noah-isme/sma-academic-core/internal/models"

// ResolveClassGroupRequest asks for a class group with free capacity in a cohort.
type ResolveClassGroupRequest struct {
	MajorID         string `json:"majorId" validate:"required"`
	AcademicYear    string `json:"academicYear" validate:"required"`
	Semester        int    `json:"semester"`
	Shift           string `json:"shift"`
	DefaultCapacity int    `json:"defaultCapacity" validate:"omitempty,min=1"`
}

// AssignStudentRequest places a student into a class group for a period.
type AssignStudentRequest struct {
	StudentID    string `json:"-" validate:"required"`
	ClassGroupID string `json:"-" validate:"required"`
	AcademicYear string `json:"academicYear" validate:"required"`
	Semester     int    `json:"semester"`
}

// AllocateStudentRequest resolves a class group and assigns the student in one step.
type AllocateStudentRequest struct {
	StudentID       string `json:"studentId" validate:"required"`
	MajorID         string `json:"majorId" validate:"required"`
	AcademicYear    string `json:"academicYear" validate:"required"`
	Semester        int    `json:"semester"`
	Shift           string `json:"shift"`
	DefaultCapacity int    `json:"defaultCapacity" validate:"omitempty,min=1"`
}

// AllocationResult reports the outcome of an allocation.
type AllocationResult struct {
	ClassGroup   *models.ClassGroup      `json:"classGroup"`
	GroupCreated bool                    `json:"groupCreated"`
	Assignment   models.AssignmentResult `json:"assignment"`
	Attempts     int                     `json:"attempts"`
}
