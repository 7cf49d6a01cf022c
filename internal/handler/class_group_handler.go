package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-academic-core/internal/dto"
	"github.com/noah-isme/sma-academic-core/internal/models"
	"github.com/noah-isme/sma-academic-core/internal/service"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
	"github.com/noah-isme/sma-academic-core/pkg/response"
)

type classGroupAllocator interface {
	Resolve(ctx context.Context, req dto.ResolveClassGroupRequest) (*models.ClassGroup, error)
	Assign(ctx context.Context, req dto.AssignStudentRequest) (*models.AssignmentResult, error)
	Allocate(ctx context.Context, req dto.AllocateStudentRequest) (*dto.AllocationResult, error)
}

// ClassGroupHandler exposes class-group allocation endpoints.
type ClassGroupHandler struct {
	service classGroupAllocator
}

// NewClassGroupHandler constructs the handler.
func NewClassGroupHandler(svc *service.ClassGroupAllocator) *ClassGroupHandler {
	return &ClassGroupHandler{service: svc}
}

// Allocate godoc
// @Summary Place a student into the first class group with a free seat
// @Description Resolves or creates the class group for the cohort and assigns the student in one transaction.
// @Tags ClassGroups
// @Accept json
// @Produce json
// @Param payload body dto.AllocateStudentRequest true "Allocation payload"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /class-groups/allocate [post]
func (h *ClassGroupHandler) Allocate(c *gin.Context) {
	var req dto.AllocateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid allocation payload"))
		return
	}
	result, err := h.service.Allocate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !result.Assignment.Assigned() {
		response.Accepted(c, result)
		return
	}
	if result.GroupCreated {
		response.Created(c, result)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Resolve godoc
// @Summary Resolve the class group with free capacity for a cohort
// @Tags ClassGroups
// @Accept json
// @Produce json
// @Param payload body dto.ResolveClassGroupRequest true "Cohort payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /class-groups/resolve [post]
func (h *ClassGroupHandler) Resolve(c *gin.Context) {
	var req dto.ResolveClassGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class group payload"))
		return
	}
	group, err := h.service.Resolve(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group)
}

// AssignStudent godoc
// @Summary Assign a student to a class group for an academic period
// @Description Idempotent: repeated calls keep one assignment per student and period. Status UNAVAILABLE means the assignment was not stored.
// @Tags ClassGroups
// @Accept json
// @Produce json
// @Param id path string true "Class group ID"
// @Param studentId path string true "Student ID"
// @Param payload body dto.AssignStudentRequest true "Period payload"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /class-groups/{id}/students/{studentId} [put]
func (h *ClassGroupHandler) AssignStudent(c *gin.Context) {
	var req dto.AssignStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	req.ClassGroupID = c.Param("id")
	req.StudentID = c.Param("studentId")

	result, err := h.service.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !result.Assigned() {
		response.Accepted(c, result)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
