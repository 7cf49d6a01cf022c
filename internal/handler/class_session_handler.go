package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-academic-core/internal/dto"
	"github.com/noah-isme/sma-academic-core/internal/service"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
	"github.com/noah-isme/sma-academic-core/pkg/response"
)

type sessionGenerator interface {
	Generate(ctx context.Context, req dto.GenerateSessionsRequest) (*dto.GenerateSessionsResult, error)
}

type sessionPurger interface {
	PurgeRequest(ctx context.Context, req dto.PurgeSessionsRequest) (*dto.PurgeSessionsResult, error)
}

// ClassSessionHandler exposes session generation and retention endpoints.
type ClassSessionHandler struct {
	generator sessionGenerator
	retention sessionPurger
}

// NewClassSessionHandler constructs the handler.
func NewClassSessionHandler(generator *service.SessionGeneratorService, retention *service.SessionRetentionService) *ClassSessionHandler {
	return &ClassSessionHandler{generator: generator, retention: retention}
}

// Generate godoc
// @Summary Generate dated class sessions from weekly schedules
// @Description Both dates are inclusive. Overwritten sessions are counted as generated.
// @Tags ClassSessions
// @Accept json
// @Produce json
// @Param payload body dto.GenerateSessionsRequest false "Generation payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /class-sessions/generate [post]
func (h *ClassSessionHandler) Generate(c *gin.Context) {
	var req dto.GenerateSessionsRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	result, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, map[string]interface{}{"overwrite": req.Overwrite})
}

// Purge godoc
// @Summary Delete old class sessions without attendance
// @Tags ClassSessions
// @Accept json
// @Produce json
// @Param payload body dto.PurgeSessionsRequest false "Retention payload"
// @Success 200 {object} response.Envelope
// @Router /class-sessions/purge [post]
func (h *ClassSessionHandler) Purge(c *gin.Context) {
	var req dto.PurgeSessionsRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid purge payload"))
		return
	}
	result, err := h.retention.PurgeRequest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// bindOptionalJSON accepts an empty body as the zero request.
func bindOptionalJSON(c *gin.Context, dst interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
