package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-academic-core/internal/dto"
	"github.com/noah-isme/sma-academic-core/internal/models"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
)

type allocatorMock struct {
	assignReq   dto.AssignStudentRequest
	allocateReq dto.AllocateStudentRequest
	assignRes   *models.AssignmentResult
	allocateRes *dto.AllocationResult
	err         error
}

func (m *allocatorMock) Resolve(ctx context.Context, req dto.ResolveClassGroupRequest) (*models.ClassGroup, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.ClassGroup{ID: "g1", Name: "Class 1", MajorID: req.MajorID}, nil
}

func (m *allocatorMock) Assign(ctx context.Context, req dto.AssignStudentRequest) (*models.AssignmentResult, error) {
	m.assignReq = req
	return m.assignRes, m.err
}

func (m *allocatorMock) Allocate(ctx context.Context, req dto.AllocateStudentRequest) (*dto.AllocationResult, error) {
	m.allocateReq = req
	return m.allocateRes, m.err
}

func newJSONContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

func TestClassGroupAllocateCreatedGroup(t *testing.T) {
	mock := &allocatorMock{allocateRes: &dto.AllocationResult{
		ClassGroup:   &models.ClassGroup{ID: "g2", Name: "Class 2"},
		GroupCreated: true,
		Assignment:   models.AssignmentResult{Status: models.AssignmentCreated},
	}}
	h := &ClassGroupHandler{service: mock}
	c, w := newJSONContext(http.MethodPost, "/class-groups/allocate", []byte(`{"studentId":"s1","majorId":"m1","academicYear":"2024/2025","semester":2}`))

	h.Allocate(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "s1", mock.allocateReq.StudentID)
	assert.Equal(t, 2, mock.allocateReq.Semester)
}

func TestClassGroupAllocateMalformedBody(t *testing.T) {
	h := &ClassGroupHandler{service: &allocatorMock{}}
	c, w := newJSONContext(http.MethodPost, "/class-groups/allocate", []byte(`{"studentId":`))

	h.Allocate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClassGroupAssignUsesPathParams(t *testing.T) {
	mock := &allocatorMock{assignRes: &models.AssignmentResult{Status: models.AssignmentUpdated}}
	h := &ClassGroupHandler{service: mock}
	c, w := newJSONContext(http.MethodPut, "/class-groups/g1/students/s1", []byte(`{"academicYear":"2024/2025","semester":1}`))
	c.Params = gin.Params{{Key: "id", Value: "g1"}, {Key: "studentId", Value: "s1"}}

	h.AssignStudent(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "g1", mock.assignReq.ClassGroupID)
	assert.Equal(t, "s1", mock.assignReq.StudentID)
}

func TestClassGroupAssignUnavailableIsAccepted(t *testing.T) {
	mock := &allocatorMock{assignRes: &models.AssignmentResult{Status: models.AssignmentUnavailable}}
	h := &ClassGroupHandler{service: mock}
	c, w := newJSONContext(http.MethodPut, "/class-groups/g1/students/s1", []byte(`{"academicYear":"2024/2025"}`))
	c.Params = gin.Params{{Key: "id", Value: "g1"}, {Key: "studentId", Value: "s1"}}

	h.AssignStudent(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	var body struct {
		Data models.AssignmentResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.AssignmentUnavailable, body.Data.Status)
}

func TestClassGroupResolveError(t *testing.T) {
	h := &ClassGroupHandler{service: &allocatorMock{err: appErrors.Clone(appErrors.ErrConflict, "allocation conflict")}}
	c, w := newJSONContext(http.MethodPost, "/class-groups/resolve", []byte(`{"majorId":"m1","academicYear":"2024/2025"}`))

	h.Resolve(c)

	require.Equal(t, http.StatusConflict, w.Code)
}
