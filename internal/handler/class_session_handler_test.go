package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-academic-core/internal/models"
	"github.com/noah-isme/sma-academic-core/internal/repository/memstore"
	"github.com/noah-isme/sma-academic-core/internal/service"
)

func newIntegrationRouter(store *memstore.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	allocator := service.NewClassGroupAllocator(store, nil, nil, nil, service.ClassGroupAllocatorConfig{DefaultCapacity: 1})
	generator := service.NewSessionGeneratorService(store, nil, nil, nil, service.SessionGeneratorConfig{})
	retention := service.NewSessionRetentionService(store, nil, nil, nil, 2)

	router := gin.New()
	Routes{
		ClassGroups:   NewClassGroupHandler(allocator),
		ClassSessions: NewClassSessionHandler(generator, retention),
	}.Register(router.Group("/api/v1"))
	return router
}

func TestSessionGenerateEndpoint(t *testing.T) {
	store := memstore.New()
	store.AddSchedule(models.ClassSchedule{ID: "sc1", CourseID: "math", DayOfWeek: "Monday", StartTime: "08:00", EndTime: "09:40", SessionType: "LECTURE", Room: "R1"})
	router := newIntegrationRouter(store)

	body := `{"startDate":"2024-09-02","endDate":"2024-09-23"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/class-sessions/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data struct {
			Generated int `json:"generated"`
			Skipped   int `json:"skipped"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 4, envelope.Data.Generated)
	assert.Len(t, store.Sessions(), 4)
}

func TestSessionGenerateNoSchedules(t *testing.T) {
	router := newIntegrationRouter(memstore.New())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/class-sessions/generate", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "NO_SCHEDULES")
}

func TestSessionPurgeEndpoint(t *testing.T) {
	router := newIntegrationRouter(memstore.New())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/class-sessions/purge", strings.NewReader(`{"keepYears":3}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"keepYears":3`)
}

func TestAllocateEndpointCreatesGroups(t *testing.T) {
	store := memstore.New()
	router := newIntegrationRouter(store)

	codes := []int{}
	for _, student := range []string{"s1", "s2"} {
		body := `{"studentId":"` + student + `","majorId":"m1","academicYear":"2024/2025","semester":1}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/class-groups/allocate", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated}, codes)
	groups := store.ClassGroups()
	require.Len(t, groups, 2)
	assert.Equal(t, "Class 2", groups[1].Name)
}

func TestReadyReportsFailingCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler(map[string]ReadinessCheck{
		"postgres": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return errors.New("connection refused") },
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	h.Ready(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
	assert.Contains(t, w.Body.String(), `"postgres":"ok"`)
}
