package handler

import (
	"github.com/gin-gonic/gin"
)

// Routes groups the API handlers mounted under the versioned prefix.
type Routes struct {
	ClassGroups   *ClassGroupHandler
	ClassSessions *ClassSessionHandler
}

// Register mounts every endpoint on api.
func (r Routes) Register(api gin.IRouter) {
	if r.ClassGroups != nil {
		groups := api.Group("/class-groups")
		groups.POST("/allocate", r.ClassGroups.Allocate)
		groups.POST("/resolve", r.ClassGroups.Resolve)
		groups.PUT("/:id/students/:studentId", r.ClassGroups.AssignStudent)
	}
	if r.ClassSessions != nil {
		sessions := api.Group("/class-sessions")
		sessions.POST("/generate", r.ClassSessions.Generate)
		sessions.POST("/purge", r.ClassSessions.Purge)
	}
}
