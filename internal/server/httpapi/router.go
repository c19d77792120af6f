// Package httpapi exposes the services over HTTP with JSON bodies. It owns
// request binding and validation, bearer authentication, and the mapping of
// service errors to the error envelope.
package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/neuroresume/internal/common"
	"github.com/dmitrijs2005/neuroresume/internal/logging"
	"github.com/dmitrijs2005/neuroresume/internal/server/services"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Users      *services.UserService
	Sessions   *services.SessionService
	Messages   *services.MessageService
	Completion *services.CompletionService
	Artifacts  *services.ArtifactService
}

type RouterConfig struct {
	Prefix      string
	CORSOrigins []string
}

type handler struct {
	svc    Services
	logger logging.Logger
}

// NewRouter builds the gin engine with every route mounted under
// cfg.Prefix. /health is served both at the root and under the prefix.
func NewRouter(svc Services, cfg RouterConfig, logger logging.Logger) *gin.Engine {
	useJSONFieldNames()
	logger = logger.With("module", "http")

	r := gin.New()
	r.Use(
		requestIDMiddleware(logger),
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			writeError(c, logger, fmt.Errorf("panic: %v", recovered))
		}),
		accessLogMiddleware(logger),
		corsMiddleware(cfg.CORSOrigins),
	)

	h := &handler{svc: svc, logger: logger}

	r.NoRoute(func(c *gin.Context) { writeError(c, logger, common.ErrorNotFound) })
	r.GET("/health", h.health)

	api := r.Group("/" + strings.Trim(cfg.Prefix, "/"))
	if api.BasePath() != "/" {
		api.GET("/health", h.health)
	}

	public := api.Group("/auth")
	public.POST("/register", h.register)
	public.POST("/login", h.login)

	secured := api.Group("")
	secured.Use(authMiddleware(svc.Users, logger))
	{
		secured.POST("/auth/refresh", h.refresh)
		secured.POST("/auth/logout", h.logout)

		secured.GET("/user/profile", h.getProfile)
		secured.PATCH("/user/profile", h.updateProfile)
		secured.POST("/user/change-password", h.changePassword)

		sessions := secured.Group("/interview/sessions")
		sessions.GET("", h.listSessions)
		sessions.POST("", h.createSession)
		sessions.GET("/:id", h.getSession)
		sessions.DELETE("/:id", h.deleteSession)
		sessions.GET("/:id/messages", h.listMessages)
		sessions.POST("/:id/messages", h.appendMessage)
		sessions.POST("/:id/complete", h.complete)
		sessions.GET("/:id/resume", h.downloadResume)
		sessions.POST("/:id/resume/regenerate", h.regenerateResume)
		sessions.GET("/:id/resume/url", h.resumeURL)

		resumes := secured.Group("/resumes")
		resumes.GET("", h.listResumes)
		resumes.GET("/:id", h.getResume)
		resumes.PATCH("/:id", h.updateResume)
		resumes.DELETE("/:id", h.deleteResume)
		resumes.GET("/:id/download", h.downloadResumeByID)
	}

	return r
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
