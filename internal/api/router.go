// Package api is the HTTP surface of the grievance service: citizen intake,
// authority review and the assistant endpoints.
package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"grievance-intake-go/internal/assistant"
	"grievance-intake-go/internal/classifier"
	"grievance-intake-go/internal/logger"
	"grievance-intake-go/internal/metrics"
	"grievance-intake-go/internal/pipeline"
	"grievance-intake-go/internal/storage"
	"grievance-intake-go/internal/types"
)

const requestLogKey = "request_log"

type Submitter interface {
	Submit(ctx context.Context, sub types.Submission) (*pipeline.Result, error)
}

type Transitioner interface {
	Transition(ctx context.Context, id string, newStatus string, actorID string, remarks string) (*types.ComplaintRecord, error)
}

// Reader is the query side of the complaint store.
type Reader interface {
	Get(ctx context.Context, id string) (*types.ComplaintRecord, error)
	ListBySubmitter(ctx context.Context, submitterID string) ([]*types.ComplaintRecord, error)
	List(ctx context.Context, f storage.Filter) ([]*types.ComplaintRecord, error)
	Count(ctx context.Context) (int64, error)
	CountBy(ctx context.Context, field storage.Field) (map[string]int64, error)
}

type Suggester interface {
	Suggest(ctx context.Context, text string) classifier.Result
}

type Helper interface {
	Assist(ctx context.Context, query string, cc assistant.Context) string
	Improve(ctx context.Context, text string, lang types.Language) string
}

// Localizer renders English text in the citizen's language.
type Localizer interface {
	FromEnglish(ctx context.Context, text string, target types.Language) string
}

type Deps struct {
	Pipeline       Submitter
	Workflow       Transitioner
	Store          Reader
	Classifier     Suggester
	Assistant      Helper
	Localizer      Localizer
	Attachments    AttachmentStore
	Auth           *Authenticator
	MaxUploadBytes int64
	Log            *logger.Logger
}

type Handler struct {
	Deps
	log *logger.Logger
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(d Deps) *gin.Engine {
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 5 << 20
	}
	h := &Handler{Deps: d, log: d.Log.WithComponent("api")}

	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger(), metrics.Middleware())
	r.MaxMultipartMemory = d.MaxUploadBytes

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if la, ok := d.Attachments.(*LocalAttachments); ok {
		r.Static("/uploads", la.Dir())
	}

	api := r.Group("/api")
	api.GET("/health", h.health)

	authed := api.Group("", d.Auth.Middleware())
	{
		citizen := authed.Group("/complaints")
		citizen.POST("", RequireRole(RoleCitizen), h.submitComplaint)
		citizen.GET("/mine", RequireRole(RoleCitizen), h.myComplaints)
		citizen.POST("/suggest-category", h.suggestCategory)
		citizen.GET("/:id", h.getComplaint)

		authority := authed.Group("/authority", RequireRole(RoleAuthority))
		authority.GET("/complaints", h.listComplaints)
		authority.PUT("/complaints/:id/status", h.updateStatus)
		authority.GET("/stats", h.stats)
		authority.GET("/export", h.export)

		assist := authed.Group("/assistant")
		assist.POST("/chat", h.chat)
		assist.POST("/improve", h.improve)
	}
	return r
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := logger.RequestID(c.Request)
		c.Request.Header.Set(logger.RequestIDHeader, reqID)
		c.Header(logger.RequestIDHeader, reqID)
		entry := h.log.WithRequest(c.Request)
		c.Set(requestLogKey, entry)

		start := time.Now()
		c.Next()

		entry = entry.WithFields(logrus.Fields{
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if c.Writer.Status() >= 500 {
			entry.Warn("request finished")
		} else {
			entry.Info("request finished")
		}
	}
}

func (h *Handler) requestLog(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(requestLogKey); ok {
		if e, ok := v.(*logrus.Entry); ok {
			return e
		}
	}
	return h.log.WithRequest(c.Request)
}
