package api

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lorealchat/internal/chat"
	"lorealchat/internal/session"
)

//go:embed static/index.html
var widgetPage []byte

// Handler wires HTTP routes to the session store and turn controller.
type Handler struct {
	sessions       session.Store
	controller     *chat.Controller
	assistantLabel string
	turnTimeout    time.Duration
	logger         *zap.Logger
}

var errStreamingUnsupported = errors.New("streaming not supported")

// NewHandler constructs a Handler instance. A positive turnTimeout bounds
// each completion call.
func NewHandler(store session.Store, controller *chat.Controller, assistantLabel string, turnTimeout time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		sessions:       store,
		controller:     controller,
		assistantLabel: assistantLabel,
		turnTimeout:    turnTimeout,
		logger:         logger,
	}
}

// NewRouter builds a gin engine with recovery, request logging and all routes.
func (h *Handler) NewRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))
	h.RegisterRoutes(router)
	return router
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.widget)
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := router.Group("/api")
	api.POST("/sessions", h.startSession)
	api.GET("/sessions/:id/messages", h.getMessages)
	api.POST("/sessions/:id/messages", h.submitTurn)
	api.DELETE("/sessions/:id", h.deleteSession)
}

func (h *Handler) widget(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", widgetPage)
}

func (h *Handler) startSession(c *gin.Context) {
	sess, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		h.logger.Error("create session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create session failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session_id": sess.ID,
		"messages":   h.renderTranscript(sess.Messages()),
	})
}

func (h *Handler) getMessages(c *gin.Context) {
	sess, ok := h.loadSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": sess.ID,
		"messages":   h.renderTranscript(sess.Messages()),
	})
}

func (h *Handler) deleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		h.logger.Error("delete session failed", zap.String("session", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete session failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

type inputRequest struct {
	Content string `json:"content"`
}

func (h *Handler) submitTurn(c *gin.Context) {
	var req inputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.Status(http.StatusNoContent)
		return
	}
	id := c.Param("id")

	// The turn runs to the end even if the client goes away.
	turnCtx := context.WithoutCancel(c.Request.Context())
	var (
		view *sseView
		res  chat.TurnResult
	)
	err := session.RunTurn(turnCtx, h.sessions, id, func(sess *chat.Session) error {
		if sess.Busy() {
			return chat.ErrTurnInProgress
		}
		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			return errStreamingUnsupported
		}
		// SSE Request construction
		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
		view = &sseView{h: h, w: c.Writer, flusher: flusher}

		completeCtx, cancel := h.completionContext(turnCtx)
		defer cancel()
		var err error
		res, err = h.controller.Submit(completeCtx, sess, req.Content, view)
		return err
	})
	if err != nil {
		if view != nil {
			h.logger.Error("turn failed", zap.String("session", id), zap.Error(err))
			msg := "save session failed"
			if errors.Is(err, chat.ErrTurnInProgress) {
				msg = err.Error()
			}
			_ = view.send("error", gin.H{"message": msg})
			return
		}
		switch {
		case errors.Is(err, session.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, chat.ErrTurnInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.logger.Error("start turn failed", zap.String("session", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	h.logger.Info("turn finished", zap.String("session", id), zap.String("outcome", string(res.Outcome)))

	payload := gin.H{"outcome": res.Outcome}
	if res.Err != nil {
		payload["error"] = res.Err.Error()
	}
	_ = view.send("done", payload)
}

// completionContext bounds the completion call by the configured turn
// timeout. The redis turn lock is sized to outlive it.
func (h *Handler) completionContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.turnTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.turnTimeout)
}

func (h *Handler) loadSession(c *gin.Context) (*chat.Session, bool) {
	id := c.Param("id")
	sess, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return nil, false
		}
		h.logger.Error("load session failed", zap.String("session", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load session failed"})
		return nil, false
	}
	return sess, true
}
