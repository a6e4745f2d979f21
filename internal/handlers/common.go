package handlers

import (
	"net/http"

	"github.com/asystent-elektryka/audytor/internal/audit"
	"github.com/asystent-elektryka/audytor/internal/config"
	"github.com/asystent-elektryka/audytor/internal/intake"
	"github.com/asystent-elektryka/audytor/internal/presenter"
	"github.com/asystent-elektryka/audytor/internal/session"
	"github.com/asystent-elektryka/audytor/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// SessionCookie carries the id of the browser session.
const SessionCookie = "audytor_session"

type Handler struct {
	cfg          *config.Config
	sessionStore *storage.SessionStore
	previews     *intake.Previews
	auditService *audit.Service
	presenter    *presenter.Presenter
}

func New(cfg *config.Config, analyzer audit.Analyzer) (*Handler, error) {
	p, err := presenter.New()
	if err != nil {
		return nil, err
	}
	return &Handler{
		cfg:          cfg,
		sessionStore: storage.New(),
		previews:     intake.NewPreviews(),
		auditService: audit.NewService(analyzer),
		presenter:    p,
	}, nil
}

// Router wires every route onto a fresh gin engine.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())
	r.MaxMultipartMemory = h.cfg.MaxUploadBytes
	r.SetHTMLTemplate(h.presenter.Template())

	r.GET("/", h.HandleIndex)
	r.POST("/upload", h.HandleUpload)
	r.POST("/analyze", h.HandleAnalyze)
	r.POST("/reset", h.HandleReset)
	r.GET("/preview/:id", h.HandlePreview)
	r.GET("/api/session", h.HandleSession)
	r.StaticFS("/static", http.FS(presenter.Assets()))
	r.GET("/healthcheck", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}

// Sweep evicts sessions idle for longer than the configured timeout.
func (h *Handler) Sweep() int {
	return h.sessionStore.Sweep(h.cfg.SessionIdleTimeout)
}

// Wait blocks until every analysis started through the handler has settled.
func (h *Handler) Wait() {
	h.auditService.Wait()
}

// Session helpers
func (h *Handler) session(c *gin.Context) *session.Session {
	id, _ := c.Cookie(SessionCookie)
	sess, created := h.sessionStore.GetOrCreate(id)
	if created {
		log.Debug().Str("session", sess.ID).Msg("session created")
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sess.ID, int(h.cfg.SessionIdleTimeout.Seconds()), "/", "", false, true)
	return sess
}

func (h *Handler) existingSession(c *gin.Context) (*session.Session, bool) {
	id, err := c.Cookie(SessionCookie)
	if err != nil || id == "" {
		return nil, false
	}
	return h.sessionStore.Get(id)
}

// Response helpers
func (h *Handler) writeError(c *gin.Context, message string, code int) {
	log.Warn().Str("path", c.Request.URL.Path).Int("status", code).Msg(message)
	c.String(code, message)
}

func (h *Handler) backToIndex(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}
