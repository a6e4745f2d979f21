package handlers

import (
	"errors"
	"net/http"

	"github.com/asystent-elektryka/audytor/internal/models"
	"github.com/asystent-elektryka/audytor/internal/presenter"
	"github.com/asystent-elektryka/audytor/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// HandleIndex renders the current state of the session. The view query
// parameter picks the result tab.
func (h *Handler) HandleIndex(c *gin.Context) {
	sess := h.session(c)
	view := presenter.ParseView(c.Query("view"))
	c.HTML(http.StatusOK, presenter.PageTemplate, h.presenter.Page(sess.State(), view))
}

// HandleAnalyze starts the analysis of the loaded image and sends the
// browser back to the index, which shows the in-flight state.
func (h *Handler) HandleAnalyze(c *gin.Context) {
	sess := h.session(c)

	if _, err := h.auditService.Start(c.Request.Context(), sess); err != nil {
		if errors.Is(err, session.ErrNoImage) {
			h.writeError(c, err.Error(), http.StatusBadRequest)
			return
		}
		log.Warn().Err(err).Str("session", sess.ID).Str("status", string(sess.State().Status())).Msg("analysis not started")
	}
	h.backToIndex(c)
}

// HandleReset discards the image and any result.
func (h *Handler) HandleReset(c *gin.Context) {
	sess := h.session(c)
	if err := sess.Reset(); err != nil {
		h.writeError(c, err.Error(), http.StatusConflict)
		return
	}
	h.backToIndex(c)
}

// HandleSession returns a JSON snapshot of the session.
func (h *Handler) HandleSession(c *gin.Context) {
	c.JSON(http.StatusOK, models.Snapshot(h.session(c)))
}
