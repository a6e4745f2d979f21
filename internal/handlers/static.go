package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandlePreview serves the selected image back to the session that owns it.
// Released or foreign previews are not found.
func (h *Handler) HandlePreview(c *gin.Context) {
	id := c.Param("id")

	sess, ok := h.existingSession(c)
	if !ok || !sess.OwnsPreview(id) {
		c.Status(http.StatusNotFound)
		return
	}

	preview, ok := h.previews.Get(id)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	c.Header("Cache-Control", "private, no-store")
	c.Data(http.StatusOK, preview.MediaType, preview.Data)
}
