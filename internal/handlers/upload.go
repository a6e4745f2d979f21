package handlers

import (
	"errors"
	"net/http"

	"github.com/asystent-elektryka/audytor/internal/intake"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// HandleUpload selects the posted file as the session's image.
func (h *Handler) HandleUpload(c *gin.Context) {
	sess := h.session(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(c, "plik jest zbyt duży", http.StatusRequestEntityTooLarge)
			return
		}
		h.writeError(c, "nie wybrano pliku", http.StatusBadRequest)
		return
	}
	defer file.Close()

	img, err := intake.Select(h.previews, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.writeError(c, err.Error(), http.StatusBadRequest)
		return
	}

	if err := sess.SelectImage(img); err != nil {
		img.Release()
		h.writeError(c, err.Error(), http.StatusConflict)
		return
	}

	log.Info().Str("session", sess.ID).Str("name", img.Name).Str("mediaType", img.MediaType).Int("bytes", img.Size()).Msg("image uploaded")
	h.backToIndex(c)
}
