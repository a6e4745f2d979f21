package models

import (
	"time"

	"github.com/asystent-elektryka/audytor/internal/analysis"
	"github.com/asystent-elektryka/audytor/internal/session"
)

// SessionSnapshot is the JSON view of a browser session
type SessionSnapshot struct {
	ID        string           `json:"id"`
	Status    session.Status   `json:"status"`
	Image     *ImageItem       `json:"image,omitempty"`
	Error     string           `json:"error,omitempty"`
	Retryable bool             `json:"retryable,omitempty"`
	Result    *analysis.Result `json:"result,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	LastSeen  time.Time        `json:"last_seen"`
}

// ImageItem describes the selected switchboard photo
type ImageItem struct {
	Name       string `json:"name"`
	MediaType  string `json:"media_type"`
	Size       int    `json:"size"`
	PreviewURL string `json:"preview_url"`
}

func Snapshot(sess *session.Session) SessionSnapshot {
	state := sess.State()
	snap := SessionSnapshot{
		ID:        sess.ID,
		Status:    state.Status(),
		CreatedAt: sess.CreatedAt,
		LastSeen:  sess.LastSeen(),
	}

	if img := session.ImageOf(state); img != nil {
		snap.Image = &ImageItem{
			Name:       img.Name,
			MediaType:  img.MediaType,
			Size:       img.Size(),
			PreviewURL: img.PreviewURL(),
		}
	}

	switch st := state.(type) {
	case session.Ready:
		snap.Result = st.Result
	case session.Failed:
		snap.Error = st.Message
		snap.Retryable = st.Retryable()
	}
	return snap
}
