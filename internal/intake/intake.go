package intake

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// ErrEncoding is returned when an image cannot be read or turned into a
// transmittable payload. The user can recover by selecting the file again.
var ErrEncoding = errors.New("błąd konwersji pliku")

var errReleased = errors.New("image handle already released")

// ImageHandle is a user-selected image held in memory together with its
// preview resource. The session that owns it must call Release when the
// image is replaced or discarded.
type ImageHandle struct {
	Name      string
	MediaType string

	previewID string
	previews  *Previews

	mu       sync.Mutex
	data     []byte
	released bool
}

// Select reads the picked file and registers its preview. No validation of
// the media type or size happens here; the inference service is the judge.
func Select(previews *Previews, name, mediaType string, r io.Reader) (*ImageHandle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	mediaType = DetectMediaType(mediaType, data)
	h := &ImageHandle{
		Name:      name,
		MediaType: mediaType,
		previewID: previews.Register(data, mediaType),
		previews:  previews,
		data:      data,
	}

	log.Debug().Str("name", name).Str("mediaType", mediaType).Int("bytes", len(data)).Str("preview", h.previewID).Msg("image selected")
	return h, nil
}

// DetectMediaType keeps the declared type unless it is missing or generic,
// in which case the bytes are sniffed.
func DetectMediaType(declared string, data []byte) string {
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
			return mt
		}
	}
	mt, _, err := mime.ParseMediaType(mimetype.Detect(data).String())
	if err != nil {
		return "application/octet-stream"
	}
	return mt
}

func (h *ImageHandle) PreviewID() string {
	return h.previewID
}

func (h *ImageHandle) PreviewURL() string {
	return "/preview/" + h.previewID
}

func (h *ImageHandle) Size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.data)
}

// Release frees the preview resource. Only the first call has an effect.
func (h *ImageHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	h.released = true
	h.data = nil
	h.previews.Release(h.previewID)
	log.Debug().Str("preview", h.previewID).Msg("image released")
}

func (h *ImageHandle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

func (h *ImageHandle) open() (io.Reader, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil, errReleased
	}
	return bytes.NewReader(h.data), nil
}

// Encode produces the base64 payload and media type sent to the inference
// service. The payload is the body of a data URL with its scheme prefix
// stripped.
func Encode(h *ImageHandle) (payload string, mediaType string, err error) {
	r, err := h.open()
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	var buf strings.Builder
	enc := base64.NewEncoder(base64.StdEncoding, &buf)
	if _, err := io.Copy(enc, r); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	if err := enc.Close(); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	payload = StripDataURL(MakeDataURL(h.MediaType, buf.String()))
	if payload == "" {
		return "", "", fmt.Errorf("%w: empty payload", ErrEncoding)
	}
	return payload, h.MediaType, nil
}

func MakeDataURL(mediaType, b64 string) string {
	return "data:" + mediaType + ";base64," + b64
}

// StripDataURL returns the part of a data URL after the first comma.
func StripDataURL(dataURL string) string {
	_, payload, found := strings.Cut(dataURL, ",")
	if !found {
		return ""
	}
	return payload
}
