package intake

import (
	"sync"

	"github.com/google/uuid"
)

// Preview is a displayable copy of an uploaded image.
type Preview struct {
	Data      []byte
	MediaType string
}

// Previews keeps preview resources alive until their owning handle releases
// them. It is shared by every session of the process.
type Previews struct {
	items map[string]Preview
	mu    sync.RWMutex
}

func NewPreviews() *Previews {
	return &Previews{
		items: make(map[string]Preview),
	}
}

func (p *Previews) Register(data []byte, mediaType string) string {
	id := uuid.NewString()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[id] = Preview{Data: data, MediaType: mediaType}
	return id
}

func (p *Previews) Get(id string) (Preview, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	preview, exists := p.items[id]
	return preview, exists
}

// Release drops the preview and reports whether it was still registered.
func (p *Previews) Release(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, exists := p.items[id]
	delete(p.items, id)
	return exists
}

// Len returns the number of previews currently retained.
func (p *Previews) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.items)
}
