package session

import (
	"github.com/asystent-elektryka/audytor/internal/analysis"
	"github.com/asystent-elektryka/audytor/internal/intake"
)

// State is one of Empty, Loaded, InFlight, Ready or Failed. Every state past
// Empty carries the image, so an analysis without an image cannot be
// represented.
type State interface {
	Status() Status
	isState()
}

type Status string

const (
	StatusEmpty    Status = "empty"
	StatusLoaded   Status = "loaded"
	StatusInFlight Status = "in_flight"
	StatusReady    Status = "ready"
	StatusFailed   Status = "failed"
)

type Empty struct{}

type Loaded struct {
	Image *intake.ImageHandle
}

type InFlight struct {
	Image *intake.ImageHandle
}

type Ready struct {
	Image  *intake.ImageHandle
	Result *analysis.Result
}

// Failed keeps the image so the user can resubmit without selecting it again.
type Failed struct {
	Image   *intake.ImageHandle
	Err     error
	Message string
}

func (Empty) Status() Status    { return StatusEmpty }
func (Loaded) Status() Status   { return StatusLoaded }
func (InFlight) Status() Status { return StatusInFlight }
func (Ready) Status() Status    { return StatusReady }
func (Failed) Status() Status   { return StatusFailed }

func (Empty) isState()    {}
func (Loaded) isState()   {}
func (InFlight) isState() {}
func (Ready) isState()    {}
func (Failed) isState()   {}

// Retryable reports whether the failure allows resubmitting as is.
func (f Failed) Retryable() bool {
	return analysis.Retryable(f.Err)
}

// ImageOf returns the image held by s, or nil for Empty.
func ImageOf(s State) *intake.ImageHandle {
	switch st := s.(type) {
	case Empty:
		return nil
	case Loaded:
		return st.Image
	case InFlight:
		return st.Image
	case Ready:
		return st.Image
	case Failed:
		return st.Image
	default:
		panic(unknownState(s))
	}
}
