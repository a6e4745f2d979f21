package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/asystent-elektryka/audytor/internal/analysis"
	"github.com/asystent-elektryka/audytor/internal/intake"
)

var (
	// ErrBusy is returned while an analysis is in flight.
	ErrBusy = errors.New("analiza jest w toku; poczekaj na wynik")

	// ErrNoImage is returned when submitting without a selected image.
	ErrNoImage = errors.New("najpierw wybierz zdjęcie rozdzielnicy")

	// ErrInvalidTransition covers any other action the current state does not allow.
	ErrInvalidTransition = errors.New("niedozwolona operacja w bieżącym stanie")
)

func unknownState(s State) string {
	return fmt.Sprintf("session: unknown state %T", s)
}

// Session is the state machine of one browser session. All transitions are
// user-triggered and serialized by the session's mutex.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	state    State
	lastSeen time.Time
}

func New(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		state:     Empty{},
		lastSeen:  now,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) touch() {
	s.lastSeen = time.Now()
}

// Touch marks the session as used without changing its state.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
}

// LastSeen is the time of the last access through the store or a transition.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SelectImage loads a new image, releasing the one it replaces.
func (s *Session) SelectImage(img *intake.ImageHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	switch st := s.state.(type) {
	case InFlight:
		return ErrBusy
	case Empty, Loaded, Ready, Failed:
		if prev := ImageOf(st); prev != nil && prev != img {
			prev.Release()
		}
		s.state = Loaded{Image: img}
		return nil
	default:
		panic(unknownState(st))
	}
}

// Begin moves a loaded (or failed) session into flight and hands back the
// image to analyze. Only one analysis may be in flight per session.
func (s *Session) Begin() (*intake.ImageHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	switch st := s.state.(type) {
	case Empty:
		return nil, ErrNoImage
	case Loaded:
		s.state = InFlight{Image: st.Image}
		return st.Image, nil
	case Failed:
		s.state = InFlight{Image: st.Image}
		return st.Image, nil
	case InFlight:
		return nil, ErrBusy
	case Ready:
		return nil, ErrInvalidTransition
	default:
		panic(unknownState(st))
	}
}

// Complete stores the result of the in-flight analysis.
func (s *Session) Complete(result *analysis.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	switch st := s.state.(type) {
	case InFlight:
		s.state = Ready{Image: st.Image, Result: result}
		return nil
	case Empty, Loaded, Ready, Failed:
		return ErrInvalidTransition
	default:
		panic(unknownState(st))
	}
}

// Fail records the failure of the in-flight analysis. The image stays.
func (s *Session) Fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	switch st := s.state.(type) {
	case InFlight:
		s.state = Failed{Image: st.Image, Err: err, Message: err.Error()}
		return nil
	case Empty, Loaded, Ready, Failed:
		return ErrInvalidTransition
	default:
		panic(unknownState(st))
	}
}

// Reset discards the image and any result. A request already issued cannot
// be cancelled, so resetting in flight is refused.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	switch st := s.state.(type) {
	case InFlight:
		return ErrBusy
	case Empty, Loaded, Ready, Failed:
		if img := ImageOf(st); img != nil {
			img.Release()
		}
		s.state = Empty{}
		return nil
	default:
		panic(unknownState(st))
	}
}

// Close tears the session down regardless of its state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if img := ImageOf(s.state); img != nil {
		img.Release()
	}
	s.state = Empty{}
}

// OwnsPreview reports whether the preview id belongs to this session's image.
func (s *Session) OwnsPreview(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	img := ImageOf(s.state)
	return img != nil && img.PreviewID() == id
}
