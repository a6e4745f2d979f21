package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/asystent-elektryka/audytor/internal/analysis"
	"github.com/asystent-elektryka/audytor/internal/intake"
	"github.com/asystent-elektryka/audytor/internal/session"
	"github.com/rs/zerolog/log"
)

// Analyzer turns an encoded image into an audit result.
type Analyzer interface {
	Analyze(ctx context.Context, payload, mediaType string) (*analysis.Result, error)
}

// Service runs the submit step of a session: encode the loaded image, send
// it for analysis and record the outcome.
type Service struct {
	analyzer Analyzer
	wg       sync.WaitGroup
}

func NewService(analyzer Analyzer) *Service {
	return &Service{analyzer: analyzer}
}

// AnalyzeImage encodes img and analyzes it. It does not touch any session.
func (s *Service) AnalyzeImage(ctx context.Context, img *intake.ImageHandle) (*analysis.Result, error) {
	payload, mediaType, err := intake.Encode(img)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Analyze(ctx, payload, mediaType)
}

// Start moves sess into flight and runs the analysis in the background. The
// returned channel yields the outcome once it is recorded in the session.
// Once the request is issued it is not cancelled by ctx.
func (s *Service) Start(ctx context.Context, sess *session.Session) (<-chan error, error) {
	img, err := sess.Begin()
	if err != nil {
		return nil, err
	}

	done := make(chan error, 1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		done <- s.run(context.WithoutCancel(ctx), sess, img)
	}()
	return done, nil
}

// Submit is Start followed by waiting for the outcome. The returned error is
// the analysis failure (already recorded in the session) or a transition
// error when the session cannot submit right now.
func (s *Service) Submit(ctx context.Context, sess *session.Session) error {
	done, err := s.Start(ctx, sess)
	if err != nil {
		return err
	}
	return <-done
}

// Wait blocks until every started analysis has settled.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) run(ctx context.Context, sess *session.Session, img *intake.ImageHandle) error {
	start := time.Now()
	logger := log.With().Str("session", sess.ID).Str("image", img.Name).Str("mediaType", img.MediaType).Logger()
	logger.Info().Int("bytes", img.Size()).Msg("analysis started")

	result, err := s.AnalyzeImage(ctx, img)
	if err != nil {
		logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("analysis failed")
		if ferr := sess.Fail(err); ferr != nil {
			logger.Warn().Err(ferr).Msg("session changed while analysis was in flight")
		}
		return err
	}

	if cerr := sess.Complete(result); cerr != nil {
		logger.Warn().Err(cerr).Msg("session changed while analysis was in flight")
		return cerr
	}
	logger.Info().Dur("elapsed", time.Since(start)).Int("components", len(result.Components)).Msg("analysis completed")
	return nil
}

// IsTransitionError reports whether err came from the session state machine
// rather than from the analysis itself.
func IsTransitionError(err error) bool {
	return errors.Is(err, session.ErrBusy) || errors.Is(err, session.ErrNoImage) || errors.Is(err, session.ErrInvalidTransition)
}
