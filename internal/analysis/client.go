package analysis

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/asystent-elektryka/audytor/internal/intake"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Options configures a Client. BaseURL and HTTPClient are optional and only
// needed to route requests through a proxy or a test server.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Client asks Gemini for a switchboard audit. Every call is independent:
// one SDK client, one request, no retry.
type Client struct {
	opts Options
}

func NewClient(opts Options) *Client {
	opts.APIKey = strings.TrimSpace(opts.APIKey)
	opts.Model = strings.TrimSpace(opts.Model)
	return &Client{opts: opts}
}

func (c *Client) Model() string {
	return c.opts.Model
}

// Analyze sends the base64 image payload with the fixed instruction and the
// declared response schema, and returns the validated result.
func (c *Client) Analyze(ctx context.Context, payload, mediaType string) (*Result, error) {
	if c.opts.APIKey == "" {
		return nil, ErrMissingCredential
	}

	image, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", intake.ErrEncoding, err)
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty payload", intake.ErrEncoding)
	}

	cfg := &genai.ClientConfig{
		APIKey:     c.opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.opts.HTTPClient,
	}
	if c.opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, &ServiceError{Err: fmt.Errorf("failed to create gemini client: %w", err)}
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mediaType),
			genai.NewPartFromText(Instruction),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    ResponseSchema(),
	}

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, c.opts.Model, contents, config)
	if err != nil {
		log.Error().Err(err).Str("model", c.opts.Model).Dur("elapsed", time.Since(start)).Msg("gemini request failed")
		return nil, classify(err)
	}

	logResponse(resp, c.opts.Model, len(image), time.Since(start))

	if resp == nil {
		return nil, ErrEmptyResponse
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}

	return ParseResult(text)
}

func logResponse(resp *genai.GenerateContentResponse, model string, imageBytes int, elapsed time.Duration) {
	ev := log.Info().
		Str("model", model).
		Int("imageBytes", imageBytes).
		Dur("elapsed", elapsed)

	if resp != nil && resp.UsageMetadata != nil {
		ev = ev.
			Int64("inputTokens", int64(resp.UsageMetadata.PromptTokenCount)).
			Int64("outputTokens", int64(resp.UsageMetadata.CandidatesTokenCount)).
			Int64("totalTokens", int64(resp.UsageMetadata.TotalTokenCount))
	}
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		ev = ev.Strs("searchQueries", resp.Candidates[0].GroundingMetadata.WebSearchQueries)
	}

	ev.Msg("switchboard analysis call")
}
