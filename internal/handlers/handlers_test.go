package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/asystent-elektryka/audytor/internal/analysis"
	"github.com/asystent-elektryka/audytor/internal/audit"
	"github.com/asystent-elektryka/audytor/internal/config"
	"github.com/asystent-elektryka/audytor/internal/models"
	"github.com/asystent-elektryka/audytor/internal/presenter"
	"github.com/asystent-elektryka/audytor/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jpeg = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01, 0xFF, 0xD9}

type fakeAnalyzer struct {
	mu     sync.Mutex
	calls  int
	gate   chan struct{}
	result *analysis.Result
	err    error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, payload, mediaType string) (*analysis.Result, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.result, f.err
}

func (f *fakeAnalyzer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func scenarioResult() *analysis.Result {
	return &analysis.Result{
		Title:               "Audyt rozdzielnicy",
		Description:         "Rozdzielnica mieszkaniowa.",
		Details:             []string{"Brak opisów obwodów"},
		TechnicalAssessment: "Stan dobry.",
		BuildQuality:        "Staranny montaż.",
		Components:          []analysis.Component{{Name: "S301", Type: "wylacznik", Description: "sprawny"}},
		PriceEstimates:      []analysis.PriceEstimate{{Item: "S301", Price: "120 PLN"}},
		Offer: analysis.Offer{
			KeyPoints:       []string{"Montaż ogranicznika przepięć"},
			Recommendations: []string{"Dodać RCD 30 mA"},
		},
		EmailDraft:          "Szanowni Państwo,\n\nprzesyłamy wyniki audytu.",
		StandardsCompliance: "Częściowo zgodna z PN-HD 60364-4-41.",
		SafetyClause:        "Analiza zdjęcia nie zastępuje pomiarów.",
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Port:               config.DefaultPort,
		GeminiModel:        config.DefaultModel,
		MaxUploadBytes:     config.DefaultMaxUploadBytes,
		SessionIdleTimeout: config.DefaultIdleTimeout,
	}
}

func newTestHandler(t *testing.T, cfg *config.Config, analyzer audit.Analyzer) (*Handler, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h, err := New(cfg, analyzer)
	require.NoError(t, err)
	return h, h.Router()
}

// browser replays the session cookie across requests.
type browser struct {
	t      *testing.T
	router http.Handler
	cookie *http.Cookie
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	w := httptest.NewRecorder()
	b.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			b.cookie = c
		}
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodPost, path, nil))
}

func (b *browser) upload(name string, data []byte) *httptest.ResponseRecorder {
	b.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(b.t, err)
	_, err = part.Write(data)
	require.NoError(b.t, err)
	require.NoError(b.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return b.do(req)
}

func (b *browser) snapshot() models.SessionSnapshot {
	b.t.Helper()
	w := b.get("/api/session")
	require.Equal(b.t, http.StatusOK, w.Code)
	var snap models.SessionSnapshot
	require.NoError(b.t, json.Unmarshal(w.Body.Bytes(), &snap))
	return snap
}

func TestHealthcheck(t *testing.T) {
	_, router := newTestHandler(t, testConfig(), &fakeAnalyzer{})
	b := &browser{t: t, router: router}

	w := b.get("/healthcheck")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestStaticAssets(t *testing.T) {
	_, router := newTestHandler(t, testConfig(), &fakeAnalyzer{})
	b := &browser{t: t, router: router}

	w := b.get("/static/style.css")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/css")
}

func TestUploadAnalyzeAndSwitchViews(t *testing.T) {
	analyzer := &fakeAnalyzer{result: scenarioResult()}
	h, router := newTestHandler(t, testConfig(), analyzer)
	b := &browser{t: t, router: router}

	w := b.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/upload"`)
	require.NotNil(t, b.cookie)

	w = b.upload("rozdzielnica.jpg", jpeg)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	snap := b.snapshot()
	assert.Equal(t, session.StatusLoaded, snap.Status)
	require.NotNil(t, snap.Image)
	assert.Equal(t, "rozdzielnica.jpg", snap.Image.Name)
	assert.Equal(t, "image/jpeg", snap.Image.MediaType)

	w = b.get(snap.Image.PreviewURL)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, jpeg, w.Body.Bytes())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	w = b.post("/analyze")
	require.Equal(t, http.StatusSeeOther, w.Code)
	h.Wait()
	assert.Equal(t, 1, analyzer.Calls())

	snap = b.snapshot()
	assert.Equal(t, session.StatusReady, snap.Status)
	assert.Equal(t, scenarioResult(), snap.Result)

	technical := b.get("/").Body.String()
	assert.Contains(t, technical, "<h2>Audyt rozdzielnicy</h2>")
	assert.Contains(t, technical, "<tr><td>S301</td><td>wylacznik</td><td>sprawny</td></tr>")
	assert.Contains(t, technical, "Analiza zdjęcia nie zastępuje pomiarów.")

	offer := b.get("/?view=offer").Body.String()
	assert.Contains(t, offer, "<tr><td>S301</td><td>120 PLN</td><td></td></tr>")
	assert.Contains(t, offer, presenter.PriceDisclaimer)
	assert.Contains(t, offer, "Analiza zdjęcia nie zastępuje pomiarów.")

	email := b.get("/?view=email").Body.String()
	assert.Contains(t, email, "Szanowni Państwo,\n\nprzesyłamy wyniki audytu.")
	assert.Contains(t, email, "Analiza zdjęcia nie zastępuje pomiarów.")
}

func TestInvalidCredentialKeepsPreview(t *testing.T) {
	analyzer := &fakeAnalyzer{err: analysis.ErrInvalidCredential}
	h, router := newTestHandler(t, testConfig(), analyzer)
	b := &browser{t: t, router: router}

	require.Equal(t, http.StatusSeeOther, b.upload("rozdzielnica.jpg", jpeg).Code)
	require.Equal(t, http.StatusSeeOther, b.post("/analyze").Code)
	h.Wait()

	snap := b.snapshot()
	assert.Equal(t, session.StatusFailed, snap.Status)
	assert.False(t, snap.Retryable)
	require.NotNil(t, snap.Image)

	page := b.get("/").Body.String()
	assert.Contains(t, page, snap.Image.PreviewURL)
	assert.Contains(t, page, "klucze OpenAI")
	assert.NotContains(t, page, `action="/analyze"`)
	assert.Equal(t, http.StatusOK, b.get(snap.Image.PreviewURL).Code)
}

func TestMissingCredentialMakesNoRequest(t *testing.T) {
	client := analysis.NewClient(analysis.Options{Model: config.DefaultModel})
	h, router := newTestHandler(t, testConfig(), client)
	b := &browser{t: t, router: router}

	require.Equal(t, http.StatusSeeOther, b.upload("rozdzielnica.jpg", jpeg).Code)
	require.Equal(t, http.StatusSeeOther, b.post("/analyze").Code)
	h.Wait()

	snap := b.snapshot()
	assert.Equal(t, session.StatusFailed, snap.Status)
	assert.Equal(t, analysis.ErrMissingCredential.Error(), snap.Error)
}

func TestRetryAfterFailure(t *testing.T) {
	analyzer := &fakeAnalyzer{err: analysis.ErrEmptyResponse}
	h, router := newTestHandler(t, testConfig(), analyzer)
	b := &browser{t: t, router: router}

	require.Equal(t, http.StatusSeeOther, b.upload("rozdzielnica.jpg", jpeg).Code)
	b.post("/analyze")
	h.Wait()
	assert.Contains(t, b.get("/").Body.String(), "Spróbuj ponownie")

	analyzer.mu.Lock()
	analyzer.err = nil
	analyzer.result = scenarioResult()
	analyzer.mu.Unlock()

	b.post("/analyze")
	h.Wait()
	assert.Equal(t, session.StatusReady, b.snapshot().Status)
	assert.Equal(t, 2, analyzer.Calls())
}

func TestAnalyzeWithoutImage(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	_, router := newTestHandler(t, testConfig(), analyzer)
	b := &browser{t: t, router: router}

	w := b.post("/analyze")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, session.ErrNoImage.Error(), w.Body.String())
	assert.Equal(t, 0, analyzer.Calls())
}

func TestUploadWithoutFile(t *testing.T) {
	_, router := newTestHandler(t, testConfig(), &fakeAnalyzer{})
	b := &browser{t: t, router: router}

	w := b.post("/upload")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInFlightRefusesResetAndUpload(t *testing.T) {
	analyzer := &fakeAnalyzer{gate: make(chan struct{}), result: scenarioResult()}
	h, router := newTestHandler(t, testConfig(), analyzer)
	b := &browser{t: t, router: router}

	require.Equal(t, http.StatusSeeOther, b.upload("rozdzielnica.jpg", jpeg).Code)
	require.Equal(t, http.StatusSeeOther, b.post("/analyze").Code)

	page := b.get("/").Body.String()
	assert.Contains(t, page, `http-equiv="refresh"`)
	assert.NotContains(t, page, `action="/analyze"`)

	assert.Equal(t, http.StatusSeeOther, b.post("/analyze").Code)
	assert.Equal(t, http.StatusConflict, b.post("/reset").Code)
	assert.Equal(t, http.StatusConflict, b.upload("inna.jpg", jpeg).Code)
	assert.Equal(t, 1, h.previews.Len())

	close(analyzer.gate)
	h.Wait()
	assert.Equal(t, session.StatusReady, b.snapshot().Status)
	assert.Equal(t, 1, analyzer.Calls())
}

func TestPreviewOwnershipAndRelease(t *testing.T) {
	h, router := newTestHandler(t, testConfig(), &fakeAnalyzer{})
	owner := &browser{t: t, router: router}
	stranger := &browser{t: t, router: router}

	require.Equal(t, http.StatusSeeOther, owner.upload("rozdzielnica.jpg", jpeg).Code)
	previewURL := owner.snapshot().Image.PreviewURL

	assert.Equal(t, http.StatusNotFound, stranger.get(previewURL).Code)
	assert.Equal(t, http.StatusOK, owner.get(previewURL).Code)

	require.Equal(t, http.StatusSeeOther, owner.upload("druga.jpg", jpeg).Code)
	assert.Equal(t, http.StatusNotFound, owner.get(previewURL).Code)
	assert.Equal(t, 1, h.previews.Len())

	require.Equal(t, http.StatusSeeOther, owner.post("/reset").Code)
	assert.Equal(t, session.StatusEmpty, owner.snapshot().Status)
	assert.Equal(t, 0, h.previews.Len())
}

func TestSweepReleasesIdleSessions(t *testing.T) {
	cfg := testConfig()
	cfg.SessionIdleTimeout = 10 * time.Millisecond
	h, router := newTestHandler(t, cfg, &fakeAnalyzer{})
	b := &browser{t: t, router: router}

	require.Equal(t, http.StatusSeeOther, b.upload("rozdzielnica.jpg", jpeg).Code)
	require.Equal(t, 1, h.previews.Len())

	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, h.Sweep())
	assert.Equal(t, 0, h.previews.Len())
}
