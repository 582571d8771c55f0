package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"server/internal/cache"
	"server/internal/domain"
	"server/internal/engine"
	"server/internal/extract"
	"server/internal/infra"
	"server/internal/orchestrator"
	"server/internal/validate"
)

type fakeEngine struct {
	health   func(context.Context) error
	generate func(context.Context, engine.GenerateRequest) (*engine.GenerationResult, error)
}

func (f *fakeEngine) Health(ctx context.Context) error {
	if f.health != nil {
		return f.health(ctx)
	}
	return nil
}

func (f *fakeEngine) Generate(ctx context.Context, req engine.GenerateRequest) (*engine.GenerationResult, error) {
	if f.generate != nil {
		return f.generate(ctx, req)
	}
	return nil, errors.New("generate not implemented")
}

func newTestApp(t *testing.T, eng orchestrator.Engine) (*App, cache.Store) {
	t.Helper()
	logger := infra.NewLogger("test")
	store := cache.NewMemoryStore()
	cfg := &infra.Config{
		EngineTimeout:     2 * time.Second,
		HeartbeatEvery:    time.Hour,
		ModelFree:         "creator-small",
		PromptVersion:     "2025-06",
		ModerationVersion: "v2",
		CacheTTL:          time.Minute,
	}
	exec := orchestrator.NewExecutor(orchestrator.Options{
		Engine:    eng,
		Extractor: extract.NewExtractor(nil, logger),
		Validator: validate.NewValidator(logger),
		Cache:     store,
		Config:    cfg,
		Logger:    logger,
	})
	return NewApp(exec, store, eng, logger), store
}

func testRouter(app *App) http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/generate", app.Generate)
	r.Get("/v1/content/{fingerprint}/export", app.ExportContent)
	r.Delete("/v1/content/{fingerprint}", app.InvalidateContent)
	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/engine/healthz", app.EngineHealth)
	return r
}

func blogResult() *engine.GenerationResult {
	section := `{"heading":"Point","body":"` + strings.Repeat("b", 120) + `"}`
	blogJSON := `{"title":"Benefits of Walking","intro":"Walking helps.",` +
		`"sections":[` + section + `,` + section + `,` + section + `],` +
		`"conclusion":"Walk daily."}`
	return &engine.GenerationResult{
		Model: "creator-small",
		Tasks: []engine.TaskOutput{
			{Description: "write blog article", Raw: blogJSON},
		},
	}
}

func TestGenerateRejectsMalformedBody(t *testing.T) {
	app, _ := newTestApp(t, &fakeEngine{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader("{not json"))

	testRouter(app).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGenerateRejectsUnknownContentType(t *testing.T) {
	app, _ := newTestApp(t, &fakeEngine{})
	rec := httptest.NewRecorder()
	body := `{"topic":"walking","content_types":["newsletter"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(body))

	testRouter(app).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "content type") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestGenerateRejectsEmptyTopic(t *testing.T) {
	app, _ := newTestApp(t, &fakeEngine{})
	rec := httptest.NewRecorder()
	body := `{"topic":"   ","content_types":["blog"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(body))

	testRouter(app).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGenerateStreamsEventsAsSSE(t *testing.T) {
	eng := &fakeEngine{
		generate: func(context.Context, engine.GenerateRequest) (*engine.GenerationResult, error) {
			return blogResult(), nil
		},
	}
	app, _ := newTestApp(t, eng)
	rec := httptest.NewRecorder()
	body := `{"topic":"benefits of walking","tier":"free","content_types":["blog"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(body))

	testRouter(app).ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	out := rec.Body.String()
	if !strings.Contains(out, `data: {"type":"status"`) {
		t.Fatalf("missing status event in %q", out[:min(200, len(out))])
	}
	if !strings.Contains(out, `"type":"complete"`) {
		t.Fatal("missing terminal complete event")
	}
	for _, line := range strings.Split(out, "\n") {
		if line == "" || strings.HasPrefix(line, ": ") || strings.HasPrefix(line, "data: ") {
			continue
		}
		t.Fatalf("non-SSE line on the wire: %q", line)
	}
}

func TestGenerateEngineDownEmitsConnectionErrorEvent(t *testing.T) {
	eng := &fakeEngine{
		health: func(context.Context) error { return domain.ErrEngineUnreachable },
	}
	app, _ := newTestApp(t, eng)
	rec := httptest.NewRecorder()
	body := `{"topic":"walking","content_types":["blog"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(body))

	testRouter(app).ServeHTTP(rec, req)

	out := rec.Body.String()
	if !strings.Contains(out, `"error_kind":"CONNECTION"`) {
		t.Fatalf("expected CONNECTION error event, got %q", out)
	}
}

func TestExportContentBuildsZip(t *testing.T) {
	app, store := newTestApp(t, &fakeEngine{})
	payload := map[domain.ContentType]string{
		domain.ContentTypeBlog:   "# A post\n\nBody text.",
		domain.ContentTypeSocial: "Hook: short\n\nShort post: hi",
	}
	if err := store.Set(context.Background(), "abcdef123456abcd", payload, "creator-small", time.Minute); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/content/abcdef123456abcd/export", nil)
	testRouter(app).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "content-abcdef123456") {
		t.Fatalf("Content-Disposition = %q", cd)
	}

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		got[f.Name] = string(data)
	}
	if got["blog_post.md"] != payload[domain.ContentTypeBlog] {
		t.Fatalf("blog_post.md = %q", got["blog_post.md"])
	}
	if got["social_media.md"] != payload[domain.ContentTypeSocial] {
		t.Fatalf("social_media.md = %q", got["social_media.md"])
	}
	if _, ok := got["audio_script.md"]; ok {
		t.Fatal("archive must not include absent content types")
	}
}

func TestExportContentMissReturns404(t *testing.T) {
	app, _ := newTestApp(t, &fakeEngine{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/content/nosuch/export", nil)

	testRouter(app).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestInvalidateContentRemovesEntry(t *testing.T) {
	app, store := newTestApp(t, &fakeEngine{})
	payload := map[domain.ContentType]string{domain.ContentTypeBlog: "text"}
	if err := store.Set(context.Background(), "fp1", payload, "creator-small", time.Minute); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/v1/content/fp1", nil)
	testRouter(app).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, err := store.Get(context.Background(), "fp1"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatal("entry still present after invalidation")
	}
}

func TestEngineHealthReportsUnreachable(t *testing.T) {
	app, _ := newTestApp(t, &fakeEngine{
		health: func(context.Context) error { return domain.ErrEngineUnreachable },
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/engine/healthz", nil)

	testRouter(app).ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
