package engine

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"server/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	c, err := NewClient(Options{
		BaseURL:    "http://engine.test/",
		HTTPClient: &http.Client{Transport: rt},
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(Options{}); err == nil {
		t.Fatal("expected error for missing base url")
	}
}

func TestHealthOK(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q", r.URL.Path)
		}
		return jsonResponse(http.StatusOK, `{"status":"ok"}`), nil
	})
	if err := c.Health(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestHealthBadStatusWrapsUnreachable(t *testing.T) {
	c := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, ""), nil
	})
	err := c.Health(context.Background())
	if !errors.Is(err, domain.ErrEngineUnreachable) {
		t.Fatalf("err = %v, want ErrEngineUnreachable", err)
	}
}

func TestHealthTransportErrorWrapsUnreachable(t *testing.T) {
	c := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	if err := c.Health(context.Background()); !errors.Is(err, domain.ErrEngineUnreachable) {
		t.Fatalf("err = %v, want ErrEngineUnreachable", err)
	}
}

func TestGenerateDecodesResult(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/generate" || r.Method != http.MethodPost {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"topic":"walking"`) {
			t.Errorf("request body = %s", body)
		}
		return jsonResponse(http.StatusOK,
			`{"run_id":"r1","model":"creator-small","tasks":[{"description":"blog","raw":"text"}]}`), nil
	})

	result, err := c.Generate(context.Background(), GenerateRequest{
		Topic:        "walking",
		ContentTypes: []domain.ContentType{domain.ContentTypeBlog},
		Model:        "creator-small",
		MaxTokens:    2048,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.RunID != "r1" || len(result.Tasks) != 1 {
		t.Fatalf("result = %+v", result)
	}
}

func TestGenerateFillsModelWhenResponseOmitsIt(t *testing.T) {
	c := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"tasks":[]}`), nil
	})
	result, err := c.Generate(context.Background(), GenerateRequest{Topic: "t", Model: "creator-medium"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Model != "creator-medium" {
		t.Fatalf("model = %q", result.Model)
	}
}

func TestGenerateErrorStatus(t *testing.T) {
	c := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusInternalServerError, ""), nil
	})
	if _, err := c.Generate(context.Background(), GenerateRequest{Topic: "t"}); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
