package tavily

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/medagent/internal/domain"
)

func TestSearch_Success(t *testing.T) {
	var got searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer tvly-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"query":"q","results":[
			{"title":"Heart attack symptoms","url":"https://example.org/a","content":"Chest pain and shortness of breath.","score":0.9},
			{"title":"Angina","url":"https://example.org/b","content":"Pressure in the chest.","score":0.7}
		]}`))
	}))
	defer server.Close()

	c := New(Config{APIKey: "tvly-key", Endpoint: server.URL})
	snippets, err := c.Search(context.Background(), "medical information about heart", "advanced", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if got.Query != "medical information about heart" || got.SearchDepth != "advanced" || got.MaxResults != 5 {
		t.Errorf("unexpected request %+v", got)
	}
	if len(snippets) != 2 {
		t.Fatalf("expected 2 snippets, got %d", len(snippets))
	}
	want := domain.Snippet{
		Title:   "Heart attack symptoms",
		Content: "Chest pain and shortness of breath.",
		Source:  "https://example.org/a",
	}
	if snippets[0] != want {
		t.Errorf("snippet[0] = %+v, want %+v", snippets[0], want)
	}
}

func TestSearch_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":{"error":"Unauthorized: missing or invalid API key."}}`))
	}))
	defer server.Close()

	c := New(Config{Endpoint: server.URL})
	_, err := c.Search(context.Background(), "q", "basic", 5)
	if !errors.Is(err, domain.ErrSearchProvider) {
		t.Fatalf("expected ErrSearchProvider, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing or invalid API key") {
		t.Errorf("expected provider detail in error, got %q", err.Error())
	}
}

func TestSearch_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": [`))
	}))
	defer server.Close()

	c := New(Config{Endpoint: server.URL})
	_, err := c.Search(context.Background(), "q", "basic", 5)
	if !errors.Is(err, domain.ErrSearchProvider) {
		t.Fatalf("expected ErrSearchProvider, got %v", err)
	}
}

func TestSearch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	c := New(Config{Endpoint: server.URL, Timeout: 20 * time.Millisecond})
	_, err := c.Search(context.Background(), "q", "basic", 5)
	if !errors.Is(err, domain.ErrSearchProvider) {
		t.Fatalf("expected ErrSearchProvider on timeout, got %v", err)
	}
}

func TestErrorMessage_CapsRawBody(t *testing.T) {
	long := strings.Repeat("x", maxErrorBody*2)
	if got := errorMessage([]byte(long)); len(got) != maxErrorBody {
		t.Errorf("expected capped message of %d bytes, got %d", maxErrorBody, len(got))
	}
}

func TestErrorMessage_Paths(t *testing.T) {
	cases := map[string]string{
		`{"detail":{"error":"Invalid API key"}}`: "Invalid API key",
		`{"detail":"Rate limit exceeded"}`:       "Rate limit exceeded",
		`{"error":"bad request"}`:                "bad request",
		`{"message":"upstream timeout"}`:         "upstream timeout",
		`{"detail":{"code":42}}`:                 `{"detail":{"code":42}}`,
		`<html>Bad Gateway</html>`:               `<html>Bad Gateway</html>`,
	}
	for body, want := range cases {
		if got := errorMessage([]byte(body)); got != want {
			t.Errorf("errorMessage(%s) = %q, want %q", body, got, want)
		}
	}
}
