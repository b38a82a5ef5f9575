package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pkt.systems/mdpdf/internal/config"
)

func newTestServer(t *testing.T, modify func(*config.Config)) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	cfg.ImageTimeout = 2 * time.Second
	if modify != nil {
		modify(&cfg)
	}
	ts := httptest.NewServer(NewServer(nil, nil, cfg))
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, query, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/v1/render"+query, "text/markdown", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health = %d %v", resp.StatusCode, body)
	}
}

func TestRenderPDF(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, body := post(t, ts, "", "# Title\n\nHello *world*.\n")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.HasPrefix(string(body), "%PDF-") {
		t.Fatalf("body is not a PDF: %q", body[:min(len(body), 16)])
	}
}

func TestRenderANSI(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, body := post(t, ts, "?format=ansi&boring=1&width=40", "# Title\n\n- one\n- two\n")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	want := "# Title\n\n• one\n• two\n"
	if string(body) != want {
		t.Fatalf("body = %q, want %q", body, want)
	}
}

func TestRenderInstructions(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, body := post(t, ts, "?format=instructions&debug=true", "# Title\n\n![logo](https://invalid.example/logo.png)\n")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	out := string(body)
	for _, want := range []string{"begin heading level=1", `text "Title"`, `~begin debug label="Heading"`, `placeholder "https://invalid.example/logo.png"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in\n%s", want, out)
		}
	}
}

func TestRenderRejectsBadRequests(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.MaxRequestBytes = 64 })
	tests := []struct {
		name   string
		query  string
		body   string
		status int
	}{
		{"unknown format", "?format=docx", "# x", http.StatusBadRequest},
		{"unknown theme", "?theme=nope", "# x", http.StatusBadRequest},
		{"bad debug", "?debug=maybe", "# x", http.StatusBadRequest},
		{"bad width", "?format=ansi&width=3", "# x", http.StatusBadRequest},
		{"bad page size", "?page_size=B9", "# x", http.StatusBadRequest},
		{"too large", "", strings.Repeat("a", 65), http.StatusRequestEntityTooLarge},
		{"binary", "", "abc\x00def", http.StatusUnprocessableEntity},
		{"invalid utf-8", "", "abc\xffdef", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(t, ts, tt.query, tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
			var msg map[string]string
			if err := json.Unmarshal(body, &msg); err != nil || msg["error"] == "" {
				t.Fatalf("expected JSON error body, got %q", body)
			}
		})
	}
}

func TestRenderOnlyAcceptsPost(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/v1/render")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestThemes(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/v1/themes")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		Themes  []string `json:"themes"`
		Default string   `json:"default"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Default != "default" || len(body.Themes) == 0 {
		t.Fatalf("themes = %+v", body)
	}
}
