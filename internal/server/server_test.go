package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/matzehuels/flat/pkg/cache"
	"github.com/matzehuels/flat/pkg/observability"
	"github.com/matzehuels/flat/pkg/pipeline"
)

const zooBody = `{
  "dataset": {"headers": ["Animal", "Size"], "rows": [
    ["whale", "large"], ["shark", "medium"], ["shark", "small"],
    ["tiger", "medium"], ["tiger", "medium"], ["tiger", "small"]
  ]},
  "roles": {"primary": "Animal", "display": ["Animal"]}
}`

func newTestServer(t *testing.T, c cache.Cache) *httptest.Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	srv := httptest.NewServer(New(pipeline.NewRunner(c, nil, logger), logger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["version"] == "" {
		t.Errorf("body = %v", body)
	}
}

func TestRender(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := post(t, srv.URL+"/v1/render/bar", zooBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, readBody(t, resp))
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	want := "Animal  |Sum(Count)\nshark   |**\ntiger   |***\nwhale   |*\n"
	if got := readBody(t, resp); got != want {
		t.Errorf("body =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderOptions(t *testing.T) {
	srv := newTestServer(t, nil)

	body := `{
	  "dataset": {"headers": ["team", "hours"], "rows": [["api", 4], ["api", 8], ["web", 3]]},
	  "roles": {"primary": "team", "value": "hours"},
	  "options": {"aggregate": "average", "show_aggregate": true}
	}`
	resp := post(t, srv.URL+"/v1/render/BAR", body)
	want := "team Average  |Average(hours)\napi  [6]      |******\nweb  [3]      |***\n"
	if got := readBody(t, resp); got != want {
		t.Errorf("body =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	srv := newTestServer(t, c)

	first := post(t, srv.URL+"/v1/render/dag", zooBody)
	if got := first.Header.Get("X-Cache"); got != "miss" {
		t.Errorf("first X-Cache = %q, want miss", got)
	}
	second := post(t, srv.URL+"/v1/render/dag", zooBody)
	if got := second.Header.Get("X-Cache"); got != "hit" {
		t.Errorf("second X-Cache = %q, want hit", got)
	}
	if readBody(t, first) != readBody(t, second) {
		t.Error("cached body differs from rendered body")
	}
}

func TestRenderErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown kind", "/v1/render/pie", zooBody, http.StatusBadRequest, "INVALID_INPUT"},
		{"malformed body", "/v1/render/bar", `{"dataset":`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"no dataset", "/v1/render/bar", `{"roles": {}}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"null value", "/v1/render/bar", `{"dataset": {"headers": ["a"], "rows": [[null]]}}`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"unknown column", "/v1/render/bar", `{"dataset": {"headers": ["a"], "rows": [["x"]]}, "roles": {"primary": "b"}}`, http.StatusBadRequest, "INVALID_COLUMN"},
		{"bad aggregate", "/v1/render/bar", `{"dataset": {"headers": ["a"]}, "options": {"aggregate": "median"}}`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"non-numeric histogram", "/v1/render/histogram", zooBody, http.StatusBadRequest, "INVALID_INPUT"},
		{"width too large", "/v1/render/bar", `{"dataset": {"headers": ["a", "v"], "rows": [["x", 50000000]]}, "roles": {"value": "v"}, "options": {"width": 1099511627776}}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"bins too large", "/v1/render/histogram", `{"dataset": {"headers": ["v"], "rows": [[1], [2]]}, "options": {"bins": 5000000}}`, http.StatusBadRequest, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var body errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q (%s)", body.Code, tt.code, body.Error)
			}
			if body.RequestID == "" {
				t.Error("error body should carry the request ID")
			}
		})
	}
}

func TestExport(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := post(t, srv.URL+"/v1/export/dot", zooBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, readBody(t, resp))
	}
	body := readBody(t, resp)
	for _, want := range []string{`"root" [label="Sum(Count)"];`, `"n0" [label="shark"];`, `"root" -> "n2";`} {
		if !strings.Contains(body, want) {
			t.Errorf("dot missing %s\n%s", want, body)
		}
	}

	resp = post(t, srv.URL+"/v1/export/png", zooBody)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("png status = %d, want 400", resp.StatusCode)
	}
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if _, err := uuid.Parse(resp.Header.Get(RequestIDHeader)); err != nil {
		t.Errorf("X-Request-ID = %q, want a UUID", resp.Header.Get(RequestIDHeader))
	}

	id := uuid.NewString()
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != id {
		t.Errorf("X-Request-ID = %q, want echoed %q", got, id)
	}

	req.Header.Set(RequestIDHeader, "not-a-uuid")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got == "not-a-uuid" {
		t.Error("malformed request IDs should be replaced")
	}
}

type recordingHTTPHooks struct {
	mu        sync.Mutex
	requests  []string
	responses []int
}

func (h *recordingHTTPHooks) OnRequest(_ context.Context, method, path, _ string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests = append(h.requests, method+" "+path)
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses = append(h.responses, status)
}

func TestHTTPHooks(t *testing.T) {
	observability.Reset()
	defer observability.Reset()
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)

	srv := newTestServer(t, nil)
	post(t, srv.URL+"/v1/render/bar", zooBody)
	post(t, srv.URL+"/v1/render/pie", zooBody)

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if len(hooks.requests) != 2 || hooks.requests[0] != "POST /v1/render/bar" {
		t.Errorf("requests = %v", hooks.requests)
	}
	if len(hooks.responses) != 2 || hooks.responses[0] != 200 || hooks.responses[1] != 400 {
		t.Errorf("responses = %v, want [200 400]", hooks.responses)
	}
}

func TestListenAndServeShutsDown(t *testing.T) {
	logger := log.NewWithOptions(io.Discard, log.Options{})
	s := New(pipeline.NewRunner(nil, nil, logger), logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("ListenAndServe() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe() did not return after cancel")
	}
}

func TestBodyLimit(t *testing.T) {
	logger := log.NewWithOptions(io.Discard, log.Options{})
	s := New(pipeline.NewRunner(nil, nil, logger), logger)
	s.maxBody = 16

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/render/bar", bytes.NewBufferString(zooBody))
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
