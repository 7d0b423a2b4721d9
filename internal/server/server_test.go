package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/geonodes/pkg/cache"
	errs "github.com/matzehuels/geonodes/pkg/errors"
	"github.com/matzehuels/geonodes/pkg/pipeline"
)

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	discard := log.NewWithOptions(io.Discard, log.Options{})
	if opts.Rate == 0 {
		opts.Rate, opts.Burst = 1000, 1000
	}
	srv := httptest.NewServer(New(pipeline.NewRunner(fc, nil, nil, discard), discard, opts).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func expectError(t *testing.T, resp *http.Response, status int, code errs.Code) {
	t.Helper()
	if resp.StatusCode != status {
		t.Errorf("status = %d, want %d", resp.StatusCode, status)
	}
	body := decodeJSON[errorBody](t, resp)
	if body.Code != code {
		t.Errorf("code = %q, want %q (message %q)", body.Code, code, body.Message)
	}
}

const emptyDescriptor = `{"name": "GN_empty", "nodes": [], "links": []}`

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Options{})
	resp := do(t, http.MethodGet, srv.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	h := decodeJSON[healthResponse](t, resp)
	if h.Status != "ok" || h.CatalogNodes == 0 || len(h.CatalogHash) != 64 {
		t.Errorf("health = %+v", h)
	}
}

func TestPresets(t *testing.T) {
	srv := newTestServer(t, Options{})

	list := decodeJSON[[]presetInfo](t, do(t, http.MethodGet, srv.URL+"/v1/presets", ""))
	if len(list) != 5 || list[0].Name != "translate" || list[0].Description == "" {
		t.Errorf("presets = %+v", list)
	}

	resp := do(t, http.MethodGet, srv.URL+"/v1/presets/scale?target=uv", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	d := decodeJSON[map[string]any](t, resp)
	if d["name"] != "GN_scale" {
		t.Errorf("name = %v", d["name"])
	}
	if nodes, _ := d["nodes"].([]any); len(nodes) != 3 {
		t.Errorf("nodes = %d, want 3 for an attribute target", len(nodes))
	}

	expectError(t, do(t, http.MethodGet, srv.URL+"/v1/presets/explode", ""), http.StatusNotFound, errs.ErrCodePresetNotFound)
	expectError(t, do(t, http.MethodGet, srv.URL+"/v1/presets/scale?target=sideways", ""), http.StatusBadRequest, errs.ErrCodeInvalidInput)
	expectError(t, do(t, http.MethodGet, srv.URL+"/v1/presets/scale?target=custom", ""), http.StatusBadRequest, errs.ErrCodeInvalidInput)
}

func TestValidate(t *testing.T) {
	srv := newTestServer(t, Options{})
	dup := `{"nodes": [{"id": "a", "name": "x", "type": "T"}, {"id": "a", "name": "y", "type": "T"}], "links": []}`

	tests := []struct {
		name   string
		query  string
		body   string
		valid  bool
		code   errs.Code
		reason string
	}{
		{"valid", "", `{"nodes": [{"type": "A", "name": "n1"}], "links": []}`, true, "", ""},
		{"not a mapping", "", `[]`, false, errs.ErrCodeInvalidSchema, "not_mapping"},
		{"missing link key", "", `{"nodes": [], "links": [{"from_node": "a"}]}`, false, errs.ErrCodeInvalidSchema, "link_missing_key"},
		{"bad json", "", `{`, false, errs.ErrCodeInvalidFormat, ""},
		{"duplicate lenient", "", dup, true, "", ""},
		{"duplicate strict", "?strict=true", dup, false, errs.ErrCodeDuplicateNodeID, "duplicate_node_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, srv.URL+"/v1/validate"+tt.query, tt.body)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			v := decodeJSON[validateResponse](t, resp)
			if v.Valid != tt.valid || v.Code != tt.code || v.Reason != tt.reason {
				t.Errorf("response = %+v", v)
			}
		})
	}

	expectError(t, do(t, http.MethodPost, srv.URL+"/v1/validate?strict=maybe", emptyDescriptor), http.StatusBadRequest, errs.ErrCodeInvalidInput)
	expectError(t, do(t, http.MethodPost, srv.URL+"/v1/validate", ""), http.StatusBadRequest, errs.ErrCodeInvalidInput)
}

func TestValidateBodyLimit(t *testing.T) {
	srv := newTestServer(t, Options{MaxBodyBytes: 16})
	expectError(t, do(t, http.MethodPost, srv.URL+"/v1/validate", emptyDescriptor), http.StatusBadRequest, errs.ErrCodeInvalidInput)
}

func TestMaterialize(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp := do(t, http.MethodPost, srv.URL+"/v1/materialize", emptyDescriptor)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		RunID  string `json:"run_id"`
		Result struct {
			OK             bool `json:"ok"`
			LinksCreated   int  `json:"links_created"`
			FallbackLinked bool `json:"fallback_linked"`
		} `json:"result"`
		Graph struct {
			Name  string `json:"name"`
			Links []any  `json:"links"`
		} `json:"graph"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.RunID == "" || !out.Result.OK || out.Result.LinksCreated != 1 || !out.Result.FallbackLinked {
		t.Errorf("result = %+v", out)
	}
	if out.Graph.Name != "GN_empty" || len(out.Graph.Links) != 1 {
		t.Errorf("graph = %+v", out.Graph)
	}

	resp = do(t, http.MethodPost, srv.URL+"/v1/materialize?preset=mirror", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("preset status = %d", resp.StatusCode)
	}

	expectError(t, do(t, http.MethodPost, srv.URL+"/v1/materialize", `{"nodes": 1, "links": []}`), http.StatusUnprocessableEntity, errs.ErrCodeInvalidSchema)
	expectError(t, do(t, http.MethodGet, srv.URL+"/v1/materialize", ""), http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
}

func TestRender(t *testing.T) {
	srv := newTestServer(t, Options{})
	url := srv.URL + "/v1/render?preset=translate&format=dot"

	first := do(t, http.MethodPost, url, "")
	if first.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", first.StatusCode)
	}
	if ct := first.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/vnd.graphviz") {
		t.Errorf("Content-Type = %q", ct)
	}
	if first.Header.Get("X-Cache") != "MISS" || first.Header.Get("X-Run-ID") == "" {
		t.Errorf("headers = %v", first.Header)
	}
	body, _ := io.ReadAll(first.Body)
	if !strings.Contains(string(body), `digraph "GN_translate"`) {
		t.Errorf("body = %s", body)
	}

	second := do(t, http.MethodPost, url, "")
	if second.Header.Get("X-Cache") != "HIT" {
		t.Errorf("second X-Cache = %q, want HIT", second.Header.Get("X-Cache"))
	}

	resp := do(t, http.MethodPost, srv.URL+"/v1/render?format=json", emptyDescriptor)
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("json Content-Type = %q", ct)
	}

	expectError(t, do(t, http.MethodPost, srv.URL+"/v1/render?preset=scale&format=gif", ""), http.StatusBadRequest, errs.ErrCodeInvalidInput)
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, Options{Rate: 0.01, Burst: 1})

	if resp := do(t, http.MethodGet, srv.URL+"/v1/presets", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("first status = %d", resp.StatusCode)
	}
	resp := do(t, http.MethodGet, srv.URL+"/v1/presets", "")
	if resp.Header.Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	expectError(t, resp, http.StatusTooManyRequests, errs.ErrCodeRateLimited)

	// Health checks are not limited.
	if resp := do(t, http.MethodGet, srv.URL+"/healthz", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t, Options{})
	expectError(t, do(t, http.MethodGet, srv.URL+"/v2/nothing", ""), http.StatusNotFound, "NOT_FOUND")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errs.Code
		want int
	}{
		{errs.ErrCodeInvalidSchema, http.StatusUnprocessableEntity},
		{errs.ErrCodeDuplicateNodeID, http.StatusUnprocessableEntity},
		{errs.ErrCodeInvalidFormat, http.StatusBadRequest},
		{errs.ErrCodePresetNotFound, http.StatusNotFound},
		{errs.ErrCodeHostPrecondition, http.StatusConflict},
		{errs.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(errs.New(tt.code, "x")); got != tt.want {
			t.Errorf("statusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
	if got := statusFor(&errs.RateLimitedError{}); got != http.StatusTooManyRequests {
		t.Errorf("statusFor(RateLimitedError) = %d", got)
	}
}

func TestClientLimiter(t *testing.T) {
	l := newClientLimiter(1, 2)
	for i := 0; i < 2; i++ {
		if _, ok := l.allow("a"); !ok {
			t.Fatalf("request %d rejected within burst", i)
		}
	}
	wait, ok := l.allow("a")
	if ok {
		t.Fatal("request beyond burst allowed")
	}
	if wait <= 0 || wait > 2*time.Second {
		t.Errorf("wait = %v", wait)
	}
	if _, ok := l.allow("b"); !ok {
		t.Error("other client limited")
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	discard := log.NewWithOptions(io.Discard, log.Options{})
	s := New(pipeline.NewRunner(nil, nil, nil, discard), discard, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe did not return after cancel")
	}
}
