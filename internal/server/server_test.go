package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dagforge/internal/config"
	logx "dagforge/pkg/logx"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg, logx.Nop())
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestValidateCron(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	cases := []struct {
		name  string
		body  string
		valid bool
		field string
		token string
		desc  string
	}{
		{name: "valid", body: `{"cron":"0 9 * * 1-5"}`, valid: true, desc: "every Monday through Friday at 09:00"},
		{name: "preset", body: `{"cron":"@daily"}`, valid: true},
		{name: "bad hour", body: `{"cron":"0 24 * * *"}`, field: "hour", token: "24"},
		{name: "field count", body: `{"cron":"* * *"}`},
		{name: "missing", body: `{}`},
		{name: "empty body", body: ``},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := do(t, s, http.MethodPost, "/validate_cron", tc.body)
			require.Equal(t, http.StatusOK, rec.Code)
			resp := decode[validateCronResponse](t, rec)
			require.Equal(t, tc.valid, resp.Valid, resp.Message)
			require.Equal(t, tc.field, resp.Field)
			require.Equal(t, tc.token, resp.Token)
			require.Equal(t, tc.desc, resp.Description)
			require.NotEmpty(t, resp.Message)
		})
	}
}

func TestValidateCronMalformedBody(t *testing.T) {
	t.Parallel()
	rec := do(t, newTestServer(t, nil), http.MethodPost, "/validate_cron", `{"cron":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateConfigSuccess(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, func(c *config.Config) { c.Builder.DefaultOwner = "data-eng" })

	body := `{
		"dag_config": {"dag_id": "etl", "start_date": "2024-01-01", "schedule_interval": "0 6 * * *", "tags": "a, b", "retries": "3"},
		"custom_objects": "{\"max_active_runs\": 2, // team default\n}",
		"tasks": [{"task_id": "extract"}, {"task_id": "load", "dependencies": "extract"}]
	}`
	rec := do(t, s, http.MethodPost, "/generate_config", body)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[generateResponse](t, rec)
	require.True(t, resp.Success, resp.Errors)
	require.Empty(t, resp.Errors)
	require.Contains(t, resp.Config, `"dag_id": "etl"`)
	require.Equal(t, "etl", resp.ConfigObject["dag_id"])
	require.EqualValues(t, 2, resp.ConfigObject["max_active_runs"])

	args, ok := resp.ConfigObject["default_args"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "data-eng", args["owner"])
	require.EqualValues(t, 3, args["retries"])
	require.Len(t, resp.ConfigObject["tasks"], 2)
}

func TestGenerateConfigYAML(t *testing.T) {
	t.Parallel()
	rec := do(t, newTestServer(t, nil), http.MethodPost, "/generate_config",
		`{"dag_config": {"dag_id": "etl", "start_date": "2024-01-01"}, "format": "yaml"}`)
	resp := decode[generateResponse](t, rec)
	require.True(t, resp.Success, resp.Errors)
	require.Contains(t, resp.Config, "dag_id: etl")
}

func TestGenerateConfigRejected(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	cases := map[string]struct {
		body string
		want []string
	}{
		"missing required": {
			body: `{"dag_config": {"schedule_interval": "61 * * * *"}}`,
			want: []string{"dag_id is required", "start_date is required"},
		},
		"bad overlay": {
			body: `{"dag_config": {"dag_id": "x", "start_date": "2024-01-01"}, "custom_objects": "[1]"}`,
			want: []string{"custom_objects"},
		},
		"bad format": {
			body: `{"dag_config": {"dag_id": "x", "start_date": "2024-01-01"}, "format": "toml"}`,
			want: []string{"toml"},
		},
		"cycle": {
			body: `{"dag_config": {"dag_id": "x", "start_date": "2024-01-01"},
				"tasks": [{"task_id": "a", "dependencies": ["b"]}, {"task_id": "b", "dependencies": ["a"]}]}`,
			want: []string{"cycle"},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			rec := do(t, s, http.MethodPost, "/generate_config", tc.body)
			require.Equal(t, http.StatusOK, rec.Code)
			resp := decode[generateResponse](t, rec)
			require.False(t, resp.Success)
			require.Empty(t, resp.Config)
			joined := strings.Join(resp.Errors, "\n")
			for _, w := range tc.want {
				require.Contains(t, joined, w)
			}
		})
	}
}

func TestGenerateConfigBadBody(t *testing.T) {
	t.Parallel()
	rec := do(t, newTestServer(t, nil), http.MethodPost, "/generate_config", `{"dag_config": [1,2]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[generateResponse](t, rec)
	require.False(t, resp.Success)
	require.NotEmpty(t, resp.Errors)
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, func(c *config.Config) { c.HTTP.MaxBodyBytes = 32 })
	body := `{"dag_config": {"description": "` + strings.Repeat("x", 64) + `"}}`
	rec := do(t, s, http.MethodPost, "/generate_config", body)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCatalogRoutes(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/task_templates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	templates := decode[map[string]map[string]any](t, rec)
	require.Contains(t, templates, "BashOperator")
	require.Equal(t, "default_db", templates["SqlOperator"]["conn_id"])

	rec = do(t, s, http.MethodGet, "/cron_options", "")
	require.Equal(t, http.StatusOK, rec.Code)
	opts := decode[[]map[string]string](t, rec)
	require.NotEmpty(t, opts)
	require.Equal(t, "0 0 * * *", opts[0]["cron"])
}

func TestRoutingErrors(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/nope", "").Code)
	require.Equal(t, http.StatusMethodNotAllowed, do(t, s, http.MethodGet, "/validate_cron", "").Code)
}

func TestRequestID(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/healthz", "")
	require.Len(t, rec.Header().Get(headerRequestID), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, "abc-123")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get(headerRequestID))
}

func TestHealthIncludesGoroutines(t *testing.T) {
	t.Parallel()
	s := New(config.Default(), logx.Nop(), WithHealth(func() any { return []string{"http"} }))
	rec := do(t, s, http.MethodGet, "/healthz", "")
	body := decode[map[string]any](t, rec)
	require.Equal(t, "ok", body["status"])
	require.Equal(t, []any{"http"}, body["goroutines"])
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, func(c *config.Config) {
		c.HTTP.RatePerSec = 0.001
		c.HTTP.Burst = 1
	})
	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz", "").Code)
	rec := do(t, s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))

	// Lifting the limit on reload takes effect immediately.
	cfg := config.Default()
	s.Reload(cfg)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz", "").Code)
}

func TestRecoverer(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	h := s.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("kaboom") }))
	rec := do(t, h, http.MethodPost, "/generate_config", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[generateResponse](t, rec)
	require.False(t, resp.Success)
	require.Equal(t, []string{"internal error: kaboom"}, resp.Errors)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	do(t, s, http.MethodPost, "/validate_cron", `{"cron":"* * * * *"}`)

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `dagforge_cron_validations_total{result="valid"} 1`)
	require.Contains(t, rec.Body.String(), `dagforge_http_requests_total{method="POST",route="/validate_cron",status="200"} 1`)

	s.Reload(func() *config.Config { c := config.Default(); c.Metrics.Enabled = false; return c }())
	require.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/metrics", "").Code)
}

func TestPprofAuth(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, func(c *config.Config) {
		c.Pprof.Enabled = true
		c.Pprof.Token = "s3cret"
	})

	require.Equal(t, http.StatusUnauthorized, do(t, s, http.MethodGet, "/debug/pprof/", "").Code)
	require.Equal(t, http.StatusUnauthorized, do(t, s, http.MethodGet, "/debug/pprof/?token=wrong", "").Code)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/debug/pprof/?token=s3cret", "").Code)

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, http.StatusPermanentRedirect, do(t, s, http.MethodGet, "/debug/pprof", "").Code)
}

func TestPprofLoopbackOnlyWithoutToken(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, func(c *config.Config) { c.Pprof.Enabled = true })

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req.RemoteAddr = "127.0.0.1:4000"
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
