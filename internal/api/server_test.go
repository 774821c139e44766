package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/answerdesk/answerdesk/internal/docstore"
	"github.com/answerdesk/answerdesk/internal/generate"
	"github.com/answerdesk/answerdesk/internal/log"
	"github.com/answerdesk/answerdesk/internal/monitor"
	"github.com/answerdesk/answerdesk/internal/rag"
	"github.com/answerdesk/answerdesk/internal/ratelimit"
)

const testSecret = "test-admin-secret"

func seedDocs(t *testing.T, dir string) {
	t.Helper()
	docs := map[string]string{
		"pricing.md": "# Pricing\n\n" +
			"We offer three pricing tiers to match your team size.\n\n" +
			"Starter Plan - $29/month with basic analytics and email support.\n\n" +
			"Professional Plan - $79/month includes priority support and advanced analytics.",
		"refunds.md": "# Refund Policy\n\n" +
			"We offer a 30-day money-back guarantee on all new subscriptions.\n\n" +
			"Refunds are not available for subscriptions older than 30 days.",
		"getting-started.md": "# Getting Started\n\n" +
			"Sign up for an account and generate your API key from the Settings page.\n\n" +
			"Keep your API keys secure and use environment variables in production.",
	}
	for name, text := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o640))
	}
}

type serverOptions struct {
	rateLimit int
	mockDelay time.Duration
}

func newTestServer(t *testing.T, opts serverOptions) *Server {
	t.Helper()

	dir := t.TempDir()
	seedDocs(t, dir)

	logger := log.NewNop()
	store, err := docstore.New(dir, logger)
	require.NoError(t, err)

	index := rag.NewIndex(store, logger)
	require.NoError(t, index.Load())
	retriever := rag.NewRetriever(index, rag.NewScorer(nil), logger)

	limit := opts.rateLimit
	if limit == 0 {
		limit = 100
	}

	srv, err := NewServer(ServerConfig{
		Logger:      logger,
		Retriever:   retriever,
		Generator:   generate.NewMock(opts.mockDelay, "", logger),
		Limiter:     ratelimit.New(limit, time.Minute),
		Monitor:     monitor.NewCollector(),
		Store:       store,
		AdminSecret: testSecret,
	})
	require.NoError(t, err)
	return srv
}

func postChat(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func askBody(question string) string {
	b, _ := json.Marshal(map[string]any{
		"messages": []map[string]string{{"role": "user", "content": question}},
	})
	return string(b)
}

func decodeFrames(t *testing.T, body string) []generate.Event {
	t.Helper()
	var events []generate.Event
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		payload, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var ev generate.Event
		require.NoError(t, json.Unmarshal([]byte(payload), &ev))
		events = append(events, ev)
	}
	return events
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+testSecret)
	return req
}

func TestNewServer_MissingCollaborators(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestChat_FrameOrder(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	rec := postChat(t, srv, askBody("What are the pricing tiers?"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := decodeFrames(t, rec.Body.String())
	require.GreaterOrEqual(t, len(events), 3)

	assert.Equal(t, generate.EventStart, events[0].Type)
	for _, ev := range events[1 : len(events)-1] {
		assert.Equal(t, generate.EventChunk, ev.Type)
	}

	last := events[len(events)-1]
	assert.Equal(t, generate.EventEnd, last.Type)
	assert.Contains(t, last.Content, "$29/month")
	require.NotEmpty(t, last.Citations)
	assert.Equal(t, "pricing.md", last.Citations[0].Filename)
}

func TestChat_NoMatchingContent(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	rec := postChat(t, srv, askBody("Do you ship hardware devices?"))
	require.Equal(t, http.StatusOK, rec.Code)

	events := decodeFrames(t, rec.Body.String())
	last := events[len(events)-1]
	assert.Equal(t, generate.EventEnd, last.Type)
	assert.Empty(t, last.Citations)
	assert.Contains(t, last.Content, "don't have enough information")
}

func TestChat_InvalidRequests(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", "{not json"},
		{"no messages", `{"messages":[]}`},
		{"last message not user", `{"messages":[{"role":"assistant","content":"hi"}]}`},
		{"blank question", `{"messages":[{"role":"user","content":"   "}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postChat(t, srv, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}

	// Each rejection is recorded as an error sample.
	stats := srv.monitor.Snapshot()
	assert.Equal(t, len(tests), stats.TotalRequests)
	assert.InDelta(t, 1.0, stats.ErrorRate, 0.001)
}

func TestChat_RateLimited(t *testing.T) {
	srv := newTestServer(t, serverOptions{rateLimit: 2})

	for i, want := range []string{"1", "0"} {
		rec := postChat(t, srv, askBody("What are the pricing tiers?"))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
		assert.Equal(t, want, rec.Header().Get("X-RateLimit-Remaining"))
	}
	rec := postChat(t, srv, askBody("What are the pricing tiers?"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	// The rejection still counts as an error sample.
	stats := srv.monitor.Snapshot()
	assert.Equal(t, 3, stats.TotalRequests)
	assert.InDelta(t, 1.0/3.0, stats.ErrorRate, 0.001)
}

func TestIndexStatus_NoAuthRequired(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/index", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status rag.IndexStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Indexed)
	assert.Greater(t, status.ChunkCount, 0)
	assert.Contains(t, status.Documents, "pricing.md")
}

func TestAdminEndpoints_RequireAuth(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	requests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/index"},
		{http.MethodGet, "/api/monitoring"},
		{http.MethodPost, "/api/monitoring/reset"},
		{http.MethodGet, "/api/eval"},
		{http.MethodPost, "/api/upload"},
	}
	for _, tt := range requests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			rec = httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Authorization", "Bearer wrong-secret-value")
			srv.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestIndexRebuild(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodPost, "/api/index", nil)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool            `json:"success"`
		Status  rag.IndexStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.Status.Indexed)
}

func TestMonitoring_SnapshotAndReset(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	rec := postChat(t, srv, askBody("What are the pricing tiers?"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/monitoring", nil)))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats monitor.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalRequests)
	assert.GreaterOrEqual(t, stats.CitationsUsed["pricing.md"], 1)
	require.Len(t, stats.TopQueries, 1)
	assert.Equal(t, "What are the pricing tiers?", stats.TopQueries[0].Query)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodPost, "/api/monitoring/reset", nil)))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Zero(t, srv.monitor.Snapshot().TotalRequests)
}

func TestEval_AllCasesPass(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/eval", nil)))
	require.Equal(t, http.StatusOK, rec.Code)

	var summary rag.EvalSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 4, summary.TotalTests)
	assert.Equal(t, 4, summary.PassedTests)
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUpload_StoresAndReindexes(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	before := srv.retriever.Status().ChunkCount

	body, contentType := multipartBody(t, "shipping.md",
		"# Shipping\n\nWe ship physical starter kits worldwide within five business days.")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(req))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success bool     `json:"success"`
		Files   []string `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"shipping.md"}, resp.Files)

	status := srv.retriever.Status()
	assert.Greater(t, status.ChunkCount, before)
	assert.Contains(t, status.Documents, "shipping.md")
}

func TestUpload_RejectsNonMarkdown(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	body, contentType := multipartBody(t, "malware.exe", "not markdown")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(req))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), ".md")
}

func TestUpload_NoFiles(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "nothing attached"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(req))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestID_Stamped(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-ID"))
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "10.1.2.3:5555",
			want:       "10.1.2.3",
		},
		{
			name:       "forwarded headers ignored without trust",
			remoteAddr: "10.1.2.3:5555",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "10.1.2.3",
		},
		{
			name:       "x-real-ip wins with trust",
			remoteAddr: "10.1.2.3:5555",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			trustProxy: true,
			want:       "203.0.113.9",
		},
		{
			name:       "first forwarded-for entry",
			remoteAddr: "10.1.2.3:5555",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.1"},
			trustProxy: true,
			want:       "198.51.100.7",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req, tt.trustProxy))
		})
	}
}

func TestChat_ClientDisconnectRecordedOnce(t *testing.T) {
	srv := newTestServer(t, serverOptions{mockDelay: 20 * time.Millisecond})

	ts := httptest.NewServer(srv)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		ts.URL+"/api/chat", strings.NewReader(askBody("What are the pricing tiers?")))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	// Read the first frame, then walk away mid-stream.
	buf := make([]byte, 64)
	_, err = resp.Body.Read(buf)
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool {
		stats := srv.monitor.Snapshot()
		return stats.TotalRequests == 1 && stats.ErrorRate == 1.0
	}, 3*time.Second, 20*time.Millisecond, "disconnect should be recorded exactly once as an error")
}

func TestRecovery_PanicReturns500(t *testing.T) {
	srv := newTestServer(t, serverOptions{})
	srv.mux.HandleFunc("GET /boom", func(http.ResponseWriter, *http.Request) {
		panic(fmt.Errorf("kaboom"))
	})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
