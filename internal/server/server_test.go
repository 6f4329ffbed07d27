package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/git-pkgs/compare/internal/core"
	"github.com/git-pkgs/compare/view"
)

type fakeRegistry struct {
	mu    sync.Mutex
	calls int
	fail  map[string]bool
}

func (f *fakeRegistry) Ecosystem() string { return "npm" }

func (f *fakeRegistry) URLs() core.URLBuilder {
	return &core.BaseURLs{
		RegistryFn: func(name, _ string) string { return "https://www.npmjs.com/package/" + name },
	}
}

func (f *fakeRegistry) FetchRecord(ctx context.Context, name string) (core.PackageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := ctx.Err(); err != nil {
		return core.PackageRecord{}, &core.FetchError{Ecosystem: "npm", Name: name, Err: err}
	}
	if f.fail[name] {
		return core.PackageRecord{}, &core.FetchError{Ecosystem: "npm", Name: name, Err: errors.New("downloads: HTTP 500")}
	}
	return core.PackageRecord{
		Name:        name,
		Version:     "1.0.0",
		Author:      core.UnknownAuthor,
		Maintainers: 1,
		Downloads: []core.DownloadSample{
			{Day: "2024-04-01", Downloads: 100},
			{Day: "2024-04-02", Downloads: 250},
		},
		Created:  time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Modified: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeRegistry) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type harness struct {
	registry *fakeRegistry
	server   *Server
	http     *httptest.Server
	client   *http.Client
	logs     *test.Hook
}

func newHarness(t *testing.T, maxSessions int) *harness {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	reg := &fakeRegistry{fail: map[string]bool{}}
	srv, err := New(Options{
		Registry:    reg,
		Client:      core.NewClient(),
		Logger:      logger,
		MaxSessions: maxSessions,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &harness{
		registry: reg,
		server:   srv,
		http:     ts,
		client:   &http.Client{Jar: jar},
		logs:     hook,
	}
}

func (h *harness) post(t *testing.T, path string, form url.Values) string {
	t.Helper()
	resp, err := h.client.PostForm(h.http.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func (h *harness) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := h.client.Get(h.http.URL + path)
	require.NoError(t, err)
	return resp
}

func (h *harness) page(t *testing.T) view.Page {
	t.Helper()
	resp := h.get(t, "/api/packages")
	defer resp.Body.Close()
	var p view.Page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	return p
}

func TestIndexPlaceholder(t *testing.T) {
	h := newHarness(t, 0)
	resp := h.get(t, "/")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Search and add packages to compare their statistics")

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie {
			found = true
		}
	}
	assert.True(t, found, "session cookie should be set")
}

func TestAddAndRemove(t *testing.T) {
	h := newHarness(t, 0)

	body := h.post(t, "/packages", url.Values{"name": {"react"}})
	assert.Contains(t, body, "<th>react</th>")
	assert.Contains(t, body, "350")

	h.post(t, "/packages", url.Values{"name": {"vue"}})
	p := h.page(t)
	assert.Equal(t, view.ModeComparison, p.Mode)
	assert.Equal(t, 2, p.Count)
	assert.Equal(t, []string{"react", "vue"}, p.Stats.Columns)
	assert.Equal(t, "https://www.npmjs.com/package/react", p.Cards[0].RegistryURL)

	h.post(t, "/packages/remove", url.Values{"name": {"react"}})
	h.post(t, "/packages/remove", url.Values{"name": {"vue"}})
	p = h.page(t)
	assert.Equal(t, view.ModeEmpty, p.Mode)
	assert.Zero(t, p.Count)
}

func TestAddSurvivesClientDisconnect(t *testing.T) {
	h := newHarness(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/packages", strings.NewReader("name=react")).WithContext(ctx)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req = httptest.NewRequest(http.MethodGet, "/api/packages", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)

	var p view.Page
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	assert.Equal(t, "idle", p.Status)
	assert.Empty(t, p.Banner)
	assert.Equal(t, 1, p.Count)
}

func TestDuplicateShowsBanner(t *testing.T) {
	h := newHarness(t, 0)
	h.post(t, "/packages", url.Values{"name": {"react"}})

	body := h.post(t, "/packages", url.Values{"name": {"react"}})
	assert.Contains(t, body, "Package already added to comparison")
	assert.Equal(t, 1, h.registry.callCount())

	p := h.page(t)
	assert.Equal(t, "error", p.Status)
	assert.Equal(t, 1, p.Count)

	h.post(t, "/dismiss", nil)
	p = h.page(t)
	assert.Equal(t, "idle", p.Status)
	assert.Empty(t, p.Banner)
}

func TestFetchFailure(t *testing.T) {
	h := newHarness(t, 0)
	h.registry.fail["broken"] = true

	body := h.post(t, "/packages", url.Values{"name": {"broken"}})
	assert.Contains(t, body, "Failed to fetch package data. Please try again.")
	assert.NotContains(t, body, "Search and add packages")

	var warned bool
	for _, e := range h.logs.AllEntries() {
		if e.Message == "package fetch failed" {
			warned = true
			assert.Equal(t, "broken", e.Data["package"])
			assert.EqualError(t, e.Data[logrus.ErrorKey].(error), "downloads: HTTP 500")
		}
	}
	assert.True(t, warned)
}

func TestSessionsAreIsolated(t *testing.T) {
	h := newHarness(t, 0)
	h.post(t, "/packages", url.Values{"name": {"react"}})

	other := &http.Client{}
	resp, err := other.Get(h.http.URL + "/api/packages")
	require.NoError(t, err)
	defer resp.Body.Close()

	var p view.Page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	assert.Zero(t, p.Count)
	assert.Equal(t, 1, h.page(t).Count)
}

func TestSessionEviction(t *testing.T) {
	h := newHarness(t, 1)
	h.post(t, "/packages", url.Values{"name": {"react"}})

	resp, err := (&http.Client{}).Get(h.http.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	// The first session was evicted; its cookie now starts a fresh one.
	assert.Zero(t, h.page(t).Count)
}

func TestHealth(t *testing.T) {
	h := newHarness(t, 0)
	resp := h.get(t, "/healthz")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got health
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "ok", got.Status)
	assert.Equal(t, "npm", got.Ecosystem)
}

func TestMetrics(t *testing.T) {
	h := newHarness(t, 0)
	h.registry.fail["broken"] = true
	h.post(t, "/packages", url.Values{"name": {"react"}})
	h.post(t, "/packages", url.Values{"name": {"react"}})
	h.post(t, "/packages", url.Values{"name": {"broken"}})

	resp := h.get(t, "/metrics")
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	out := string(body)

	assert.Contains(t, out, `pkgcompare_searches_total{result="added"} 1`)
	assert.Contains(t, out, `pkgcompare_searches_total{result="duplicate"} 1`)
	assert.Contains(t, out, `pkgcompare_searches_total{result="failed"} 1`)
	assert.Contains(t, out, "pkgcompare_sessions 1")
}

func TestNewRequiresRegistry(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestRecoverer(t *testing.T) {
	h := newHarness(t, 0)
	h.server.router.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })

	resp := h.get(t, "/panic")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
