package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/matzehuels/orgchart/pkg/cache"
	orgerr "github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/org"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := New(ts.URL, WithBackoff(cache.Backoff{Attempts: 3, Delay: time.Millisecond}))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "ftp://example.com", "localhost:5000"} {
		if _, err := New(u); err == nil {
			t.Errorf("New(%q) should fail", u)
		}
	}
}

func TestFence(t *testing.T) {
	f := NewFence()
	a := f.Begin(ChannelSearch)
	if !f.Current(a) {
		t.Error("first ticket should be current")
	}
	b := f.Begin(ChannelSearch)
	if f.Current(a) {
		t.Error("older ticket should be stale")
	}
	if !f.Current(b) {
		t.Error("newest ticket should be current")
	}
	other := f.Begin(ChannelTree)
	if !f.Current(other) || !f.Current(b) {
		t.Error("channels should be independent")
	}
}

func TestEmployees(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/employees" {
			t.Errorf("path = %s", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, org.Employee{ID: "1", Name: "Ada", Children: []*org.Employee{{ID: "2", Name: "Grace"}}})
	}))
	root, err := c.Employees(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if root.ID != "1" || len(root.Children) != 1 {
		t.Errorf("root = %+v", root)
	}
}

func TestEmployeesNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no employee data available"})
	}))
	_, err := c.Employees(context.Background())
	if !orgerr.Is(err, orgerr.ErrCodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
	if got := orgerr.UserMessage(err); got != "no employee data available" {
		t.Errorf("message = %q", got)
	}
}

func TestSearchShortQuery(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, []org.Summary{})
	}))
	got, err := c.Search(context.Background(), " a ")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 || calls.Load() != 0 {
		t.Errorf("short query: %d results, %d calls", len(got), calls.Load())
	}
}

func TestSearchDiscardsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "slow" {
			close(started)
			<-release
		}
		writeJSON(w, http.StatusOK, []org.Summary{{ID: q, Name: q}})
	}))

	var wg sync.WaitGroup
	var slowErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, slowErr = c.Search(context.Background(), "slow")
	}()
	<-started

	fast, err := c.Search(context.Background(), "fast")
	if err != nil {
		t.Fatal(err)
	}
	if len(fast) != 1 || fast[0].ID != "fast" {
		t.Errorf("fast = %+v", fast)
	}
	close(release)
	wg.Wait()

	if !orgerr.Is(slowErr, orgerr.ErrCodeStaleResponse) {
		t.Errorf("slow err = %v, want STALE_RESPONSE", slowErr)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "busy"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"chartTitle": "Acme"})
	}))
	s, err := c.Settings(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.ChartTitle != "Acme" {
		t.Errorf("chartTitle = %q", s.ChartTitle)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing topUserEmail parameter"})
	}))
	_, err := c.SetTopUser(context.Background(), "x@example.com")
	if !orgerr.Is(err, orgerr.ErrCodeInvalidInput) {
		t.Errorf("err = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestSettingsMergedOverDefaults(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"nodeColors": map[string]string{"level0": "#000000"}})
	}))
	s, err := c.Settings(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.NodeColors["level0"] != "#000000" || s.NodeColors["level1"] == "" {
		t.Errorf("nodeColors = %v", s.NodeColors)
	}
	if !s.MultiLineChildrenEnabled {
		t.Error("missing fields should take defaults")
	}
}

func TestUnauthorizedMapping(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid password"})
		case "/api/auth-check":
			writeJSON(w, http.StatusUnauthorized, map[string]bool{"authenticated": false})
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
		}
	}))
	ctx := context.Background()

	if err := c.SetMultilineEnabled(ctx, false); !orgerr.Is(err, orgerr.ErrCodeSessionExpired) {
		t.Errorf("SetMultilineEnabled err = %v, want SESSION_EXPIRED", err)
	}
	if err := c.UpdateSettings(ctx, map[string]string{"chartTitle": "x"}); !orgerr.IsAuth(err) {
		t.Errorf("UpdateSettings err = %v, want auth error", err)
	}
	err := c.Login(ctx, "wrong")
	if !orgerr.Is(err, orgerr.ErrCodeUnauthorized) || orgerr.UserMessage(err) != "Invalid password" {
		t.Errorf("Login err = %v", err)
	}
	ok, err := c.AuthCheck(ctx)
	if err != nil || ok {
		t.Errorf("AuthCheck = %v, %v", ok, err)
	}
}

func TestSetMultilineBody(t *testing.T) {
	var got map[string]bool
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("%s %s", r.Method, r.Header.Get("Content-Type"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}))
	if err := c.SetMultilineEnabled(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if v, ok := got["multiLineChildrenEnabled"]; !ok || !v {
		t.Errorf("body = %v", got)
	}
}

func TestUpdateSettingsJSON(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}))
	if err := c.UpdateSettingsJSON(context.Background(), []byte(`{"chartTitle":"Acme"}`)); err != nil {
		t.Fatal(err)
	}
	if got["chartTitle"] != "Acme" {
		t.Errorf("body = %v", got)
	}
	if err := c.UpdateSettingsJSON(context.Background(), []byte(`{`)); !orgerr.Is(err, orgerr.ErrCodeInvalidSettings) {
		t.Errorf("invalid patch err = %v", err)
	}
}

func TestExportQuery(t *testing.T) {
	yes := true
	var query string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		if r.URL.Path != "/api/export/png" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", `attachment; filename="org-chart-2025-06-01.png"`)
		_, _ = w.Write([]byte("png"))
	}))
	f, err := c.Export(context.Background(), "png", ExportQuery{
		Orientation: "horizontal",
		FullChart:   true,
		Compact:     &yes,
		Scale:       1.5,
		Hidden:      []string{"3", "7"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if f.Filename != "org-chart-2025-06-01.png" || f.ContentType != "image/png" || string(f.Data) != "png" {
		t.Errorf("file = %+v", f)
	}
	want := "compact=true&full=true&hidden=3%2C7&orientation=horizontal&scale=1.5"
	if query != want {
		t.Errorf("query = %q, want %q", query, want)
	}
}

func TestSessionCookieKept(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login":
			http.SetCookie(w, &http.Cookie{Name: "orgchart_session", Value: "abc", Path: "/"})
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		case "/api/auth-check":
			if ck, err := r.Cookie("orgchart_session"); err == nil && ck.Value == "abc" {
				writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
				return
			}
			writeJSON(w, http.StatusUnauthorized, map[string]bool{"authenticated": false})
		}
	}))
	ctx := context.Background()
	if err := c.Login(ctx, "pw"); err != nil {
		t.Fatal(err)
	}
	ok, err := c.AuthCheck(ctx)
	if err != nil || !ok {
		t.Errorf("AuthCheck = %v, %v", ok, err)
	}
}
