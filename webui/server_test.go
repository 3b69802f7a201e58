package webui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// noAuth satisfies AuthProvider for routing tests that bypass auth.
type noAuth struct{}

func (noAuth) Handler(next http.Handler) http.Handler { return next }
func (noAuth) HandlerFunc(next http.HandlerFunc) http.HandlerFunc {
	return next
}

func newTestServer(t *testing.T) (*Server, *apiFixture) {
	t.Helper()
	f := setupAPI(t)
	logger := apiLogger(t)

	config := DefaultServerConfig()
	config.UploadsDir = t.TempDir()

	titlesAPI := NewTitlesAPI(f.titles, logger)
	refsAPI := NewReferencesAPI(f.refs, f.titles, logger)

	server := NewServer(
		config,
		noAuth{},
		func(mux *http.ServeMux) {},
		[]RouteRegistrar{titlesAPI, refsAPI},
		logger,
	)
	return server, f
}

func TestServer_Health(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("health body = %q", w.Body.String())
	}
}

func TestServer_RoutesAreRegistered(t *testing.T) {
	server, f := newTestServer(t)

	// noAuth passes requests through without a user in context, so a
	// registered route answers 401 rather than 404
	req := httptest.NewRequest(http.MethodGet, "/api/titles", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("/api/titles status = %d, want 401", w.Code)
	}

	req = authedRequest(http.MethodGet, "/api/titles", nil, f.userID)
	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed /api/titles status = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestServer_Addr(t *testing.T) {
	logger := apiLogger(t)
	config := DefaultServerConfig()
	config.Host = "127.0.0.1"
	config.Port = 4242

	server := NewServer(config, noAuth{}, func(mux *http.ServeMux) {}, nil, logger)
	if server.Addr() != "127.0.0.1:4242" {
		t.Errorf("Addr = %q", server.Addr())
	}
}

func TestParseIDSuffix(t *testing.T) {
	tests := []struct {
		path   string
		wantID int64
		wantOK bool
	}{
		{"/api/titles/7", 7, true},
		{"/api/titles/", 0, false},
		{"/api/titles/abc", 0, false},
		{"/api/titles/0", 0, false},
		{"/api/titles/-3", 0, false},
		{"/api/titles/7/sub", 0, false},
	}
	for _, tt := range tests {
		id, ok := parseIDSuffix(tt.path, "/api/titles/")
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("parseIDSuffix(%q) = (%d, %v), want (%d, %v)", tt.path, id, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestServer_ShutdownIsClean(t *testing.T) {
	server, _ := newTestServer(t)

	// Start on an unused port; Shutdown should unblock Start
	server.httpServer.Addr = "127.0.0.1:0"
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	time.Sleep(50 * time.Millisecond)

	if err := server.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start returned %v after shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}
