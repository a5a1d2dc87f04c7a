package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type staticStatus struct {
	status string
	err    error
}

func (s staticStatus) Status(context.Context) (string, error) {
	return s.status, s.err
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	HandleHealth(context.Background()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 got %d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"status":"ok"}` {
		t.Errorf("unexpected body %q", got)
	}
}

func TestHandleStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		source staticStatus
		code   int
		body   string
	}{
		{name: "status", method: http.MethodGet, source: staticStatus{status: "15e"}, code: http.StatusOK, body: "15e"},
		{name: "empty", method: http.MethodGet, source: staticStatus{status: "0"}, code: http.StatusOK, body: "0"},
		{name: "store_error", method: http.MethodGet, source: staticStatus{err: errors.New("boom")}, code: http.StatusInternalServerError},
		{name: "post", method: http.MethodPost, source: staticStatus{status: "1"}, code: http.StatusMethodNotAllowed},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			HandleStatus(context.Background(), tc.source).ServeHTTP(rec, httptest.NewRequest(tc.method, "/api/v1/", nil))

			if rec.Code != tc.code {
				t.Fatalf("expected %d got %d", tc.code, rec.Code)
			}
			if tc.code != http.StatusOK {
				return
			}
			if ct := rec.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
				t.Errorf("unexpected content type %q", ct)
			}
			if got := rec.Body.String(); got != tc.body {
				t.Errorf("expected body %q got %q", tc.body, got)
			}
		})
	}
}

func TestHandleStatusExactPath(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.Handle(StatusPath, HandleStatus(context.Background(), staticStatus{status: "15"}))

	for _, target := range []string{"/api/v1/typo", "/api/v1/question/extra"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404 got %d", target, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, StatusPath, nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "15" {
		t.Errorf("expected 200 %q got %d %q", "15", rec.Code, rec.Body.String())
	}
}

func TestServeHTTPShutdown(t *testing.T) {
	t.Parallel()

	srv, err := New("0")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", HandleStatus(context.Background(), staticStatus{status: "0"}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.ServeHTTP(ctx, &http.Server{Handler: mux})
	}()

	resp, err := http.Get("http://127.0.0.1:" + srv.Port() + "/api/v1/")
	if err != nil {
		cancel()
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "0" {
		t.Errorf("expected body %q got %q", "0", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
