package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthPingerNilIsNoop(t *testing.T) {
	logger, hook := newTestLogger()
	p := NewHealthPinger("", time.Second, logger)
	if p != nil {
		t.Fatal("empty url should produce a nil pinger")
	}
	if p.Ping(context.Background()) {
		t.Error("nil pinger should report false")
	}
	if len(hook.AllEntries()) != 0 {
		t.Error("nil pinger should not log")
	}
}

func TestHealthPingerSuccess(t *testing.T) {
	logger, hook := newTestLogger()
	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
	}))
	defer srv.Close()

	if !NewHealthPinger(srv.URL, time.Second, logger).Ping(context.Background()) {
		t.Fatal("ping should succeed")
	}
	if method != http.MethodGet {
		t.Errorf("method: got %s, want GET", method)
	}
	if len(hook.AllEntries()) != 0 {
		t.Error("successful ping should not log")
	}
}

func TestHealthPingerTimeout(t *testing.T) {
	logger, hook := newTestLogger()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	if NewHealthPinger(srv.URL, 20*time.Millisecond, logger).Ping(context.Background()) {
		t.Fatal("ping should time out")
	}
	if last := hook.LastEntry(); last == nil || last.Message != "Healthcheck ping failed" {
		t.Errorf("expected warning, got %v", last)
	}
}
