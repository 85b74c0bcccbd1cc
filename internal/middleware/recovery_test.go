// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecoverer(t *testing.T) {
	panics := []struct {
		name  string
		value any
	}{
		{"string", "template: post.html: nil block"},
		{"error", errors.New("document: unexpected block")},
		{"int", 42},
	}

	for _, tt := range panics {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)
			h := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(tt.value)
			}))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blog/broken", nil))

			if rec.Code != http.StatusInternalServerError {
				t.Errorf("status: got %d, want 500", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "Internal Server Error") {
				t.Errorf("body: got %q", rec.Body.String())
			}

			entry := lastLogLine(t, buf)
			if entry["msg"] != "panic recovered" || entry["level"] != "ERROR" {
				t.Errorf("log line: %v", entry)
			}
			if entry["path"] != "/blog/broken" {
				t.Errorf("logged path: got %v", entry["path"])
			}
			if stack, _ := entry["stack"].(string); !strings.Contains(stack, "goroutine") {
				t.Error("stack trace should be logged")
			}
		})
	}
}

func TestRecovererPassThrough(t *testing.T) {
	buf := captureLogs(t)
	next, called := okHandler()

	rec := httptest.NewRecorder()
	Recoverer(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !*called || rec.Code != http.StatusOK {
		t.Errorf("called=%v status=%d", *called, rec.Code)
	}
	if buf.Len() != 0 {
		t.Errorf("nothing should be logged, got %s", buf.String())
	}
}

// http.ErrAbortHandler must reach net/http untouched.
func TestRecovererRepanicsAbortHandler(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", rec)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/feed.xml", nil))
	t.Error("ServeHTTP should have panicked")
}

// Logger outside Recoverer still sees the 500.
func TestRecovererInsideLogger(t *testing.T) {
	buf := captureLogs(t)
	h := Logger(Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))

	entry := lastLogLine(t, buf)
	if entry["msg"] != "http request" || entry["status"] != float64(http.StatusInternalServerError) {
		t.Errorf("request log: %v", entry)
	}
}
