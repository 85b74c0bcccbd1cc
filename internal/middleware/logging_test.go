package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// captureLogs routes the default logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func lastLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	if err := json.Unmarshal(lines[len(lines)-1], &entry); err != nil {
		t.Fatalf("decode log line %q: %v", lines[len(lines)-1], err)
	}
	return entry
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		path      string
		handler   http.HandlerFunc
		wantCode  int
		wantBytes float64
		wantLevel string
	}{
		{
			name: "public page", method: http.MethodGet, path: "/blog/first-home-tips",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("<h1>Tips</h1>")) },
			wantCode: http.StatusOK, wantBytes: 13, wantLevel: "INFO",
		},
		{
			name: "lead stored", method: http.MethodPost, path: "/contact",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusCreated) },
			wantCode: http.StatusCreated, wantLevel: "INFO",
		},
		{
			name: "missing post", method: http.MethodGet, path: "/blog/nope",
			handler:  func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) },
			wantCode: http.StatusNotFound, wantBytes: 19, wantLevel: "INFO",
		},
		{
			name: "upload failed", method: http.MethodPost, path: "/admin/posts/1/images",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			wantCode: http.StatusBadGateway, wantLevel: "ERROR",
		},
		{
			name: "first status wins", method: http.MethodGet, path: "/",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusAccepted)
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantCode: http.StatusAccepted, wantLevel: "INFO",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.RemoteAddr = "192.0.2.1:5555"
			rec := httptest.NewRecorder()

			Logger(tt.handler).ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("response status: got %d, want %d", rec.Code, tt.wantCode)
			}
			entry := lastLogLine(t, buf)
			if entry["msg"] != "http request" || entry["level"] != tt.wantLevel {
				t.Errorf("log line: %v", entry)
			}
			if entry["method"] != tt.method || entry["path"] != tt.path {
				t.Errorf("method/path: %v %v", entry["method"], entry["path"])
			}
			if entry["status"] != float64(tt.wantCode) {
				t.Errorf("logged status: got %v, want %d", entry["status"], tt.wantCode)
			}
			if entry["bytes"] != tt.wantBytes {
				t.Errorf("logged bytes: got %v, want %v", entry["bytes"], tt.wantBytes)
			}
			if entry["remote"] != "192.0.2.1" {
				t.Errorf("logged remote: got %v", entry["remote"])
			}
			if _, ok := entry["duration"].(string); !ok {
				t.Error("duration should be logged")
			}
		})
	}
}

func TestResponseWriterUnwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	if rw.Unwrap() != rec {
		t.Error("Unwrap should return the wrapped writer")
	}
	// Flush goes through http.ResponseController via Unwrap.
	if err := http.NewResponseController(rw).Flush(); err != nil {
		t.Errorf("Flush: %v", err)
	}
	if !rec.Flushed {
		t.Error("recorder should be flushed")
	}
}
