package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"estatepress/internal/authoring"
	"estatepress/internal/storage"
)

// multipartRequest builds a POST with a single "file" part plus fields.
func multipartRequest(t *testing.T, target, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write(data)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestMediaLibrary_NoStorage(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.Admin.MediaLibrary(rec, httptest.NewRequest(http.MethodGet, "/admin/media", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestMediaUpload_NoStorage(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.Admin.MediaUpload(rec, multipartRequest(t, "/admin/media", "a.png", []byte("x"), nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

// The editor image tool expects {"success":0} on failure.
func TestMediaEditorUpload_NoStorage(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.Admin.MediaEditorUpload(rec, multipartRequest(t, "/admin/media/editor-upload", "a.png", []byte("x"), nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusBadGateway)
	}
	var resp struct {
		Success int    `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success != 0 || resp.Error == "" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestMediaServe_NoStorage(t *testing.T) {
	env := newTestEnv(t)

	req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/admin/media/x", nil), "id", uuid.NewString())
	rec := httptest.NewRecorder()
	env.Admin.MediaServe(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestMediaDelete(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		id   string
		want int
	}{
		{"bad id", "nope", http.StatusBadRequest},
		{"missing", uuid.NewString(), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withChiURLParam(httptest.NewRequest(http.MethodDelete, "/admin/media/x", nil), "id", tt.id)
			rec := httptest.NewRecorder()
			env.Admin.MediaDelete(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestReadUpload(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		rec := httptest.NewRecorder()
		data, name, ok := readUpload(rec, multipartRequest(t, "/", "plan.pdf", []byte("%PDF-1.4"), nil), 1<<20)
		if !ok {
			t.Fatalf("unexpected failure: %d %s", rec.Code, rec.Body.String())
		}
		if name != "plan.pdf" || string(data) != "%PDF-1.4" {
			t.Errorf("got %q %q", name, data)
		}
	})

	t.Run("too large", func(t *testing.T) {
		rec := httptest.NewRecorder()
		_, _, ok := readUpload(rec, multipartRequest(t, "/", "big.jpg", bytes.Repeat([]byte("a"), 2048), nil), 1024)
		if ok || rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("got ok=%v status=%d, want 413", ok, rec.Code)
		}
	})

	t.Run("no file", func(t *testing.T) {
		rec := httptest.NewRecorder()
		_, _, ok := readUpload(rec, multipartRequest(t, "/", "", nil, map[string]string{"alt_text": "x"}), 1024)
		if ok || rec.Code != http.StatusBadRequest {
			t.Errorf("got ok=%v status=%d, want 400", ok, rec.Code)
		}
	})

	t.Run("not multipart", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("plain"))
		_, _, ok := readUpload(rec, req, 1024)
		if ok || rec.Code != http.StatusBadRequest {
			t.Errorf("got ok=%v status=%d, want 400", ok, rec.Code)
		}
	})
}

func TestUploadStatusAndMessage(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{fmt.Errorf("store: %w", storage.ErrTooLarge), http.StatusRequestEntityTooLarge, "File is too large."},
		{storage.ErrTypeNotAllowed, http.StatusBadRequest, "This file type is not allowed."},
		{storage.ErrEmpty, http.StatusBadRequest, "File is empty."},
		{authoring.ErrNoUploader, http.StatusInternalServerError, "Object storage is not configured."},
		{errors.New("s3 down"), http.StatusInternalServerError, "Upload failed. Please try again."},
	}
	for _, tt := range tests {
		if got := uploadStatus(tt.err); got != tt.status {
			t.Errorf("uploadStatus(%v) = %d, want %d", tt.err, got, tt.status)
		}
		if got := uploadMessage(tt.err); got != tt.message {
			t.Errorf("uploadMessage(%v) = %q, want %q", tt.err, got, tt.message)
		}
	}
}

func TestEditorUploadStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&authoring.UploadError{Filename: "a.exe", Err: storage.ErrTypeNotAllowed}, http.StatusBadRequest},
		{&authoring.UploadError{Filename: "a.png", Err: fmt.Errorf("put: %w", storage.ErrTooLarge)}, http.StatusRequestEntityTooLarge},
		{&authoring.UploadError{Filename: "a.png", Err: storage.ErrEmpty}, http.StatusBadRequest},
		{&authoring.UploadError{Filename: "a.png", Err: authoring.ErrEmptyFile}, http.StatusBadRequest},
		{&authoring.UploadError{Filename: "a.png", Err: authoring.ErrNoUploader}, http.StatusBadGateway},
		{&authoring.UploadError{Filename: "a.png", Err: errors.New("s3: connection reset")}, http.StatusBadGateway},
		{storage.ErrTypeNotAllowed, http.StatusBadRequest},
	}
	for _, tt := range tests {
		if got := editorUploadStatus(tt.err); got != tt.want {
			t.Errorf("editorUploadStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
