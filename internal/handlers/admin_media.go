package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"estatepress/internal/authoring"
	"estatepress/internal/models"
	"estatepress/internal/render"
	"estatepress/internal/storage"
	"estatepress/internal/store"
)

// presignExpiry is how long a presigned URL for a private file is valid.
const presignExpiry = 1 * time.Hour

// mediaView is a media row with its resolved URLs for the templates.
type mediaView struct {
	models.Media
	URL      string
	ThumbURL string
}

func (a *Admin) view(m *models.Media) mediaView {
	return mediaView{Media: *m, URL: a.media.URL(m), ThumbURL: a.media.ThumbURL(m)}
}

// postImages lists the images uploaded from a post's editor. Failures only
// hide the strip on the edit page.
func (a *Admin) postImages(postID uuid.UUID) []mediaView {
	if a.media == nil {
		return nil
	}
	items, err := a.mediaStore.ListByPost(postID)
	if err != nil {
		slog.Warn("list post images failed", "error", err, "post_id", postID)
		return nil
	}
	views := make([]mediaView, 0, len(items))
	for i := range items {
		views = append(views, a.view(&items[i]))
	}
	return views
}

// MediaLibrary renders the uploaded files.
func (a *Admin) MediaLibrary(w http.ResponseWriter, r *http.Request) {
	if a.media == nil {
		a.renderer.Page(w, r, "media_library", &render.PageData{
			Title:   "Media",
			Section: "media",
			Data:    map[string]any{"NoStorage": true},
		})
		return
	}

	page := pageParam(r)
	items, err := a.mediaStore.List(mediaPerPage, (page-1)*mediaPerPage)
	if err != nil {
		slog.Error("list media failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	views := make([]mediaView, 0, len(items))
	for i := range items {
		views = append(views, a.view(&items[i]))
	}

	a.renderer.Page(w, r, "media_library", &render.PageData{
		Title:   "Media",
		Section: "media",
		Data:    map[string]any{"Items": views},
	})
}

// MediaUpload stores a library upload and answers with its card, which
// HTMX prepends to the grid.
func (a *Admin) MediaUpload(w http.ResponseWriter, r *http.Request) {
	if a.media == nil {
		writeJSONError(w, "Object storage is not configured.", http.StatusServiceUnavailable)
		return
	}

	data, filename, ok := readUpload(w, r, storage.MaxLibraryUpload)
	if !ok {
		return
	}

	rec, err := a.media.Store(r.Context(), storage.Upload{
		Data:       data,
		Filename:   filename,
		AltText:    r.FormValue("alt_text"),
		Private:    r.FormValue("bucket") == "private",
		MaxSize:    storage.MaxLibraryUpload,
		UploaderID: sessionUserID(r),
	})
	if err != nil {
		status := uploadStatus(err)
		if status == http.StatusInternalServerError {
			slog.Error("media upload failed", "error", err, "filename", filename)
		}
		writeJSONError(w, uploadMessage(err), status)
		return
	}
	slog.Info("media uploaded", "id", rec.ID, "type", rec.ContentType, "size", rec.SizeBytes)

	// Pointer so the template reaches the *models.Media methods.
	item := a.view(rec)
	a.renderer.PageStatus(w, r, http.StatusCreated, "media_card", &render.PageData{
		Title:   "Media",
		Section: "media",
		Data:    map[string]any{"Item": &item},
	})
}

// MediaEditorUpload accepts an image from the block editor's image tool
// and answers in the shape that tool expects.
func (a *Admin) MediaEditorUpload(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := readUpload(w, r, storage.MaxEditorUpload)
	if !ok {
		return
	}

	var postID *uuid.UUID
	if id, err := uuid.Parse(r.FormValue("post_id")); err == nil {
		postID = &id
	}

	var uploader authoring.Uploader
	if a.media != nil {
		uploader = a.media.ForPost(postID, sessionUserID(r))
	}

	url, err := authoring.RequestImageUpload(r.Context(), uploader, data, filename)
	if err != nil {
		slog.Warn("editor upload failed", "error", err)
		writeJSON(w, editorUploadStatus(err), map[string]any{
			"success": 0,
			"error":   uploadMessage(err),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": 1,
		"file":    map[string]string{"url": url},
	})
}

// linkFeaturedImage lists a library image used as featured image among the
// post's images.
func (a *Admin) linkFeaturedImage(p *models.BlogPost) {
	if a.media == nil || p.FeaturedImageURL == nil {
		return
	}
	if a.media.LinkFeatured(*p.FeaturedImageURL, p.ID) {
		slog.Debug("featured image linked", "post_id", p.ID)
	}
}

// MediaDelete removes a media row and then its objects. HTMX gets an
// empty 200 so the card is swapped out.
func (a *Admin) MediaDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	deleted, err := a.mediaStore.Delete(id)
	if err != nil {
		slog.Error("media db delete failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if deleted == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	if a.media != nil {
		a.media.Remove(r.Context(), deleted)
	}
	a.cacheLog.Log(store.CacheEntityMedia, deleted.ID, "delete")

	w.WriteHeader(http.StatusOK)
}

// MediaServe redirects to the file. Public files go to their direct URL,
// private ones to a short-lived presigned URL.
func (a *Admin) MediaServe(w http.ResponseWriter, r *http.Request) {
	if a.storageClient == nil {
		http.Error(w, "Object storage is not configured.", http.StatusServiceUnavailable)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	m, err := a.mediaStore.FindByID(id)
	if err != nil {
		slog.Error("media lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if m == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	if m.Bucket == a.storageClient.PublicBucket() {
		http.Redirect(w, r, a.storageClient.FileURL(m.S3Key), http.StatusFound)
		return
	}

	presigned, err := a.storageClient.PresignedURL(r.Context(), m.Bucket, m.S3Key, presignExpiry)
	if err != nil {
		slog.Error("presign failed", "error", err, "key", m.S3Key)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, presigned, http.StatusFound)
}

// readUpload reads the multipart "file" field, capped at limit bytes. On
// failure it writes a JSON error and returns false.
func readUpload(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, string, bool) {
	tooLarge := fmt.Sprintf("File too large. Maximum size is %d MB.", limit>>20)

	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSONError(w, tooLarge, http.StatusRequestEntityTooLarge)
			return nil, "", false
		}
		writeJSONError(w, "Expected a multipart upload.", http.StatusBadRequest)
		return nil, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "No file provided.", http.StatusBadRequest)
		return nil, "", false
	}
	defer file.Close()

	if header.Size > limit {
		writeJSONError(w, tooLarge, http.StatusRequestEntityTooLarge)
		return nil, "", false
	}

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		writeJSONError(w, "Failed to read file.", http.StatusInternalServerError)
		return nil, "", false
	}
	if int64(len(data)) > limit {
		writeJSONError(w, tooLarge, http.StatusRequestEntityTooLarge)
		return nil, "", false
	}
	return data, header.Filename, true
}

// uploadStatus maps storage validation errors to client statuses.
func uploadStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, storage.ErrTypeNotAllowed), errors.Is(err, storage.ErrEmpty):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// editorUploadStatus maps an editor upload failure to a status. Rejected
// files are the client's fault; anything else is a storage failure.
func editorUploadStatus(err error) int {
	if errors.Is(err, authoring.ErrEmptyFile) {
		return http.StatusBadRequest
	}
	if status := uploadStatus(err); status != http.StatusInternalServerError {
		return status
	}
	return http.StatusBadGateway
}

// uploadMessage is the operator-facing text for an upload failure.
func uploadMessage(err error) string {
	switch {
	case errors.Is(err, authoring.ErrNoUploader):
		return "Object storage is not configured."
	case errors.Is(err, authoring.ErrEmptyFile), errors.Is(err, storage.ErrEmpty):
		return "File is empty."
	case errors.Is(err, storage.ErrTooLarge):
		return "File is too large."
	case errors.Is(err, storage.ErrTypeNotAllowed):
		return "This file type is not allowed."
	default:
		return "Upload failed. Please try again."
	}
}

func parseIndex(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
