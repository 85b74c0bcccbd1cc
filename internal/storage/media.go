package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"estatepress/internal/imaging"
	"estatepress/internal/models"
)

const (
	// MaxLibraryUpload is the size limit for the media library.
	MaxLibraryUpload = 50 << 20

	// MaxEditorUpload is the size limit for images dropped into a post.
	MaxEditorUpload = 10 << 20
)

var (
	ErrTooLarge       = errors.New("file is too large")
	ErrTypeNotAllowed = errors.New("file type is not allowed")
	ErrEmpty          = errors.New("file is empty")
)

// allowedTypes maps accepted content types to the key extension.
var allowedTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/svg+xml":   ".svg",
	"application/pdf": ".pdf",
}

// Objects is the part of Client the media service needs.
type Objects interface {
	Upload(ctx context.Context, bucket, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, bucket, key string) error
	FileURL(key string) string
	PublicBucket() string
	PrivateBucket() string
	ExtractS3Key(rawURL string) (string, bool)
}

// Recorder persists media metadata.
type Recorder interface {
	Create(m *models.Media) (*models.Media, error)
	AttachByKey(key string, postID uuid.UUID) (bool, error)
}

// Upload describes one file to store.
type Upload struct {
	Data       []byte
	Filename   string
	AltText    string
	Private    bool
	ImagesOnly bool
	MaxSize    int64
	PostID     *uuid.UUID
	UploaderID uuid.UUID
}

// Media uploads files to object storage and records them.
type Media struct {
	objects  Objects
	recorder Recorder
	now      func() time.Time
}

// NewMedia creates a media service.
func NewMedia(objects Objects, recorder Recorder) *Media {
	return &Media{objects: objects, recorder: recorder, now: time.Now}
}

// DetectType sniffs the content type of data, ignoring the filename.
func DetectType(data []byte) string {
	t := mimetype.Detect(data).String()
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

// Store validates, uploads and records a file. The original is uploaded
// first, then a thumbnail for raster images (best effort), then the row.
// If the row cannot be written the uploaded objects are removed again.
func (m *Media) Store(ctx context.Context, up Upload) (*models.Media, error) {
	if len(up.Data) == 0 {
		return nil, ErrEmpty
	}
	if up.MaxSize > 0 && int64(len(up.Data)) > up.MaxSize {
		return nil, fmt.Errorf("%w: limit is %d MB", ErrTooLarge, up.MaxSize>>20)
	}

	contentType := DetectType(up.Data)
	ext, ok := allowedTypes[contentType]
	if !ok || (up.ImagesOnly && !strings.HasPrefix(contentType, "image/")) {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotAllowed, contentType)
	}

	bucket := m.objects.PublicBucket()
	if up.Private {
		bucket = m.objects.PrivateBucket()
	}

	now := m.now()
	fileID := uuid.New().String()
	dir := fmt.Sprintf("media/%d/%02d", now.Year(), now.Month())
	key := dir + "/" + fileID + ext

	if err := m.objects.Upload(ctx, bucket, key, contentType, bytes.NewReader(up.Data), int64(len(up.Data))); err != nil {
		return nil, err
	}

	var thumbKey *string
	if imaging.Thumbnailable(contentType) {
		thumbKey = m.uploadThumbnail(ctx, bucket, dir+"/"+fileID+"_thumb.jpg", up.Data)
	}

	rec := &models.Media{
		Filename:     fileID + ext,
		OriginalName: originalName(up.Filename, fileID+ext),
		ContentType:  contentType,
		SizeBytes:    int64(len(up.Data)),
		Bucket:       bucket,
		S3Key:        key,
		ThumbS3Key:   thumbKey,
		PostID:       up.PostID,
		UploaderID:   up.UploaderID,
	}
	if alt := strings.TrimSpace(up.AltText); alt != "" {
		rec.AltText = &alt
	}

	created, err := m.recorder.Create(rec)
	if err != nil {
		m.cleanup(bucket, key, thumbKey)
		return nil, fmt.Errorf("record media: %w", err)
	}
	return created, nil
}

// upload stores an editor image in the public bucket and returns its URL.
func (m *Media) upload(ctx context.Context, data []byte, filename string, postID *uuid.UUID, uploader uuid.UUID) (string, error) {
	rec, err := m.Store(ctx, Upload{
		Data:       data,
		Filename:   filename,
		ImagesOnly: true,
		MaxSize:    MaxEditorUpload,
		PostID:     postID,
		UploaderID: uploader,
	})
	if err != nil {
		return "", err
	}
	return m.objects.FileURL(rec.S3Key), nil
}

// ForPost binds the service to one post and uploader for editor uploads.
func (m *Media) ForPost(postID *uuid.UUID, uploader uuid.UUID) *EditorUploader {
	return &EditorUploader{media: m, postID: postID, uploader: uploader}
}

// EditorUploader uploads images dropped into the post editor.
type EditorUploader struct {
	media    *Media
	postID   *uuid.UUID
	uploader uuid.UUID
}

// Upload stores one image and returns its public URL.
func (u *EditorUploader) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	return u.media.upload(ctx, data, filename, u.postID, u.uploader)
}

func (m *Media) uploadThumbnail(ctx context.Context, bucket, key string, data []byte) *string {
	thumb, err := imaging.Thumbnail(data, imaging.ThumbWidth)
	if err != nil {
		slog.Warn("thumbnail generation failed", "error", err, "key", key)
		return nil
	}
	if thumb == nil {
		return nil
	}
	if err := m.objects.Upload(ctx, bucket, key, "image/jpeg", bytes.NewReader(thumb), int64(len(thumb))); err != nil {
		slog.Warn("thumbnail upload failed", "error", err, "key", key)
		return nil
	}
	return &key
}

// cleanup runs on a fresh context so a cancelled request still removes the
// orphaned objects.
func (m *Media) cleanup(bucket, key string, thumbKey *string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := m.objects.Delete(ctx, bucket, key); err != nil {
		slog.Warn("orphan object cleanup failed", "error", err, "key", key)
	}
	if thumbKey != nil {
		if err := m.objects.Delete(ctx, bucket, *thumbKey); err != nil {
			slog.Warn("orphan thumbnail cleanup failed", "error", err, "key", *thumbKey)
		}
	}
}

// Remove deletes the objects behind a media row. Failures are logged only.
func (m *Media) Remove(ctx context.Context, rec *models.Media) {
	if err := m.objects.Delete(ctx, rec.Bucket, rec.S3Key); err != nil {
		slog.Warn("s3 original delete failed", "error", err, "key", rec.S3Key)
	}
	if rec.ThumbS3Key != nil {
		if err := m.objects.Delete(ctx, rec.Bucket, *rec.ThumbS3Key); err != nil {
			slog.Warn("s3 thumbnail delete failed", "error", err, "key", *rec.ThumbS3Key)
		}
	}
}

// LinkFeatured attaches the library item behind a featured image URL to
// postID. URLs outside the public bucket are ignored. Failures are logged;
// the link only affects what the editor lists.
func (m *Media) LinkFeatured(rawURL string, postID uuid.UUID) bool {
	key, ok := m.objects.ExtractS3Key(rawURL)
	if !ok {
		return false
	}
	linked, err := m.recorder.AttachByKey(key, postID)
	if err != nil {
		slog.Warn("link featured image failed", "error", err, "key", key, "post_id", postID)
		return false
	}
	return linked
}

// URL returns the public URL of a media row, or "" for private media.
func (m *Media) URL(rec *models.Media) string {
	if rec.Bucket != m.objects.PublicBucket() {
		return ""
	}
	return m.objects.FileURL(rec.S3Key)
}

// ThumbURL returns the public thumbnail URL, falling back to the original.
func (m *Media) ThumbURL(rec *models.Media) string {
	if rec.Bucket != m.objects.PublicBucket() {
		return ""
	}
	if rec.ThumbS3Key != nil {
		return m.objects.FileURL(*rec.ThumbS3Key)
	}
	return m.objects.FileURL(rec.S3Key)
}

func originalName(name, fallback string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "" || name == "." || name == "/" {
		return fallback
	}
	return name
}
