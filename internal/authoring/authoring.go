// Package authoring implements the editing operations an admin applies to a
// post's document. Every operation returns a new document value and leaves
// its input untouched; saving the result is the caller's job.
package authoring

import (
	"context"
	"errors"
	"fmt"

	"estatepress/internal/document"
)

// Uploader stores an image and returns the public URL to embed.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename string) (string, error)
}

// UploadError reports a failed image upload. The operator may retry; the
// upload itself is never retried here.
type UploadError struct {
	Filename string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %q: %v", e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// ErrNoUploader is wrapped in an UploadError when storage is not configured.
var ErrNoUploader = errors.New("object storage is not configured")

// ErrEmptyFile is wrapped in an UploadError for zero-byte uploads.
var ErrEmptyFile = errors.New("file is empty")

// AppendOrUpdateBlock replaces the block at *index when index is non-nil and
// in range, and appends block otherwise.
func AppendOrUpdateBlock(doc document.Document, index *int, block document.Block) document.Document {
	out := doc.Clone()
	if index != nil && *index >= 0 && *index < len(out.Blocks) {
		out.Blocks[*index] = block
		return out
	}
	out.Blocks = append(out.Blocks, block)
	return out
}

// RemoveBlock drops the block at index. Out-of-range indexes return an
// unchanged copy.
func RemoveBlock(doc document.Document, index int) document.Document {
	out := doc.Clone()
	if index < 0 || index >= len(out.Blocks) {
		return out
	}
	out.Blocks = append(out.Blocks[:index], out.Blocks[index+1:]...)
	return out
}

// MoveBlock moves the block at from so that it ends up at position to.
func MoveBlock(doc document.Document, from, to int) document.Document {
	out := doc.Clone()
	n := len(out.Blocks)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return out
	}
	b := out.Blocks[from]
	out.Blocks = append(out.Blocks[:from], out.Blocks[from+1:]...)
	out.Blocks = append(out.Blocks[:to], append([]document.Block{b}, out.Blocks[to:]...)...)
	return out
}

// RequestImageUpload hands the bytes to the storage collaborator once.
func RequestImageUpload(ctx context.Context, up Uploader, data []byte, filename string) (string, error) {
	if up == nil {
		return "", &UploadError{Filename: filename, Err: ErrNoUploader}
	}
	if len(data) == 0 {
		return "", &UploadError{Filename: filename, Err: ErrEmptyFile}
	}

	url, err := up.Upload(ctx, data, filename)
	if err != nil {
		var ue *UploadError
		if errors.As(err, &ue) {
			return "", ue
		}
		return "", &UploadError{Filename: filename, Err: err}
	}
	return url, nil
}

// InsertImage uploads an image and places an image block at index (or at
// the end). On failure the original document is returned as-is together
// with the *UploadError.
func InsertImage(ctx context.Context, doc document.Document, index *int, up Uploader, data []byte, filename, caption string) (document.Document, error) {
	url, err := RequestImageUpload(ctx, up, data, filename)
	if err != nil {
		return doc, err
	}

	img := document.Image{File: document.File{URL: url}, Caption: caption}
	return AppendOrUpdateBlock(doc, index, img), nil
}
