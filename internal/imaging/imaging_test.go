package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestThumbnailScalesDown(t *testing.T) {
	thumb, err := Thumbnail(pngBytes(t, 800, 600), 400)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	if thumb == nil {
		t.Fatal("expected thumbnail data")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(thumb))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %q, want jpeg", format)
	}
	if cfg.Width != 400 || cfg.Height != 300 {
		t.Errorf("size = %dx%d, want 400x300", cfg.Width, cfg.Height)
	}
}

func TestThumbnailSkipsSmallImages(t *testing.T) {
	tests := []struct {
		name  string
		width int
	}{
		{"smaller", 120},
		{"exact", 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thumb, err := Thumbnail(pngBytes(t, tt.width, 50), 400)
			if err != nil {
				t.Fatalf("Thumbnail: %v", err)
			}
			if thumb != nil {
				t.Error("expected nil thumbnail for an image that is not wider than the limit")
			}
		})
	}
}

func TestThumbnailDefaultWidth(t *testing.T) {
	thumb, err := Thumbnail(pngBytes(t, 1000, 10), 0)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	w, _, err := Dimensions(thumb)
	if err != nil {
		t.Fatalf("Dimensions: %v", err)
	}
	if w != ThumbWidth {
		t.Errorf("width = %d, want %d", w, ThumbWidth)
	}
}

func TestThumbnailRejectsGarbage(t *testing.T) {
	if _, err := Thumbnail([]byte("not an image"), 400); err == nil {
		t.Error("expected error for undecodable data")
	}
}

func TestThumbnailable(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"image/jpeg", true},
		{"image/png", true},
		{"image/webp", true},
		{"image/gif", false},
		{"image/svg+xml", false},
		{"application/pdf", false},
	}
	for _, tt := range tests {
		if got := Thumbnailable(tt.contentType); got != tt.want {
			t.Errorf("Thumbnailable(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}
