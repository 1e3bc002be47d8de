package service

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 20, G: 184, B: 166, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestUploadSaveStoresImage(t *testing.T) {
	dir := t.TempDir()
	svc := NewUploadService(dir, "/uploads/")

	uploaded, err := svc.Save(bytes.NewReader(pngBytes(t, 4, 3)), "image/png")
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if uploaded.Width != 4 || uploaded.Height != 3 || uploaded.Format != "png" {
		t.Fatalf("unexpected upload %+v", uploaded)
	}
	if !strings.HasPrefix(uploaded.URL, "/uploads/") || !strings.HasSuffix(uploaded.URL, ".png") {
		t.Fatalf("unexpected url %s", uploaded.URL)
	}
	if _, err := os.Stat(filepath.Join(dir, uploaded.FileName)); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
}

func TestUploadSaveRejectsNonImages(t *testing.T) {
	svc := NewUploadService(t.TempDir(), "/uploads")

	if _, err := svc.Save(strings.NewReader("hello"), "text/plain"); !errors.Is(err, ErrUploadNotImage) {
		t.Fatalf("expected ErrUploadNotImage for text/plain, got %v", err)
	}
	if _, err := svc.Save(strings.NewReader("not really a png"), "image/png"); !errors.Is(err, ErrUploadNotImage) {
		t.Fatalf("expected ErrUploadNotImage for bad bytes, got %v", err)
	}
	if _, err := svc.Save(strings.NewReader(""), "image/png"); !errors.Is(err, ErrUploadEmpty) {
		t.Fatalf("expected ErrUploadEmpty, got %v", err)
	}
}
