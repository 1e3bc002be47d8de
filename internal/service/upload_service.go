package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

const maxUploadBytes = 10 << 20

var (
	ErrUploadNotImage = errors.New("only image uploads are allowed")
	ErrUploadTooLarge = errors.New("image exceeds the 10MB limit")
	ErrUploadEmpty    = errors.New("no image provided")
)

var imageExtensions = map[string]string{
	"png":  ".png",
	"jpeg": ".jpg",
	"gif":  ".gif",
	"webp": ".webp",
}

// UploadedImage describes a stored image.
type UploadedImage struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
	Size     int64  `json:"size"`
}

// UploadService stores images on the local filesystem.
type UploadService struct {
	dir     string
	baseURL string
	now     func() time.Time
}

// NewUploadService writes files under dir and serves them at baseURL.
func NewUploadService(dir, baseURL string) *UploadService {
	baseURL = "/" + strings.Trim(strings.TrimSpace(baseURL), "/")
	return &UploadService{dir: dir, baseURL: baseURL, now: time.Now}
}

// Save validates r as an image and writes it with a fresh name. The
// contentType is the client-declared type and must be image/*.
func (s *UploadService) Save(r io.Reader, contentType string) (*UploadedImage, error) {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/") {
		return nil, ErrUploadNotImage
	}

	data, err := io.ReadAll(io.LimitReader(r, maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrUploadEmpty
	}
	if len(data) > maxUploadBytes {
		return nil, ErrUploadTooLarge
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrUploadNotImage
	}
	ext, ok := imageExtensions[format]
	if !ok {
		return nil, ErrUploadNotImage
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s%s", s.now().Format("20060102"), uuid.NewString(), ext)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}

	return &UploadedImage{
		URL:      path.Join(s.baseURL, name),
		FileName: name,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Format:   format,
		Size:     int64(len(data)),
	}, nil
}
