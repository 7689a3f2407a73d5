package upload

import (
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// PublicPath is the URL prefix uploaded files are served under.
const PublicPath = "/public/uploads"

var ErrInvalidType = errors.New("Invalid Image Type")

var fileTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/jpg":  "jpg",
}

// Storage keeps uploaded product images on local disk.
type Storage struct {
	dir string
	now func() time.Time
}

func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Storage{dir: dir, now: time.Now}, nil
}

func (s *Storage) Dir() string {
	return s.dir
}

// FileName derives the stored name: spaces become dashes and a
// millisecond timestamp plus the canonical extension are appended.
func (s *Storage) FileName(file *multipart.FileHeader) (string, error) {
	ext, ok := fileTypes[file.Header.Get("Content-Type")]
	if !ok {
		return "", ErrInvalidType
	}
	name := strings.ReplaceAll(filepath.Base(file.Filename), " ", "-")
	return fmt.Sprintf("%s-%d.%s", name, s.now().UnixMilli(), ext), nil
}

// Save stores the file and returns its public URL for the request's host.
func (s *Storage) Save(c *gin.Context, file *multipart.FileHeader) (string, error) {
	name, err := s.FileName(file)
	if err != nil {
		return "", err
	}
	if err := c.SaveUploadedFile(file, filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", file.Filename, err)
	}
	return BaseURL(c) + name, nil
}

// SaveAll stores the files in order and stops at the first failure.
func (s *Storage) SaveAll(c *gin.Context, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := s.Save(c, f)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// BaseURL is <scheme>://<host>/public/uploads/ for the current request.
func BaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if fwd := c.GetHeader("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return fmt.Sprintf("%s://%s%s/", scheme, c.Request.Host, PublicPath)
}
