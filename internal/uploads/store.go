// Package uploads keeps onboarding documents on local disk and hands back
// the public URL they are served from.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Document kinds double as sub-directory names.
const (
	KindResume = "resume"
	KindPhoto  = "photoId"
)

var allowedExtensions = map[string]map[string]bool{
	KindResume: {".pdf": true, ".doc": true, ".docx": true},
	KindPhoto:  {".jpg": true, ".jpeg": true, ".png": true, ".pdf": true},
}

// ErrRejected marks uploads refused for type or size.
type ErrRejected struct {
	Reason string
}

func (e *ErrRejected) Error() string {
	return e.Reason
}

// Store persists uploaded files.
type Store interface {
	Save(kind string, file *multipart.FileHeader) (string, error)
	Remove(url string) error
}

// DiskStore writes under Dir and publishes under PublicURL.
type DiskStore struct {
	Dir       string
	PublicURL string
	MaxBytes  int64
}

// NewDiskStore builds a store.
func NewDiskStore(dir, publicURL string, maxBytes int64) *DiskStore {
	return &DiskStore{Dir: dir, PublicURL: strings.TrimRight(publicURL, "/"), MaxBytes: maxBytes}
}

// Save copies the file under a random name and returns its public URL.
// A nil or empty file yields an empty URL.
func (s *DiskStore) Save(kind string, file *multipart.FileHeader) (string, error) {
	if file == nil || file.Size == 0 {
		return "", nil
	}
	allowed, ok := allowedExtensions[kind]
	if !ok {
		return "", fmt.Errorf("unknown upload kind %q", kind)
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowed[ext] {
		return "", &ErrRejected{Reason: fmt.Sprintf("%s: file type %q not allowed", kind, ext)}
	}
	if s.MaxBytes > 0 && file.Size > s.MaxBytes {
		return "", &ErrRejected{Reason: fmt.Sprintf("%s: file exceeds %d bytes", kind, s.MaxBytes)}
	}

	dir := filepath.Join(s.Dir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := kind + "_" + uuid.NewString() + ext

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return path.Join(s.PublicURL, kind, name), nil
}

// Remove deletes a file previously returned by Save. URLs outside the
// store are ignored, as is a file that no longer exists.
func (s *DiskStore) Remove(url string) error {
	rel := strings.TrimPrefix(url, s.PublicURL+"/")
	if rel == url {
		return nil
	}
	kind, name, ok := strings.Cut(rel, "/")
	if _, known := allowedExtensions[kind]; !ok || !known || name == "" || strings.ContainsAny(name, `/\`) {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, kind, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
