// Package storage keeps uploaded files on local disk.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidKey = errors.New("invalid storage key")

// Object is a stored file as seen by callers.
type Object struct {
	Key         string
	Size        int64
	ContentType string
	URL         string
}

// FileStore is the file store collaborator: it turns uploads into
// persistent objects reachable under a public URL.
type FileStore interface {
	Save(formID, fileName string, r io.Reader, maxSize int64) (*Object, error)
	Open(formID, key string) (*os.File, error)
	Remove(formID, key string) error
	RemoveForm(formID string) error
}

// Local stores files under root/{formID}/{uuid}{ext} and serves them from
// urlPrefix/{formID}/{key}.
type Local struct {
	root      string
	urlPrefix string
}

func NewLocal(root, urlPrefix string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	if urlPrefix == "" {
		urlPrefix = "/uploads"
	}
	return &Local{root: root, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

// ErrTooLarge is returned when the upload exceeds maxSize bytes.
var ErrTooLarge = errors.New("file exceeds maximum size")

// Save copies r to disk. A maxSize <= 0 disables the limit.
func (l *Local) Save(formID, fileName string, r io.Reader, maxSize int64) (*Object, error) {
	if !validSegment(formID) {
		return nil, ErrInvalidKey
	}
	dir := filepath.Join(l.root, formID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create dir: %w", err)
	}

	key := uuid.New().String() + strings.ToLower(filepath.Ext(fileName))
	dst := filepath.Join(dir, key)
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("storage: create file: %w", err)
	}

	src := r
	if maxSize > 0 {
		src = io.LimitReader(r, maxSize+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && maxSize > 0 && n > maxSize {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(dst)
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("storage: write file: %w", err)
	}

	return &Object{
		Key:         key,
		Size:        n,
		ContentType: DetectContentType(fileName),
		URL:         l.urlPrefix + "/" + formID + "/" + key,
	}, nil
}

func (l *Local) Open(formID, key string) (*os.File, error) {
	if !validSegment(formID) || !validSegment(key) {
		return nil, ErrInvalidKey
	}
	return os.Open(filepath.Join(l.root, formID, key))
}

// Remove deletes one stored file. A missing file is not an error.
func (l *Local) Remove(formID, key string) error {
	if !validSegment(formID) || !validSegment(key) {
		return ErrInvalidKey
	}
	err := os.Remove(filepath.Join(l.root, formID, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// RemoveForm deletes every file stored for a form.
func (l *Local) RemoveForm(formID string) error {
	if !validSegment(formID) {
		return ErrInvalidKey
	}
	return os.RemoveAll(filepath.Join(l.root, formID))
}

func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".csv":  "text/csv",
	".txt":  "text/plain",
	".json": "application/json",
	".xml":  "application/xml",
	".zip":  "application/zip",
}

// inline lists the types browsers may render in place. Everything else is
// served as an attachment.
var inline = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/gif":       true,
	"image/webp":      true,
	"text/plain":      true,
}

// Inline reports whether contentType may be displayed rather than
// downloaded.
func Inline(contentType string) bool {
	return inline[contentType]
}

// DetectContentType guesses a MIME type from the file extension.
func DetectContentType(fileName string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(fileName))]; ok {
		return ct
	}
	return "application/octet-stream"
}
