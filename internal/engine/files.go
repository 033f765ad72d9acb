package engine

import (
	"path/filepath"
	"strings"
)

// FileRef is an uploaded file resolved by the file store: what the
// validator needs to check and the URL the assembler records.
type FileRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
}

// Files maps a file field id to the files uploaded for it.
type Files map[string][]FileRef

// Accepts reports whether a file matches an accept list such as
// ".pdf,.png", "pdf" or "image/*". An empty list accepts everything.
func Accepts(accept string, ref FileRef) bool {
	if strings.TrimSpace(accept) == "" {
		return true
	}
	ext := strings.ToLower(filepath.Ext(ref.Name))
	contentType := strings.ToLower(ref.ContentType)
	for _, p := range strings.Split(accept, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		switch {
		case p == "":
			continue
		case p == "*" || p == "*/*":
			return true
		case strings.HasPrefix(p, "."):
			if ext == p {
				return true
			}
		case strings.HasSuffix(p, "/*"):
			if strings.HasPrefix(contentType, strings.TrimSuffix(p, "*")) {
				return true
			}
		case strings.Contains(p, "/"):
			if contentType == p {
				return true
			}
		default:
			if ext == "."+p {
				return true
			}
		}
	}
	return false
}
