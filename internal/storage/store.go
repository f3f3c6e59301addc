package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"mockinterview-backend/internal/config"
	"mockinterview-backend/internal/model"
)

// ObjectStore persists binary payloads and returns a stable URL for them.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// NewObjectStore builds the store selected by cfg.Driver.
func NewObjectStore(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case "", "local":
		store, err := NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "minio":
		store, err := NewMinioStore(ctx, cfg.Minio)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// MediaKey is the object key of an uploaded answer. Each upload gets a fresh
// name so a re-answer never overwrites the object a previous URL points at.
func MediaKey(interviewID, questionID string, modality model.ResponseType, ext string) string {
	return fmt.Sprintf("interviews/%s/questions/%s/%s/%s%s", interviewID, questionID, modality, uuid.NewString(), ext)
}

func ReportKey(interviewID string) string {
	return fmt.Sprintf("reports/%s.pdf", interviewID)
}

// Extension picks a file extension for an upload, preferring the client's
// filename and falling back to the content type.
func Extension(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" && len(ext) <= 6 {
		return ext
	}
	if contentType != "" {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			return exts[0]
		}
	}
	return ".bin"
}

// DetectContentType falls back to sniffing when the client sent no type.
func DetectContentType(declared string, head []byte) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return http.DetectContentType(head)
}

func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("invalid object key %q", key)
	}
	return nil
}
