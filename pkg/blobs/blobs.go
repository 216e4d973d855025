// Package blobs stores immutable byte blobs addressed by lowercase SHA-256
// hex keys. Content blobs are keyed by the hash of their bytes; derived
// blobs are stored under a caller-computed key of the same shape. Objects
// are laid out as <key[:2]>/<key> on every backend.
package blobs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/delivery-notes/pkg/lifecycle"
)

// Storage errors.
var (
	ErrNotFound         = errors.New("blob not found")
	ErrInvalidKey       = errors.New("invalid blob key")
	ErrPermissionDenied = errors.New("blob permission denied")
)

// System is a content-addressed blob store.
type System interface {
	// Put stores data under its SHA-256 and returns the key. Storing the
	// same bytes twice is a no-op.
	Put(ctx context.Context, data []byte) (string, error)
	// PutKeyed stores data under an explicit key.
	PutKeyed(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes a blob. Missing blobs are not an error.
	Delete(ctx context.Context, key string) error
	// Walk calls fn for every stored key until fn returns an error.
	Walk(ctx context.Context, fn func(key string) error) error
	Start(lc *lifecycle.Coordinator) error
}

// Hash returns the lowercase SHA-256 hex digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ValidKey reports whether key is 64 lowercase hex characters.
func ValidKey(key string) bool {
	if len(key) != sha256.Size*2 {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// ObjectPath returns the relative storage path for key.
func ObjectPath(key string) (string, error) {
	if !ValidKey(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return key[:2] + "/" + key, nil
}

// New creates the backend selected by cfg.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (System, error) {
	switch cfg.Backend {
	case BackendGCS:
		return NewGCS(ctx, cfg, logger)
	case BackendFilesystem, "":
		return NewFilesystem(cfg.Dir, logger)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Backend)
	}
}
