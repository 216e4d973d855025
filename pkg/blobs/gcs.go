package blobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/JaimeStill/delivery-notes/pkg/lifecycle"
)

// GCS stores blobs as objects in a Google Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// NewGCS creates a bucket-backed store. Credentials come from the configured
// file when set, otherwise from application default credentials.
func NewGCS(ctx context.Context, cfg *Config, logger *slog.Logger) (*GCS, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	return &GCS{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: logger.With("system", "blobs", "backend", BackendGCS, "bucket", cfg.Bucket),
	}, nil
}

func (g *GCS) Start(lc *lifecycle.Coordinator) error {
	g.logger.Info("starting blob store")

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := g.client.Close(); err != nil {
			g.logger.Error("gcs client close failed", "error", err)
		}
	})
	return nil
}

func (g *GCS) Put(ctx context.Context, data []byte) (string, error) {
	key := Hash(data)

	exists, err := g.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if exists {
		return key, nil
	}

	if err := g.PutKeyed(ctx, key, data); err != nil {
		return "", err
	}
	return key, nil
}

func (g *GCS) PutKeyed(ctx context.Context, key string, data []byte) error {
	obj, err := g.object(key)
	if err != nil {
		return err
	}

	w := obj.NewWriter(ctx)
	w.ContentType = "application/pdf"

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write gcs object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gcs writer: %w", err)
	}
	return nil
}

func (g *GCS) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := g.object(key)
	if err != nil {
		return nil, err
	}

	r, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open gcs object: %w", err)
	}
	defer r.Close()

	return io.ReadAll(r)
}

func (g *GCS) Exists(ctx context.Context, key string) (bool, error) {
	obj, err := g.object(key)
	if err != nil {
		return false, err
	}

	if _, err := obj.Attrs(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat gcs object: %w", err)
	}
	return true, nil
}

func (g *GCS) Delete(ctx context.Context, key string) error {
	obj, err := g.object(key)
	if err != nil {
		return err
	}

	if err := obj.Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete gcs object: %w", err)
	}
	return nil
}

func (g *GCS) Walk(ctx context.Context, fn func(key string) error) error {
	query := &storage.Query{}
	if g.prefix != "" {
		query.Prefix = g.prefix + "/"
	}

	it := g.client.Bucket(g.bucket).Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("list gcs objects: %w", err)
		}

		key := path.Base(attrs.Name)
		if !ValidKey(key) {
			continue
		}
		if err := fn(key); err != nil {
			return err
		}
	}
}

func (g *GCS) object(key string) (*storage.ObjectHandle, error) {
	rel, err := ObjectPath(key)
	if err != nil {
		return nil, err
	}
	if g.prefix != "" {
		rel = g.prefix + "/" + rel
	}
	return g.client.Bucket(g.bucket).Object(rel), nil
}
