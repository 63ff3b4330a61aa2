package storage

import (
	"context"
	"fmt"
	"net/url"

	"tuichain-backend/internal/domain/document"

	gcs "cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

type GCSConfig struct {
	Bucket          string
	CredentialsFile string
	// PublicRead grants allUsers read access on every uploaded object.
	PublicRead bool
}

// GCS stores document bodies in a Google Cloud Storage bucket.
type GCS struct {
	client *gcs.Client
	cfg    GCSConfig
	log    zerolog.Logger
}

var _ document.BlobStore = (*GCS)(nil)

func NewGCS(ctx context.Context, cfg GCSConfig, log zerolog.Logger) (*GCS, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs: bucket is required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCS{client: client, cfg: cfg, log: log}, nil
}

func (g *GCS) Store(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	obj := g.client.Bucket(g.cfg.Bucket).Object(key)

	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", key, err)
	}

	if g.cfg.PublicRead {
		if err := obj.ACL().Set(ctx, gcs.AllUsers, gcs.RoleReader); err != nil {
			return "", fmt.Errorf("make %s public: %w", key, err)
		}
	}
	g.log.Debug().Str("bucket", g.cfg.Bucket).Str("key", key).Int("bytes", len(body)).Msg("document stored")
	return PublicURL(g.cfg.Bucket, key), nil
}

func (g *GCS) Close() error { return g.client.Close() }

// PublicURL is the https URL under which a GCS object is served.
func PublicURL(bucket, key string) string {
	u := url.URL{Scheme: "https", Host: "storage.googleapis.com", Path: "/" + bucket + "/" + key}
	return u.String()
}
