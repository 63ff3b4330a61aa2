package document

import "context"

// BlobStore persists uploaded document bodies and returns their URL.
type BlobStore interface {
	Store(ctx context.Context, key string, body []byte, contentType string) (string, error)
}
