package scraper

import "context"

// Fetcher fetches a URL and returns the body plus metadata. Implementations
// own transport concerns: timeouts, politeness delays, redirects.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Hasher computes hex digests for content-addressed filenames.
type Hasher interface {
	Hash(data []byte) (string, error)
}
