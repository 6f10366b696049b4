package port

import (
	"context"
	"io"
)

// ObjectStore holds uploaded documents by key
type ObjectStore interface {
	// Put stores body under key, replacing any previous object, and returns
	// the number of bytes written. A failed Put leaves no partial object.
	Put(ctx context.Context, key string, body io.Reader) (int64, error)
	// Get returns the object under key or an error wrapping ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) bool
	// Delete removes the object; deleting a missing key succeeds
	Delete(ctx context.Context, key string) error
}

// PresignRequest asks for a direct-upload URL
type PresignRequest struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	Prefix   string `json:"prefix,omitempty"`
}

// PresignedUpload is a time-limited upload target and the public URL the
// object will have once uploaded.
type PresignedUpload struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
	URL       string `json:"url"`
}

// UploadPresigner issues direct-upload URLs
type UploadPresigner interface {
	Presign(ctx context.Context, req PresignRequest) (*PresignedUpload, error)
}

// UploadTransport performs the direct PUT of file bytes to a presigned URL
type UploadTransport interface {
	Put(ctx context.Context, uploadURL, contentType string, body io.Reader, size int64) error
}
