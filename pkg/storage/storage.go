package storage

import "context"

// DefaultCacheControl suits objects which are never rewritten, every upload
// gets a unique key.
const DefaultCacheControl = "public, max-age=31536000, immutable"

type Storage interface {
	Upload(context.Context, *UploadObject) (*UploadResponse, error)
	BulkUpload(context.Context, []*UploadObject) ([]*UploadResponse, error)
}

type UploadObject struct {
	Bucket   string
	Prefix   string
	FileName string
	Mime     string
	Data     []byte

	// CacheControl defaults to DefaultCacheControl.
	CacheControl string
}

type UploadResponse struct {
	Url      string
	FileName string
}
