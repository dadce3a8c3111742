package testutil

import (
	"context"
	"fmt"
	"path"
	"sync"

	"github.com/geoplet/backend/pkg/storage"
)

// MockStorage keeps uploaded objects in memory unless a Func field overrides
// the method.
type MockStorage struct {
	UploadFunc     func(context.Context, *storage.UploadObject) (*storage.UploadResponse, error)
	BulkUploadFunc func(context.Context, []*storage.UploadObject) ([]*storage.UploadResponse, error)

	mutex    sync.Mutex
	Uploaded []*storage.UploadObject
}

func (m *MockStorage) Upload(
	ctx context.Context, obj *storage.UploadObject,
) (*storage.UploadResponse, error) {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, obj)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.store(obj), nil
}

func (m *MockStorage) BulkUpload(
	ctx context.Context, objs []*storage.UploadObject,
) ([]*storage.UploadResponse, error) {
	if m.BulkUploadFunc != nil {
		return m.BulkUploadFunc(ctx, objs)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	out := make([]*storage.UploadResponse, 0, len(objs))
	for _, obj := range objs {
		out = append(out, m.store(obj))
	}

	return out, nil
}

func (m *MockStorage) store(obj *storage.UploadObject) *storage.UploadResponse {
	m.Uploaded = append(m.Uploaded, obj)
	name := path.Join(obj.Prefix, fmt.Sprintf("%d-%s", len(m.Uploaded), obj.FileName))
	return &storage.UploadResponse{Url: "https://storage.test/" + name, FileName: name}
}
