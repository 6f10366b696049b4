package service

import (
	"context"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/garyjia/merchant-onboarding/internal/application/port"
	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/persistence/memory"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// recordingRepo counts writes against an in-memory repository and can be
// told to fail them.
type recordingRepo struct {
	*memory.MerchantRepository

	mu         sync.Mutex
	creates    int
	patches    []entity.MerchantPatch
	createFunc func(ctx context.Context, m *entity.Merchant) error
	patchErr   error
}

func newRecordingRepo() *recordingRepo {
	return &recordingRepo{MerchantRepository: memory.NewMerchantRepository()}
}

func (r *recordingRepo) Create(ctx context.Context, m *entity.Merchant) error {
	r.mu.Lock()
	r.creates++
	fn := r.createFunc
	r.mu.Unlock()
	if fn != nil {
		return fn(ctx, m)
	}
	return r.MerchantRepository.Create(ctx, m)
}

func (r *recordingRepo) Patch(ctx context.Context, id string, patch entity.MerchantPatch) (*entity.Merchant, error) {
	r.mu.Lock()
	r.patches = append(r.patches, patch)
	err := r.patchErr
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.MerchantRepository.Patch(ctx, id, patch)
}

func (r *recordingRepo) createCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.creates
}

func (r *recordingRepo) patchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.patches)
}

type mockPresigner struct {
	mock.Mock
}

func (m *mockPresigner) Presign(ctx context.Context, req port.PresignRequest) (*port.PresignedUpload, error) {
	args := m.Called(ctx, req)
	upload, _ := args.Get(0).(*port.PresignedUpload)
	return upload, args.Error(1)
}

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Put(ctx context.Context, uploadURL, contentType string, body io.Reader, size int64) error {
	args := m.Called(ctx, uploadURL, contentType, body, size)
	return args.Error(0)
}

type mockExporter struct {
	mock.Mock
}

func (m *mockExporter) Export(ctx context.Context, merchants []*entity.Merchant, w io.Writer) error {
	args := m.Called(ctx, merchants, w)
	return args.Error(0)
}

func (m *mockExporter) ContentType() string   { return "application/octet-stream" }
func (m *mockExporter) FileExtension() string { return ".bin" }
