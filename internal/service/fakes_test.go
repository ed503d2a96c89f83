package service

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"

	"github.com/noah-isme/asset-desk-api/internal/models"
	appErrors "github.com/noah-isme/asset-desk-api/pkg/errors"
)

type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
	deleted []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, pattern)
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *memoryCacheRepo) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

type fakeAssetReader struct {
	mu     sync.Mutex
	assets []models.BorrowedAsset
	err    error
	calls  int
	block  bool
}

func (f *fakeAssetReader) List(ctx context.Context) ([]models.BorrowedAsset, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.assets, f.err
}

type fakeRequestReader struct {
	mu          sync.Mutex
	manager     []models.AssetRequest
	department  map[string][]models.AssetRequest
	err         error
	managerHits int
	deptHits    []string
}

func (f *fakeRequestReader) ListForAssetManager(context.Context) ([]models.AssetRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.managerHits++
	return f.manager, f.err
}

func (f *fakeRequestReader) ListForDepartment(_ context.Context, departmentID string) ([]models.AssetRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deptHits = append(f.deptHits, departmentID)
	return f.department[departmentID], f.err
}

func managerClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "am-1", Role: models.RoleAssetManager, DepartmentID: "D9", Verified: true}
}

func staffClaims(dept string) *models.JWTClaims {
	return &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff, DepartmentID: dept, Verified: true}
}
