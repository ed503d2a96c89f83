package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/asset-desk-api/internal/models"
	appErrors "github.com/noah-isme/asset-desk-api/pkg/errors"
	"github.com/noah-isme/asset-desk-api/pkg/upstream"
)

func newUpstream(t *testing.T, handler http.HandlerFunc) *upstream.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := upstream.NewClient(upstream.Options{
		BaseURL:     srv.URL + "/api",
		Timeout:     time.Second,
		Credentials: upstream.StaticToken("token-1"),
	})
	require.NoError(t, err)
	return client
}

func TestBorrowedAssetRepositoryList(t *testing.T) {
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/borrowed-assets", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"assetID":"A1","taskID":"T1","status":"IN_USE"},{"assetId":"A2","taskId":"T2","status":"RETURNED"}]`))
	})

	assets, err := NewBorrowedAssetRepository(client).List(context.Background())
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "A1", assets[0].AssetID)
	assert.Equal(t, "T2", assets[1].TaskID)
	assert.Equal(t, models.BorrowedAssetReturned, assets[1].Status)
}

func TestBorrowedAssetRepositoryNullPayload(t *testing.T) {
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null}`))
	})

	assets, err := NewBorrowedAssetRepository(client).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, assets)
	assert.Empty(t, assets)
}

func TestAssetRequestRepositoryEndpoints(t *testing.T) {
	var paths []string
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"data":[{"requestId":"R1","status":"PENDING_AM","task":{"taskID":"T1"},"projectInfo":{"projectID":"P1","title":"Proj1"}}]}`))
	})
	repo := NewAssetRequestRepository(client)

	reqs, err := repo.ListForAssetManager(context.Background())
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, models.RequestStatusPendingAM, reqs[0].Status)
	assert.Equal(t, "P1", reqs[0].ProjectID())

	_, err = repo.ListForDepartment(context.Background(), "ops/north")
	require.NoError(t, err)

	assert.Equal(t, []string{"/api/request-asset/asset-manager", "/api/request-asset/department/ops%2Fnorth"}, paths)
}

func TestAssetRequestRepositoryRequiresDepartment(t *testing.T) {
	repo := NewAssetRequestRepository(newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream should not be called")
	}))

	for _, departmentID := range []string{"  ", ".", "..", " .. "} {
		_, err := repo.ListForDepartment(context.Background(), departmentID)
		require.Error(t, err, "%q", departmentID)
		assert.ErrorIs(t, err, appErrors.ErrValidation)
	}
}

func TestAssetRequestRepositoryPropagatesUpstreamErrors(t *testing.T) {
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := NewAssetRequestRepository(client).ListForAssetManager(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
