package repository

import (
	"context"
	"net/url"
	"strings"

	"github.com/noah-isme/asset-desk-api/internal/models"
	appErrors "github.com/noah-isme/asset-desk-api/pkg/errors"
)

const (
	assetManagerRequestsEndpoint = "/request-asset/asset-manager"
	departmentRequestsEndpoint   = "/request-asset/department/"
)

// AssetRequestRepository reads asset requests from the asset management API.
type AssetRequestRepository struct {
	client UpstreamReader
}

// NewAssetRequestRepository constructs the repository.
func NewAssetRequestRepository(client UpstreamReader) *AssetRequestRepository {
	return &AssetRequestRepository{client: client}
}

// ListForAssetManager returns the asset manager's request queue.
func (r *AssetRequestRepository) ListForAssetManager(ctx context.Context) ([]models.AssetRequest, error) {
	return r.list(ctx, assetManagerRequestsEndpoint)
}

// ListForDepartment returns requests raised by members of departmentID.
func (r *AssetRequestRepository) ListForDepartment(ctx context.Context, departmentID string) ([]models.AssetRequest, error) {
	departmentID = strings.TrimSpace(departmentID)
	if departmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "departmentId is required")
	}
	// PathEscape leaves dot segments alone and path joining would resolve them.
	if departmentID == "." || departmentID == ".." {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid departmentId")
	}
	return r.list(ctx, departmentRequestsEndpoint+url.PathEscape(departmentID))
}

func (r *AssetRequestRepository) list(ctx context.Context, endpoint string) ([]models.AssetRequest, error) {
	var requests []models.AssetRequest
	if err := r.client.GetJSON(ctx, endpoint, nil, &requests); err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []models.AssetRequest{}
	}
	return requests, nil
}
