package repository

import (
	"context"
	"net/url"

	"github.com/noah-isme/asset-desk-api/internal/models"
)

const borrowedAssetsEndpoint = "/borrowed-assets"

// UpstreamReader is the read side of the asset management API client.
type UpstreamReader interface {
	GetJSON(ctx context.Context, endpoint string, query url.Values, dest interface{}) error
}

// BorrowedAssetRepository reads borrowed assets from the asset management API.
type BorrowedAssetRepository struct {
	client UpstreamReader
}

// NewBorrowedAssetRepository constructs the repository.
func NewBorrowedAssetRepository(client UpstreamReader) *BorrowedAssetRepository {
	return &BorrowedAssetRepository{client: client}
}

// List returns every borrowed asset visible to the caller's token.
func (r *BorrowedAssetRepository) List(ctx context.Context) ([]models.BorrowedAsset, error) {
	var assets []models.BorrowedAsset
	if err := r.client.GetJSON(ctx, borrowedAssetsEndpoint, nil, &assets); err != nil {
		return nil, err
	}
	if assets == nil {
		assets = []models.BorrowedAsset{}
	}
	return assets, nil
}
