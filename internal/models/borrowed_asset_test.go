package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBorrowedAssetAcceptsBothIdentifierSpellings(t *testing.T) {
	var assets []BorrowedAsset
	payload := `[
		{"assetId":"A1","taskID":"T1","status":"IN_USE","borrowTime":"2024-03-01T08:00:00Z"},
		{"assetID":"A2","taskId":"T2","status":"RETURNED"},
		{"assetId":"A3","assetID":"ignored","taskID":"T3","status":"OVERDUE"}
	]`
	require.NoError(t, json.Unmarshal([]byte(payload), &assets))
	require.Len(t, assets, 3)

	assert.Equal(t, "A1", assets[0].AssetID)
	assert.Equal(t, "T1", assets[0].TaskID)
	require.NotNil(t, assets[0].BorrowTime)
	assert.Equal(t, 2024, assets[0].BorrowTime.Year())

	assert.Equal(t, "A2", assets[1].AssetID)
	assert.Equal(t, "T2", assets[1].TaskID)

	assert.Equal(t, "A3", assets[2].AssetID)
}

func TestBorrowedAssetEncodesCanonicalField(t *testing.T) {
	raw, err := json.Marshal(BorrowedAsset{AssetID: "A1", TaskID: "T1", Status: BorrowedAssetInUse})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"assetId":"A1"`)
	assert.NotContains(t, string(raw), `"assetID"`)
}

func TestBorrowedAssetIsActive(t *testing.T) {
	assert.True(t, BorrowedAsset{Status: BorrowedAssetInUse}.IsActive())
	assert.True(t, BorrowedAsset{Status: BorrowedAssetOverdue}.IsActive())
	assert.True(t, BorrowedAsset{Status: "LOST"}.IsActive())
	assert.False(t, BorrowedAsset{Status: BorrowedAssetReturned}.IsActive())
}

func TestAssetRequestAccessors(t *testing.T) {
	var req AssetRequest
	assert.Empty(t, req.TaskID())
	assert.Empty(t, req.ProjectID())
	assert.Empty(t, req.DepartmentID())
	assert.False(t, req.TargetsCategories())

	req = AssetRequest{
		Task:          &TaskRef{TaskID: "T1"},
		ProjectInfo:   &ProjectRef{ProjectID: "P1"},
		RequesterInfo: &RequesterRef{Department: &DepartmentRef{ID: "D1"}},
		Categories:    []CategoryQuantity{{CategoryID: "laptop", Quantity: 2}},
	}
	assert.Equal(t, "T1", req.TaskID())
	assert.Equal(t, "P1", req.ProjectID())
	assert.Equal(t, "D1", req.DepartmentID())
	assert.True(t, req.TargetsCategories())
}
