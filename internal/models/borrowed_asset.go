package models

import (
	"encoding/json"
	"time"
)

// BorrowedAssetStatus is the checkout state of a borrowed asset.
type BorrowedAssetStatus string

const (
	BorrowedAssetInUse    BorrowedAssetStatus = "IN_USE"
	BorrowedAssetOverdue  BorrowedAssetStatus = "OVERDUE"
	BorrowedAssetReturned BorrowedAssetStatus = "RETURNED"
)

// Label returns a display label; unrecognised values are returned as is.
func (s BorrowedAssetStatus) Label() string {
	switch s {
	case BorrowedAssetInUse:
		return "In use"
	case BorrowedAssetOverdue:
		return "Overdue"
	case BorrowedAssetReturned:
		return "Returned"
	default:
		return string(s)
	}
}

// BorrowedAsset is an asset checked out against a task. It links to an
// AssetRequest only through TaskID.
type BorrowedAsset struct {
	AssetID     string              `json:"assetId"`
	TaskID      string              `json:"taskID"`
	BorrowTime  *time.Time          `json:"borrowTime,omitempty"`
	StartTime   *time.Time          `json:"startTime,omitempty"`
	EndTime     *time.Time          `json:"endTime,omitempty"`
	Status      BorrowedAssetStatus `json:"status"`
	Description string              `json:"description,omitempty"`
}

// IsActive reports whether the asset still counts as checked out.
func (a BorrowedAsset) IsActive() bool {
	return a.Status != BorrowedAssetReturned
}

// UnmarshalJSON accepts both assetId/assetID and taskID/taskId spellings, which
// the asset service uses interchangeably. The lower-camel form wins when both
// are present.
func (a *BorrowedAsset) UnmarshalJSON(data []byte) error {
	var raw struct {
		AssetID     string              `json:"assetId"`
		AssetIDAlt  string              `json:"assetID"`
		TaskID      string              `json:"taskID"`
		TaskIDAlt   string              `json:"taskId"`
		BorrowTime  *time.Time          `json:"borrowTime"`
		StartTime   *time.Time          `json:"startTime"`
		EndTime     *time.Time          `json:"endTime"`
		Status      BorrowedAssetStatus `json:"status"`
		Description string              `json:"description"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = BorrowedAsset{
		AssetID:     firstNonEmpty(raw.AssetID, raw.AssetIDAlt),
		TaskID:      firstNonEmpty(raw.TaskID, raw.TaskIDAlt),
		BorrowTime:  raw.BorrowTime,
		StartTime:   raw.StartTime,
		EndTime:     raw.EndTime,
		Status:      raw.Status,
		Description: raw.Description,
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
