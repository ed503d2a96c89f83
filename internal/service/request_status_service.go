package service

import (
	"github.com/noah-isme/asset-desk-api/internal/dto"
	"github.com/noah-isme/asset-desk-api/internal/models"
)

// StatusCatalog renders the workflow table in declaration order.
func StatusCatalog() []dto.RequestStatusOption {
	statuses := models.AllRequestStatuses()
	options := make([]dto.RequestStatusOption, 0, len(statuses))
	for _, status := range statuses {
		next := status.NextStatuses()
		if next == nil {
			next = []models.RequestStatus{}
		}
		options = append(options, dto.RequestStatusOption{
			Value:    status,
			Label:    status.Label(),
			Color:    status.Color(),
			Terminal: status.IsTerminal(),
			Next:     next,
		})
	}
	return options
}
