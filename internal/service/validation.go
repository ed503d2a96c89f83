package service

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/asset-desk-api/internal/models"
)

// NewValidator returns a validator with the gateway's custom tags registered.
func NewValidator() *validator.Validate {
	return registerValidations(validator.New())
}

func registerValidations(v *validator.Validate) *validator.Validate {
	_ = v.RegisterValidation("request_scope", func(fl validator.FieldLevel) bool {
		return models.RequestScope(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("request_statuses", func(fl validator.FieldLevel) bool {
		_, err := ParseStatusFilter(fl.Field().String())
		return err == nil
	})
	return v
}

// ParseStatusFilter splits a comma separated status list and checks every
// entry against the workflow catalog. Blank entries are ignored and duplicates
// collapsed; the result keeps first-seen order.
func ParseStatusFilter(raw string) ([]models.RequestStatus, error) {
	var (
		out  []models.RequestStatus
		seen = make(map[models.RequestStatus]struct{})
	)
	for _, part := range strings.Split(raw, ",") {
		value := models.RequestStatus(strings.ToUpper(strings.TrimSpace(part)))
		if value == "" {
			continue
		}
		if !value.Known() {
			return nil, &unknownStatusError{value: string(value)}
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out, nil
}

type unknownStatusError struct {
	value string
}

func (e *unknownStatusError) Error() string {
	return "unknown request status " + e.value
}
