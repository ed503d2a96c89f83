package service

import (
	"strings"

	"github.com/noah-isme/asset-desk-api/internal/models"
	appErrors "github.com/noah-isme/asset-desk-api/pkg/errors"
)

// ResolveScope turns the requested scope into the listing the caller may read.
//
// An empty scope defaults to asset-manager for asset managers and admins and
// to the caller's own department for everyone else. Department scope falls
// back to the department claim; only asset managers and admins may name a
// department other than their own.
func ResolveScope(claims *models.JWTClaims, scope models.RequestScope, departmentID string) (models.ScopeSelection, error) {
	if claims == nil {
		return models.ScopeSelection{}, appErrors.ErrUnauthorized
	}
	privileged := claims.HasRole(models.RoleAssetManager, models.RoleAdmin)
	departmentID = strings.TrimSpace(departmentID)

	if scope == "" {
		if privileged && departmentID == "" {
			scope = models.ScopeAssetManager
		} else {
			scope = models.ScopeDepartment
		}
	}

	switch scope {
	case models.ScopeAssetManager:
		if !privileged {
			return models.ScopeSelection{}, appErrors.Clone(appErrors.ErrForbidden, "asset-manager scope requires the ASSET_MANAGER or ADMIN role")
		}
		return models.ScopeSelection{Scope: scope}, nil
	case models.ScopeDepartment:
		if departmentID == "" {
			departmentID = claims.DepartmentID
		}
		if departmentID == "" {
			return models.ScopeSelection{}, appErrors.Clone(appErrors.ErrValidation, "departmentId is required for department scope")
		}
		if !privileged && departmentID != claims.DepartmentID {
			return models.ScopeSelection{}, appErrors.Clone(appErrors.ErrForbidden, "department is outside the caller's scope")
		}
		return models.ScopeSelection{Scope: scope, DepartmentID: departmentID}, nil
	default:
		return models.ScopeSelection{}, appErrors.Clone(appErrors.ErrValidation, "scope must be asset-manager or department")
	}
}
