package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/asset-desk-api/internal/models"
	appErrors "github.com/noah-isme/asset-desk-api/pkg/errors"
)

func TestResolveScope(t *testing.T) {
	cases := []struct {
		name    string
		claims  *models.JWTClaims
		scope   models.RequestScope
		dept    string
		want    models.ScopeSelection
		wantErr error
	}{
		{name: "manager default", claims: managerClaims(), want: models.ScopeSelection{Scope: models.ScopeAssetManager}},
		{name: "manager names department", claims: managerClaims(), dept: "D2", want: models.ScopeSelection{Scope: models.ScopeDepartment, DepartmentID: "D2"}},
		{name: "admin explicit", claims: &models.JWTClaims{UserID: "a", Role: models.RoleAdmin}, scope: models.ScopeAssetManager, want: models.ScopeSelection{Scope: models.ScopeAssetManager}},
		{name: "staff default", claims: staffClaims("D1"), want: models.ScopeSelection{Scope: models.ScopeDepartment, DepartmentID: "D1"}},
		{name: "leader own department", claims: &models.JWTClaims{UserID: "l", Role: models.RoleLeader, DepartmentID: "D3"}, scope: models.ScopeDepartment, dept: "D3", want: models.ScopeSelection{Scope: models.ScopeDepartment, DepartmentID: "D3"}},
		{name: "staff asset manager scope", claims: staffClaims("D1"), scope: models.ScopeAssetManager, wantErr: appErrors.ErrForbidden},
		{name: "staff other department", claims: staffClaims("D1"), dept: "D2", wantErr: appErrors.ErrForbidden},
		{name: "no department", claims: staffClaims(""), wantErr: appErrors.ErrValidation},
		{name: "unknown scope", claims: managerClaims(), scope: "global", wantErr: appErrors.ErrValidation},
		{name: "anonymous", wantErr: appErrors.ErrUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveScope(tc.claims, tc.scope, tc.dept)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseStatusFilter(t *testing.T) {
	got, err := ParseStatusFilter(" pending_am, AM_APPROVED,,PENDING_AM ")
	require.NoError(t, err)
	assert.Equal(t, []models.RequestStatus{models.RequestStatusPendingAM, models.RequestStatusAMApproved}, got)

	got, err = ParseStatusFilter("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseStatusFilter("PENDING_AM,SOME_FUTURE_STATUS")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOME_FUTURE_STATUS")
}

func TestStatusCatalogFollowsWorkflowTable(t *testing.T) {
	catalog := StatusCatalog()
	statuses := models.AllRequestStatuses()
	require.Len(t, catalog, len(statuses))
	for i, option := range catalog {
		assert.Equal(t, statuses[i], option.Value)
		assert.Equal(t, option.Value.Label(), option.Label)
		assert.Equal(t, option.Value.Color(), option.Color)
		assert.Equal(t, option.Value.IsTerminal(), option.Terminal)
		assert.NotNil(t, option.Next)
		if option.Terminal {
			assert.Empty(t, option.Next)
		}
	}
	assert.Equal(t, models.RequestStatusPendingLeader, catalog[0].Value)
}
