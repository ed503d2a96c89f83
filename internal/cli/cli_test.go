package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/asset-desk-api/internal/dto"
	"github.com/noah-isme/asset-desk-api/internal/models"
	"github.com/noah-isme/asset-desk-api/internal/service"
)

type overviewStub struct {
	query  dto.OverviewQuery
	result *dto.BorrowedAssetOverview
	err    error
}

func (s *overviewStub) Overview(_ context.Context, _ *models.JWTClaims, query dto.OverviewQuery) (*dto.BorrowedAssetOverview, bool, error) {
	s.query = query
	return s.result, false, s.err
}

func sampleOverview() *dto.BorrowedAssetOverview {
	return &dto.BorrowedAssetOverview{
		Scope:  models.ScopeAssetManager,
		Total:  3,
		Active: 2,
		Projects: []dto.ProjectOverview{
			{
				ID: "P1", Title: "Bridge Survey", Total: 2, Active: 1,
				Departments: []dto.DepartmentOverview{
					{ID: "D1", Name: "Engineering", Total: 1, Active: 1, Assets: []dto.BorrowedAssetView{{AssetID: "A1", Status: models.BorrowedAssetInUse, Active: true}}},
					{ID: "D2", Name: "Field Ops", Total: 1, Assets: []dto.BorrowedAssetView{{AssetID: "A2", Status: models.BorrowedAssetReturned}}},
				},
			},
			{
				ID: "unknown_project", Title: "Unknown Project", Total: 1, Active: 1,
				Departments: []dto.DepartmentOverview{
					{ID: "unknown_department", Name: "Unknown Department", Total: 1, Active: 1, Assets: []dto.BorrowedAssetView{{AssetID: "A3", Status: models.BorrowedAssetOverdue, Active: true}}},
				},
			},
		},
		UnknownAssets:    1,
		DuplicateTaskIDs: []string{"T9"},
	}
}

func TestColorStyleFallsBackToGray(t *testing.T) {
	assert.Equal(t, lipgloss.Color("#928374"), ColorStyle("magenta").GetForeground())
	assert.Equal(t, lipgloss.Color("#fb4934"), ColorStyle(models.ColorRed).GetForeground())
	for _, status := range models.AllRequestStatuses() {
		_, ok := palette[status.Color()]
		assert.True(t, ok, "no palette entry for %s", status)
	}
}

func TestRenderStatusCatalog(t *testing.T) {
	out := RenderStatusCatalog(service.StatusCatalog())

	assert.Contains(t, out, "REQUEST STATUSES")
	assert.Contains(t, out, "PENDING_LEADER")
	assert.Contains(t, out, "LEADER_APPROVED, LEADER_REJECTED, CANCELLED")
	assert.Contains(t, out, models.RequestStatusAMApproved.Label())
	assert.Contains(t, out, "terminal")
}

func TestRenderOverviewTree(t *testing.T) {
	out := RenderOverview(sampleOverview())

	assert.Contains(t, out, "3 total, 2 active, 1 unmatched")
	assert.Contains(t, out, "Bridge Survey")
	assert.Contains(t, out, "├─ Engineering")
	assert.Contains(t, out, "│  └─ A1")
	assert.Contains(t, out, "└─ Field Ops")
	assert.Contains(t, out, "   └─ A2")
	assert.Contains(t, out, "Unknown Department")
	assert.Contains(t, out, "Overdue")
	assert.Contains(t, out, "T9")
	assert.Less(t, bytes.Index([]byte(out), []byte("Bridge Survey")), bytes.Index([]byte(out), []byte("Unknown Project")))
}

func TestRenderOverviewEmpty(t *testing.T) {
	out := RenderOverview(&dto.BorrowedAssetOverview{Scope: models.ScopeDepartment, DepartmentID: "D4"})
	assert.Contains(t, out, "DEPARTMENT D4")
	assert.Contains(t, out, "no borrowed assets")
}

func TestOverviewCommandPassesFlags(t *testing.T) {
	stub := &overviewStub{result: sampleOverview()}
	var got Settings
	root := NewRootCmd(func(s Settings) (*App, error) {
		got = s
		return &App{Overview: stub, Claims: &models.JWTClaims{UserID: "am-1", Role: models.RoleAssetManager}}, nil
	})

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"overview", "--token", "abc", "--timeout", "3s", "--active-only", "--scope", "department", "--department", "D1"})
	require.NoError(t, root.Execute())

	assert.Equal(t, "abc", got.Token)
	assert.Equal(t, 3*time.Second, got.Timeout)
	assert.Equal(t, models.JoinLastWins, got.JoinPolicy)
	assert.Equal(t, dto.OverviewQuery{Scope: models.ScopeDepartment, DepartmentID: "D1", ActiveOnly: true}, stub.query)
	assert.Contains(t, out.String(), "Bridge Survey")
}

func TestOverviewCommandReadsEnvironment(t *testing.T) {
	t.Setenv("ASSETCTL_TOKEN", "from-env")
	t.Setenv("ASSETCTL_BASE_URL", "http://assets.internal/api")

	var got Settings
	root := NewRootCmd(func(s Settings) (*App, error) {
		got = s
		return nil, errors.New("stop")
	})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"overview"})

	assert.EqualError(t, root.Execute(), "stop")
	assert.Equal(t, "from-env", got.Token)
	assert.Equal(t, "http://assets.internal/api", got.BaseURL)
}

func TestDefaultFactoryRequiresToken(t *testing.T) {
	_, err := DefaultFactory(Settings{BaseURL: "http://localhost"})
	assert.Error(t, err)

	_, err = DefaultFactory(Settings{BaseURL: "http://localhost", Token: "garbage"})
	assert.Error(t, err)
}

func TestStatusesCommand(t *testing.T) {
	root := NewRootCmd(nil)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"statuses"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "CANCELLED")
}
