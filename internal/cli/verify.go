package cli

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/asset-desk-api/internal/dto"
	"github.com/noah-isme/asset-desk-api/internal/models"
	"github.com/noah-isme/asset-desk-api/pkg/upstream"
)

type assetLister interface {
	List(ctx context.Context) ([]models.BorrowedAsset, error)
}

type gatewayOverview interface {
	FetchOverview(ctx context.Context, query dto.OverviewQuery) (*dto.BorrowedAssetOverview, time.Duration, error)
}

// GatewayClient reads the overview from a running gateway with the same token.
type GatewayClient struct {
	client *upstream.Client
}

// NewGatewayClient points at the gateway API prefix, e.g. http://localhost:8080/api/v1.
func NewGatewayClient(baseURL, token string, timeout time.Duration) (*GatewayClient, error) {
	client, err := upstream.NewClient(upstream.Options{
		BaseURL:     baseURL,
		Timeout:     timeout,
		Credentials: upstream.StaticToken(token),
	})
	if err != nil {
		return nil, err
	}
	return &GatewayClient{client: client}, nil
}

// FetchOverview calls GET /borrowed-assets/overview.
func (g *GatewayClient) FetchOverview(ctx context.Context, query dto.OverviewQuery) (*dto.BorrowedAssetOverview, time.Duration, error) {
	params := url.Values{}
	if query.Scope != "" {
		params.Set("scope", string(query.Scope))
	}
	if query.DepartmentID != "" {
		params.Set("departmentId", query.DepartmentID)
	}
	if query.ActiveOnly {
		params.Set("activeOnly", strconv.FormatBool(true))
	}

	start := time.Now()
	var overview dto.BorrowedAssetOverview
	if err := g.client.GetJSON(ctx, "/borrowed-assets/overview", params, &overview); err != nil {
		return nil, time.Since(start), err
	}
	return &overview, time.Since(start), nil
}

// OverviewDiff compares a gateway overview with the raw borrowed-asset list.
type OverviewDiff struct {
	Expected   int
	Placed     int
	Missing    []string
	Unexpected []string
	Repeated   []string
}

// Consistent reports whether every asset landed in the overview exactly as the
// join policy allows.
func (d OverviewDiff) Consistent() bool {
	return len(d.Missing) == 0 && len(d.Unexpected) == 0 && len(d.Repeated) == 0
}

// CompareOverview checks that each borrowed asset appears in the overview.
// Under last-wins every asset must appear exactly once; collect-all may file
// an asset under several buckets.
func CompareOverview(assets []models.BorrowedAsset, overview *dto.BorrowedAssetOverview, activeOnly bool) OverviewDiff {
	expected := make(map[string]int)
	for _, asset := range assets {
		if activeOnly && !asset.IsActive() {
			continue
		}
		expected[asset.AssetID]++
	}

	placed := make(map[string]int)
	var diff OverviewDiff
	for _, project := range overview.Projects {
		for _, dept := range project.Departments {
			for _, asset := range dept.Assets {
				placed[asset.AssetID]++
				diff.Placed++
			}
		}
	}
	for id, n := range expected {
		diff.Expected += n
		got := placed[id]
		switch {
		case got == 0:
			diff.Missing = append(diff.Missing, id)
		case got > n && overview.JoinPolicy != models.JoinCollectAll:
			diff.Repeated = append(diff.Repeated, id)
		}
	}
	for id := range placed {
		if _, ok := expected[id]; !ok {
			diff.Unexpected = append(diff.Unexpected, id)
		}
	}
	sort.Strings(diff.Missing)
	sort.Strings(diff.Unexpected)
	sort.Strings(diff.Repeated)
	return diff
}

// RenderDiff prints a verification report.
func RenderDiff(diff OverviewDiff, upstreamTook, gatewayTook time.Duration) string {
	var b strings.Builder
	b.WriteString(header("Overview verification"))
	b.WriteString("\n")

	status := ColorStyle(models.ColorGreen).Render("● consistent")
	if !diff.Consistent() {
		status = ColorStyle(models.ColorRed).Render("● mismatch")
	}
	fmt.Fprintf(&b, "%s\n", status)
	fmt.Fprintf(&b, "asset service: %d assets (%s)\n", diff.Expected, upstreamTook.Round(time.Millisecond))
	fmt.Fprintf(&b, "gateway:       %d placements (%s)\n", diff.Placed, gatewayTook.Round(time.Millisecond))
	for _, line := range []struct {
		label string
		ids   []string
	}{
		{"missing", diff.Missing},
		{"unexpected", diff.Unexpected},
		{"repeated", diff.Repeated},
	} {
		if len(line.ids) > 0 {
			fmt.Fprintf(&b, "%s: %s\n", line.label, strings.Join(line.ids, ", "))
		}
	}
	return b.String()
}

func newVerifyCmd(factory AppFactory, settings func() Settings) *cobra.Command {
	var (
		activeOnly   bool
		scope        string
		departmentID string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the gateway overview against the asset service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := factory(settings())
			if err != nil {
				return err
			}
			if app.Gateway == nil {
				return fmt.Errorf("a gateway URL is required: pass --gateway-url or set ASSETCTL_GATEWAY_URL")
			}

			start := time.Now()
			assets, err := app.Assets.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("asset service: %w", err)
			}
			upstreamTook := time.Since(start)

			overview, gatewayTook, err := app.Gateway.FetchOverview(cmd.Context(), dto.OverviewQuery{
				Scope:        models.RequestScope(scope),
				DepartmentID: departmentID,
				ActiveOnly:   activeOnly,
			})
			if err != nil {
				return fmt.Errorf("gateway: %w", err)
			}

			diff := CompareOverview(assets, overview, activeOnly)
			fmt.Fprint(cmd.OutOrStdout(), RenderDiff(diff, upstreamTook, gatewayTook))
			if !diff.Consistent() {
				return fmt.Errorf("overview mismatch")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active-only", false, "Compare active assets only")
	cmd.Flags().StringVar(&scope, "scope", "", "asset-manager or department")
	cmd.Flags().StringVar(&departmentID, "department", "", "Department ID for department scope")

	return cmd
}
