package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/asset-desk-api/internal/dto"
	"github.com/noah-isme/asset-desk-api/internal/models"
	"github.com/noah-isme/asset-desk-api/internal/service"
)

func newStatusesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "statuses",
		Short: "Show the request status workflow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), RenderStatusCatalog(service.StatusCatalog()))
			return nil
		},
	}
}

func newOverviewCmd(factory AppFactory, settings func() Settings) *cobra.Command {
	var (
		activeOnly   bool
		scope        string
		departmentID string
	)

	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Show borrowed assets grouped by project and department",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := factory(settings())
			if err != nil {
				return err
			}
			overview, _, err := app.Overview.Overview(cmd.Context(), app.Claims, dto.OverviewQuery{
				Scope:        models.RequestScope(scope),
				DepartmentID: departmentID,
				ActiveOnly:   activeOnly,
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), RenderOverview(overview))
			return nil
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active-only", false, "Hide returned assets")
	cmd.Flags().StringVar(&scope, "scope", "", "asset-manager or department (default from token role)")
	cmd.Flags().StringVar(&departmentID, "department", "", "Department ID for department scope")

	return cmd
}
