package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/noah-isme/asset-desk-api/internal/dto"
	"github.com/noah-isme/asset-desk-api/internal/models"
)

// Terminal palette for the semantic color tokens.
var palette = map[models.ColorToken]lipgloss.Color{
	models.ColorGold:    lipgloss.Color("#fabd2f"),
	models.ColorBlue:    lipgloss.Color("#83a598"),
	models.ColorCyan:    lipgloss.Color("#8ec07c"),
	models.ColorGreen:   lipgloss.Color("#b8bb26"),
	models.ColorRed:     lipgloss.Color("#fb4934"),
	models.ColorVolcano: lipgloss.Color("#fe8019"),
	models.ColorGray:    lipgloss.Color("#928374"),
}

var (
	styleHeader = lipgloss.NewStyle().Foreground(lipgloss.Color("#fe8019")).Bold(true)
	styleDim    = lipgloss.NewStyle().Foreground(palette[models.ColorGray])
	styleBold   = lipgloss.NewStyle().Bold(true)
)

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// ColorStyle maps a semantic token onto a terminal style, falling back to gray.
func ColorStyle(token models.ColorToken) lipgloss.Style {
	color, ok := palette[token]
	if !ok {
		color = palette[models.ColorGray]
	}
	return lipgloss.NewStyle().Foreground(color)
}

// StatusBadge renders a request status as a colored badge.
func StatusBadge(status models.RequestStatus) string {
	return ColorStyle(status.Color()).Render("● " + status.Label())
}

func assetStatusColor(status models.BorrowedAssetStatus) models.ColorToken {
	switch status {
	case models.BorrowedAssetInUse:
		return models.ColorBlue
	case models.BorrowedAssetOverdue:
		return models.ColorRed
	case models.BorrowedAssetReturned:
		return models.ColorGreen
	default:
		return models.ColorGray
	}
}

func header(text string) string {
	upper := strings.ToUpper(text)
	return fmt.Sprintf("%s\n%s", styleHeader.Render(upper), styleDim.Render(strings.Repeat("─", len(upper))))
}

// RenderStatusCatalog prints the workflow table.
func RenderStatusCatalog(options []dto.RequestStatusOption) string {
	var b strings.Builder
	b.WriteString(header("Request statuses"))
	b.WriteString("\n")

	width := 0
	for _, opt := range options {
		if n := len(opt.Value); n > width {
			width = n
		}
	}
	for _, opt := range options {
		next := "terminal"
		if !opt.Terminal {
			parts := make([]string, len(opt.Next))
			for i, s := range opt.Next {
				parts[i] = string(s)
			}
			next = "→ " + strings.Join(parts, ", ")
		}
		fmt.Fprintf(&b, "%-*s  %s  %s\n", width, opt.Value, StatusBadge(opt.Value), styleDim.Render(next))
	}
	return b.String()
}

// RenderOverview prints the project → department → asset tree.
func RenderOverview(overview *dto.BorrowedAssetOverview) string {
	var b strings.Builder
	title := "Borrowed assets"
	if overview.Scope == models.ScopeDepartment {
		title += " - department " + overview.DepartmentID
	}
	b.WriteString(header(title))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s\n", styleDim.Render(fmt.Sprintf("%d total, %d active, %d unmatched", overview.Total, overview.Active, overview.UnknownAssets)))

	if len(overview.Projects) == 0 {
		b.WriteString(styleDim.Render("no borrowed assets"))
		b.WriteString("\n")
		return b.String()
	}

	for _, project := range overview.Projects {
		fmt.Fprintf(&b, "%s %s\n", styleBold.Render(project.Title), styleDim.Render(counts(project.Total, project.Active)))
		for di, dept := range project.Departments {
			lastDept := di == len(project.Departments)-1
			fmt.Fprintf(&b, "%s%s %s\n", branch(lastDept), dept.Name, styleDim.Render(counts(dept.Total, dept.Active)))

			indent := treePipe
			if lastDept {
				indent = treeBlank
			}
			for ai, asset := range dept.Assets {
				badge := ColorStyle(assetStatusColor(asset.Status)).Render("● " + asset.Status.Label())
				line := asset.AssetID
				if asset.Description != "" {
					line += " " + styleDim.Render(asset.Description)
				}
				fmt.Fprintf(&b, "%s%s%s  %s\n", indent, branch(ai == len(dept.Assets)-1), line, badge)
			}
		}
	}
	if len(overview.DuplicateTaskIDs) > 0 {
		fmt.Fprintf(&b, "%s\n", styleDim.Render("tasks with several requests: "+strings.Join(overview.DuplicateTaskIDs, ", ")))
	}
	return b.String()
}

func branch(last bool) string {
	if last {
		return treeCorner
	}
	return treeBranch
}

func counts(total, active int) string {
	return fmt.Sprintf("(%d, %d active)", total, active)
}
