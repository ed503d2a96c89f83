package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/asset-desk-api/internal/dto"
	"github.com/noah-isme/asset-desk-api/internal/models"
	appErrors "github.com/noah-isme/asset-desk-api/pkg/errors"
	"github.com/noah-isme/asset-desk-api/pkg/export"
	"github.com/noah-isme/asset-desk-api/pkg/storage"
)

type overviewGrouper interface {
	Grouped(ctx context.Context, claims *models.JWTClaims, scope models.RequestScope, departmentID string) (*GroupedOverview, error)
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type tableRenderer interface {
	Render(table export.Table) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Enabled   bool
	APIPrefix string
	Retention time.Duration
}

// ExportFile describes a stored export resolved from a download token.
type ExportFile struct {
	ID          string
	Path        string
	FileName    string
	ContentType string
	ExpiresAt   time.Time
}

// ExportService renders the overview into downloadable files.
type ExportService struct {
	overview  overviewGrouper
	storage   fileStorage
	csv       tableRenderer
	pdf       tableRenderer
	signer    *storage.SignedURLSigner
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the
// CSV and PDF exporters.
func NewExportService(overview overviewGrouper, files fileStorage, signer *storage.SignedURLSigner, metrics *MetricsService, validate *validator.Validate, cfg ExportConfig, logger *zap.Logger, csv, pdf tableRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter(true)
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		overview:  overview,
		storage:   files,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		metrics:   metrics,
		validator: registerValidations(validate),
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Create renders the caller's overview and returns a signed download link.
func (s *ExportService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateExportRequest) (*dto.ExportResult, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "exports are disabled")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}

	grouped, err := s.overview.Grouped(ctx, claims, req.Scope, req.DepartmentID)
	if err != nil {
		return nil, err
	}
	table := OverviewTable(grouped, req.ActiveOnly)

	renderer := s.csv
	if req.Format == models.ExportFormatPDF {
		renderer = s.pdf
	}
	payload, err := renderer.Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	id := uuid.NewString()
	name := s.fileName(id, grouped.Selection, req.Format)
	stored, err := s.storage.Save(name, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(id, stored)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}
	s.metrics.RecordExport(req.Format)
	s.logger.Info("overview export created",
		zap.String("export_id", id),
		zap.String("user_id", claims.Identity()),
		zap.String("format", string(req.Format)),
		zap.Int("rows", len(table.Rows)),
	)

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	return &dto.ExportResult{
		ID:        id,
		Format:    req.Format,
		FileName:  path.Base(stored),
		Rows:      len(table.Rows),
		URL:       fmt.Sprintf("%s/exports/%s", prefix, token),
		ExpiresAt: expiresAt,
	}, nil
}

// Resolve validates a download token and describes the file it grants.
func (s *ExportService) Resolve(token string) (*ExportFile, error) {
	claims, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	return &ExportFile{
		ID:          claims.ID,
		Path:        claims.Path,
		FileName:    path.Base(claims.Path),
		ContentType: contentTypeFor(claims.Path),
		ExpiresAt:   claims.ExpiresAt,
	}, nil
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(file *ExportFile) (*os.File, error) {
	handle, err := s.storage.Open(file.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file no longer available")
	}
	return handle, nil
}

// Cleanup removes exports older than the retention window.
func (s *ExportService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.Retention)
}

func (s *ExportService) fileName(id string, sel models.ScopeSelection, format models.ExportFormat) string {
	scope := string(sel.Scope)
	if sel.DepartmentID != "" {
		scope += "-" + sanitizeFilename(sel.DepartmentID)
	}
	stamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("overview/%s_%s_%s.%s", scope, stamp, id, format)
}

func sanitizeFilename(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	result := b.String()
	if len(result) > 64 {
		result = result[:64]
	}
	if result == "" {
		return "na"
	}
	return result
}

func contentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".csv":
		return "text/csv; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

var overviewColumns = []export.Column{
	{Header: "Project", Width: 2},
	{Header: "Department", Width: 1.5},
	{Header: "Asset", Width: 1.2},
	{Header: "Task", Width: 1.2},
	{Header: "Status", Width: 1},
	{Header: "Borrowed", Width: 1.4},
	{Header: "Start", Width: 1.4},
	{Header: "End", Width: 1.4},
}

// OverviewTable flattens the grouping into one row per asset placement, in
// the same order as the overview view.
func OverviewTable(grouped *GroupedOverview, activeOnly bool) export.Table {
	groups := grouped.Groups
	if activeOnly {
		groups = groups.Filter(models.ActiveAssets)
	}
	title := "Borrowed assets by project"
	if grouped.Selection.Scope == models.ScopeDepartment {
		title += " - department " + grouped.Selection.DepartmentID
	}
	table := export.Table{Title: title, Columns: overviewColumns}
	for _, project := range ProjectOverviews(groups) {
		for _, dept := range project.Departments {
			for _, asset := range dept.Assets {
				table.Rows = append(table.Rows, []string{
					project.Title,
					dept.Name,
					asset.AssetID,
					asset.TaskID,
					asset.Status.Label(),
					formatExportTime(asset.BorrowTime),
					formatExportTime(asset.StartTime),
					formatExportTime(asset.EndTime),
				})
			}
		}
	}
	return table
}

func formatExportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}
