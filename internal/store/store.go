package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/competitor-insights/internal/model"
)

// ErrNotFound indicates no report exists for the requested report ID.
// Drivers wrap it, so callers check with errors.Is.
var ErrNotFound = eris.New("report not found")

// ReportFilter specifies criteria for listing comparison reports.
type ReportFilter struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Store defines the persistence interface for comparison reports.
//
// Reports are listed newest-first. SaveReport assigns ID and ReportID when
// the caller left them empty.
type Store interface {
	SaveReport(ctx context.Context, report *model.ComparisonReport) error
	GetReport(ctx context.Context, reportID string) (*model.ComparisonReport, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]model.ComparisonReport, error)

	Migrate(ctx context.Context) error
	Close() error
}

// NewReportID mints a short public report identifier.
func NewReportID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "cmp_rpt_" + hex[:10]
}

func assignIDs(report *model.ComparisonReport) {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.ReportID == "" {
		report.ReportID = NewReportID()
	}
}
