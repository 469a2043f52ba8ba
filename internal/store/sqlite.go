package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/competitor-insights/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS comparison_reports (
	id             TEXT PRIMARY KEY,
	report_id      TEXT NOT NULL UNIQUE,
	user_business  TEXT NOT NULL,
	competitors    TEXT NOT NULL,
	metrics        TEXT NOT NULL,
	ai_summary     TEXT NOT NULL,
	ai_suggestions TEXT NOT NULL,
	metadata       TEXT NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_comparison_reports_created_at ON comparison_reports(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveReport(ctx context.Context, report *model.ComparisonReport) error {
	assignIDs(report)
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	cols, err := marshalReport(report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal report")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO comparison_reports
		 (id, report_id, user_business, competitors, metrics, ai_summary, ai_suggestions, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.ReportID, cols.user, cols.competitors, cols.metrics,
		report.AISummary, cols.suggestions, cols.metadata, report.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert report %s", report.ReportID)
}

func (s *SQLiteStore) GetReport(ctx context.Context, reportID string) (*model.ComparisonReport, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, report_id, user_business, competitors, metrics, ai_summary, ai_suggestions, metadata, created_at
		 FROM comparison_reports WHERE report_id = ?`,
		reportID,
	)
	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: report %s", reportID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get report %s", reportID)
	}
	return r, nil
}

func (s *SQLiteStore) ListReports(ctx context.Context, filter ReportFilter) ([]model.ComparisonReport, error) {
	query := `SELECT id, report_id, user_business, competitors, metrics, ai_summary, ai_suggestions, metadata, created_at
	 FROM comparison_reports ORDER BY created_at DESC`
	var args []any

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reports")
	}
	defer rows.Close()

	var reports []model.ComparisonReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan report")
		}
		reports = append(reports, *r)
	}
	return reports, eris.Wrap(rows.Err(), "sqlite: list reports iterate")
}

// helpers

type reportColumns struct {
	user        string
	competitors string
	metrics     string
	suggestions string
	metadata    string
}

func marshalReport(report *model.ComparisonReport) (*reportColumns, error) {
	var cols reportColumns
	for _, f := range []struct {
		dst *string
		src any
	}{
		{&cols.user, report.UserBusiness},
		{&cols.competitors, report.CompetitorBusinesses},
		{&cols.metrics, report.Metrics},
		{&cols.suggestions, report.AISuggestions},
		{&cols.metadata, report.Metadata},
	} {
		b, err := json.Marshal(f.src)
		if err != nil {
			return nil, err
		}
		*f.dst = string(b)
	}
	return &cols, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanReport(row scannable) (*model.ComparisonReport, error) {
	var r model.ComparisonReport
	var userJSON, competitorsJSON, metricsJSON, suggestionsJSON, metadataJSON string

	err := row.Scan(&r.ID, &r.ReportID, &userJSON, &competitorsJSON, &metricsJSON,
		&r.AISummary, &suggestionsJSON, &metadataJSON, &r.CreatedAt)
	if err != nil {
		return nil, err
	}

	for _, f := range []struct {
		src string
		dst any
	}{
		{userJSON, &r.UserBusiness},
		{competitorsJSON, &r.CompetitorBusinesses},
		{metricsJSON, &r.Metrics},
		{suggestionsJSON, &r.AISuggestions},
		{metadataJSON, &r.Metadata},
	} {
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return nil, err
		}
	}
	return &r, nil
}
