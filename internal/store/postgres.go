package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/competitor-insights/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS comparison_reports (
	id             UUID PRIMARY KEY,
	report_id      TEXT NOT NULL UNIQUE,
	user_business  JSONB NOT NULL,
	competitors    JSONB NOT NULL,
	metrics        JSONB NOT NULL,
	ai_summary     TEXT NOT NULL,
	ai_suggestions JSONB NOT NULL,
	metadata       JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_comparison_reports_created_at ON comparison_reports(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveReport(ctx context.Context, report *model.ComparisonReport) error {
	assignIDs(report)
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	cols, err := marshalReport(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal report")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO comparison_reports
		 (id, report_id, user_business, competitors, metrics, ai_summary, ai_suggestions, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		report.ID, report.ReportID, []byte(cols.user), []byte(cols.competitors), []byte(cols.metrics),
		report.AISummary, []byte(cols.suggestions), []byte(cols.metadata), report.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert report %s", report.ReportID)
}

func (s *PostgresStore) GetReport(ctx context.Context, reportID string) (*model.ComparisonReport, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, report_id, user_business, competitors, metrics, ai_summary, ai_suggestions, metadata, created_at
		 FROM comparison_reports WHERE report_id = $1`,
		reportID,
	)
	r, err := scanPgReport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: report %s", reportID)
		}
		return nil, eris.Wrapf(err, "postgres: get report %s", reportID)
	}
	return r, nil
}

func (s *PostgresStore) ListReports(ctx context.Context, filter ReportFilter) ([]model.ComparisonReport, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, report_id, user_business, competitors, metrics, ai_summary, ai_suggestions, metadata, created_at
		 FROM comparison_reports ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, filter.Offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reports")
	}
	defer rows.Close()

	var reports []model.ComparisonReport
	for rows.Next() {
		r, err := scanPgReport(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan report")
		}
		reports = append(reports, *r)
	}
	return reports, eris.Wrap(rows.Err(), "postgres: list reports iterate")
}

func scanPgReport(row scannable) (*model.ComparisonReport, error) {
	var r model.ComparisonReport
	var userJSON, competitorsJSON, metricsJSON, suggestionsJSON, metadataJSON []byte

	err := row.Scan(&r.ID, &r.ReportID, &userJSON, &competitorsJSON, &metricsJSON,
		&r.AISummary, &suggestionsJSON, &metadataJSON, &r.CreatedAt)
	if err != nil {
		return nil, err
	}

	for _, f := range []struct {
		src []byte
		dst any
	}{
		{userJSON, &r.UserBusiness},
		{competitorsJSON, &r.CompetitorBusinesses},
		{metricsJSON, &r.Metrics},
		{suggestionsJSON, &r.AISuggestions},
		{metadataJSON, &r.Metadata},
	} {
		if err := json.Unmarshal(f.src, f.dst); err != nil {
			return nil, err
		}
	}
	return &r, nil
}
