package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/competitor-insights/internal/apperr"
	"github.com/sells-group/competitor-insights/internal/insights"
	"github.com/sells-group/competitor-insights/internal/model"
	"github.com/sells-group/competitor-insights/internal/store"
)

type mockComparer struct {
	mock.Mock
}

func (m *mockComparer) CreateComparison(ctx context.Context, req insights.ComparisonRequest) (*model.ComparisonReport, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ComparisonReport), args.Error(1)
}

// memStore is an in-memory Store for handler tests.
type memStore struct {
	reports []model.ComparisonReport
	saveErr error
	getErr  error
}

func (s *memStore) SaveReport(_ context.Context, report *model.ComparisonReport) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	if report.ID == "" {
		report.ID = "mem-id"
	}
	if report.ReportID == "" {
		report.ReportID = store.NewReportID()
	}
	s.reports = append(s.reports, *report)
	return nil
}

func (s *memStore) GetReport(_ context.Context, reportID string) (*model.ComparisonReport, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	for i := range s.reports {
		if s.reports[i].ReportID == reportID {
			return &s.reports[i], nil
		}
	}
	return nil, eris.Wrapf(store.ErrNotFound, "mem: report %s", reportID)
}

func (s *memStore) ListReports(_ context.Context, filter store.ReportFilter) ([]model.ComparisonReport, error) {
	return s.reports, nil
}

func (s *memStore) Migrate(context.Context) error { return nil }
func (s *memStore) Close() error                  { return nil }

func sampleReport() *model.ComparisonReport {
	return &model.ComparisonReport{
		ID:       "22222222-2222-2222-2222-222222222222",
		ReportID: "cmp_rpt_sample0001",
		UserBusiness: model.BusinessProfile{
			Name: "Mario's Restaurant", Rating: 4.5, RatingCount: 125, Category: "Restaurant",
		},
		CompetitorBusinesses: []model.BusinessProfile{
			{Name: "Luigi's Pizza", Rating: 4.2},
			{Name: "Tony's Kitchen", Rating: 4.7},
		},
		Metrics:       model.ComparisonMetrics{CompetitorCount: 2, RatingRank: 2, RatingGapToTop: 0.2},
		AISummary:     `{"overview":"ok"}`,
		AISuggestions: []string{"Get more reviews."},
		Metadata:      model.ReportMetadata{LLMProvider: "anthropic", Style: model.StyleCasual},
	}
}

func newTestServer(t *testing.T, comparer Comparer, st store.Store) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewHandler(comparer, st).Router())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, &mockComparer{}, &memStore{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestCreateComparison(t *testing.T) {
	t.Parallel()

	comparer := &mockComparer{}
	comparer.On("CreateComparison", mock.Anything, insights.ComparisonRequest{
		Identifier: "Mario's Restaurant",
		Style:      model.StyleDataDriven,
	}).Return(sampleReport(), nil)

	st := &memStore{}
	srv := newTestServer(t, comparer, st)

	payload := `{"user_business_identifier":"Mario's Restaurant","report_style":"data-driven"}`
	resp, err := http.Post(srv.URL+"/api/v1/comparisons", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var report model.ComparisonReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, "cmp_rpt_sample0001", report.ReportID)
	assert.Equal(t, 2, report.Metrics.RatingRank)

	require.Len(t, st.reports, 1, "successful comparisons are persisted")
	comparer.AssertExpectations(t)
}

func TestCreateComparison_InvalidBody(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, &mockComparer{}, &memStore{})

	resp, err := http.Post(srv.URL+"/api/v1/comparisons", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
}

func TestCreateComparison_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", apperr.Validation("user_business_identifier", "identifier is required"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"insufficient data", apperr.InsufficientData("too few competitors", 1), http.StatusUnprocessableEntity, "INSUFFICIENT_DATA"},
		{"rate limit", apperr.RateLimit("anthropic"), http.StatusTooManyRequests, "RATE_LIMIT_ERROR"},
		{"business data", apperr.BusinessData("x", assert.AnError), http.StatusBadGateway, "BUSINESS_DATA_ERROR"},
		{"llm service", apperr.LLMService("anthropic", assert.AnError), http.StatusBadGateway, "LLM_SERVICE_ERROR"},
		{"untyped", assert.AnError, http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			comparer := &mockComparer{}
			comparer.On("CreateComparison", mock.Anything, mock.Anything).Return(nil, tt.err)
			srv := newTestServer(t, comparer, &memStore{})

			resp, err := http.Post(srv.URL+"/api/v1/comparisons", "application/json",
				strings.NewReader(`{"user_business_identifier":"x"}`))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["code"])
			}
		})
	}
}

func TestGetComparison(t *testing.T) {
	t.Parallel()

	st := &memStore{}
	require.NoError(t, st.SaveReport(context.Background(), sampleReport()))
	srv := newTestServer(t, &mockComparer{}, st)

	resp, err := http.Get(srv.URL + "/api/v1/comparisons/cmp_rpt_sample0001")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var report model.ComparisonReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, "Mario's Restaurant", report.UserBusiness.Name)
}

func TestGetComparison_NotFound(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, &mockComparer{}, &memStore{})

	resp, err := http.Get(srv.URL + "/api/v1/comparisons/cmp_rpt_missing000")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestGetComparison_StoreFailure(t *testing.T) {
	t.Parallel()
	st := &memStore{getErr: eris.New("database is locked")}
	srv := newTestServer(t, &mockComparer{}, st)

	resp, err := http.Get(srv.URL + "/api/v1/comparisons/cmp_rpt_0123456789")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestListComparisons(t *testing.T) {
	t.Parallel()

	st := &memStore{}
	require.NoError(t, st.SaveReport(context.Background(), sampleReport()))
	srv := newTestServer(t, &mockComparer{}, st)

	resp, err := http.Get(srv.URL + "/api/v1/comparisons?limit=10")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Reports []model.ComparisonReport `json:"reports"`
		Count   int                      `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Reports, 1)
}

func TestListComparisons_EmptyIsArray(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, &mockComparer{}, &memStore{})

	resp, err := http.Get(srv.URL + "/api/v1/comparisons")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(0), body["count"])
	assert.NotNil(t, body["reports"])
}
