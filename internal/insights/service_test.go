package insights

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/competitor-insights/internal/apperr"
	"github.com/sells-group/competitor-insights/internal/model"
	"github.com/sells-group/competitor-insights/internal/provider"
)

type mockDataProvider struct {
	mock.Mock
}

func (m *mockDataProvider) Resolve(ctx context.Context, identifier string) (model.BusinessProfile, error) {
	args := m.Called(ctx, identifier)
	return args.Get(0).(model.BusinessProfile), args.Error(1)
}

func (m *mockDataProvider) DiscoverCompetitors(ctx context.Context, category string, limit int) ([]model.BusinessProfile, error) {
	args := m.Called(ctx, category, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.BusinessProfile), args.Error(1)
}

func (m *mockDataProvider) Mode() model.ProviderMode {
	return model.ProviderModeFixture
}

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Generate(ctx context.Context, prompt *Prompt) (*model.LLMResult, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LLMResult), args.Error(1)
}

func stubLLMResult() *model.LLMResult {
	return &model.LLMResult{
		Content:     `{"overview":"ok"}`,
		Suggestions: []string{"Get more reviews.", "Add photos.", "Update hours."},
		TokensUsed:  900,
		Model:       "claude-haiku-4-5-20251001",
		Provider:    "anthropic",
		Metadata:    map[string]any{"format": "json"},
	}
}

func TestService_CreateComparison_EmptyIdentifier(t *testing.T) {
	t.Parallel()

	data := &mockDataProvider{}
	llm := &mockLLM{}
	svc := NewService(data, llm)

	for _, identifier := range []string{"", "   ", "\t\n"} {
		_, err := svc.CreateComparison(context.Background(), ComparisonRequest{Identifier: identifier})
		require.Error(t, err)
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	}

	// Validation rejects before any provider call.
	data.AssertNotCalled(t, "Resolve")
	llm.AssertNotCalled(t, "Generate")
}

func TestService_CreateComparison_EndToEnd(t *testing.T) {
	t.Parallel()

	user := model.BusinessProfile{
		Name: "Mario's Restaurant", Website: "https://mariosrestaurant.fi",
		Rating: 4.5, RatingCount: 125, ImageCount: 10, Category: "Restaurant",
	}
	discovered := []model.BusinessProfile{
		user, // the user's own listing also matches its category
		{Name: "Luigi's Pizza", Rating: 4.2, RatingCount: 310, ImageCount: 20, Category: "Restaurant"},
		{Name: "Tony's Kitchen", Rating: 4.7, RatingCount: 89, ImageCount: 5, Category: "Restaurant"},
	}

	data := &mockDataProvider{}
	data.On("Resolve", mock.Anything, "Mario's Restaurant").Return(user, nil)
	data.On("DiscoverCompetitors", mock.Anything, "Restaurant", DefaultMaxCompetitors).Return(discovered, nil)

	llm := &mockLLM{}
	llm.On("Generate", mock.Anything, mock.MatchedBy(func(p *Prompt) bool {
		return p.Style == model.StyleCasual && len(p.Competitors) == 2
	})).Return(stubLLMResult(), nil)

	svc := NewService(data, llm)
	report, err := svc.CreateComparison(context.Background(), ComparisonRequest{Identifier: "Mario's Restaurant"})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, user, report.UserBusiness)
	require.Len(t, report.CompetitorBusinesses, 2, "the user's own listing is excluded")

	assert.Equal(t, 2, report.Metrics.RatingRank)
	assert.Equal(t, 2, report.Metrics.CompetitorCount)
	assert.InDelta(t, 0.2, report.Metrics.RatingGapToTop, 1e-9)

	assert.Equal(t, `{"overview":"ok"}`, report.AISummary)
	assert.Len(t, report.AISuggestions, 3)
	assert.Equal(t, "anthropic", report.Metadata.LLMProvider)
	assert.Equal(t, 900, report.Metadata.TokensUsed)
	assert.Equal(t, model.StyleCasual, report.Metadata.Style)
	assert.False(t, report.CreatedAt.IsZero())

	data.AssertExpectations(t)
	llm.AssertExpectations(t)
}

func TestService_CreateComparison_StyleDefaultsToCasual(t *testing.T) {
	t.Parallel()

	user := model.BusinessProfile{Name: "Solo", Rating: 4.0, Category: "Cafe"}

	data := &mockDataProvider{}
	data.On("Resolve", mock.Anything, "Solo").Return(user, nil)
	data.On("DiscoverCompetitors", mock.Anything, "Cafe", DefaultMaxCompetitors).Return([]model.BusinessProfile{}, nil)

	llm := &mockLLM{}
	llm.On("Generate", mock.Anything, mock.MatchedBy(func(p *Prompt) bool {
		return p.Style == model.StyleCasual
	})).Return(stubLLMResult(), nil)

	svc := NewService(data, llm)
	report, err := svc.CreateComparison(context.Background(), ComparisonRequest{Identifier: "Solo"})
	require.NoError(t, err)
	assert.Equal(t, model.StyleCasual, report.Metadata.Style)
}

func TestService_CreateComparison_InvalidStyle(t *testing.T) {
	t.Parallel()

	user := model.BusinessProfile{Name: "Solo", Rating: 4.0, Category: "Cafe"}

	data := &mockDataProvider{}
	data.On("Resolve", mock.Anything, "Solo").Return(user, nil)
	data.On("DiscoverCompetitors", mock.Anything, "Cafe", DefaultMaxCompetitors).Return([]model.BusinessProfile{}, nil)

	llm := &mockLLM{}
	svc := NewService(data, llm)

	_, err := svc.CreateComparison(context.Background(), ComparisonRequest{
		Identifier: "Solo",
		Style:      model.ReportStyle("formal"),
	})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
	llm.AssertNotCalled(t, "Generate")
}

func TestService_CreateComparison_ResolveFailure(t *testing.T) {
	t.Parallel()

	data := &mockDataProvider{}
	data.On("Resolve", mock.Anything, "Down Town Deli").
		Return(model.BusinessProfile{}, errors.New("backend unavailable"))

	svc := NewService(data, &mockLLM{})
	_, err := svc.CreateComparison(context.Background(), ComparisonRequest{Identifier: "Down Town Deli"})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeBusinessData))
}

func TestService_CreateComparison_LLMFailurePropagates(t *testing.T) {
	t.Parallel()

	user := model.BusinessProfile{Name: "Solo", Rating: 4.0, Category: "Cafe"}

	data := &mockDataProvider{}
	data.On("Resolve", mock.Anything, "Solo").Return(user, nil)
	data.On("DiscoverCompetitors", mock.Anything, "Cafe", DefaultMaxCompetitors).Return([]model.BusinessProfile{}, nil)

	llm := &mockLLM{}
	llm.On("Generate", mock.Anything, mock.Anything).
		Return(nil, apperr.LLMService("anthropic", errors.New("overloaded")))

	svc := NewService(data, llm)
	_, err := svc.CreateComparison(context.Background(), ComparisonRequest{Identifier: "Solo"})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeLLMService))
}

func TestService_WithFixtureProvider(t *testing.T) {
	t.Parallel()

	fixture := provider.NewFixture(provider.DefaultPlaces(), rand.New(rand.NewPCG(7, 7)))

	llm := &mockLLM{}
	llm.On("Generate", mock.Anything, mock.Anything).Return(stubLLMResult(), nil)

	svc := NewService(fixture, llm)
	report, err := svc.CreateComparison(context.Background(), ComparisonRequest{
		Identifier: "Mario's Restaurant",
		Style:      model.StyleDataDriven,
	})
	require.NoError(t, err)

	assert.Equal(t, "Mario's Restaurant", report.UserBusiness.Name)
	assert.NotEmpty(t, report.CompetitorBusinesses)
	for _, c := range report.CompetitorBusinesses {
		assert.NotEqual(t, "Mario's Restaurant", c.Name)
	}
}

func TestExcludeSelf(t *testing.T) {
	t.Parallel()

	user := model.BusinessProfile{Name: "Mario's Restaurant", Website: "https://mariosrestaurant.fi"}
	competitors := []model.BusinessProfile{
		{Name: "mario's restaurant"},
		{Name: "Someone Else", Website: "HTTPS://MARIOSRESTAURANT.FI"},
		{Name: "Luigi's Pizza"},
		{Name: "Tony's Kitchen"},
	}

	got := excludeSelf(user, competitors)
	require.Len(t, got, 2)
	assert.Equal(t, "Luigi's Pizza", got[0].Name)
	assert.Equal(t, "Tony's Kitchen", got[1].Name)
}
