package insights

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/competitor-insights/internal/apperr"
	"github.com/sells-group/competitor-insights/internal/model"
	"github.com/sells-group/competitor-insights/internal/provider"
)

// DefaultMaxCompetitors caps competitor discovery when the request does not
// specify a limit.
const DefaultMaxCompetitors = 50

// ComparisonRequest describes one comparison to run.
type ComparisonRequest struct {
	Identifier     string
	Style          model.ReportStyle
	MaxCompetitors int
}

// Service orchestrates the comparison pipeline end to end. Each stage runs
// synchronously; the single suspension point is the generative-backend call
// inside the LLM provider.
type Service struct {
	data provider.DataProvider
	llm  LLMProvider
}

// NewService creates a comparison service over the given providers.
func NewService(data provider.DataProvider, llm LLMProvider) *Service {
	return &Service{data: data, llm: llm}
}

// CreateComparison resolves the user business, discovers competitors,
// derives metrics, generates the analysis, and assembles an immutable
// report embedding point-in-time profile copies.
func (s *Service) CreateComparison(ctx context.Context, req ComparisonRequest) (*model.ComparisonReport, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		return nil, apperr.Validation("user_business_identifier", "identifier is required")
	}

	style := req.Style
	if style == "" {
		style = model.StyleCasual
	}
	maxCompetitors := req.MaxCompetitors
	if maxCompetitors <= 0 {
		maxCompetitors = DefaultMaxCompetitors
	}

	log := zap.L().With(
		zap.String("identifier", identifier),
		zap.String("report_style", string(style)),
	)
	log.Info("comparison: started", zap.Int("max_competitors", maxCompetitors))

	report, err := s.run(ctx, identifier, style, maxCompetitors)
	if err != nil {
		if apperr.As(err) == nil {
			// Unexpected failure: log full context, re-raise unchanged.
			log.Error("comparison: unexpected failure", zap.Error(err))
		} else {
			log.Warn("comparison: failed", zap.Error(err))
		}
		return nil, err
	}

	log.Info("comparison: completed",
		zap.String("report_uuid", report.ID),
		zap.String("user_business", report.UserBusiness.Name),
		zap.Int("competitor_count", report.CompetitorCount()),
		zap.Int("tokens_used", report.Metadata.TokensUsed),
	)
	return report, nil
}

func (s *Service) run(ctx context.Context, identifier string, style model.ReportStyle, maxCompetitors int) (*model.ComparisonReport, error) {
	user, err := s.data.Resolve(ctx, identifier)
	if err != nil {
		return nil, apperr.BusinessData(identifier, err)
	}

	competitors, err := s.data.DiscoverCompetitors(ctx, user.Category, maxCompetitors)
	if err != nil {
		return nil, apperr.BusinessData(identifier, err)
	}
	competitors = excludeSelf(user, competitors)

	metrics := model.DeriveMetrics(user, competitors)

	prompt, err := BuildPrompt(user, competitors, metrics, style)
	if err != nil {
		return nil, err
	}

	llmResult, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &model.ComparisonReport{
		ID:                   uuid.NewString(),
		UserBusiness:         user,
		CompetitorBusinesses: competitors,
		Metrics:              metrics,
		AISummary:            llmResult.Content,
		AISuggestions:        llmResult.Suggestions,
		Metadata: model.ReportMetadata{
			LLMProvider: llmResult.Provider,
			LLMModel:    llmResult.Model,
			TokensUsed:  llmResult.TokensUsed,
			Style:       style,
			Extra:       llmResult.Metadata,
		},
		CreatedAt: time.Now().UTC(),
	}, nil
}

// excludeSelf drops the user's own listing from the discovered competitor
// set, matching by name or website case-insensitively. Discovery order is
// preserved.
func excludeSelf(user model.BusinessProfile, competitors []model.BusinessProfile) []model.BusinessProfile {
	name := strings.ToLower(user.Name)
	website := strings.ToLower(user.Website)

	out := competitors[:0:0]
	for _, c := range competitors {
		if strings.ToLower(c.Name) == name {
			continue
		}
		if website != "" && strings.ToLower(c.Website) == website {
			continue
		}
		out = append(out, c)
	}
	return out
}
