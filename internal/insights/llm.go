package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/competitor-insights/internal/apperr"
	"github.com/sells-group/competitor-insights/internal/model"
	"github.com/sells-group/competitor-insights/internal/resilience"
	"github.com/sells-group/competitor-insights/pkg/anthropic"
	"github.com/sells-group/competitor-insights/pkg/perplexity"
)

// Generation bounds shared by all backends.
const (
	generationMaxTokens   = 1024
	generationTemperature = 0.7
)

// LLMProvider invokes a generative backend with a built prompt and returns
// the parsed (or deterministically degraded) result. Implementations never
// fail on malformed model output; they fail only when the backend call
// itself fails.
type LLMProvider interface {
	Generate(ctx context.Context, prompt *Prompt) (*model.LLMResult, error)
}

// defaultSuggestions is the fixed fallback list substituted when a
// syntactically valid response carries an empty suggestions array.
var defaultSuggestions = []string{
	"Respond to your most recent customer reviews to show the business is active.",
	"Add up-to-date photos of your space, products, and team.",
	"Keep your listed business hours accurate, including holidays.",
	"Write a short business description that highlights what makes you different.",
	"Link your menu or service list so customers can browse before visiting.",
}

// fallbackSuggestions derives suggestions from the raw numeric inputs. The
// rule is pure and identical no matter which failure path invoked it: it
// flags a below-average review count and each missing profile field. If the
// profile gives the rule nothing to flag, the fixed default list is returned
// so the suggestion set is never empty.
func fallbackSuggestions(user model.BusinessProfile, competitors []model.BusinessProfile) []string {
	var suggestions []string

	var reviewSum float64
	for _, c := range competitors {
		reviewSum += float64(c.RatingCount)
	}
	avgReviews := reviewSum / float64(max(len(competitors), 1))

	if float64(user.RatingCount) < avgReviews {
		suggestions = append(suggestions,
			fmt.Sprintf("Increase your review count - competitors average %.0f reviews.", avgReviews))
	}
	if !user.HasHours {
		suggestions = append(suggestions, "Add business hours information to your profile.")
	}
	if !user.HasDescription {
		suggestions = append(suggestions, "Add a business description to your profile.")
	}
	if !user.HasMenuLink {
		suggestions = append(suggestions, "Add a menu link or service information to your profile.")
	}

	if len(suggestions) == 0 {
		return defaultSuggestions
	}
	return suggestions
}

// analysisEnvelope is the expected shape of the model's JSON output.
type analysisEnvelope struct {
	Analysis    json.RawMessage `json:"analysis"`
	Suggestions []string        `json:"suggestions"`
}

// buildResult turns raw model output into an LLMResult. Parse failures
// degrade: the raw text becomes the content, the deterministic rule supplies
// suggestions, and metadata records the fallback.
func buildResult(raw string, tokens int, modelName, providerName string, prompt *Prompt) *model.LLMResult {
	result := &model.LLMResult{
		TokensUsed: tokens,
		Model:      modelName,
		Provider:   providerName,
	}

	var envelope analysisEnvelope
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &envelope); err != nil || len(envelope.Analysis) == 0 {
		zap.L().Warn("llm: response is not valid analysis JSON, using fallback suggestions",
			zap.String("provider", providerName),
			zap.String("content_head", head(raw, 100)),
			zap.Error(err))

		result.Content = raw
		result.Suggestions = fallbackSuggestions(prompt.Business, prompt.Competitors)
		result.Metadata = map[string]any{
			"format":  "text",
			"warning": "failed_to_parse_json",
		}
		return result
	}

	result.Content = string(envelope.Analysis)
	result.Suggestions = envelope.Suggestions
	result.Metadata = map[string]any{"format": "json"}

	if len(result.Suggestions) == 0 {
		zap.L().Warn("llm: response carried no suggestions, substituting defaults",
			zap.String("provider", providerName))
		result.Suggestions = defaultSuggestions
		result.Metadata["warning"] = "empty_suggestions"
	}

	return result
}

// cleanJSON strips markdown fences and trims to the outermost JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// AnthropicProvider generates analyses via the Anthropic Messages API.
type AnthropicProvider struct {
	client  anthropic.Client
	model   string
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewAnthropicProvider creates an Anthropic-backed LLM provider. limiter may
// be nil to disable client-side rate limiting.
func NewAnthropicProvider(client anthropic.Client, modelName string, limiter *rate.Limiter) *AnthropicProvider {
	return &AnthropicProvider{
		client:  client,
		model:   modelName,
		limiter: limiter,
		retry:   resilience.DefaultRetryConfig(),
	}
}

func (p *AnthropicProvider) Generate(ctx context.Context, prompt *Prompt) (*model.LLMResult, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, apperr.LLMService("anthropic", err)
		}
	}

	temp := generationTemperature
	req := anthropic.MessageRequest{
		Model:       p.model,
		MaxTokens:   generationMaxTokens,
		Temperature: &temp,
		System: []anthropic.SystemBlock{
			{Text: prompt.SystemInstruction},
			{Text: "Output JSON schema:\n" + prompt.ResponseSchema},
		},
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt.UserInstruction},
		},
	}

	resp, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return p.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return nil, apperr.LLMService("anthropic", err)
	}

	resp.Usage.LogCost(p.model, "comparison")

	tokens := int(resp.Usage.InputTokens + resp.Usage.OutputTokens)
	return buildResult(extractText(resp), tokens, resp.Model, "anthropic", prompt), nil
}

// extractText concatenates all text content blocks.
func extractText(resp *anthropic.MessageResponse) string {
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "" || b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// PerplexityProvider generates analyses via the Perplexity chat API.
type PerplexityProvider struct {
	client  perplexity.Client
	model   string
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewPerplexityProvider creates a Perplexity-backed LLM provider.
func NewPerplexityProvider(client perplexity.Client, modelName string, limiter *rate.Limiter) *PerplexityProvider {
	return &PerplexityProvider{
		client:  client,
		model:   modelName,
		limiter: limiter,
		retry:   resilience.DefaultRetryConfig(),
	}
}

func (p *PerplexityProvider) Generate(ctx context.Context, prompt *Prompt) (*model.LLMResult, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, apperr.LLMService("perplexity", err)
		}
	}

	temp := generationTemperature
	maxTokens := generationMaxTokens
	req := perplexity.ChatCompletionRequest{
		Model: p.model,
		Messages: []perplexity.Message{
			{Role: "system", Content: prompt.SystemInstruction},
			{Role: "user", Content: prompt.UserInstruction},
		},
		Temperature:    &temp,
		MaxTokens:      &maxTokens,
		ResponseFormat: perplexity.JSONSchemaFormat(json.RawMessage(prompt.ResponseSchema)),
	}

	resp, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*perplexity.ChatCompletionResponse, error) {
		return p.client.ChatCompletion(ctx, req)
	})
	if err != nil {
		return nil, apperr.LLMService("perplexity", err)
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	tokens := resp.Usage.PromptTokens + resp.Usage.CompletionTokens
	zap.L().Info("llm: perplexity usage",
		zap.String("model", p.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return buildResult(content, tokens, p.model, "perplexity", prompt), nil
}
