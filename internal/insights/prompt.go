// Package insights implements the comparison pipeline: metric derivation,
// prompt construction, LLM invocation with deterministic fallbacks, and the
// orchestrating service.
package insights

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/competitor-insights/internal/apperr"
	"github.com/sells-group/competitor-insights/internal/model"
)

// responseSchema is the structural contract every generation request sends
// to the backend. The analysis object and a 3-5 item suggestions array are
// both required.
const responseSchema = `{
  "type": "object",
  "properties": {
    "analysis": {
      "type": "object",
      "properties": {
        "overview": {"type": "string"},
        "strengths": {"type": "array", "items": {"type": "string"}},
        "weaknesses": {"type": "array", "items": {"type": "string"}},
        "competitive_position": {"type": "string"}
      },
      "required": ["overview", "strengths", "weaknesses", "competitive_position"]
    },
    "suggestions": {
      "type": "array",
      "items": {"type": "string"},
      "minItems": 3,
      "maxItems": 5
    }
  },
  "required": ["analysis", "suggestions"]
}`

const systemInstruction = `You are an expert business analyst specializing in competitive analysis of local businesses.

Respond with a single JSON object matching this schema:
{
  "analysis": {
    "overview": "competitive landscape summary",
    "strengths": ["list", "of", "strengths"],
    "weaknesses": ["list", "of", "weaknesses"],
    "competitive_position": "summary text"
  },
  "suggestions": ["list", "of", "actionable", "suggestions"]
}

Rules:
- Respond ONLY with valid JSON. Do not include any text outside the JSON object.
- Ensure all strings are terminated and all objects are closed.
- Include exactly 3-5 suggestions.
- Ground every statement in the numeric metrics provided in the request.
- Phrase each suggestion as a direct, actionable sentence without bullet formatting.`

// Style-specific tone additions appended to the system instruction.
const (
	casualTone     = `Tone: write for a business owner, not an analyst. Use plain, friendly language and avoid jargon. Mention numbers only where they make the point clearer.`
	dataDrivenTone = `Tone: prefer quantified phrasing. Cite the supplied ratings, review counts, gaps, and rank explicitly, and frame strengths and weaknesses in terms of those numbers.`
)

// Prompt is a fully built generation request: instructions, the response
// schema contract, and the source profiles the deterministic fallback rule
// needs if the model output cannot be parsed.
type Prompt struct {
	SystemInstruction string
	UserInstruction   string
	ResponseSchema    string

	Business    model.BusinessProfile
	Competitors []model.BusinessProfile
	Style       model.ReportStyle
}

// profileForPrompt is the per-business payload embedded in the user
// instruction, with the derived completeness score included.
type profileForPrompt struct {
	model.BusinessProfile
	CompletenessScore float64 `json:"completeness_score"`
}

// BuildPrompt constructs the system and user instructions for one comparison.
// Only "casual" and "data-driven" are accepted styles; anything else is a
// validation error, never a silent default.
func BuildPrompt(user model.BusinessProfile, competitors []model.BusinessProfile, metrics model.ComparisonMetrics, style model.ReportStyle) (*Prompt, error) {
	var tone string
	switch style {
	case model.StyleCasual:
		tone = casualTone
	case model.StyleDataDriven:
		tone = dataDrivenTone
	default:
		return nil, apperr.Validation("report_style",
			fmt.Sprintf("unsupported style %q, expected %q or %q", style, model.StyleCasual, model.StyleDataDriven))
	}

	userJSON, err := json.Marshal(profileForPrompt{BusinessProfile: user, CompletenessScore: user.CompletenessScore()})
	if err != nil {
		return nil, eris.Wrap(err, "insights: marshal user profile")
	}

	competitorPayload := make([]profileForPrompt, 0, len(competitors))
	for _, c := range competitors {
		competitorPayload = append(competitorPayload, profileForPrompt{BusinessProfile: c, CompletenessScore: c.CompletenessScore()})
	}
	competitorsJSON, err := json.Marshal(competitorPayload)
	if err != nil {
		return nil, eris.Wrap(err, "insights: marshal competitor profiles")
	}

	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return nil, eris.Wrap(err, "insights: marshal metrics")
	}

	var sb strings.Builder
	sb.WriteString("Analyze this competitive data and return JSON with an analysis of the competitive landscape, key strengths and weaknesses, a competitive position assessment, and 3-5 specific suggestions.\n\n")
	sb.WriteString("Your business:\n")
	sb.Write(userJSON)
	sb.WriteString("\n\nCompetitors (")
	sb.WriteString(fmt.Sprintf("%d", len(competitors)))
	sb.WriteString("):\n")
	sb.Write(competitorsJSON)
	sb.WriteString("\n\nDerived comparison metrics:\n")
	sb.Write(metricsJSON)
	sb.WriteString("\n\nRespond ONLY with valid JSON matching the specified format. Do not include any explanatory text outside the JSON.")

	return &Prompt{
		SystemInstruction: systemInstruction + "\n\n" + tone,
		UserInstruction:   sb.String(),
		ResponseSchema:    responseSchema,
		Business:          user,
		Competitors:       competitors,
		Style:             style,
	}, nil
}
