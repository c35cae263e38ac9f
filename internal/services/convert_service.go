package services

import (
	"context"
	"encoding/json"
	"strings"

	"istibyan/internal/models"
)

// SurveyConverter turns raw free-form question text into a structured survey.
// Implementations call an external generative model; any failure on that path
// (network, bad status, malformed output, missing credential) comes back as a
// single bad_gateway error. No partial survey is ever returned.
type SurveyConverter interface {
	Convert(ctx context.Context, text string) (*models.Survey, error)
}

// NormalizeSurvey applies the post-gateway rules the converter output must
// satisfy before it is stored or returned:
//   - a question missing an id gets its 1-based position in the sequence;
//   - likert-5 questions have their options replaced with the canonical
//     5-point scale, regardless of what the model produced.
//
// Structural problems (no questions, empty text, unknown type) are reported
// as bad_gateway: they mean the model emitted something unusable.
func NormalizeSurvey(s *models.Survey) error {
	if s == nil || len(s.Questions) == 0 {
		return NewBadGatewayError("conversion produced no questions")
	}
	if strings.TrimSpace(s.Title) == "" {
		s.Title = "استبيان"
	}
	for i := range s.Questions {
		q := &s.Questions[i]
		if q.ID == 0 {
			q.ID = i + 1
		}
		if strings.TrimSpace(q.Text) == "" {
			return NewBadGatewayError("conversion produced a question without text")
		}
		if !models.KnownQuestionType(q.Type) {
			return NewBadGatewayError("conversion produced an unknown question type: " + string(q.Type))
		}
		if q.Type == models.QuestionLikert5 {
			q.Options = models.LikertScale()
		}
		if q.Type == models.QuestionText {
			q.Options = nil
		}
	}
	return nil
}

// parseSurveyOutput decodes a model's JSON output and applies the
// normalization rules. Both converter implementations funnel their raw
// output through here, so malformed output fails identically everywhere.
func parseSurveyOutput(content string) (*models.Survey, error) {
	var survey models.Survey
	if err := json.Unmarshal([]byte(content), &survey); err != nil {
		return nil, NewBadGatewayError("invalid JSON from model")
	}
	if err := NormalizeSurvey(&survey); err != nil {
		return nil, err
	}
	return &survey, nil
}

// conversionPrompt describes the JSON shape the model must produce. Both
// converter implementations share it.
const conversionPrompt = `You convert raw survey question text into structured JSON.
Return a single JSON object with this exact shape:
{"title": string, "questions": [{"id": number, "text": string, "type": string, "options": [string]}]}
Rules:
- "type" is one of: "single-choice", "multiple-choice", "likert-5", "text", "binary".
- Assign sequential ids starting at 1.
- Keep the questions in their original language; do not translate.
- For "text" questions omit options. For "binary" give the two options.
- For "likert-5" you may omit options; they are fixed by the application.
Return only the JSON object, no commentary.`
