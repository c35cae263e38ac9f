package services

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"istibyan/internal/models"
)

// GeminiConverter uses Google's Gemini API with a response schema so the
// model is constrained to the survey JSON shape.
type GeminiConverter struct {
	client *genai.Client
	model  string
}

func NewGeminiConverter(ctx context.Context, apiKey, model string) (*GeminiConverter, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if strings.TrimSpace(model) == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiConverter{client: client, model: model}, nil
}

func surveySchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title": {Type: genai.TypeString},
			"questions": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id":   {Type: genai.TypeInteger},
						"text": {Type: genai.TypeString},
						"type": {Type: genai.TypeString, Enum: []string{
							string(models.QuestionSingleChoice),
							string(models.QuestionMultipleChoice),
							string(models.QuestionLikert5),
							string(models.QuestionText),
							string(models.QuestionBinary),
						}},
						"options": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
					},
					Required: []string{"text", "type"},
				},
			},
		},
		Required: []string{"title", "questions"},
	}
}

func (c *GeminiConverter) Convert(ctx context.Context, text string) (*models.Survey, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewInvalidError("survey text required")
	}
	result, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(conversionPrompt+"\n\nQuestion text:\n"+text),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   surveySchema(),
			Temperature:      genai.Ptr[float32](0.2),
		},
	)
	if err != nil {
		return nil, NewBadGatewayError(err.Error())
	}
	out := result.Text()
	if strings.TrimSpace(out) == "" {
		return nil, NewBadGatewayError("empty response from model")
	}
	return parseSurveyOutput(out)
}

var _ SurveyConverter = (*GeminiConverter)(nil)
