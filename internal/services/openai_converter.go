package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"istibyan/internal/models"
)

// HTTPClient is satisfied by *http.Client and by test stubs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// OpenAIConverter drives any OpenAI-compatible chat completions endpoint and
// asks for a JSON object response.
type OpenAIConverter struct {
	client  HTTPClient
	apiKey  string
	baseURL string
	model   string
}

func NewOpenAIConverter(client HTTPClient, apiKey, baseURL, model string) *OpenAIConverter {
	if client == nil {
		client = http.DefaultClient
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.openai.com"
	}
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIConverter{client: client, apiKey: apiKey, baseURL: baseURL, model: model}
}

func (c *OpenAIConverter) endpoint() string {
	base := strings.TrimRight(c.baseURL, "/")
	if strings.HasSuffix(base, "/chat/completions") {
		return base
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}

func (c *OpenAIConverter) Convert(ctx context.Context, text string) (*models.Survey, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewInvalidError("survey text required")
	}
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, NewBadGatewayError("conversion service API key not configured")
	}
	payload := map[string]any{
		"model":       c.model,
		"temperature": 0.2,
		"messages": []map[string]string{
			{"role": "system", "content": conversionPrompt},
			{"role": "user", "content": text},
		},
		"response_format": map[string]string{"type": "json_object"},
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(pb))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, NewBadGatewayError(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, NewBadGatewayError(string(b))
	}
	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&cc); err != nil {
		return nil, NewBadGatewayError(err.Error())
	}
	if len(cc.Choices) == 0 {
		return nil, NewBadGatewayError("no choices")
	}
	return parseSurveyOutput(cc.Choices[0].Message.Content)
}

var _ SurveyConverter = (*OpenAIConverter)(nil)
