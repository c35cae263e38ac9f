package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

type stubHTTPClient struct {
	status  int
	body    string
	lastReq *http.Request
}

func (c *stubHTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.lastReq = req
	return &http.Response{
		StatusCode: c.status,
		Body:       io.NopCloser(bytes.NewBufferString(c.body)),
		Header:     http.Header{},
	}, nil
}

func chatCompletion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(b)
}

func TestOpenAIConverterConvert(t *testing.T) {
	survey := `{"title":"رضا","questions":[{"text":"س١","type":"likert-5"},{"text":"س٢","type":"text"}]}`
	client := &stubHTTPClient{status: 200, body: chatCompletion(survey)}
	conv := NewOpenAIConverter(client, "sk-test", "", "")

	out, err := conv.Convert(context.Background(), "some raw questions")
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	if len(out.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(out.Questions))
	}
	if out.Questions[0].ID != 1 || len(out.Questions[0].Options) != 5 {
		t.Fatalf("normalization not applied: %+v", out.Questions[0])
	}

	if got := client.lastReq.URL.String(); got != "https://api.openai.com/v1/chat/completions" {
		t.Fatalf("unexpected endpoint %q", got)
	}
	if got := client.lastReq.Header.Get("Authorization"); got != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", got)
	}
}

func TestOpenAIConverterFailures(t *testing.T) {
	ctx := context.Background()

	// Missing credential is a gateway failure, not a panic path.
	conv := NewOpenAIConverter(&stubHTTPClient{status: 200, body: "{}"}, "", "", "")
	if _, err := conv.Convert(ctx, "text"); !isBadGateway(err) {
		t.Fatalf("expected bad_gateway for missing key, got %v", err)
	}

	// Upstream error status.
	conv = NewOpenAIConverter(&stubHTTPClient{status: 500, body: "boom"}, "sk", "", "")
	if _, err := conv.Convert(ctx, "text"); !isBadGateway(err) {
		t.Fatalf("expected bad_gateway for 500, got %v", err)
	}

	// Model returned something that is not survey JSON.
	conv = NewOpenAIConverter(&stubHTTPClient{status: 200, body: chatCompletion("not json")}, "sk", "", "")
	if _, err := conv.Convert(ctx, "text"); !isBadGateway(err) {
		t.Fatalf("expected bad_gateway for malformed content, got %v", err)
	}

	// No partial survey: structurally valid JSON without questions fails too.
	conv = NewOpenAIConverter(&stubHTTPClient{status: 200, body: chatCompletion(`{"title":"t","questions":[]}`)}, "sk", "", "")
	if _, err := conv.Convert(ctx, "text"); !isBadGateway(err) {
		t.Fatalf("expected bad_gateway for empty survey, got %v", err)
	}

	// Blank input is caller error, not gateway error.
	if _, err := conv.Convert(ctx, "  "); isBadGateway(err) || err == nil {
		t.Fatalf("expected invalid for blank text, got %v", err)
	}
}

func TestOpenAIConverterEndpointShapes(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"", "https://api.openai.com/v1/chat/completions"},
		{"https://proxy.example", "https://proxy.example/v1/chat/completions"},
		{"https://proxy.example/v1", "https://proxy.example/v1/chat/completions"},
		{"https://p.example/v1/chat/completions", "https://p.example/v1/chat/completions"},
	}
	for _, c := range cases {
		conv := NewOpenAIConverter(nil, "sk", c.base, "")
		if got := conv.endpoint(); got != c.want {
			t.Fatalf("base %q: expected %q, got %q", c.base, c.want, got)
		}
	}
}

func isBadGateway(err error) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == ErrorBadGateway
}
