package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/symptom-triage/internal/core/domain"
	"github.com/kirillkom/symptom-triage/internal/infrastructure/resilience"
)

// Client talks to an OpenAI-compatible chat completions gateway.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	APIKey             string
	Model              string
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     options.APIKey,
		model:      options.Model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete returns the assistant content of the first choice.
func (c *Client) complete(ctx context.Context, messages []chatMessage) (string, error) {
	call := func(ctx context.Context) (string, error) {
		var response chatResponse
		request := chatRequest{Model: c.model, Messages: messages}
		if err := c.postJSON(ctx, "/chat/completions", request, &response, "chat"); err != nil {
			return "", err
		}
		if len(response.Choices) == 0 || strings.TrimSpace(response.Choices[0].Message.Content) == "" {
			return "", domain.WrapError(domain.ErrMalformedResponse, "gateway chat", errors.New("no response from model"))
		}
		return strings.TrimSpace(response.Choices[0].Message.Content), nil
	}
	return resilience.Call(ctx, c.executor, "gateway.chat", call, classifyGatewayError)
}

// Classifier implements ports.SymptomClassifier on top of the gateway.
type Classifier struct {
	client *Client
}

func NewClassifier(client *Client) *Classifier {
	return &Classifier{client: client}
}

func (c *Classifier) Classify(ctx context.Context, req domain.ClassificationRequest) (domain.Verdict, error) {
	content, err := c.client.complete(ctx, []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildUserMessage(req)},
	})
	if err != nil {
		return domain.Verdict{}, mapGatewayError(err)
	}
	return parseVerdict(content)
}

func parseVerdict(content string) (domain.Verdict, error) {
	var verdict domain.Verdict
	if err := json.Unmarshal([]byte(extractJSONObject(stripCodeFences(content))), &verdict); err != nil {
		return domain.Verdict{}, domain.WrapError(domain.ErrMalformedResponse, "parse verdict", err)
	}
	verdict.Urgency = domain.Urgency(strings.ToLower(strings.TrimSpace(string(verdict.Urgency))))
	if !verdict.Urgency.Valid() {
		return domain.Verdict{}, domain.WrapError(domain.ErrMalformedResponse, "parse verdict", fmt.Errorf("unknown urgency %q", verdict.Urgency))
	}
	verdict.Degraded = false
	return verdict.Normalize(), nil
}

func stripCodeFences(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
