package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"reroute/internal/domain"
)

const (
	openAIBaseURL  = "https://api.openai.com/v1"
	defaultTimeout = 30 * time.Second
	defaultModel   = "gpt-4o-mini"
	temperature    = 0.3
	maxPlanTokens  = 1200
)

// OpenAIClient is a thin chat-completions client. It asks for a JSON object
// response and decodes it straight into a plan draft.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenAIClient creates a client for the given API key. An empty model
// falls back to the default; a non-positive timeout falls back to 30s.
func NewOpenAIClient(apiKey, model string, timeout time.Duration) *OpenAIClient {
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OpenAIClient{
		baseURL:    openAIBaseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string {
	return c.model
}

type chatRequest struct {
	Model          string        `json:"model"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens"`
	ResponseFormat responseSpec  `json:"response_format"`
	Messages       []chatMessage `json:"messages"`
}

type responseSpec struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CompletePlan sends the rendered context to the model and decodes the JSON
// plan it returns.
func (c *OpenAIClient) CompletePlan(ctx context.Context, systemPrompt, userPrompt string) (domain.PlanDraft, domain.TokenUsage, error) {
	var draft domain.PlanDraft
	var usage domain.TokenUsage

	body, err := json.Marshal(chatRequest{
		Model:          c.model,
		Temperature:    temperature,
		MaxTokens:      maxPlanTokens,
		ResponseFormat: responseSpec{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return draft, usage, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return draft, usage, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return draft, usage, fmt.Errorf("calling openai: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return draft, usage, fmt.Errorf("reading response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return draft, usage, fmt.Errorf("decoding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return draft, usage, fmt.Errorf("openai error: %s", parsed.Error.Message)
		}
		return draft, usage, fmt.Errorf("openai returned %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return draft, usage, fmt.Errorf("openai returned no choices")
	}

	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &draft); err != nil {
		return draft, usage, fmt.Errorf("decoding plan: %w", err)
	}

	usage = domain.TokenUsage{
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
	}
	return draft, usage, nil
}
