package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/randomtoy/cyberdamus-go/internal/domain"
	"github.com/randomtoy/cyberdamus-go/internal/ports"
)

const (
	defaultDisclaimer = "For reflection/entertainment; not medical/legal/financial advice."
	appTitle          = "cyberdamus"
	maxErrorBody      = 512
)

// Client narrates fortunes through the OpenRouter chat completions API.
// Models are tried in order until one returns a usable interpretation.
type Client struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
	models     []string
	logger     *slog.Logger
}

func NewClient(httpClient *http.Client, apiKey, baseURL, model string, fallbackModels []string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		apiKey:     apiKey,
		endpoint:   strings.TrimRight(baseURL, "/") + "/chat/completions",
		models:     append([]string{model}, fallbackModels...),
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// statusError is a non-200 answer from the API.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.code, e.body)
}

// fatal reports whether another model cannot do better, as with a bad key.
func (e *statusError) fatal() bool {
	return e.code == http.StatusUnauthorized || e.code == http.StatusForbidden
}

func (c *Client) Interpret(ctx context.Context, in ports.InterpretInput) (ports.InterpretOutput, error) {
	conversation := []chatMessage{
		{Role: "system", Content: buildSystemPrompt(in.Lang)},
		{Role: "user", Content: buildUserPrompt(in)},
	}

	var lastErr error
	for i, model := range c.models {
		out, err := c.narrate(ctx, model, conversation)
		if err == nil {
			return out, nil
		}
		lastErr = err

		var se *statusError
		if errors.As(err, &se) && se.fatal() {
			break
		}
		if i < len(c.models)-1 {
			c.logger.WarnContext(ctx, "model failed, trying next",
				"model", model,
				"fortune_id", in.FortuneID,
				"error", err,
			)
		}
	}
	return ports.InterpretOutput{}, lastErr
}

// narrate asks model for an interpretation and, if the answer is not valid
// JSON, asks once more with the bad answer quoted back.
func (c *Client) narrate(ctx context.Context, model string, conversation []chatMessage) (ports.InterpretOutput, error) {
	content, err := c.complete(ctx, model, conversation)
	if err != nil {
		return ports.InterpretOutput{}, fmt.Errorf("%w: %w", domain.ErrUpstreamLLM, err)
	}

	out, err := decodeOutput(content)
	if err != nil {
		c.logger.WarnContext(ctx, "LLM returned invalid JSON, retrying", "model", model, "error", err)
		retry := append(conversation[:len(conversation):len(conversation)],
			chatMessage{Role: "assistant", Content: content},
			chatMessage{Role: "user", Content: retryPrompt()},
		)
		if content, err = c.complete(ctx, model, retry); err != nil {
			return ports.InterpretOutput{}, fmt.Errorf("%w: %w", domain.ErrUpstreamLLM, err)
		}
		if out, err = decodeOutput(content); err != nil {
			return ports.InterpretOutput{}, fmt.Errorf("%w: %w", domain.ErrInvalidLLMJSON, err)
		}
	}

	out.Model = model
	return out, nil
}

func decodeOutput(content string) (ports.InterpretOutput, error) {
	var out ports.InterpretOutput
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &out); err != nil {
		return out, err
	}
	if strings.TrimSpace(out.Text) == "" {
		return out, errors.New("empty interpretation text")
	}
	if out.Style == "" {
		out.Style = "neutral"
	}
	if out.Disclaimer == "" {
		out.Disclaimer = defaultDisclaimer
	}
	return out, nil
}

func (c *Client) complete(ctx context.Context, model string, messages []chatMessage) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:          model,
		Messages:       messages,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Title", appTitle)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &statusError{code: resp.StatusCode, body: string(snippet)}
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return strings.TrimSpace(chat.Choices[0].Message.Content), nil
}

// stripCodeFence removes a surrounding ``` or ```json fence that some models
// add despite being told not to.
func stripCodeFence(s string) string {
	t, ok := strings.CutPrefix(s, "```")
	if !ok {
		return s
	}
	t = strings.TrimPrefix(t, "json")
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}
