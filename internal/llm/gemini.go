package llm

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

	"emaildraft/internal/config"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

var (
	ErrInvalidModel  = errors.New("model is required")
	ErrEmptyResponse = errors.New("empty response from model")
)

// APIError ответ Gemini со статусом не 2xx.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("gemini status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gemini status %d (%s): %s", e.StatusCode, e.Status, e.Message)
}

// BlockedError промпт отклонён фильтрами безопасности.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("prompt blocked: %s", e.Reason)
}

type GeminiOption func(*GeminiClient)

// WithSystemInstruction задаёт системную инструкцию для всех запросов клиента.
func WithSystemInstruction(text string) GeminiOption {
	return func(c *GeminiClient) {
		c.systemInstruction = text
	}
}

// WithGenerationConfig задаёт параметры сэмплирования по умолчанию.
func WithGenerationConfig(gc GenerationConfig) GeminiOption {
	return func(c *GeminiClient) {
		c.generation = gc
	}
}

// GeminiClient клиент generateContent. После создания не изменяется,
// поэтому один экземпляр безопасно разделять между запросами.
type GeminiClient struct {
	apiKey            string
	baseURL           string
	model             string
	systemInstruction string
	generation        GenerationConfig
	httpClient        *http.Client
	logger            *slog.Logger
}

var _ llms.Model = (*GeminiClient)(nil)

func NewGeminiClient(cfg config.GeminiConfig, httpClient *http.Client, logger *slog.Logger, opts ...GeminiOption) *GeminiClient {
	c := &GeminiClient{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		generation: DefaultGenerationConfig(),
		httpClient: httpClient,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call отправляет один пользовательский промпт.
func (c *GeminiClient) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, c, prompt, options...)
}

func (c *GeminiClient) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, opt := range options {
		opt(&opts)
	}

	model := opts.Model
	if model == "" {
		model = c.model
	}
	if model == "" {
		return nil, ErrInvalidModel
	}

	body := generateRequest{
		GenerationConfig: c.generation.merge(opts).wire(),
	}

	systemParts := make([]part, 0, 1)
	if c.systemInstruction != "" {
		systemParts = append(systemParts, part{Text: c.systemInstruction})
	}
	for _, msg := range messages {
		parts := textParts(msg)
		if len(parts) == 0 {
			continue
		}
		if msg.Role == schema.ChatMessageTypeSystem {
			systemParts = append(systemParts, parts...)
			continue
		}
		body.Contents = append(body.Contents, content{Role: roleFor(msg.Role), Parts: parts})
	}
	if len(systemParts) > 0 {
		body.SystemInstruction = &content{Parts: systemParts}
	}

	parsed, err := c.doRequest(ctx, model, body)
	if err != nil {
		return nil, err
	}

	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return nil, &BlockedError{Reason: parsed.PromptFeedback.BlockReason}
	}
	if len(parsed.Candidates) == 0 {
		return nil, ErrEmptyResponse
	}

	choices := make([]*llms.ContentChoice, 0, len(parsed.Candidates))
	for _, cand := range parsed.Candidates {
		var sb strings.Builder
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
		choices = append(choices, &llms.ContentChoice{
			Content:    sb.String(),
			StopReason: cand.FinishReason,
			GenerationInfo: map[string]any{
				"PromptTokens":     parsed.UsageMetadata.PromptTokenCount,
				"CompletionTokens": parsed.UsageMetadata.CandidatesTokenCount,
				"TotalTokens":      parsed.UsageMetadata.TotalTokenCount,
			},
		})
	}
	if choices[0].Content == "" {
		return nil, ErrEmptyResponse
	}

	if c.logger != nil {
		c.logger.Debug("gemini response",
			slog.String("model", model),
			slog.String("finish_reason", choices[0].StopReason),
			slog.Int("total_tokens", parsed.UsageMetadata.TotalTokenCount))
	}

	return &llms.ContentResponse{Choices: choices}, nil
}

func (c *GeminiClient) doRequest(ctx context.Context, model string, body generateRequest) (*generateResponse, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-goog-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, bodyBytes)
	}

	var parsed generateResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &parsed, nil
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		apiErr.Status = env.Error.Status
		apiErr.Message = env.Error.Message
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func textParts(msg llms.MessageContent) []part {
	parts := make([]part, 0, len(msg.Parts))
	for _, p := range msg.Parts {
		if tp, ok := p.(llms.TextContent); ok && tp.Text != "" {
			parts = append(parts, part{Text: tp.Text})
		}
	}
	return parts
}

func roleFor(role schema.ChatMessageType) string {
	if role == schema.ChatMessageTypeAI {
		return "model"
	}
	return "user"
}

type generateRequest struct {
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	Contents          []content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64  `json:"temperature"`
	TopP             float64  `json:"topP,omitempty"`
	TopK             int      `json:"topK,omitempty"`
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string   `json:"responseMimeType,omitempty"`
	StopSequences    []string `json:"stopSequences,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
