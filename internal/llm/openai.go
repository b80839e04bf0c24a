package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ramonehamilton/deck-analyst/internal/logging"
)

// DefaultOpenAIFallbackModel is used when Options.FallbackModel is empty.
const DefaultOpenAIFallbackModel = "gpt-4o-mini"

// OpenAIGenerator generates through the OpenAI API.
type OpenAIGenerator struct {
	client *openai.Client
	logger *zap.Logger
}

// NewOpenAIGenerator creates a generator. baseURL may be empty.
func NewOpenAIGenerator(apiKey, baseURL string, logger *zap.Logger) *OpenAIGenerator {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(config),
		logger: logging.OrNop(logger),
	}
}

var (
	modelProblem     = regexp.MustCompile(`model.*not found|model.*unavailable|model.*does not exist|model.*invalid|not a chat model|not supported.*chat\.completions`)
	parameterProblem = regexp.MustCompile(`unsupported.*parameter|parameter.*not supported|invalid.*parameter`)
	contextProblem   = regexp.MustCompile(`context.*length|context.*exceeded|token.*limit.*exceeded`)
)

// shouldFallback reports whether err is a model or parameter problem that a
// different model might not have. Auth failures and context-length errors
// repeat on any model.
func shouldFallback(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	status := apiErr.HTTPStatusCode
	if status < 400 || status >= 500 || status == 401 || status == 403 {
		return false
	}
	msg := strings.ToLower(apiErr.Message)
	if contextProblem.MatchString(msg) {
		return false
	}
	if modelProblem.MatchString(msg) || parameterProblem.MatchString(msg) {
		return true
	}
	return strings.EqualFold(apiErr.Type, "invalid_request_error") && (strings.Contains(msg, "model") || strings.Contains(msg, "parameter"))
}

// Generate calls the primary model and retries once on the fallback model
// for model or parameter errors.
func (g *OpenAIGenerator) Generate(ctx context.Context, messages []Message, opts Options) (*Response, error) {
	ctx, cancel := withTimeout(ctx, opts.Timeout)
	defer cancel()

	resp, err := g.complete(ctx, opts.Model, messages, opts)
	if err == nil {
		return resp, nil
	}

	fallback := opts.FallbackModel
	if fallback == "" {
		fallback = DefaultOpenAIFallbackModel
	}
	if !shouldFallback(err) || fallback == opts.Model {
		return nil, toAPIError(err)
	}

	g.logger.Warn("Model error, retrying with fallback",
		zap.String("model", opts.Model), zap.String("fallback", fallback), zap.Error(err))
	resp, err = g.complete(ctx, fallback, messages, opts)
	if err != nil {
		return nil, toAPIError(err)
	}
	resp.UsedFallback = true
	return resp, nil
}

func (g *OpenAIGenerator) complete(ctx context.Context, model string, messages []Message, opts Options) (*Response, error) {
	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: buildOpenAIMessages(messages, opts.Style),
	}
	if opts.MaxTokens > 0 {
		req.MaxCompletionTokens = opts.MaxTokens
	}

	out, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("openai returned no text for model %s", model)
	}
	return &Response{
		Text:         out.Choices[0].Message.Content,
		Model:        model,
		InputTokens:  out.Usage.PromptTokens,
		OutputTokens: out.Usage.CompletionTokens,
	}, nil
}

// buildOpenAIMessages maps messages to the chosen request shape. The input
// style keeps the system prompt as a system message and folds the rest of
// the conversation into one user message of typed text parts.
func buildOpenAIMessages(messages []Message, style APIStyle) []openai.ChatCompletionMessage {
	if style != StyleInput {
		out := make([]openai.ChatCompletionMessage, 0, len(messages))
		for _, m := range messages {
			out = append(out, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
		}
		return out
	}

	system, rest := splitSystem(messages)
	var out []openai.ChatCompletionMessage
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	parts := make([]openai.ChatMessagePart, 0, len(rest))
	for _, m := range rest {
		parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: m.Content})
	}
	if len(parts) > 0 {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts})
	}
	return out
}

func toAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Provider: "openai", StatusCode: apiErr.HTTPStatusCode, Type: apiErr.Type, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &APIError{Provider: "openai", StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}
	return fmt.Errorf("openai request failed: %w", err)
}
