package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ramonehamilton/deck-analyst/internal/inference"
	"github.com/ramonehamilton/deck-analyst/internal/llm"
	"github.com/ramonehamilton/deck-analyst/internal/logging"
	"github.com/ramonehamilton/deck-analyst/internal/metrics"
	"github.com/ramonehamilton/deck-analyst/internal/validation"
)

// DefaultGenerationTimeout bounds a single generator call.
const DefaultGenerationTimeout = 300 * time.Second

// Config holds generation settings.
type Config struct {
	Model         string
	FallbackModel string
	Style         llm.APIStyle
	Timeout       time.Duration
	MaxDeckChars  int
	Tokens        TokenTiers
	MaxRetries    int
}

// DefaultConfig returns the default generation settings.
func DefaultConfig() Config {
	return Config{
		Model:         llm.DefaultOpenAIModel,
		FallbackModel: llm.DefaultOpenAIFallbackModel,
		Style:         llm.StyleChat,
		Timeout:       DefaultGenerationTimeout,
		MaxDeckChars:  DefaultMaxDeckChars,
		Tokens:        DefaultTokenTiers(),
		MaxRetries:    DefaultMaxRetries,
	}
}

// GenerationOptions describe one logical analysis request.
type GenerationOptions struct {
	// RequestID keys the single-flight guard. Empty gets a fresh id.
	RequestID   string
	Context     *inference.InferredContext
	DeckText    string
	Profile     string
	UserMessage string

	// Feedback holds the validation errors of each earlier failed attempt.
	Feedback [][]string
}

// AnalysisResult is one generated reply split into prose and block.
type AnalysisResult struct {
	RequestID    string                 `json:"request_id"`
	Text         string                 `json:"text"`
	Structured   *validation.Structured `json:"structured"`
	ParseErr     error                  `json:"-"`
	Model        string                 `json:"model"`
	UsedFallback bool                   `json:"used_fallback"`
}

// Orchestrator builds prompts and calls the generator.
type Orchestrator struct {
	generator llm.Generator
	builder   *PromptBuilder
	inflight  *InFlight
	config    Config
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewOrchestrator creates an orchestrator. inflight may be shared between
// orchestrators; nil creates a private guard.
func NewOrchestrator(gen llm.Generator, config Config, inflight *InFlight, logger *zap.Logger, m *metrics.Metrics) *Orchestrator {
	if inflight == nil {
		inflight = NewInFlight()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultGenerationTimeout
	}
	return &Orchestrator{
		generator: gen,
		builder:   NewPromptBuilder(config.MaxDeckChars),
		inflight:  inflight,
		config:    config,
		logger:    logging.OrNop(logger),
		metrics:   m,
	}
}

// Generate runs one generation. A request id already in flight fails with
// a *DoubleCallError without calling the generator.
func (o *Orchestrator) Generate(ctx context.Context, opts GenerationOptions) (*AnalysisResult, error) {
	id := opts.RequestID
	if id == "" {
		id = uuid.NewString()
	}
	if err := o.inflight.Acquire(id); err != nil {
		o.logger.Error("Duplicate generation for in-flight request", zap.String("request_id", id))
		return nil, err
	}
	defer o.inflight.Release(id)

	prompt := o.builder.Build(opts.Context, opts.DeckText, opts.Profile, opts.UserMessage).WithFeedback(opts.Feedback)
	cardCount := 0
	if opts.Context != nil {
		cardCount = opts.Context.TotalCards
	}

	start := time.Now()
	resp, err := o.generator.Generate(ctx, prompt.Messages(), llm.Options{
		Model:         o.config.Model,
		FallbackModel: o.config.FallbackModel,
		Timeout:       o.config.Timeout,
		MaxTokens:     TokenBudget(cardCount, o.config.Tokens),
		Style:         o.config.Style,
	})
	elapsed := time.Since(start)
	if err != nil {
		o.metrics.GenerationAttempt("error", elapsed)
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	o.metrics.GenerationAttempt("ok", elapsed)

	o.logger.Debug("Generation completed",
		zap.String("request_id", id),
		zap.String("model", resp.Model),
		zap.Duration("duration", elapsed))

	out := &AnalysisResult{
		RequestID:    id,
		Model:        resp.Model,
		UsedFallback: resp.UsedFallback,
	}
	block, prose, found := SplitReply(resp.Text)
	out.Text = prose
	if found {
		out.Structured, out.ParseErr = ParseStructured(block)
	} else {
		out.ParseErr = &ParseError{Reason: "no fenced block in reply"}
	}
	return out, nil
}
