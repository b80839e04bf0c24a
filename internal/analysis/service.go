package analysis

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ramonehamilton/deck-analyst/internal/inference"
	"github.com/ramonehamilton/deck-analyst/internal/logging"
	"github.com/ramonehamilton/deck-analyst/internal/validation"
)

// ContextInferrer is the subset of inference.Engine the service needs.
type ContextInferrer interface {
	Infer(ctx context.Context, req inference.Request) (*inference.InferredContext, error)
}

// AnalyzeRequest is the full pipeline input.
type AnalyzeRequest struct {
	RequestID   string   `json:"request_id,omitempty" validate:"omitempty,max=128"`
	DeckText    string   `json:"deck_text" validate:"required,max=200000"`
	UserMessage string   `json:"user_message,omitempty" validate:"max=4000"`
	Commander   string   `json:"commander,omitempty" validate:"max=200"`
	Format      string   `json:"format,omitempty" validate:"omitempty,oneof=commander Commander edh EDH modern Modern pioneer Pioneer"`
	Colors      []string `json:"colors,omitempty" validate:"omitempty,dive,oneof=W U B R G w u b r g"`
	Plan        string   `json:"plan,omitempty" validate:"omitempty,oneof=budget optimized"`
	Currency    string   `json:"currency,omitempty" validate:"omitempty,len=3"`
	Profile     string   `json:"profile,omitempty" validate:"max=4000"`
}

// Report is the pipeline output.
type Report struct {
	Context *inference.InferredContext `json:"context"`
	Outcome *Outcome                   `json:"analysis"`
}

// Service is the consumer-facing entry point.
type Service struct {
	inferrer   ContextInferrer
	controller *RetryController
	logger     *zap.Logger
}

// NewService creates a service.
func NewService(inferrer ContextInferrer, controller *RetryController, logger *zap.Logger) *Service {
	return &Service{
		inferrer:   inferrer,
		controller: controller,
		logger:     logging.OrNop(logger),
	}
}

// GenerateValidatedDeckAnalysis runs the retry loop for an already
// inferred context.
func (s *Service) GenerateValidatedDeckAnalysis(ctx context.Context, opts GenerationOptions, vctx validation.Context) (*Outcome, error) {
	out, err := s.controller.Run(ctx, opts, vctx)
	if err != nil {
		return nil, err
	}
	if !out.Valid() {
		s.logger.Warn("Returning analysis with validation errors",
			zap.String("request_id", opts.RequestID),
			zap.Int("attempt", out.Attempts),
			zap.Strings("errors", out.ValidationErrors))
	}
	return out, nil
}

// Analyze infers the deck context and generates a validated analysis.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*Report, error) {
	format, _ := inference.ParseFormat(req.Format)
	ictx, err := s.inferrer.Infer(ctx, inference.Request{
		DeckText:    req.DeckText,
		UserMessage: req.UserMessage,
		Format:      format,
		Commander:   req.Commander,
		Colors:      req.Colors,
		Plan:        inference.Plan(req.Plan),
		Currency:    req.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to infer deck context: %w", err)
	}

	out, err := s.GenerateValidatedDeckAnalysis(ctx, GenerationOptions{
		RequestID:   req.RequestID,
		Context:     ictx,
		DeckText:    req.DeckText,
		Profile:     req.Profile,
		UserMessage: req.UserMessage,
	}, validation.Context{
		Format:    string(ictx.Format),
		Commander: ictx.Commander,
		Colors:    ictx.Colors,
		DeckText:  req.DeckText,
	})
	if err != nil {
		return nil, err
	}
	return &Report{Context: ictx, Outcome: out}, nil
}
