package analysis

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ramonehamilton/deck-analyst/internal/logging"
	"github.com/ramonehamilton/deck-analyst/internal/metrics"
	"github.com/ramonehamilton/deck-analyst/internal/validation"
)

// DefaultMaxRetries is the number of regenerations after the first attempt.
const DefaultMaxRetries = 2

// AnalysisValidator checks one generated analysis.
type AnalysisValidator interface {
	Validate(ctx context.Context, prose string, s *validation.Structured, vctx validation.Context) *validation.Result
}

// Outcome is the final result of a validated generation.
type Outcome struct {
	Text               string                 `json:"text"`
	Structured         *validation.Structured `json:"structured"`
	ValidationErrors   []string               `json:"validation_errors"`
	ValidationWarnings []string               `json:"validation_warnings"`
	RetryCount         int                    `json:"retry_count"`
	Attempts           int                    `json:"attempts"`
	AntiSynergies      []validation.Finding   `json:"anti_synergies"`
	Model              string                 `json:"model,omitempty"`
	UsedFallback       bool                   `json:"used_fallback"`
}

// Valid reports whether the outcome passed validation.
func (o *Outcome) Valid() bool { return len(o.ValidationErrors) == 0 }

// RetryController repeats generation until validation passes or the
// attempt bound is reached.
type RetryController struct {
	orchestrator *Orchestrator
	validator    AnalysisValidator
	maxRetries   int
	logger       *zap.Logger
	metrics      *metrics.Metrics
}

// NewRetryController creates a controller. maxRetries < 0 uses the default.
func NewRetryController(o *Orchestrator, v AnalysisValidator, maxRetries int, logger *zap.Logger, m *metrics.Metrics) *RetryController {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	return &RetryController{
		orchestrator: o,
		validator:    v,
		maxRetries:   maxRetries,
		logger:       logging.OrNop(logger),
		metrics:      m,
	}
}

type attempt struct {
	result     *AnalysisResult
	validation *validation.Result
}

// Run folds over at most maxRetries+1 attempts. Each attempt gets the
// errors of every earlier failed attempt as feedback. Generation errors
// consume an attempt; if the last one fails, the best earlier result is
// returned with the error appended. The only error returned is a
// *DoubleCallError.
func (c *RetryController) Run(ctx context.Context, opts GenerationOptions, vctx validation.Context) (*Outcome, error) {
	maxAttempts := c.maxRetries + 1
	var (
		feedback [][]string
		best     *attempt
		lastErr  error
		n        int
	)

	for n = 1; n <= maxAttempts; n++ {
		opts.Feedback = feedback
		res, err := c.orchestrator.Generate(ctx, opts)
		if err != nil {
			if errors.Is(err, ErrDoubleCall) {
				return nil, err
			}
			lastErr = err
			c.logger.Warn("Generation attempt failed",
				zap.Int("attempt", n), zap.String("request_id", opts.RequestID), zap.Error(err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		lastErr = nil

		v := c.validator.Validate(ctx, res.Text, res.Structured, vctx)
		var parseErr *ParseError
		if errors.As(res.ParseErr, &parseErr) {
			v.Warnings = append(v.Warnings, parseErr.Error())
		}
		cur := &attempt{result: res, validation: v}
		if best == nil || len(v.Errors) <= len(best.validation.Errors) {
			best = cur
		}
		if v.Valid {
			return c.finish(cur, n, nil), nil
		}

		c.logger.Info("Analysis failed validation",
			zap.Int("attempt", n), zap.Strings("errors", v.Errors))
		feedback = append(feedback, v.Errors)
	}
	if n > maxAttempts {
		n = maxAttempts
	}
	return c.finish(best, n, lastErr), nil
}

func (c *RetryController) finish(a *attempt, attempts int, genErr error) *Outcome {
	out := &Outcome{
		ValidationErrors:   []string{},
		ValidationWarnings: []string{},
		AntiSynergies:      []validation.Finding{},
		Attempts:           attempts,
		RetryCount:         attempts - 1,
	}
	if a != nil {
		out.Text = a.result.Text
		out.Structured = a.result.Structured
		out.Model = a.result.Model
		out.UsedFallback = a.result.UsedFallback
		out.ValidationErrors = append(out.ValidationErrors, a.validation.Errors...)
		out.ValidationWarnings = append(out.ValidationWarnings, a.validation.Warnings...)
		out.AntiSynergies = append(out.AntiSynergies, a.validation.AntiSynergies...)
	}
	if genErr != nil {
		out.ValidationErrors = append(out.ValidationErrors, fmt.Sprintf("Generation error on attempt %d: %v", attempts, genErr))
	}
	c.metrics.Retries(out.RetryCount)
	return out
}
