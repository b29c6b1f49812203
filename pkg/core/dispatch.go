package core

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"
)

// Dispatcher issues exactly one upstream model call per turn under a
// client-side timeout kept strictly below the platform's response deadline.
// Every failure mode collapses to the empty-string signal; callers fall back
// to the apology speech and save the query as the pending prompt.
type Dispatcher struct {
	provider    Provider
	model       string
	timeout     time.Duration
	maxTokens   int
	temperature *float64
	logger      *slog.Logger
}

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature *float64
	Logger      *slog.Logger
}

// NewDispatcher wraps one provider with a call budget.
func NewDispatcher(provider Provider, opts DispatcherOptions) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 2500 * time.Millisecond
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 120
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Dispatcher{
		provider:    provider,
		model:       opts.Model,
		timeout:     opts.Timeout,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		logger:      opts.Logger,
	}
}

// Provider returns the wrapped provider.
func (d *Dispatcher) Provider() Provider { return d.provider }

// Dispatch sends the messages upstream once. It returns the trimmed answer
// text plus an empty reason, or "" with a short reason label on any
// failure: timeout, rate limit, transport error, malformed body or an
// empty completion. It never blocks past the timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, messages []ChatMessage) (string, string) {
	if d.provider == nil || len(messages) == 0 {
		return "", failureReason(NewInvalidRequestError("no provider or empty prompt"))
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	text, err := d.provider.CreateMessage(ctx, &Request{
		Model:       d.model,
		Messages:    messages,
		MaxTokens:   d.maxTokens,
		Temperature: d.temperature,
	})
	elapsed := time.Since(start)
	if err != nil {
		reason := failureReason(err)
		var apiErr *Error
		retryable := errors.As(err, &apiErr) && apiErr.IsRetryable()
		d.logger.Warn("dispatch failed",
			"provider", d.provider.Name(),
			"model", d.model,
			"reason", reason,
			"retryable", retryable,
			"elapsed_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return "", reason
	}

	text = strings.TrimSpace(text)
	if text == "" {
		d.logger.Warn("dispatch returned no text",
			"provider", d.provider.Name(),
			"model", d.model,
			"elapsed_ms", elapsed.Milliseconds(),
		)
		return "", "empty_answer"
	}
	return text, ""
}

// failureReason buckets errors for logs and metrics.
func failureReason(err error) string {
	switch {
	case err == nil:
		return "none"
	case isTimeout(err):
		return "timeout"
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return string(apiErr.Type)
	}
	return "transport"
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
