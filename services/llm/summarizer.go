package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/AleutianAI/AleutianMirror/pkg/extensions"
)

// Backend names accepted by MIRROR_SUMMARIZER_BACKEND.
const (
	BackendOpenAI = "openai"
	BackendOllama = "ollama"
	BackendNone   = "none"
)

// SummarizerOptions configures the Summarizer wrapper.
type SummarizerOptions struct {
	// RequestsPerSecond throttles outbound generation calls.
	// Default: 1
	RequestsPerSecond float64

	// Burst is the rate limiter burst size.
	// Default: 2
	Burst int

	// Timeout bounds each generation call. A timed-out call reports the
	// backend as unavailable rather than failing the caller's request.
	// Default: 30s
	Timeout time.Duration
}

// DefaultSummarizerOptions returns defaults, overridable through
// MIRROR_LLM_RPS, MIRROR_LLM_BURST, and MIRROR_LLM_TIMEOUT_SECONDS.
func DefaultSummarizerOptions() SummarizerOptions {
	return SummarizerOptions{
		RequestsPerSecond: envFloat("MIRROR_LLM_RPS", 1),
		Burst:             envInt("MIRROR_LLM_BURST", 2),
		Timeout:           time.Duration(envInt("MIRROR_LLM_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

// Summarizer adapts a Client to the extensions.Summarizer interface,
// adding rate limiting and a per-call timeout. A nil client is the
// disabled state: Available reports false and every call fails with
// extensions.ErrSummarizerUnavailable.
type Summarizer struct {
	client  Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewSummarizer wraps a client. A nil opts uses DefaultSummarizerOptions.
func NewSummarizer(client Client, opts *SummarizerOptions) *Summarizer {
	if opts == nil {
		defaults := DefaultSummarizerOptions()
		opts = &defaults
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 1
	}
	if opts.Burst <= 0 {
		opts.Burst = 2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Summarizer{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		timeout: opts.Timeout,
	}
}

// NewFromEnv builds the summarizer selected by MIRROR_SUMMARIZER_BACKEND.
//
// "openai" and "ollama" force that backend and fail when it cannot be
// configured. "none" disables generation. An empty value auto-selects:
// OpenAI when a key is reachable, then Ollama when OLLAMA_BASE_URL is set,
// otherwise disabled.
func NewFromEnv() (*Summarizer, error) {
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("MIRROR_SUMMARIZER_BACKEND")))
	switch backend {
	case BackendNone:
		slog.Info("Summarizer disabled by configuration")
		return NewSummarizer(nil, nil), nil

	case BackendOpenAI:
		client, err := NewOpenAIClient()
		if err != nil {
			return nil, err
		}
		return NewSummarizer(client, nil), nil

	case BackendOllama:
		client, err := NewOllamaClient()
		if err != nil {
			return nil, err
		}
		return NewSummarizer(client, nil), nil

	case "":
		if HasOpenAIKey() {
			client, err := NewOpenAIClient()
			if err != nil {
				return nil, err
			}
			return NewSummarizer(client, nil), nil
		}
		if os.Getenv("OLLAMA_BASE_URL") != "" {
			client, err := NewOllamaClient()
			if err != nil {
				return nil, err
			}
			return NewSummarizer(client, nil), nil
		}
		slog.Info("No summarizer backend configured, explanations degrade to canned text")
		return NewSummarizer(nil, nil), nil

	default:
		return nil, fmt.Errorf("unknown summarizer backend %q", backend)
	}
}

// Summarize implements extensions.Summarizer.
func (s *Summarizer) Summarize(ctx context.Context, req extensions.SummarizeRequest) (string, error) {
	if s.client == nil {
		return "", extensions.ErrSummarizerUnavailable
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limit wait: %w", extensions.ErrSummarizerUnavailable, err)
	}

	params := GenerationParams{System: req.System}
	if req.Temperature > 0 {
		temperature := float32(req.Temperature)
		params.Temperature = &temperature
	}
	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		params.MaxTokens = &maxTokens
	}

	text, err := s.client.Generate(ctx, req.Prompt, params)
	if err != nil {
		// A deadline here means the backend is too slow to serve requests,
		// which callers treat the same as no backend at all.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %w", extensions.ErrSummarizerUnavailable, err)
		}
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Available implements extensions.Summarizer.
func (s *Summarizer) Available() bool {
	return s.client != nil
}

// Name implements extensions.Summarizer.
func (s *Summarizer) Name() string {
	if s.client == nil {
		return "none"
	}
	return s.client.Name()
}

var _ extensions.Summarizer = (*Summarizer)(nil)

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Warn("Invalid numeric environment value, using default", "key", key, "value", raw)
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("Invalid numeric environment value, using default", "key", key, "value", raw)
		return fallback
	}
	return v
}
