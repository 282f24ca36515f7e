package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/semaphore"

	"github.com/himigchat/himig/internal/profile"
	chaterr "github.com/himigchat/himig/server/internal/errors"
	"github.com/himigchat/himig/server/internal/observability"
)

// systemInstruction pins the assistant to the OPM music domain. It is part of
// the fixed generation configuration and never varies per request.
const systemInstruction = "You are a fun and quirky OPM music recommendation system.\n" +
	"You only take instructions if it is related to OPM music."

// Config holds the completion provider configuration. All generation
// parameters are fixed at construction time.
type Config struct {
	BaseURL     string
	APIKey      string
	ChatModel   string
	Temperature float32
	MaxTokens   int
	MaxRetries  int
	Timeout     time.Duration
	// MaxInFlight caps concurrent completion calls process-wide.
	MaxInFlight int64
}

// DefaultConfig returns the default configuration. Temperature and output
// length match the product's tuned values.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "https://api.openai.com/v1",
		APIKey:      "",
		ChatModel:   "gpt-4o-mini",
		Temperature: 1.0,
		MaxTokens:   1500,
		MaxRetries:  3,
		Timeout:     30 * time.Second,
		MaxInFlight: 8,
	}
}

// NewConfigFromProfile creates provider config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := DefaultConfig()
	cfg.APIKey = p.AIAPIKey
	if p.AIBaseURL != "" {
		cfg.BaseURL = p.AIBaseURL
	}
	if p.AIModel != "" {
		cfg.ChatModel = p.AIModel
	}
	return cfg
}

// Message represents one transcript entry handed to the provider.
type Message struct {
	Role    string // "user" or "model"
	Content string
}

// Completer is the capability the turn orchestrator depends on.
type Completer interface {
	Complete(ctx context.Context, history []Message, userText string) (string, error)
}

// Provider is a long-lived completion capability constructed once at process
// start and injected where needed.
type Provider struct {
	client *openai.Client
	config *Config
	sem    *semaphore.Weighted
}

// NewProvider creates a new completion provider.
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required, set HIMIG_AI_API_KEY environment variable")
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxInFlight == 0 {
		cfg.MaxInFlight = 8
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
		sem:    semaphore.NewWeighted(cfg.MaxInFlight),
	}, nil
}

// Complete generates a reply for the new user text given the prior exchange.
// The history is replayed unchanged; the new text goes last. Quota failures
// are classified as QuotaExhausted, everything else as ProviderError.
func (p *Provider) Complete(ctx context.Context, history []Message, userText string) (string, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", chaterr.ProviderError("completion canceled", err)
	}
	defer p.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemInstruction,
	})
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    toProviderRole(m.Role),
			Content: m.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userText,
	})

	req := openai.ChatCompletionRequest{
		Model:       p.config.ChatModel,
		Messages:    messages,
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.MaxTokens,
	}

	started := time.Now()
	var result string
	err := p.doWithRetry(ctx, func() error {
		resp, err := p.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty chat response")
		}
		result = resp.Choices[0].Message.Content
		return nil
	})
	observability.GlobalMetrics().RecordCompletion(time.Since(started), err != nil)
	if err != nil {
		if isQuotaError(err) {
			observability.GlobalMetrics().RecordQuotaRejection()
			return "", chaterr.QuotaExhausted("the assistant is over its request quota, please try again later", err)
		}
		return "", chaterr.ProviderError("failed to complete chat", err)
	}

	return result, nil
}

// toProviderRole maps the stored role vocabulary to the provider's.
func toProviderRole(role string) string {
	if role == "model" {
		return openai.ChatMessageRoleAssistant
	}
	return openai.ChatMessageRoleUser
}

// isQuotaError reports whether the provider signaled a rate or quota limit.
func isQuotaError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}

// doWithRetry executes a function with exponential backoff retry.
// Quota errors are never retried; the caller reports them to the user.
func (p *Provider) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.config.MaxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			if isQuotaError(err) {
				return err
			}
			if attempt < p.config.MaxRetries-1 {
				waitTime := time.Duration(math.Pow(2, float64(attempt))) * time.Second
				slog.Debug("completion request failed, retrying",
					"attempt", attempt+1,
					"wait_time", waitTime,
					"error", err)
				select {
				case <-time.After(waitTime):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	return lastErr
}
