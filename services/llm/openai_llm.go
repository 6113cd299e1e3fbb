package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/awnumar/memguard"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var openaiTracer = otel.Tracer("mirror.llm.openai")

const (
	defaultOpenAIModel = "gpt-4o-mini"
	openaiSecretPath   = "/run/secrets/openai_api_key"
)

// OpenAIClient generates text through the OpenAI chat completions API.
//
// The API key lives in a memguard enclave between calls; it is decrypted
// only for the duration of each request.
type OpenAIClient struct {
	key     *memguard.Enclave
	model   string
	baseURL string
}

// NewOpenAIClient builds a client from the environment. The key comes from
// OPENAI_API_KEY or the container secret file; OPENAI_MODEL and
// OPENAI_BASE_URL override the model and endpoint.
func NewOpenAIClient() (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKeyBytes, err := os.ReadFile(openaiSecretPath)
		if err != nil {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		apiKey = strings.TrimSpace(string(apiKeyBytes))
		slog.Info("Read the OpenAI API key from container secrets", "path", openaiSecretPath)
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = defaultOpenAIModel
		slog.Warn("OPENAI_MODEL not set, defaulting to "+defaultOpenAIModel, "model", model)
	}

	slog.Info("Initializing OpenAI client", "model", model)
	return &OpenAIClient{
		key:     memguard.NewEnclave([]byte(apiKey)),
		model:   model,
		baseURL: strings.TrimSuffix(os.Getenv("OPENAI_BASE_URL"), "/"),
	}, nil
}

// HasOpenAIKey reports whether an API key is reachable without building a
// client. Backend auto-selection uses this to avoid error logs when no key
// is configured.
func HasOpenAIKey() bool {
	if os.Getenv("OPENAI_API_KEY") != "" {
		return true
	}
	_, err := os.Stat(openaiSecretPath)
	return err == nil
}

// Generate implements the Client interface.
func (o *OpenAIClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	ctx, span := openaiTracer.Start(ctx, "OpenAIClient.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", o.model))
	slog.Debug("Generating text via OpenAI", "model", o.model)

	client, err := o.newAPIClient()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if params.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: params.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if params.MaxTokens != nil {
		req.MaxCompletionTokens = *params.MaxTokens
	}
	if params.TopP != nil {
		req.TopP = *params.TopP
	}
	if len(params.Stop) > 0 {
		req.Stop = params.Stop
	}

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("OpenAI API call failed", "error", err)
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("OpenAI returned no choices")
		return "", fmt.Errorf("OpenAI returned no choices")
	}

	slog.Debug("Received response from OpenAI", "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}

// Name implements the Client interface.
func (o *OpenAIClient) Name() string {
	return "openai"
}

// newAPIClient opens the key enclave just long enough to configure an API
// client for one request.
func (o *OpenAIClient) newAPIClient() (*openai.Client, error) {
	keyBuf, err := o.key.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open the API key enclave: %w", err)
	}
	// The string conversion copies: Destroy wipes the locked buffer, so the
	// config must not alias it.
	apiKey := string(keyBuf.Bytes())
	keyBuf.Destroy()

	config := openai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		config.BaseURL = o.baseURL
	}
	return openai.NewClientWithConfig(config), nil
}
