package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Config configures the OpenAI-compatible client. TimeoutMS <= 0 leaves
// the model call without a deadline; only the page fetch carries one.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	TimeoutMS int
}

// OpenAIClient 使用 go-openai SDK 的 Client 实现，适配任意 OpenAI 兼容端点
// OpenAIClient implements Client with the go-openai SDK against any
// OpenAI-compatible endpoint (Gemini's compatibility surface included).
type OpenAIClient struct {
	client *openai.Client
	model  string
	mu     sync.RWMutex
}

// NewOpenAIClient creates an SDK-backed client.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	sdkCfg := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		sdkCfg.BaseURL = base
	}
	httpClient := &http.Client{}
	if cfg.TimeoutMS > 0 {
		httpClient.Timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	sdkCfg.HTTPClient = httpClient

	return &OpenAIClient{
		client: openai.NewClientWithConfig(sdkCfg),
		model:  cfg.Model,
	}
}

func (c *OpenAIClient) CurrentModel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// SetModel 切换活跃模型
// SetModel switches the active model.
func (c *OpenAIClient) SetModel(model string) error {
	model = strings.TrimSpace(model)
	if model == "" {
		return fmt.Errorf("model is empty")
	}
	c.mu.Lock()
	c.model = model
	c.mu.Unlock()
	return nil
}

// Generate sends one user prompt and returns the model's text. Failures
// are returned as-is for the caller to classify; no retry is attempted.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.CurrentModel(),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
