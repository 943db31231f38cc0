package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"skincare-ingredients/internal/core/ai/provider"
	"skincare-ingredients/internal/infrastructure/config"
	"skincare-ingredients/internal/pkg/common"
)

// ErrNotConfigured 未設定 API Key
var ErrNotConfigured = errors.New("provider not configured")

// Client OpenAI 相容的 chat completions 客戶端（OpenRouter、OpenAI 皆適用）
type Client struct {
	name        string
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	http        *resty.Client
	limiter     *rate.Limiter
}

type chatRequest struct {
	Model       string             `json:"model"`
	Messages    []provider.Message `json:"messages"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
	Temperature float64            `json:"temperature"`
	Stop        []string           `json:"stop,omitempty"`
	Stream      bool               `json:"stream"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message provider.Message `json:"message"`
	} `json:"choices"`
	Usage provider.Usage `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}

// NewClient 創建客戶端；未設定 API Key 時回傳 ErrNotConfigured
func NewClient(cfg config.LLMConfig) (*Client, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("%s: %w", cfg.Name, ErrNotConfigured)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("Content-Type", "application/json").
		SetHeader("HTTP-Referer", "https://skincare-ingredients.local").
		SetHeader("X-Title", "Skincare Ingredients")

	// 每分鐘請求數轉換為 token bucket
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	}

	name := cfg.Name
	if name == "" {
		name = "openrouter"
	}

	return &Client{
		name:        name,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     timeout,
		http:        httpClient,
		limiter:     rate.NewLimiter(limit, 1),
	}, nil
}

// Name 提供者名稱
func (c *Client) Name() string { return c.name }

// GetModel 獲取模型名稱
func (c *Client) GetModel() string { return c.model }

// GetTimeout 獲取請求超時
func (c *Client) GetTimeout() time.Duration { return c.timeout }

// Generate 生成回應
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: rate limiter: %w", c.name, err)
	}

	body := chatRequest{
		Model:       c.model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stop:        req.Stop,
		Stream:      false,
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = c.maxTokens
	}
	if body.Temperature == 0 {
		body.Temperature = c.temperature
	}

	common.LogDebug("Sending request to AI provider",
		zap.String("provider", c.name),
		zap.String("model", c.model),
		zap.Int("messages", len(req.Messages)),
	)

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to send request: %w", c.name, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s: API returned status %d: %s", c.name, resp.StatusCode(), errorMessage(resp.Body()))
	}

	var result chatResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("%s: failed to parse response: %w", c.name, err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("%s: no choices in response", c.name)
	}

	content := strings.TrimSpace(result.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("%s: empty content in response", c.name)
	}

	model := result.Model
	if model == "" {
		model = c.model
	}
	return &provider.Response{
		Content:  content,
		Provider: c.name,
		Model:    model,
		Usage:    result.Usage,
	}, nil
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.http.GetClient().CloseIdleConnections()
	return nil
}

func errorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	if len(body) > 200 {
		return string(body[:200])
	}
	return string(body)
}
