package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"skincare-ingredients/internal/core/ai/provider"
	"skincare-ingredients/internal/infrastructure/telemetry"
	"skincare-ingredients/internal/pkg/common"
)

var (
	// ErrNoProvider 沒有任何已設定的提供者
	ErrNoProvider = errors.New("no AI provider configured")
	// ErrProvidersExhausted 所有提供者都失敗
	ErrProvidersExhausted = errors.New("all AI providers failed")
	// ErrRejected 回應未通過驗證
	ErrRejected = errors.New("response rejected")
)

// Result 成功的回應及其來源
type Result struct {
	Response *provider.Response
	Provider string
	Attempts int
}

// Chain 依序嘗試的提供者鏈
type Chain struct {
	providers []provider.Provider
	metrics   *telemetry.Metrics
}

// NewChain 創建提供者鏈，順序即優先順序
func NewChain(metrics *telemetry.Metrics, providers ...provider.Provider) *Chain {
	return &Chain{providers: providers, metrics: metrics}
}

// Len 已設定的提供者數量
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.providers)
}

// Complete 依序呼叫提供者；傳輸失敗或 accept 拒絕回應時改用下一個提供者
func (c *Chain) Complete(ctx context.Context, req *provider.Request, accept func(*provider.Response) error) (*Result, error) {
	if c.Len() == 0 {
		return nil, ErrNoProvider
	}

	var lastErr error
	for i, p := range c.providers {
		resp, err := c.try(ctx, p, req, accept)
		if err == nil {
			return &Result{Response: resp, Provider: p.Name(), Attempts: i + 1}, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if i < len(c.providers)-1 {
			common.LogWarn("AI 提供者失敗，改用下一個",
				zap.String("provider", p.Name()),
				zap.String("next", c.providers[i+1].Name()),
				zap.Error(err),
			)
		}
	}
	return nil, fmt.Errorf("%w: %w", ErrProvidersExhausted, lastErr)
}

func (c *Chain) try(ctx context.Context, p provider.Provider, req *provider.Request, accept func(*provider.Response) error) (*provider.Response, error) {
	callCtx := ctx
	if timeout := p.GetTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := p.Generate(callCtx, req)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	} else if accept != nil {
		if rejectErr := accept(resp); rejectErr != nil {
			err = fmt.Errorf("%s: %w: %w", p.Name(), ErrRejected, rejectErr)
			outcome = "rejected"
		}
	}
	common.LogAICall(p.Name(), time.Since(start), err)
	c.metrics.RecordLLM(ctx, p.Name(), outcome)

	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Close 關閉所有提供者
func (c *Chain) Close() error {
	var errs []error
	for _, p := range c.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
