package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sony/gobreaker"
)

// BreakerTranslator 连续失败达到阈值后熔断，熔断期间直接返回不可用错误
type BreakerTranslator struct {
	next Translator
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerTranslator(next Translator, cfg BreakerConfig, logger *slog.Logger) *BreakerTranslator {
	if logger == nil {
		logger = slog.Default()
	}
	maxFailures := cfg.MaxFailures
	settings := gobreaker.Settings{
		Name:        next.Name(),
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// 调用方取消的请求不算上游故障
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("翻译服务熔断状态变化", "provider", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerTranslator{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *BreakerTranslator) Name() string { return b.next.Name() }

// State 当前熔断状态，用于健康检查
func (b *BreakerTranslator) State() string { return b.cb.State().String() }

func (b *BreakerTranslator) Translate(ctx context.Context, text string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Translate(ctx, text)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", newAPIError(KindUnavailable, "Translation provider temporarily unavailable",
				fmt.Errorf("%s: %w", b.next.Name(), err))
		}
		return "", err
	}
	return out.(string), nil
}
