package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atlas-vision/backend/domain"
	"github.com/atlas-vision/backend/utils/log"
)

// Generator produces text for a request and never fails.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) domain.GenerationResult
}

// FallbackGenerator tries the primary provider once, then the secondary once,
// then gives up with domain.UnavailableText. A nil provider counts as a failed
// attempt.
type FallbackGenerator struct {
	primary   domain.Llm
	secondary domain.Llm
	timeout   time.Duration
}

func NewFallbackGenerator(primary, secondary domain.Llm, timeout time.Duration) *FallbackGenerator {
	return &FallbackGenerator{
		primary:   primary,
		secondary: secondary,
		timeout:   timeout,
	}
}

type attempt struct {
	provider domain.Provider
	text     string
	err      error
}

func (a attempt) ok() bool { return a.err == nil }

func (g *FallbackGenerator) Generate(ctx context.Context, req domain.GenerationRequest) domain.GenerationResult {
	logger := log.WithCtx(ctx)

	for _, step := range []struct {
		provider domain.Provider
		llm      domain.Llm
	}{
		{domain.ProviderPrimary, g.primary},
		{domain.ProviderSecondary, g.secondary},
	} {
		a := g.try(ctx, step.provider, step.llm, req)
		if a.ok() {
			logger.Debug("Text generated", zap.String("provider", string(a.provider)))
			return domain.GenerationResult{Text: a.text, ProviderUsed: a.provider}
		}
		logger.Warn("Text generation attempt failed",
			zap.String("provider", string(a.provider)),
			zap.Error(a.err))
	}

	logger.Error("All text providers failed, returning placeholder")
	return domain.GenerationResult{Text: domain.UnavailableText, ProviderUsed: domain.ProviderNone}
}

func (g *FallbackGenerator) try(ctx context.Context, provider domain.Provider, llm domain.Llm, req domain.GenerationRequest) (a attempt) {
	a.provider = provider
	if llm == nil {
		a.err = fmt.Errorf("%s provider not configured", provider)
		return a
	}

	defer func() {
		if r := recover(); r != nil {
			a.text = ""
			a.err = fmt.Errorf("%s provider panicked: %v", provider, r)
		}
	}()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	text, err := llm.Generate(ctx, req)
	if err != nil {
		a.err = err
		return a
	}
	if strings.TrimSpace(text) == "" {
		a.err = domain.ErrEmptyCompletion
		return a
	}
	a.text = text
	return a
}
