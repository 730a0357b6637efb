package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

type rateLimitedProvider struct {
	next    Provider
	limiter *rate.Limiter
}

// WithRateLimit throttles p to qpm calls per minute, allowing bursts of half
// that. Callers wait for a slot or give up when ctx ends.
func WithRateLimit(p Provider, qpm int) Provider {
	if qpm <= 0 {
		return p
	}
	burst := qpm / 2
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedProvider{
		next:    p,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(qpm)), burst),
	}
}

func (r *rateLimitedProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return r.next.Generate(ctx, systemPrompt, userPrompt)
}

func (r *rateLimitedProvider) Unwrap() Provider { return r.next }
