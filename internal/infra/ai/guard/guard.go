package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/pactguard/pactguard/internal/domain/ai"
)

// Settings for the guarded collaborator. Zero values take defaults.
type Settings struct {
	// RatePerSecond caps outbound calls; Burst allows short spikes.
	RatePerSecond    float64
	Burst            int
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Client wraps a collaborator with a rate limiter and a circuit breaker.
// Quota errors do not count as breaker failures.
type Client struct {
	next    ai.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker
}

func New(next ai.Client, s Settings, logger logrus.FieldLogger) *Client {
	if s.RatePerSecond <= 0 {
		s.RatePerSecond = 2
	}
	if s.Burst <= 0 {
		s.Burst = 4
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "collaborator-" + next.Name(),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ai.ErrQuotaExceeded) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from.String(),
				"to_state":        to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
	return &Client{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(s.RatePerSecond), s.Burst),
		cb:      cb,
	}
}

func (c *Client) Name() string { return c.next.Name() }

func (c *Client) Analyze(ctx context.Context, text string) (ai.Analysis, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return ai.Analysis{}, fmt.Errorf("rate limit wait: %v: %w", err, ai.ErrUnavailable)
	}
	out, err := c.cb.Execute(func() (interface{}, error) {
		return c.next.Analyze(ctx, text)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ai.Analysis{}, fmt.Errorf("circuit breaker: %v: %w", err, ai.ErrUnavailable)
	}
	if err != nil {
		return ai.Analysis{}, err
	}
	return out.(ai.Analysis), nil
}

// State exposes the breaker state for health reporting.
func (c *Client) State() string { return c.cb.State().String() }
