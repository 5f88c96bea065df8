package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pactguard/pactguard/internal/domain/ai"
)

type stubClient struct {
	calls int
	err   error
}

func (s *stubClient) Name() string { return "stub" }

func (s *stubClient) Analyze(ctx context.Context, text string) (ai.Analysis, error) {
	s.calls++
	if s.err != nil {
		return ai.Analysis{}, s.err
	}
	return ai.Analysis{Text: "ok " + text, External: true}, nil
}

func TestGuardPassesThrough(t *testing.T) {
	logger, _ := test.NewNullLogger()
	g := New(&stubClient{}, Settings{RatePerSecond: 100, Burst: 10}, logger)

	a, err := g.Analyze(context.Background(), "doc")
	require.NoError(t, err)
	assert.Equal(t, "ok doc", a.Text)
	assert.Equal(t, "stub", g.Name())
}

func TestGuardOpensAfterFailures(t *testing.T) {
	logger, hook := test.NewNullLogger()
	stub := &stubClient{err: errors.New("boom")}
	g := New(stub, Settings{RatePerSecond: 100, Burst: 10, FailureThreshold: 2, OpenTimeout: time.Minute}, logger)

	for i := 0; i < 2; i++ {
		_, err := g.Analyze(context.Background(), "doc")
		require.Error(t, err)
	}
	_, err := g.Analyze(context.Background(), "doc")
	assert.True(t, errors.Is(err, ai.ErrUnavailable))
	assert.Equal(t, 2, stub.calls, "open breaker must not call through")
	assert.Equal(t, "open", g.State())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Circuit breaker state changed", hook.LastEntry().Message)
}

func TestGuardQuotaDoesNotTrip(t *testing.T) {
	logger, _ := test.NewNullLogger()
	stub := &stubClient{err: ai.ErrQuotaExceeded}
	g := New(stub, Settings{RatePerSecond: 100, Burst: 10, FailureThreshold: 1}, logger)

	for i := 0; i < 3; i++ {
		_, err := g.Analyze(context.Background(), "doc")
		assert.True(t, errors.Is(err, ai.ErrQuotaExceeded))
	}
	assert.Equal(t, 3, stub.calls)
	assert.Equal(t, "closed", g.State())
}

func TestGuardHonoursCancelledContext(t *testing.T) {
	logger, _ := test.NewNullLogger()
	g := New(&stubClient{}, Settings{RatePerSecond: 0.001, Burst: 1}, logger)
	_, _ = g.Analyze(context.Background(), "first")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Analyze(ctx, "second")
	assert.True(t, errors.Is(err, ai.ErrUnavailable))
}
