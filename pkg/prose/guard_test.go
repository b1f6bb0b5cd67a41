package prose

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"negotiation-backend/model"
)

func TestGuard_PassesThrough(t *testing.T) {
	g := NewGuard("test", GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "  We can do $90.00.  ", nil
	}), time.Second)

	text, err := g.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "We can do $90.00.", text)
}

func TestGuard_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	g := NewGuard("test", GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		<-release // ignores ctx on purpose
		return "too late", nil
	}), 20*time.Millisecond)

	start := time.Now()
	_, err := g.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, model.ErrUpstreamUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGuard_EmptyResponse(t *testing.T) {
	g := NewGuard("test", GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "   ", nil
	}), time.Second)

	_, err := g.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, model.ErrUpstreamUnavailable)
}

func TestGuard_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	calls := 0
	g := NewGuard("test", GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", errors.New("boom")
	}), time.Second)

	for i := 0; i < 8; i++ {
		_, err := g.Generate(context.Background(), "prompt")
		assert.ErrorIs(t, err, model.ErrUpstreamUnavailable)
	}
	assert.Equal(t, 5, calls)
}
