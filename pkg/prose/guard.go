package prose

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"negotiation-backend/model"
)

// Guard bounds a Generator with a timeout and a circuit breaker. Every failure comes
// back as model.ErrUpstreamUnavailable so callers can fall back to templates.
type Guard struct {
	gen     Generator
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[string]
}

func NewGuard(name string, gen Generator, timeout time.Duration) *Guard {
	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(log.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("generation breaker state changed")
		},
	})
	return &Guard{gen: gen, timeout: timeout, cb: cb}
}

func (g *Guard) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.cb.Execute(func() (string, error) {
		return g.call(ctx, prompt)
	})
	if err != nil {
		return "", errors.Wrap(model.ErrUpstreamUnavailable, err.Error())
	}
	return text, nil
}

// call enforces the deadline even when the generator ignores its context.
func (g *Guard) call(ctx context.Context, prompt string) (string, error) {
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := g.gen.Generate(ctx, prompt)
		done <- result{text, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		if strings.TrimSpace(res.text) == "" {
			return "", errors.New("empty generation response")
		}
		return strings.TrimSpace(res.text), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
