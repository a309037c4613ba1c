package speech

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned when the breaker is open and rejects calls to
// prevent hammering a provider that is already failing.
var ErrCircuitOpen = errors.New("speech: circuit breaker is open")

// BreakerConfig tunes a provider circuit breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that trips the circuit.
	MaxFailures uint32
	// OpenTimeout is how long the circuit stays open before allowing probes.
	OpenTimeout time.Duration
	// CallTimeout bounds each individual provider call.
	CallTimeout time.Duration
}

// DefaultBreakerConfig matches the behavior expected of phone-call latencies:
// trip after 3 consecutive failures, probe again after 30s, and never let a
// single call hold a caller on the line for more than 20s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures: 3,
		OpenTimeout: 30 * time.Second,
		CallTimeout: 20 * time.Second,
	}
}

func newBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
	})
}

// GuardedTranscriber wraps a Transcriber with a circuit breaker and a
// per-call timeout.
type GuardedTranscriber struct {
	inner   Transcriber
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewGuardedTranscriber wraps t.
func NewGuardedTranscriber(t Transcriber, cfg BreakerConfig) *GuardedTranscriber {
	return &GuardedTranscriber{
		inner:   t,
		breaker: newBreaker("transcriber", cfg),
		timeout: cfg.CallTimeout,
	}
}

// Transcribe runs the wrapped call under the breaker with a bounded deadline.
func (g *GuardedTranscriber) Transcribe(ctx context.Context, filePath string) (Transcription, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	out, err := g.breaker.Execute(func() (any, error) {
		return g.inner.Transcribe(ctx, filePath)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Transcription{}, ErrCircuitOpen
		}
		return Transcription{}, err
	}
	return out.(Transcription), nil
}

// GuardedSynthesizer wraps a Synthesizer with a circuit breaker and a
// per-call timeout.
type GuardedSynthesizer struct {
	inner   Synthesizer
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewGuardedSynthesizer wraps s.
func NewGuardedSynthesizer(s Synthesizer, cfg BreakerConfig) *GuardedSynthesizer {
	return &GuardedSynthesizer{
		inner:   s,
		breaker: newBreaker("synthesizer", cfg),
		timeout: cfg.CallTimeout,
	}
}

// Synthesize runs the wrapped call under the breaker with a bounded deadline.
func (g *GuardedSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	out, err := g.breaker.Execute(func() (any, error) {
		return g.inner.Synthesize(ctx, text)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrCircuitOpen
		}
		return nil, err
	}
	return out.([]byte), nil
}
