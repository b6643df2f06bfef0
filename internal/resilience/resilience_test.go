package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = NewTransientError(errors.New("http 503"), http.StatusServiceUnavailable)

func fail(err error) func(context.Context) error {
	return func(context.Context) error { return err }
}

func ok(context.Context) error { return nil }

func testBreaker(failures int, cooldown time.Duration) (*Breaker, *time.Time) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBreaker("data.example.org", BreakerConfig{Failures: failures, Cooldown: cooldown})
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreaker_OpensAfterTransientFailures(t *testing.T) {
	b, _ := testBreaker(2, time.Minute)
	ctx := context.Background()

	assert.Equal(t, errTransient, b.Do(ctx, fail(errTransient)))
	assert.Equal(t, Closed, b.State())
	assert.Equal(t, errTransient, b.Do(ctx, fail(errTransient)))
	assert.Equal(t, Open, b.State())

	called := false
	err := b.Do(ctx, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreaker_IgnoresPermanentErrors(t *testing.T) {
	b, _ := testBreaker(1, time.Minute)
	notFound := errors.New("download: unexpected status 404")

	for range 5 {
		assert.Equal(t, notFound, b.Do(context.Background(), fail(notFound)))
	}
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_SuccessResetsCount(t *testing.T) {
	b, _ := testBreaker(2, time.Minute)
	ctx := context.Background()

	_ = b.Do(ctx, fail(errTransient))
	require.NoError(t, b.Do(ctx, ok))
	_ = b.Do(ctx, fail(errTransient))
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	b, now := testBreaker(1, time.Minute)
	ctx := context.Background()

	_ = b.Do(ctx, fail(errTransient))
	require.Equal(t, Open, b.State())

	*now = now.Add(time.Minute)
	assert.Equal(t, HalfOpen, b.State())

	// A failed probe reopens for another cooldown.
	_ = b.Do(ctx, fail(errTransient))
	assert.Equal(t, Open, b.State())
	assert.ErrorIs(t, b.Do(ctx, ok), ErrOpen)

	*now = now.Add(time.Minute)
	require.NoError(t, b.Do(ctx, ok))
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_SingleProbeInFlight(t *testing.T) {
	b, now := testBreaker(1, time.Minute)
	ctx := context.Background()

	_ = b.Do(ctx, fail(errTransient))
	*now = now.Add(2 * time.Minute)

	err := b.Do(ctx, func(ctx context.Context) error {
		// A second caller while the probe runs is rejected.
		assert.ErrorIs(t, b.Do(ctx, ok), ErrOpen)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, Closed, b.State())
}

func TestHosts(t *testing.T) {
	h := NewHosts(BreakerConfig{Failures: 1, Cooldown: time.Hour})

	a := h.For("a.example.org")
	assert.Same(t, a, h.For("a.example.org"))
	assert.NotSame(t, a, h.For("b.example.org"))

	_ = a.Do(context.Background(), fail(errTransient))
	assert.Equal(t, map[string]State{
		"a.example.org": Open,
		"b.example.org": Closed,
	}, h.States())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "half-open", HalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}

func TestRetry_SucceedsAfterTransient(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryConfig{Attempts: 3, Backoff: time.Millisecond}, "test", func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsOnPermanent(t *testing.T) {
	calls := 0
	perm := errors.New("550 file not found")
	err := Retry(context.Background(), RetryConfig{Attempts: 5, Backoff: time.Millisecond}, "test", func(context.Context) error {
		calls++
		return perm
	})
	assert.Equal(t, perm, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_Exhausted(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryConfig{Attempts: 2, Backoff: time.Millisecond}, "test", func(context.Context) error {
		calls++
		return errTransient
	})
	assert.Equal(t, errTransient, err)
	assert.Equal(t, 2, calls)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, RetryConfig{Attempts: 5, Backoff: time.Hour}, "test", func(context.Context) error {
		calls++
		cancel()
		return errTransient
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestBackoff_Bounds(t *testing.T) {
	cfg := RetryConfig{Backoff: 100 * time.Millisecond, MaxBackoff: time.Second}.withDefaults()

	assert.Equal(t, 100*time.Millisecond, backoff(cfg, 0))
	assert.Equal(t, 400*time.Millisecond, backoff(cfg, 2))
	assert.Equal(t, time.Second, backoff(cfg, 10))

	cfg.Jitter = 0.5
	for range 50 {
		d := backoff(cfg, 1)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 300*time.Millisecond)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial tcp: timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient wrapper", fmt.Errorf("download: %w", errTransient), true},
		{"net timeout", timeoutErr{}, true},
		{"conn refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"conn reset text", errors.New("read: connection reset by peer"), true},
		{"ftp 421", errors.New("421 Service not available, closing control connection"), true},
		{"ftp 550", errors.New("550 Failed to open file"), false},
		{"plain", errors.New("unexpected status 404"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientStatus(code), code)
	}
	for _, code := range []int{200, 400, 404, 501} {
		assert.False(t, IsTransientStatus(code), code)
	}
}
