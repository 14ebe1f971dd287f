package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestBreaker_ClosedPassesThrough(t *testing.T) {
	b := NewBreaker(DefaultConfig())

	var calls int
	err := b.Do(context.Background(), func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed, got %s", b.State())
	}
}

func TestBreaker_OpensAfterThreeConsecutiveFailures(t *testing.T) {
	b := NewBreaker(Config{FailureThreshold: 3, CoolDown: time.Minute})

	for i := 0; i < 3; i++ {
		_ = b.Do(context.Background(), func(_ context.Context) error {
			return errors.New("fail")
		})
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open after 3 failures, got %s", b.State())
	}

	// Calls are now skipped immediately.
	err := b.Do(context.Background(), func(_ context.Context) error {
		t.Error("fn must not run while breaker is open")
		return nil
	})
	if !errors.Is(err, ErrOpen) {
		t.Errorf("expected ErrOpen, got %v", err)
	}
}

func TestBreaker_SuccessResetsCounter(t *testing.T) {
	b := NewBreaker(Config{FailureThreshold: 3, CoolDown: time.Minute})

	for i := 0; i < 2; i++ {
		_ = b.Do(context.Background(), func(_ context.Context) error {
			return errors.New("fail")
		})
	}
	if got := b.Failures(); got != 2 {
		t.Fatalf("expected 2 failures, got %d", got)
	}

	_ = b.Do(context.Background(), func(_ context.Context) error { return nil })

	if got := b.Failures(); got != 0 {
		t.Errorf("expected counter reset to 0 after success, got %d", got)
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed, got %s", b.State())
	}
}

func TestBreaker_CoolDownAllowsProbe(t *testing.T) {
	now := time.Now()
	b := NewBreaker(Config{FailureThreshold: 2, CoolDown: time.Minute})
	b.nowFunc = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		_ = b.Do(context.Background(), func(_ context.Context) error {
			return errors.New("fail")
		})
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	// Before the cool-down elapses, calls are still rejected.
	b.nowFunc = func() time.Time { return now.Add(30 * time.Second) }
	if err := b.Do(context.Background(), func(_ context.Context) error { return nil }); !errors.Is(err, ErrOpen) {
		t.Errorf("expected ErrOpen before cool-down, got %v", err)
	}

	// After the cool-down, the next call runs as a probe; success closes the
	// breaker and zeroes the counter.
	b.nowFunc = func() time.Time { return now.Add(61 * time.Second) }
	if b.State() != StateHalfOpen {
		t.Errorf("expected half-open after cool-down, got %s", b.State())
	}
	if err := b.Do(context.Background(), func(_ context.Context) error { return nil }); err != nil {
		t.Fatalf("unexpected probe error: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed after successful probe, got %s", b.State())
	}
	if got := b.Failures(); got != 0 {
		t.Errorf("expected 0 failures after successful probe, got %d", got)
	}
}

func TestBreaker_ProbeFailureReopensImmediately(t *testing.T) {
	now := time.Now()
	b := NewBreaker(Config{FailureThreshold: 2, CoolDown: time.Minute})
	b.nowFunc = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		_ = b.Do(context.Background(), func(_ context.Context) error {
			return errors.New("fail")
		})
	}

	b.nowFunc = func() time.Time { return now.Add(2 * time.Minute) }
	_ = b.Do(context.Background(), func(_ context.Context) error {
		return errors.New("still failing")
	})

	// Fresh failure timestamp: the breaker is open again, not half-open.
	if b.State() != StateOpen {
		t.Errorf("expected open after probe failure, got %s", b.State())
	}
	if err := b.Do(context.Background(), func(_ context.Context) error { return nil }); !errors.Is(err, ErrOpen) {
		t.Errorf("expected ErrOpen right after probe failure, got %v", err)
	}
}

func TestBreaker_ConcurrentSuccessesDoNotResetOpen(t *testing.T) {
	now := time.Now()
	b := NewBreaker(Config{FailureThreshold: 1, CoolDown: time.Hour})
	b.nowFunc = func() time.Time { return now }

	_ = b.Do(context.Background(), func(_ context.Context) error {
		return errors.New("fail")
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Do(context.Background(), func(_ context.Context) error { return nil })
		}()
	}
	wg.Wait()

	// None of the queued successes ran (all rejected), so the breaker must
	// still be open until the cool-down elapses.
	if b.State() != StateOpen {
		t.Errorf("expected open despite queued successes, got %s", b.State())
	}
}

func TestBreaker_InFlightSuccessDoesNotCloseOpen(t *testing.T) {
	now := time.Now()
	b := NewBreaker(Config{FailureThreshold: 1, CoolDown: time.Hour})
	b.nowFunc = func() time.Time { return now }

	// A slow call is admitted while the breaker is still closed.
	admitted := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Do(context.Background(), func(_ context.Context) error {
			close(admitted)
			<-release
			return nil
		})
	}()
	<-admitted

	// The breaker opens while the slow call is in flight.
	_ = b.Do(context.Background(), func(_ context.Context) error {
		return errors.New("fail")
	})
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	// The slow call now settles successfully; the breaker must stay open
	// until the cool-down elapses.
	close(release)
	<-done
	if b.State() != StateOpen {
		t.Errorf("in-flight success closed an open breaker, got %s", b.State())
	}
	if err := b.Do(context.Background(), func(_ context.Context) error { return nil }); !errors.Is(err, ErrOpen) {
		t.Errorf("expected ErrOpen while cool-down pending, got %v", err)
	}
}

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry(DefaultConfig())

	b1 := r.Get("scoring")
	b2 := r.Get("scoring")
	b3 := r.Get("summary")

	if b1 != b2 {
		t.Error("expected same breaker for same service")
	}
	if b1 == b3 {
		t.Error("expected different breakers for different services")
	}
}

func TestRegistry_States(t *testing.T) {
	r := NewRegistry(Config{FailureThreshold: 1, CoolDown: time.Hour})

	_ = r.Get("scoring").Do(context.Background(), func(_ context.Context) error {
		return errors.New("fail")
	})
	_ = r.Get("summary")

	states := r.States()
	if states["scoring"] != StateOpen {
		t.Errorf("expected scoring=open, got %s", states["scoring"])
	}
	if states["summary"] != StateClosed {
		t.Errorf("expected summary=closed, got %s", states["summary"])
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
