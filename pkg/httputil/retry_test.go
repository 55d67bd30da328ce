package httputil

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

var (
	errTransient = errors.New("connection reset")
	errPermanent = errors.New("status 403")
)

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		attempts  int
		failures  int   // calls that fail before success
		err       error // error of a failing call
		wantCalls int
		wantErr   error
	}{
		{"success first try", 3, 0, nil, 1, nil},
		{"recovers from transient", 3, 2, Transient(errTransient), 3, nil},
		{"exhausted", 2, 5, Transient(errTransient), 2, errTransient},
		{"permanent stops", 3, 5, errPermanent, 1, errPermanent},
		{"zero attempts runs once", 0, 5, Transient(errTransient), 1, errTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), Policy{Attempts: tt.attempts, Delay: time.Millisecond}, func() error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			if tt.wantErr == nil && err != nil {
				t.Errorf("Retry() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Retry() error = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryOnRetryWaits(t *testing.T) {
	var waits []time.Duration
	var attempts []int
	p := Policy{
		Attempts: 4,
		Delay:    time.Millisecond,
		MaxDelay: 3 * time.Millisecond,
		OnRetry: func(attempt int, wait time.Duration, err error) {
			if !errors.Is(err, errTransient) {
				t.Errorf("OnRetry error = %v, want %v", err, errTransient)
			}
			attempts = append(attempts, attempt)
			waits = append(waits, wait)
		},
	}
	_ = Retry(context.Background(), p, func() error { return Transient(errTransient) })

	wantWaits := []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond}
	if len(waits) != len(wantWaits) {
		t.Fatalf("OnRetry called %d times, want %d", len(waits), len(wantWaits))
	}
	for i := range wantWaits {
		if waits[i] != wantWaits[i] || attempts[i] != i+1 {
			t.Errorf("retry %d = attempt %d wait %v, want attempt %d wait %v", i, attempts[i], waits[i], i+1, wantWaits[i])
		}
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, Policy{Attempts: 3, Delay: time.Hour}, func() error {
		return Transient(errTransient)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() error = %v, want %v", err, context.Canceled)
	}
}

func TestTransient(t *testing.T) {
	if Transient(nil) != nil {
		t.Error("Transient(nil) should be nil")
	}
	err := Transient(errTransient)
	if !isRetryable(err) || !errors.Is(err, errTransient) {
		t.Errorf("Transient() = %v, want retryable wrapping %v", err, errTransient)
	}
}

func TestTransientStatus(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{http.StatusOK, false},
		{http.StatusNotFound, false},
		{http.StatusForbidden, false},
		{http.StatusRequestTimeout, true},
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
	}
	for _, tt := range tests {
		if got := TransientStatus(tt.code); got != tt.want {
			t.Errorf("TransientStatus(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
