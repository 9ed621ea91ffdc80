package sharefs

import (
	"context"
	"testing"
)

func TestRetryPendingExhaustsBudget(t *testing.T) {
	calls := 0
	_, st := retryPending(context.Background(), openAttempts, func() (int, NTStatus) {
		calls++
		return 0, STATUS_PENDING
	})
	if calls != openAttempts {
		t.Errorf("calls = %d, want %d", calls, openAttempts)
	}
	if st != STATUS_PENDING {
		t.Errorf("status = %v, want STATUS_PENDING", st)
	}
}

func TestRetryPendingStopsOnSuccess(t *testing.T) {
	calls := 0
	v, st := retryPending(context.Background(), openAttempts, func() (int, NTStatus) {
		calls++
		if calls < 3 {
			return 0, STATUS_PENDING
		}
		return 42, STATUS_SUCCESS
	})
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !st.IsSuccess() || v != 42 {
		t.Errorf("got (%d, %v), want (42, success)", v, st)
	}
}

func TestRetryPendingStopsOnFatal(t *testing.T) {
	calls := 0
	_, st := retryPending(context.Background(), openAttempts, func() (int, NTStatus) {
		calls++
		return 0, STATUS_ACCESS_DENIED
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if st != STATUS_ACCESS_DENIED {
		t.Errorf("status = %v, want STATUS_ACCESS_DENIED", st)
	}
}

func TestRetryPendingCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, st := retryPending(ctx, openAttempts, func() (int, NTStatus) {
		calls++
		return 0, STATUS_PENDING
	})
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
	if st != STATUS_CANCELLED {
		t.Errorf("status = %v, want STATUS_CANCELLED", st)
	}
}

func TestRetryPendingCancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, st := retryPending(ctx, openAttempts, func() (int, NTStatus) {
		calls++
		cancel()
		return 0, STATUS_PENDING
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if st != STATUS_CANCELLED {
		t.Errorf("status = %v, want STATUS_CANCELLED", st)
	}
}
