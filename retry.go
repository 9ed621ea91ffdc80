package sharefs

import "context"

// Attempt budgets for remote calls that can report a transient status.
// Budgets are fixed counts with no backoff; exhaustion surfaces the
// status of the last attempt.
const (
	// openAttempts bounds retries of a handle open.
	openAttempts = 5

	// openInfoIterations bounds the outer open+stat cycle repeated
	// when the share's network name is deleted between the open and
	// the metadata fetch. Absorbs the race with a concurrent deleter.
	openInfoIterations = 5

	// deleteAttempts bounds retries of a delete-on-close handle open.
	deleteAttempts = 3
)

// retryPending invokes fn until its status is no longer transient, up
// to the given number of attempts. Cancellation is honored between
// attempts only, never mid-call. The value and status of the last
// attempt are returned.
func retryPending[T any](ctx context.Context, attempts int, fn func() (T, NTStatus)) (T, NTStatus) {
	var v T
	st := STATUS_PENDING
	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			return v, STATUS_CANCELLED
		}
		v, st = fn()
		if !st.Transient() {
			break
		}
	}
	return v, st
}
