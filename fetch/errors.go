package fetch

import (
	"fmt"
	"time"
)

// Throttled reports that the upstream rejected a call with a required wait
// before retrying. The policy honors the wait (plus a safety margin) and
// retries without bound; rate-limit backpressure is expected to clear.
type Throttled struct {
	Wait time.Duration
}

func (e *Throttled) Error() string {
	return fmt.Sprintf("throttled: retry after %s", e.Wait)
}

// Transient marks a temporary upstream failure eligible for a bounded
// number of backoff retries.
type Transient struct {
	Err error
}

func (e *Transient) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *Transient) Unwrap() error { return e.Err }

// DataError is the fatal error surfaced once the transient retry budget is
// exhausted.
type DataError struct {
	Attempts int
	Err      error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data fetch failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }
