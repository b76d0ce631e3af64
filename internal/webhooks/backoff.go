package webhooks

import "time"

// backoffTable holds the retry delays indexed by attempt count.
var backoffTable = []time.Duration{
	60 * time.Second,
	300 * time.Second,
	900 * time.Second,
	3600 * time.Second,
	14400 * time.Second,
}

// BackoffDelay returns the delay before the next retry after the given
// number of attempts. Attempts beyond the table clamp to the last entry.
func BackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	idx := attempt - 1
	if idx >= len(backoffTable) {
		idx = len(backoffTable) - 1
	}
	return backoffTable[idx]
}
