package retry

import "time"

// maxBackoff caps the wait between attempts regardless of how many remain.
const maxBackoff = 16 * time.Second

// Backoff maps a zero-indexed attempt number to the wait before the next
// attempt: 1s, 2s, 4s, 8s, then 16s for every attempt after that. Negative
// attempts are treated as 0.
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 4 {
		return maxBackoff
	}
	return time.Duration(1<<attempt) * time.Second
}
