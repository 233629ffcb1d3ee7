package retry

import "time"

// maxBackoffShift bounds the doubling so a long failure streak cannot
// overflow the delay into a negative Duration.
const maxBackoffShift = 16

// ExponentialBackoff returns the delay for a zero-based attempt number,
// doubling each time: base * 2^attempt. Used for fixed-factor backoff
// such as connection retries; Policy.Delay covers tunable growth.
func ExponentialBackoff(attempt int, base time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxBackoffShift {
		attempt = maxBackoffShift
	}
	return base * (1 << attempt)
}
