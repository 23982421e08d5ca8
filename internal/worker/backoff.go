package worker

import (
	"math"
	"math/rand"
	"time"
)

// ExponentialBackoff doubles base per attempt up to ceiling, plus up to 250ms of jitter.
// attempt=0 => base, attempt=1 => 2*base, ...
func ExponentialBackoff(attempt int, base, ceiling time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	multiple := math.Pow(2, float64(attempt))
	delay := time.Duration(float64(base) * multiple)

	if delay > ceiling || delay <= 0 {
		delay = ceiling
	}

	// small jitter to avoid thundering herd
	delay += time.Duration(rand.Intn(250)) * time.Millisecond
	return delay
}
