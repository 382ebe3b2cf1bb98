package utils

import (
	"math/rand"
	"time"
)

// RandomDuration returns a duration in [min, max). Fixed delays are a
// detectable pattern; randomized ones look like a human browsing.
func RandomDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// RandomDelay sleeps for a random duration between min and max.
func RandomDelay(min, max time.Duration) {
	time.Sleep(RandomDuration(min, max))
}
