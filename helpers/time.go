package helpers

import "time"

// IntSecondDefault treats zero and negative values as unset.
func IntSecondDefault(x int, def time.Duration) time.Duration {
	if x <= 0 {
		return def
	}
	return time.Duration(x) * time.Second
}
