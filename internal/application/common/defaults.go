package common

import "runtime"

// Default worker limits.
const (
	MaxConcurrency = 64
)

// DefaultConcurrency is the number of files transformed at once when no
// limit is configured.
func DefaultConcurrency() int {
	return min(runtime.GOMAXPROCS(0), MaxConcurrency)
}

// ApplyConcurrencyDefaults clamps a configured concurrency to [1, MaxConcurrency],
// using DefaultConcurrency for zero or negative values.
func ApplyConcurrencyDefaults(concurrency int) int {
	if concurrency <= 0 {
		return DefaultConcurrency()
	}
	return min(concurrency, MaxConcurrency)
}
