package config

import (
	"strconv"
	"time"
)

// parseSeconds parses a timeout given either as whole seconds ("600") or as
// a Go duration ("10m"). Empty, invalid or non-positive values yield defaultVal.
func parseSeconds(val string, defaultVal time.Duration) time.Duration {
	if val == "" {
		return defaultVal
	}

	if secs, err := strconv.Atoi(val); err == nil {
		if secs <= 0 {
			return defaultVal
		}
		return time.Duration(secs) * time.Second
	}

	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// parseInt parses a positive integer, falling back to defaultVal.
func parseInt(val string, defaultVal int) int {
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}
