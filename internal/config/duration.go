package config

import (
	"fmt"
	"strings"
	"time"
)

// ParseDuration parses a non-negative Go duration string. Empty or zero
// yields def. key names the setting in errors.
func ParseDuration(key, raw string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	switch {
	case err != nil:
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	case d < 0:
		return 0, fmt.Errorf("%s: duration must be >= 0, got %s", key, d)
	case d == 0:
		return def, nil
	}
	return d, nil
}
