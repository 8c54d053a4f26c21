package deb

import (
	"fmt"
	"strconv"
)

// ParseMode converts an octal permission string such as "755" or "0644"
// into mode bits.
func ParseMode(s string) (int64, error) {
	mode, err := strconv.ParseInt(s, 8, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid octal mode %q: %w", s, err)
	}
	if mode < 0 || mode > 0o7777 {
		return 0, fmt.Errorf("mode %q out of range", s)
	}
	return mode, nil
}
