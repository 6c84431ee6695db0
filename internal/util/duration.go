package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses a Go duration string ("250ms", "1.5s") or a bare
// integer, which is taken as milliseconds. Negative values are rejected.
func ParseDuration(input string) (time.Duration, error) {
	input = strings.TrimSpace(input)

	if ms, err := strconv.ParseInt(input, 10, 64); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("negative duration: %s", input)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}

	duration, err := time.ParseDuration(input)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format: %q\n\nValid formats:\n"+
			"• milliseconds as a bare integer (e.g., '250')\n"+
			"• Go duration (e.g., '250ms', '1.5s', '2m')", input)
	}
	if duration < 0 {
		return 0, fmt.Errorf("negative duration: %s", input)
	}
	return duration, nil
}
