package models

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeframeHours decomposes a "<N><unit>" timeframe token into a duration in
// hours. Unit families: "m" (minutes), "h" (hours), "d" (days), "w" (weeks).
// Any positive N is accepted, so irregular tokens like "45m", "6h" or "2w"
// parse the same way the canonical ones do.
func TimeframeHours(timeframe string) (float64, error) {
	tf := strings.ToLower(strings.TrimSpace(timeframe))
	if len(tf) < 2 {
		return 0, fmt.Errorf("invalid timeframe %q", timeframe)
	}

	unit := tf[len(tf)-1]
	n, err := strconv.Atoi(tf[:len(tf)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid timeframe %q", timeframe)
	}

	switch unit {
	case 'm':
		return float64(n) / 60.0, nil
	case 'h':
		return float64(n), nil
	case 'd':
		return float64(n) * 24.0, nil
	case 'w':
		return float64(n) * 24.0 * 7.0, nil
	default:
		return 0, fmt.Errorf("unsupported timeframe unit %q in %q", string(unit), timeframe)
	}
}

// ValidTimeframe reports whether the token parses.
func ValidTimeframe(timeframe string) bool {
	_, err := TimeframeHours(timeframe)
	return err == nil
}
