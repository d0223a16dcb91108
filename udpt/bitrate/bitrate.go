// Package bitrate parses human-friendly bitrate strings such as "500K",
// "10M", or "1.5G" into bits per second.
package bitrate

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse converts a bitrate string with an optional K/M/G suffix (decimal,
// case-insensitive) into bits per second.
func Parse(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty bitrate")
	}
	idx := strings.IndexFunc(s, func(c rune) bool {
		return (c < '0' || c > '9') && c != '.'
	})
	if idx < 0 {
		idx = len(s)
	}
	num, suffix := s[:idx], s[idx:]
	base, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", num, err)
	}
	var mult float64
	switch strings.ToUpper(strings.TrimSpace(suffix)) {
	case "":
		mult = 1
	case "K":
		mult = 1e3
	case "M":
		mult = 1e6
	case "G":
		mult = 1e9
	default:
		return 0, fmt.Errorf("invalid bitrate suffix %q", suffix)
	}
	return base * mult, nil
}
