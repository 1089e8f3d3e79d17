// Package timecode converts between the two coordinate systems the editor
// works in: absolute seconds and percent-of-duration. It also produces the
// "M:SS" display form used by the step list.
package timecode

import (
	"fmt"
	"math"
	"strconv"
)

// SecondsToPercent maps a position in seconds onto 0-100 percent of the
// given duration. A non-positive duration yields 0 rather than dividing
// by zero.
func SecondsToPercent(seconds, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	return seconds / duration * 100
}

// PercentToSeconds is the inverse of SecondsToPercent.
func PercentToSeconds(percent, duration float64) float64 {
	return percent / 100 * duration
}

// FormatSeconds renders a position as "M:SS". The sub-second remainder is
// truncated, not rounded, so 9.9s displays as 0:09.
func FormatSeconds(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// ParseSeconds coerces an untrusted value into a finite number of seconds.
// Upstream draft data carries times as JSON numbers, numeric strings, or
// garbage; anything that does not parse as a finite float reports ok=false
// so the caller can substitute its documented default instead of letting
// NaN enter the conversion pipeline.
func ParseSeconds(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
