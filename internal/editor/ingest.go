package editor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/stepcut/stepcut-agent/internal/timecode"
)

// RawSegment is the untyped shape segments arrive in from the draft service.
// Ids show up as numbers, strings, or junk; times as numbers or numeric
// strings. Nothing here is trusted until CoerceSegment has run.
type RawSegment struct {
	ID          any `json:"id"`
	Description any `json:"description"`
	StartTime   any `json:"start_time"`
	EndTime     any `json:"end_time"`
}

// ParseSegments decodes a draft payload into raw segments. It fails only on
// malformed JSON; field-level junk is handled during coercion.
func ParseSegments(data []byte) ([]RawSegment, error) {
	var raw []RawSegment
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode segments: %w", err)
	}
	return raw, nil
}

// CoerceSegment validates and coerces one raw segment into the strict
// Segment shape. Times that fail to parse as finite numbers fall back to
// the documented default range, and an inverted or empty range is replaced
// wholesale, so NaN and zero-length ranges never enter the store.
func CoerceSegment(raw RawSegment, duration float64) Segment {
	seg := Segment{
		ID:          coerceID(raw.ID),
		Description: coerceString(raw.Description),
	}

	start, startOK := timecode.ParseSeconds(raw.StartTime)
	end, endOK := timecode.ParseSeconds(raw.EndTime)
	if !startOK || !endOK || start < 0 || start >= end {
		start, end = DefaultStartTime, DefaultEndTime
	}
	seg.StartTime = start
	seg.EndTime = end
	seg.syncPercent(duration)
	return seg
}

// CoerceSegments coerces a whole draft in list order.
func CoerceSegments(raw []RawSegment, duration float64) []Segment {
	segments := make([]Segment, len(raw))
	for i, r := range raw {
		segments[i] = CoerceSegment(r, duration)
	}
	return segments
}

func coerceID(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; integral ids keep their
		// integer form.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func coerceString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimRight(s, "\n")
}
