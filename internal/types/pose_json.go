package types

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// UnmarshalJSON reads pose metrics field by field. The metrics only inform
// the prompt, so an ill-typed value leaves that field unset instead of
// failing the request, and a non-object payload decodes as empty.
// Numeric strings are accepted and counts may be written as 3.0.
func (m *PoseMetrics) UnmarshalJSON(data []byte) error {
	*m = PoseMetrics{}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil
	}

	m.MinKneeAngle = looseFloat(raw["min_knee_angle"])
	m.MaxKneeAngle = looseFloat(raw["max_knee_angle"])
	m.DepthReachedBelowParallel = looseBool(raw["depth_reached_below_parallel"])
	m.GoodDepthReached = looseBool(raw["good_depth_reached"])
	m.KneeAngleAtDeepestPoint = looseFloat(raw["knee_angle_at_deepest_point"])
	m.TimeAtDeepestPointSec = looseFloat(raw["time_at_deepest_point_seconds"])
	m.SquatsDetected = looseInt(raw["squats_detected"])
	m.PersonDetectionRate = looseFloat(raw["person_detection_rate"])
	m.FeedbackDuringRecording = looseStrings(raw["feedback_during_recording"])
	return nil
}

func looseFloat(v any) *float64 {
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
	default:
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func looseInt(v any) *int {
	f := looseFloat(v)
	if f == nil || *f != math.Trunc(*f) || math.Abs(*f) > math.MaxInt32 {
		return nil
	}
	n := int(*f)
	return &n
}

func looseBool(v any) *bool {
	var b bool
	switch t := v.(type) {
	case bool:
		b = t
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return nil
		}
		b = parsed
	default:
		return nil
	}
	return &b
}

func looseStrings(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, item := range t {
			switch it := item.(type) {
			case string:
				out = append(out, it)
			case json.Number:
				out = append(out, it.String())
			case bool:
				out = append(out, strconv.FormatBool(it))
			}
		}
		return out
	}
	return nil
}
