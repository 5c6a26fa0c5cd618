package extractor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	apperrors "fms-squat-go/internal/errors"
	"fms-squat-go/internal/types"
)

// Defaults applied to fields the model left out.
const (
	DefaultSummary     = "Analysis completed"
	NotAssessed        = "Not assessed"
	unknownLabel       = "Unknown"
	parseFailedMessage = "Failed to parse AI response as JSON"
)

// Normalize turns a raw model reply into a complete AnalysisResult.
// The only failure is a parse error, returned as an *errors.AppError of
// type parse that carries the truncated offending text.
func Normalize(raw string, pose *types.PoseMetrics) (*types.AnalysisResult, error) {
	text := ExtractJSON(raw)

	fields, err := decodeObject(text)
	if err != nil {
		return nil, apperrors.NewParseError(parseFailedMessage, text, err)
	}

	result := &types.AnalysisResult{
		Observations:          observations(fields["observations"]),
		CompensationsDetected: stringList(fields["compensations_detected"]),
		Strengths:             stringList(fields["strengths"]),
		Improvements:          stringList(fields["improvements"]),
		MobilityFocusAreas:    stringList(fields["mobility_focus_areas"]),
		Summary:               stringOr(fields["summary"], DefaultSummary),
		PoseDataAlignment:     alignment(fields["pose_data_alignment"]),
	}

	score, scoreOK := scoreValue(fields["score"])
	label := types.Classification(stringOr(fields["classification"], unknownLabel))
	result.Score, result.Classification = Reconcile(score, scoreOK, label)

	if pose.Present() {
		result.PoseDetectionSummary = &types.PoseDetectionSummary{
			MinKneeAngle:  pose.MinKneeAngle,
			DepthReached:  pose.DepthReachedBelowParallel,
			SquatsCounted: pose.SquatsDetected,
		}
	}
	return result, nil
}

// Reconcile produces a mutually consistent score/classification pair.
// A canonical classification wins; otherwise a valid score decides;
// otherwise the pair defaults to 2/Compensated.
func Reconcile(score int, scoreOK bool, label types.Classification) (int, types.Classification) {
	if label.Valid() {
		s, _ := types.ScoreForClassification(label)
		return s, label
	}
	if scoreOK {
		if c, ok := types.ClassificationForScore(score); ok {
			return score, c
		}
	}
	c, _ := types.ClassificationForScore(types.DefaultScore)
	return types.DefaultScore, c
}

func decodeObject(text string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if err := dec.Decode(new(any)); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after top-level JSON value")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top-level JSON value is %s, not an object", kindOf(v))
	}
	return obj, nil
}

// scoreValue accepts integral JSON numbers in 0..3 only.
func scoreValue(v any) (int, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	score := int(f)
	if _, valid := types.ClassificationForScore(score); !valid {
		return 0, false
	}
	return score, true
}

func observations(v any) types.Observations {
	obj, _ := v.(map[string]any)
	return types.Observations{
		Depth: textOr(obj["depth"], NotAssessed),
		Torso: textOr(obj["torso"], NotAssessed),
		Heels: textOr(obj["heels"], NotAssessed),
		Knees: textOr(obj["knees"], NotAssessed),
		Arms:  textOr(obj["arms"], NotAssessed),
	}
}

func alignment(v any) *types.PoseDataAlignment {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	a := &types.PoseDataAlignment{DiscrepancyNotes: textOr(obj["discrepancy_notes"], "")}
	if b, ok := obj["depth_confirmed"].(bool); ok {
		a.DepthConfirmed = &b
	}
	return a
}

// stringList never returns nil so the field always encodes as an array.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, textOr(item, ""))
	}
	return out
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

// textOr renders any non-null JSON value as text.
func textOr(v any, def string) string {
	switch t := v.(type) {
	case nil:
		return def
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(t); err != nil {
			return def
		}
		return strings.TrimSpace(buf.String())
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
