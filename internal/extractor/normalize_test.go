package extractor

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "fms-squat-go/internal/errors"
	"fms-squat-go/internal/types"
)

const fullReply = `{
  "score": 2,
  "classification": "Compensated",
  "pose_data_alignment": {"depth_confirmed": true, "discrepancy_notes": "None"},
  "observations": {
    "depth": "Below parallel, consistent with 85° knee angle",
    "torso": "About 25° forward lean",
    "heels": "Flat",
    "knees": "Slight valgus on the left",
    "arms": "Drift forward at the bottom"
  },
  "compensations_detected": ["Forward torso lean", "Arms drift forward"],
  "strengths": ["Good depth"],
  "improvements": ["Thoracic extension drills"],
  "mobility_focus_areas": ["Thoracic spine", "Shoulders"],
  "summary": "Depth achieved with torso and arm compensations."
}`

func TestNormalize_FullReply(t *testing.T) {
	res, err := Normalize(fullReply, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Score)
	assert.Equal(t, types.Compensated, res.Classification)
	assert.Equal(t, "About 25° forward lean", res.Observations.Torso)
	assert.Equal(t, []string{"Forward torso lean", "Arms drift forward"}, res.CompensationsDetected)
	assert.Equal(t, []string{"Thoracic spine", "Shoulders"}, res.MobilityFocusAreas)
	require.NotNil(t, res.PoseDataAlignment)
	require.NotNil(t, res.PoseDataAlignment.DepthConfirmed)
	assert.True(t, *res.PoseDataAlignment.DepthConfirmed)
	assert.Nil(t, res.PoseDetectionSummary)
}

func TestNormalize_EmptyObject(t *testing.T) {
	res, err := Normalize("{}", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Score)
	assert.Equal(t, types.Compensated, res.Classification)
	assert.Equal(t, DefaultSummary, res.Summary)
	assert.Equal(t, types.Observations{
		Depth: NotAssessed, Torso: NotAssessed, Heels: NotAssessed, Knees: NotAssessed, Arms: NotAssessed,
	}, res.Observations)
	assert.Equal(t, []string{}, res.CompensationsDetected)
	assert.Equal(t, []string{}, res.Strengths)
	assert.Equal(t, []string{}, res.Improvements)
	assert.Equal(t, []string{}, res.MobilityFocusAreas)
	assert.Nil(t, res.PoseDataAlignment)
}

func TestNormalize_EncodesEveryRequiredField(t *testing.T) {
	res, err := Normalize(`{"score": 1}`, nil)
	require.NoError(t, err)

	b, err := json.Marshal(res)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	for _, k := range []string{
		"score", "classification", "observations", "compensations_detected",
		"strengths", "improvements", "mobility_focus_areas", "summary",
	} {
		assert.Contains(t, out, k)
	}
	assert.Equal(t, []any{}, out["strengths"])
	obs := out["observations"].(map[string]any)
	for _, k := range []string{"depth", "torso", "heels", "knees", "arms"} {
		assert.Equal(t, NotAssessed, obs[k])
	}
}

func TestNormalize_PartialObservationsKeepSuppliedValues(t *testing.T) {
	res, err := Normalize(`{"observations": {"torso": "Upright", "knees": null}}`, nil)
	require.NoError(t, err)

	assert.Equal(t, "Upright", res.Observations.Torso)
	assert.Equal(t, NotAssessed, res.Observations.Knees)
	assert.Equal(t, NotAssessed, res.Observations.Depth)
	assert.Equal(t, NotAssessed, res.Observations.Heels)
	assert.Equal(t, NotAssessed, res.Observations.Arms)
}

func TestNormalize_NonStringObservationIsRendered(t *testing.T) {
	res, err := Normalize(`{"observations": {"torso": {"lean_degrees": 20}, "depth": 85}}`, nil)
	require.NoError(t, err)

	assert.Equal(t, `{"lean_degrees":20}`, res.Observations.Torso)
	assert.Equal(t, "85", res.Observations.Depth)
}

func TestNormalize_ScoreClassificationReconciliation(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		wantScore int
		wantClass types.Classification
	}{
		{"valid classification fixes invalid score", `{"classification": "Optimal", "score": 9}`, 3, types.Optimal},
		{"valid score fixes unknown classification", `{"score": 1, "classification": "Meh"}`, 1, types.Dysfunctional},
		{"valid score with missing classification", `{"score": 0}`, 0, types.Pain},
		{"classification only", `{"classification": "Dysfunctional"}`, 1, types.Dysfunctional},
		{"neither usable", `{"score": "high", "classification": "Great"}`, 2, types.Compensated},
		{"inconsistent pair follows classification", `{"score": 1, "classification": "Optimal"}`, 3, types.Optimal},
		{"integral float score", `{"score": 3.0}`, 3, types.Optimal},
		{"fractional score is invalid", `{"score": 2.5}`, 2, types.Compensated},
		{"string score is invalid", `{"score": "3"}`, 2, types.Compensated},
		{"negative score is invalid", `{"score": -1, "classification": "Pain"}`, 0, types.Pain},
		{"null score", `{"score": null}`, 2, types.Compensated},
		{"lowercase classification is not canonical", `{"score": 3, "classification": "optimal"}`, 3, types.Optimal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Normalize(tt.reply, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, res.Score)
			assert.Equal(t, tt.wantClass, res.Classification)

			c, ok := types.ClassificationForScore(res.Score)
			require.True(t, ok)
			assert.Equal(t, c, res.Classification)
		})
	}
}

func TestNormalize_FencedMatchesUnwrapped(t *testing.T) {
	plain, err := Normalize(fullReply, nil)
	require.NoError(t, err)

	fenced, err := Normalize("Here you go:\n```json\n"+fullReply+"\n```\n", nil)
	require.NoError(t, err)

	assert.Equal(t, plain, fenced)
}

func TestNormalize_ListItemsCoercedToText(t *testing.T) {
	res, err := Normalize(`{"strengths": ["Depth", 3, null, true], "improvements": "not a list"}`, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Depth", "3", "true"}, res.Strengths)
	assert.Equal(t, []string{}, res.Improvements)
}

func TestNormalize_AttachesPoseSummary(t *testing.T) {
	pose := &types.PoseMetrics{
		MinKneeAngle:              ptr(92.0),
		DepthReachedBelowParallel: ptr(false),
		SquatsDetected:            ptr(4),
		PersonDetectionRate:       ptr(0.9),
	}

	res, err := Normalize(`{"score": 2}`, pose)
	require.NoError(t, err)

	require.NotNil(t, res.PoseDetectionSummary)
	assert.Equal(t, 92.0, *res.PoseDetectionSummary.MinKneeAngle)
	assert.False(t, *res.PoseDetectionSummary.DepthReached)
	assert.Equal(t, 4, *res.PoseDetectionSummary.SquatsCounted)
}

func TestNormalize_EmptyPoseMetricsNotAttached(t *testing.T) {
	res, err := Normalize(`{}`, &types.PoseMetrics{})
	require.NoError(t, err)
	assert.Nil(t, res.PoseDetectionSummary)
}

func TestNormalize_ParseFailures(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"truncated json", `{"score": 3, "classification": "Opti`},
		{"prose only", "Sorry, I can't help with that."},
		{"top-level array", `[1, 2, 3]`},
		{"trailing garbage", `{"score": 3} {"score": 2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Normalize(tt.reply, nil)
			require.Error(t, err)
			assert.Nil(t, res)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.ErrorTypeParse, appErr.Type)
			assert.NotEmpty(t, appErr.RawResponse)
		})
	}
}

func TestNormalize_ParseFailureTruncatesRawResponse(t *testing.T) {
	reply := `{"summary": "` + strings.Repeat("é", 3000)

	_, err := Normalize(reply, nil)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.MaxRawResponseLen, len([]rune(appErr.RawResponse)))
}
