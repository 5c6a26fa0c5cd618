package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoseMetricsUnmarshalLenient(t *testing.T) {
	var m PoseMetrics
	require.NoError(t, json.Unmarshal([]byte(`{
		"min_knee_angle": "85.5",
		"max_knee_angle": 168,
		"depth_reached_below_parallel": "true",
		"good_depth_reached": false,
		"knee_angle_at_deepest_point": {"deg": 85},
		"time_at_deepest_point_seconds": "soon",
		"squats_detected": 3.0,
		"person_detection_rate": 0.95,
		"feedback_during_recording": ["Good depth!", 7, null, {"x": 1}],
		"unknown": "ignored"
	}`), &m))

	require.NotNil(t, m.MinKneeAngle)
	assert.Equal(t, 85.5, *m.MinKneeAngle)
	assert.Equal(t, 168.0, *m.MaxKneeAngle)
	assert.True(t, *m.DepthReachedBelowParallel)
	assert.False(t, *m.GoodDepthReached)
	assert.Nil(t, m.KneeAngleAtDeepestPoint)
	assert.Nil(t, m.TimeAtDeepestPointSec)
	require.NotNil(t, m.SquatsDetected)
	assert.Equal(t, 3, *m.SquatsDetected)
	assert.Equal(t, 0.95, *m.PersonDetectionRate)
	assert.Equal(t, []string{"Good depth!", "7"}, m.FeedbackDuringRecording)
}

func TestPoseMetricsUnmarshalDropsBadValues(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"fractional count", `{"squats_detected": 2.5}`},
		{"bool angle", `{"min_knee_angle": true}`},
		{"word bool", `{"depth_reached_below_parallel": "maybe"}`},
		{"non-finite string", `{"max_knee_angle": "NaN"}`},
		{"array payload", `[1, 2, 3]`},
		{"string payload", `"lots of squats"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m PoseMetrics
			require.NoError(t, json.Unmarshal([]byte(tt.json), &m))
			assert.False(t, m.Present())
		})
	}
}

func TestPoseMetricsFeedbackString(t *testing.T) {
	var m PoseMetrics
	require.NoError(t, json.Unmarshal([]byte(`{"feedback_during_recording": "Go deeper"}`), &m))
	assert.Equal(t, []string{"Go deeper"}, m.FeedbackDuringRecording)
}
