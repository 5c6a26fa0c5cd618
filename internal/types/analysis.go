// internal/types/analysis.go
package types

// --------------------------------------------
// Request accepted by /analyze and /analyze-frame
// --------------------------------------------
type AnalysisRequest struct {
	Media        Media        `json:"-"`
	ReportedPain bool         `json:"reported_pain"`
	PoseMetrics  *PoseMetrics `json:"pose_detection_data,omitempty"`
}

// Media is the base64 payload forwarded to the model as inline data.
type Media struct {
	Data     string `json:"data"`
	MimeType string `json:"mime_type"`
}

// --------------------------------------------
// Pose metrics produced by the on-device tracker.
// Every field is optional; nothing here is validated.
// --------------------------------------------
type PoseMetrics struct {
	MinKneeAngle              *float64 `json:"min_knee_angle,omitempty"`
	MaxKneeAngle              *float64 `json:"max_knee_angle,omitempty"`
	DepthReachedBelowParallel *bool    `json:"depth_reached_below_parallel,omitempty"`
	GoodDepthReached          *bool    `json:"good_depth_reached,omitempty"`
	KneeAngleAtDeepestPoint   *float64 `json:"knee_angle_at_deepest_point,omitempty"`
	TimeAtDeepestPointSec     *float64 `json:"time_at_deepest_point_seconds,omitempty"`
	SquatsDetected            *int     `json:"squats_detected,omitempty"`
	PersonDetectionRate       *float64 `json:"person_detection_rate,omitempty"`
	FeedbackDuringRecording   []string `json:"feedback_during_recording,omitempty"`
}

// Present reports whether m carries at least one reading. An empty object
// sent by the client counts as absent.
func (m *PoseMetrics) Present() bool {
	if m == nil {
		return false
	}
	return m.MinKneeAngle != nil ||
		m.MaxKneeAngle != nil ||
		m.DepthReachedBelowParallel != nil ||
		m.GoodDepthReached != nil ||
		m.KneeAngleAtDeepestPoint != nil ||
		m.TimeAtDeepestPointSec != nil ||
		m.SquatsDetected != nil ||
		m.PersonDetectionRate != nil ||
		len(m.FeedbackDuringRecording) > 0
}

// --------------------------------------------
// Normalized model output
// --------------------------------------------
type AnalysisResult struct {
	Score                 int                   `json:"score"`
	Classification        Classification        `json:"classification"`
	PoseDataAlignment     *PoseDataAlignment    `json:"pose_data_alignment,omitempty"`
	Observations          Observations          `json:"observations"`
	CompensationsDetected []string              `json:"compensations_detected"`
	Strengths             []string              `json:"strengths"`
	Improvements          []string              `json:"improvements"`
	MobilityFocusAreas    []string              `json:"mobility_focus_areas"`
	Summary               string                `json:"summary"`
	PoseDetectionSummary  *PoseDetectionSummary `json:"pose_detection_summary,omitempty"`
}

type Observations struct {
	Depth string `json:"depth"`
	Torso string `json:"torso"`
	Heels string `json:"heels"`
	Knees string `json:"knees"`
	Arms  string `json:"arms"`
}

// PoseDataAlignment is the model's own statement on whether its visual read
// agrees with the sensor depth.
type PoseDataAlignment struct {
	DepthConfirmed   *bool  `json:"depth_confirmed"`
	DiscrepancyNotes string `json:"discrepancy_notes"`
}

// PoseDetectionSummary echoes the depth-related metrics back for traceability.
type PoseDetectionSummary struct {
	MinKneeAngle  *float64 `json:"min_knee_angle"`
	DepthReached  *bool    `json:"depth_reached"`
	SquatsCounted *int     `json:"squats_counted"`
}
