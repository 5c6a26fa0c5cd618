package extractor

import (
	"fmt"
	"strconv"
	"strings"

	"fms-squat-go/internal/types"
)

// PainOverride is appended when the user reported pain during the movement.
const PainOverride = "USER REPORTED PAIN: The user has indicated they experienced pain during this movement. " +
	"The score MUST be 0 (Pain) regardless of movement quality observed."

const basePrompt = `You are an expert movement analyst and physical therapist specializing in Functional Movement Screening (FMS).
Analyze this overhead deep squat recording and provide a detailed assessment.

## Your Role
You are working alongside an on-device pose detection system that tracks joint positions in real time.
The pose detection system provides ACCURATE data for:
- Knee angle measurements
- Whether squat depth was reached (below parallel)
- Number of squats performed

Your job is to analyze what the pose detection CANNOT reliably capture:
1. **Torso position** - Forward lean angle, uprightness
2. **Heel contact** - Whether heels lift off the ground
3. **Knee tracking** - Valgus (inward collapse) or varus (outward bow)
4. **Arm/overhead position** - If arms are maintained overhead
5. **Balance & control** - Stability throughout movement
6. **Overall movement quality** - Smoothness, hesitation, compensation patterns

## Recording Context
- The recording may include a SKELETON OVERLAY showing joint positions
- The person is positioned in a SIDE/PROFILE VIEW for squat assessment
- Use the skeleton markers to help assess alignment and movement quality
`

const poseDataPrompt = `
## POSE DETECTION DATA (from the pose detection system - TRUST THIS DATA)
The following measurements were captured by the pose detection system during recording:

**Knee Angle Data:**
- Minimum knee angle reached: %s°
- Maximum knee angle (standing): %s°
- Knee angle at deepest point: %s°

**Depth Assessment:**
- Depth reached below parallel (hip below knee): %s
- Good depth reached (knee angle < 100°): %s

**Movement Data:**
- Squats detected: %s
- Person detection rate: %s%%
- Time at deepest point: %ss into recording

**Real-time Feedback Shown:**
%s

IMPORTANT: The depth and knee angle data above is MEASURED by sensors.
Use this as GROUND TRUTH for scoring depth. Your visual analysis should CONFIRM
or provide context, not contradict the sensor data unless you see a clear discrepancy.
`

const visualOnlyPrompt = `
## Note
No pose detection data was provided. Base your entire assessment on visual analysis only.
`

const scoringCriteria = `
## FMS Scoring Criteria

**Score 3 (Optimal):**
- Thighs reach below parallel (hip crease below knee) - USE POSE DATA FOR THIS
- Torso and tibia remain parallel (minimal forward lean < 15°) - YOU ASSESS THIS
- Heels stay flat on the ground throughout movement - YOU ASSESS THIS
- Knees track over feet with no valgus/varus collapse - YOU ASSESS THIS
- Arms maintained overhead without dropping forward - YOU ASSESS THIS (if visible)
- Smooth, controlled movement throughout - YOU ASSESS THIS

**Score 2 (Compensated):**
- Achieves depth (USE POSE DATA) but with ONE OR MORE compensations YOU observe:
  - Heels lift off the ground
  - Torso leans forward >15-20° from vertical
  - Mild knee valgus or varus
  - Arms drop forward from overhead position
  - Some loss of balance or control

**Score 1 (Dysfunctional):**
- Cannot reach parallel depth (POSE DATA shows min_knee_angle > 100°)
- OR major compensations even if depth is reached:
  - Severe forward lean (>30°)
  - Complete loss of heel contact
  - Significant knee valgus/varus
  - Unable to control the movement
  - Multiple major compensations together

**Score 0 (Pain):**
- ONLY if user explicitly reported pain (will be indicated if true)

## Scoring Decision Tree

1. First, check POSE DATA for depth:
   - If min_knee_angle < 90° -> Depth achieved (potential for Score 3)
   - If min_knee_angle 90-100° -> Good depth (potential for Score 2-3)
   - If min_knee_angle > 100° -> Insufficient depth (likely Score 1-2)

2. Then, assess YOUR observations:
   - No compensations visible -> Maintain or upgrade score
   - Minor compensations (1-2 small issues) -> Score 2
   - Major compensations (multiple issues or severe) -> Score 1

3. Final score = min(depth_score, compensation_score)
`

const responseFormat = `
## Required Response Format (JSON)

{
  "score": <0-3>,
  "classification": "<Optimal|Compensated|Dysfunctional|Pain>",
  "pose_data_alignment": {
    "depth_confirmed": <true if your visual observation aligns with pose data depth>,
    "discrepancy_notes": "<any discrepancies between pose data and visual observation, or 'None'>"
  },
  "observations": {
    "depth": "<describe depth - REFERENCE THE POSE DATA knee angle, confirm what you see>",
    "torso": "<YOUR assessment of torso angle, estimate degrees of forward lean>",
    "heels": "<YOUR assessment - flat, lifting, or cannot determine from angle>",
    "knees": "<YOUR assessment - tracking over feet, valgus, varus, or cannot see>",
    "arms": "<YOUR assessment - overhead maintained, dropped, or not visible>"
  },
  "compensations_detected": ["<specific compensation you VISUALLY observed>"],
  "strengths": ["<specific thing done well>"],
  "improvements": ["<actionable suggestion based on YOUR observations>"],
  "mobility_focus_areas": ["<body area needing mobility work based on compensations>"],
  "summary": "<2-3 sentences: Reference the pose data depth, explain YOUR visual observations about form, justify the score>"
}

## CRITICAL RULES
1. TRUST the pose detection data for depth/knee angle - it's sensor-measured
2. YOUR job is to assess what sensors CAN'T see: torso, heels, knee valgus, arms, balance
3. If pose data says depth was reached but you see major compensations, score accordingly
4. If pose data says depth NOT reached, that alone warrants Score 1-2 even with good form
5. Be SPECIFIC about what YOU observe vs what the POSE DATA reports
6. Output ONLY valid JSON

Respond with ONLY the JSON object.
`

// BuildAnalysisPrompt assembles the instruction sent alongside the media.
// Pose metrics, when present, are embedded as sensor ground truth.
func BuildAnalysisPrompt(pose *types.PoseMetrics, reportedPain bool) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	if pose.Present() {
		b.WriteString(poseSection(pose))
	} else {
		b.WriteString(visualOnlyPrompt)
	}
	b.WriteString(scoringCriteria)
	b.WriteString(responseFormat)
	if reportedPain {
		b.WriteString("\n\n")
		b.WriteString(PainOverride)
	}
	return b.String()
}

func poseSection(p *types.PoseMetrics) string {
	rate := 0.0
	if p.PersonDetectionRate != nil {
		rate = *p.PersonDetectionRate
	}
	feedback := "No feedback recorded"
	if len(p.FeedbackDuringRecording) > 0 {
		feedback = strings.Join(p.FeedbackDuringRecording, ", ")
	}
	return fmt.Sprintf(poseDataPrompt,
		formatFloat(p.MinKneeAngle),
		formatFloat(p.MaxKneeAngle),
		formatFloat(p.KneeAngleAtDeepestPoint),
		yesNo(p.DepthReachedBelowParallel),
		yesNo(p.GoodDepthReached),
		formatInt(p.SquatsDetected),
		strconv.FormatFloat(rate*100, 'f', 0, 64),
		formatFloat(p.TimeAtDeepestPointSec),
		feedback,
	)
}

func formatFloat(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return "N/A"
	}
	return strconv.Itoa(*v)
}

func yesNo(v *bool) string {
	if v != nil && *v {
		return "YES"
	}
	return "NO"
}
