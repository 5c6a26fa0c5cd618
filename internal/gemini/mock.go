package gemini

import (
	"context"
	"fmt"
	"strings"

	"fms-squat-go/internal/extractor"
	"fms-squat-go/internal/types"
)

// MockClient returns a deterministic reply for offline demos (USE_MOCK_MODEL=true).
type MockClient struct {
	ModelName string
}

func (m MockClient) Model() string { return m.ModelName }

func (m MockClient) Generate(ctx context.Context, prompt string, media types.Media) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	score, label := 2, types.Compensated
	if strings.Contains(prompt, extractor.PainOverride) {
		score, label = 0, types.Pain
	}
	return fmt.Sprintf("```json\n%s\n```", fmt.Sprintf(mockReply, score, label)), nil
}

const mockReply = `{
  "score": %d,
  "classification": %q,
  "pose_data_alignment": {"depth_confirmed": true, "discrepancy_notes": "None"},
  "observations": {
    "depth": "Hip crease reaches just below the knee",
    "torso": "Roughly 20 degrees of forward lean at the bottom",
    "heels": "Heels stay flat",
    "knees": "Knees track over the feet",
    "arms": "Arms drift slightly forward of the ears"
  },
  "compensations_detected": ["Forward torso lean", "Arms drift forward"],
  "strengths": ["Full depth", "Stable heels"],
  "improvements": ["Thoracic extension work before squatting"],
  "mobility_focus_areas": ["Thoracic spine", "Shoulders"],
  "summary": "Mock analysis: depth achieved with mild torso and arm compensations."
}`
