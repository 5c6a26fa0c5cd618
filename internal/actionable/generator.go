package actionable

import (
	"fmt"

	"fms-squat-go/internal/aggregator"
)

// Thresholds for the batch action card.
const (
	PainReferralRate    = 0.2
	DominantPatternRate = 0.35
	LowAverageScore     = 2.0
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

// Generate picks the single most urgent recommendation for a screened group.
// Pain outranks movement patterns, which outrank general mobility work.
func Generate(ins aggregator.Insight) ActionCard {
	if ins.Succeeded == 0 {
		return ActionCard{
			Insight: fmt.Sprintf("No analyses completed (%d failed)", ins.Failed),
			Action:  "Check model credentials and media files, then rerun the batch",
			Impact:  "No screening data available",
		}
	}

	if ins.PainRate >= PainReferralRate {
		return ActionCard{
			Insight: fmt.Sprintf("Pain reported or scored in %.0f%% of squats", ins.PainRate*100),
			Action:  "Refer painful squats for clinical assessment before loading",
			Impact:  "Reduce injury risk in the group",
		}
	}

	if len(ins.TopCompensations) > 0 {
		top := ins.TopCompensations[0]
		share := float64(top.Count) / float64(ins.Succeeded)
		if share >= DominantPatternRate {
			return ActionCard{
				Insight: fmt.Sprintf("%q seen in %.0f%% of squats", top.Label, share*100),
				Action:  "Add group cueing and corrective drills for " + top.Label,
				Impact:  "Raise squat scores for the most common fault",
			}
		}
	}

	if ins.AverageScore < LowAverageScore {
		area := "hips and ankles"
		if len(ins.TopMobilityAreas) > 0 {
			area = ins.TopMobilityAreas[0].Label
		}
		return ActionCard{
			Insight: fmt.Sprintf("Average score %.1f is below Compensated", ins.AverageScore),
			Action:  "Start a mobility block focused on " + area,
			Impact:  "Restore squat pattern before adding load",
		}
	}

	return ActionCard{
		Insight: fmt.Sprintf("Average score %.1f with no dominant compensation", ins.AverageScore),
		Action:  "Continue current programming and rescreen periodically",
		Impact:  "Low immediate intervention",
	}
}
