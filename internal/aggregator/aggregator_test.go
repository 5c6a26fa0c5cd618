package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fms-squat-go/internal/types"
)

func boolPtr(b bool) *bool { return &b }

func screened(score int, label types.Classification, comps, mobility []string) types.ScreenedRecord {
	return types.ScreenedRecord{Result: &types.AnalysisResult{
		Score:                 score,
		Classification:        label,
		CompensationsDetected: comps,
		MobilityFocusAreas:    mobility,
	}}
}

func TestAggregate(t *testing.T) {
	records := []types.ScreenedRecord{
		screened(3, types.Optimal, nil, nil),
		screened(2, types.Compensated, []string{"Heel rise", "Forward lean"}, []string{"ankle dorsiflexion"}),
		screened(1, types.Dysfunctional, []string{"heel rise "}, []string{"Ankle dorsiflexion", "hip flexion"}),
		screened(0, types.Pain, nil, nil),
		{Error: "model call failed"},
	}

	ins := Aggregate(records)

	assert.Equal(t, 5, ins.Total)
	assert.Equal(t, 4, ins.Succeeded)
	assert.Equal(t, 1, ins.Failed)
	assert.Equal(t, map[int]int{0: 1, 1: 1, 2: 1, 3: 1}, ins.ScoreDistribution)
	assert.Equal(t, 1, ins.ClassificationCounts["Pain"])
	assert.InDelta(t, 1.5, ins.AverageScore, 1e-9)
	assert.InDelta(t, 0.25, ins.PainRate, 1e-9)
	assert.Equal(t, []Count{{"Heel rise", 2}, {"Forward lean", 1}}, ins.TopCompensations)
	assert.Equal(t, []Count{{"ankle dorsiflexion", 2}, {"hip flexion", 1}}, ins.TopMobilityAreas)
}

func TestAggregateEmpty(t *testing.T) {
	ins := Aggregate(nil)

	assert.Zero(t, ins.Total)
	assert.Zero(t, ins.AverageScore)
	assert.Empty(t, ins.TopCompensations)
	assert.Equal(t, 0, ins.ScoreDistribution[3])
}

func TestAggregateDepthDisagreement(t *testing.T) {
	agree := screened(3, types.Optimal, nil, nil)
	agree.PoseMetrics = &types.PoseMetrics{DepthReachedBelowParallel: boolPtr(true)}
	agree.Result.PoseDataAlignment = &types.PoseDataAlignment{DepthConfirmed: boolPtr(true)}

	disagree := screened(2, types.Compensated, nil, nil)
	disagree.PoseMetrics = &types.PoseMetrics{DepthReachedBelowParallel: boolPtr(true)}
	disagree.Result.PoseDataAlignment = &types.PoseDataAlignment{DepthConfirmed: boolPtr(false)}

	noPose := screened(2, types.Compensated, nil, nil)
	noPose.Result.PoseDataAlignment = &types.PoseDataAlignment{DepthConfirmed: boolPtr(false)}

	ins := Aggregate([]types.ScreenedRecord{agree, disagree, noPose})

	assert.Equal(t, 1, ins.DepthDisagreements)
}

func TestTopIsBounded(t *testing.T) {
	comps := []string{"a", "b", "c", "d", "e", "f", "g", "g", "G"}

	ins := Aggregate([]types.ScreenedRecord{screened(2, types.Compensated, comps, nil)})

	assert.Len(t, ins.TopCompensations, TopN)
	assert.Equal(t, Count{"g", 3}, ins.TopCompensations[0])
	assert.Equal(t, "a", ins.TopCompensations[1].Label)
}
