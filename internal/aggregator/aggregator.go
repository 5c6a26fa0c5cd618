package aggregator

import (
	"sort"
	"strings"

	"fms-squat-go/internal/types"
)

// TopN bounds the ranked compensation and mobility lists.
const TopN = 5

type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type Insight struct {
	Total                int            `json:"total"`
	Succeeded            int            `json:"succeeded"`
	Failed               int            `json:"failed"`
	ScoreDistribution    map[int]int    `json:"score_distribution"`
	ClassificationCounts map[string]int `json:"classification_counts"`
	AverageScore         float64        `json:"average_score"`
	PainRate             float64        `json:"pain_rate"`
	DepthDisagreements   int            `json:"depth_disagreements"`
	TopCompensations     []Count        `json:"top_compensations"`
	TopMobilityAreas     []Count        `json:"top_mobility_areas"`
}

// Aggregate summarizes a batch of screened records. Rates and averages are
// computed over successful analyses only.
func Aggregate(records []types.ScreenedRecord) Insight {
	ins := Insight{
		Total:                len(records),
		ScoreDistribution:    map[int]int{0: 0, 1: 0, 2: 0, 3: 0},
		ClassificationCounts: map[string]int{},
	}
	comps := newCounter()
	mobility := newCounter()
	scoreSum, pain := 0, 0

	for _, r := range records {
		if r.Result == nil {
			ins.Failed++
			continue
		}
		ins.Succeeded++
		res := r.Result
		ins.ScoreDistribution[res.Score]++
		ins.ClassificationCounts[string(res.Classification)]++
		scoreSum += res.Score
		if res.Classification == types.Pain {
			pain++
		}
		if disagrees(r.PoseMetrics, res.PoseDataAlignment) {
			ins.DepthDisagreements++
		}
		for _, c := range res.CompensationsDetected {
			comps.add(c)
		}
		for _, m := range res.MobilityFocusAreas {
			mobility.add(m)
		}
	}

	if ins.Succeeded > 0 {
		ins.AverageScore = float64(scoreSum) / float64(ins.Succeeded)
		ins.PainRate = float64(pain) / float64(ins.Succeeded)
	}
	ins.TopCompensations = comps.top(TopN)
	ins.TopMobilityAreas = mobility.top(TopN)
	return ins
}

// disagrees is true when the sensor reported depth but the model could not confirm it.
func disagrees(pose *types.PoseMetrics, align *types.PoseDataAlignment) bool {
	if pose == nil || pose.DepthReachedBelowParallel == nil || align == nil || align.DepthConfirmed == nil {
		return false
	}
	return *pose.DepthReachedBelowParallel != *align.DepthConfirmed
}

// counter groups free-text labels case-insensitively and remembers the
// first spelling seen.
type counter struct {
	counts map[string]int
	labels map[string]string
	order  []string
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}, labels: map[string]string{}}
}

func (c *counter) add(label string) {
	label = strings.TrimSpace(label)
	if label == "" {
		return
	}
	key := strings.ToLower(label)
	if _, ok := c.counts[key]; !ok {
		c.labels[key] = label
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *counter) top(n int) []Count {
	out := make([]Count, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, Count{Label: c.labels[k], Count: c.counts[k]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
