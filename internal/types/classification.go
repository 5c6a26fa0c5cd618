package types

// Classification is the FMS label paired with a 0-3 score.
type Classification string

const (
	Optimal       Classification = "Optimal"
	Compensated   Classification = "Compensated"
	Dysfunctional Classification = "Dysfunctional"
	Pain          Classification = "Pain"
)

// DefaultScore is used when neither score nor classification is usable.
const DefaultScore = 2

var scoreToClassification = map[int]Classification{
	3: Optimal,
	2: Compensated,
	1: Dysfunctional,
	0: Pain,
}

var classificationToScore = map[Classification]int{
	Optimal:       3,
	Compensated:   2,
	Dysfunctional: 1,
	Pain:          0,
}

// ClassificationForScore returns the canonical label for score.
func ClassificationForScore(score int) (Classification, bool) {
	c, ok := scoreToClassification[score]
	return c, ok
}

// ScoreForClassification returns the canonical score for c. Matching is exact.
func ScoreForClassification(c Classification) (int, bool) {
	s, ok := classificationToScore[c]
	return s, ok
}

// Valid reports whether c is one of the four canonical labels.
func (c Classification) Valid() bool {
	_, ok := classificationToScore[c]
	return ok
}
