package exam

import (
	"math"

	"cippe-prep/internal/catalog"
)

// Scaled-score bounds and pass mark of the 100-500 reporting scale.
const (
	ScaleFloor   = 100
	ScaleCeiling = 500
	PassMark     = 300
)

// Result is the outcome of scoring a submitted exam.
type Result struct {
	ScoredCorrect int     `json:"scoredCorrect"`
	ScoredTotal   int     `json:"scoredTotal"`
	RawPercentage float64 `json:"rawPercentage"`
	ScaledScore   int     `json:"scaledScore"`
	Passed        bool    `json:"passed"`
}

// Score grades a session against the catalog. Test questions are excluded
// from the scored pool and a missing answer counts as incorrect. Pure: the
// session is only read.
func Score(cat *catalog.Catalog, s *Session) Result {
	scoredTotal := 0
	scoredCorrect := 0
	for _, id := range s.QuestionIDs {
		if s.IsTest(id) {
			continue
		}
		scoredTotal++

		chosen, answered := s.Answers[id]
		if !answered {
			continue
		}
		question, err := cat.Get(id)
		if err != nil {
			continue
		}
		if chosen == question.CorrectAnswer {
			scoredCorrect++
		}
	}

	rawPct := 0.0
	if scoredTotal > 0 {
		rawPct = float64(scoredCorrect) / float64(scoredTotal) * 100
	}

	scaled := int(math.Round(float64(ScaleFloor) + rawPct*float64(ScaleCeiling-ScaleFloor)/100))
	if scaled < ScaleFloor {
		scaled = ScaleFloor
	}
	if scaled > ScaleCeiling {
		scaled = ScaleCeiling
	}

	return Result{
		ScoredCorrect: scoredCorrect,
		ScoredTotal:   scoredTotal,
		RawPercentage: rawPct,
		ScaledScore:   scaled,
		Passed:        scaled >= PassMark,
	}
}
