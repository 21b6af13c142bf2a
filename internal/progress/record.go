// Package progress owns the learner's persisted study state: per-question
// attempt history, the completed set, the running attempt total, and
// free-text notes. The in-memory snapshot is the source of truth during a
// session; every mutation is written through to the backing store before it
// returns.
package progress

import "time"

// NoAnswer is the chosen-index sentinel recorded when an exam is submitted
// with a question left unanswered.
const NoAnswer = -1

type Attempt struct {
	ChosenIndex int       `json:"chosenIndex"`
	IsCorrect   bool      `json:"isCorrect"`
	Timestamp   time.Time `json:"timestamp"`
}

// AttemptRecord is the append-only attempt history of a single question.
type AttemptRecord []Attempt

func (r AttemptRecord) AttemptCount() int {
	return len(r)
}

func (r AttemptRecord) LastCorrect() bool {
	if len(r) == 0 {
		return false
	}
	return r[len(r)-1].IsCorrect
}

func (r AttemptRecord) EverCorrect() bool {
	for _, attempt := range r {
		if attempt.IsCorrect {
			return true
		}
	}
	return false
}
