package progress

// Snapshot is a point-in-time view of the learner's progress.
//
// Invariants: Completed holds exactly the ids with a non-empty record, and
// TotalAttempts equals the sum of all record lengths. Attempt slices may be
// shared with the store; records are append-only, so a handed-out slice never
// observes later appends.
type Snapshot struct {
	Records       map[int]AttemptRecord
	Completed     map[int]struct{}
	TotalAttempts int
	Notes         map[int]string
}

func emptySnapshot() Snapshot {
	return Snapshot{
		Records:   make(map[int]AttemptRecord),
		Completed: make(map[int]struct{}),
		Notes:     make(map[int]string),
	}
}

// IsCompleted reports whether the question has at least one recorded attempt.
func (s Snapshot) IsCompleted(questionID int) bool {
	_, ok := s.Completed[questionID]
	return ok
}

// AttemptedCount is the number of distinct questions with at least one
// attempt.
func (s Snapshot) AttemptedCount() int {
	return len(s.Completed)
}

// EverCorrectCount is the number of distinct questions answered correctly at
// least once.
func (s Snapshot) EverCorrectCount() int {
	count := 0
	for _, record := range s.Records {
		if record.EverCorrect() {
			count++
		}
	}
	return count
}

// CompletionPercent is the share of the catalog attempted at least once, as a
// percentage in [0,100].
func (s Snapshot) CompletionPercent(catalogSize int) float64 {
	if catalogSize <= 0 {
		return 0
	}
	return float64(len(s.Completed)) / float64(catalogSize) * 100
}

// AccuracyPercent is the share of all recorded attempts that were correct, as
// a percentage in [0,100]. Zero attempts yields 0.
func (s Snapshot) AccuracyPercent() float64 {
	total := 0
	correct := 0
	for _, record := range s.Records {
		total += len(record)
		for _, attempt := range record {
			if attempt.IsCorrect {
				correct++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}
