// Package exam assembles and scores timed exam sessions in the CIPP/E
// format: ninety questions drawn at random, fifteen of them unscored test
// items, 150 minutes on the clock.
package exam

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"cippe-prep/internal/catalog"
)

// CIPP/E exam format.
const (
	DefaultQuestionCount   = 90
	DefaultTestCount       = 15
	DefaultDurationSeconds = 9000
)

var (
	// ErrInsufficientData means the catalog holds fewer questions than an
	// exam draw needs. Exam mode is unavailable, not broken.
	ErrInsufficientData = errors.New("catalog too small for an exam draw")

	// ErrAlreadySubmitted guards the terminal state: a submitted session
	// accepts no further answers and no second submission.
	ErrAlreadySubmitted = errors.New("exam already submitted")

	// ErrUnknownQuestion is returned for an answer to an id outside the draw.
	ErrUnknownQuestion = errors.New("question not in this exam")
)

// Spec fixes the draw sizes and duration for a session.
type Spec struct {
	QuestionCount   int
	TestCount       int
	DurationSeconds int
}

func DefaultSpec() Spec {
	return Spec{
		QuestionCount:   DefaultQuestionCount,
		TestCount:       DefaultTestCount,
		DurationSeconds: DefaultDurationSeconds,
	}
}

func (spec Spec) validate() error {
	if spec.QuestionCount <= 0 {
		return fmt.Errorf("question count %d must be positive", spec.QuestionCount)
	}
	if spec.TestCount < 0 || spec.TestCount >= spec.QuestionCount {
		return fmt.Errorf("test count %d must be in [0, %d)", spec.TestCount, spec.QuestionCount)
	}
	if spec.DurationSeconds <= 0 {
		return fmt.Errorf("duration %d must be positive", spec.DurationSeconds)
	}
	return nil
}

// Session is one exam in progress. It belongs to a single controller and is
// never persisted; attempt records are written only at submission, so an
// abandoned session leaves no trace.
type Session struct {
	ID              string
	QuestionIDs     []int
	TestQuestionIDs map[int]struct{}
	Answers         map[int]int
	StartedAt       time.Time
	DurationSeconds int
	Submitted       bool
	Result          *Result
}

// NewSession draws an exam from the catalog: an unbiased shuffle of all
// question ids, of which the first QuestionCount form the exam, then an
// unbiased draw of TestCount of those as unscored test items.
func NewSession(cat *catalog.Catalog, spec Spec, rng *rand.Rand) (*Session, error) {
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("exam spec: %w", err)
	}
	if cat.Len() < spec.QuestionCount {
		return nil, fmt.Errorf("%w: need %d questions, catalog has %d",
			ErrInsufficientData, spec.QuestionCount, cat.Len())
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	ids := cat.IDs()
	rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	questionIDs := make([]int, spec.QuestionCount)
	copy(questionIDs, ids[:spec.QuestionCount])

	test := make(map[int]struct{}, spec.TestCount)
	for _, pos := range rng.Perm(spec.QuestionCount)[:spec.TestCount] {
		test[questionIDs[pos]] = struct{}{}
	}

	return &Session{
		ID:              uuid.NewString(),
		QuestionIDs:     questionIDs,
		TestQuestionIDs: test,
		Answers:         make(map[int]int),
		StartedAt:       time.Now().UTC(),
		DurationSeconds: spec.DurationSeconds,
	}, nil
}

// Answer upserts the learner's choice for a question. Allowed freely until
// the session is submitted.
func (s *Session) Answer(questionID, chosenIndex int) error {
	if s.Submitted {
		return ErrAlreadySubmitted
	}
	if !s.Contains(questionID) {
		return fmt.Errorf("%w: id %d", ErrUnknownQuestion, questionID)
	}
	if chosenIndex < 0 || chosenIndex >= catalog.OptionCount {
		return fmt.Errorf("chosen index %d out of range", chosenIndex)
	}
	s.Answers[questionID] = chosenIndex
	return nil
}

// Submit marks the session terminal and stores its score. Second and later
// calls fail with ErrAlreadySubmitted and leave the stored result unchanged.
func (s *Session) Submit(cat *catalog.Catalog) (Result, error) {
	if s.Submitted {
		return Result{}, ErrAlreadySubmitted
	}
	s.Submitted = true
	result := Score(cat, s)
	s.Result = &result
	return result, nil
}

// Contains reports whether the question id is part of this exam's draw.
func (s *Session) Contains(questionID int) bool {
	for _, id := range s.QuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}

// IsTest reports whether the question is an unscored test item.
func (s *Session) IsTest(questionID int) bool {
	_, ok := s.TestQuestionIDs[questionID]
	return ok
}

// RemainingSeconds is the whole seconds left on the clock at now, floored at
// zero.
func (s *Session) RemainingSeconds(now time.Time) int {
	deadline := s.StartedAt.Add(time.Duration(s.DurationSeconds) * time.Second)
	remaining := deadline.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds())
}
