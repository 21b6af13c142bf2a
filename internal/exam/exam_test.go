package exam

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"cippe-prep/internal/catalog"
)

// testCatalog builds a bank of the given size. Correct answers follow the
// rule correctAnswer == id % 4 so tests can construct known-score sessions.
func testCatalog(t *testing.T, size int) *catalog.Catalog {
	t.Helper()

	raw := make([]catalog.Question, size)
	for i := range raw {
		id := i + 1
		raw[i] = catalog.Question{
			ID:            id,
			Question:      fmt.Sprintf("Question %d", id),
			Options:       []string{"Option A", "Option B", "Option C", "Option D"},
			CorrectAnswer: id % 4,
			Explanation:   "Because.",
		}
	}
	cat, err := catalog.Load(raw)
	if err != nil {
		t.Fatalf("test catalog failed to load: %v", err)
	}
	return cat
}

func TestNewSessionDrawSizes(t *testing.T) {
	cat := testCatalog(t, 100)
	rng := rand.New(rand.NewSource(1))

	session, err := NewSession(cat, DefaultSpec(), rng)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	if len(session.QuestionIDs) != DefaultQuestionCount {
		t.Fatalf("expected %d questions, got %d", DefaultQuestionCount, len(session.QuestionIDs))
	}
	if len(session.TestQuestionIDs) != DefaultTestCount {
		t.Fatalf("expected %d test questions, got %d", DefaultTestCount, len(session.TestQuestionIDs))
	}

	seen := make(map[int]struct{}, len(session.QuestionIDs))
	for _, id := range session.QuestionIDs {
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate question id %d in draw", id)
		}
		seen[id] = struct{}{}
		if !cat.Has(id) {
			t.Fatalf("drawn id %d not in catalog", id)
		}
	}
	for id := range session.TestQuestionIDs {
		if _, ok := seen[id]; !ok {
			t.Fatalf("test question %d not part of the draw", id)
		}
	}

	scored := len(session.QuestionIDs) - len(session.TestQuestionIDs)
	if scored != 75 {
		t.Fatalf("expected scored pool of 75, got %d", scored)
	}

	if session.ID == "" {
		t.Fatalf("session id not assigned")
	}
	if session.DurationSeconds != DefaultDurationSeconds {
		t.Fatalf("expected duration %d, got %d", DefaultDurationSeconds, session.DurationSeconds)
	}
	if session.StartedAt.IsZero() {
		t.Fatalf("start time not set")
	}
}

func TestNewSessionInsufficientCatalog(t *testing.T) {
	cat := testCatalog(t, 89)

	_, err := NewSession(cat, DefaultSpec(), rand.New(rand.NewSource(1)))
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestNewSessionExactCatalogSize(t *testing.T) {
	cat := testCatalog(t, 90)

	session, err := NewSession(cat, DefaultSpec(), rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	drawn := make(map[int]struct{}, len(session.QuestionIDs))
	for _, id := range session.QuestionIDs {
		drawn[id] = struct{}{}
	}
	for _, id := range cat.IDs() {
		if _, ok := drawn[id]; !ok {
			t.Fatalf("catalog id %d missing from a full-catalog draw", id)
		}
	}
}

func TestNewSessionDeterministicForSeed(t *testing.T) {
	cat := testCatalog(t, 120)

	first, err := NewSession(cat, DefaultSpec(), rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	second, err := NewSession(cat, DefaultSpec(), rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	for i := range first.QuestionIDs {
		if first.QuestionIDs[i] != second.QuestionIDs[i] {
			t.Fatalf("same seed produced different draws at %d: %d vs %d",
				i, first.QuestionIDs[i], second.QuestionIDs[i])
		}
	}
	if len(first.TestQuestionIDs) != len(second.TestQuestionIDs) {
		t.Fatalf("same seed produced different test set sizes")
	}
	for id := range first.TestQuestionIDs {
		if _, ok := second.TestQuestionIDs[id]; !ok {
			t.Fatalf("same seed produced different test sets: %d missing", id)
		}
	}
}

func TestNewSessionRejectsBadSpec(t *testing.T) {
	cat := testCatalog(t, 100)

	bad := Spec{QuestionCount: 10, TestCount: 10, DurationSeconds: 600}
	if _, err := NewSession(cat, bad, rand.New(rand.NewSource(1))); err == nil {
		t.Fatalf("expected error for test count >= question count")
	}

	bad = Spec{QuestionCount: 10, TestCount: 2, DurationSeconds: 0}
	if _, err := NewSession(cat, bad, rand.New(rand.NewSource(1))); err == nil {
		t.Fatalf("expected error for zero duration")
	}
}

func TestSessionAnswerLifecycle(t *testing.T) {
	cat := testCatalog(t, 100)
	session, err := NewSession(cat, DefaultSpec(), rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	target := session.QuestionIDs[0]
	if err := session.Answer(target, 1); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if err := session.Answer(target, 3); err != nil {
		t.Fatalf("Answer upsert failed: %v", err)
	}
	if got := session.Answers[target]; got != 3 {
		t.Fatalf("expected upserted answer 3, got %d", got)
	}

	if err := session.Answer(-99, 0); !errors.Is(err, ErrUnknownQuestion) {
		t.Fatalf("expected ErrUnknownQuestion, got %v", err)
	}
	if err := session.Answer(target, 4); err == nil {
		t.Fatalf("expected error for out-of-range choice")
	}
	if err := session.Answer(target, -1); err == nil {
		t.Fatalf("expected error for negative choice")
	}

	if _, err := session.Submit(cat); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := session.Answer(target, 0); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted after submit, got %v", err)
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	cat := testCatalog(t, 100)
	session, err := NewSession(cat, DefaultSpec(), rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	target := session.QuestionIDs[0]
	if err := session.Answer(target, target%4); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	first, err := session.Submit(cat)
	if err != nil {
		t.Fatalf("first Submit failed: %v", err)
	}
	if !session.Submitted || session.Result == nil {
		t.Fatalf("session not terminal after submit")
	}

	_, err = session.Submit(cat)
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted on second submit, got %v", err)
	}
	if *session.Result != first {
		t.Fatalf("second submit changed the stored result: %+v vs %+v", *session.Result, first)
	}
}

func TestRemainingSeconds(t *testing.T) {
	cat := testCatalog(t, 100)
	session, err := NewSession(cat, DefaultSpec(), rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	start := session.StartedAt
	if got := session.RemainingSeconds(start); got != 9000 {
		t.Fatalf("expected 9000 at start, got %d", got)
	}
	if got := session.RemainingSeconds(start.Add(1500 * time.Second)); got != 7500 {
		t.Fatalf("expected 7500 after 1500s, got %d", got)
	}
	deadline := start.Add(9000 * time.Second)
	if got := session.RemainingSeconds(deadline); got != 0 {
		t.Fatalf("expected 0 at deadline, got %d", got)
	}
	if got := session.RemainingSeconds(deadline.Add(time.Hour)); got != 0 {
		t.Fatalf("expected clock floored at 0 past deadline, got %d", got)
	}
}
