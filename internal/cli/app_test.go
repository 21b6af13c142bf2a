package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"cippe-prep/internal/catalog"
	"cippe-prep/internal/kvstore"
	"cippe-prep/internal/logging"
	"cippe-prep/internal/progress"
	"cippe-prep/internal/session"
)

// newTestController builds a controller over an in-memory store and a
// catalog where correctAnswer == id % 4, so scripts can hit or miss on
// purpose.
func newTestController(t *testing.T, catalogSize int, cfg session.Config) *session.Controller {
	t.Helper()

	raw := make([]catalog.Question, catalogSize)
	for i := range raw {
		id := i + 1
		raw[i] = catalog.Question{
			ID:             id,
			Question:       fmt.Sprintf("Question %d", id),
			Options:        []string{"Option A", "Option B", "Option C", "Option D"},
			CorrectAnswer:  id % 4,
			Explanation:    "Explanation.",
			LegalReference: "GDPR",
		}
	}
	cat, err := catalog.Load(raw)
	if err != nil {
		t.Fatalf("bank failed to load: %v", err)
	}

	store := progress.NewStore(kvstore.NewMemStore(), logging.Nop())
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("progress load failed: %v", err)
	}

	return session.New(cat, store, logging.Nop(), cfg)
}

func runScript(t *testing.T, ctrl *session.Controller, script string) string {
	t.Helper()
	var out bytes.Buffer
	if err := Run(context.Background(), strings.NewReader(script), &out, ctrl); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return out.String()
}

func TestRunExitsOnEOF(t *testing.T) {
	ctrl := newTestController(t, 8, session.Config{})
	text := runScript(t, ctrl, "")
	if !strings.Contains(text, "Commands:") {
		t.Fatalf("expected help banner, got: %s", text)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	ctrl := newTestController(t, 8, session.Config{})
	text := runScript(t, ctrl, "bogus\nexit\n")
	if !strings.Contains(text, "unknown command") {
		t.Fatalf("expected unknown command hint, got: %s", text)
	}
}

func TestPracticeFlow(t *testing.T) {
	ctrl := newTestController(t, 20, session.Config{})

	// Question 1's correct answer is B, question 2's is C.
	text := runScript(t, ctrl, "practice\nb\nn\na\nhome\nstats\nexit\n")

	if !strings.Contains(text, "Question 1/20 (id 1)") {
		t.Fatalf("expected the first practice question, got: %s", text)
	}
	if !strings.Contains(text, "Correct!") {
		t.Fatalf("expected correct verdict, got: %s", text)
	}
	if !strings.Contains(text, "Wrong. Correct answer: C. Option C") {
		t.Fatalf("expected wrong verdict with the key, got: %s", text)
	}
	if !strings.Contains(text, "Reference: GDPR") {
		t.Fatalf("expected legal reference in the reveal, got: %s", text)
	}
	if !strings.Contains(text, "Attempted: 2") {
		t.Fatalf("expected stats to count both attempts, got: %s", text)
	}

	if ctrl.Mode() != session.ModeHome {
		t.Fatalf("mode = %q after exit, want home", ctrl.Mode())
	}
}

func TestPracticeRejectsSecondAnswer(t *testing.T) {
	ctrl := newTestController(t, 8, session.Config{})

	text := runScript(t, ctrl, "practice\nb\nc\nhome\nexit\n")
	if !strings.Contains(text, "Already answered") {
		t.Fatalf("expected second answer to be refused, got: %s", text)
	}
	if ctrl.View().Stats.TotalAttempts != 1 {
		t.Fatalf("attempts = %d, want 1", ctrl.View().Stats.TotalAttempts)
	}
}

func TestPracticeNoteCommand(t *testing.T) {
	ctrl := newTestController(t, 8, session.Config{})

	text := runScript(t, ctrl, "practice\nnote tricky one\nhome\nnote 1\nexit\n")
	if !strings.Contains(text, "Note saved.") {
		t.Fatalf("expected note confirmation, got: %s", text)
	}
	if !strings.Contains(text, "Note for question 1: tricky one") {
		t.Fatalf("expected note readback, got: %s", text)
	}
}

func TestNoteCommandValidation(t *testing.T) {
	ctrl := newTestController(t, 8, session.Config{})

	text := runScript(t, ctrl, "note\nnote abc\nnote 999 x\nnote 2\nexit\n")
	if !strings.Contains(text, "usage: note <question_id> [text]") {
		t.Fatalf("expected usage hint, got: %s", text)
	}
	if !strings.Contains(text, "question id must be a number") {
		t.Fatalf("expected integer validation, got: %s", text)
	}
	if !strings.Contains(text, "error: question not found") {
		t.Fatalf("expected unknown question error, got: %s", text)
	}
	if !strings.Contains(text, "No note for question 2.") {
		t.Fatalf("expected empty note message, got: %s", text)
	}
}

func TestReviewFlow(t *testing.T) {
	ctrl := newTestController(t, 8, session.Config{})
	ctx := context.Background()

	// Miss question 1 in practice so it lands in review.
	if err := ctrl.StartPractice(); err != nil {
		t.Fatalf("start practice: %v", err)
	}
	if err := ctrl.SelectAnswer(0); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := ctrl.Confirm(ctx); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	ctrl.GoHome()

	// First review answers it correctly; the second finds nothing left.
	text := runScript(t, ctrl, "review\nb\nhome\nreview\nexit\n")
	if !strings.Contains(text, "Question 1/1 (id 1)") {
		t.Fatalf("expected review to hold only the missed question, got: %s", text)
	}
	if !strings.Contains(text, "Correct!") {
		t.Fatalf("expected correct verdict in review, got: %s", text)
	}
	if !strings.Contains(text, "Nothing to review") {
		t.Fatalf("expected empty review message, got: %s", text)
	}
}

func TestExamFlow(t *testing.T) {
	ctrl := newTestController(t, 120, session.Config{})

	text := runScript(t, ctrl, "exam\ngoto 5\nb\ngrid\nsubmit\ny\nexit\n")

	if !strings.Contains(text, "Exam started: 90 questions") {
		t.Fatalf("expected exam banner, got: %s", text)
	}
	if !strings.Contains(text, "Question 5/90") {
		t.Fatalf("expected goto to land on question 5, got: %s", text)
	}
	if !strings.Contains(text, "5:B") {
		t.Fatalf("expected grid to show the recorded answer, got: %s", text)
	}
	if !strings.Contains(text, "89 unanswered questions will count as wrong") {
		t.Fatalf("expected unanswered warning before submit, got: %s", text)
	}
	if !strings.Contains(text, "FAIL") {
		t.Fatalf("one answered question must not pass, got: %s", text)
	}
	if ctrl.Mode() != session.ModeHome {
		t.Fatalf("mode = %q after submit, want home", ctrl.Mode())
	}
}

func TestExamRefusedOnSmallCatalog(t *testing.T) {
	ctrl := newTestController(t, 10, session.Config{})

	text := runScript(t, ctrl, "exam\nexit\n")
	if !strings.Contains(text, "error: catalog too small for an exam draw") {
		t.Fatalf("expected exam refusal, got: %s", text)
	}
}

func TestExamAbandonRecordsNothing(t *testing.T) {
	ctrl := newTestController(t, 120, session.Config{})

	text := runScript(t, ctrl, "exam\na\nhome\nyes\nstats\nexit\n")
	if !strings.Contains(text, "Abandon the exam?") {
		t.Fatalf("expected abandon confirmation, got: %s", text)
	}
	if ctrl.View().Stats.TotalAttempts != 0 {
		t.Fatalf("abandoned exam recorded attempts: %+v", ctrl.View().Stats)
	}
}

// runExam reports a submission it did not perform itself, which is how a
// timer expiry during a prompt surfaces to the learner.
func TestRunExamReportsAutoSubmit(t *testing.T) {
	ctrl := newTestController(t, 120, session.Config{})
	ctx := context.Background()

	if err := ctrl.StartExam(); err != nil {
		t.Fatalf("start exam: %v", err)
	}
	if _, err := ctrl.SubmitExam(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}

	reader := bufio.NewReader(strings.NewReader(""))
	var out bytes.Buffer
	if err := runExam(ctx, reader, &out, ctrl); err != nil {
		t.Fatalf("runExam failed: %v", err)
	}

	if !strings.Contains(out.String(), "submitted automatically") {
		t.Fatalf("expected auto-submit notice, got: %s", out.String())
	}
	if ctrl.Mode() != session.ModeHome {
		t.Fatalf("mode = %q, want home", ctrl.Mode())
	}
}

func TestPromptYesNoRetriesUntilValid(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader("maybe\nyes\n"))
	var out bytes.Buffer

	ok, err := promptYesNo(reader, &out, "continue? ")
	if err != nil {
		t.Fatalf("promptYesNo returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected yes result")
	}
	if !strings.Contains(out.String(), "Please answer yes or no.") {
		t.Fatalf("expected retry hint in output, got: %s", out.String())
	}
}

func TestParseOption(t *testing.T) {
	if got, ok := parseOption(" b "); !ok || got != 1 {
		t.Fatalf("parseOption(b) = (%d, %t), want (1, true)", got, ok)
	}
	if _, ok := parseOption("z"); ok {
		t.Fatalf("expected z to be rejected")
	}
	if _, ok := parseOption("ab"); ok {
		t.Fatalf("expected multi-letter input to be rejected")
	}
}

func TestFormatClock(t *testing.T) {
	if got := formatClock(9000); got != "2:30:00" {
		t.Fatalf("formatClock(9000) = %q, want 2:30:00", got)
	}
	if got := formatClock(59); got != "0:00:59" {
		t.Fatalf("formatClock(59) = %q, want 0:00:59", got)
	}
	if got := formatClock(-5); got != "0:00:00" {
		t.Fatalf("formatClock(-5) = %q, want 0:00:00", got)
	}
}
