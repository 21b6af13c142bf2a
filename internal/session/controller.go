package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"cippe-prep/internal/catalog"
	"cippe-prep/internal/exam"
	"cippe-prep/internal/logging"
	"cippe-prep/internal/progress"
)

type Mode string

const (
	ModeHome     Mode = "home"
	ModePractice Mode = "practice"
	ModeExam     Mode = "exam"
	ModeReview   Mode = "review"
)

// noSelection marks an empty answer slot in transient UI state.
const noSelection = -1

var (
	// ErrWrongMode is returned when an action is invoked outside the mode it
	// belongs to, which no UI surface should be able to do.
	ErrWrongMode = errors.New("action not available in this mode")

	// ErrNoSelection is returned by Confirm when no option is selected.
	ErrNoSelection = errors.New("no answer selected")
)

// Config tunes a controller. Zero values fall back to the standard exam
// format, a one second tick and a time-seeded random source.
type Config struct {
	ExamSpec     exam.Spec
	TickInterval time.Duration
	Rand         *rand.Rand
}

// Controller is the state machine behind one learner's session. All learner
// actions and timer callbacks are serialized by the mutex; within a valid
// mode every operation is total, so normal interaction cannot fail.
type Controller struct {
	cat   *catalog.Catalog
	store *progress.Store
	log   *logging.Logger
	spec  exam.Spec
	tick  time.Duration
	rng   *rand.Rand

	mu       sync.Mutex
	mode     Mode
	list     []catalog.Question
	idx      int
	selected int
	revealed bool
	chosen   map[int]int // answers confirmed this practice/review session

	examSession *exam.Session
	clock       *timer
	remaining   int
}

func New(cat *catalog.Catalog, store *progress.Store, log *logging.Logger, cfg Config) *Controller {
	if log == nil {
		log = logging.Nop()
	}
	spec := cfg.ExamSpec
	if spec == (exam.Spec{}) {
		spec = exam.DefaultSpec()
	}
	tick := cfg.TickInterval
	if tick <= 0 {
		tick = time.Second
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Controller{
		cat:      cat,
		store:    store,
		log:      log,
		spec:     spec,
		tick:     tick,
		rng:      rng,
		mode:     ModeHome,
		selected: noSelection,
		chosen:   make(map[int]int),
	}
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// StartPractice enters practice mode. An empty catalog yields an empty list,
// rendered as an empty state rather than an error.
func (c *Controller) StartPractice() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeHome {
		return ErrWrongMode
	}
	c.enterListModeLocked(ModePractice, SelectPractice(c.cat, c.store.Snapshot()))
	return nil
}

// StartReview enters review mode over the questions never answered correctly.
// The list may be empty; the projection then reports the explicit
// nothing-to-review state.
func (c *Controller) StartReview() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeHome {
		return ErrWrongMode
	}
	list := SelectReview(c.cat, c.store.Snapshot())
	if len(list) == 0 {
		c.log.Debug("nothing to review")
	}
	c.enterListModeLocked(ModeReview, list)
	return nil
}

func (c *Controller) enterListModeLocked(mode Mode, list []catalog.Question) {
	c.mode = mode
	c.list = list
	c.idx = 0
	c.selected = noSelection
	c.revealed = false
	c.chosen = make(map[int]int)
}

// StartExam draws a fresh exam and starts its countdown. A catalog smaller
// than the draw fails with exam.ErrInsufficientData; the projection exposes
// the same condition up front as a disabled action.
func (c *Controller) StartExam() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeHome {
		return ErrWrongMode
	}

	session, err := exam.NewSession(c.cat, c.spec, c.rng)
	if err != nil {
		return err
	}

	c.mode = ModeExam
	c.examSession = session
	c.idx = 0
	c.selected = noSelection
	c.revealed = false
	c.remaining = session.DurationSeconds

	duration := time.Duration(session.DurationSeconds) * time.Second
	c.clock = newTimer(duration, c.tick,
		func(remaining time.Duration) { c.handleTick(session, remaining) },
		func() { c.handleExpiry(session) },
	)

	c.log.Info("exam started",
		"session", session.ID,
		"questions", len(session.QuestionIDs),
		"durationSeconds", session.DurationSeconds)
	return nil
}

// GoHome abandons whatever is active. An unsubmitted exam is discarded with
// no attempt records written, and its timer is cancelled so a late expiry
// cannot fire against a later session.
func (c *Controller) GoHome() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopClockLocked()
	if c.examSession != nil && !c.examSession.Submitted {
		c.log.Info("exam abandoned", "session", c.examSession.ID)
	}
	c.examSession = nil
	c.mode = ModeHome
	c.list = nil
	c.idx = 0
	c.selected = noSelection
	c.revealed = false
	c.chosen = make(map[int]int)
	c.remaining = 0
}

func (c *Controller) stopClockLocked() {
	if c.clock != nil {
		c.clock.Stop()
		c.clock = nil
	}
}

// SelectAnswer highlights an option in practice or review. Nothing is
// recorded until Confirm; selections after the reveal are ignored.
func (c *Controller) SelectAnswer(option int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModePractice && c.mode != ModeReview {
		return ErrWrongMode
	}
	if option < 0 || option >= catalog.OptionCount {
		return fmt.Errorf("option %d out of range", option)
	}
	if len(c.list) == 0 || c.revealed {
		return nil
	}
	c.selected = option
	return nil
}

// Confirm grades the selected option, appends the attempt (write-through)
// and reveals the explanations. Confirming an already revealed question is a
// no-op, so an attempt is recorded exactly once per question per session.
func (c *Controller) Confirm(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModePractice && c.mode != ModeReview {
		return ErrWrongMode
	}
	if len(c.list) == 0 || c.revealed {
		return nil
	}
	if c.selected == noSelection {
		return ErrNoSelection
	}

	question := c.list[c.idx]
	isCorrect := c.selected == question.CorrectAnswer
	if err := c.store.RecordAttempt(ctx, question.ID, c.selected, isCorrect); err != nil {
		// The attempt stays in memory; the next successful write carries it.
		c.log.Error("attempt not persisted", "question", question.ID, "error", err)
	}
	c.chosen[question.ID] = c.selected
	c.revealed = true
	c.log.Debug("attempt recorded", "question", question.ID, "correct", isCorrect)
	return nil
}

func (c *Controller) Next() error { return c.move(1) }

func (c *Controller) Prev() error { return c.move(-1) }

func (c *Controller) move(delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.mode {
	case ModePractice, ModeReview:
		c.setListIndexLocked(c.idx + delta)
	case ModeExam:
		c.setExamIndexLocked(c.idx + delta)
	default:
		return ErrWrongMode
	}
	return nil
}

// JumpTo moves the pointer straight to a position. Exam navigation is
// free-form; practice and review stay sequential.
func (c *Controller) JumpTo(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeExam {
		return ErrWrongMode
	}
	c.setExamIndexLocked(index)
	return nil
}

// setListIndexLocked clamps the pointer and restores the answer state for
// the question it lands on: a question confirmed earlier this session comes
// back revealed with its chosen option, anything else comes back blank.
func (c *Controller) setListIndexLocked(index int) {
	if len(c.list) == 0 {
		c.idx = 0
		return
	}
	c.idx = clamp(index, 0, len(c.list)-1)
	if choice, ok := c.chosen[c.list[c.idx].ID]; ok {
		c.selected = choice
		c.revealed = true
	} else {
		c.selected = noSelection
		c.revealed = false
	}
}

func (c *Controller) setExamIndexLocked(index int) {
	if c.examSession == nil || len(c.examSession.QuestionIDs) == 0 {
		c.idx = 0
		return
	}
	c.idx = clamp(index, 0, len(c.examSession.QuestionIDs)-1)
}

func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

// AnswerCurrent records the exam answer for the question under the pointer.
func (c *Controller) AnswerCurrent(option int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answerAtLocked(c.idx, option)
}

// AnswerAt records the exam answer for the question at the given position.
func (c *Controller) AnswerAt(index, option int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answerAtLocked(index, option)
}

func (c *Controller) answerAtLocked(index, option int) error {
	if c.mode != ModeExam || c.examSession == nil {
		return ErrWrongMode
	}
	ids := c.examSession.QuestionIDs
	if index < 0 || index >= len(ids) {
		return fmt.Errorf("question position %d out of range", index)
	}
	return c.examSession.Answer(ids[index], option)
}

// SubmitExam grades and terminates the active exam. Every drawn question
// gets an attempt record, answered or not; unanswered questions are recorded
// as incorrect with the no-answer sentinel, and test questions are recorded
// for progress even though they are excluded from scoring. A learner submit
// racing the expiring timer is safe: the loser sees ErrAlreadySubmitted.
func (c *Controller) SubmitExam(ctx context.Context) (exam.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeExam || c.examSession == nil {
		return exam.Result{}, ErrWrongMode
	}
	return c.submitExamLocked(ctx)
}

func (c *Controller) submitExamLocked(ctx context.Context) (exam.Result, error) {
	session := c.examSession

	result, err := session.Submit(c.cat)
	if err != nil {
		return exam.Result{}, err
	}
	c.stopClockLocked()
	c.remaining = 0

	batch := make([]progress.SubmittedAttempt, 0, len(session.QuestionIDs))
	for _, id := range session.QuestionIDs {
		attempt := progress.SubmittedAttempt{QuestionID: id, ChosenIndex: progress.NoAnswer}
		if choice, answered := session.Answers[id]; answered {
			attempt.ChosenIndex = choice
			if question, qerr := c.cat.Get(id); qerr == nil {
				attempt.IsCorrect = choice == question.CorrectAnswer
			}
		}
		batch = append(batch, attempt)
	}
	if err := c.store.RecordAttempts(ctx, batch); err != nil {
		c.log.Error("exam attempts not persisted", "session", session.ID, "error", err)
	}

	c.log.Info("exam submitted",
		"session", session.ID,
		"correct", result.ScoredCorrect,
		"scaled", result.ScaledScore,
		"passed", result.Passed)
	return result, nil
}

func (c *Controller) handleTick(session *exam.Session, remaining time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// A tick in flight during submission must not revive the clock.
	if c.examSession != session || session.Submitted {
		return
	}
	c.remaining = int(remaining / time.Second)
}

// handleExpiry runs on the timer goroutine. An expiry delivered after its
// exam was abandoned or submitted is ignored.
func (c *Controller) handleExpiry(session *exam.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.examSession != session || c.mode != ModeExam {
		c.log.Debug("stale exam expiry ignored")
		return
	}

	c.remaining = 0
	if _, err := c.submitExamLocked(context.Background()); err != nil {
		if !errors.Is(err, exam.ErrAlreadySubmitted) {
			c.log.Error("auto-submit failed", "session", session.ID, "error", err)
		}
		return
	}
	c.log.Info("exam time expired, submitted automatically", "session", session.ID)
}

// SetNote stores the note text for a question, write-through. An empty
// string is an explicit empty note.
func (c *Controller) SetNote(ctx context.Context, questionID int, text string) error {
	if _, err := c.cat.Get(questionID); err != nil {
		return err
	}
	return c.store.SetNote(ctx, questionID, text)
}

// Note returns the stored note for a question, or "" when there is none.
func (c *Controller) Note(questionID int) string {
	text, _ := c.store.Note(questionID)
	return text
}
