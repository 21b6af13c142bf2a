package session

import (
	"cippe-prep/internal/catalog"
	"cippe-prep/internal/exam"
)

// Stats are the derived progress figures, computed on demand from the
// snapshot rather than cached.
type Stats struct {
	TotalQuestions    int     `json:"totalQuestions"`
	AttemptedCount    int     `json:"attemptedCount"`
	EverCorrectCount  int     `json:"everCorrectCount"`
	TotalAttempts     int     `json:"totalAttempts"`
	CompletionPercent float64 `json:"completionPercent"`
	AccuracyPercent   float64 `json:"accuracyPercent"`
}

// QuestionView is the displayable projection of a question. The answer key
// fields are withheld until the reveal.
type QuestionView struct {
	ID       int      `json:"id"`
	Scenario string   `json:"scenario,omitempty"`
	Question string   `json:"question"`
	Options  []string `json:"options"`

	CorrectAnswer      int      `json:"correctAnswer"`
	Explanation        string   `json:"explanation,omitempty"`
	OptionExplanations []string `json:"optionExplanations,omitempty"`
	LegalReference     string   `json:"legalReference,omitempty"`
	Analysis           string   `json:"analysis,omitempty"`
}

// GridCell is one position of the exam navigation grid.
type GridCell struct {
	Index      int  `json:"index"`
	QuestionID int  `json:"questionId"`
	Answered   bool `json:"answered"`
	Chosen     int  `json:"chosen"`
	Test       bool `json:"test"`
}

type ExamView struct {
	SessionID        string       `json:"sessionId"`
	RemainingSeconds int          `json:"remainingSeconds"`
	AnsweredCount    int          `json:"answeredCount"`
	Submitted        bool         `json:"submitted"`
	Result           *exam.Result `json:"result,omitempty"`
	Grid             []GridCell   `json:"grid"`
}

// View is the full read-only projection of the controller for a rendering
// surface. SelectedAnswer and CorrectAnswer use -1 for "none".
type View struct {
	Mode            Mode          `json:"mode"`
	CanStartExam    bool          `json:"canStartExam"`
	Index           int           `json:"index"`
	Count           int           `json:"count"`
	Question        *QuestionView `json:"question,omitempty"`
	SelectedAnswer  int           `json:"selectedAnswer"`
	AnswerRevealed  bool          `json:"answerRevealed"`
	Note            string        `json:"note,omitempty"`
	NothingToReview bool          `json:"nothingToReview,omitempty"`
	Exam            *ExamView     `json:"exam,omitempty"`
	Stats           Stats         `json:"stats"`
}

// View assembles the projection for the current state: everything a screen
// needs to render, nothing it can mutate through.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.store.Snapshot()
	view := View{
		Mode:           c.mode,
		CanStartExam:   c.cat.Len() >= c.spec.QuestionCount,
		SelectedAnswer: c.selected,
		AnswerRevealed: c.revealed,
		Stats: Stats{
			TotalQuestions:    c.cat.Len(),
			AttemptedCount:    snap.AttemptedCount(),
			EverCorrectCount:  snap.EverCorrectCount(),
			TotalAttempts:     snap.TotalAttempts,
			CompletionPercent: snap.CompletionPercent(c.cat.Len()),
			AccuracyPercent:   snap.AccuracyPercent(),
		},
	}

	switch c.mode {
	case ModePractice, ModeReview:
		view.Count = len(c.list)
		view.Index = c.idx
		if c.mode == ModeReview && len(c.list) == 0 {
			view.NothingToReview = true
		}
		if len(c.list) > 0 {
			question := c.list[c.idx]
			view.Question = projectQuestion(question, c.revealed)
			view.Note, _ = c.store.Note(question.ID)
		}

	case ModeExam:
		session := c.examSession
		if session == nil {
			break
		}
		view.Count = len(session.QuestionIDs)
		view.Index = c.idx

		currentID := session.QuestionIDs[c.idx]
		if question, err := c.cat.Get(currentID); err == nil {
			view.Question = projectQuestion(question, false)
		}
		if choice, ok := session.Answers[currentID]; ok {
			view.SelectedAnswer = choice
		} else {
			view.SelectedAnswer = noSelection
		}

		grid := make([]GridCell, len(session.QuestionIDs))
		answered := 0
		for i, id := range session.QuestionIDs {
			cell := GridCell{
				Index:      i,
				QuestionID: id,
				Chosen:     noSelection,
				Test:       session.IsTest(id),
			}
			if choice, ok := session.Answers[id]; ok {
				cell.Answered = true
				cell.Chosen = choice
				answered++
			}
			grid[i] = cell
		}
		view.Exam = &ExamView{
			SessionID:        session.ID,
			RemainingSeconds: c.remaining,
			AnsweredCount:    answered,
			Submitted:        session.Submitted,
			Result:           session.Result,
			Grid:             grid,
		}
	}

	return view
}

// projectQuestion withholds the answer key until the reveal. Exam questions
// are never revealed in place; the result screen carries the outcome instead.
func projectQuestion(q catalog.Question, revealed bool) *QuestionView {
	view := &QuestionView{
		ID:            q.ID,
		Scenario:      q.Scenario,
		Question:      q.Question,
		Options:       q.Options,
		CorrectAnswer: noSelection,
	}
	if revealed {
		view.CorrectAnswer = q.CorrectAnswer
		view.Explanation = q.Explanation
		view.OptionExplanations = q.OptionExplanations
		view.LegalReference = q.LegalReference
		view.Analysis = q.Analysis
	}
	return view
}
