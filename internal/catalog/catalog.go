package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// OptionCount is fixed by the bank format: every question carries exactly
// four options.
const OptionCount = 4

var (
	// ErrInvalidData marks a malformed question bank. Load fails as a whole on
	// the first violation; a partially valid catalog is never returned.
	ErrInvalidData = errors.New("invalid question data")

	// ErrNotFound is returned when a question id is not present in the catalog.
	ErrNotFound = errors.New("question not found")
)

// Question is one multiple-choice item from the externally supplied bank.
// The JSON field names follow the dataset format produced by the question
// pipeline, so a bank file can be loaded as-is.
type Question struct {
	ID                 int      `json:"id" validate:"required,gt=0"`
	Scenario           string   `json:"scenario,omitempty"`
	Question           string   `json:"question" validate:"required"`
	Options            []string `json:"options" validate:"required,len=4,dive,required"`
	CorrectAnswer      int      `json:"correctAnswer" validate:"gte=0,lte=3"`
	Explanation        string   `json:"explanation"`
	OptionExplanations []string `json:"optionExplanations" validate:"omitempty,len=4"`
	LegalReference     string   `json:"legalReference"`
	Analysis           string   `json:"analysis,omitempty"`
}

// Catalog is an immutable, load-once view over the question bank. The slice
// order is the bank-supplied order and is the canonical ordering for
// sequential practice.
type Catalog struct {
	questions []Question
	byID      map[int]Question
}

// Load validates the raw question list and builds the catalog. Any violation
// of the question invariants (missing text, option count != 4, correct answer
// out of range, duplicate or non-positive id) fails with ErrInvalidData.
func Load(raw []Question) (*Catalog, error) {
	v := validator.New()

	questions := make([]Question, len(raw))
	byID := make(map[int]Question, len(raw))

	for i, q := range raw {
		if err := v.Struct(q); err != nil {
			return nil, fmt.Errorf("%w: question at position %d (id %d): %v", ErrInvalidData, i, q.ID, err)
		}
		if _, dup := byID[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate question id %d", ErrInvalidData, q.ID)
		}
		if q.OptionExplanations == nil {
			q.OptionExplanations = make([]string, OptionCount)
		}
		questions[i] = q
		byID[q.ID] = q
	}

	return &Catalog{questions: questions, byID: byID}, nil
}

// LoadFile reads a JSON array of questions from path and loads it.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}

	var raw []Question
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return Load(raw)
}

// Get returns the question with the given id.
func (c *Catalog) Get(id int) (Question, error) {
	q, ok := c.byID[id]
	if !ok {
		return Question{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return q, nil
}

// Has reports whether the catalog contains the given id.
func (c *Catalog) Has(id int) bool {
	_, ok := c.byID[id]
	return ok
}

// All returns the questions in bank order. The returned slice is shared
// internal state; callers treat it as read-only.
func (c *Catalog) All() []Question {
	return c.questions
}

// IDs returns the question ids in bank order as a fresh slice.
func (c *Catalog) IDs() []int {
	ids := make([]int, len(c.questions))
	for i, q := range c.questions {
		ids[i] = q.ID
	}
	return ids
}

func (c *Catalog) Len() int {
	return len(c.questions)
}
