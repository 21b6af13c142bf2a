// Package session drives the learner's active study session: mode selection,
// the question pointer, answer state and every write into the progress store.
package session

import (
	"cippe-prep/internal/catalog"
	"cippe-prep/internal/progress"
)

// SelectPractice returns the practice list in catalog order with completed
// questions filtered out. Once everything has been attempted the full bank is
// returned again, so practice never dead-ends.
func SelectPractice(cat *catalog.Catalog, snap progress.Snapshot) []catalog.Question {
	all := cat.All()
	remaining := make([]catalog.Question, 0, len(all))
	for _, question := range all {
		if !snap.IsCompleted(question.ID) {
			remaining = append(remaining, question)
		}
	}
	if len(remaining) == 0 {
		remaining = append(remaining, all...)
	}
	return remaining
}

// SelectReview returns, in catalog order, the attempted questions the learner
// has never answered correctly. A single correct attempt removes a question
// from review for good.
func SelectReview(cat *catalog.Catalog, snap progress.Snapshot) []catalog.Question {
	review := make([]catalog.Question, 0)
	for _, question := range cat.All() {
		record, attempted := snap.Records[question.ID]
		if !attempted {
			continue
		}
		if !record.EverCorrect() {
			review = append(review, question)
		}
	}
	return review
}
