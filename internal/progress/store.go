package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"cippe-prep/internal/kvstore"
	"cippe-prep/internal/logging"
)

// The four persisted records. Each is an independent text blob; the attempt
// history under keyProgress is authoritative, the completed set and attempt
// total are derivable side records kept for cheap external reads.
const (
	keyProgress      = "progress"
	keyCompleted     = "completed"
	keyTotalAttempts = "total-attempts"
	keyNotes         = "notes"
)

// SubmittedAttempt is one answer observation to append to a question's
// history.
type SubmittedAttempt struct {
	QuestionID  int
	ChosenIndex int
	IsCorrect   bool
}

// Store owns all writes to persisted learner state. Mutations are
// write-through: the updated records are handed to the backing store before
// the call returns. A write failure keeps the mutation in memory and is
// repaired by the next successful write, since every write carries the full
// records.
type Store struct {
	kv  kvstore.Store
	log *logging.Logger

	mu   sync.RWMutex
	snap Snapshot
}

func NewStore(kv kvstore.Store, log *logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{
		kv:   kv,
		log:  log,
		snap: emptySnapshot(),
	}
}

// Load replaces the in-memory snapshot with the persisted one. Missing or
// unreadable records recover to empty defaults. The completed set and attempt
// total are recomputed from the attempt history, so the snapshot invariants
// hold no matter what the stored side records say.
func (s *Store) Load(ctx context.Context) error {
	snap := emptySnapshot()

	records, err := s.loadRecords(ctx)
	if err != nil {
		return err
	}
	snap.Records = records
	for id, record := range records {
		snap.Completed[id] = struct{}{}
		snap.TotalAttempts += len(record)
	}

	s.checkSideRecords(ctx, snap)

	notes, err := s.loadNotes(ctx)
	if err != nil {
		return err
	}
	snap.Notes = notes

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	return nil
}

func (s *Store) loadRecords(ctx context.Context) (map[int]AttemptRecord, error) {
	blob, ok, err := s.kv.Get(ctx, keyProgress)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", keyProgress, err)
	}
	if !ok || strings.TrimSpace(blob) == "" {
		return make(map[int]AttemptRecord), nil
	}

	records := make(map[int]AttemptRecord)
	if err := json.Unmarshal([]byte(blob), &records); err != nil {
		s.log.Warn("stored attempt history unreadable, starting empty",
			"key", keyProgress, "error", err)
		return make(map[int]AttemptRecord), nil
	}
	for id, record := range records {
		if len(record) == 0 {
			delete(records, id)
		}
	}
	return records, nil
}

func (s *Store) loadNotes(ctx context.Context) (map[int]string, error) {
	blob, ok, err := s.kv.Get(ctx, keyNotes)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", keyNotes, err)
	}
	if !ok || strings.TrimSpace(blob) == "" {
		return make(map[int]string), nil
	}

	notes := make(map[int]string)
	if err := json.Unmarshal([]byte(blob), &notes); err != nil {
		s.log.Warn("stored notes unreadable, starting empty",
			"key", keyNotes, "error", err)
		return make(map[int]string), nil
	}
	return notes, nil
}

// checkSideRecords reads the stored completed set and attempt total and logs
// when they disagree with what the attempt history derives. They are never
// trusted; the derived values always win.
func (s *Store) checkSideRecords(ctx context.Context, snap Snapshot) {
	blob, ok, err := s.kv.Get(ctx, keyCompleted)
	switch {
	case err != nil:
		s.log.Warn("stored completed set unreadable, using derived set",
			"key", keyCompleted, "error", err)
	case ok:
		stored, perr := parseCompleted(blob)
		if perr != nil {
			s.log.Warn("stored completed set unreadable, using derived set",
				"key", keyCompleted, "error", perr)
		} else if !equalIDSets(stored, snap.Completed) {
			s.log.Warn("stored completed set disagrees with attempt history, using derived set",
				"key", keyCompleted, "stored", len(stored), "derived", len(snap.Completed))
		}
	}

	blob, ok, err = s.kv.Get(ctx, keyTotalAttempts)
	switch {
	case err != nil:
		s.log.Warn("stored attempt total unreadable, using derived total",
			"key", keyTotalAttempts, "error", err)
	case ok:
		stored, perr := strconv.Atoi(strings.TrimSpace(blob))
		if perr != nil {
			s.log.Warn("stored attempt total unreadable, using derived total",
				"key", keyTotalAttempts, "error", perr)
		} else if stored != snap.TotalAttempts {
			s.log.Warn("stored attempt total disagrees with attempt history, using derived total",
				"key", keyTotalAttempts, "stored", stored, "derived", snap.TotalAttempts)
		}
	}
}

// parseCompleted accepts both integer and string id arrays; older exports
// stored ids as strings.
func parseCompleted(blob string) (map[int]struct{}, error) {
	var ids []int
	if err := json.Unmarshal([]byte(blob), &ids); err == nil {
		set := make(map[int]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		return set, nil
	}

	var raw []string
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, err
	}
	set := make(map[int]struct{}, len(raw))
	for _, entry := range raw {
		id, err := strconv.Atoi(strings.TrimSpace(entry))
		if err != nil {
			return nil, err
		}
		set[id] = struct{}{}
	}
	return set, nil
}

func equalIDSets(a, b map[int]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}

// RecordAttempt appends one attempt and persists the updated records before
// returning.
func (s *Store) RecordAttempt(ctx context.Context, questionID, chosenIndex int, isCorrect bool) error {
	return s.RecordAttempts(ctx, []SubmittedAttempt{{
		QuestionID:  questionID,
		ChosenIndex: chosenIndex,
		IsCorrect:   isCorrect,
	}})
}

// RecordAttempts appends a batch of attempts and persists once. Exam
// submission records all ninety questions through this in a single write.
func (s *Store) RecordAttempts(ctx context.Context, attempts []SubmittedAttempt) error {
	if len(attempts) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	at := time.Now().UTC()
	for _, attempt := range attempts {
		s.snap.Records[attempt.QuestionID] = append(s.snap.Records[attempt.QuestionID], Attempt{
			ChosenIndex: attempt.ChosenIndex,
			IsCorrect:   attempt.IsCorrect,
			Timestamp:   at,
		})
		s.snap.Completed[attempt.QuestionID] = struct{}{}
		s.snap.TotalAttempts++
	}

	return s.persistProgress(ctx)
}

// persistProgress writes the attempt history and both derived side records.
// Callers must hold s.mu.
func (s *Store) persistProgress(ctx context.Context) error {
	progressBlob, err := json.Marshal(s.snap.Records)
	if err != nil {
		return fmt.Errorf("encode attempt history: %w", err)
	}

	ids := make([]int, 0, len(s.snap.Completed))
	for id := range s.snap.Completed {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	completedBlob, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode completed set: %w", err)
	}

	if err := s.kv.Put(ctx, keyProgress, string(progressBlob)); err != nil {
		return fmt.Errorf("persist %s: %w", keyProgress, err)
	}
	if err := s.kv.Put(ctx, keyCompleted, string(completedBlob)); err != nil {
		return fmt.Errorf("persist %s: %w", keyCompleted, err)
	}
	if err := s.kv.Put(ctx, keyTotalAttempts, strconv.Itoa(s.snap.TotalAttempts)); err != nil {
		return fmt.Errorf("persist %s: %w", keyTotalAttempts, err)
	}
	return nil
}

// SetNote stores the note text for a question and persists immediately. An
// empty string is stored as an explicit empty note, not a deletion.
func (s *Store) SetNote(ctx context.Context, questionID int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Notes[questionID] = text

	blob, err := json.Marshal(s.snap.Notes)
	if err != nil {
		return fmt.Errorf("encode notes: %w", err)
	}
	if err := s.kv.Put(ctx, keyNotes, string(blob)); err != nil {
		return fmt.Errorf("persist %s: %w", keyNotes, err)
	}
	return nil
}

// Note returns the stored note for a question, if any.
func (s *Store) Note(questionID int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.snap.Notes[questionID]
	return text, ok
}

// Snapshot returns a copy of the current state. The maps are fresh; attempt
// slices are shared under the append-only record discipline.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := Snapshot{
		Records:       make(map[int]AttemptRecord, len(s.snap.Records)),
		Completed:     make(map[int]struct{}, len(s.snap.Completed)),
		TotalAttempts: s.snap.TotalAttempts,
		Notes:         make(map[int]string, len(s.snap.Notes)),
	}
	for id, record := range s.snap.Records {
		out.Records[id] = record
	}
	for id := range s.snap.Completed {
		out.Completed[id] = struct{}{}
	}
	for id, text := range s.snap.Notes {
		out.Notes[id] = text
	}
	return out
}
