package app

import (
	"fmt"
	"math/rand"
	"time"

	"quiz-engine/internal/domain"
)

// Selector derives a session's question set and option ordering from a
// raw pool.
type Selector struct {
	rnd *rand.Rand
}

func NewSelector() *Selector {
	return NewSelectorWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewSelectorWithRand allows deterministic selection in tests.
func NewSelectorWithRand(rnd *rand.Rand) *Selector {
	return &Selector{rnd: rnd}
}

// SelectRandom returns a uniformly shuffled copy of min(count, len(pool))
// distinct questions. The pool itself is never mutated.
func (s *Selector) SelectRandom(pool []domain.Question, count int) []domain.Question {
	selected := make([]domain.Question, len(pool))
	copy(selected, pool)
	s.rnd.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	if count > len(selected) {
		count = len(selected)
	}
	if count < 0 {
		count = 0
	}
	return selected[:count]
}

// ShuffleOptions replaces the question's options with a fresh random
// permutation and re-derives CorrectAnswer so it still names the same
// option text. The original options slice is left untouched, so pool
// entries sharing it are unaffected.
func (s *Selector) ShuffleOptions(q *domain.Question) error {
	found := false
	for _, opt := range q.Options {
		if opt == q.CorrectAnswer {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("question %d: %w", q.ID, domain.ErrCorruptQuestion)
	}

	shuffled := make([]string, len(q.Options))
	copy(shuffled, q.Options)
	s.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	q.Options = shuffled

	for _, opt := range q.Options {
		if opt == q.CorrectAnswer {
			q.CorrectAnswer = opt
			break
		}
	}
	return nil
}
