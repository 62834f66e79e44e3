package app

import (
	"sync"

	"quiz-engine/internal/domain"
)

// Summary holds the derived statistics of a completed session.
// Accuracy is a percentage over answered questions only; a session
// with nothing answered reports 0.
type Summary struct {
	Total      int     `json:"total"`
	Answered   int     `json:"answered"`
	Correct    int     `json:"correct"`
	Incorrect  int     `json:"incorrect"`
	Unanswered int     `json:"unanswered"`
	Accuracy   float64 `json:"accuracy"`
	HighScore  int     `json:"highScore"`
}

// Summarize derives the result statistics from a completed session's
// history. Entries carrying the no-answer marker count as unanswered.
func Summarize(history []domain.Question) Summary {
	s := Summary{Total: len(history)}
	for _, q := range history {
		if !q.Answered() {
			continue
		}
		s.Answered++
		if q.IsCorrect() {
			s.Correct++
		}
	}
	s.Incorrect = s.Answered - s.Correct
	s.Unanswered = s.Total - s.Answered
	if s.Answered > 0 {
		s.Accuracy = float64(s.Correct) * 100 / float64(s.Answered)
	}
	return s
}

// UpdateHighScore folds a session score into a prior best.
func UpdateHighScore(prior, score int) int {
	if score > prior {
		return score
	}
	return prior
}

// HighScore tracks the best session score seen by this process. It is
// the only state that outlives a session.
type HighScore struct {
	mu   sync.Mutex
	best int
}

// Observe records a finished session's score and returns the best so far.
func (h *HighScore) Observe(score int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.best = UpdateHighScore(h.best, score)
	return h.best
}

// Best returns the current best score.
func (h *HighScore) Best() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.best
}
