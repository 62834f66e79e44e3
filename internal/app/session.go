package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-engine/internal/domain"
)

// State is a quiz session lifecycle state.
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// Progress is a snapshot of a session's position, pushed to
// subscribers after every transition.
type Progress struct {
	Index int   `json:"index"`
	Total int   `json:"total"`
	Score int   `json:"score"`
	State State `json:"state"`
}

// Session is the state machine for one run through a fixed question
// set. All mutations are serialized by an internal mutex; a timeout
// firing concurrently with a submission resolves to exactly one
// recorded answer per question.
type Session struct {
	ID string

	mu          sync.RWMutex
	state       State
	questions   []domain.Question
	current     int
	score       int
	history     []domain.Question
	clock       *Clock
	epoch       uint64
	subscribers map[chan Progress]struct{}
}

// NewSession builds a session over the given questions with a
// perQuestion countdown. A non-positive duration disables the clock.
func NewSession(questions []domain.Question, perQuestion time.Duration) *Session {
	return &Session{
		ID:          uuid.NewString(),
		state:       StateNotStarted,
		questions:   questions,
		clock:       NewClock(perQuestion),
		subscribers: make(map[chan Progress]struct{}),
	}
}

// Start moves the session to in-progress and arms the first countdown.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateNotStarted {
		return fmt.Errorf("start from %s: %w", s.state, domain.ErrInvalidState)
	}
	if len(s.questions) == 0 {
		return fmt.Errorf("%w: session needs at least one question", domain.ErrInvalidArgument)
	}
	s.state = StateInProgress
	s.current = 0
	s.score = 0
	s.history = nil
	s.armClockLocked()
	s.broadcastLocked()
	return nil
}

// SubmitAnswer records the answer for the current question, scores it,
// and advances. Valid only while in progress; a submission that lost
// the race against completion gets ErrInvalidState.
func (s *Session) SubmitAnswer(answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return fmt.Errorf("submit in %s: %w", s.state, domain.ErrInvalidState)
	}
	s.recordLocked(&answer)
	return nil
}

// OnTimeout records the no-answer marker for the current question and
// advances, exactly as SubmitAnswer does for a real answer. It is the
// public equivalent of the countdown expiring.
func (s *Session) OnTimeout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return fmt.Errorf("timeout in %s: %w", s.state, domain.ErrInvalidState)
	}
	s.recordLocked(nil)
	return nil
}

// clockExpired is the internal countdown callback. The epoch check
// drops firings that raced a submission and arrived after the session
// already moved on.
func (s *Session) clockExpired(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress || epoch != s.epoch {
		return
	}
	s.recordLocked(nil)
}

// ForceSubmitRemaining marks every question from the current position
// onward as unanswered and completes the session in one step.
func (s *Session) ForceSubmitRemaining() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return fmt.Errorf("force submit in %s: %w", s.state, domain.ErrInvalidState)
	}
	s.clock.Stop()
	s.epoch++
	for s.current < len(s.questions) {
		q := s.questions[s.current]
		q.UserAnswer = nil
		s.history = append(s.history, q)
		s.current++
	}
	s.state = StateCompleted
	s.broadcastLocked()
	return nil
}

func (s *Session) recordLocked(answer *string) {
	q := &s.questions[s.current]
	q.UserAnswer = answer
	s.history = append(s.history, *q)
	if q.IsCorrect() {
		s.score++
	}
	s.current++
	if s.current == len(s.questions) {
		s.state = StateCompleted
		s.clock.Stop()
		s.epoch++
	} else {
		s.armClockLocked()
	}
	s.broadcastLocked()
}

func (s *Session) armClockLocked() {
	s.epoch++
	epoch := s.epoch
	s.clock.Start(func() { s.clockExpired(epoch) })
}

// abandon stops the countdown and freezes the session; used when a new
// session replaces this one.
func (s *Session) abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock.Stop()
	s.epoch++
	if s.state == StateInProgress {
		s.state = StateCompleted
		for s.current < len(s.questions) {
			q := s.questions[s.current]
			q.UserAnswer = nil
			s.history = append(s.history, q)
			s.current++
		}
		s.broadcastLocked()
	}
}

// CurrentQuestion returns a copy of the question awaiting an answer.
func (s *Session) CurrentQuestion() (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateInProgress {
		return domain.Question{}, fmt.Errorf("no current question in %s: %w", s.state, domain.ErrInvalidState)
	}
	return s.questions[s.current], nil
}

// Progress reports the session position for display.
func (s *Session) Progress() Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progressLocked()
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// History returns a copy of the answered-question log, one entry per
// question that left the current position.
func (s *Session) History() []domain.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := make([]domain.Question, len(s.history))
	copy(history, s.history)
	return history
}

// Subscribe returns a channel receiving a progress snapshot after
// every transition, starting with the current one. The caller must
// invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan Progress, func()) {
	ch := make(chan Progress, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	// Sent under the lock so no broadcast can slip in ahead of the
	// initial snapshot; the fresh buffered channel cannot block.
	ch <- s.progressLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) progressLocked() Progress {
	return Progress{
		Index: s.current,
		Total: len(s.questions),
		Score: s.score,
		State: s.state,
	}
}

func (s *Session) broadcastLocked() {
	p := s.progressLocked()
	for ch := range s.subscribers {
		select {
		case ch <- p:
		default:
			// Drop the oldest snapshot so a slow reader never blocks a
			// transition; only the latest position matters.
			select {
			case <-ch:
			default:
			}
			ch <- p
		}
	}
}
