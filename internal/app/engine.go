package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"quiz-engine/internal/domain"
)

// QuestionSource fetches up to limit validated questions from a
// backing store (postgres, cache, in-memory).
type QuestionSource interface {
	FetchQuestions(ctx context.Context, limit int) ([]domain.Question, error)
}

// HealthChecker is implemented by sources that can probe their backing
// store.
type HealthChecker interface {
	CheckHealth(ctx context.Context) domain.Health
}

// Default quiz sizing, matching the store's stock of twenty fetched
// questions narrowed to ten per session.
const (
	DefaultQuestionsPerQuiz = 10
	DefaultPoolSize         = 20
)

// Config sizes and times a quiz.
type Config struct {
	QuestionsPerQuiz int
	PoolSize         int
	QuestionTime     time.Duration
}

func (c Config) withDefaults() Config {
	if c.QuestionsPerQuiz <= 0 {
		c.QuestionsPerQuiz = DefaultQuestionsPerQuiz
	}
	if c.PoolSize < c.QuestionsPerQuiz {
		c.PoolSize = DefaultPoolSize
	}
	if c.PoolSize < c.QuestionsPerQuiz {
		c.PoolSize = c.QuestionsPerQuiz
	}
	if c.QuestionTime == 0 {
		c.QuestionTime = DefaultQuestionTime
	}
	return c
}

// Engine owns the single active session and wires the store, selector,
// and summarizer together behind the contract the presentation layer
// drives.
type Engine struct {
	source   QuestionSource
	selector *Selector
	cfg      Config
	high     HighScore

	mu      sync.Mutex
	session *Session
}

func NewEngine(source QuestionSource, selector *Selector, cfg Config) *Engine {
	return &Engine{
		source:   source,
		selector: selector,
		cfg:      cfg.withDefaults(),
	}
}

// StartQuiz fetches a fresh pool, assembles a randomized session, and
// starts it. On any error the previous session (and its state) is left
// untouched. A live previous session is force-completed so its clock
// cannot fire into the new one.
func (e *Engine) StartQuiz(ctx context.Context) (*Session, error) {
	pool, err := e.source.FetchQuestions(ctx, e.cfg.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("start quiz: %w", err)
	}

	questions := e.selector.SelectRandom(pool, e.cfg.QuestionsPerQuiz)
	for i := range questions {
		if err := e.selector.ShuffleOptions(&questions[i]); err != nil {
			return nil, fmt.Errorf("start quiz: %w", err)
		}
	}

	session := NewSession(questions, e.cfg.QuestionTime)
	if err := session.Start(); err != nil {
		return nil, fmt.Errorf("start quiz: %w", err)
	}

	e.mu.Lock()
	prev := e.session
	e.session = session
	e.mu.Unlock()
	if prev != nil {
		prev.abandon()
	}

	log.Printf("quiz %s started with %d questions", session.ID, len(questions))
	return session, nil
}

// SubmitAnswer records the answer for the active session's current
// question.
func (e *Engine) SubmitAnswer(answer string) error {
	session, err := e.activeSession()
	if err != nil {
		return err
	}
	return session.SubmitAnswer(answer)
}

// ForceSubmitRemaining completes the active session, marking anything
// left as unanswered.
func (e *Engine) ForceSubmitRemaining() error {
	session, err := e.activeSession()
	if err != nil {
		return err
	}
	return session.ForceSubmitRemaining()
}

// CurrentQuestion returns the question awaiting an answer.
func (e *Engine) CurrentQuestion() (domain.Question, error) {
	session, err := e.activeSession()
	if err != nil {
		return domain.Question{}, err
	}
	return session.CurrentQuestion()
}

// Progress reports the active session's position.
func (e *Engine) Progress() (Progress, error) {
	session, err := e.activeSession()
	if err != nil {
		return Progress{}, err
	}
	return session.Progress(), nil
}

// History returns the active session's answer log for the review view.
func (e *Engine) History() ([]domain.Question, error) {
	session, err := e.activeSession()
	if err != nil {
		return nil, err
	}
	return session.History(), nil
}

// Summary derives the result statistics of a completed session and
// folds its score into the process-wide high score.
func (e *Engine) Summary() (Summary, error) {
	session, err := e.activeSession()
	if err != nil {
		return Summary{}, err
	}
	if session.State() != StateCompleted {
		return Summary{}, fmt.Errorf("summary of %s session: %w", session.State(), domain.ErrInvalidState)
	}
	summary := Summarize(session.History())
	summary.HighScore = e.high.Observe(summary.Correct)
	return summary, nil
}

// HighScore returns the best score seen by this process so far.
func (e *Engine) HighScore() int {
	return e.high.Best()
}

// CheckHealth surfaces the store's composite probe for diagnostics
// tooling. Sources without a probe report healthy by construction.
func (e *Engine) CheckHealth(ctx context.Context) domain.Health {
	if checker, ok := e.source.(HealthChecker); ok {
		return checker.CheckHealth(ctx)
	}
	return domain.Health{
		ConnectionAvailable:  true,
		CanRetrieveQuestions: true,
		Status:               domain.HealthStatusHealthy,
	}
}

func (e *Engine) activeSession() (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, fmt.Errorf("no active quiz: %w", domain.ErrInvalidState)
	}
	return e.session, nil
}
