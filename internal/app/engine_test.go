package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"quiz-engine/internal/domain"
)

type fakeSource struct {
	questions []domain.Question
	err       error
	calls     int
}

func (f *fakeSource) FetchQuestions(_ context.Context, limit int) ([]domain.Question, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.questions) {
		return f.questions[:limit], nil
	}
	return f.questions, nil
}

func newTestEngine(n int) (*Engine, *fakeSource) {
	source := &fakeSource{questions: testQuestions(n)}
	engine := NewEngine(source, testSelector(), Config{
		QuestionsPerQuiz: 5,
		PoolSize:         n,
		QuestionTime:     -1, // no countdown in unit tests
	})
	return engine, source
}

func TestEngineRunsFullQuiz(t *testing.T) {
	engine, _ := newTestEngine(12)
	ctx := context.Background()

	session, err := engine.StartQuiz(ctx)
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	if session.State() != StateInProgress {
		t.Fatalf("expected in-progress session, got %s", session.State())
	}

	for i := 0; i < 4; i++ {
		q, err := engine.CurrentQuestion()
		if err != nil {
			t.Fatalf("current question: %v", err)
		}
		if err := engine.SubmitAnswer(q.CorrectAnswer); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if err := engine.ForceSubmitRemaining(); err != nil {
		t.Fatalf("force submit: %v", err)
	}

	summary, err := engine.Summary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Total != 5 || summary.Correct != 4 || summary.Unanswered != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.HighScore != 4 {
		t.Fatalf("expected high score 4, got %d", summary.HighScore)
	}

	history, err := engine.History()
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 5 {
		t.Fatalf("expected 5 history entries, got %d", len(history))
	}
}

func TestEngineStartFailureLeavesPriorSession(t *testing.T) {
	engine, source := newTestEngine(12)
	ctx := context.Background()

	first, err := engine.StartQuiz(ctx)
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}

	source.err = fmt.Errorf("boom: %w", domain.ErrConnectionExhausted)
	if _, err := engine.StartQuiz(ctx); !errors.Is(err, domain.ErrConnectionExhausted) {
		t.Fatalf("expected store error, got %v", err)
	}

	// Prior session must still be the active, mutable one.
	if first.State() != StateInProgress {
		t.Fatalf("prior session disturbed: %s", first.State())
	}
	if err := engine.SubmitAnswer("whatever"); err != nil {
		t.Fatalf("prior session not active: %v", err)
	}
}

func TestEngineReplacesLiveSession(t *testing.T) {
	engine, _ := newTestEngine(12)
	ctx := context.Background()

	first, err := engine.StartQuiz(ctx)
	if err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	second, err := engine.StartQuiz(ctx)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("expected a fresh session")
	}
	if first.State() != StateCompleted {
		t.Fatalf("replaced session should be finalized, got %s", first.State())
	}
	if second.State() != StateInProgress {
		t.Fatalf("new session should be in progress, got %s", second.State())
	}
}

func TestEngineWithoutSession(t *testing.T) {
	engine, _ := newTestEngine(12)
	if err := engine.SubmitAnswer("x"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if _, err := engine.Summary(); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestEngineSummaryRequiresCompletion(t *testing.T) {
	engine, _ := newTestEngine(12)
	if _, err := engine.StartQuiz(context.Background()); err != nil {
		t.Fatalf("start quiz: %v", err)
	}
	if _, err := engine.Summary(); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for running session, got %v", err)
	}
}

func TestEngineHealthWithoutChecker(t *testing.T) {
	engine, _ := newTestEngine(12)
	health := engine.CheckHealth(context.Background())
	if !health.Healthy() {
		t.Fatalf("probe-less source should report healthy, got %+v", health)
	}
}
