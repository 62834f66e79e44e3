package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"quiz-engine/internal/domain"
)

// Connection retry bounds, applied when the config leaves them unset.
const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = time.Second
)

// Postgres SQLSTATE codes the store treats as schema mismatches rather
// than generic failures.
const (
	codeUndefinedTable  = "42P01"
	codeUndefinedColumn = "42703"
)

const fetchQuery = `SELECT id, question, option1, option2, option3, option4, correct_answer
FROM questions ORDER BY random() LIMIT $1`

// Config describes the store connection.
type Config struct {
	URL         string
	MaxAttempts int
	RetryDelay  time.Duration
}

// conn is the slice of *pgx.Conn the store uses; narrowed so tests can
// dial fakes.
type conn interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Close(ctx context.Context) error
	IsClosed() bool
}

type dialFunc func(ctx context.Context, cfg *pgx.ConnConfig) (conn, error)

func pgxDial(ctx context.Context, cfg *pgx.ConnConfig) (conn, error) {
	c, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// QuestionStore is a resilient gateway to the questions table. It owns
// a single shared connection guarded by a coarse mutex; connect
// failures are retried up to a fixed bound with a cancellable delay
// between attempts.
type QuestionStore struct {
	connCfg     *pgx.ConnConfig
	maxAttempts int
	retryDelay  time.Duration
	dial        dialFunc

	mu   sync.Mutex
	conn conn
}

// New parses the connection config eagerly: a malformed URL is a
// fatal, non-retryable configuration error.
func New(cfg Config) (*QuestionStore, error) {
	connCfg, err := pgx.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: postgres url: %v", domain.ErrInvalidArgument, err)
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	return &QuestionStore{
		connCfg:     connCfg,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		dial:        pgxDial,
	}, nil
}

// connectLocked establishes or reuses the shared connection. The
// caller holds s.mu.
func (s *QuestionStore) connectLocked(ctx context.Context) error {
	if s.conn != nil && !s.conn.IsClosed() {
		return nil
	}
	s.conn = nil

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		c, err := s.dial(ctx, s.connCfg)
		if err == nil {
			s.conn = c
			log.Printf("question store connected on attempt %d", attempt)
			return nil
		}
		lastErr = err
		log.Printf("question store connection attempt %d/%d failed: %v", attempt, s.maxAttempts, err)

		if attempt == s.maxAttempts {
			break
		}
		select {
		case <-time.After(s.retryDelay):
		case <-ctx.Done():
			return fmt.Errorf("connection retry aborted: %w", ctx.Err())
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", domain.ErrConnectionExhausted, s.maxAttempts, lastErr)
}

// FetchQuestions returns up to limit validated questions in randomized
// store order. Records with an empty prompt or correct answer are
// skipped and logged; empty options are normalized to "". A batch with
// zero usable records is ErrNoQuestions.
func (s *QuestionStore) FetchQuestions(ctx context.Context, limit int) ([]domain.Question, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: question limit must be positive, got %d", domain.ErrInvalidArgument, limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.connectLocked(ctx); err != nil {
		return nil, err
	}

	rows, err := s.conn.Query(ctx, fetchQuery, limit)
	if err != nil {
		return nil, classifyStoreError("fetch questions", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0, limit)
	for rows.Next() {
		var (
			id             int64
			text, correct  *string
			o1, o2, o3, o4 *string
		)
		if err := rows.Scan(&id, &text, &o1, &o2, &o3, &o4, &correct); err != nil {
			return nil, classifyStoreError("scan question row", err)
		}
		q, err := buildQuestion(id, text, [domain.NumOptions]*string{o1, o2, o3, o4}, correct)
		if err != nil {
			log.Printf("skipping question %d: %v", id, err)
			continue
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreError("read question rows", err)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("%w in the store", domain.ErrNoQuestions)
	}
	log.Printf("fetched %d usable questions (limit %d)", len(questions), limit)
	return questions, nil
}

// buildQuestion validates one raw record. Prompt and correct answer
// must be non-empty after trimming; options are normalized
// independently and never fail the record.
func buildQuestion(id int64, text *string, options [domain.NumOptions]*string, correct *string) (domain.Question, error) {
	if text == nil || strings.TrimSpace(*text) == "" {
		return domain.Question{}, errors.New("question text is null or empty")
	}
	if correct == nil || strings.TrimSpace(*correct) == "" {
		return domain.Question{}, errors.New("correct answer is null or empty")
	}

	opts := make([]string, domain.NumOptions)
	for i, opt := range options {
		if opt == nil || strings.TrimSpace(*opt) == "" {
			opts[i] = ""
			continue
		}
		opts[i] = *opt
	}

	return domain.Question{
		ID:            id,
		Text:          strings.TrimSpace(*text),
		Options:       opts,
		CorrectAnswer: strings.TrimSpace(*correct),
	}, nil
}

// TestConnection is a boolean liveness probe; it never returns an error.
func (s *QuestionStore) TestConnection(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.connectLocked(ctx); err != nil {
		log.Printf("connection test failed: %v", err)
		return false
	}
	var one int
	if err := s.conn.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		log.Printf("connection test query failed: %v", err)
		return false
	}
	return one == 1
}

// QuestionCount returns the total number of rows in the questions
// table, for diagnostics.
func (s *QuestionStore) QuestionCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.connectLocked(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.conn.QueryRow(ctx, "SELECT COUNT(*) FROM questions").Scan(&count); err != nil {
		return 0, classifyStoreError("count questions", err)
	}
	return count, nil
}

// Close releases the shared connection. Safe to call repeatedly or
// when never connected.
func (s *QuestionStore) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return
	}
	if err := s.conn.Close(ctx); err != nil {
		log.Printf("closing question store: %v", err)
	}
	s.conn = nil
}

// CheckHealth runs the composite diagnostics probe. All failures are
// captured into the returned report; it never panics or errors.
func (s *QuestionStore) CheckHealth(ctx context.Context) domain.Health {
	health := domain.Health{Status: domain.HealthStatusError}

	health.ConnectionAvailable = s.TestConnection(ctx)
	if !health.ConnectionAvailable {
		health.Status = domain.HealthStatusConnectionFailed
		return health
	}

	count, err := s.QuestionCount(ctx)
	if err != nil {
		health.LastError = err.Error()
		return health
	}
	health.QuestionCount = count

	start := time.Now()
	_, err = s.FetchQuestions(ctx, 1)
	health.QueryLatency = time.Since(start)
	if err != nil {
		health.LastError = err.Error()
		return health
	}
	health.CanRetrieveQuestions = true
	health.Status = domain.HealthStatusHealthy
	return health
}

// classifyStoreError upgrades schema-shaped postgres failures to
// ErrSchemaMismatch so callers can give an actionable message.
func classifyStoreError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUndefinedTable:
			return fmt.Errorf("%s: questions table not found: %w", op, domain.ErrSchemaMismatch)
		case codeUndefinedColumn:
			return fmt.Errorf("%s: unexpected table structure: %w", op, domain.ErrSchemaMismatch)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
