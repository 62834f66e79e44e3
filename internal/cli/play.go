package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-engine/internal/app"
	"quiz-engine/internal/config"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/infra/memory"
	redispool "quiz-engine/internal/infra/redis"
)

// NewPlayCmd builds the interactive terminal quiz.
func NewPlayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Run a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				if !os.IsNotExist(err) {
					return err
				}
				// No config means no database; the built-in
				// question set still lets the quiz run.
				log.Printf("config %s not found, using built-in questions", *configPath)
			}
			return runPlay(cmd.Context(), cfg)
		},
	}
}

func runPlay(ctx context.Context, cfg config.Config) error {
	engine, cleanup, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		if err := playOnce(ctx, engine, lines); err != nil {
			return err
		}
		fmt.Print("\nPlay again? [y/N] ")
		select {
		case line, ok := <-lines:
			if !ok || !strings.EqualFold(line, "y") {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// buildEngine assembles source -> optional cache -> engine from config.
func buildEngine(cfg config.Config) (*app.Engine, func(), error) {
	source, cleanup, err := newQuestionSource(cfg)
	if err != nil {
		return nil, nil, err
	}

	engine := app.NewEngine(source, app.NewSelector(), app.Config{
		QuestionsPerQuiz: cfg.Quiz.QuestionsPerSession,
		PoolSize:         cfg.Quiz.PoolSize,
		QuestionTime:     config.Duration(cfg.Quiz.QuestionTime, app.DefaultQuestionTime),
	})
	return engine, cleanup, nil
}

// newQuestionSource picks the question source from config: the built-in
// demo pool without a postgres URL, the database store with one. A
// configured pool TTL wraps the source in Redis-backed caching when
// Redis is reachable by address, in-process caching otherwise.
func newQuestionSource(cfg config.Config) (app.QuestionSource, func(), error) {
	cleanup := func() {}

	var source app.QuestionSource = memory.NewSource(demoPool())
	if cfg.Postgres.URL != "" {
		store, err := newQuestionStore(cfg)
		if err != nil {
			return nil, nil, err
		}
		source = store
		cleanup = func() { store.Close(context.Background()) }
	}

	if ttl := config.Duration(cfg.Quiz.PoolTTL, 0); ttl > 0 {
		if cfg.Redis.Addr != "" {
			client := goredis.NewClient(&goredis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			source = redispool.NewPoolCache(client, source, ttl)
			log.Printf("redis question pool cache enabled (ttl %s)", ttl)
		} else {
			source = memory.NewPoolCache(source, ttl)
			log.Printf("in-process question pool cache enabled (ttl %s)", ttl)
		}
	}

	return source, cleanup, nil
}

func playOnce(ctx context.Context, engine *app.Engine, lines chan string) error {
	session, err := engine.StartQuiz(ctx)
	if err != nil {
		// Leave the operator with an actionable message; nothing was
		// started on their behalf.
		fmt.Printf("Could not start the quiz: %v\n", err)
		return err
	}

	updates, cancel := session.Subscribe()
	defer cancel()

	shown := -1
	for {
		select {
		case p := <-updates:
			if p.State == app.StateCompleted {
				printResults(engine)
				return nil
			}
			if p.Index != shown {
				shown = p.Index
				printQuestion(engine, p)
			}
		case line, ok := <-lines:
			if !ok {
				return finishQuiz(engine)
			}
			handleInput(engine, line)
		case <-ctx.Done():
			_ = engine.ForceSubmitRemaining()
			return ctx.Err()
		}
	}
}

// finishQuiz force-submits what is left and prints the results. The
// session may already have completed on its own a moment earlier, so
// an invalid-state error here is not a failure.
func finishQuiz(engine *app.Engine) error {
	if err := engine.ForceSubmitRemaining(); err != nil && !errors.Is(err, domain.ErrInvalidState) {
		return err
	}
	printResults(engine)
	return nil
}

func handleInput(engine *app.Engine, line string) {
	switch {
	case strings.EqualFold(line, "s"):
		if err := engine.ForceSubmitRemaining(); err != nil {
			fmt.Printf("Cannot submit now: %v\n", err)
		}
	case line == "":
	default:
		choice, err := strconv.Atoi(line)
		if err != nil || choice < 1 || choice > domain.NumOptions {
			fmt.Printf("Enter 1-%d to answer, or s to submit the quiz.\n", domain.NumOptions)
			return
		}
		q, err := engine.CurrentQuestion()
		if err != nil {
			fmt.Println("Too late - that question is gone.")
			return
		}
		if err := engine.SubmitAnswer(q.Options[choice-1]); err != nil && !errors.Is(err, domain.ErrInvalidState) {
			fmt.Printf("Could not record the answer: %v\n", err)
		}
	}
}

func printQuestion(engine *app.Engine, p app.Progress) {
	q, err := engine.CurrentQuestion()
	if err != nil {
		return
	}
	fmt.Printf("\nQuestion %d of %d (score %d)\n", p.Index+1, p.Total, p.Score)
	fmt.Println(q.Text)
	for i, opt := range q.Options {
		fmt.Printf("  %d) %s\n", i+1, opt)
	}
	fmt.Print("> ")
}

func printResults(engine *app.Engine) {
	summary, err := engine.Summary()
	if err != nil {
		fmt.Printf("Could not summarize the quiz: %v\n", err)
		return
	}

	fmt.Println("\nQuiz complete!")
	fmt.Printf("Score:      %d/%d\n", summary.Correct, summary.Total)
	fmt.Printf("Correct:    %d\n", summary.Correct)
	fmt.Printf("Incorrect:  %d\n", summary.Incorrect)
	fmt.Printf("Unanswered: %d\n", summary.Unanswered)
	fmt.Printf("Accuracy:   %.1f%%\n", summary.Accuracy)
	fmt.Printf("High score: %d\n", summary.HighScore)

	history, err := engine.History()
	if err != nil {
		return
	}
	fmt.Println("\nReview:")
	for i, q := range history {
		verdict := "no answer"
		if q.Answered() {
			if q.IsCorrect() {
				verdict = "correct"
			} else {
				verdict = fmt.Sprintf("wrong (answered %q)", *q.UserAnswer)
			}
		}
		fmt.Printf("%2d. %s\n    answer: %s - %s\n", i+1, q.Text, q.CorrectAnswer, verdict)
	}
}

// demoPool is the fallback question set when no database is
// configured; swap in a seeded postgres store for real use.
func demoPool() []domain.Question {
	seeds := demoQuestions()
	questions := make([]domain.Question, len(seeds))
	for i, s := range seeds {
		questions[i] = domain.Question{
			ID:            int64(i + 1),
			Text:          s.Question,
			Options:       []string{s.Option1, s.Option2, s.Option3, s.Option4},
			CorrectAnswer: s.CorrectAnswer,
		}
	}
	return questions
}
