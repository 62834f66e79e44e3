package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"quiz-engine/internal/config"
	"quiz-engine/internal/infra/postgres"
)

// NewHealthCmd runs the store's composite diagnostics probe.
func NewHealthCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the question store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runHealth(cmd.Context(), cfg)
		},
	}
}

func runHealth(ctx context.Context, cfg config.Config) error {
	store, err := newQuestionStore(cfg)
	if err != nil {
		return err
	}
	probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	defer store.Close(probeCtx)

	health := store.CheckHealth(probeCtx)
	fmt.Printf("status:        %s\n", health.Status)
	fmt.Printf("connection:    %v\n", health.ConnectionAvailable)
	fmt.Printf("questions:     %d\n", health.QuestionCount)
	fmt.Printf("retrievable:   %v\n", health.CanRetrieveQuestions)
	fmt.Printf("query latency: %s\n", health.QueryLatency)
	if health.LastError != "" {
		fmt.Printf("last error:    %s\n", health.LastError)
	}

	if !health.Healthy() {
		return fmt.Errorf("question store unhealthy: %s", health.Status)
	}
	return nil
}

func newQuestionStore(cfg config.Config) (*postgres.QuestionStore, error) {
	if cfg.Postgres.URL == "" {
		return nil, fmt.Errorf("postgres url not configured")
	}
	return postgres.New(postgres.Config{
		URL:         cfg.Postgres.URL,
		MaxAttempts: cfg.Postgres.ConnectAttempts,
		RetryDelay:  config.Duration(cfg.Postgres.RetryDelay, postgres.DefaultRetryDelay),
	})
}
