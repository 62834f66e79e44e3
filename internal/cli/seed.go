package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"quiz-engine/internal/config"
)

// seedQuestion is the bun row shape for inserting demo data.
type seedQuestion struct {
	bun.BaseModel `bun:"table:questions"`

	Question      string `bun:"question"`
	Option1       string `bun:"option1"`
	Option2       string `bun:"option2"`
	Option3       string `bun:"option3"`
	Option4       string `bun:"option4"`
	CorrectAnswer string `bun:"correct_answer"`
}

// NewSeedCmd loads a small demo question set into the store.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert a demo question set",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cfg)
		},
	}
}

func runSeed(ctx context.Context, cfg config.Config) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if err := runMigrations(ctx, cfg); err != nil {
		return err
	}

	db := openBunDB(cfg.Postgres.URL)
	defer db.Close()

	questions := demoQuestions()
	if _, err := db.NewInsert().Model(&questions).Exec(ctx); err != nil {
		return err
	}
	log.Printf("seeded %d questions", len(questions))
	return nil
}

func demoQuestions() []seedQuestion {
	return []seedQuestion{
		{Question: "What is 2 + 2?", Option1: "3", Option2: "4", Option3: "5", Option4: "22", CorrectAnswer: "4"},
		{Question: "Which planet is known as the Red Planet?", Option1: "Venus", Option2: "Jupiter", Option3: "Mars", Option4: "Saturn", CorrectAnswer: "Mars"},
		{Question: "What is the capital of France?", Option1: "Lyon", Option2: "Paris", Option3: "Marseille", Option4: "Nice", CorrectAnswer: "Paris"},
		{Question: "How many continents are there?", Option1: "5", Option2: "6", Option3: "7", Option4: "8", CorrectAnswer: "7"},
		{Question: "Which gas do plants primarily absorb?", Option1: "Oxygen", Option2: "Carbon dioxide", Option3: "Nitrogen", Option4: "Hydrogen", CorrectAnswer: "Carbon dioxide"},
		{Question: "What is the largest ocean on Earth?", Option1: "Atlantic", Option2: "Indian", Option3: "Arctic", Option4: "Pacific", CorrectAnswer: "Pacific"},
		{Question: "Who wrote Romeo and Juliet?", Option1: "Charles Dickens", Option2: "William Shakespeare", Option3: "Jane Austen", Option4: "Mark Twain", CorrectAnswer: "William Shakespeare"},
		{Question: "What is the chemical symbol for gold?", Option1: "Go", Option2: "Gd", Option3: "Au", Option4: "Ag", CorrectAnswer: "Au"},
		{Question: "How many sides does a hexagon have?", Option1: "5", Option2: "6", Option3: "7", Option4: "8", CorrectAnswer: "6"},
		{Question: "Which language has the most native speakers?", Option1: "English", Option2: "Hindi", Option3: "Spanish", Option4: "Mandarin Chinese", CorrectAnswer: "Mandarin Chinese"},
		{Question: "What is the boiling point of water at sea level?", Option1: "90°C", Option2: "100°C", Option3: "110°C", Option4: "120°C", CorrectAnswer: "100°C"},
		{Question: "Which instrument has 88 keys?", Option1: "Organ", Option2: "Accordion", Option3: "Piano", Option4: "Harpsichord", CorrectAnswer: "Piano"},
	}
}
