package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"flashcard-scheduler/internal/application/usecases"
	"flashcard-scheduler/internal/config"
	"flashcard-scheduler/internal/domain/fact"
	"flashcard-scheduler/internal/domain/learner"
	"flashcard-scheduler/internal/domain/learning"
	"flashcard-scheduler/internal/infrastructure/persistence"
)

// app holds the state shared by the commands of one invocation
type app struct {
	dbPath      string
	learnerName string

	cfg          *config.Config
	db           *sql.DB
	factRepo     fact.Repository
	learnerRepo  learner.Repository
	learningRepo learning.Repository
	learners     *usecases.LearnerUseCase
	practice     *usecases.PracticeUseCase
}

// NewRootCmd creates the scheduler root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Spaced repetition scheduler",
		Long: `Schedule flashcard reviews with the SM-2 algorithm.

Import a deck, enroll a learner and review what is due:
  scheduler learner add ann
  scheduler import animals.json
  scheduler enroll -l ann
  scheduler review -l ann`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	cmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (default $SCHEDULER_DB_PATH or scheduler.db)")
	cmd.PersistentFlags().StringVarP(&a.learnerName, "learner", "l", "", "Learner name")

	cmd.AddCommand(
		newLearnerCmd(a),
		newImportCmd(a),
		newEnrollCmd(a),
		newDueCmd(a),
		newReviewCmd(a),
		newAnswerCmd(a),
		newShowCmd(a),
		newHistoryCmd(a),
		newStatsCmd(a),
		newRemindCmd(a),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) open() error {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	dbPath := a.dbPath
	if dbPath == "" {
		dbPath = cfg.DBPath
	}

	db, err := persistence.NewSQLiteDB(dbPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	a.db = db

	a.factRepo = persistence.NewFactRepository(db)
	a.learnerRepo = persistence.NewLearnerRepository(db)
	a.learningRepo = persistence.NewLearningRepository(db)
	a.learners = usecases.NewLearnerUseCase(a.learnerRepo)
	a.practice = usecases.NewPracticeUseCase(a.learningRepo, a.factRepo, a.learnerRepo)

	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// currentLearner resolves the --learner flag
func (a *app) currentLearner(ctx context.Context) (*learner.Learner, error) {
	if a.learnerName == "" {
		return nil, fmt.Errorf("--learner is required")
	}
	return a.learners.GetLearner(ctx, a.learnerName)
}
