package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"flashcard-scheduler/internal/application/usecases"
	"flashcard-scheduler/internal/domain/fact"
	"flashcard-scheduler/internal/domain/learning"
)

func newEnrollCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "enroll [fact-id]",
		Short: "Schedule new facts for a learner",
		Long: `Schedule new facts for a learner. With a fact id, that fact is enrolled;
otherwise up to --limit facts the learner has not seen yet.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, err := a.currentLearner(ctx)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				item, err := a.practice.Enroll(ctx, l.ID(), fact.ID(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Item %s due %s\n", item.ID, item.Schedule.NextReviewAt.Local().Format(time.DateTime))
				return nil
			}

			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.SessionSize
			}
			n, err := a.practice.EnrollNew(ctx, l.ID(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Enrolled %d new facts for %s\n", n, l.Name())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum facts to enroll (default $SESSION_SIZE, 0 for all)")

	return cmd
}

func newDueCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List cards due for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, err := a.currentLearner(ctx)
			if err != nil {
				return err
			}

			cards, err := a.practice.ReviewQueue(ctx, l.ID(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(cards) == 0 {
				fmt.Fprintln(out, "No cards due.")
				return nil
			}

			fmt.Fprintf(out, "%d cards due:\n\n", len(cards))
			now := time.Now()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ITEM\tPROMPT\tPHASE\tOVERDUE\tEASE")
			for _, c := range cards {
				fmt.Fprintf(w, "%s\t%s\t%s\t%dd\t%.2f\n",
					c.Item.ID, c.Fact.Prompt(), learning.PhaseOf(c.Item),
					-learning.DaysUntilReview(c.Item, now), c.Item.Algorithm.EasinessFactor)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum cards to list (0 for all)")

	return cmd
}

func newReviewCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Start an interactive review session",
		Long: `Start an interactive review session. Type the answer to each prompt,
then confirm the suggested grade with Enter or type another one
(0-5 or again/hard/good/easy).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, err := a.currentLearner(ctx)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.SessionSize
			}
			cards, err := a.practice.ReviewQueue(ctx, l.ID(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(cards) == 0 {
				fmt.Fprintln(out, "No cards due for review.")
				return nil
			}

			in := bufio.NewScanner(cmd.InOrStdin())
			reviewed := 0
			for i := range cards {
				card := &cards[i]
				fmt.Fprintf(out, "\n[%d/%d] %s\n> ", i+1, len(cards), card.Fact.Prompt())

				start := time.Now()
				if !in.Scan() {
					break
				}
				responseTime := time.Since(start)

				correct := a.practice.CheckAnswer(card, in.Text())
				suggested := usecases.SuggestGrade(correct, responseTime, a.cfg.SlowAnswer)
				if correct {
					fmt.Fprintf(out, "Correct: %s\n", card.Fact.Answer())
				} else {
					fmt.Fprintf(out, "Answer: %s\n", card.Fact.Answer())
				}

				grade, ok := readGrade(in, out, suggested)
				if !ok {
					break
				}

				result, err := a.practice.SubmitAnswer(ctx, card.Item.ID, grade, responseTime)
				if err != nil {
					return err
				}
				reviewed++
				fmt.Fprintf(out, "%s, next review in %d day(s)\n", result.Phase, result.DaysUntilReview)
			}

			fmt.Fprintf(out, "\nReviewed %d of %d cards.\n", reviewed, len(cards))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum cards in the session (default $SESSION_SIZE, 0 for all)")

	return cmd
}

// readGrade prompts until a valid grade is entered. An empty line accepts
// the suggestion. It returns false when input ends.
func readGrade(in *bufio.Scanner, out io.Writer, suggested learning.Grade) (learning.Grade, bool) {
	for {
		fmt.Fprintf(out, "Grade [%d %s]: ", suggested, suggested)
		if !in.Scan() {
			return 0, false
		}

		text := strings.TrimSpace(in.Text())
		if text == "" {
			return suggested, true
		}
		grade, err := learning.ParseGrade(text)
		if err == nil {
			return grade, true
		}
		fmt.Fprintln(out, err)
	}
}

func newAnswerCmd(a *app) *cobra.Command {
	var responseTime time.Duration

	cmd := &cobra.Command{
		Use:   "answer <item-id> <grade>",
		Short: "Record an answer for an item",
		Long: `Record an answer for an item. The grade is 0-5 or one of
again, hard, good, easy.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			grade, err := learning.ParseGrade(args[1])
			if err != nil {
				return err
			}

			result, err := a.practice.SubmitAnswer(cmd.Context(), learning.ItemID(args[0]), grade, responseTime)
			if err != nil {
				return err
			}

			item := result.Item
			fmt.Fprintf(cmd.OutOrStdout(), "%s: interval %d day(s), ease %.2f, next review %s\n",
				result.Phase, item.Algorithm.IntervalDays, item.Algorithm.EasinessFactor,
				item.Schedule.NextReviewAt.Local().Format(time.DateTime))
			return nil
		},
	}

	cmd.Flags().DurationVar(&responseTime, "response-time", 0, "How long the answer took")

	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <item-id>",
		Short: "Print an item's scheduling state as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := a.learningRepo.FindItem(cmd.Context(), learning.ItemID(args[0]))
			if err != nil {
				return err
			}
			if item == nil {
				return learning.ErrItemNotFound
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(item)
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history <item-id>",
		Short: "List an item's answers, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := a.practice.History(cmd.Context(), learning.ItemID(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(history) == 0 {
				fmt.Fprintln(out, "No reviews yet.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tGRADE\tRESPONSE\tINTERVAL\tEASE")
			for _, h := range history {
				fmt.Fprintf(w, "%s\t%d %s\t%dms\t%dd\t%.2f\n",
					h.ReviewTime().Local().Format(time.DateTime), h.Grade(), h.Grade(),
					h.ResponseTimeMs(), h.IntervalDays(), h.EasinessFactor())
			}
			return w.Flush()
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show a learner's progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, err := a.currentLearner(ctx)
			if err != nil {
				return err
			}

			stats, err := a.practice.Stats(ctx, l.ID())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Learner\t%s\n", l.Name())
			fmt.Fprintf(w, "Facts enrolled\t%d of %d\n", stats.TotalItems, stats.TotalFacts)
			fmt.Fprintf(w, "New / learning / graduated\t%d / %d / %d\n", stats.NewItems, stats.LearningItems, stats.GraduatedItems)
			fmt.Fprintf(w, "Due now\t%d\n", stats.DueItems)
			fmt.Fprintf(w, "Reviews (correct)\t%d (%d)\n", stats.TotalReviews, stats.CorrectReviews)
			fmt.Fprintf(w, "Lapses\t%d\n", stats.TotalLapses)
			fmt.Fprintf(w, "Average accuracy\t%.1f%%\n", stats.AverageAccuracy)
			return w.Flush()
		},
	}
}
