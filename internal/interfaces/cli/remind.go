package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"flashcard-scheduler/internal/application/usecases"
	"flashcard-scheduler/internal/infrastructure/telegram"
)

func newRemindCmd(a *app) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send Telegram reminders for due cards",
		Long: `Send Telegram reminders to learners with due cards. Runs until
interrupted, checking every REMINDER_CHECK_INTERVAL, unless --once is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.TelegramToken == "" {
				return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
			}

			bot, err := telegram.NewBot(a.cfg.TelegramToken)
			if err != nil {
				return err
			}
			reminders := usecases.NewReminderUseCase(bot, a.learnerRepo, a.learningRepo, a.cfg.Reminder())

			if once {
				n := reminders.CheckAndSendReminders(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "Sent %d reminders\n", n)
				return nil
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			go func() {
				c := make(chan os.Signal, 1)
				signal.Notify(c, os.Interrupt, syscall.SIGTERM)
				defer signal.Stop(c)
				select {
				case <-c:
					log.Println("Shutting down...")
					cancel()
				case <-ctx.Done():
				}
			}()

			reminders.StartReminderService(ctx)
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single reminder pass and exit")

	return cmd
}
