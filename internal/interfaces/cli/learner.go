package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"flashcard-scheduler/internal/infrastructure/telegram"
)

func newLearnerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learner",
		Short: "Manage learners",
	}

	cmd.AddCommand(
		newLearnerAddCmd(a),
		newLearnerTelegramCmd(a),
		newLearnerRemindersCmd(a),
	)

	return cmd
}

func newLearnerAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Register a learner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.learners.GetOrCreateLearner(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Learner %s (%s)\n", l.Name(), l.ID())
			return nil
		},
	}
}

func newLearnerTelegramCmd(a *app) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "telegram <name> [chat-id]",
		Short: "Link the Telegram chat reminders are sent to",
		Long: `Link the Telegram chat reminders are sent to.

Without a chat id, the command waits for the learner to send /start to the
bot configured by TELEGRAM_BOT_TOKEN.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var chatID int64
			if len(args) == 2 {
				id, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid chat id %q: %w", args[1], err)
				}
				chatID = id
			} else {
				if a.cfg.TelegramToken == "" {
					return fmt.Errorf("TELEGRAM_BOT_TOKEN is required to wait for /start")
				}
				bot, err := telegram.NewBot(a.cfg.TelegramToken)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), "Send /start to the bot from the chat to link...")
				ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
				defer cancel()
				chatID, err = bot.AwaitChat(ctx)
				if err != nil {
					return fmt.Errorf("waiting for /start: %w", err)
				}
			}

			l, err := a.learners.SetTelegramChat(cmd.Context(), args[0], chatID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reminders for %s go to chat %d\n", l.Name(), l.TelegramChatID())
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "How long to wait for /start")

	return cmd
}

func newLearnerRemindersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "reminders <name> on|off",
		Short:     "Turn reminders on or off",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled bool
			switch args[1] {
			case "on":
				enabled = true
			case "off":
			default:
				return fmt.Errorf("expected on or off, got %q", args[1])
			}

			l, err := a.learners.SetRemindersEnabled(cmd.Context(), args[0], enabled)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reminders for %s: %s\n", l.Name(), args[1])
			return nil
		},
	}
}
