package telegram

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot wraps the Telegram bot API for sending review reminders
type Bot struct {
	api *tgbotapi.BotAPI
}

// NewBot creates a new Telegram bot
func NewBot(token string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	api.Debug = false
	log.Printf("Authorized on account %s", api.Self.UserName)

	return &Bot{api: api}, nil
}

// Notify sends a markdown reminder to chatID
func (b *Bot) Notify(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.SendMessageWithMarkdown(chatID, text); err != nil {
		return fmt.Errorf("failed to notify chat %d: %w", chatID, err)
	}
	return nil
}

// SendMessage sends a text message
func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}

// SendMessageWithMarkdown sends a message with markdown formatting
func (b *Bot) SendMessageWithMarkdown(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := b.api.Send(msg)
	return err
}

// AwaitChat waits for the first /start message sent to the bot and returns
// its chat ID. Learners link their reminder chat this way.
func (b *Bot) AwaitChat(ctx context.Context) (int64, error) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return 0, fmt.Errorf("update channel closed")
			}
			if update.Message == nil || update.Message.Command() != "start" {
				continue
			}
			chatID := update.Message.Chat.ID
			if err := b.SendMessage(chatID, "Reminders will be sent to this chat."); err != nil {
				log.Printf("Error confirming chat %d: %v", chatID, err)
			}
			return chatID, nil
		}
	}
}
