package learner

import (
	"time"

	"github.com/google/uuid"
)

// Learner represents a person studying facts
type Learner struct {
	id               ID
	name             string
	telegramChatID   int64
	remindersEnabled bool
	createdAt        time.Time
	lastActive       time.Time
}

// ID represents the learner's unique identifier
type ID string

// NewLearner creates a new learner with reminders enabled
func NewLearner(name string, now time.Time) *Learner {
	now = now.UTC()
	return &Learner{
		id:               ID(uuid.NewString()),
		name:             name,
		remindersEnabled: true,
		createdAt:        now,
		lastActive:       now,
	}
}

// Restore rebuilds a learner from storage.
func Restore(id ID, name string, telegramChatID int64, remindersEnabled bool, createdAt, lastActive time.Time) *Learner {
	return &Learner{
		id:               id,
		name:             name,
		telegramChatID:   telegramChatID,
		remindersEnabled: remindersEnabled,
		createdAt:        createdAt,
		lastActive:       lastActive,
	}
}

// Getters
func (l *Learner) ID() ID                 { return l.id }
func (l *Learner) Name() string           { return l.name }
func (l *Learner) TelegramChatID() int64  { return l.telegramChatID }
func (l *Learner) RemindersEnabled() bool { return l.remindersEnabled }
func (l *Learner) CreatedAt() time.Time   { return l.createdAt }
func (l *Learner) LastActive() time.Time  { return l.lastActive }

// CanBeReminded reports whether reminders are on and a chat is linked.
func (l *Learner) CanBeReminded() bool {
	return l.remindersEnabled && l.telegramChatID != 0
}

// Touch updates the last active timestamp
func (l *Learner) Touch(now time.Time) {
	l.lastActive = now.UTC()
}

// LinkTelegram sets the chat reminders are sent to
func (l *Learner) LinkTelegram(chatID int64) {
	l.telegramChatID = chatID
}

// SetRemindersEnabled toggles reminders
func (l *Learner) SetRemindersEnabled(enabled bool) {
	l.remindersEnabled = enabled
}
