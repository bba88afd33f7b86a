package fact

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidFact is returned for facts missing a prompt or an answer.
var ErrInvalidFact = errors.New("fact: prompt and answer are required")

// DefaultDeck is used for facts imported without a deck name.
const DefaultDeck = "general"

// Fact is a question/answer pair that learners are scheduled on
type Fact struct {
	id     ID
	deck   string
	prompt string
	answer string
}

// ID represents the fact's unique identifier
type ID string

// NewID returns a random fact ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// NewFact creates a new fact. An empty id gets a random one, an empty deck
// becomes DefaultDeck.
func NewFact(id ID, deck, prompt, answer string) (*Fact, error) {
	prompt = strings.TrimSpace(prompt)
	answer = strings.TrimSpace(answer)
	if prompt == "" || answer == "" {
		return nil, ErrInvalidFact
	}
	if id == "" {
		id = NewID()
	}
	return &Fact{
		id:     id,
		deck:   NormalizeDeck(deck),
		prompt: prompt,
		answer: answer,
	}, nil
}

// Getters
func (f *Fact) ID() ID         { return f.id }
func (f *Fact) Deck() string   { return f.deck }
func (f *Fact) Prompt() string { return f.prompt }
func (f *Fact) Answer() string { return f.answer }

// NormalizeDeck lowercases and trims a deck name.
func NormalizeDeck(deck string) string {
	deck = strings.ToLower(strings.TrimSpace(deck))
	if deck == "" {
		return DefaultDeck
	}
	return deck
}
