package filesystem

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"flashcard-scheduler/internal/domain/fact"
)

// DeckLoader handles loading fact decks from files
type DeckLoader struct{}

// NewDeckLoader creates a new deck loader
func NewDeckLoader() *DeckLoader {
	return &DeckLoader{}
}

// DeckData represents the JSON structure of a deck file
type DeckData struct {
	Deck  string      `json:"deck"`
	Facts []FactEntry `json:"facts"`
}

// FactEntry represents a single fact in JSON. Deck overrides the file's deck.
type FactEntry struct {
	ID     string `json:"id"`
	Deck   string `json:"deck"`
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}

// LoadFromFile loads facts from a JSON deck file
func (dl *DeckLoader) LoadFromFile(filename string) ([]*fact.Fact, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open deck file: %w", err)
	}
	defer file.Close()

	return dl.Load(file)
}

// Load decodes a deck from r. Every fact needs a prompt and an answer.
func (dl *DeckLoader) Load(r io.Reader) ([]*fact.Fact, error) {
	var data DeckData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode deck JSON: %w", err)
	}

	facts := make([]*fact.Fact, 0, len(data.Facts))
	for i, entry := range data.Facts {
		deck := entry.Deck
		if deck == "" {
			deck = data.Deck
		}

		f, err := fact.NewFact(fact.ID(entry.ID), deck, entry.Prompt, entry.Answer)
		if err != nil {
			return nil, fmt.Errorf("fact %d: %w", i, err)
		}
		facts = append(facts, f)
	}

	return facts, nil
}
