package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"sort"
)

// deckAll selects every configured deck.
const deckAll = "all"

type Question struct {
	ID       int    `json:"id"`
	Category string `json:"category"`
	Text     string `json:"text"`
}

//go:embed questions/decks.json
var defaultDecks []byte

type questionSet struct {
	decks map[string][]Question
}

// loadQuestions parses the embedded decks, or a replacement corpus from
// --questions if one was given. The file is a JSON object mapping deck ids
// to question lists.
func loadQuestions(cfg *Config) (*questionSet, error) {
	data := defaultDecks
	if cfg.questionsFile != "" {
		var err error
		data, err = os.ReadFile(cfg.questionsFile)
		if err != nil {
			return nil, fmt.Errorf("reading question decks: %w", err)
		}
	}

	decks := make(map[string][]Question)
	if err := json.Unmarshal(data, &decks); err != nil {
		return nil, fmt.Errorf("parsing question decks: %w", err)
	}
	if len(decks) == 0 {
		return nil, fmt.Errorf("question corpus contains no decks")
	}
	for id, questions := range decks {
		if len(questions) == 0 {
			return nil, fmt.Errorf("question deck %q is empty", id)
		}
	}

	return &questionSet{decks: decks}, nil
}

func (qs *questionSet) deckIDs() []string {
	ids := make([]string, 0, len(qs.decks))
	for id := range qs.decks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// pool returns the union of the selected decks, in deterministic deck order.
// An empty selection, or one containing "all", selects every deck; unknown
// deck ids are skipped, and a selection matching nothing falls back to the
// full corpus.
func (qs *questionSet) pool(selected []string) []Question {
	ids := selected
	if len(ids) == 0 || slices.Contains(ids, deckAll) {
		ids = qs.deckIDs()
	}

	var pool []Question
	for _, id := range ids {
		pool = append(pool, qs.decks[id]...)
	}
	if len(pool) == 0 {
		for _, id := range qs.deckIDs() {
			pool = append(pool, qs.decks[id]...)
		}
	}
	return pool
}

// draw picks a uniform random question from the selected decks, excluding
// ids already used this game. An exhausted pool clears the used set so the
// game can continue with repeats.
func (qs *questionSet) draw(selected []string, used map[int]bool) Question {
	pool := qs.pool(selected)

	available := make([]Question, 0, len(pool))
	for _, question := range pool {
		if !used[question.ID] {
			available = append(available, question)
		}
	}

	if len(available) == 0 {
		clear(used)
		available = pool
	}

	question := available[rand.IntN(len(available))]
	used[question.ID] = true

	return question
}
