// Package generator produces the assistant side of an interview.
package generator

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dmitrijs2005/neuroresume/internal/server/models"
)

// SessionContext is what a generator sees: the ledger so far, ending with
// the user message that is being answered.
type SessionContext struct {
	SessionID string
	Language  models.Language
	History   []*models.Message
}

type Turn struct {
	Content  string
	Metadata json.RawMessage
}

type Generator interface {
	GenerateNextTurn(ctx context.Context, sc SessionContext) (Turn, error)
}

// analysis is the metadata attached to assistant messages.
type analysis struct {
	AnswersCollected int      `json:"answers_collected"`
	Topics           []string `json:"topics"`
	Completed        bool     `json:"completed,omitempty"`
	Summary          string   `json:"summary,omitempty"`
}

func countRole(history []*models.Message, role models.MessageRole) int {
	n := 0
	for _, m := range history {
		if m.Role == role {
			n++
		}
	}
	return n
}

func userAnswers(history []*models.Message) []string {
	out := make([]string, 0, len(history))
	for _, m := range history {
		if m.Role == models.RoleUser {
			out = append(out, m.Content)
		}
	}
	return out
}

var topicMarkers = []string{"python", "go", "data", "управ", "дизайн", "design", "sales", "маркет", "market"}

// Topic picks a short keyword describing an answer: a known marker if one
// occurs, otherwise the first word longer than four letters.
func Topic(text string) string {
	lowered := strings.ToLower(text)
	for _, marker := range topicMarkers {
		if containsWord(lowered, marker) {
			return marker
		}
	}
	for _, w := range strings.Fields(text) {
		w = strings.Trim(w, ",.;:!?\"'()")
		if len([]rune(w)) > 4 {
			return strings.ToLower(w)
		}
	}
	return ""
}

// containsWord matches marker as a word prefix so "go" does not fire on "good".
func containsWord(text, marker string) bool {
	for _, w := range strings.Fields(text) {
		w = strings.Trim(w, ",.;:!?\"'()")
		if strings.HasPrefix(w, marker) && (len(marker) > 2 || w == marker) {
			return true
		}
	}
	return false
}

func topics(answers []string) []string {
	out := make([]string, 0, len(answers))
	for _, a := range answers {
		if t := Topic(a); t != "" {
			out = append(out, t)
		}
	}
	return out
}
