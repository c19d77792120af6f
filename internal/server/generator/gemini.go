package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/neuroresume/internal/server/models"
)

// JSONGenerator is the slice of the Gemini client the adapter needs.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, out any) error
}

// SystemInstruction primes the model as a career interviewer.
const SystemInstruction = `You are a career interview assistant helping a candidate build a resume.
Ask one clarifying question at a time, collect concrete facts about roles, projects,
skills, goals and education, and keep questions short.
Always answer with a JSON object with the fields:
assistant_message: the next question or a closing message for the user;
completed: true when enough information has been collected;
metadata: a short analysis object or a string summary.
Answer strictly in JSON without explanations.`

const historyWindow = 20

type geminiTurn struct {
	AssistantMessage string          `json:"assistant_message"`
	Question         string          `json:"question"`
	Completed        bool            `json:"completed"`
	Metadata         json.RawMessage `json:"metadata"`
}

// Gemini asks a Gemini model for the next interview turn.
type Gemini struct {
	llm JSONGenerator
}

func NewGemini(llm JSONGenerator) *Gemini {
	return &Gemini{llm: llm}
}

func (g *Gemini) GenerateNextTurn(ctx context.Context, sc SessionContext) (Turn, error) {
	var out geminiTurn
	if err := g.llm.GenerateJSON(ctx, BuildPrompt(sc), &out); err != nil {
		return Turn{}, err
	}

	content := out.AssistantMessage
	if content == "" {
		content = out.Question
	}
	if strings.TrimSpace(content) == "" {
		return Turn{}, errors.New("gemini returned no assistant message")
	}

	answers := userAnswers(sc.History)
	meta := analysis{
		AnswersCollected: len(answers),
		Topics:           topics(answers),
		Completed:        out.Completed,
	}
	mergeModelMetadata(&meta, out.Metadata)

	raw, err := json.Marshal(meta)
	if err != nil {
		return Turn{}, err
	}
	return Turn{Content: content, Metadata: raw}, nil
}

// mergeModelMetadata keeps a string summary from the model; objects are
// summarised by their JSON text.
func mergeModelMetadata(meta *analysis, raw json.RawMessage) {
	if len(raw) == 0 || string(raw) == "null" {
		return
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		meta.Summary = strings.TrimSpace(s)
		return
	}
	meta.Summary = string(raw)
}

// BuildPrompt renders the recent history as a transcript.
func BuildPrompt(sc SessionContext) string {
	history := sc.History
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	userLabel, aiLabel, langLine := "User", "AI", "Conduct the interview in English."
	if sc.Language == models.LanguageRU {
		userLabel, aiLabel, langLine = "Пользователь", "AI", "Веди интервью на русском языке."
	}

	var b strings.Builder
	b.WriteString(langLine)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Session ID: %s.\n", sc.SessionID)
	b.WriteString("Conversation history:\n")
	for _, m := range history {
		label := aiLabel
		if m.Role == models.RoleUser {
			label = userLabel
		}
		fmt.Fprintf(&b, "%s: %s\n", label, m.Content)
	}
	return b.String()
}
