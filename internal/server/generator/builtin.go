package generator

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"math/rand/v2"

	"github.com/dmitrijs2005/neuroresume/internal/server/models"
)

var questionBank = map[models.Language][]string{
	models.LanguageRU: {
		"Какую роль вы сейчас занимаете и чем гордитесь в ней?",
		"Расскажите про проект, которым особенно гордитесь: что сделали лично вы?",
		"Какие инструменты и навыки используете чаще всего на работе?",
		"Какие цели ставите перед собой на ближайший год и почему они важны?",
		"Есть ли образование или курсы, которые обязательно стоит упомянуть?",
	},
	models.LanguageEN: {
		"What role do you hold right now, and what are you proudest of in it?",
		"Tell me about a project you are especially proud of: what did you do personally?",
		"Which tools and skills do you use most often at work?",
		"What goals have you set for the coming year, and why do they matter?",
		"Is there any education or coursework that should definitely be mentioned?",
	},
}

var closingMessage = map[models.Language]string{
	models.LanguageRU: "Спасибо! Ответов достаточно, чтобы собрать резюме. Завершите интервью, и я подготовлю черновик.",
	models.LanguageEN: "Thank you! That is enough to put a resume together. Complete the interview and I will prepare a draft.",
}

// Builtin is a deterministic interviewer that walks a fixed question bank in
// an order seeded by the session id.
type Builtin struct{}

func NewBuiltin() *Builtin {
	return &Builtin{}
}

// Questions returns the bank for the session in its interview order.
func Questions(sessionID string, lang models.Language) []string {
	bank, ok := questionBank[lang]
	if !ok {
		bank = questionBank[models.DefaultLanguage]
	}
	order := make([]string, len(bank))
	copy(order, bank)

	h := fnv.New64a()
	_, _ = h.Write([]byte(sessionID))
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	return order
}

func (b *Builtin) GenerateNextTurn(ctx context.Context, sc SessionContext) (Turn, error) {
	if err := ctx.Err(); err != nil {
		return Turn{}, err
	}

	lang := sc.Language
	if !lang.Valid() {
		lang = models.DefaultLanguage
	}

	answers := userAnswers(sc.History)
	stage := countRole(sc.History, models.RoleAssistant)
	order := Questions(sc.SessionID, lang)

	meta := analysis{
		AnswersCollected: len(answers),
		Topics:           topics(answers),
	}

	var content string
	if stage < len(order) {
		content = order[stage]
	} else {
		content = closingMessage[lang]
		meta.Completed = true
	}

	raw, err := json.Marshal(meta)
	if err != nil {
		return Turn{}, err
	}
	return Turn{Content: content, Metadata: raw}, nil
}
