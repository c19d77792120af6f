package renderer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/neuroresume/internal/common"
	"github.com/dmitrijs2005/neuroresume/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ledger(answers ...string) []*models.Message {
	var out []*models.Message
	for i, a := range answers {
		out = append(out,
			&models.Message{Seq: 2*i + 1, Role: models.RoleUser, Content: a},
			&models.Message{Seq: 2*i + 2, Role: models.RoleAssistant, Content: "next?"})
	}
	return out
}

var ruAnswers = ledger(
	"Меня зовут Иван Петров, я backend-разработчик",
	"Главный результат: ускорил сборку в три раза",
	"Навыки: Go, PostgreSQL; Docker, go",
	"Хочу вырасти до техлида",
	"Окончил университет ИТМО",
)

func TestExtract(t *testing.T) {
	r := Extract(ruAnswers, "Fallback Name")

	assert.Equal(t, "Иван Петров", r.Name)
	assert.Equal(t, "Хочу вырасти до техлида", r.Objective)
	assert.Equal(t, []string{"Главный результат: ускорил сборку в три раза"}, r.Experience)
	assert.Equal(t, []string{"Go", "Postgresql", "Docker"}, r.Skills)
	assert.Equal(t, "Окончил университет ИТМО", r.Education)
}

func TestExtract_FallbackName(t *testing.T) {
	r := Extract(ledger("I like building things"), "  Jane Roe ")
	assert.Equal(t, "Jane Roe", r.Name)

	r = Extract(ledger("My name is John Smith."), "Jane Roe")
	assert.Equal(t, "John Smith", r.Name)
}

func TestNormalize(t *testing.T) {
	req, err := Normalize(RenderRequest{})
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, req.Format)
	assert.Equal(t, TemplateModern, req.Template)
	assert.Equal(t, models.LanguageRU, req.Language)

	_, err = Normalize(RenderRequest{Format: "pdf", Template: "fancy", Language: "de"})
	require.ErrorIs(t, err, common.ErrValidation)
	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 3)
}

func TestHeuristic_MarkdownModern(t *testing.T) {
	doc, err := NewHeuristic().Render(context.Background(), RenderRequest{
		SessionID: "s1",
		Messages:  ruAnswers,
	})
	require.NoError(t, err)

	assert.Equal(t, "text/markdown; charset=utf-8", doc.MIME)
	assert.Equal(t, "resume_s1.md", doc.Filename)

	body := string(doc.Content)
	assert.True(t, strings.HasPrefix(body, "# Иван Петров\n"))
	for _, h := range []string{"## Цель", "## Опыт", "## Навыки", "## Образование", "## Дополнительно"} {
		assert.Contains(t, body, h)
	}
	assert.Contains(t, body, "- Главный результат: ускорил сборку в три раза")
	assert.Less(t, strings.Index(body, "## Цель"), strings.Index(body, "## Опыт"))
}

func TestHeuristic_EmptyLedgerUsesFallbacks(t *testing.T) {
	doc, err := NewHeuristic().Render(context.Background(), RenderRequest{
		SessionID: "s2",
		Language:  models.LanguageEN,
	})
	require.NoError(t, err)

	body := string(doc.Content)
	assert.True(t, strings.HasPrefix(body, "# Candidate Resume\n"))
	assert.Contains(t, body, "- Experience will be detailed once the specifics are clarified.")
	assert.Contains(t, body, "Education details to be confirmed.")
}

func TestHeuristic_Templates(t *testing.T) {
	render := func(template, format string) string {
		doc, err := NewHeuristic().Render(context.Background(), RenderRequest{
			SessionID: "s1",
			Language:  models.LanguageEN,
			Template:  template,
			Format:    format,
			Messages:  ledger("My name is Ann Lee", "Skills: Go, SQL"),
		})
		require.NoError(t, err)
		return string(doc.Content)
	}

	classic := render(TemplateClassic, FormatMarkdown)
	assert.Contains(t, classic, "# ANN LEE")
	assert.Contains(t, classic, "## SKILLS")

	minimal := render(TemplateMinimal, FormatMarkdown)
	assert.Contains(t, minimal, "### Skills")
	assert.NotContains(t, minimal, "Additional")

	creative := render(TemplateCreative, FormatMarkdown)
	assert.Contains(t, creative, "## ✦ Skills")

	txt := render(TemplateModern, FormatText)
	assert.True(t, strings.HasPrefix(txt, "Ann Lee\n=======\n"))
	assert.Contains(t, txt, "Skills\n------\n")
	assert.NotContains(t, txt, "#")
}

func TestHeuristic_TextDocument(t *testing.T) {
	doc, err := NewHeuristic().Render(context.Background(), RenderRequest{SessionID: "s9", Format: FormatText})
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", doc.MIME)
	assert.Equal(t, "resume_s9.txt", doc.Filename)
}

func TestHeuristic_InvalidRequest(t *testing.T) {
	_, err := NewHeuristic().Render(context.Background(), RenderRequest{Format: "docx"})
	assert.ErrorIs(t, err, common.ErrValidation)
}

type fakeLLM struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeLLM) GenerateJSON(_ context.Context, prompt string, out any) error {
	f.prompt = prompt
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.reply), out)
}

func TestGemini_Render(t *testing.T) {
	llm := &fakeLLM{reply: `{"name":"","objective":"Lead a platform team","experience":["Cut build time 3x"],"skills":["Go","SQL"]}`}

	doc, err := NewGemini(llm).Render(context.Background(), RenderRequest{
		SessionID:     "s1",
		Language:      models.LanguageEN,
		CandidateName: "Ann Lee",
		Messages:      ledger("I cut build time 3x"),
	})
	require.NoError(t, err)

	body := string(doc.Content)
	assert.True(t, strings.HasPrefix(body, "# Ann Lee\n"))
	assert.Contains(t, body, "Lead a platform team")
	assert.Contains(t, body, "Go, SQL")
	assert.Contains(t, llm.prompt, "Candidate: I cut build time 3x")
	assert.Contains(t, llm.prompt, "in English")
}

func TestGemini_Errors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewGemini(&fakeLLM{err: boom}).Render(context.Background(), RenderRequest{})
	assert.ErrorIs(t, err, boom)

	_, err = NewGemini(&fakeLLM{}).Render(context.Background(), RenderRequest{Template: "nope"})
	assert.ErrorIs(t, err, common.ErrValidation)
}
