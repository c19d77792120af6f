package renderer

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/neuroresume/internal/server/models"
)

// JSONGenerator is the slice of the Gemini client the renderer needs.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, out any) error
}

// SystemInstruction primes the model as a resume writer.
const SystemInstruction = `You write concise, factual resumes from interview transcripts.
Use only facts stated by the candidate. Answer strictly in JSON with the fields:
name (string), objective (string), experience (array of strings),
skills (array of strings), education (string), additional (string).
Leave a field empty when the transcript says nothing about it.`

// Gemini asks a Gemini model to structure the resume and lays it out with
// the same templates as the heuristic renderer.
type Gemini struct {
	llm JSONGenerator
}

func NewGemini(llm JSONGenerator) *Gemini {
	return &Gemini{llm: llm}
}

func (g *Gemini) Render(ctx context.Context, req RenderRequest) (Document, error) {
	req, err := Normalize(req)
	if err != nil {
		return Document{}, err
	}

	var r Resume
	if err := g.llm.GenerateJSON(ctx, buildPrompt(req), &r); err != nil {
		return Document{}, err
	}
	if r.Name == "" {
		r.Name = strings.TrimSpace(req.CandidateName)
	}
	return Build(r, req), nil
}

func buildPrompt(req RenderRequest) string {
	var b strings.Builder
	if req.Language == models.LanguageRU {
		b.WriteString("Write the resume in Russian.\n")
	} else {
		b.WriteString("Write the resume in English.\n")
	}
	if req.CandidateName != "" {
		fmt.Fprintf(&b, "Candidate name from the profile: %s.\n", req.CandidateName)
	}
	b.WriteString("Interview transcript:\n")
	for _, m := range req.Messages {
		label := "Interviewer"
		if m.Role == models.RoleUser {
			label = "Candidate"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, m.Content)
	}
	return b.String()
}
