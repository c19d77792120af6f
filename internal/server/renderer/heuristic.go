package renderer

import "context"

// Heuristic renders resumes locally from keyword heuristics over the answers.
type Heuristic struct{}

func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

func (h *Heuristic) Render(ctx context.Context, req RenderRequest) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	req, err := Normalize(req)
	if err != nil {
		return Document{}, err
	}
	return Build(Extract(req.Messages, req.CandidateName), req), nil
}
