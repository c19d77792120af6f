// Package renderer turns an interview ledger into a resume document.
package renderer

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/neuroresume/internal/common"
	"github.com/dmitrijs2005/neuroresume/internal/server/models"
)

const (
	FormatMarkdown = "markdown"
	FormatText     = "txt"

	TemplateModern   = "modern"
	TemplateClassic  = "classic"
	TemplateMinimal  = "minimal"
	TemplateCreative = "creative"

	DefaultFormat   = FormatMarkdown
	DefaultTemplate = TemplateModern
)

var (
	Formats   = []string{FormatMarkdown, FormatText}
	Templates = []string{TemplateModern, TemplateClassic, TemplateMinimal, TemplateCreative}
)

type RenderRequest struct {
	SessionID     string
	Language      models.Language
	Template      string
	Format        string
	CandidateName string
	Messages      []*models.Message
}

type Document struct {
	Content  []byte
	MIME     string
	Filename string
}

type Renderer interface {
	Render(ctx context.Context, req RenderRequest) (Document, error)
}

// Normalize fills defaults and rejects unknown formats, templates and
// languages.
func Normalize(req RenderRequest) (RenderRequest, error) {
	if req.Format == "" {
		req.Format = DefaultFormat
	}
	if req.Template == "" {
		req.Template = DefaultTemplate
	}
	if req.Language == "" {
		req.Language = models.DefaultLanguage
	}

	verr := &common.ValidationError{}
	if !slices.Contains(Formats, req.Format) {
		verr.Add("format", fmt.Sprintf("must be one of %v", Formats))
	}
	if !slices.Contains(Templates, req.Template) {
		verr.Add("template", fmt.Sprintf("must be one of %v", Templates))
	}
	if !req.Language.Valid() {
		verr.Add("language", "must be one of [ru en]")
	}
	if len(verr.Fields) > 0 {
		return req, verr
	}
	return req, nil
}

func mimeAndExt(format string) (string, string) {
	if format == FormatText {
		return "text/plain; charset=utf-8", "txt"
	}
	return "text/markdown; charset=utf-8", "md"
}

// Build lays out r according to req and wraps it in a Document.
func Build(r Resume, req RenderRequest) Document {
	mime, ext := mimeAndExt(req.Format)

	var body string
	if req.Format == FormatText {
		body = renderText(r, req.Template, req.Language)
	} else {
		body = renderMarkdown(r, req.Template, req.Language)
	}

	return Document{
		Content:  []byte(body),
		MIME:     mime,
		Filename: fmt.Sprintf("resume_%s.%s", req.SessionID, ext),
	}
}
