package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"

	"github.com/dmitrijs2005/neuroresume/internal/client/client"
	"github.com/dmitrijs2005/neuroresume/internal/filex"
	"github.com/dmitrijs2005/neuroresume/internal/netx"
)

var errNoSession = errors.New("no active session: run 'new' or 'use <id>' first")

const sessionsPageSize = 10

// NewSession opens an interview and makes it current. An optional argument
// picks the language.
func (a *App) NewSession(ctx context.Context, args []string) error {
	lang := ""
	if len(args) > 0 {
		lang = args[0]
	}

	s, err := a.api.CreateSession(ctx, lang)
	if err != nil {
		return err
	}

	a.sessionID = s.ID
	fmt.Fprintf(a.out, "Session %s started (%s). Use 'say <text>' to answer.\n", s.ID, s.Language)
	return nil
}

// Sessions lists the user's sessions, newest first.
func (a *App) Sessions(ctx context.Context, args []string) error {
	page := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid page %q", args[0])
		}
		page = n
	}

	res, err := a.api.ListSessions(ctx, client.ListSessionsParams{Page: page, PageSize: sessionsPageSize})
	if err != nil {
		return err
	}

	if len(res.Items) == 0 {
		fmt.Fprintln(a.out, "No sessions")
		return nil
	}
	for _, s := range res.Items {
		marker := " "
		if s.ID == a.sessionID {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %s  %-11s %s  %3d%%  %d msgs  %s\n",
			marker, s.ID, s.Status, s.Language, s.Progress, s.MessageCount, s.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(a.out, "page %d/%d, %d total\n", res.Page, res.TotalPages, res.Total)
	return nil
}

// Use makes an existing session current.
func (a *App) Use(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: use <session id>")
		return nil
	}

	s, err := a.api.GetSession(ctx, args[0])
	if err != nil {
		return err
	}

	a.sessionID = s.ID
	fmt.Fprintf(a.out, "Using session %s (%s, %d%%)\n", s.ID, s.Status, s.Progress)
	return nil
}

// Say sends one answer and prints the assistant's reply.
func (a *App) Say(ctx context.Context, text string) error {
	if a.sessionID == "" {
		return errNoSession
	}

	turn, err := a.api.SendMessage(ctx, a.sessionID, text)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "assistant: %s\n", turn.AssistantMessage.Content)
	fmt.Fprintf(a.out, "[progress %d%%]\n", turn.Progress)
	return nil
}

// History prints the conversation of the current session.
func (a *App) History(ctx context.Context) error {
	if a.sessionID == "" {
		return errNoSession
	}

	msgs, err := a.api.History(ctx, a.sessionID)
	if err != nil {
		return err
	}

	if len(msgs) == 0 {
		fmt.Fprintln(a.out, "No messages yet")
		return nil
	}
	for _, m := range msgs {
		fmt.Fprintf(a.out, "%3d %s: %s\n", m.Seq, m.Role, m.Content)
	}
	return nil
}

// Complete closes the current session and generates the resume.
func (a *App) Complete(ctx context.Context) error {
	if a.sessionID == "" {
		return errNoSession
	}

	art, err := a.api.Complete(ctx, a.sessionID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Resume generated: %s (%d bytes, %s/%s). Use 'download' to save it.\n",
		art.Filename, art.SizeBytes, art.Format, art.Template)
	return nil
}

// Download saves the resume of the current session. Without an argument the
// server-suggested filename is used. A presigned URL is preferred when the
// server's storage offers one.
func (a *App) Download(ctx context.Context, args []string) error {
	if a.sessionID == "" {
		return errNoSession
	}

	content, filename, err := a.fetchResume(ctx)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		filename = args[0]
	}
	if filename == "" {
		filename = "resume_" + a.sessionID + ".md"
	}

	saved, err := filex.SaveFile(filename, content)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Saved %d bytes to %s\n", len(content), saved)
	return nil
}

func (a *App) fetchResume(ctx context.Context) ([]byte, string, error) {
	rawURL, err := a.api.DownloadURL(ctx, a.sessionID)
	switch {
	case err == nil:
		content, err := netx.DownloadFromPresignedURL(ctx, a.http, rawURL)
		if err != nil {
			return nil, "", err
		}
		ext := ".md"
		if u, perr := url.Parse(rawURL); perr == nil && path.Ext(u.Path) != "" {
			ext = path.Ext(u.Path)
		}
		return content, "resume_" + a.sessionID + ext, nil
	case !client.IsCode(err, "NOT_SUPPORTED"):
		return nil, "", err
	}

	doc, err := a.api.Download(ctx, a.sessionID)
	if err != nil {
		return nil, "", err
	}
	return doc.Content, doc.Filename, nil
}
