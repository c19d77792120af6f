package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/dmitrijs2005/neuroresume/internal/client/client"
	"github.com/dmitrijs2005/neuroresume/internal/client/config"
)

// App holds CLI state: the API client, the logged-in user and the session
// that say/history/complete/download act on.
type App struct {
	config    *config.Config
	api       client.Client
	http      *http.Client
	reader    *bufio.Reader
	out       io.Writer
	userName  string
	sessionID string
}

func NewApp(c *config.Config) (*App, error) {
	if c.ServerURL == "" {
		return nil, errors.New("server URL is empty")
	}
	api := client.NewHTTPClient(c.ServerURL, c.APIPrefix, c.RequestTimeout)
	return newApp(c, api, bufio.NewReader(os.Stdin), os.Stdout), nil
}

func newApp(c *config.Config, api client.Client, reader *bufio.Reader, out io.Writer) *App {
	return &App{
		config: c,
		api:    api,
		http:   &http.Client{Timeout: c.RequestTimeout},
		reader: reader,
		out:    out,
	}
}

// Run checks the server and starts the REPL. It returns when the user exits
// or input ends.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to NeuroResume CLI (type 'help' for commands)")
	if err := a.api.Health(ctx); err != nil {
		fmt.Fprintf(a.out, "Warning: %s is not reachable: %v\n", a.config.ServerURL, err)
	}

	runREPL(ctx, a, a.status, a.reader)

	if a.api.LoggedIn() {
		_ = a.api.Logout(context.WithoutCancel(ctx))
	}
}

func (a *App) isLoggedIn() bool {
	return a.api.LoggedIn()
}

func (a *App) status() string {
	parts := make([]string, 0, 2)
	if a.userName != "" {
		parts = append(parts, a.userName)
	}
	if a.sessionID != "" {
		parts = append(parts, shortID(a.sessionID))
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " "))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
