package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dmitrijs2005/neuroresume/internal/client/client"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	NewSession(ctx context.Context, args []string) error
	Sessions(ctx context.Context, args []string) error
	Use(ctx context.Context, args []string) error
	Say(ctx context.Context, text string) error
	History(ctx context.Context) error
	Complete(ctx context.Context) error
	Download(ctx context.Context, args []string) error
}

// runREPL reads commands line by line from reader and dispatches them to a.
// It returns on EOF or on "exit"/"quit". Command errors are printed and the
// loop continues.
//
//	Not logged in:  register, login, help, exit
//	Logged in:      new [ru|en], sessions [page], use <id>, say <text>,
//	                history, complete, download [file], logout, help, exit
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("nr %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		if err := dispatch(ctx, a, cmd, args, line); err != nil {
			printError(err)
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string, line string) error {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn("Available commands: new [ru|en], sessions [page], use <id>, say <text>, history, complete, download [file], logout, exit")
		} else {
			printlnFn("Available commands: register, login, exit")
		}
		return nil
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	}

	if !a.isLoggedIn() {
		switch cmd {
		case "logout", "new", "sessions", "use", "say", "history", "complete", "download":
			return client.ErrNotLoggedIn
		}
	}

	switch cmd {
	case "logout":
		return a.Logout(ctx)
	case "new":
		return a.NewSession(ctx, args)
	case "sessions":
		return a.Sessions(ctx, args)
	case "use":
		return a.Use(ctx, args)
	case "say":
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "say"))
		if text == "" {
			printlnFn("Usage: say <text>")
			return nil
		}
		return a.Say(ctx, text)
	case "history":
		return a.History(ctx)
	case "complete":
		return a.Complete(ctx)
	case "download":
		return a.Download(ctx, args)
	default:
		printlnFn("Unknown command:", cmd)
		return nil
	}
}

func printError(err error) {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		printlnFn("Error:", err.Error())
		return
	}

	printlnFn("Error:", apiErr.Error())
	fields := make([]string, 0, len(apiErr.Details))
	for f := range apiErr.Details {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		printlnFn(fmt.Sprintf("  %s: %s", f, apiErr.Details[f]))
	}
	if apiErr.CorrelationID != "" {
		printlnFn("  correlation id:", apiErr.CorrelationID)
	}
}
