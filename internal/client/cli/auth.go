package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/neuroresume/internal/client/client"
	"github.com/dmitrijs2005/neuroresume/internal/common"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for the sign-up form and creates the account. The server
// logs the new user in straight away.
func (a *App) Register(ctx context.Context) error {
	var req client.RegisterRequest
	var err error

	if req.Username, err = getSimpleText(a.reader, "Enter username", a.out); err != nil {
		return err
	}
	if req.Email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	req.Password = string(password)

	if req.FirstName, err = getSimpleText(a.reader, "First name (optional)", a.out); err != nil {
		return err
	}
	if req.LastName, err = getSimpleText(a.reader, "Last name (optional)", a.out); err != nil {
		return err
	}

	res, err := a.api.Register(ctx, req)
	if err != nil {
		return err
	}

	a.userName = res.User.Username
	a.sessionID = ""
	fmt.Fprintf(a.out, "Registered and logged in as %s\n", res.User.Username)
	return nil
}

// Login prompts for credentials and authenticates.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res, err := a.api.Login(ctx, userName, string(password))
	if err != nil {
		return err
	}

	a.userName = res.User.Username
	a.sessionID = ""
	fmt.Fprintf(a.out, "Logged in as %s (token valid until %s)\n", res.User.Username, res.Token.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

// Logout revokes the token. Local state is cleared even if the call fails.
func (a *App) Logout(ctx context.Context) error {
	err := a.api.Logout(ctx)
	a.userName = ""
	a.sessionID = ""
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
