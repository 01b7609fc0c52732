package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/restaurant/internal/client/models"
	"github.com/dmitrijs2005/restaurant/internal/client/router"
	"github.com/dmitrijs2005/restaurant/internal/client/session"
	"github.com/dmitrijs2005/restaurant/internal/common"
)

// getSimpleText, getPassword and getLines are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getLines      = GetLines
)

// Login prompts for credentials, signs in with durable persistence and
// opens the dashboard once the session stream carries the new user. When
// someone else was signed in, their replayed session is not enough.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	creds := models.Credentials{Email: email, Password: string(password)}
	if err := models.Validate(creds); err != nil {
		return a.report(err)
	}

	id, err := a.sessions.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		a.logger.Info(ctx, "login failed", "error", err)
		printlnFn(session.Message(err))
		return err
	}
	if err := a.awaitSession(ctx, id); err != nil {
		return a.report(err)
	}
	printlnFn("Login successful")
	return a.Navigate(ctx, router.PathDashboard)
}

// Register prompts for a username and credentials and creates the account.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	reg := models.Registration{Username: username, Email: email, Password: string(password)}
	if err := models.Validate(reg); err != nil {
		return a.report(err)
	}

	id, err := a.sessions.Register(ctx, reg.Email, reg.Password, reg.Username)
	if err != nil {
		a.logger.Info(ctx, "registration failed", "error", err)
		printlnFn(session.Message(err))
		return err
	}
	if err := a.awaitSession(ctx, id); err != nil {
		return a.report(err)
	}
	printlnFn("Account created")
	return a.Navigate(ctx, router.PathDashboard)
}

// Logout signs out and returns to the login screen.
func (a *App) Logout(ctx context.Context) error {
	if err := a.sessions.Logout(ctx); err != nil {
		return a.report(err)
	}
	if err := a.awaitSession(ctx, nil); err != nil {
		return a.report(err)
	}
	printlnFn("Logged out")
	return a.Navigate(ctx, router.PathLogin)
}

// report prints err for the user and returns it. Validation errors are
// listed field by field.
func (a *App) report(err error) error {
	if err == nil {
		return nil
	}
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		for _, f := range verr.Fields {
			printlnFn(fmt.Sprintf("  %s %s", f.Field, f.Message))
		}
		return err
	}
	printlnFn("Error: " + err.Error())
	return err
}

func (a *App) text(prompt, def string) (string, error) {
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]", prompt, def)
	}
	v, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	return withDefault(v, def), nil
}

func (a *App) lines(prompt string) ([]string, error) {
	return getLines(a.reader, prompt, a.out)
}
