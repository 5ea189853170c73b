// Package pages exposes the CRM screens the suite drives as domain operations built on
// action.Actions.
package pages

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/gate4ai/leadsuite/runner/action"
	"github.com/gate4ai/leadsuite/shared/config"
	"github.com/gate4ai/leadsuite/shared/selectors"
)

// LoginPage signs in to the CRM.
type LoginPage struct {
	acts   *action.Actions
	sel    selectors.Set
	url    string
	logger *zap.Logger
}

func NewLoginPage(acts *action.Actions, sel selectors.Set, loginURL string, logger *zap.Logger) *LoginPage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginPage{acts: acts, sel: sel, url: loginURL, logger: logger}
}

// Login opens the login URL and signs in when the login form is shown. An already
// authenticated session lands elsewhere and the form is skipped.
func (p *LoginPage) Login(ctx context.Context, creds config.Credentials) error {
	if err := p.acts.Navigate(ctx, p.url); err != nil {
		return err
	}
	title, err := p.acts.Title(ctx)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(title, "Login") {
		p.logger.Info("Login skipped, session already authenticated", zap.String("title", title))
		return nil
	}

	if err := p.acts.Fill(ctx, p.sel.Username, "Username", creds.Username); err != nil {
		return err
	}
	if err := p.acts.Fill(ctx, p.sel.Password, "Password", creds.Password); err != nil {
		return err
	}
	if err := p.acts.Click(ctx, p.sel.LoginButton, "Login", "Button"); err != nil {
		return err
	}
	if err := p.acts.Wait(ctx, action.MediumWait); err != nil {
		return err
	}
	return p.acts.WaitVisible(ctx, p.sel.AppLauncher, "App Launcher")
}

// VerifyHomeLabel checks that the Home label is shown.
func (p *LoginPage) VerifyHomeLabel(ctx context.Context) error {
	if err := p.acts.WaitVisible(ctx, p.sel.HomeLabel, "Home Button"); err != nil {
		return err
	}
	text, err := p.acts.ReadText(ctx, p.sel.HomeLabel)
	if err != nil {
		return err
	}
	return p.acts.VerifyContains(ctx, text, "Home")
}
