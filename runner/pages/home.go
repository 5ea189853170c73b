package pages

import (
	"context"

	"github.com/gate4ai/leadsuite/runner/action"
	"github.com/gate4ai/leadsuite/shared/selectors"
)

// HomePage drives the App Launcher.
type HomePage struct {
	acts *action.Actions
	sel  selectors.Set
}

func NewHomePage(acts *action.Actions, sel selectors.Set) *HomePage {
	return &HomePage{acts: acts, sel: sel}
}

func (p *HomePage) OpenAppLauncher(ctx context.Context) error {
	if err := p.acts.WaitVisible(ctx, p.sel.AppLauncher, "App Launcher"); err != nil {
		return err
	}
	return p.acts.Click(ctx, p.sel.AppLauncher, "App Launcher", "Button")
}

func (p *HomePage) ViewAll(ctx context.Context) error {
	if err := p.acts.WaitAttached(ctx, p.sel.ViewAllButton, "View All"); err != nil {
		return err
	}
	if err := p.acts.Highlight(ctx, p.sel.ViewAllButton, "View All"); err != nil {
		return err
	}
	return p.acts.Click(ctx, p.sel.ViewAllButton, "View All", "Button")
}

func (p *HomePage) SearchApp(ctx context.Context, name string) error {
	return p.acts.Fill(ctx, p.sel.AppSearchField, "Search Field", name)
}

// OpenApp clicks the launcher result named name.
func (p *HomePage) OpenApp(ctx context.Context, name string) error {
	return p.acts.Click(ctx, p.sel.AppOrItem(name), name, "Button")
}
