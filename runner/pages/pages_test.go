package pages

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gate4ai/leadsuite/runner/action"
	"github.com/gate4ai/leadsuite/runner/action/actiontest"
	"github.com/gate4ai/leadsuite/shared/config"
	"github.com/gate4ai/leadsuite/shared/selectors"
)

const loginURL = "https://login.example.com"

type fixture struct {
	driver  *actiontest.Driver
	sleeper *actiontest.Sleeper
	steps   *action.Stepper
	sel     selectors.Set
	pages   *Pages
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	d := actiontest.New()
	s := &actiontest.Sleeper{}
	sel := selectors.Default()
	steps := action.NewStepper(logger)
	acts := action.New(d, steps, logger, action.Options{Sleep: s.Sleep})
	return &fixture{driver: d, sleeper: s, steps: steps, sel: sel, pages: New(acts, sel, loginURL, logger)}
}

func (f *fixture) show(locators ...string) {
	for _, l := range locators {
		f.driver.Set(l, actiontest.Element{})
	}
}

func TestLoginFillsForm(t *testing.T) {
	f := newFixture(t)
	f.driver.PageTitle = "Login | Salesforce"
	f.show(f.sel.Username, f.sel.Password, f.sel.LoginButton, f.sel.AppLauncher)

	err := f.pages.Login.Login(context.Background(), config.Credentials{Username: "admin@example.com", Password: "s3cret"})
	require.NoError(t, err)

	assert.Equal(t, loginURL, f.driver.URL)
	assert.Equal(t, "admin@example.com", f.driver.Element(f.sel.Username).Value)
	assert.Equal(t, "s3cret", f.driver.Element(f.sel.Password).Value)
	assert.Equal(t, []string{"wait", "click"}, f.driver.CallsFor(f.sel.LoginButton))
	assert.Equal(t, []string{"wait"}, f.driver.CallsFor(f.sel.AppLauncher))
	assert.Equal(t, []time.Duration{5 * time.Second}, f.sleeper.Slept)
}

func TestLoginSkippedWhenAuthenticated(t *testing.T) {
	f := newFixture(t)
	f.driver.PageTitle = "Home | Salesforce"

	require.NoError(t, f.pages.Login.Login(context.Background(), config.Credentials{Username: "u", Password: "p"}))
	assert.Equal(t, []string{"navigate", "load", "title"}, f.driver.Ops())
	assert.Empty(t, f.sleeper.Slept)
}

func TestLoginFailsWithoutAppLauncher(t *testing.T) {
	f := newFixture(t)
	f.driver.PageTitle = "Login | Salesforce"
	f.show(f.sel.Username, f.sel.Password, f.sel.LoginButton)

	err := f.pages.Login.Login(context.Background(), config.Credentials{Username: "u", Password: "bad"})
	assert.ErrorIs(t, err, action.ErrTimeout)

	var ae *action.ActionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "App Launcher", ae.Element)
}

func TestVerifyHomeLabel(t *testing.T) {
	f := newFixture(t)
	f.driver.Set(f.sel.HomeLabel, actiontest.Element{Text: "Home"})
	require.NoError(t, f.pages.Login.VerifyHomeLabel(context.Background()))

	f.driver.Element(f.sel.HomeLabel).Text = "Setup"
	f.steps.Reset()
	assert.ErrorIs(t, f.pages.Login.VerifyHomeLabel(context.Background()), action.ErrTextMismatch)

	steps := f.steps.Steps()
	require.NotEmpty(t, steps)
	last := steps[len(steps)-1]
	assert.Equal(t, `Verify that actual text "Setup" contains expected text "Home"`, last.Name)
	assert.ErrorIs(t, last.Err, action.ErrTextMismatch)
}

func TestHomeNavigation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.show(f.sel.AppLauncher, f.sel.ViewAllButton, f.sel.AppSearchField, f.sel.AppOrItem("Leads"))

	require.NoError(t, f.pages.Home.OpenAppLauncher(ctx))
	require.NoError(t, f.pages.Home.ViewAll(ctx))
	require.NoError(t, f.pages.Home.SearchApp(ctx, "Leads"))
	require.NoError(t, f.pages.Home.OpenApp(ctx, "Leads"))

	assert.Equal(t, []string{"wait", "highlight", "wait", "click"}, f.driver.CallsFor(f.sel.ViewAllButton))
	assert.Equal(t, "Leads", f.driver.Element(f.sel.AppSearchField).Value)
	assert.Equal(t, []string{"wait", "click"}, f.driver.CallsFor("//mark[text()='Leads']"))
}

func TestDropdownSelection(t *testing.T) {
	f := newFixture(t)
	f.show(f.sel.RatingDropdown)
	option := f.sel.DropdownValue("Warm")
	f.driver.OnClick[f.sel.RatingDropdown] = func(d *actiontest.Driver) {
		d.Set(option, actiontest.Element{})
	}

	require.NoError(t, f.pages.Lead.SelectRating(context.Background(), "Warm"))
	assert.Equal(t, []string{"wait", "click"}, f.driver.CallsFor(option))

	err := f.pages.Lead.SelectIndustry(context.Background(), "Banking")
	var ae *action.ActionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Industry Dropdown", ae.Element)
}

func TestFormFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.show(f.sel.FirstName, f.sel.LastName, f.sel.Company, f.sel.Street, f.sel.City,
		f.sel.PostalCode, f.sel.Province, f.sel.Country, f.sel.SaveButton,
		f.sel.Salutation, f.sel.SalutationValue("Mr."), f.sel.NewButton)

	require.NoError(t, f.pages.Lead.ClickNew(ctx))
	require.NoError(t, f.pages.Lead.SelectSalutation(ctx, "Mr."))
	require.NoError(t, f.pages.Lead.EnterFirstName(ctx, "Jane"))
	require.NoError(t, f.pages.Lead.EnterLastName(ctx, "Doe"))
	require.NoError(t, f.pages.Lead.EnterCompany(ctx, "Paradigm"))
	require.NoError(t, f.pages.Lead.EnterStreet(ctx, "1 Main St"))
	require.NoError(t, f.pages.Lead.EnterCity(ctx, "Springfield"))
	require.NoError(t, f.pages.Lead.EnterPostalCode(ctx, "12345"))
	require.NoError(t, f.pages.Lead.EnterState(ctx, "IL"))
	require.NoError(t, f.pages.Lead.EnterCountry(ctx, "USA"))
	require.NoError(t, f.pages.Lead.Save(ctx))

	values := map[string]string{
		f.sel.FirstName:  "Jane",
		f.sel.LastName:   "Doe",
		f.sel.Company:    "Paradigm",
		f.sel.Street:     "1 Main St",
		f.sel.City:       "Springfield",
		f.sel.PostalCode: "12345",
		f.sel.Province:   "IL",
		f.sel.Country:    "USA",
	}
	for loc, want := range values {
		assert.Equal(t, want, f.driver.Element(loc).Value, loc)
	}
	assert.Equal(t, []string{"wait", "click"}, f.driver.CallsFor(f.sel.SaveButton))
}

func TestSearchLead(t *testing.T) {
	f := newFixture(t)
	f.show(f.sel.SearchLeadInput)

	require.NoError(t, f.pages.Lead.SearchLead(context.Background(), "Jane"))
	assert.Equal(t, []string{"wait", "wait", "clear", "type", "press"}, f.driver.CallsFor(f.sel.SearchLeadInput))
}

func TestVerifyLeadName(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
		ok       bool
	}{
		{"second token matches", "Mr. Jane Doe", "Jane", true},
		{"different first name", "Mr. John Doe", "Jane", false},
		{"no salutation shifts tokens", "Jane Doe", "Jane", false},
		{"single token", "Jane", "Jane", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.driver.Set(f.sel.VerificationText, actiontest.Element{Text: tt.text})

			err := f.pages.Lead.VerifyLeadName(context.Background(), tt.expected)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, action.ErrTextMismatch)
		})
	}
}
