package pages

import (
	"context"
	"strings"

	"github.com/gate4ai/leadsuite/runner/action"
	"github.com/gate4ai/leadsuite/shared/selectors"
)

// LeadPage drives the Leads list, the New Lead form and the lead record.
type LeadPage struct {
	acts *action.Actions
	sel  selectors.Set
}

func NewLeadPage(acts *action.Actions, sel selectors.Set) *LeadPage {
	return &LeadPage{acts: acts, sel: sel}
}

func (p *LeadPage) ClickNew(ctx context.Context) error {
	if err := p.acts.WaitVisible(ctx, p.sel.NewButton, "New Button"); err != nil {
		return err
	}
	return p.acts.Click(ctx, p.sel.NewButton, "New", "Button")
}

func (p *LeadPage) SelectSalutation(ctx context.Context, value string) error {
	if err := p.acts.Click(ctx, p.sel.Salutation, "Salutation", "Button"); err != nil {
		return err
	}
	return p.acts.Click(ctx, p.sel.SalutationValue(value), "Salutation Value", "Button")
}

func (p *LeadPage) EnterFirstName(ctx context.Context, value string) error {
	return p.acts.Fill(ctx, p.sel.FirstName, "First Name", value)
}

func (p *LeadPage) EnterLastName(ctx context.Context, value string) error {
	return p.acts.Fill(ctx, p.sel.LastName, "Last Name", value)
}

func (p *LeadPage) EnterCompany(ctx context.Context, value string) error {
	return p.acts.Fill(ctx, p.sel.Company, "Company", value)
}

// pick opens a lightning combobox and chooses value from its listbox.
func (p *LeadPage) pick(ctx context.Context, button, name, value string) error {
	if err := p.acts.Click(ctx, button, name, "Button"); err != nil {
		return err
	}
	return p.acts.Click(ctx, p.sel.DropdownValue(value), value, "Button")
}

func (p *LeadPage) SelectRating(ctx context.Context, value string) error {
	return p.pick(ctx, p.sel.RatingDropdown, "Rating", value)
}

func (p *LeadPage) SelectLeadSource(ctx context.Context, value string) error {
	return p.pick(ctx, p.sel.LeadSourceDropdown, "Lead Source Dropdown", value)
}

func (p *LeadPage) SelectIndustry(ctx context.Context, value string) error {
	return p.pick(ctx, p.sel.IndustryDropdown, "Industry Dropdown", value)
}

func (p *LeadPage) SelectLeadStatus(ctx context.Context, value string) error {
	return p.pick(ctx, p.sel.LeadStatusDropdown, "Lead Status Dropdown", value)
}

func (p *LeadPage) EnterStreet(ctx context.Context, value string) error {
	return p.acts.Fill(ctx, p.sel.Street, "Street", value)
}

func (p *LeadPage) EnterCity(ctx context.Context, value string) error {
	return p.acts.Fill(ctx, p.sel.City, "City", value)
}

func (p *LeadPage) EnterPostalCode(ctx context.Context, value string) error {
	return p.acts.Fill(ctx, p.sel.PostalCode, "Postal Code", value)
}

func (p *LeadPage) EnterState(ctx context.Context, value string) error {
	return p.acts.Fill(ctx, p.sel.Province, "State", value)
}

func (p *LeadPage) EnterCountry(ctx context.Context, value string) error {
	return p.acts.Fill(ctx, p.sel.Country, "Country", value)
}

func (p *LeadPage) Save(ctx context.Context) error {
	return p.acts.Click(ctx, p.sel.SaveButton, "Save", "Button")
}

// SearchLead types value into the list search box and submits it.
func (p *LeadPage) SearchLead(ctx context.Context, value string) error {
	if err := p.acts.WaitVisible(ctx, p.sel.SearchLeadInput, "Search Field"); err != nil {
		return err
	}
	return p.acts.TypeAndSubmit(ctx, p.sel.SearchLeadInput, "Search Field", value)
}

// VerifyLeadName checks the first name on the saved record. The record shows
// "<Salutation> <First> <Last>", so the second word is compared.
func (p *LeadPage) VerifyLeadName(ctx context.Context, expected string) error {
	if err := p.acts.WaitVisible(ctx, p.sel.VerificationText, "Lead Name"); err != nil {
		return err
	}
	name, err := p.acts.ReadText(ctx, p.sel.VerificationText)
	if err != nil {
		return err
	}
	var first string
	if parts := strings.Split(name, " "); len(parts) >= 2 {
		first = strings.TrimSpace(parts[1])
	}
	return p.acts.VerifyExactMatch(ctx, first, expected)
}
