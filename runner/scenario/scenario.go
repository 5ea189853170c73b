// Package scenario turns fixture rows into lead-creation cases and runs them.
package scenario

import (
	"context"
	"fmt"

	"github.com/gate4ai/leadsuite/runner/pages"
	"github.com/gate4ai/leadsuite/shared/config"
	"github.com/gate4ai/leadsuite/shared/fakedata"
	"github.com/gate4ai/leadsuite/shared/fixture"
)

// Fixture columns read by a case.
const (
	ColSalutation = "Salutation"
	ColLeadSource = "Lead Source"
	ColIndustry   = "Industry"
	ColRating     = "Rating"
	ColLeadStatus = "Lead Status"
	ColStreet     = "Street"
	ColCity       = "City"
	ColPostalCode = "Postal Code"
	ColState      = "State"
	ColCountry    = "Country"
)

// Columns lists the fixture columns in their conventional order.
var Columns = []string{
	ColSalutation, ColLeadSource, ColIndustry, ColRating, ColLeadStatus,
	ColStreet, ColCity, ColPostalCode, ColState, ColCountry,
}

// Lead is the fixture-driven part of a new lead.
type Lead struct {
	Salutation string
	LeadSource string
	Industry   string
	Rating     string
	LeadStatus string
	Street     string
	City       string
	PostalCode string
	State      string
	Country    string
}

// LeadFromRow reads a lead from row. Missing columns read as "".
func LeadFromRow(row fixture.Row) Lead {
	return Lead{
		Salutation: row.Value(ColSalutation),
		LeadSource: row.Value(ColLeadSource),
		Industry:   row.Value(ColIndustry),
		Rating:     row.Value(ColRating),
		LeadStatus: row.Value(ColLeadStatus),
		Street:     row.Value(ColStreet),
		City:       row.Value(ColCity),
		PostalCode: row.Value(ColPostalCode),
		State:      row.Value(ColState),
		Country:    row.Value(ColCountry),
	}
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// Name is the case name for the lead at zero-based index.
func Name(index int, lead Lead) string {
	return fmt.Sprintf("Lead Creation [%d] | %s (%s, %s, %s) [Row %d]",
		index+1,
		or(lead.Salutation, "NoSalutation"),
		or(lead.LeadSource, "NoLeadSource"),
		or(lead.Industry, "NoIndustry"),
		or(lead.Rating, "NoRating"),
		index)
}

// Case is one independent unit of work.
type Case struct {
	Index int
	Name  string
	Row   fixture.Row
	Lead  Lead
	// Repeat is the zero-based repetition the runner is executing.
	Repeat int
}

// Plan returns one case per table row, in row order.
func Plan(table *fixture.Table) []Case {
	rows := table.Rows()
	cases := make([]Case, 0, len(rows))
	for i, row := range rows {
		lead := LeadFromRow(row)
		cases = append(cases, Case{Index: i, Name: Name(i, lead), Row: row, Lead: lead})
	}
	return cases
}

// Created reports the synthetic values a CreateLead attempt entered.
type Created struct {
	FirstName string
	LastName  string
	Company   string
}

// CreateLead logs in, opens Leads through the App Launcher, fills the New Lead form from
// lead plus fresh synthetic names and verifies the saved record. Names are drawn from gen
// on every call so a retried attempt never reuses a previous attempt's data.
func CreateLead(ctx context.Context, p *pages.Pages, creds config.Credentials, lead Lead, gen fakedata.Generator) (Created, error) {
	created := Created{
		FirstName: gen.FirstName(),
		LastName:  gen.LastName(),
		Company:   gen.JobArea(),
	}

	steps := []func(ctx context.Context) error{
		func(ctx context.Context) error { return p.Login.Login(ctx, creds) },
		p.Login.VerifyHomeLabel,
		p.Home.OpenAppLauncher,
		p.Home.ViewAll,
		func(ctx context.Context) error { return p.Home.SearchApp(ctx, "Leads") },
		func(ctx context.Context) error { return p.Home.OpenApp(ctx, "Leads") },
		p.Lead.ClickNew,
		func(ctx context.Context) error { return p.Lead.SelectSalutation(ctx, lead.Salutation) },
		func(ctx context.Context) error { return p.Lead.EnterFirstName(ctx, created.FirstName) },
		func(ctx context.Context) error { return p.Lead.EnterLastName(ctx, created.LastName) },
		func(ctx context.Context) error { return p.Lead.EnterCompany(ctx, created.Company) },
		func(ctx context.Context) error { return p.Lead.SelectRating(ctx, lead.Rating) },
		func(ctx context.Context) error { return p.Lead.SelectLeadSource(ctx, lead.LeadSource) },
		func(ctx context.Context) error { return p.Lead.SelectLeadStatus(ctx, lead.LeadStatus) },
		func(ctx context.Context) error { return p.Lead.SelectIndustry(ctx, lead.Industry) },
		func(ctx context.Context) error { return p.Lead.EnterStreet(ctx, lead.Street) },
		func(ctx context.Context) error { return p.Lead.EnterCity(ctx, lead.City) },
		func(ctx context.Context) error { return p.Lead.EnterPostalCode(ctx, lead.PostalCode) },
		func(ctx context.Context) error { return p.Lead.EnterState(ctx, lead.State) },
		func(ctx context.Context) error { return p.Lead.EnterCountry(ctx, lead.Country) },
		p.Lead.Save,
		func(ctx context.Context) error { return p.Lead.VerifyLeadName(ctx, created.FirstName) },
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return created, err
		}
	}
	return created, nil
}
