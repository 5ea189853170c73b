package stubcrm

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Lead is a saved lead record.
type Lead struct {
	ID         string    `json:"id"`
	Salutation string    `json:"salutation,omitempty"`
	FirstName  string    `json:"firstName,omitempty"`
	LastName   string    `json:"lastName"`
	Company    string    `json:"company"`
	LeadStatus string    `json:"leadStatus,omitempty"`
	Rating     string    `json:"rating,omitempty"`
	LeadSource string    `json:"leadSource,omitempty"`
	Industry   string    `json:"industry,omitempty"`
	Street     string    `json:"street,omitempty"`
	City       string    `json:"city,omitempty"`
	PostalCode string    `json:"postalCode,omitempty"`
	State      string    `json:"state,omitempty"`
	Country    string    `json:"country,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FullName is the record title: salutation, first and last name separated by spaces.
func (l Lead) FullName() string {
	var parts []string
	for _, p := range []string{l.Salutation, l.FirstName, l.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Picklist values offered by the lead form.
var Picklists = map[string][]string{
	"salutation": {"Mr.", "Ms.", "Mrs.", "Dr.", "Prof.", "Mx."},
	"leadStatus": {"Open - Not Contacted", "Working - Contacted", "Closed - Converted", "Closed - Not Converted"},
	"rating":     {"Hot", "Warm", "Cold"},
	"leadSource": {"Web", "Phone Inquiry", "Partner Referral", "Purchased List", "Other"},
	"industry": {
		"Agriculture", "Apparel", "Banking", "Biotechnology", "Chemicals", "Communications",
		"Construction", "Consulting", "Education", "Electronics", "Energy", "Engineering",
		"Entertainment", "Environmental", "Finance", "Food & Beverage", "Government",
		"Healthcare", "Hospitality", "Insurance", "Machinery", "Manufacturing", "Media",
		"Not For Profit", "Recreation", "Retail", "Shipping", "Technology",
		"Telecommunications", "Transportation", "Utilities", "Other",
	},
}

// Validate checks required fields and picklist values.
func (l Lead) Validate() error {
	if strings.TrimSpace(l.LastName) == "" {
		return fmt.Errorf("Last Name is required")
	}
	if strings.TrimSpace(l.Company) == "" {
		return fmt.Errorf("Company is required")
	}
	for field, value := range map[string]string{
		"salutation": l.Salutation,
		"leadStatus": l.LeadStatus,
		"rating":     l.Rating,
		"leadSource": l.LeadSource,
		"industry":   l.Industry,
	} {
		if value != "" && !slices.Contains(Picklists[field], value) {
			return fmt.Errorf("%q is not a valid %s", value, field)
		}
	}
	return nil
}

func (l Lead) matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.FullName()), q) ||
		strings.Contains(strings.ToLower(l.Company), q)
}
