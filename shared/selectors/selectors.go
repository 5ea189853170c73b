// Package selectors holds the locator set page objects are built with.
package selectors

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Placeholder marks where a template locator takes its value.
const Placeholder = "{value}"

// Set maps every UI element the suite touches to a locator string.
// Fields tagged template:"true" must contain Placeholder.
type Set struct {
	Username           string `yaml:"username"`
	Password           string `yaml:"password"`
	LoginButton        string `yaml:"login_button"`
	AppLauncher        string `yaml:"app_launcher"`
	HomeLabel          string `yaml:"home_label"`
	ViewAllButton      string `yaml:"view_all_button"`
	AppSearchField     string `yaml:"app_search_field"`
	SaveButton         string `yaml:"save_button"`
	NewButton          string `yaml:"new_button"`
	Salutation         string `yaml:"salutation"`
	FirstName          string `yaml:"first_name"`
	LastName           string `yaml:"last_name"`
	Company            string `yaml:"company"`
	VerificationText   string `yaml:"verification_text"`
	SearchLeadInput    string `yaml:"search_lead_input"`
	LeadStatusDropdown string `yaml:"lead_status_dropdown"`
	IndustryDropdown   string `yaml:"industry_dropdown"`
	LeadSourceDropdown string `yaml:"lead_source_dropdown"`
	RatingDropdown     string `yaml:"rating_dropdown"`
	Street             string `yaml:"street"`
	City               string `yaml:"city"`
	PostalCode         string `yaml:"postal_code"`
	Province           string `yaml:"province"`
	Country            string `yaml:"country"`
	Spinner            string `yaml:"spinner"`

	AppOrItemTemplate       string `yaml:"app_or_item" template:"true"`
	SalutationValueTemplate string `yaml:"salutation_value" template:"true"`
	DropdownValueTemplate   string `yaml:"dropdown_value" template:"true"`
}

// Default returns the Lightning Experience locators.
func Default() Set {
	return Set{
		Username:           "#username",
		Password:           "#password",
		LoginButton:        "#Login",
		AppLauncher:        `button[title="App Launcher"]`,
		HomeLabel:          `//div[@class='setup-header-element']//span[text()='Home']`,
		ViewAllButton:      `//button[text()="View All"]`,
		AppSearchField:     "one-app-launcher-modal input.slds-input",
		SaveButton:         `//button[text()='Save']`,
		NewButton:          `div:text-is('New')`,
		Salutation:         "button[name='salutation']",
		FirstName:          "//label[text()='First Name']//following::input[1]",
		LastName:           "//label[text()='Last Name']//following::input[1]",
		Company:            "//label[text()='Company']//following::input[1]",
		VerificationText:   "slot[name='primaryField'] lightning-formatted-name",
		SearchLeadInput:    "div[class^='slds-form-element__control'] input",
		LeadStatusDropdown: "//label[text()='Lead Status']//following::button[1]",
		IndustryDropdown:   "//label[text()='Industry']//following::button[1]",
		LeadSourceDropdown: "//label[text()='Lead Source']//following::button[1]",
		RatingDropdown:     "//label[text()='Rating']//following::button[1]",
		Street:             `textarea[name="street"]`,
		City:               `input[name="city"]`,
		PostalCode:         `input[name="postalCode"]`,
		Province:           `input[name="province"]`,
		Country:            `input[name="country"]`,
		Spinner:            "//div[@class='slds-spinner_container slds-grid']",

		AppOrItemTemplate:       "//mark[text()='{value}']",
		SalutationValueTemplate: "span:text-is('{value}')",
		DropdownValueTemplate:   "//div[@role='listbox']//span[text()='{value}']",
	}
}

// Load overlays the YAML file at path on the default set. Keys absent from the file keep
// their default locator.
func Load(path string) (Set, error) {
	set := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("failed to read selectors %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &set); err != nil {
		return Set{}, fmt.Errorf("failed to parse selectors %s: %w", path, err)
	}
	if err := set.Validate(); err != nil {
		return Set{}, fmt.Errorf("selectors %s: %w", path, err)
	}
	return set, nil
}

// Validate reports empty locators and templates missing the placeholder.
func (s Set) Validate() error {
	var errs []error
	v := reflect.ValueOf(s)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i).String()
		name := field.Tag.Get("yaml")
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Errorf("locator %s is empty", name))
			continue
		}
		if field.Tag.Get("template") == "true" && !strings.Contains(value, Placeholder) {
			errs = append(errs, fmt.Errorf("template %s lacks %s", name, Placeholder))
		}
	}
	return errors.Join(errs...)
}

// AppOrItem locates an App Launcher search result.
func (s Set) AppOrItem(name string) string { return fill(s.AppOrItemTemplate, name) }

// SalutationValue locates an option of the salutation picker.
func (s Set) SalutationValue(value string) string { return fill(s.SalutationValueTemplate, value) }

// DropdownValue locates an option of an open listbox.
func (s Set) DropdownValue(value string) string { return fill(s.DropdownValueTemplate, value) }

func fill(template, value string) string {
	return strings.ReplaceAll(template, Placeholder, value)
}
