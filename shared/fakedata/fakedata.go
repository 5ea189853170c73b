// Package fakedata produces random but well-formed values for lead forms.
//
// Every value comes from a seedable source so a run can be replayed: two generators
// built with the same non-zero seed return the same sequence.
package fakedata

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/brianvoe/gofakeit/v7"
)

// Generator is the synthetic-data capability page flows depend on.
type Generator interface {
	FirstName() string
	LastName() string
	Organization() string
	Year() string
	MobileNumber() string
	Email() string
	Address() string
	City() string
	Street() string
	PinCode() string
	State() string
	Country() string
	AddressName() string
	Website() string
	AwardName() string
	JobRole() string
	EquipmentName() string
	TagName() string
	LocationName() string
	UserID() string
	EmployeeID() string
	JobArea() string
	Duration() string
	Description() string
	CreditCardNumber() string
	CVV() string
	Score() string
	CreditScore() int
	PONumber() string
	CCNumber() string
}

var awardNames = []string{"Excellency Award", "Leadership Award", "Trailblazer Award", "Pioneer Award"}

var materials = []string{"Bamboo", "Cotton", "Granite", "Leather", "Plastic", "Rubber", "Steel", "Wooden"}

const (
	minCreditScore = 300
	maxCreditScore = 850

	minScore  = 50
	maxScore  = 100
	scoreStep = 5

	descriptionWords = 12
)

// Faker is the gofakeit-backed Generator. It is not safe for concurrent use; give every
// scenario its own instance.
type Faker struct {
	f    *gofakeit.Faker
	seed uint64
}

var _ Generator = (*Faker)(nil)

// New returns a generator seeded with seed. A zero seed picks a random one.
func New(seed uint64) *Faker {
	return &Faker{f: gofakeit.New(seed), seed: seed}
}

// Seed returns the seed the generator was built with.
func (g *Faker) Seed() uint64 { return g.seed }

func (g *Faker) FirstName() string { return g.f.FirstName() }

func (g *Faker) LastName() string { return g.f.LastName() }

// Organization is a capitalized buzzword.
func (g *Faker) Organization() string { return capitalize(g.f.BuzzWord()) }

// Year is two years before a random date's year.
func (g *Faker) Year() string { return fmt.Sprintf("%d", g.f.Date().Year()-2) }

// MobileNumber is ten digits starting with 7, 8 or 9.
func (g *Faker) MobileNumber() string {
	return fmt.Sprintf("%d%s", g.f.IntRange(7, 9), g.digits(9))
}

func (g *Faker) Email() string { return g.f.Email() }

func (g *Faker) Address() string { return g.f.Street() }

func (g *Faker) City() string { return g.f.City() }

func (g *Faker) Street() string { return g.f.StreetName() }

// PinCode is a six digit postal code.
func (g *Faker) PinCode() string { return g.digits(6) }

func (g *Faker) State() string { return g.f.State() }

func (g *Faker) Country() string { return g.f.Country() }

func (g *Faker) AddressName() string {
	return fmt.Sprintf("%s %s County", g.f.CountryAbr(), g.f.City())
}

func (g *Faker) Website() string { return g.f.URL() }

func (g *Faker) AwardName() string { return g.f.RandomString(awardNames) }

func (g *Faker) JobRole() string { return g.f.JobTitle() }

func (g *Faker) EquipmentName() string { return g.f.RandomString(materials) }

func (g *Faker) TagName() string { return g.f.HackerNoun() }

func (g *Faker) LocationName() string { return g.f.StreetName() }

// UserID is an email address derived from a fresh first name.
func (g *Faker) UserID() string {
	return fmt.Sprintf("%s.%s@%s", localPart(g.f.FirstName()), localPart(g.f.LastName()), g.f.DomainName())
}

// EmployeeID looks like EMP-0042.
func (g *Faker) EmployeeID() string { return "EMP-" + g.digits(4) }

// JobArea is the short business area name used as a lead's company.
func (g *Faker) JobArea() string { return g.f.JobLevel() }

// Duration is the hour of a random future date.
func (g *Faker) Duration() string { return fmt.Sprintf("%d", g.f.FutureDate().Hour()) }

func (g *Faker) Description() string {
	words := make([]string, descriptionWords)
	for i := range words {
		words[i] = g.f.Word()
	}
	return capitalize(strings.Join(words, " ")) + "."
}

func (g *Faker) CreditCardNumber() string { return g.f.CreditCardNumber(nil) }

func (g *Faker) CVV() string { return g.f.CreditCardCvv() }

// Score is a multiple of 5 between 50 and 100.
func (g *Faker) Score() string {
	steps := (maxScore - minScore) / scoreStep
	return fmt.Sprintf("%d", minScore+g.f.IntRange(0, steps)*scoreStep)
}

// CreditScore is within the usual 300..850 range.
func (g *Faker) CreditScore() int { return g.f.IntRange(minCreditScore, maxCreditScore) }

// PONumber is 12, 13 or 14 followed by six digits.
func (g *Faker) PONumber() string {
	return fmt.Sprintf("%d%s", g.f.IntRange(12, 14), g.digits(6))
}

// CCNumber is 10, 11 or 12 followed by six digits.
func (g *Faker) CCNumber() string {
	return fmt.Sprintf("%d%s", g.f.IntRange(10, 12), g.digits(6))
}

// Pick returns one of options, or "" when there are none.
func (g *Faker) Pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return g.f.RandomString(options)
}

func (g *Faker) digits(n int) string {
	return g.f.Numerify(strings.Repeat("#", n))
}

func localPart(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, name)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
