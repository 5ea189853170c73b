package fakedata

import (
	"fmt"
	"time"
)

// Date helpers take the reference time explicitly and use calendar arithmetic, so month
// and year boundaries roll over instead of producing days like 10/32.

// Tomorrow formats now+1 day as M/D/YYYY.
func Tomorrow(now time.Time) string { return shortDate(now.AddDate(0, 0, 1)) }

// Today formats now as M/D/YYYY.
func Today(now time.Time) string { return shortDate(now) }

// NextMonth formats now+1 month+2 days as M/D/YYYY.
func NextMonth(now time.Time) string { return shortDate(now.AddDate(0, 1, 2)) }

// PastDate formats now-4 years-2 months-5 days as MM/DD/YYYY.
func PastDate(now time.Time) string { return paddedDate(now.AddDate(-4, -2, -5)) }

// FutureDate formats now+3 years+7 months+3 days as MM/DD/YYYY.
func FutureDate(now time.Time) string { return paddedDate(now.AddDate(3, 7, 3)) }

// FutureYear formats now+4 years-2 months-2 days as MM/DD/YYYY.
func FutureYear(now time.Time) string { return paddedDate(now.AddDate(4, -2, -2)) }

// CardExpiry formats now as MM/YY.
func CardExpiry(now time.Time) string { return now.Format("01/06") }

func shortDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", int(t.Month()), t.Day(), t.Year())
}

func paddedDate(t time.Time) string {
	return t.Format("01/02/2006")
}
