//go:build e2e

package tests

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gate4ai/leadsuite/runner/scenario"
	"github.com/gate4ai/leadsuite/stubcrm"
)

func TestLeadCreation(t *testing.T) {
	cases := scenario.Plan(leads)
	require.NotEmpty(t, cases)

	parallel := suite.Run.Workers > 1
	slots := make(chan struct{}, suite.Run.Workers)

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			if parallel {
				t.Parallel()
			}
			slots <- struct{}{}
			defer func() { <-slots }()

			runner := scenario.Runner{
				Workers:    1,
				Retries:    suite.Run.Retries,
				RepeatEach: suite.Run.RepeatEach,
				Timeout:    suite.Timeouts.Test,
				Logger:     logger,

				RetryBackoff: suite.Run.RetryBackoff,
				Limiter:      starts,
			}
			results := runner.Run(context.Background(), []scenario.Case{c}, live.Attempt)
			for _, r := range results {
				if !r.Passed() {
					t.Errorf("%s failed after %d attempt(s): %v", r.Name(len(results)), r.Attempts, r.Err)
				}
			}
			if t.Failed() || stub == nil {
				return
			}

			saved := slices.ContainsFunc(stub.Leads(), func(l stubcrm.Lead) bool {
				return l.Salutation == c.Lead.Salutation &&
					l.LeadStatus == c.Lead.LeadStatus &&
					l.Street == c.Lead.Street &&
					l.City == c.Lead.City
			})
			assert.True(t, saved, "stub CRM has no lead matching row %d", c.Index)
		})
	}
}
