package pages

import (
	"go.uber.org/zap"

	"github.com/gate4ai/leadsuite/runner/action"
	"github.com/gate4ai/leadsuite/shared/selectors"
)

// Pages bundles the page objects of one session.
type Pages struct {
	Login *LoginPage
	Home  *HomePage
	Lead  *LeadPage
}

func New(acts *action.Actions, sel selectors.Set, loginURL string, logger *zap.Logger) *Pages {
	return &Pages{
		Login: NewLoginPage(acts, sel, loginURL, logger),
		Home:  NewHomePage(acts, sel),
		Lead:  NewLeadPage(acts, sel),
	}
}
