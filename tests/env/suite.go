package env

import (
	"github.com/gate4ai/leadsuite/shared/config"
	"github.com/gate4ai/leadsuite/stubcrm"
)

// RegisterSuite adds what a run of cfg needs: the stub CRM when useStub, a playwright
// server container when one is requested without an endpoint, and playwright itself.
func (e *Envs) RegisterSuite(cfg *config.Suite, useStub bool, stubOpts ...stubcrm.Option) {
	if useStub {
		e.Register(NewStubCRMEnv(e.logger, stubOpts...))
	}
	if remoteContainer(cfg) {
		e.Register(NewRemoteBrowserEnv(cfg.Browser.Image, e.logger))
	}
	e.Register(NewPlaywrightEnv(cfg.Browser, e.logger))
}

func remoteContainer(cfg *config.Suite) bool {
	return cfg.Browser.Remote == config.RemoteContainer && cfg.Browser.Endpoint == ""
}

// LoginURL is where the browser logs in: the stub CRM when it is registered, as seen from
// the browser, otherwise the configured base URL.
func (e *Envs) LoginURL(cfg *config.Suite) string {
	if _, ok := e.GetComponent(StubCRMComponentName); !ok {
		return cfg.BaseURL
	}
	u := e.GetURL(StubCRMComponentName)
	if remoteContainer(cfg) {
		return ContainerURL(u)
	}
	return u
}

// Playwright returns the started playwright driver and browser.
func (e *Envs) Playwright() (*PlaywrightDetails, bool) {
	d, ok := e.GetDetails(PlaywrightComponentName).(*PlaywrightDetails)
	return d, ok
}

// StubCRM returns the running stub server, or nil when none is registered.
func (e *Envs) StubCRM() *stubcrm.Server {
	if _, ok := e.GetComponent(StubCRMComponentName); !ok {
		return nil
	}
	s, _ := e.GetDetails(StubCRMComponentName).(*stubcrm.Server)
	return s
}
