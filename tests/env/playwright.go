package env

import (
	"context"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/gate4ai/leadsuite/runner/session"
	"github.com/gate4ai/leadsuite/shared/config"
	"github.com/gate4ai/leadsuite/shared/logging"
)

const PlaywrightComponentName = "playwright"

// PlaywrightDetails is what tests need to open sessions.
type PlaywrightDetails struct {
	Playwright *playwright.Playwright
	Browser    playwright.Browser
}

// PlaywrightEnv runs the playwright driver and launches, or connects to, the browser.
type PlaywrightEnv struct {
	BaseEnv
	cfg    config.BrowserConfig
	logger *zap.Logger

	mu      sync.RWMutex
	details *PlaywrightDetails
}

func NewPlaywrightEnv(cfg config.BrowserConfig, logger *zap.Logger) *PlaywrightEnv {
	logger = logging.OrNop(logger)
	return &PlaywrightEnv{
		BaseEnv: BaseEnv{name: PlaywrightComponentName},
		cfg:     cfg,
		logger:  logger.With(zap.String("component", PlaywrightComponentName)),
	}
}

// Configure depends on the remote browser container when one is requested.
func (e *PlaywrightEnv) Configure(envs *Envs) ([]string, error) {
	if e.cfg.Remote == config.RemoteContainer && e.cfg.Endpoint == "" {
		return []string{RemoteBrowserComponentName}, nil
	}
	return nil, nil
}

func (e *PlaywrightEnv) Start(ctx context.Context, envs *Envs) <-chan error {
	return startResult(func() error {
		cfg := e.cfg
		if cfg.Endpoint == "" && cfg.Remote == config.RemoteContainer {
			cfg.Endpoint = envs.GetURL(RemoteBrowserComponentName)
			if cfg.Endpoint == "" {
				return fmt.Errorf("remote browser has no endpoint")
			}
		}

		// With a remote server only the driver is needed locally.
		install := &playwright.RunOptions{}
		if cfg.Endpoint == "" {
			if profile, err := session.ProfileFor(cfg.Name); err == nil && profile.Channel == "" {
				install.Browsers = []string{profile.Type}
			}
		} else {
			install.SkipInstallBrowsers = true
		}
		pw, err := playwright.Run(install)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("context cancelled during playwright start: %w", ctx.Err())
			}
			return fmt.Errorf("failed to run playwright: %w", err)
		}

		browser, err := session.LaunchBrowser(pw, cfg, e.logger)
		if err != nil {
			_ = pw.Stop()
			return err
		}

		e.mu.Lock()
		e.details = &PlaywrightDetails{Playwright: pw, Browser: browser}
		e.mu.Unlock()
		e.logger.Info("Browser ready", zap.String("browser", cfg.Name), zap.String("version", browser.Version()))
		return nil
	})
}

// Stop closes the browser and the driver.
func (e *PlaywrightEnv) Stop() error {
	e.mu.Lock()
	d := e.details
	e.details = nil
	e.mu.Unlock()
	if d == nil {
		return nil
	}

	var errs []error
	if err := d.Browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
	}
	if err := d.Playwright.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to stop %s: %v", e.Name(), errs)
	}
	return nil
}

// GetDetails returns *PlaywrightDetails, or nil before Start succeeded.
func (e *PlaywrightEnv) GetDetails() any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.details == nil {
		return nil
	}
	return e.details
}
