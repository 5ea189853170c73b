// Package session opens one isolated browser context per case and collects its artifacts.
package session

import (
	"fmt"
	"os"
	"strings"

	"github.com/playwright-community/playwright-go"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/gate4ai/leadsuite/shared/config"
)

var chromiumArgs = []string{
	"--start-maximized",
	"--disable-web-security",
	"--disable-features=IsolateOrigins,site-per-process",
	"--no-proxy-server",
}

// Profile is the launch and context setup of one browser name.
type Profile struct {
	Type    string // chromium, firefox or webkit
	Channel string
	Args    []string
	// Device is a playwright device descriptor name applied to every context.
	Device string
	// Viewport overrides the device viewport. NoViewport lets the window size decide.
	Viewport   *playwright.Size
	NoViewport bool
}

// ProfileFor returns the profile of a configured browser name.
func ProfileFor(name string) (Profile, error) {
	switch name {
	case config.BrowserChrome, config.BrowserEdge:
		return Profile{Type: "chromium", Channel: name, Args: chromiumArgs, NoViewport: true}, nil
	case config.BrowserFirefox:
		return Profile{Type: "firefox", Args: []string{"--kiosk"}, Device: "Desktop Firefox"}, nil
	case config.BrowserWebKit:
		return Profile{Type: "webkit", Device: "Desktop Safari", Viewport: &playwright.Size{Width: 1280, Height: 680}}, nil
	case config.BrowserMobile:
		return Profile{Type: "chromium", Device: "Pixel 2 landscape"}, nil
	}
	return Profile{}, fmt.Errorf("unknown browser %q", name)
}

func browserType(pw *playwright.Playwright, typ string) playwright.BrowserType {
	switch typ {
	case "firefox":
		return pw.Firefox
	case "webkit":
		return pw.WebKit
	}
	return pw.Chromium
}

// LaunchBrowser starts the configured browser, or connects to a playwright server when an
// endpoint is set. A debugger parent process forces headed mode.
func LaunchBrowser(pw *playwright.Playwright, cfg config.BrowserConfig, logger *zap.Logger) (playwright.Browser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	profile, err := ProfileFor(cfg.Name)
	if err != nil {
		return nil, err
	}
	bt := browserType(pw, profile.Type)

	if cfg.Endpoint != "" {
		logger.Info("Connecting to remote browser", zap.String("endpoint", cfg.Endpoint), zap.String("type", profile.Type))
		browser, err := bt.Connect(cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("could not connect to browser at %s: %w", cfg.Endpoint, err)
		}
		return browser, nil
	}

	headless := cfg.Headless && !IsDebugging(logger)
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args:     profile.Args,
	}
	if profile.Channel != "" {
		opts.Channel = playwright.String(profile.Channel)
	}
	if cfg.SlowMo > 0 {
		opts.SlowMo = playwright.Float(float64(cfg.SlowMo.Milliseconds()))
	}

	logger.Info("Launching browser", zap.String("browser", cfg.Name), zap.Bool("headless", headless))
	browser, err := bt.Launch(opts)
	if err != nil {
		return nil, fmt.Errorf("could not launch %s: %w", cfg.Name, err)
	}
	return browser, nil
}

// IsDebugging reports whether the parent process is a debugger such as dlv.
func IsDebugging(logger *zap.Logger) bool {
	parent, err := process.NewProcess(int32(os.Getppid()))
	if err != nil {
		logger.Debug("Could not inspect parent process", zap.Error(err))
		return false
	}
	name, err := parent.Name()
	if err != nil {
		logger.Debug("Could not read parent process name", zap.Error(err))
		return false
	}
	if name == "dlv" || name == "debug" {
		return true
	}
	args, err := parent.CmdlineSlice()
	if err != nil {
		return false
	}
	for _, arg := range args {
		if arg == "debug" || strings.Contains(arg, "dlv") {
			return true
		}
	}
	return false
}

// ContextOptions builds the options of a new context for profile. videoDir enables
// recording when not empty.
func ContextOptions(pw *playwright.Playwright, profile Profile, baseURL, videoDir string) playwright.BrowserNewContextOptions {
	opts := playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(true),
		BypassCSP:         playwright.Bool(true),
	}
	if baseURL != "" {
		opts.BaseURL = playwright.String(baseURL)
	}
	if pw != nil && profile.Device != "" {
		if d, ok := pw.Devices[profile.Device]; ok && d != nil {
			opts.UserAgent = playwright.String(d.UserAgent)
			opts.Viewport = d.Viewport
			opts.DeviceScaleFactor = playwright.Float(d.DeviceScaleFactor)
			opts.IsMobile = playwright.Bool(d.IsMobile)
			opts.HasTouch = playwright.Bool(d.HasTouch)
		}
	}
	if profile.Viewport != nil {
		opts.Viewport = profile.Viewport
	}
	if profile.NoViewport {
		opts.NoViewport = playwright.Bool(true)
	}
	if videoDir != "" {
		opts.RecordVideo = &playwright.RecordVideo{Dir: videoDir}
	}
	return opts
}
