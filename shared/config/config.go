// Package config loads the suite configuration.
//
// Values come, in increasing priority, from built-in defaults, an optional YAML file,
// a .env file, LEADSUITE_* environment variables and the bare runner variables
// (BROWSER, HEADLESS, WORKERS, TRACE, ...). Durations accept Go duration strings or
// integer milliseconds.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const envPrefix = "LEADSUITE"

// Artifact capture modes.
const (
	ModeOn            = "on"
	ModeOff           = "off"
	ModeRetainOnFail  = "retain-on-failure"
	ModeOnFirstRetry  = "on-first-retry"
	ModeOnlyOnFailure = "only-on-failure"
	modeFallback      = ModeOn
)

// Browser names.
const (
	BrowserChrome  = "chrome"
	BrowserEdge    = "msedge"
	BrowserFirefox = "firefox"
	BrowserWebKit  = "webkit"
	BrowserMobile  = "mobile"
)

// Remote browser modes.
const (
	RemoteNone      = ""
	RemoteContainer = "container"
)

// Suite is the complete configuration of one run.
type Suite struct {
	BaseURL     string            `mapstructure:"base_url"`
	Browser     BrowserConfig     `mapstructure:"browser"`
	Timeouts    TimeoutsConfig    `mapstructure:"timeouts"`
	Waits       WaitsConfig       `mapstructure:"waits"`
	Typing      TypingConfig      `mapstructure:"typing"`
	Run         RunConfig         `mapstructure:"run"`
	Artifacts   ArtifactsConfig   `mapstructure:"artifacts"`
	Fixture     FixtureConfig     `mapstructure:"fixture"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Selectors   SelectorsConfig   `mapstructure:"selectors"`
	Log         LogConfig         `mapstructure:"log"`

	// Warnings lists values that were replaced by a default while loading.
	Warnings []string `mapstructure:"-"`
}

type BrowserConfig struct {
	Name     string        `mapstructure:"name"`
	Headless bool          `mapstructure:"headless"`
	SlowMo   time.Duration `mapstructure:"slow_mo"`
	// Endpoint is a playwright run-server websocket; when set the browser is remote.
	Endpoint string `mapstructure:"endpoint"`
	// Remote "container" starts a playwright server container for the run.
	Remote string `mapstructure:"remote"`
	Image  string `mapstructure:"image"`
}

type TimeoutsConfig struct {
	Test       time.Duration `mapstructure:"test"`
	Action     time.Duration `mapstructure:"action"`
	Expect     time.Duration `mapstructure:"expect"`
	Navigation time.Duration `mapstructure:"navigation"`
	Visible    time.Duration `mapstructure:"visible"`
	Attached   time.Duration `mapstructure:"attached"`
}

type WaitsConfig struct {
	Min    time.Duration `mapstructure:"min"`
	Medium time.Duration `mapstructure:"medium"`
	Max    time.Duration `mapstructure:"max"`
}

type TypingConfig struct {
	KeystrokeDelay       time.Duration `mapstructure:"keystroke_delay"`
	SubmitKeystrokeDelay time.Duration `mapstructure:"submit_keystroke_delay"`
}

type RunConfig struct {
	Workers    int    `mapstructure:"workers"`
	Retries    int    `mapstructure:"retries"`
	RepeatEach int    `mapstructure:"repeat_each"`
	Seed       uint64 `mapstructure:"seed"`
	// RetryBackoff is the first pause before a retry; later pauses grow from it.
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	// StartsPerMinute caps how fast attempts start across workers. Zero is unlimited.
	StartsPerMinute int `mapstructure:"starts_per_minute"`
}

type ArtifactsConfig struct {
	Dir        string `mapstructure:"dir"`
	Trace      string `mapstructure:"trace"`
	Screenshot string `mapstructure:"screenshot"`
	Video      string `mapstructure:"video"`
}

type FixtureConfig struct {
	Path    string `mapstructure:"path"`
	BaseDir string `mapstructure:"base_dir"`
}

type CredentialsConfig struct {
	Path string `mapstructure:"path"`
}

type SelectorsConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

var defaults = map[string]any{
	"base_url": "",

	"browser.name":     BrowserChrome,
	"browser.headless": true,
	"browser.slow_mo":  time.Duration(0),
	"browser.endpoint": "",
	"browser.remote":   RemoteNone,
	"browser.image":    "mcr.microsoft.com/playwright:v1.52.0-noble",

	"timeouts.test":       550 * time.Second,
	"timeouts.action":     10 * time.Second,
	"timeouts.expect":     15 * time.Second,
	"timeouts.navigation": 30 * time.Second,
	"timeouts.visible":    20 * time.Second,
	"timeouts.attached":   30 * time.Second,

	"waits.min":    3 * time.Second,
	"waits.medium": 5 * time.Second,
	"waits.max":    10 * time.Second,

	"typing.keystroke_delay":        100 * time.Millisecond,
	"typing.submit_keystroke_delay": 400 * time.Millisecond,

	"run.workers":     1,
	"run.retries":     0,
	"run.repeat_each": 0,
	"run.seed":        uint64(0),

	"run.retry_backoff":     time.Duration(0),
	"run.starts_per_minute": 0,

	"artifacts.dir":        "artifacts",
	"artifacts.trace":      ModeOn,
	"artifacts.screenshot": ModeOn,
	"artifacts.video":      ModeOn,

	"fixture.path":     "testdata/leadData.csv",
	"fixture.base_dir": "",

	"credentials.path": "testdata/credentials.json",
	"selectors.path":   "",

	"log.level":       "info",
	"log.development": false,
}

// bareEnv maps config keys to the unprefixed variables the runner also honours.
var bareEnv = map[string]string{
	"base_url":             "BASE_URL",
	"browser.name":         "BROWSER",
	"browser.headless":     "HEADLESS",
	"timeouts.test":        "TIMEOUT",
	"timeouts.expect":      "EXPECTTIMEOUT",
	"timeouts.action":      "ACTIONTIMEOUT",
	"run.workers":          "WORKERS",
	"run.retries":          "RETRIES",
	"run.repeat_each":      "REPEATEACH",
	"artifacts.trace":      "TRACE",
	"artifacts.screenshot": "SCREENSHOT",
	"artifacts.video":      "VIDEO",
}

// Options controls where Load looks for its inputs.
type Options struct {
	// ConfigFile is an explicit YAML file. When empty, config.yaml is searched in SearchPaths.
	ConfigFile  string
	SearchPaths []string
	// DotEnv files are loaded without overriding variables already set.
	DotEnv []string
}

// DefaultOptions searches the working directory and testdata/.
func DefaultOptions() Options {
	return Options{
		SearchPaths: []string{".", "testdata"},
		DotEnv:      []string{".env"},
	}
}

// Load builds the suite configuration.
func Load(opts Options) (*Suite, error) {
	for _, f := range opts.DotEnv {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", opts.ConfigFile, err)
		}
	} else if len(opts.SearchPaths) > 0 {
		v.SetConfigName("config")
		for _, p := range opts.SearchPaths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, bare := range bareEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, bare); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", bare, err)
		}
	}

	cfg := &Suite{}
	hook := mapstructure.ComposeDecodeHookFunc(
		durationHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(cfg, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the suite cannot run with.
func (c *Suite) Validate() error {
	var errs []error
	switch c.Browser.Name {
	case BrowserChrome, BrowserEdge, BrowserFirefox, BrowserWebKit, BrowserMobile:
	default:
		errs = append(errs, fmt.Errorf("unknown browser %q", c.Browser.Name))
	}
	switch c.Browser.Remote {
	case RemoteNone, RemoteContainer:
	default:
		errs = append(errs, fmt.Errorf("unknown remote browser mode %q", c.Browser.Remote))
	}
	if c.Run.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Run.Workers))
	}
	if c.Run.Retries < 0 || c.Run.RepeatEach < 0 {
		errs = append(errs, errors.New("retries and repeat_each cannot be negative"))
	}
	if c.Run.RetryBackoff < 0 || c.Run.StartsPerMinute < 0 {
		errs = append(errs, errors.New("retry_backoff and starts_per_minute cannot be negative"))
	}
	for _, t := range []struct {
		name string
		d    time.Duration
	}{
		{"test", c.Timeouts.Test},
		{"action", c.Timeouts.Action},
		{"expect", c.Timeouts.Expect},
		{"navigation", c.Timeouts.Navigation},
		{"visible", c.Timeouts.Visible},
		{"attached", c.Timeouts.Attached},
	} {
		// Playwright reads a zero timeout as unbounded.
		if t.d <= 0 {
			errs = append(errs, fmt.Errorf("timeouts.%s must be positive, got %s", t.name, t.d))
		}
	}
	if c.Fixture.Path == "" {
		errs = append(errs, errors.New("fixture path is required"))
	}
	return errors.Join(errs...)
}

// normalize replaces unknown artifact modes with "on", recording a warning for each.
func (c *Suite) normalize() {
	c.Browser.Name = strings.ToLower(strings.TrimSpace(c.Browser.Name))
	c.Artifacts.Trace = c.mode("trace", c.Artifacts.Trace, ModeOn, ModeOff, ModeRetainOnFail, ModeOnFirstRetry)
	c.Artifacts.Screenshot = c.mode("screenshot", c.Artifacts.Screenshot, ModeOn, ModeOff, ModeOnlyOnFailure)
	c.Artifacts.Video = c.mode("video", c.Artifacts.Video, ModeOn, ModeOff, ModeRetainOnFail, ModeOnFirstRetry)
}

func (c *Suite) mode(name, value string, allowed ...string) string {
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	c.Warnings = append(c.Warnings, fmt.Sprintf("%s mode %q is not one of %v, using %q", name, value, allowed, modeFallback))
	return modeFallback
}

// durationHook decodes integers and integer strings as milliseconds and other strings
// as Go durations.
func durationHook() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != durationType {
			return data, nil
		}
		switch v := data.(type) {
		case time.Duration:
			return v, nil
		case int:
			return time.Duration(v) * time.Millisecond, nil
		case int64:
			return time.Duration(v) * time.Millisecond, nil
		case float64:
			return time.Duration(v * float64(time.Millisecond)), nil
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				return time.Duration(0), nil
			}
			if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
				return time.Duration(ms) * time.Millisecond, nil
			}
			d, err := time.ParseDuration(s)
			if err != nil {
				return nil, fmt.Errorf("invalid duration %q: %w", v, err)
			}
			return d, nil
		}
		return data, nil
	}
}
