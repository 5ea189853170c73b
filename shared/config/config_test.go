package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noFiles keeps Load away from any config.yaml or .env in the package directory.
func noFiles() Options { return Options{} }

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(noFiles())
	require.NoError(t, err)

	assert.Equal(t, BrowserChrome, cfg.Browser.Name)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Action)
	assert.Equal(t, 15*time.Second, cfg.Timeouts.Expect)
	assert.Equal(t, 20*time.Second, cfg.Timeouts.Visible)
	assert.Equal(t, 3*time.Second, cfg.Waits.Min)
	assert.Equal(t, 5*time.Second, cfg.Waits.Medium)
	assert.Equal(t, 10*time.Second, cfg.Waits.Max)
	assert.Equal(t, 400*time.Millisecond, cfg.Typing.SubmitKeystrokeDelay)
	assert.Equal(t, 1, cfg.Run.Workers)
	assert.Equal(t, ModeOn, cfg.Artifacts.Trace)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yaml")
	content := `
base_url: https://example.my.salesforce.com
browser:
  name: firefox
  headless: false
timeouts:
  action: 2s
  expect: 7000
run:
  workers: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("WORKERS", "4")
	t.Setenv("ACTIONTIMEOUT", "1500")
	t.Setenv("LEADSUITE_RUN_SEED", "42")
	t.Setenv("HEADLESS", "true")

	cfg, err := Load(Options{ConfigFile: path})
	require.NoError(t, err)

	assert.Equal(t, "https://example.my.salesforce.com", cfg.BaseURL)
	assert.Equal(t, BrowserFirefox, cfg.Browser.Name)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeouts.Action)
	assert.Equal(t, 7*time.Second, cfg.Timeouts.Expect)
	assert.Equal(t, 4, cfg.Run.Workers)
	assert.Equal(t, uint64(42), cfg.Run.Seed)
}

func TestPrefixedEnvBeatsBareEnv(t *testing.T) {
	t.Setenv("BROWSER", "webkit")
	t.Setenv("LEADSUITE_BROWSER_NAME", "msedge")

	cfg, err := Load(noFiles())
	require.NoError(t, err)
	assert.Equal(t, BrowserEdge, cfg.Browser.Name)
}

func TestRunPacing(t *testing.T) {
	t.Setenv("LEADSUITE_RUN_RETRY_BACKOFF", "2s")
	t.Setenv("LEADSUITE_RUN_STARTS_PER_MINUTE", "30")

	cfg, err := Load(noFiles())
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Run.RetryBackoff)
	assert.Equal(t, 30, cfg.Run.StartsPerMinute)

	t.Setenv("LEADSUITE_RUN_STARTS_PER_MINUTE", "-1")
	_, err = Load(noFiles())
	assert.ErrorContains(t, err, "starts_per_minute cannot be negative")
}

func TestInvalidArtifactModesFallBackToOn(t *testing.T) {
	t.Setenv("TRACE", "sometimes")
	t.Setenv("SCREENSHOT", "retain-on-failure")
	t.Setenv("VIDEO", ModeRetainOnFail)

	cfg, err := Load(noFiles())
	require.NoError(t, err)

	assert.Equal(t, ModeOn, cfg.Artifacts.Trace)
	assert.Equal(t, ModeOn, cfg.Artifacts.Screenshot)
	assert.Equal(t, ModeRetainOnFail, cfg.Artifacts.Video)
	assert.Len(t, cfg.Warnings, 2)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("BROWSER", "netscape")
	t.Setenv("WORKERS", "0")

	_, err := Load(noFiles())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown browser "netscape"`)
	assert.Contains(t, err.Error(), "workers must be at least 1")
}

func TestValidateRejectsUnboundedTimeouts(t *testing.T) {
	t.Setenv("ACTIONTIMEOUT", "0")
	t.Setenv("LEADSUITE_TIMEOUTS_NAVIGATION", "0s")

	_, err := Load(noFiles())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeouts.action must be positive")
	assert.Contains(t, err.Error(), "timeouts.navigation must be positive")
	assert.NotContains(t, err.Error(), "timeouts.expect")
}

func TestDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("RETRIES=3\nREPEATEACH=2\n"), 0644))
	t.Setenv("RETRIES", "1")
	// REPEATEACH is set by the .env file; register cleanup so it does not leak.
	t.Setenv("REPEATEACH", "")
	require.NoError(t, os.Unsetenv("REPEATEACH"))

	cfg, err := Load(Options{DotEnv: []string{dotenv}})
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Run.Retries)
	assert.Equal(t, 2, cfg.Run.RepeatEach)
}

func TestMissingDotEnvIgnored(t *testing.T) {
	_, err := Load(Options{DotEnv: []string{filepath.Join(t.TempDir(), ".env")}})
	assert.NoError(t, err)
}

func TestLoadCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"username":"admin@example.com","password":"s3cret"}`), 0600))

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, Credentials{Username: "admin@example.com", Password: "s3cret"}, creds)

	t.Setenv(EnvPassword, "override")
	creds, err = LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "override", creds.Password)
}

func TestLoadCredentialsFromEnvOnly(t *testing.T) {
	t.Setenv(EnvUsername, "user")
	t.Setenv(EnvPassword, "pass")

	creds, err := LoadCredentials(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, "user", creds.Username)
}

func TestLoadCredentialsMissing(t *testing.T) {
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")

	_, err := LoadCredentials(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrNoCredentials)
}
