package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/gate4ai/leadsuite/runner/action"
	"github.com/gate4ai/leadsuite/shared/config"
)

// Options describes the session of one case attempt.
type Options struct {
	Name    string
	Attempt int
	Suite   *config.Suite
	// Playwright supplies device descriptors; may be nil for remote browsers.
	Playwright *playwright.Playwright
	Logger     *zap.Logger
}

// Session is one isolated browser context and page with its artifact directory.
type Session struct {
	Name        string
	ArtifactDir string
	Context     playwright.BrowserContext
	Page        playwright.Page
	Driver      *action.PlaywrightDriver

	logger  *zap.Logger
	policy  Policy
	tracing bool

	consoleMu sync.Mutex
	console   *os.File
	closed    bool
}

// Open creates a new context and page on browser.
func Open(browser playwright.Browser, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	suite := opts.Suite
	attempt := max(opts.Attempt, 1)

	profile, err := ProfileFor(suite.Browser.Name)
	if err != nil {
		return nil, err
	}

	dir := ArtifactDir(suite.Artifacts.Dir, opts.Name, attempt)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	policy := NewPolicy(suite.Artifacts, attempt)
	videoDir := ""
	if policy.RecordVideo() {
		videoDir = filepath.Join(dir, "video")
	}

	bctx, err := browser.NewContext(ContextOptions(opts.Playwright, profile, suite.BaseURL, videoDir))
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}

	s := &Session{
		Name:        opts.Name,
		ArtifactDir: dir,
		Context:     bctx,
		logger:      logger.With(zap.String("case", opts.Name), zap.Int("attempt", attempt)),
		policy:      policy,
	}

	if policy.RecordTrace() {
		if err := bctx.Tracing().Start(playwright.TracingStartOptions{
			Name:        playwright.String(DirName(opts.Name)),
			Screenshots: playwright.Bool(true),
			Snapshots:   playwright.Bool(true),
			Sources:     playwright.Bool(true),
		}); err != nil {
			s.logger.Warn("Could not start tracing", zap.Error(err))
		} else {
			s.tracing = true
		}
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	page.SetDefaultTimeout(float64(suite.Timeouts.Action.Milliseconds()))
	page.SetDefaultNavigationTimeout(float64(suite.Timeouts.Navigation.Milliseconds()))

	s.Page = page
	s.Driver = action.NewPlaywrightDriver(page)
	s.setupConsoleLog()

	s.logger.Debug("Session opened", zap.String("artifacts", dir))
	return s, nil
}

func (s *Session) setupConsoleLog() {
	path := filepath.Join(s.ArtifactDir, "console.log")
	f, err := os.Create(path)
	if err != nil {
		s.logger.Warn("Could not create console log", zap.Error(err))
		return
	}
	s.console = f

	s.Page.On("console", func(msg playwright.ConsoleMessage) {
		s.consoleMu.Lock()
		defer s.consoleMu.Unlock()
		if s.console == nil {
			return
		}
		line := fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format(time.RFC3339), msg.Type(), msg.Text())
		if _, err := s.console.WriteString(line); err != nil {
			s.logger.Warn("Could not write console log", zap.Error(err))
		}
	})
}

// Close writes the artifacts the policy keeps for a passed or failed case and closes the
// context. It is safe to call more than once.
func (s *Session) Close(failed bool) error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.policy.TakeScreenshot(failed) {
		if _, err := s.SaveScreenshot("final"); err != nil {
			errs = append(errs, err)
		}
	}
	if failed {
		if _, err := s.SaveHTML("failure"); err != nil {
			errs = append(errs, err)
		}
	}

	if s.tracing {
		var err error
		if s.policy.KeepTrace(failed) {
			path := filepath.Join(s.ArtifactDir, "trace.zip")
			err = s.Context.Tracing().Stop(path)
			if err == nil {
				s.logger.Info("Trace saved", zap.String("path", path))
			}
		} else {
			err = s.Context.Tracing().Stop()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to stop tracing: %w", err))
		}
	}

	var videoPath string
	if s.policy.RecordVideo() && s.Page != nil {
		if v := s.Page.Video(); v != nil {
			if p, err := v.Path(); err == nil {
				videoPath = p
			}
		}
	}

	if err := s.Context.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close context: %w", err))
	}

	if videoPath != "" && !s.policy.KeepVideo(failed) {
		if err := os.Remove(videoPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to remove video: %w", err))
		}
	}

	s.consoleMu.Lock()
	if s.console != nil {
		if err := s.console.Close(); err != nil {
			errs = append(errs, err)
		}
		s.console = nil
	}
	s.consoleMu.Unlock()

	if err := errors.Join(errs...); err != nil {
		s.logger.Warn("Session closed with errors", zap.Error(err))
		return err
	}
	s.logger.Debug("Session closed", zap.Bool("failed", failed))
	return nil
}

// SaveScreenshot writes a full-page screenshot named name.png and returns its path.
func (s *Session) SaveScreenshot(name string) (string, error) {
	path := filepath.Join(s.ArtifactDir, name+".png")
	if _, err := s.Page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		return "", fmt.Errorf("failed to save screenshot: %w", err)
	}
	s.logger.Info("Screenshot saved", zap.String("path", path))
	return path, nil
}

// SaveHTML writes the page content to name.html and returns its path.
func (s *Session) SaveHTML(name string) (string, error) {
	content, err := s.Page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}
	path := filepath.Join(s.ArtifactDir, name+".html")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to save HTML: %w", err)
	}
	s.logger.Info("HTML saved", zap.String("path", path))
	return path, nil
}

// WriteSteps writes the step tree of the attempt to steps.txt.
func (s *Session) WriteSteps(steps []*action.StepRecord) error {
	path := filepath.Join(s.ArtifactDir, "steps.txt")
	if err := os.WriteFile(path, []byte(FormatSteps(steps)), 0644); err != nil {
		return fmt.Errorf("failed to write steps: %w", err)
	}
	return nil
}

// FormatSteps renders steps as an indented outline, one step per line.
func FormatSteps(steps []*action.StepRecord) string {
	var b strings.Builder
	var walk func(recs []*action.StepRecord, depth int)
	walk = func(recs []*action.StepRecord, depth int) {
		for _, r := range recs {
			status := "ok"
			if r.Err != nil {
				status = "FAILED: " + r.Err.Error()
			}
			fmt.Fprintf(&b, "%s- %s (%s) %s\n", strings.Repeat("  ", depth), r.Name, r.Duration.Round(time.Millisecond), status)
			walk(r.Children, depth+1)
		}
	}
	walk(steps, 0)
	return b.String()
}
