package session

import (
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/gate4ai/leadsuite/shared/config"
)

var (
	runStamp     string
	runStampOnce sync.Once
)

// RunStamp is the timestamp shared by every session of this process.
func RunStamp() string {
	runStampOnce.Do(func() {
		runStamp = time.Now().Format("20060102150405")
	})
	return runStamp
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DirName turns a case name into a directory name.
func DirName(name string) string {
	s := unsafeChars.ReplaceAllString(name, "_")
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}

// ArtifactDir is where the artifacts of one attempt of a case go.
func ArtifactDir(base, name string, attempt int) string {
	dir := filepath.Join(base, RunStamp(), DirName(name))
	if attempt > 1 {
		dir = filepath.Join(dir, "retry"+strconv.Itoa(attempt-1))
	}
	return dir
}

// Policy decides which artifacts an attempt records and keeps.
type Policy struct {
	Trace      string
	Screenshot string
	Video      string
	// Attempt is 1 for the first run of a case and increases with each retry.
	Attempt int
}

func NewPolicy(cfg config.ArtifactsConfig, attempt int) Policy {
	return Policy{Trace: cfg.Trace, Screenshot: cfg.Screenshot, Video: cfg.Video, Attempt: attempt}
}

func (p Policy) record(mode string) bool {
	switch mode {
	case config.ModeOn, config.ModeRetainOnFail:
		return true
	case config.ModeOnFirstRetry:
		return p.Attempt == 2
	}
	return false
}

func keep(mode string, failed bool) bool {
	switch mode {
	case config.ModeOn, config.ModeOnFirstRetry:
		return true
	case config.ModeRetainOnFail:
		return failed
	}
	return false
}

// RecordTrace reports whether tracing starts with the context.
func (p Policy) RecordTrace() bool { return p.record(p.Trace) }

// KeepTrace reports whether a recorded trace is written out.
func (p Policy) KeepTrace(failed bool) bool { return p.RecordTrace() && keep(p.Trace, failed) }

// RecordVideo reports whether the context records video.
func (p Policy) RecordVideo() bool { return p.record(p.Video) }

// KeepVideo reports whether a recorded video survives Close.
func (p Policy) KeepVideo(failed bool) bool { return p.RecordVideo() && keep(p.Video, failed) }

// TakeScreenshot reports whether a final screenshot is taken.
func (p Policy) TakeScreenshot(failed bool) bool {
	switch p.Screenshot {
	case config.ModeOn:
		return true
	case config.ModeOnlyOnFailure:
		return failed
	}
	return false
}
