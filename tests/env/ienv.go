// Package env starts the components a live run needs (playwright, an optional remote
// browser container, the stub CRM) in dependency order and stops them afterwards.
package env

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Environment is one component of the test environment.
type Environment interface {
	// Name is unique within an Envs and is what dependencies refer to.
	Name() string

	// Configure runs for every component before any Start. It may reserve ports via
	// envs.GetFreePort and returns the names of the components it depends on.
	Configure(envs *Envs) (dependencies []string, err error)

	// Start runs once every dependency has started. The channel receives exactly one
	// value (nil on success) and is then closed.
	Start(ctx context.Context, envs *Envs) <-chan error

	Stop() error

	// URL is the address of the component, or "" when it has none.
	URL() string

	// GetDetails returns component specific state for tests once Start succeeded.
	GetDetails() any

	GetStartDuration() time.Duration
	SetStartDuration(d time.Duration)
}

// BaseEnv supplies the name, start duration and no-op defaults for components.
type BaseEnv struct {
	startDuration time.Duration
	name          string
}

func (b *BaseEnv) Name() string { return b.name }

func (b *BaseEnv) Configure(envs *Envs) ([]string, error) { return nil, nil }

func (b *BaseEnv) Start(ctx context.Context, envs *Envs) <-chan error {
	ch := make(chan error, 1)
	ch <- nil
	close(ch)
	return ch
}

func (b *BaseEnv) Stop() error { return nil }

func (b *BaseEnv) URL() string { return "" }

func (b *BaseEnv) GetDetails() any { return nil }

func (b *BaseEnv) GetStartDuration() time.Duration { return b.startDuration }

func (b *BaseEnv) SetStartDuration(d time.Duration) { b.startDuration = d }

// waitForServer polls url until it answers 200 or timeout elapses.
func waitForServer(ctx context.Context, logger *zap.Logger, url string, timeout time.Duration) error {
	logger.Debug("Waiting for server", zap.String("url", url), zap.Duration("timeout", timeout))
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	client := &http.Client{
		Timeout:   2 * time.Second,
		Transport: &http.Transport{DisableKeepAlives: true},
	}

	for {
		select {
		case <-checkCtx.Done():
			return fmt.Errorf("timed out waiting for server at %s after %s: %w", url, time.Since(start), checkCtx.Err())
		case <-ticker.C:
			req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, url, nil)
			if err != nil {
				return fmt.Errorf("invalid server url %s: %w", url, err)
			}
			resp, err := client.Do(req)
			if err != nil {
				logger.Debug("Server not reachable yet", zap.String("url", url), zap.Error(err))
				continue
			}
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				logger.Debug("Server is ready", zap.String("url", url), zap.Duration("after", time.Since(start)))
				return nil
			}
			logger.Debug("Server not ready yet", zap.String("url", url), zap.Int("status", resp.StatusCode))
		}
	}
}

// startResult runs fn in a goroutine and reports its error on the returned channel.
func startResult(fn func() error) <-chan error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		ch <- fn()
	}()
	return ch
}
