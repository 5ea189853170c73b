package env

import (
	"context"
	"fmt"
	"net"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gate4ai/leadsuite/shared/logging"
)

// Envs holds the registered components and orchestrates their lifecycle.
type Envs struct {
	logger     *zap.Logger
	components map[string]Environment
	order      []string

	portMu    sync.Mutex
	usedPorts map[int]struct{}

	startedMu sync.Mutex
	started   []string
}

func NewEnvs(logger *zap.Logger) *Envs {
	logger = logging.OrNop(logger)
	return &Envs{
		logger:     logger,
		components: make(map[string]Environment),
		usedPorts:  make(map[int]struct{}),
	}
}

// Register adds components. It panics on a duplicate name.
func (e *Envs) Register(envs ...Environment) {
	for _, env := range envs {
		name := env.Name()
		if _, exists := e.components[name]; exists {
			panic(fmt.Sprintf("environment component %q already registered", name))
		}
		e.components[name] = env
		e.order = append(e.order, name)
		e.logger.Debug("Registered component", zap.String("component", name))
	}
}

// GetFreePort reserves a TCP port the OS reports as free and that no other component of
// this Envs holds.
func (e *Envs) GetFreePort() (int, error) {
	e.portMu.Lock()
	defer e.portMu.Unlock()

	for range 100 {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			continue
		}
		port := l.Addr().(*net.TCPAddr).Port
		l.Close()
		if _, used := e.usedPorts[port]; !used {
			e.usedPorts[port] = struct{}{}
			e.logger.Debug("Allocated port", zap.Int("port", port))
			return port, nil
		}
	}
	return 0, fmt.Errorf("failed to find a free port")
}

// Execute configures every component, then starts each one as soon as its dependencies
// have started. On any failure the components started so far are stopped.
func (e *Envs) Execute(ctx context.Context) error {
	begin := time.Now()
	if len(e.components) == 0 {
		return nil
	}

	deps, err := e.configure(ctx)
	if err != nil {
		return err
	}
	for _, name := range e.order {
		for _, dep := range deps[name] {
			if _, ok := e.components[dep]; !ok {
				return fmt.Errorf("component %q depends on %q which is not registered", name, dep)
			}
		}
	}
	if cycle := findCycle(e.order, deps); cycle != "" {
		return fmt.Errorf("dependency cycle detected: %s", cycle)
	}

	ready := make(map[string]chan struct{}, len(e.components))
	for name := range e.components {
		ready[name] = make(chan struct{})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range e.order {
		env := e.components[name]
		g.Go(func() error {
			for _, dep := range deps[name] {
				select {
				case <-ready[dep]:
				case <-gctx.Done():
					return fmt.Errorf("start %s aborted: %w", name, gctx.Err())
				}
			}
			if err := e.startOne(gctx, env); err != nil {
				return err
			}
			close(ready[name])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.logger.Error("Environment setup failed", zap.Error(err))
		e.stopStarted()
		return err
	}
	e.logger.Info("Environment ready",
		zap.Int("components", len(e.components)),
		zap.Duration("duration", time.Since(begin)))
	return nil
}

func (e *Envs) configure(ctx context.Context) (map[string][]string, error) {
	var mu sync.Mutex
	deps := make(map[string][]string, len(e.components))

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range e.order {
		env := e.components[name]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := env.Configure(e)
			if err != nil {
				return fmt.Errorf("configure %s failed: %w", name, err)
			}
			mu.Lock()
			deps[name] = d
			mu.Unlock()
			e.logger.Debug("Component configured", zap.String("component", name), zap.Strings("dependencies", d))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.Error("Environment configure failed", zap.Error(err))
		return nil, err
	}
	return deps, nil
}

// startUnwindTimeout bounds how long a cancelled start is awaited before it is stopped.
var startUnwindTimeout = 30 * time.Second

func (e *Envs) startOne(ctx context.Context, env Environment) error {
	name := env.Name()
	begin := time.Now()
	e.logger.Info("Starting component", zap.String("component", name))

	var err error
	started := env.Start(ctx, e)
	select {
	case res, ok := <-started:
		if ok {
			err = res
		} else if ctx.Err() != nil {
			err = ctx.Err()
		}
	case <-ctx.Done():
		err = ctx.Err()
		// Start may already own a process or container; let it unwind, then stop it.
		select {
		case <-started:
		case <-time.After(startUnwindTimeout):
			e.logger.Warn("Component did not finish starting after cancel", zap.String("component", name))
		}
		e.stop(name)
	}
	if err != nil {
		return fmt.Errorf("start %s failed: %w", name, err)
	}

	d := time.Since(begin)
	env.SetStartDuration(d)
	e.startedMu.Lock()
	e.started = append(e.started, name)
	e.startedMu.Unlock()
	e.logger.Info("Component started", zap.String("component", name), zap.Duration("duration", d))
	return nil
}

// Started lists the components that started, in start order.
func (e *Envs) Started() []string {
	e.startedMu.Lock()
	defer e.startedMu.Unlock()
	return slices.Clone(e.started)
}

func (e *Envs) stopStarted() {
	e.startedMu.Lock()
	started := e.started
	e.started = nil
	e.startedMu.Unlock()

	// Reverse start order, so dependents stop before what they use.
	for _, name := range slices.Backward(started) {
		e.stop(name)
	}
}

func (e *Envs) stop(name string) {
	if err := e.components[name].Stop(); err != nil {
		e.logger.Warn("Error stopping component", zap.String("component", name), zap.Error(err))
		return
	}
	e.logger.Debug("Component stopped", zap.String("component", name))
}

// StopAll stops every started component in reverse start order.
func (e *Envs) StopAll() {
	e.stopStarted()
}

// findCycle returns a rendering of the first dependency cycle, or "".
func findCycle(order []string, deps map[string][]string) string {
	visited := map[string]bool{}
	onStack := map[string]bool{}

	var visit func(node string) string
	visit = func(node string) string {
		visited[node] = true
		onStack[node] = true
		defer func() { onStack[node] = false }()
		for _, dep := range deps[node] {
			if onStack[dep] {
				return node + " -> " + dep
			}
			if !visited[dep] {
				if cycle := visit(dep); cycle != "" {
					return node + " -> " + cycle
				}
			}
		}
		return ""
	}

	for _, name := range order {
		if !visited[name] {
			if cycle := visit(name); cycle != "" {
				return cycle
			}
		}
	}
	return ""
}

func (e *Envs) GetComponent(name string) (Environment, bool) {
	env, ok := e.components[name]
	return env, ok
}

// GetURL returns the URL of a component, or "" when it is not registered.
func (e *Envs) GetURL(name string) string {
	env, ok := e.components[name]
	if !ok {
		e.logger.Warn("Component not found", zap.String("component", name))
		return ""
	}
	return env.URL()
}

// GetDetails returns the details of a component, or nil when it is not registered.
func (e *Envs) GetDetails(name string) any {
	env, ok := e.components[name]
	if !ok {
		e.logger.Warn("Component not found", zap.String("component", name))
		return nil
	}
	return env.GetDetails()
}

func (e *Envs) GetStartDuration(name string) time.Duration {
	env, ok := e.components[name]
	if !ok {
		return 0
	}
	return env.GetStartDuration()
}
