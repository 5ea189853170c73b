package env

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gate4ai/leadsuite/shared/logging"
	"github.com/gate4ai/leadsuite/stubcrm"
)

const StubCRMComponentName = "stubcrm"

// StubCRMEnv serves the stub CRM on a reserved local port.
type StubCRMEnv struct {
	BaseEnv
	logger *zap.Logger
	opts   []stubcrm.Option

	mu     sync.RWMutex
	port   int
	server *stubcrm.Server
	cancel context.CancelFunc
	done   chan error
}

func NewStubCRMEnv(logger *zap.Logger, opts ...stubcrm.Option) *StubCRMEnv {
	logger = logging.OrNop(logger)
	return &StubCRMEnv{
		BaseEnv: BaseEnv{name: StubCRMComponentName},
		logger:  logger.With(zap.String("component", StubCRMComponentName)),
		opts:    opts,
	}
}

func (e *StubCRMEnv) Configure(envs *Envs) ([]string, error) {
	port, err := envs.GetFreePort()
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.port = port
	e.mu.Unlock()
	return nil, nil
}

func (e *StubCRMEnv) Start(ctx context.Context, envs *Envs) <-chan error {
	return startResult(func() error {
		addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(e.Port()))
		l, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}

		server := stubcrm.New(e.logger, e.opts...)
		// The server outlives the setup context and stops in Stop.
		serveCtx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- server.Serve(serveCtx, l) }()

		if err := waitForServer(ctx, e.logger, e.URL()+"/healthz", 10*time.Second); err != nil {
			cancel()
			<-done
			return err
		}

		e.mu.Lock()
		e.server = server
		e.cancel = cancel
		e.done = done
		e.mu.Unlock()
		e.logger.Info("Stub CRM ready", zap.String("url", e.URL()))
		return nil
	})
}

func (e *StubCRMEnv) Stop() error {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done, e.server = nil, nil, nil
	e.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	return <-done
}

// Port is the reserved port, known after Configure.
func (e *StubCRMEnv) Port() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.port
}

func (e *StubCRMEnv) URL() string {
	port := e.Port()
	if port == 0 {
		return ""
	}
	return "http://" + net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
}

// GetDetails returns the running *stubcrm.Server.
func (e *StubCRMEnv) GetDetails() any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.server == nil {
		return nil
	}
	return e.server
}
