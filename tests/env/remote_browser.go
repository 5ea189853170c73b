package env

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/gate4ai/leadsuite/shared/logging"
)

const (
	RemoteBrowserComponentName = "remote-browser"

	playwrightServerPort    = "3000/tcp"
	playwrightServerVersion = "1.52.0"
)

// RemoteBrowserEnv runs `playwright run-server` in a container. Its URL is the websocket
// endpoint browsers are connected through.
type RemoteBrowserEnv struct {
	BaseEnv
	image  string
	logger *zap.Logger

	mu        sync.RWMutex
	container testcontainers.Container
	endpoint  string
}

func NewRemoteBrowserEnv(image string, logger *zap.Logger) *RemoteBrowserEnv {
	logger = logging.OrNop(logger)
	return &RemoteBrowserEnv{
		BaseEnv: BaseEnv{name: RemoteBrowserComponentName},
		image:   image,
		logger:  logger.With(zap.String("component", RemoteBrowserComponentName)),
	}
}

// Configure depends on the stub CRM when it is registered, so its port can be forwarded
// into the container.
func (e *RemoteBrowserEnv) Configure(envs *Envs) ([]string, error) {
	if e.image == "" {
		return nil, fmt.Errorf("remote browser image is not set")
	}
	if _, ok := envs.GetComponent(StubCRMComponentName); ok {
		return []string{StubCRMComponentName}, nil
	}
	return nil, nil
}

func (e *RemoteBrowserEnv) Start(ctx context.Context, envs *Envs) <-chan error {
	return startResult(func() error {
		req := testcontainers.ContainerRequest{
			Image:        e.image,
			ExposedPorts: []string{playwrightServerPort},
			Cmd: []string{"/bin/sh", "-c",
				"npx -y playwright@" + playwrightServerVersion + " run-server --port 3000 --host 0.0.0.0"},
			WaitingFor: wait.ForListeningPort(playwrightServerPort).WithStartupTimeout(3 * time.Minute),
		}
		if c, ok := envs.GetComponent(StubCRMComponentName); ok {
			if stub, ok := c.(*StubCRMEnv); ok && stub.Port() > 0 {
				req.HostAccessPorts = []int{stub.Port()}
			}
		}

		e.logger.Info("Starting playwright server container", zap.String("image", e.image))
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("context cancelled during container start: %w", ctx.Err())
			}
			return fmt.Errorf("failed to start playwright server container: %w", err)
		}

		endpoint, err := container.PortEndpoint(ctx, playwrightServerPort, "ws")
		if err != nil {
			_ = container.Terminate(context.Background())
			return fmt.Errorf("failed to get playwright server endpoint: %w", err)
		}

		e.mu.Lock()
		e.container = container
		e.endpoint = endpoint + "/"
		e.mu.Unlock()
		e.logger.Info("Playwright server ready", zap.String("endpoint", endpoint))
		return nil
	})
}

func (e *RemoteBrowserEnv) Stop() error {
	e.mu.Lock()
	container := e.container
	e.container = nil
	e.mu.Unlock()
	if container == nil {
		return nil
	}
	if err := container.Terminate(context.Background()); err != nil {
		return fmt.Errorf("failed to stop %s container: %w", e.Name(), err)
	}
	return nil
}

func (e *RemoteBrowserEnv) URL() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.endpoint
}

// ContainerURL rewrites a URL served on the host so the containerised browser can reach it.
func ContainerURL(hostURL string) string {
	u, err := url.Parse(hostURL)
	if err != nil || u.Host == "" {
		return hostURL
	}
	if port := u.Port(); port != "" {
		u.Host = testcontainers.HostInternal + ":" + port
	} else {
		u.Host = testcontainers.HostInternal
	}
	return u.String()
}
