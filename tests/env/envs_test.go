package env

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gate4ai/leadsuite/shared/config"
	"github.com/gate4ai/leadsuite/stubcrm"
)

type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	j.entries = append(j.entries, s)
	j.mu.Unlock()
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

func (j *journal) index(s string) int {
	for i, e := range j.list() {
		if e == s {
			return i
		}
	}
	return -1
}

type fakeEnv struct {
	BaseEnv
	deps     []string
	startErr error
	delay    time.Duration
	log      *journal
}

func newFake(name string, log *journal, deps ...string) *fakeEnv {
	return &fakeEnv{BaseEnv: BaseEnv{name: name}, deps: deps, log: log}
}

func (f *fakeEnv) Configure(envs *Envs) ([]string, error) { return f.deps, nil }

func (f *fakeEnv) Start(ctx context.Context, envs *Envs) <-chan error {
	return startResult(func() error {
		time.Sleep(f.delay)
		if f.startErr != nil {
			return f.startErr
		}
		f.log.add("start " + f.name)
		return nil
	})
}

func (f *fakeEnv) Stop() error {
	f.log.add("stop " + f.name)
	return nil
}

func TestExecuteStartsInDependencyOrder(t *testing.T) {
	log := &journal{}
	envs := NewEnvs(zaptest.NewLogger(t))
	base := newFake("base", log)
	base.delay = 50 * time.Millisecond
	envs.Register(
		newFake("top", log, "middle"),
		newFake("middle", log, "base"),
		base,
		newFake("solo", log),
	)

	require.NoError(t, envs.Execute(context.Background()))
	assert.Less(t, log.index("start base"), log.index("start middle"))
	assert.Less(t, log.index("start middle"), log.index("start top"))
	assert.Len(t, envs.Started(), 4)
	assert.Greater(t, envs.GetStartDuration("base"), time.Duration(0))

	envs.StopAll()
	entries := log.list()
	stops := entries[4:]
	assert.Equal(t, "stop top", stops[0])
	assert.Empty(t, envs.Started())
}

func TestExecuteStopsStartedOnFailure(t *testing.T) {
	log := &journal{}
	envs := NewEnvs(zaptest.NewLogger(t))
	broken := newFake("broken", log, "base")
	broken.startErr = errors.New("boom")
	envs.Register(newFake("base", log), broken, newFake("after", log, "broken"))

	err := envs.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start broken failed: boom")
	assert.Equal(t, []string{"start base", "stop base"}, log.list())
}

func TestExecuteStopsComponentStartingWhenCancelled(t *testing.T) {
	log := &journal{}
	envs := NewEnvs(zaptest.NewLogger(t))
	slow := newFake("slow", log)
	slow.delay = 200 * time.Millisecond
	envs.Register(slow)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := envs.Execute(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"start slow", "stop slow"}, log.list())
	assert.Empty(t, envs.Started())
}

func TestExecuteRejectsBadGraphs(t *testing.T) {
	log := &journal{}
	envs := NewEnvs(zaptest.NewLogger(t))
	envs.Register(newFake("a", log, "b"), newFake("b", log, "a"))
	err := envs.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependency cycle detected")

	envs = NewEnvs(zaptest.NewLogger(t))
	envs.Register(newFake("a", log, "ghost"))
	err = envs.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `depends on "ghost"`)
	assert.Empty(t, log.list())
}

func TestRegisterDuplicatePanics(t *testing.T) {
	envs := NewEnvs(nil)
	envs.Register(newFake("a", &journal{}))
	assert.Panics(t, func() { envs.Register(newFake("a", &journal{})) })
}

func TestGetFreePortIsUnique(t *testing.T) {
	envs := NewEnvs(nil)
	seen := map[int]bool{}
	for range 5 {
		port, err := envs.GetFreePort()
		require.NoError(t, err)
		assert.False(t, seen[port])
		seen[port] = true
	}
}

func TestStubCRMEnv(t *testing.T) {
	envs := NewEnvs(zaptest.NewLogger(t))
	stub := NewStubCRMEnv(zaptest.NewLogger(t))
	envs.Register(stub)
	require.NoError(t, envs.Execute(context.Background()))
	t.Cleanup(envs.StopAll)

	require.NotEmpty(t, envs.GetURL(StubCRMComponentName))
	resp, err := http.Get(envs.GetURL(StubCRMComponentName) + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "<title>Login | Salesforce</title>")

	server, ok := envs.GetDetails(StubCRMComponentName).(*stubcrm.Server)
	require.True(t, ok)
	assert.Empty(t, server.Leads())

	require.NoError(t, stub.Stop())
	assert.Nil(t, stub.GetDetails())
}

func configWithRemote(remote, endpoint string) config.BrowserConfig {
	return config.BrowserConfig{Name: config.BrowserChrome, Remote: remote, Endpoint: endpoint}
}

func TestPlaywrightDependsOnRemoteBrowser(t *testing.T) {
	envs := NewEnvs(nil)
	pw := NewPlaywrightEnv(configWithRemote("container", ""), nil)
	deps, err := pw.Configure(envs)
	require.NoError(t, err)
	assert.Equal(t, []string{RemoteBrowserComponentName}, deps)

	pw = NewPlaywrightEnv(configWithRemote("container", "ws://elsewhere:3000/"), nil)
	deps, err = pw.Configure(envs)
	require.NoError(t, err)
	assert.Empty(t, deps)

	remote := NewRemoteBrowserEnv("mcr.microsoft.com/playwright:v1.52.0-noble", nil)
	deps, err = remote.Configure(envs)
	require.NoError(t, err)
	assert.Empty(t, deps)

	envs.Register(NewStubCRMEnv(nil))
	deps, err = remote.Configure(envs)
	require.NoError(t, err)
	assert.Equal(t, []string{StubCRMComponentName}, deps)
}

func TestContainerURL(t *testing.T) {
	assert.Equal(t, "http://host.testcontainers.internal:8080/login", ContainerURL("http://127.0.0.1:8080/login"))
	assert.Equal(t, "https://host.testcontainers.internal", ContainerURL("https://localhost"))
	assert.Equal(t, "not a url", ContainerURL("not a url"))
}

func TestRegisterSuite(t *testing.T) {
	cfg := &config.Suite{Browser: configWithRemote(config.RemoteContainer, "")}
	cfg.Browser.Image = "mcr.microsoft.com/playwright:v1.52.0-noble"
	envs := NewEnvs(nil)
	envs.RegisterSuite(cfg, true)
	for _, name := range []string{StubCRMComponentName, RemoteBrowserComponentName, PlaywrightComponentName} {
		_, ok := envs.GetComponent(name)
		assert.True(t, ok, name)
	}

	stub, _ := envs.GetComponent(StubCRMComponentName)
	_, err := stub.Configure(envs)
	require.NoError(t, err)
	assert.Contains(t, envs.LoginURL(cfg), "http://host.testcontainers.internal:")
	assert.Nil(t, envs.StubCRM())
	_, ok := envs.Playwright()
	assert.False(t, ok)

	live := &config.Suite{BaseURL: "https://login.example.com", Browser: configWithRemote("", "")}
	plain := NewEnvs(nil)
	plain.RegisterSuite(live, false)
	assert.Equal(t, "https://login.example.com", plain.LoginURL(live))
	_, ok = plain.GetComponent(StubCRMComponentName)
	assert.False(t, ok)
	assert.Nil(t, plain.StubCRM())
}
