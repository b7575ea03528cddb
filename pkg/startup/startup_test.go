package startup

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bootDep struct {
	name      string
	dependsOn []string
	failures  int
	starts    int
	log       *[]string
}

func (d *bootDep) GetName() string     { return d.name }
func (d *bootDep) DependsOn() []string { return d.dependsOn }

func (d *bootDep) Start(ctx context.Context) error {
	d.starts++
	if d.failures > 0 {
		d.failures--
		return errors.New(d.name + " unavailable")
	}
	*d.log = append(*d.log, "start:"+d.name)
	return nil
}

func (d *bootDep) Stop(ctx context.Context) error {
	*d.log = append(*d.log, "stop:"+d.name)
	return nil
}

func newTestStartup(maxAttempts int) *Startup {
	return NewStartup(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}), maxAttempts)
}

func TestStartResolvesDependsOnFirst(t *testing.T) {
	var log []string
	boot := newTestStartup(1)
	boot.AddDependency(&bootDep{name: "http-server", dependsOn: []string{"postgres"}, log: &log})
	boot.AddDependency(&bootDep{name: "postgres", log: &log})

	require.NoError(t, boot.Start(context.Background()))
	assert.Equal(t, []string{"start:postgres", "start:http-server"}, log)
}

func TestStopReversesRegistrationOrder(t *testing.T) {
	var log []string
	boot := newTestStartup(1)
	boot.AddDependency(&bootDep{name: "postgres", log: &log})
	boot.AddDependency(&bootDep{name: "kafka-consumer", dependsOn: []string{"postgres"}, log: &log})
	boot.AddDependency(&bootDep{name: "http-server", dependsOn: []string{"postgres"}, log: &log})

	require.NoError(t, boot.Start(context.Background()))

	log = nil
	require.NoError(t, boot.Stop(context.Background()))
	assert.Equal(t, []string{"stop:http-server", "stop:kafka-consumer", "stop:postgres"}, log)
}

func TestStartRetriesOnlyFailedDependencies(t *testing.T) {
	var log []string
	postgres := &bootDep{name: "postgres", log: &log}
	server := &bootDep{name: "http-server", dependsOn: []string{"postgres"}, failures: 1, log: &log}

	boot := newTestStartup(3)
	boot.AddDependency(postgres)
	boot.AddDependency(server)

	require.NoError(t, boot.Start(context.Background()))
	assert.Equal(t, 1, postgres.starts)
	assert.Equal(t, 2, server.starts)
}

func TestStartFailsAfterMaxAttempts(t *testing.T) {
	var log []string
	boot := newTestStartup(1)
	boot.AddDependency(&bootDep{name: "postgres", failures: 5, log: &log})

	err := boot.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "startup failed after 1 attempts")
}

func TestStartUnknownDependency(t *testing.T) {
	var log []string
	boot := newTestStartup(1)
	boot.AddDependency(&bootDep{name: "http-server", dependsOn: []string{"ghost"}, log: &log})

	err := boot.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown startup dependency 'ghost'")
}

func TestStopSkipsNeverStarted(t *testing.T) {
	var log []string
	boot := newTestStartup(1)
	boot.AddDependency(&bootDep{name: "postgres", log: &log})

	require.NoError(t, boot.Stop(context.Background()))
	assert.Empty(t, log)
}
