//go:build integration

package itest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/canonical/loki-tester/src/config"
)

const (
	lokiApp   = "loki"
	testerApp = "loki-tester"

	testerImage = "loki-tester-image"
	lokiImage   = "loki-image"

	// Juju's default logging config drowns the unit logs the tests want to see.
	loggingConfig = "<root>=WARNING; unit=DEBUG"
)

var (
	builderOnce sync.Once
	builder     *CharmBuilder
)

func charmBuilder() *CharmBuilder {
	builderOnce.Do(func() {
		logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
		builder = NewCharmBuilder(nil, &logger)
	})
	return builder
}

// testerCharmDir is the tester charm project, relative to this package.
func testerCharmDir() string {
	return filepath.Join("..", "..", "charm")
}

type step struct {
	name string
	run  func(t *testing.T)
}

// runSteps runs the steps in order and stops at the first failing one.
func runSteps(t *testing.T, steps ...step) {
	for _, s := range steps {
		if !t.Run(s.name, s.run) {
			t.FailNow()
		}
	}
}

// deployLoki deploys the Loki charm from LOKI_CHARM if set, otherwise from Charmhub.
func deployLoki(ctx context.Context, t *testing.T, h *Harness, units int) {
	t.Helper()

	opts := DeployOptions{Application: lokiApp, Trust: true, NumUnits: units}
	charm := config.GetenvStr("LOKI_CHARM")
	if charm == "" {
		charm = "loki-k8s"
		opts.Channel = config.GetenvStrOr("LOKI_CHANNEL", "latest/edge")
	} else if _, err := os.Stat(charm); err != nil {
		t.Fatalf("LOKI_CHARM points to a missing charm: %s", err)
	} else {
		metadata := config.GetenvStrOr("LOKI_METADATA", filepath.Join(filepath.Dir(charm), "metadata.yaml"))
		image, err := OCIImage(metadata, lokiImage)
		require.NoError(t, err)
		opts.Resources = map[string]string{lokiImage: image}
	}

	require.NoError(t, h.Juju.Deploy(ctx, charm, opts))
}

// deployTester builds the tester charm once and deploys it as app.
func deployTester(ctx context.Context, t *testing.T, h *Harness, app string) {
	t.Helper()

	dir := testerCharmDir()
	charm, err := charmBuilder().Build(ctx, dir, "LOKI_TESTER_CHARM")
	require.NoError(t, err)

	image, err := OCIImage(filepath.Join(dir, "metadata.yaml"), testerImage)
	require.NoError(t, err)

	require.NoError(t, h.Juju.Deploy(ctx, charm, DeployOptions{
		Application: app,
		Resources:   map[string]string{testerImage: image},
	}))
}

// withIPAddressWorkaround runs f with a short update-status interval.
func withIPAddressWorkaround(ctx context.Context, t *testing.T, h *Harness, f func()) {
	t.Helper()

	restore, err := h.IPAddressWorkaround(ctx)
	require.NoError(t, err)
	defer func() {
		if err := restore(ctx); err != nil {
			t.Errorf("Failed to restore model config: %s", err)
		}
	}()

	f()
}

func setupLogging(ctx context.Context, t *testing.T, h *Harness) {
	t.Helper()
	require.NoError(t, h.Juju.SetModelConfig(ctx, map[string]string{"logging-config": loggingConfig}))
}

func requireLokiUp(ctx context.Context, t *testing.T, h *Harness, unitNum int) {
	t.Helper()
	up, err := h.IsLokiUp(ctx, lokiApp, unitNum)
	require.NoError(t, err)
	require.True(t, up)
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Minute)
	t.Cleanup(cancel)
	return ctx
}
