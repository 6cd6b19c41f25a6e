//go:build integration

package itest

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// TestRerelate removes and re-adds the relations and the related apps of a
// two unit Loki, which has to stay up throughout.
func TestRerelate(t *testing.T) {
	const alertmanager = "alertmanager"

	ctx := testContext(t)
	h := NewModel(t, "rerelate")

	deployRelated := func(t *testing.T) {
		deployTester(ctx, t, h, testerApp)
		require.NoError(t, h.Juju.Deploy(ctx, "alertmanager-k8s", DeployOptions{
			Application: alertmanager, Channel: "latest/edge", Trust: true,
		}))
	}
	relate := func(t *testing.T) {
		require.NoError(t, h.Juju.Integrate(ctx, lokiApp, testerApp))
		require.NoError(t, h.Juju.Integrate(ctx, lokiApp, alertmanager))
	}
	waitActive := func(t *testing.T, apps ...string) {
		require.NoError(t, h.Juju.WaitForIdle(ctx, WaitOptions{
			Apps: apps, Status: "active", Timeout: 1000 * time.Second,
		}))
	}

	runSteps(t,
		step{"setup", func(t *testing.T) {
			setupLogging(ctx, t, h)
		}},

		step{"build and deploy", func(t *testing.T) {
			deployLoki(ctx, t, h, 2)
			deployRelated(t)
			relate(t)
			waitActive(t)
			requireLokiUp(ctx, t, h, 0)
		}},

		step{"remove relations", func(t *testing.T) {
			require.NoError(t, h.Juju.RemoveRelation(ctx, lokiApp+":logging", testerApp))
			require.NoError(t, h.Juju.RemoveRelation(ctx, lokiApp+":alertmanager", alertmanager))
			waitActive(t, lokiApp)
			requireLokiUp(ctx, t, h, 0)
		}},

		step{"rerelate", func(t *testing.T) {
			relate(t)
			waitActive(t)
			requireLokiUp(ctx, t, h, 0)
		}},

		step{"remove related apps", func(t *testing.T) {
			related := []string{testerApp, alertmanager}
			for _, app := range related {
				require.NoError(t, h.Juju.RemoveApplication(ctx, app, false))
			}

			gone := func(s Status) bool {
				for _, app := range related {
					if _, ok := s.Applications[app]; ok {
						return false
					}
				}
				return true
			}

			err := h.Juju.BlockUntil(ctx, 5*time.Minute, gone)
			var timeout *TimeoutError
			if errors.As(err, &timeout) {
				forceRemoveHung(t, h, related)
			} else {
				require.NoError(t, err)
			}

			if err := h.Juju.WaitForIdle(ctx, WaitOptions{Status: "active", Timeout: 5 * time.Minute}); err != nil {
				t.Logf("Timeout waiting for idle, ignoring it: %s", err)
			}
			requireLokiUp(ctx, t, h, 0)
		}},

		step{"redeploy and rerelate", func(t *testing.T) {
			deployRelated(t)
			relate(t)
			waitActive(t)
			requireLokiUp(ctx, t, h, 0)
		}},
	)
}

// forceRemoveHung force removes the apps which lost their units but are
// still listed as active.
func forceRemoveHung(t *testing.T, h *Harness, apps []string) {
	t.Helper()
	ctx := testContext(t)

	status, err := h.Juju.Status(ctx)
	require.NoError(t, err)

	var hung []string
	for _, app := range apps {
		if s, ok := status.Applications[app]; ok && len(s.Units) == 0 && s.ApplicationStatus.Current == "active" {
			hung = append(hung, app)
		}
	}
	require.NotEmpty(t, hung, "Failed to remove applications")

	for _, app := range hung {
		t.Logf("%s stuck removing, forcing", app)
		require.NoError(t, h.Juju.RemoveApplication(ctx, app, true))
	}
}
