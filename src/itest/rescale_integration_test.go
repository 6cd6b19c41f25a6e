//go:build integration

package itest

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/loki-tester/src/domain"
)

func TestRescaleCharm(t *testing.T) {
	const alertmanager = "alertmanager"

	ctx := testContext(t)
	h := NewModel(t, "rescale")

	scale := func(t *testing.T, units int) {
		require.NoError(t, h.Juju.Scale(ctx, lokiApp, units))
		require.NoError(t, h.Juju.BlockUntil(ctx, 10*time.Minute, func(s Status) bool {
			return len(s.Applications[lokiApp].Units) == units
		}))
		if units > 0 {
			require.NoError(t, h.Juju.WaitForIdle(ctx, WaitOptions{
				Status: "active", Timeout: 600 * time.Second, WaitForUnits: units,
			}))
			requireLokiUp(ctx, t, h, 0)
		}
	}

	runSteps(t,
		step{"setup", func(t *testing.T) {
			setupLogging(ctx, t, h)
		}},

		step{"build and deploy", func(t *testing.T) {
			deployLoki(ctx, t, h, 3)
			deployTester(ctx, t, h, testerApp)
			require.NoError(t, h.Juju.Deploy(ctx, "alertmanager-k8s", DeployOptions{
				Application: alertmanager, Channel: "latest/edge", Trust: true,
			}))

			require.NoError(t, h.Juju.WaitForIdle(ctx, WaitOptions{
				Apps: []string{lokiApp}, Status: "active", Timeout: 600 * time.Second,
			}))
			requireLokiUp(ctx, t, h, 0)
		}},

		step{"scale down to zero units", func(t *testing.T) {
			scale(t, 0)
		}},

		step{"scale back up to three units", func(t *testing.T) {
			scale(t, 3)
		}},

		step{"add relation and scale to zero", func(t *testing.T) {
			require.NoError(t, h.Juju.Integrate(ctx, lokiApp, testerApp))
			require.NoError(t, h.Juju.WaitForIdle(ctx, WaitOptions{Status: "active", Timeout: 600 * time.Second}))
			requireLokiUp(ctx, t, h, 0)

			scale(t, 0)
		}},

		step{"add relation and scale to three units", func(t *testing.T) {
			require.NoError(t, h.Juju.Integrate(ctx, lokiApp, alertmanager))
			scale(t, 3)
		}},
	)
}

// TestRescalePushAPI checks that the requirer always sees the push
// endpoints of exactly the current Loki units.
func TestRescalePushAPI(t *testing.T) {
	ctx := testContext(t)
	h := NewModel(t, "rescale-push")

	advertised := func(t *testing.T, relatedUnit string) ([]domain.Endpoint, RelationInfo) {
		info, err := h.Juju.ShowUnit(ctx, testerApp+"/0", ShowUnitOptions{
			Endpoint:    "logging",
			RelatedUnit: relatedUnit,
			AppOnly:     true,
		})
		require.NoError(t, err)
		// there is a single logging relation
		require.NotEmpty(t, info.RelationInfo)
		relation := info.RelationInfo[0]

		var endpoints []domain.Endpoint
		if raw := relation.ApplicationData["endpoints"]; raw != "" {
			require.NoError(t, json.Unmarshal([]byte(raw), &endpoints))
		}
		return endpoints, relation
	}

	runSteps(t,
		step{"setup", func(t *testing.T) {
			setupLogging(ctx, t, h)
			deployLoki(ctx, t, h, 1)
			deployTester(ctx, t, h, testerApp)
			require.NoError(t, h.Juju.Integrate(ctx, lokiApp, testerApp))
			require.NoError(t, h.Juju.WaitForIdle(ctx, WaitOptions{Status: "active", Timeout: 600 * time.Second}))
		}},

		step{"requirer has the loki endpoint", func(t *testing.T) {
			endpoints, relation := advertised(t, lokiApp+"/0")

			require.Len(t, endpoints, 1)
			assert.True(t, strings.HasPrefix(endpoints[0].URL, "http"))
			assert.True(t, strings.HasPrefix(relation.ApplicationData["promtail_binary_zip_url"], "http"))
		}},

		step{"scale up to three units", func(t *testing.T) {
			require.NoError(t, h.Juju.Scale(ctx, lokiApp, 3))
			require.NoError(t, h.Juju.WaitForIdle(ctx, WaitOptions{
				Apps: []string{lokiApp}, Status: "active", Timeout: 600 * time.Second, WaitForUnits: 3,
			}))
			for unit := 0; unit < 3; unit++ {
				requireLokiUp(ctx, t, h, unit)
			}

			endpoints, _ := advertised(t, "")
			assert.Len(t, endpoints, 3)
		}},

		step{"scale down to zero units", func(t *testing.T) {
			require.NoError(t, h.Juju.Scale(ctx, lokiApp, 0))
			require.NoError(t, h.Juju.BlockUntil(ctx, 10*time.Minute, func(s Status) bool {
				return len(s.Applications[lokiApp].Units) == 0
			}))
			require.NoError(t, h.Juju.WaitForIdle(ctx, WaitOptions{Apps: []string{testerApp}, Timeout: 600 * time.Second}))

			endpoints, _ := advertised(t, "")
			assert.Len(t, endpoints, 0)
		}},
	)
}
