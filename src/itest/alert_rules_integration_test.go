//go:build integration

package itest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertRulesLoad(t *testing.T) {
	const (
		testerApp2 = "loki-tester2"
		cosConfig  = "cos-config"
	)

	ctx := testContext(t)
	h := NewModel(t, "alert-rules")

	runSteps(t,
		step{"deploy loki without rules", func(t *testing.T) {
			deployLoki(ctx, t, h, 1)

			withIPAddressWorkaround(ctx, t, h, func() {
				require.NoError(t, h.Juju.WaitForIdle(ctx, WaitOptions{
					Apps: []string{lokiApp}, Status: "active", Timeout: 1000 * time.Second,
				}))
			})

			requireLokiUp(ctx, t, h, 0)
			assert.Len(t, h.LokiRules(ctx, lokiApp), 0)
		}},

		step{"first relation loads one rule namespace", func(t *testing.T) {
			deployTester(ctx, t, h, testerApp)
			require.NoError(t, h.Juju.Integrate(ctx, lokiApp, testerApp))

			withIPAddressWorkaround(ctx, t, h, func() {
				require.NoError(t, h.Juju.WaitForIdle(ctx, WaitOptions{
					Apps: []string{lokiApp, testerApp}, Status: "active", Timeout: 1000 * time.Second,
				}))
			})

			assert.Len(t, h.LokiRules(ctx, lokiApp), 1)
		}},

		step{"second relation loads a second namespace", func(t *testing.T) {
			deployTester(ctx, t, h, testerApp2)
			require.NoError(t, h.Juju.Integrate(ctx, lokiApp, testerApp2))

			withIPAddressWorkaround(ctx, t, h, func() {
				require.NoError(t, h.Juju.WaitForIdle(ctx, WaitOptions{
					Apps: []string{lokiApp, testerApp2}, Status: "active", Timeout: 1000 * time.Second,
				}))
			})

			assert.Len(t, h.LokiRules(ctx, lokiApp), 2)
		}},

		step{"removing an app retains the other rules", func(t *testing.T) {
			require.NoError(t, h.Juju.RemoveApplication(ctx, testerApp, false))
			require.NoError(t, h.Juju.BlockUntil(ctx, 10*time.Minute, func(s Status) bool {
				_, ok := s.Applications[testerApp]
				return !ok
			}))

			assert.Len(t, h.LokiRules(ctx, lokiApp), 1)
		}},

		step{"invalid rules block loki", func(t *testing.T) {
			require.NoError(t, h.Juju.Deploy(ctx, "cos-configuration-k8s", DeployOptions{
				Application: cosConfig,
				Channel:     "latest/edge",
				Config: map[string]string{
					"git_repo":              "https://github.com/canonical/loki-k8s-operator",
					"git_branch":            "main",
					"loki_alert_rules_path": "tests/sample_rule_files/error",
				},
			}))
			require.NoError(t, h.Juju.WaitForIdle(ctx, WaitOptions{
				Apps: []string{cosConfig}, Timeout: 1000 * time.Second,
			}))

			// the files may have shown up after the last hook fired
			result, err := h.Juju.RunAction(ctx, cosConfig+"/0", "sync-now", nil)
			require.NoError(t, err)
			require.Equal(t, "completed", result.Status, result.Message)

			require.NoError(t, h.Juju.Integrate(ctx, lokiApp, cosConfig))

			withIPAddressWorkaround(ctx, t, h, func() {
				require.NoError(t, h.Juju.WaitForIdle(ctx, WaitOptions{
					Apps: []string{lokiApp}, Status: "blocked", Timeout: 1000 * time.Second,
				}))
			})
		}},
	)
}
