package itest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/grafana/dskit/backoff"
	"github.com/pkg/errors"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/rs/zerolog"

	"github.com/canonical/loki-tester/src/application/service"
	"github.com/canonical/loki-tester/src/config"
	"github.com/canonical/loki-tester/src/domain"
)

const (
	LokiPort         = 3100
	AlertmanagerPort = 9093
)

// DefaultRetry is the retry policy of the address and readiness checks.
var DefaultRetry = backoff.Config{
	MinBackoff: 4 * time.Second,
	MaxBackoff: 10 * time.Second,
	MaxRetries: 10,
}

// Harness bundles the juju client with checks against the deployed workloads.
type Harness struct {
	Juju             *Juju
	Logger           *zerolog.Logger
	Retry            backoff.Config
	LokiPort         int
	AlertmanagerPort int
	// AlertPollInterval separates the attempts of LokiAlerts and AlertmanagerAlerts.
	AlertPollInterval time.Duration
}

func NewHarness(juju *Juju, logger *zerolog.Logger) *Harness {
	return &Harness{
		Juju:              juju,
		Logger:            logger,
		Retry:             DefaultRetry,
		LokiPort:          LokiPort,
		AlertmanagerPort:  AlertmanagerPort,
		AlertPollInterval: 2 * time.Second,
	}
}

// retry calls f until it succeeds or the retry policy is exhausted.
func (self *Harness) retry(ctx context.Context, what string, f func() error) error {
	boff := backoff.New(ctx, self.Retry)

	var err error
	for boff.Ongoing() {
		if err = f(); err == nil {
			return nil
		}
		self.Logger.Debug().Err(err).Int("retries", boff.NumRetries()).Msg(what)
		boff.Wait()
	}

	if err == nil {
		err = boff.Err()
	}
	return errors.WithMessagef(err, "Failed to %s after %d attempts", what, boff.NumRetries())
}

// UnitAddress returns the address of unit number unitNum of app.
func (self *Harness) UnitAddress(ctx context.Context, app string, unitNum int) (address string, err error) {
	unit := fmt.Sprintf("%s/%d", app, unitNum)
	err = self.retry(ctx, "get address of "+unit, func() error {
		status, err := self.Juju.Status(ctx)
		if err != nil {
			return err
		}
		address = status.Applications[app].Units[unit].Address
		if address == "" {
			return errors.Errorf("%s has no address yet", unit)
		}
		return nil
	})
	return
}

func (self *Harness) lokiService(ctx context.Context, app string, unitNum int) (service.LokiService, error) {
	address, err := self.UnitAddress(ctx, app, unitNum)
	if err != nil {
		return nil, err
	}

	base := fmt.Sprintf("http://%s:%d", address, self.LokiPort)

	lokiClient, err := config.NewLokiAPIClient(base, self.Logger)
	if err != nil {
		return nil, err
	}
	rulerClient, err := config.NewLokiAPIClient(base+"/prometheus", self.Logger)
	if err != nil {
		return nil, err
	}

	return service.NewLokiService(lokiClient, rulerClient), nil
}

// IsLokiUp reports whether Loki answers its build info endpoint with a version.
func (self *Harness) IsLokiUp(ctx context.Context, app string, unitNum int) (bool, error) {
	loki, err := self.lokiService(ctx, app, unitNum)
	if err != nil {
		return false, err
	}

	err = self.retry(ctx, "reach Loki", func() error {
		_, err := loki.BuildInfo(ctx)
		return err
	})
	return err == nil, err
}

// LokiRules returns the rule groups loaded by Loki by namespace.
// It is empty if Loki cannot be asked.
func (self *Harness) LokiRules(ctx context.Context, app string) map[string][]domain.AlertRuleGroup {
	loki, err := self.lokiService(ctx, app, 0)
	if err != nil {
		self.Logger.Warn().Err(err).Msg("Cannot reach Loki for rules")
		return map[string][]domain.AlertRuleGroup{}
	}

	rules, err := loki.Rules(ctx)
	if err != nil {
		self.Logger.Warn().Err(err).Msg("Failed to get Loki rules")
		return map[string][]domain.AlertRuleGroup{}
	}
	return rules
}

// LokiAlerts returns the alerts of Loki's ruler, asking up to retries
// times while there are none.
func (self *Harness) LokiAlerts(ctx context.Context, app string, unitNum, retries int) ([]v1.Alert, error) {
	loki, err := self.lokiService(ctx, app, unitNum)
	if err != nil {
		return nil, err
	}

	var alerts []v1.Alert
	err = self.pollNonEmpty(ctx, retries, func() (int, error) {
		alerts, err = loki.Alerts(ctx)
		return len(alerts), err
	})
	return alerts, err
}

// LokiLogs returns the lines matching query pushed since the given time,
// asking up to retries times while there are none.
func (self *Harness) LokiLogs(ctx context.Context, app string, unitNum int, query string, since time.Time, retries int) (service.LokiLog, error) {
	loki, err := self.lokiService(ctx, app, unitNum)
	if err != nil {
		return nil, err
	}

	var log service.LokiLog
	err = self.pollNonEmpty(ctx, retries, func() (int, error) {
		log, err = loki.QueryRangeLog(ctx, query, since, nil, "juju_unit")
		return len(log), err
	})
	return log, err
}

// AlertmanagerAlert is an alert as listed by Alertmanager's v2 API.
type AlertmanagerAlert struct {
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	StartsAt    time.Time         `json:"startsAt"`
	EndsAt      time.Time         `json:"endsAt"`
	Status      struct {
		State string `json:"state"`
	} `json:"status"`
}

func (self *Harness) AlertmanagerAlerts(ctx context.Context, app string, unitNum, retries int) ([]AlertmanagerAlert, error) {
	address, err := self.UnitAddress(ctx, app, unitNum)
	if err != nil {
		return nil, err
	}

	client, err := config.NewLokiAPIClient(fmt.Sprintf("http://%s:%d", address, self.AlertmanagerPort), self.Logger)
	if err != nil {
		return nil, err
	}

	var alerts []AlertmanagerAlert
	err = self.pollNonEmpty(ctx, retries, func() (int, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, client.URL("/api/v2/alerts", nil).String(), http.NoBody)
		if err != nil {
			return 0, err
		}
		resp, body, err := client.Do(ctx, req)
		if err != nil {
			return 0, err
		}
		if resp.StatusCode/100 != 2 {
			return 0, errors.Errorf("Error response %d from Alertmanager: %s", resp.StatusCode, body)
		}
		alerts = nil
		if err := json.Unmarshal(body, &alerts); err != nil {
			return 0, errors.WithMessage(err, "While decoding Alertmanager alerts")
		}
		return len(alerts), nil
	})
	return alerts, err
}

// pollNonEmpty calls f until it returns a positive count, at most retries times.
// Running out of retries is not an error.
func (self *Harness) pollNonEmpty(ctx context.Context, retries int, f func() (int, error)) error {
	for attempt := 1; ; attempt++ {
		n, err := f()
		if err != nil {
			return err
		}
		if n > 0 || attempt >= retries {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(self.AlertPollInterval):
		}
	}
}

// ModelConfigChange sets the given model config options and returns a
// function restoring their previous values.
func (self *Harness) ModelConfigChange(ctx context.Context, change map[string]string) (func(context.Context) error, error) {
	revert := make(map[string]string, len(change))
	for key := range change {
		value, err := self.Juju.ModelConfig(ctx, key)
		if err != nil {
			return nil, err
		}
		revert[key] = value
	}

	if err := self.Juju.SetModelConfig(ctx, change); err != nil {
		return nil, err
	}

	return func(ctx context.Context) error {
		return self.Juju.SetModelConfig(ctx, revert)
	}, nil
}

// IPAddressWorkaround makes update-status run every 10s until the returned
// function is called, so that units which started without an address get one.
func (self *Harness) IPAddressWorkaround(ctx context.Context) (func(context.Context) error, error) {
	return self.ModelConfigChange(ctx, map[string]string{"update-status-hook-interval": "10s"})
}
