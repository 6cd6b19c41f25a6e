package itest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Status is the subset of `juju status --format=json` the tests look at.
type Status struct {
	Model        ModelStatus                  `json:"model"`
	Applications map[string]ApplicationStatus `json:"applications"`
}

type ModelStatus struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type ApplicationStatus struct {
	Charm             string                `json:"charm"`
	Scale             int                   `json:"scale"`
	ApplicationStatus StatusInfo            `json:"application-status"`
	Units             map[string]UnitStatus `json:"units"`
}

type UnitStatus struct {
	WorkloadStatus StatusInfo `json:"workload-status"`
	JujuStatus     StatusInfo `json:"juju-status"`
	Leader         bool       `json:"leader"`
	Address        string     `json:"address"`
}

type StatusInfo struct {
	Current string `json:"current"`
	Message string `json:"message"`
}

// UnitNames returns the sorted names of the units of app.
func (self Status) UnitNames(app string) []string {
	names := maps.Keys(self.Applications[app].Units)
	slices.Sort(names)
	return names
}

// Idle reports whether every unit of the given applications is idle and,
// if status is set, shows that workload status. It also returns a reason
// when it is not.
func (self Status) Idle(apps []string, status string) (bool, string) {
	for _, app := range apps {
		appStatus, ok := self.Applications[app]
		if !ok {
			return false, fmt.Sprintf("%s is not deployed", app)
		}
		for _, name := range self.UnitNames(app) {
			unit := appStatus.Units[name]
			if unit.WorkloadStatus.Current == "error" {
				return false, fmt.Sprintf("%s is in error: %s", name, unit.WorkloadStatus.Message)
			}
			if unit.JujuStatus.Current != "idle" {
				return false, fmt.Sprintf("%s agent is %s", name, unit.JujuStatus.Current)
			}
			if status != "" && unit.WorkloadStatus.Current != status {
				return false, fmt.Sprintf("%s is %s, not %s", name, unit.WorkloadStatus.Current, status)
			}
		}
	}
	return true, ""
}

// Errored lists the units whose workload is in error.
func (self Status) Errored(apps []string) (errored []string) {
	for _, app := range apps {
		for _, name := range self.UnitNames(app) {
			if self.Applications[app].Units[name].WorkloadStatus.Current == "error" {
				errored = append(errored, name)
			}
		}
	}
	return
}

// TimeoutError is returned when a wait does not reach its condition in time.
type TimeoutError struct {
	Waited time.Duration
	Reason string
}

func (self *TimeoutError) Error() string {
	return fmt.Sprintf("Timed out after %s: %s", self.Waited, self.Reason)
}

type WaitOptions struct {
	// Apps defaults to every application in the model.
	Apps []string
	// Status is the workload status every unit must show, if set.
	Status string
	// IdlePeriod is how long the condition has to hold.
	IdlePeriod time.Duration
	Timeout    time.Duration
	// RaiseOnError fails the wait as soon as a unit is in error.
	RaiseOnError bool
	// WaitForUnits is the minimum number of units of every app.
	WaitForUnits int
	PollInterval time.Duration
}

func (self WaitOptions) withDefaults() WaitOptions {
	if self.Timeout == 0 {
		self.Timeout = 10 * time.Minute
	}
	if self.PollInterval == 0 {
		self.PollInterval = 5 * time.Second
	}
	if self.IdlePeriod == 0 {
		self.IdlePeriod = 15 * time.Second
	}
	return self
}

// WaitForIdle polls the model status until the applications have been
// idle for the idle period.
func (self *Juju) WaitForIdle(ctx context.Context, opts WaitOptions) error {
	opts = opts.withDefaults()

	var idleSince time.Time
	return self.poll(ctx, opts.Timeout, opts.PollInterval, func(status Status) (bool, string, error) {
		apps := opts.Apps
		if len(apps) == 0 {
			apps = maps.Keys(status.Applications)
		}

		if opts.RaiseOnError {
			if errored := status.Errored(apps); len(errored) > 0 {
				return false, "", errors.Errorf("Units in error: %s", strings.Join(errored, ", "))
			}
		}

		for _, app := range apps {
			if n := len(status.Applications[app].Units); n < opts.WaitForUnits {
				idleSince = time.Time{}
				return false, fmt.Sprintf("%s has %d of %d units", app, n, opts.WaitForUnits), nil
			}
		}

		idle, reason := status.Idle(apps, opts.Status)
		if !idle {
			idleSince = time.Time{}
			return false, reason, nil
		}

		if idleSince.IsZero() {
			idleSince = time.Now()
		}
		if held := time.Since(idleSince); held < opts.IdlePeriod {
			return false, fmt.Sprintf("idle for %s of %s", held.Round(time.Second), opts.IdlePeriod), nil
		}
		return true, "", nil
	})
}

// BlockUntil polls the model status until cond holds.
func (self *Juju) BlockUntil(ctx context.Context, timeout time.Duration, cond func(Status) bool) error {
	return self.poll(ctx, timeout, time.Second, func(status Status) (bool, string, error) {
		return cond(status), "condition not met", nil
	})
}

func (self *Juju) poll(ctx context.Context, timeout, interval time.Duration, check func(Status) (bool, string, error)) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	reason := "no status yet"
	for {
		status, err := self.Status(ctx)
		if err != nil {
			if ctx.Err() == nil {
				self.logger.Warn().Err(err).Msg("Failed to get status, retrying")
			}
		} else {
			done, why, err := check(status)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
			reason = why
			self.logger.Debug().Str("reason", reason).Msg("Waiting")
		}

		select {
		case <-ctx.Done():
			return &TimeoutError{Waited: time.Since(start).Round(time.Second), Reason: reason}
		case <-ticker.C:
		}
	}
}
