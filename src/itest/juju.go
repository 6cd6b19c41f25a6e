// Package itest drives a Juju controller through the juju CLI to deploy
// Loki and the tester charm and to observe the outcome.
package itest

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"github.com/canonical/loki-tester/src/util"
)

// Juju runs juju CLI commands against a single model.
type Juju struct {
	Model  string
	run    util.CommandRunner
	logger zerolog.Logger
}

func NewJuju(model string, run util.CommandRunner, logger *zerolog.Logger) *Juju {
	if run == nil {
		run = util.RunCommand
	}
	return &Juju{
		Model:  model,
		run:    run,
		logger: logger.With().Str("component", "Juju").Str("model", model).Logger(),
	}
}

func (self *Juju) juju(ctx context.Context, args ...string) ([]byte, error) {
	if self.Model != "" {
		args = append([]string{args[0], "--model", self.Model}, args[1:]...)
	}
	self.logger.Debug().Strs("args", args).Msg("Running juju")
	return self.run(ctx, nil, "juju", args...)
}

type DeployOptions struct {
	Application string
	Channel     string
	Trust       bool
	NumUnits    int
	Resources   map[string]string
	Config      map[string]string
}

func (self *Juju) Deploy(ctx context.Context, charm string, opts DeployOptions) error {
	args := []string{"deploy", charm}
	if opts.Application != "" {
		args = append(args, opts.Application)
	}
	if opts.Channel != "" {
		args = append(args, "--channel", opts.Channel)
	}
	if opts.Trust {
		args = append(args, "--trust")
	}
	if opts.NumUnits > 0 {
		args = append(args, "--num-units", strconv.Itoa(opts.NumUnits))
	}
	args = appendSorted(args, "--resource", opts.Resources)
	args = appendSorted(args, "--config", opts.Config)

	_, err := self.juju(ctx, args...)
	return errors.WithMessagef(err, "While deploying %s", charm)
}

func (self *Juju) Integrate(ctx context.Context, a, b string) error {
	_, err := self.juju(ctx, "integrate", a, b)
	return errors.WithMessagef(err, "While integrating %s with %s", a, b)
}

func (self *Juju) RemoveRelation(ctx context.Context, a, b string) error {
	_, err := self.juju(ctx, "remove-relation", a, b)
	return errors.WithMessagef(err, "While removing relation between %s and %s", a, b)
}

func (self *Juju) RemoveApplication(ctx context.Context, app string, force bool) error {
	args := []string{"remove-application", app, "--destroy-storage", "--no-prompt"}
	if force {
		args = append(args, "--force", "--no-wait")
	}
	_, err := self.juju(ctx, args...)
	return errors.WithMessagef(err, "While removing application %s", app)
}

func (self *Juju) Scale(ctx context.Context, app string, units int) error {
	_, err := self.juju(ctx, "scale-application", app, strconv.Itoa(units))
	return errors.WithMessagef(err, "While scaling %s to %d units", app, units)
}

func (self *Juju) Status(ctx context.Context) (status Status, err error) {
	out, err := self.juju(ctx, "status", "--format=json")
	if err != nil {
		return status, errors.WithMessage(err, "While getting status")
	}
	err = errors.WithMessage(json.Unmarshal(out, &status), "While decoding status")
	return
}

func (self *Juju) ModelConfig(ctx context.Context, key string) (string, error) {
	out, err := self.juju(ctx, "model-config", key)
	if err != nil {
		return "", errors.WithMessagef(err, "While getting model config %s", key)
	}
	return string(trimNewline(out)), nil
}

func (self *Juju) SetModelConfig(ctx context.Context, values map[string]string) error {
	args := append([]string{"model-config"}, keyValues(values)...)
	_, err := self.juju(ctx, args...)
	return errors.WithMessage(err, "While setting model config")
}

func (self *Juju) Config(ctx context.Context, app string, values map[string]string) error {
	args := append([]string{"config", app}, keyValues(values)...)
	_, err := self.juju(ctx, args...)
	return errors.WithMessagef(err, "While configuring %s", app)
}

type ActionResult struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Results map[string]any `json:"results"`
}

// RunAction runs an action on a unit and waits for it to finish.
// A failed action is not an error; check the result status.
func (self *Juju) RunAction(ctx context.Context, unit, action string, params map[string]string) (ActionResult, error) {
	args := append([]string{"run", unit, action, "--format=json"}, keyValues(params)...)

	result := ActionResult{}

	out, err := self.juju(ctx, args...)
	if err != nil && len(out) == 0 {
		return result, errors.WithMessagef(err, "While running %s on %s", action, unit)
	}

	byUnit := map[string]ActionResult{}
	if err := json.Unmarshal(out, &byUnit); err != nil {
		return result, errors.WithMessagef(err, "While decoding result of %s on %s", action, unit)
	}

	result, ok := byUnit[unit]
	if !ok {
		return result, errors.Errorf("No result of %s for unit %s", action, unit)
	}
	return result, nil
}

type ShowUnitOptions struct {
	Endpoint    string
	RelatedUnit string
	AppOnly     bool
}

type UnitInfo struct {
	Leader       bool           `yaml:"leader"`
	Address      string         `yaml:"address"`
	ProviderId   string         `yaml:"provider-id"`
	RelationInfo []RelationInfo `yaml:"relation-info"`
}

type RelationInfo struct {
	Endpoint        string                 `yaml:"endpoint"`
	RelatedEndpoint string                 `yaml:"related-endpoint"`
	ApplicationData map[string]string      `yaml:"application-data"`
	RelatedUnits    map[string]RelatedUnit `yaml:"related-units"`
}

type RelatedUnit struct {
	InScope bool              `yaml:"in-scope"`
	Data    map[string]string `yaml:"data"`
}

func (self *Juju) ShowUnit(ctx context.Context, unit string, opts ShowUnitOptions) (info UnitInfo, err error) {
	args := []string{"show-unit", unit}
	if opts.Endpoint != "" {
		args = append(args, "--endpoint", opts.Endpoint)
	}
	if opts.RelatedUnit != "" {
		args = append(args, "--related-unit", opts.RelatedUnit)
	}
	if opts.AppOnly {
		args = append(args, "--app")
	}

	out, err := self.juju(ctx, args...)
	if err != nil {
		return info, errors.WithMessagef(err, "While showing unit %s", unit)
	}

	byUnit := map[string]UnitInfo{}
	if err = yaml.Unmarshal(out, &byUnit); err != nil {
		return info, errors.WithMessagef(err, "While decoding unit %s", unit)
	}

	info, ok := byUnit[unit]
	if !ok {
		err = errors.Errorf("Unit %s not found in show-unit output", unit)
	}
	return
}

func (self *Juju) AddModel(ctx context.Context, name string) error {
	_, err := self.run(ctx, nil, "juju", "add-model", name)
	if err == nil {
		self.Model = name
	}
	return errors.WithMessagef(err, "While adding model %s", name)
}

func (self *Juju) DestroyModel(ctx context.Context) error {
	_, err := self.run(ctx, nil, "juju", "destroy-model", self.Model,
		"--destroy-storage", "--force", "--no-wait", "--no-prompt")
	return errors.WithMessagef(err, "While destroying model %s", self.Model)
}

// WithModel returns a client for another model on the same controller.
func (self *Juju) WithModel(model string) *Juju {
	clone := *self
	clone.Model = model
	clone.logger = self.logger.With().Str("model", model).Logger()
	return &clone
}

func appendSorted(args []string, flag string, values map[string]string) []string {
	for _, kv := range keyValues(values) {
		args = append(args, flag, kv)
	}
	return args
}

// keyValues renders values as sorted key=value arguments.
func keyValues(values map[string]string) []string {
	keys := maps.Keys(values)
	slices.Sort(keys)

	kvs := make([]string, 0, len(keys))
	for _, k := range keys {
		kvs = append(kvs, fmt.Sprintf("%s=%s", k, values[k]))
	}
	return kvs
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
