package application

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"github.com/canonical/loki-tester/src/domain"
	"github.com/canonical/loki-tester/src/util"
)

//go:generate mockery --name HookTools --output ./mocks

// HookTools is the subset of the Juju hook tools the tester uses.
type HookTools interface {
	StatusSet(ctx context.Context, status domain.Status) error
	ActionGet(ctx context.Context) (map[string]any, error)
	ActionSet(ctx context.Context, results map[string]string) error
	ActionFail(ctx context.Context, message string) error
	ConfigGet(ctx context.Context) (map[string]any, error)
	IsLeader(ctx context.Context) (bool, error)
	RelationIds(ctx context.Context, name string) ([]string, error)
	RelationList(ctx context.Context, relationId string) ([]string, error)
	RelationGet(ctx context.Context, relationId, unitOrApp string, app bool) (map[string]string, error)
	RelationSet(ctx context.Context, relationId string, app bool, data map[string]string) error
}

type hookTools struct {
	run util.CommandRunner
}

func NewHookTools(run util.CommandRunner) HookTools {
	if run == nil {
		run = util.RunCommand
	}
	return &hookTools{run: run}
}

func (self *hookTools) StatusSet(ctx context.Context, status domain.Status) error {
	_, err := self.run(ctx, nil, "status-set", string(status.Kind), status.Message)
	return errors.WithMessagef(err, "While setting status to %s", status)
}

func (self *hookTools) ActionGet(ctx context.Context) (params map[string]any, err error) {
	err = self.runJSON(ctx, &params, "action-get", "--format=json")
	err = errors.WithMessage(err, "While getting action parameters")
	return
}

func (self *hookTools) ActionSet(ctx context.Context, results map[string]string) error {
	keys := maps.Keys(results)
	slices.Sort(keys)

	args := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, k+"="+results[k])
	}
	_, err := self.run(ctx, nil, "action-set", args...)
	return errors.WithMessage(err, "While setting action results")
}

func (self *hookTools) ActionFail(ctx context.Context, message string) error {
	_, err := self.run(ctx, nil, "action-fail", message)
	return errors.WithMessage(err, "While failing action")
}

func (self *hookTools) ConfigGet(ctx context.Context) (cfg map[string]any, err error) {
	err = self.runJSON(ctx, &cfg, "config-get", "--format=json")
	err = errors.WithMessage(err, "While getting charm config")
	return
}

func (self *hookTools) IsLeader(ctx context.Context) (leader bool, err error) {
	err = self.runJSON(ctx, &leader, "is-leader", "--format=json")
	err = errors.WithMessage(err, "While checking leadership")
	return
}

func (self *hookTools) RelationIds(ctx context.Context, name string) (ids []string, err error) {
	err = self.runJSON(ctx, &ids, "relation-ids", name, "--format=json")
	err = errors.WithMessagef(err, "While listing %q relations", name)
	return
}

func (self *hookTools) RelationList(ctx context.Context, relationId string) (units []string, err error) {
	err = self.runJSON(ctx, &units, "relation-list", "-r", relationId, "--format=json")
	err = errors.WithMessagef(err, "While listing units of relation %s", relationId)
	return
}

func (self *hookTools) RelationGet(ctx context.Context, relationId, unitOrApp string, app bool) (data map[string]string, err error) {
	args := []string{"-r", relationId, "--format=json"}
	if app {
		args = append(args, "--app")
	}
	args = append(args, "-", unitOrApp)

	err = self.runJSON(ctx, &data, "relation-get", args...)
	err = errors.WithMessagef(err, "While getting relation %s data of %s", relationId, unitOrApp)
	return
}

func (self *hookTools) RelationSet(ctx context.Context, relationId string, app bool, data map[string]string) error {
	// Values are JSON documents, so they are passed as a YAML file on stdin
	// rather than as key=value arguments.
	stdin, err := yaml.Marshal(data)
	if err != nil {
		return errors.WithMessage(err, "While encoding relation data")
	}

	args := []string{"-r", relationId}
	if app {
		args = append(args, "--app")
	}
	args = append(args, "--file", "-")

	_, err = self.run(ctx, stdin, "relation-set", args...)
	return errors.WithMessagef(err, "While setting relation %s data", relationId)
}

func (self *hookTools) runJSON(ctx context.Context, v any, name string, args ...string) error {
	stdout, err := self.run(ctx, nil, name, args...)
	if err != nil {
		return err
	}

	if len(strings.TrimSpace(string(stdout))) == 0 {
		return nil
	}

	return errors.WithMessagef(json.Unmarshal(stdout, v), "While decoding output of %s", name)
}
