package tester

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/canonical/loki-tester/src/application/service"
	"github.com/canonical/loki-tester/src/domain"
)

type RulesCmd struct {
	Dir       string `arg:"--dir,env:LOKI_ALERT_RULES_DIR" help:"directory of *.rule and *.rules files" default:"src/loki_alert_rules"`
	Model     string `arg:"--model,env:JUJU_MODEL_NAME" default:"lma"`
	ModelUUID string `arg:"--model-uuid,env:JUJU_MODEL_UUID" default:"00000000-0000-4000-8000-000000000000"`
	Unit      string `arg:"--unit,env:JUJU_UNIT_NAME" default:"loki-tester/0"`
	Charm     string `arg:"--charm" default:"loki-tester"`
}

func (cmd *RulesCmd) Run(logger *zerolog.Logger) error {
	return cmd.run(os.Stdout, logger)
}

// run prints the rule groups as they would be published. Invalid files
// make it fail after printing the valid ones.
func (cmd *RulesCmd) run(out io.Writer, logger *zerolog.Logger) error {
	topology, err := domain.NewTopology(cmd.Model, cmd.ModelUUID, cmd.Unit, cmd.Charm)
	if err != nil {
		return err
	}

	groups, loadErr := service.NewAlertRulesService(nil, "", topology, logger).Load(filepath.Clean(cmd.Dir))
	invalid := &service.InvalidAlertRulesError{}
	if loadErr != nil && !errors.As(loadErr, &invalid) {
		return loadErr
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(groups); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	fmt.Fprintf(out, "# %d groups, %d rules\n", len(groups.Groups), groups.NumRules())

	return loadErr
}
