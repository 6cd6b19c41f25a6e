package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/grafana/loki/pkg/logql/syntax"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"github.com/canonical/loki-tester/src/application"
	"github.com/canonical/loki-tester/src/domain"
)

const (
	// AlertRulesDir is relative to the charm directory.
	AlertRulesDir = "src/loki_alert_rules"

	TopologyPlaceholder = "%%juju_topology%%"

	alertRulesKey = "alert_rules"
	metadataKey   = "metadata"
)

var alertRuleExtensions = []string{".rule", ".rules"}

// InvalidAlertRulesError lists the rule files that were skipped.
type InvalidAlertRulesError struct {
	Files map[string]error
}

func (self *InvalidAlertRulesError) Error() string {
	paths := maps.Keys(self.Files)
	slices.Sort(paths)

	msgs := make([]string, 0, len(paths))
	for _, path := range paths {
		msgs = append(msgs, fmt.Sprintf("%s: %s", path, self.Files[path]))
	}
	return "Invalid alert rule files: " + strings.Join(msgs, "; ")
}

//go:generate mockery --name AlertRulesService --output ./mocks

type AlertRulesService interface {
	// Load reads every rule file below dir and injects the topology.
	// Invalid files are skipped and reported as *InvalidAlertRulesError
	// alongside the groups of the valid ones.
	Load(dir string) (domain.AlertRuleGroups, error)
	// Publish writes the groups to the application data of every relation.
	Publish(ctx context.Context, groups domain.AlertRuleGroups) error
}

type alertRulesService struct {
	logger   zerolog.Logger
	tools    application.HookTools
	relation string
	topology domain.Topology
}

func NewAlertRulesService(tools application.HookTools, relation string, topology domain.Topology, logger *zerolog.Logger) AlertRulesService {
	return &alertRulesService{
		logger:   logger.With().Str("component", "AlertRulesService").Logger(),
		tools:    tools,
		relation: relation,
		topology: topology,
	}
}

func (self *alertRulesService) Load(dir string) (domain.AlertRuleGroups, error) {
	groups := domain.AlertRuleGroups{Groups: []domain.AlertRuleGroup{}}

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		self.logger.Debug().Str("dir", dir).Msg("No alert rules directory")
		return groups, nil
	}

	invalid := map[string]error{}
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !slices.Contains(alertRuleExtensions, filepath.Ext(path)) {
			return nil
		}

		fileGroups, err := self.loadFile(path)
		if err != nil {
			self.logger.Error().Err(err).Str("file", path).Msg("Skipping invalid alert rules")
			invalid[path] = err
			return nil
		}

		groups.Groups = append(groups.Groups, fileGroups...)
		return nil
	}); err != nil {
		return groups, errors.WithMessagef(err, "While reading alert rules from %s", dir)
	}

	self.logger.Debug().Int("groups", len(groups.Groups)).Int("rules", groups.NumRules()).Msg("Loaded alert rules")

	if len(invalid) > 0 {
		return groups, &InvalidAlertRulesError{Files: invalid}
	}
	return groups, nil
}

func (self *alertRulesService) loadFile(path string) ([]domain.AlertRuleGroup, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc := struct {
		Groups           []domain.AlertRuleGroup `yaml:"groups"`
		domain.AlertRule `yaml:",inline"`
	}{}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, errors.WithMessage(err, "Failed to parse YAML")
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var groups []domain.AlertRuleGroup
	switch {
	case len(doc.Groups) > 0:
		groups = doc.Groups
	case doc.Expr != "":
		groups = []domain.AlertRuleGroup{{Name: stem, Rules: []domain.AlertRule{doc.AlertRule}}}
	default:
		return nil, errors.New("No alert rules found")
	}

	for i := range groups {
		group := &groups[i]
		if group.Name == "" {
			group.Name = stem
		}
		group.Name = fmt.Sprintf("%s_%s_alerts", self.topology.Identifier(), group.Name)

		for j := range group.Rules {
			if err := self.injectTopology(&group.Rules[j]); err != nil {
				return nil, errors.WithMessagef(err, "In group %q", group.Name)
			}
		}
	}

	return groups, nil
}

func (self *alertRulesService) injectTopology(rule *domain.AlertRule) error {
	rule.Expr = strings.ReplaceAll(rule.Expr, TopologyPlaceholder, self.topology.Matchers())
	if _, err := syntax.ParseExpr(rule.Expr); err != nil {
		return errors.WithMessagef(err, "Invalid expression of alert %q", rule.Alert)
	}

	labels := make(map[string]string, len(rule.Labels)+3)
	maps.Copy(labels, rule.Labels)
	maps.Copy(labels, self.topology.ApplicationLabels())
	rule.Labels = labels

	return nil
}

func (self *alertRulesService) Publish(ctx context.Context, groups domain.AlertRuleGroups) error {
	rules, err := json.Marshal(groups)
	if err != nil {
		return errors.WithMessage(err, "While encoding alert rules")
	}

	metadata, err := json.Marshal(self.topology)
	if err != nil {
		return errors.WithMessage(err, "While encoding topology")
	}

	ids, err := self.tools.RelationIds(ctx, self.relation)
	if err != nil {
		return err
	}

	for _, id := range ids {
		if err := self.tools.RelationSet(ctx, id, true, map[string]string{
			alertRulesKey: string(rules),
			metadataKey:   string(metadata),
		}); err != nil {
			return errors.WithMessage(err, "Failed to publish alert rules")
		}
	}

	self.logger.Info().Int("rules", groups.NumRules()).Strs("relations", ids).Msg("Published alert rules")

	return nil
}
