package domain

// AlertRule mirrors a Prometheus style alerting rule with a LogQL expression.
type AlertRule struct {
	Alert       string            `json:"alert" yaml:"alert"`
	Expr        string            `json:"expr" yaml:"expr"`
	For         string            `json:"for,omitempty" yaml:"for,omitempty"`
	Labels      map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

type AlertRuleGroup struct {
	Name  string      `json:"name" yaml:"name"`
	Rules []AlertRule `json:"rules" yaml:"rules"`
}

// AlertRuleGroups is the payload published under the "alert_rules" key.
type AlertRuleGroups struct {
	Groups []AlertRuleGroup `json:"groups" yaml:"groups"`
}

func (self AlertRuleGroups) NumRules() (n int) {
	for _, group := range self.Groups {
		n += len(group.Rules)
	}
	return
}
