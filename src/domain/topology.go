package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/juju/names/v5"
	"github.com/pkg/errors"
)

// Topology identifies where telemetry comes from. It is attached to every
// log line pushed to Loki and injected into alert rules.
type Topology struct {
	Model       string `json:"model"`
	ModelUUID   string `json:"model_uuid"`
	Application string `json:"application"`
	Unit        string `json:"unit"`
	CharmName   string `json:"charm_name"`
}

func NewTopology(model, modelUUID, unit, charmName string) (Topology, error) {
	if model == "" {
		return Topology{}, errors.New("Model name must not be empty")
	}
	if _, err := uuid.Parse(modelUUID); err != nil {
		return Topology{}, errors.WithMessagef(err, "Invalid model UUID %q", modelUUID)
	}
	if !names.IsValidUnit(unit) {
		return Topology{}, errors.Errorf("Invalid unit name %q", unit)
	}
	application, err := names.UnitApplication(unit)
	if err != nil {
		return Topology{}, errors.WithMessagef(err, "While getting application of unit %q", unit)
	}

	return Topology{
		Model:       model,
		ModelUUID:   modelUUID,
		Application: application,
		Unit:        unit,
		CharmName:   charmName,
	}, nil
}

// Identifier is unique per application across models.
func (self Topology) Identifier() string {
	return fmt.Sprintf("%s_%s_%s", self.Model, self.ModelUUID, self.Application)
}

// ApplicationLabels omits the unit and charm labels.
func (self Topology) ApplicationLabels() map[string]string {
	return map[string]string{
		"juju_model":       self.Model,
		"juju_model_uuid":  self.ModelUUID,
		"juju_application": self.Application,
	}
}

// Labels returns the PromQL/LogQL label set of the topology.
func (self Topology) Labels() map[string]string {
	labels := self.ApplicationLabels()
	if self.Unit != "" {
		labels["juju_unit"] = self.Unit
	}
	if self.CharmName != "" {
		labels["juju_charm"] = self.CharmName
	}
	return labels
}

// Matchers renders the application level labels as LogQL equality
// matchers, without surrounding braces.
func (self Topology) Matchers() string {
	labels := self.ApplicationLabels()

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	matchers := make([]string, 0, len(keys))
	for _, k := range keys {
		matchers = append(matchers, fmt.Sprintf("%s=%q", k, labels[k]))
	}
	return strings.Join(matchers, ", ")
}
