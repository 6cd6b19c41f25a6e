package config

import (
	"os"
	"path/filepath"

	"github.com/juju/names/v5"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// CharmEnv is the environment the Juju agent sets up for a hook or action.
type CharmEnv struct {
	DispatchPath string
	CharmDir     string
	UnitName     string
	ModelName    string
	ModelUUID    string
	ActionName   string
	RelationName string
	RelationId   string
	RemoteUnit   string
	RemoteApp    string
	WorkloadName string
}

func NewCharmEnv() (CharmEnv, error) {
	env := CharmEnv{
		DispatchPath: GetenvStr("JUJU_DISPATCH_PATH"),
		CharmDir:     GetenvStr("JUJU_CHARM_DIR"),
		UnitName:     GetenvStr("JUJU_UNIT_NAME"),
		ModelName:    GetenvStr("JUJU_MODEL_NAME"),
		ModelUUID:    GetenvStr("JUJU_MODEL_UUID"),
		ActionName:   GetenvStr("JUJU_ACTION_NAME"),
		RelationName: GetenvStr("JUJU_RELATION"),
		RelationId:   GetenvStr("JUJU_RELATION_ID"),
		RemoteUnit:   GetenvStr("JUJU_REMOTE_UNIT"),
		RemoteApp:    GetenvStr("JUJU_REMOTE_APP"),
		WorkloadName: GetenvStr("JUJU_WORKLOAD_NAME"),
	}

	if env.DispatchPath == "" {
		// Juju < 2.8 runs hooks/<name> directly without a dispatch path.
		if env.ActionName != "" {
			env.DispatchPath = "actions/" + env.ActionName
		} else {
			env.DispatchPath = "hooks/" + filepath.Base(os.Args[0])
		}
	}

	if env.CharmDir == "" {
		if wd, err := os.Getwd(); err != nil {
			return env, errors.WithMessage(err, "While determining charm directory")
		} else {
			env.CharmDir = wd
		}
	}

	if !names.IsValidUnit(env.UnitName) {
		return env, errors.Errorf("JUJU_UNIT_NAME %q is not a valid unit name", env.UnitName)
	}

	return env, nil
}

// CharmMeta holds the parts of metadata.yaml the tester needs.
type CharmMeta struct {
	Name       string                    `yaml:"name"`
	Containers map[string]CharmContainer `yaml:"containers"`
	Requires   map[string]CharmRelation  `yaml:"requires"`
	Resources  map[string]CharmResource  `yaml:"resources"`
}

type CharmContainer struct {
	Resource string `yaml:"resource"`
}

type CharmRelation struct {
	Interface string `yaml:"interface"`
}

type CharmResource struct {
	Type           string `yaml:"type"`
	Description    string `yaml:"description"`
	UpstreamSource string `yaml:"upstream-source"`
}

func ReadCharmMeta(charmDir string) (CharmMeta, error) {
	return ReadCharmMetaFile(filepath.Join(charmDir, "metadata.yaml"))
}

func ReadCharmMetaFile(path string) (CharmMeta, error) {
	meta := CharmMeta{}

	data, err := os.ReadFile(path)
	if err != nil {
		return meta, errors.WithMessagef(err, "While reading %s", path)
	}

	if err := yaml.Unmarshal(data, &meta); err != nil {
		return meta, errors.WithMessagef(err, "While parsing %s", path)
	}

	if meta.Name == "" {
		return meta, errors.Errorf("%s does not declare a charm name", path)
	}

	return meta, nil
}

// RelationByInterface returns the name of the first required relation with the given interface.
func (self CharmMeta) RelationByInterface(iface string) (string, bool) {
	for name, rel := range self.Requires {
		if rel.Interface == iface {
			return name, true
		}
	}
	return "", false
}

// Container returns the workload container name; charms with more than
// one container are not supported.
func (self CharmMeta) Container() string {
	for name := range self.Containers {
		return name
	}
	return ""
}
