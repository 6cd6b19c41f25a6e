package tester

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/canonical/loki-tester/src/application"
	"github.com/canonical/loki-tester/src/application/component"
	"github.com/canonical/loki-tester/src/application/service"
	"github.com/canonical/loki-tester/src/config"
	"github.com/canonical/loki-tester/src/domain"
)

const LokiPushAPIInterface = "loki_push_api"

type DispatchCmd struct {
	DispatchPath string `arg:"positional" help:"hooks/<name> or actions/<name>, defaults to JUJU_DISPATCH_PATH"`
}

func (cmd *DispatchCmd) Run(logger *zerolog.Logger) error {
	env, err := config.NewCharmEnv()
	if err != nil {
		return err
	}
	if cmd.DispatchPath != "" {
		env.DispatchPath = cmd.DispatchPath
	}

	meta, err := config.ReadCharmMeta(env.CharmDir)
	if err != nil {
		return err
	}

	event, err := NewEvent(env, meta)
	if err != nil {
		return err
	}

	topology, err := domain.NewTopology(env.ModelName, env.ModelUUID, env.UnitName, meta.Name)
	if err != nil {
		return errors.WithMessage(err, "While building topology")
	}

	emitter, err := config.NewEmitterConfig()
	if err != nil {
		return errors.WithMessage(err, "While configuring the Loki emitter")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	names := eventNames(meta)
	tools := application.NewHookTools(nil)

	tester := &component.LokiTester{
		Logger:            logger.With().Str("component", "LokiTester").Str("event", event.Name).Logger(),
		HookTools:         tools,
		Pebble:            application.NewPebbleClient(application.PebbleSocket(names.Container)),
		Registry:          service.NewHandlerRegistry(domain.LevelInfo, logger),
		HandlerFactory:    service.NewHandlerFactory(ctx, os.Stderr, emitter, logger),
		EndpointService:   service.NewEndpointService(tools, names.LoggingRelation, logger),
		AlertRulesService: service.NewAlertRulesService(tools, names.LoggingRelation, topology, logger),
		Topology:          topology,
		AlertRulesDir:     filepath.Join(env.CharmDir, service.AlertRulesDir),
	}

	return tester.Dispatch(ctx, event)
}

// NewEvent parses the dispatch path of env and attaches the relation
// context of the invocation.
func NewEvent(env config.CharmEnv, meta config.CharmMeta) (domain.Event, error) {
	names := eventNames(meta)
	if env.WorkloadName != "" {
		names.Container = env.WorkloadName
	}

	event, err := domain.ParseEvent(env.DispatchPath, names)
	if err != nil {
		return event, err
	}

	if env.RelationName != "" {
		event.RelationName = env.RelationName
	}
	event.RelationId = env.RelationId
	event.RemoteUnit = env.RemoteUnit
	event.RemoteApp = env.RemoteApp

	return event, nil
}

func eventNames(meta config.CharmMeta) domain.EventNames {
	names := domain.DefaultEventNames
	if relation, ok := meta.RelationByInterface(LokiPushAPIInterface); ok {
		names.LoggingRelation = relation
	}
	if container := meta.Container(); container != "" {
		names.Container = container
	}
	return names
}
