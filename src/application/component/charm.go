package component

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/canonical/loki-tester/src/application"
	"github.com/canonical/loki-tester/src/application/service"
	"github.com/canonical/loki-tester/src/domain"
)

const LogLevelOption = "log-level"

// LokiTester handles a single hook or action invocation.
type LokiTester struct {
	Logger            zerolog.Logger
	HookTools         application.HookTools
	Pebble            application.PebbleClient
	Registry          service.HandlerRegistry
	HandlerFactory    service.HandlerFactory
	EndpointService   service.EndpointService
	AlertRulesService service.AlertRulesService
	Topology          domain.Topology
	AlertRulesDir     string
}

// Dispatch reacts to event and flushes the owned logger before returning.
func (self *LokiTester) Dispatch(ctx context.Context, event domain.Event) (err error) {
	defer func() {
		if closeErr := self.Registry.Close(); err == nil {
			err = closeErr
		}
	}()

	if _, ok := Handlers[event.Kind]; !ok {
		self.Logger.Debug().Str("event", event.Name).Msg("Ignoring event")
		return nil
	}

	state, err := self.gather(ctx, &event)
	if err != nil {
		return err
	}

	state, effects, _ := React(state, event)
	log := self.Logger.Debug().Str("event", event.Name).Int("effects", len(effects))
	if event.RelationId != "" {
		log = log.Str("relation", event.RelationId).Str("remote_unit", event.RemoteUnit).Str("remote_app", event.RemoteApp)
	}
	log.Msg("Reacting")

	for _, effect := range effects {
		if state, err = self.apply(ctx, state, effect); err != nil {
			return errors.WithMessagef(err, "While handling %s", event.Name)
		}
	}

	return nil
}

func (self *LokiTester) gather(ctx context.Context, event *domain.Event) (state State, err error) {
	state.Installed = self.Registry.Installed()
	state.CanConnect = self.Pebble.CanConnect()

	if event.Kind.IsAction() && event.Params == nil {
		if event.Params, err = self.HookTools.ActionGet(ctx); err != nil {
			return
		}
	}

	if state.Leader, err = self.HookTools.IsLeader(ctx); err != nil {
		return
	}

	if state.Endpoints, err = self.EndpointService.Endpoints(ctx); err != nil {
		return
	}

	state.LogLevel = domain.LevelInfo
	cfg, err := self.HookTools.ConfigGet(ctx)
	if err != nil {
		return
	}
	if v, ok := cfg[LogLevelOption]; ok && v != nil {
		level, parseErr := domain.ParseLevel(fmt.Sprint(v))
		if parseErr != nil {
			// A bad option must not break the hook, least of all log-error.
			self.Logger.Warn().Err(parseErr).Str("option", LogLevelOption).Msgf("Falling back to %s", domain.LevelInfo)
		} else {
			state.LogLevel = level
		}
	}

	return
}

func (self *LokiTester) apply(ctx context.Context, state State, effect Effect) (State, error) {
	switch e := effect.(type) {
	case SetLogger:
		return self.setLogger(state, e)

	case Log:
		self.Registry.Log(string(e.Level), e.Message)

	case SetStatus:
		if err := self.HookTools.StatusSet(ctx, e.Status); err != nil {
			return state, err
		}
		state.Status = e.Status

	case PublishAlertRules:
		groups, err := self.AlertRulesService.Load(self.AlertRulesDir)
		invalid := &service.InvalidAlertRulesError{}
		if errors.As(err, &invalid) {
			self.Logger.Warn().Err(err).Msg("Publishing valid alert rules only")
		} else if err != nil {
			return state, err
		}
		if err := self.AlertRulesService.Publish(ctx, groups); err != nil {
			return state, err
		}

	case LogForAction:
		if self.Registry.Log(string(e.Level), e.Message) {
			return state, self.HookTools.ActionSet(ctx, map[string]string{"message": LogErrorSucceeded})
		}
		return state, self.HookTools.ActionFail(ctx, LogErrorFailed)

	case FailAction:
		return state, self.HookTools.ActionFail(ctx, e.Message)

	default:
		return state, errors.Errorf("Unknown effect %T", effect)
	}

	return state, nil
}

func (self *LokiTester) setLogger(state State, e SetLogger) (State, error) {
	desired := map[string]service.Handler{
		service.ConsoleHandler: self.HandlerFactory.Console(),
	}

	if !e.LocalOnly && len(state.Endpoints) > 0 {
		// TODO: add a handler per endpoint, named after it.
		handler, err := self.HandlerFactory.Loki(state.Endpoints[0], self.Topology.Labels())
		if err != nil {
			return state, errors.WithMessage(err, "Failed to create Loki handler")
		}
		desired[service.LokiHandler] = handler
	}

	self.Registry.SetLevel(state.LogLevel)

	if _, err := self.Registry.Reconcile(desired); err != nil {
		return state, err
	}
	state.Installed = self.Registry.Installed()

	if _, ok := desired[service.LokiHandler]; ok {
		self.Registry.Log(string(domain.LevelDebug), "Successfully set Loki Logger")
	}

	return state, nil
}
