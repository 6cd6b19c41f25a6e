package component

import (
	"github.com/canonical/loki-tester/src/domain"
)

const (
	LogErrorSucceeded = "Error message successfully logged"
	LogErrorFailed    = "Failed to log error message"
	PebbleWaiting     = "Waiting for Pebble ready"
)

// State is what a handler knows about the unit when an event arrives.
type State struct {
	// Installed holds the names of the handlers of the owned logger.
	Installed  []string
	Endpoints  []domain.Endpoint
	Leader     bool
	CanConnect bool
	LogLevel   domain.Level
	Status     domain.Status
}

// Effect is a side effect requested by a Handler. Effects are applied in order.
type Effect interface {
	effect()
}

// SetLogger reconciles the handlers of the owned logger with the
// discovered endpoints, or with none at all if LocalOnly.
type SetLogger struct {
	LocalOnly bool
}

type Log struct {
	Level   domain.Level
	Message string
}

type SetStatus struct {
	Status domain.Status
}

// PublishAlertRules sends the charm's alert rules over every logging relation.
type PublishAlertRules struct{}

// LogForAction logs the message and reports the outcome as the action result.
type LogForAction struct {
	Level   domain.Level
	Message string
}

type FailAction struct {
	Message string
}

func (SetLogger) effect()         {}
func (Log) effect()               {}
func (SetStatus) effect()         {}
func (PublishAlertRules) effect() {}
func (LogForAction) effect()      {}
func (FailAction) effect()        {}

type Handler func(State, domain.Event) (State, []Effect)

// Handlers is the dispatch table. Events without an entry are ignored.
var Handlers = map[domain.EventKind]Handler{
	domain.EventConfigChanged:           logAfterSetLogger("Handling configuration change"),
	domain.EventUpdateStatus:            onUpdateStatus,
	domain.EventPebbleReady:             onPebbleReady,
	domain.EventLoggingRelationJoined:   onEndpointJoined,
	domain.EventLoggingRelationChanged:  onEndpointJoined,
	domain.EventLoggingRelationDeparted: onEndpointDeparted,
	domain.EventLoggingRelationBroken:   onEndpointDeparted,
	domain.EventLeaderElected:           publishIfLeader,
	domain.EventUpgradeCharm:            publishIfLeader,
	domain.EventLogErrorAction:          onLogError,
}

// React runs the handler of the event, if any.
func React(state State, event domain.Event) (State, []Effect, bool) {
	handler, ok := Handlers[event.Kind]
	if !ok {
		return state, nil, false
	}
	state, effects := handler(state, event)
	return state, effects, true
}

func logAfterSetLogger(message string) Handler {
	return func(state State, _ domain.Event) (State, []Effect) {
		return state, []Effect{
			SetLogger{},
			Log{Level: domain.LevelDebug, Message: message},
		}
	}
}

// onUpdateStatus re-evaluates the workload status so that a failed
// connection on pebble-ready does not stick.
func onUpdateStatus(state State, event domain.Event) (State, []Effect) {
	_, effects := logAfterSetLogger("Updating status")(state, event)
	state, statusEffects := onPebbleReady(state, event)
	return state, append(effects, statusEffects...)
}

func onPebbleReady(state State, _ domain.Event) (State, []Effect) {
	if state.CanConnect {
		state.Status = domain.ActiveStatus()
	} else {
		state.Status = domain.WaitingStatus(PebbleWaiting)
	}
	return state, []Effect{SetStatus{Status: state.Status}}
}

func onEndpointJoined(state State, event domain.Event) (State, []Effect) {
	_, effects := publishIfLeader(state, event)
	return state, append(effects,
		SetLogger{},
		Log{Level: domain.LevelDebug, Message: "Loki push API endpoint joined"},
	)
}

func onEndpointDeparted(state State, _ domain.Event) (State, []Effect) {
	// TODO: remove only the handler of the departed endpoint once there is one handler per endpoint.
	return state, []Effect{
		SetLogger{LocalOnly: true},
		Log{Level: domain.LevelDebug, Message: "Loki push API endpoint departed"},
	}
}

func publishIfLeader(state State, _ domain.Event) (State, []Effect) {
	if !state.Leader {
		return state, nil
	}
	return state, []Effect{PublishAlertRules{}}
}

func onLogError(state State, event domain.Event) (State, []Effect) {
	effects := []Effect{SetLogger{}}

	message, ok := event.Param("message")
	if !ok {
		return state, append(effects, FailAction{Message: LogErrorFailed + ": missing parameter \"message\""})
	}

	return state, append(effects, LogForAction{Level: domain.LevelError, Message: message})
}
