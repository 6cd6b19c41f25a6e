package domain

import (
	"fmt"
	"path"
	"strings"

	"github.com/pkg/errors"
)

type EventKind uint

const (
	EventUnknown EventKind = iota
	EventInstall
	EventStart
	EventConfigChanged
	EventUpdateStatus
	EventUpgradeCharm
	EventLeaderElected
	EventPebbleReady
	EventLoggingRelationJoined
	EventLoggingRelationChanged
	EventLoggingRelationDeparted
	EventLoggingRelationBroken
	EventLogErrorAction
)

var eventKindNames = map[EventKind]string{
	EventUnknown:                 "unknown",
	EventInstall:                 "install",
	EventStart:                   "start",
	EventConfigChanged:           "config-changed",
	EventUpdateStatus:            "update-status",
	EventUpgradeCharm:            "upgrade-charm",
	EventLeaderElected:           "leader-elected",
	EventPebbleReady:             "pebble-ready",
	EventLoggingRelationJoined:   "relation-joined",
	EventLoggingRelationChanged:  "relation-changed",
	EventLoggingRelationDeparted: "relation-departed",
	EventLoggingRelationBroken:   "relation-broken",
	EventLogErrorAction:          "log-error",
}

func (self EventKind) String() string {
	if name, ok := eventKindNames[self]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", uint(self))
}

func (self EventKind) IsAction() bool {
	return self == EventLogErrorAction
}

// Event is a single hook or action invocation as delivered by the Juju agent.
type Event struct {
	Kind EventKind
	// Name is the raw hook or action name, e.g. "logging-relation-joined".
	Name string

	RelationName string
	RelationId   string
	RemoteUnit   string
	RemoteApp    string

	// Params holds action parameters. Nil for hooks.
	Params map[string]any
}

func (self Event) Param(key string) (string, bool) {
	v, ok := self.Params[key]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// EventNames carries the charm specific names needed to recognise
// relation and workload events.
type EventNames struct {
	LoggingRelation string
	Container       string
}

var DefaultEventNames = EventNames{
	LoggingRelation: "logging",
	Container:       "loki-tester",
}

// ParseEvent maps a dispatch path such as "hooks/config-changed" or
// "actions/log-error" to an Event. Hooks that the charm does not handle
// yield EventUnknown rather than an error.
func ParseEvent(dispatchPath string, names EventNames) (Event, error) {
	dir, name := path.Split(strings.Trim(dispatchPath, "/"))
	dir = strings.Trim(dir, "/")
	if name == "" {
		return Event{}, errors.Errorf("Invalid dispatch path %q", dispatchPath)
	}

	event := Event{Name: name}

	switch dir {
	case "actions":
		switch name {
		case "log-error":
			event.Kind = EventLogErrorAction
		}
		return event, nil
	case "hooks":
	default:
		return Event{}, errors.Errorf("Invalid dispatch path %q: expected hooks/ or actions/ prefix", dispatchPath)
	}

	switch name {
	case "install":
		event.Kind = EventInstall
	case "start":
		event.Kind = EventStart
	case "config-changed":
		event.Kind = EventConfigChanged
	case "update-status":
		event.Kind = EventUpdateStatus
	case "upgrade-charm":
		event.Kind = EventUpgradeCharm
	case "leader-elected":
		event.Kind = EventLeaderElected
	case names.Container + "-pebble-ready":
		event.Kind = EventPebbleReady
	case names.LoggingRelation + "-relation-joined":
		event.Kind = EventLoggingRelationJoined
	case names.LoggingRelation + "-relation-changed":
		event.Kind = EventLoggingRelationChanged
	case names.LoggingRelation + "-relation-departed":
		event.Kind = EventLoggingRelationDeparted
	case names.LoggingRelation + "-relation-broken":
		event.Kind = EventLoggingRelationBroken
	}

	if strings.HasPrefix(name, names.LoggingRelation+"-relation-") {
		event.RelationName = names.LoggingRelation
	}

	return event, nil
}
