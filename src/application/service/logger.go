package service

import (
	"io"
	"strings"

	"github.com/juju/loggo/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/canonical/loki-tester/src/domain"
)

// LoggerName is the name of the logger owned by the tester.
const LoggerName = "loki-tester"

// Handler receives the entries of the owned logger.
// Close flushes whatever the handler still buffers.
type Handler interface {
	loggo.Writer
	io.Closer
}

type HandlerPlan struct {
	Add       []string
	Remove    []string
	Unchanged []string
}

func (self HandlerPlan) Empty() bool {
	return len(self.Add) == 0 && len(self.Remove) == 0
}

// PlanHandlers computes the minimal change turning the installed handler
// names into the desired ones.
func PlanHandlers(installed []string, desired map[string]Handler) (plan HandlerPlan) {
	have := make(map[string]struct{}, len(installed))
	for _, name := range installed {
		have[name] = struct{}{}
		if _, ok := desired[name]; ok {
			plan.Unchanged = append(plan.Unchanged, name)
		} else {
			plan.Remove = append(plan.Remove, name)
		}
	}

	for name := range desired {
		if _, ok := have[name]; !ok {
			plan.Add = append(plan.Add, name)
		}
	}

	slices.Sort(plan.Add)
	slices.Sort(plan.Remove)
	slices.Sort(plan.Unchanged)
	plan.Unchanged = slices.Compact(plan.Unchanged)
	plan.Remove = slices.Compact(plan.Remove)

	return
}

type HandlerRegistry interface {
	// Reconcile makes the installed handlers match desired by name
	// and reports whether anything changed.
	Reconcile(desired map[string]Handler) (bool, error)
	Installed() []string
	// Log emits message on the owned logger.
	// It returns false if level is not a known level name.
	Log(level string, message string) bool
	SetLevel(domain.Level)
	Close() error
}

type handlerRegistry struct {
	logger   zerolog.Logger
	context  *loggo.Context
	owned    loggo.Logger
	handlers map[string]Handler
}

func NewHandlerRegistry(level domain.Level, logger *zerolog.Logger) HandlerRegistry {
	context := loggo.NewContext(loggo.INFO)
	owned := context.GetLogger(LoggerName)
	owned.SetLogLevel(level.Loggo())

	return &handlerRegistry{
		logger:   logger.With().Str("component", "HandlerRegistry").Logger(),
		context:  context,
		owned:    owned,
		handlers: map[string]Handler{},
	}
}

func (self *handlerRegistry) Installed() []string {
	names := maps.Keys(self.handlers)
	slices.Sort(names)
	return names
}

func (self *handlerRegistry) SetLevel(level domain.Level) {
	self.owned.SetLogLevel(level.Loggo())
}

func (self *handlerRegistry) Reconcile(desired map[string]Handler) (bool, error) {
	plan := PlanHandlers(self.Installed(), desired)

	// Handlers that are already installed under the same name stay in place.
	for _, name := range plan.Unchanged {
		if desired[name] != self.handlers[name] {
			self.discard(name, desired[name])
		}
	}

	if plan.Empty() {
		return false, nil
	}

	for _, name := range plan.Remove {
		if _, err := self.context.RemoveWriter(name); err != nil {
			return true, errors.WithMessagef(err, "While removing handler %q", name)
		}
		handler := self.handlers[name]
		delete(self.handlers, name)
		self.discard(name, handler)
	}

	for _, name := range plan.Add {
		if err := self.context.AddWriter(name, desired[name]); err != nil {
			return true, errors.WithMessagef(err, "While adding handler %q", name)
		}
		self.handlers[name] = desired[name]
	}

	self.logger.Debug().Strs("added", plan.Add).Strs("removed", plan.Remove).Msg("Reconciled handlers")

	installed := self.Installed()
	self.owned.Debugf("Configured logging with %d handlers: %s", len(installed), strings.Join(installed, ", "))

	return true, nil
}

func (self *handlerRegistry) Log(level string, message string) bool {
	lvl, err := domain.ParseLevel(level)
	if err != nil {
		self.logger.Debug().Err(err).Msg("Not logging")
		return false
	}

	self.owned.Logf(lvl.Loggo(), "%s", message)
	return true
}

// Close removes and flushes every installed handler.
func (self *handlerRegistry) Close() error {
	_, err := self.Reconcile(map[string]Handler{})
	return err
}

func (self *handlerRegistry) discard(name string, handler Handler) {
	if handler == nil {
		return
	}
	if err := handler.Close(); err != nil {
		self.logger.Warn().Err(err).Str("handler", name).Msg("Failed to close handler")
	}
}
