package service

import (
	"io"
	"sync"
	"testing"

	"github.com/juju/loggo/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/loki-tester/src/domain"
)

type recordingHandler struct {
	mu      sync.Mutex
	entries []loggo.Entry
	closed  int
}

func (self *recordingHandler) Write(e loggo.Entry) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.entries = append(self.entries, e)
}

func (self *recordingHandler) Close() error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.closed++
	return nil
}

func (self *recordingHandler) messages() (messages []string) {
	self.mu.Lock()
	defer self.mu.Unlock()
	for _, e := range self.entries {
		messages = append(messages, e.Message)
	}
	return
}

func newTestRegistry(level domain.Level) HandlerRegistry {
	logger := zerolog.New(io.Discard)
	return NewHandlerRegistry(level, &logger)
}

func TestPlanHandlers(t *testing.T) {
	t.Parallel()

	h := &recordingHandler{}

	for name, tc := range map[string]struct {
		installed []string
		desired   map[string]Handler
		expected  HandlerPlan
	}{
		"empty": {
			expected: HandlerPlan{},
		},
		"install all": {
			desired:  map[string]Handler{"loki": h, "console": h},
			expected: HandlerPlan{Add: []string{"console", "loki"}},
		},
		"remove remote": {
			installed: []string{"loki", "console"},
			desired:   map[string]Handler{"console": h},
			expected:  HandlerPlan{Remove: []string{"loki"}, Unchanged: []string{"console"}},
		},
		"unchanged": {
			installed: []string{"console", "loki"},
			desired:   map[string]Handler{"loki": h, "console": h},
			expected:  HandlerPlan{Unchanged: []string{"console", "loki"}},
		},
	} {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			plan := PlanHandlers(tc.installed, tc.desired)

			assert.Equal(t, tc.expected, plan)
			assert.Equal(t, len(tc.expected.Add) == 0 && len(tc.expected.Remove) == 0, plan.Empty())
		})
	}
}

func TestReconcileCompleteness(t *testing.T) {
	t.Parallel()

	// given
	registry := newTestRegistry(domain.LevelInfo)
	console, remote := &recordingHandler{}, &recordingHandler{}

	// when
	changed, err := registry.Reconcile(map[string]Handler{ConsoleHandler: console, LokiHandler: remote})
	require.NoError(t, err)

	// then
	assert.True(t, changed)
	assert.Equal(t, []string{ConsoleHandler, LokiHandler}, registry.Installed())

	// when
	changed, err = registry.Reconcile(map[string]Handler{ConsoleHandler: &recordingHandler{}})
	require.NoError(t, err)

	// then
	assert.True(t, changed)
	assert.Equal(t, []string{ConsoleHandler}, registry.Installed())
	assert.Equal(t, 1, remote.closed)
	assert.Equal(t, 0, console.closed)
}

func TestReconcileIdempotence(t *testing.T) {
	t.Parallel()

	// given
	registry := newTestRegistry(domain.LevelDebug)
	console := &recordingHandler{}
	_, err := registry.Reconcile(map[string]Handler{ConsoleHandler: console})
	require.NoError(t, err)
	before := console.messages()

	// when
	duplicate := &recordingHandler{}
	changed, err := registry.Reconcile(map[string]Handler{ConsoleHandler: duplicate})
	require.NoError(t, err)

	// then
	assert.False(t, changed)
	assert.Equal(t, []string{ConsoleHandler}, registry.Installed())
	assert.Equal(t, before, console.messages())
	assert.Equal(t, 1, duplicate.closed)
	assert.Equal(t, 0, console.closed)
}

func TestReconcileLogsHandlerNames(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(domain.LevelDebug)
	console := &recordingHandler{}

	_, err := registry.Reconcile(map[string]Handler{ConsoleHandler: console, LokiHandler: &recordingHandler{}})
	require.NoError(t, err)

	assert.Equal(t, []string{"Configured logging with 2 handlers: console, loki"}, console.messages())
}

func TestLog(t *testing.T) {
	t.Parallel()

	// given
	registry := newTestRegistry(domain.LevelInfo)
	console := &recordingHandler{}
	_, err := registry.Reconcile(map[string]Handler{ConsoleHandler: console})
	require.NoError(t, err)

	// when
	ok := registry.Log("error", "msg")
	notOk := registry.Log("not-a-level", "other msg")
	filtered := registry.Log("debug", "quiet")

	// then
	assert.True(t, ok)
	assert.False(t, notOk)
	assert.True(t, filtered)
	require.Len(t, console.entries, 1)
	assert.Equal(t, "msg", console.entries[0].Message)
	assert.Equal(t, loggo.ERROR, console.entries[0].Level)
	assert.Equal(t, LoggerName, console.entries[0].Module)
}

func TestLogLevelAliases(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(domain.LevelDebug)
	console := &recordingHandler{}
	_, err := registry.Reconcile(map[string]Handler{ConsoleHandler: console})
	require.NoError(t, err)
	console.entries = nil

	for _, level := range []string{"DEBUG", "Info", "warn", "exception", "fatal"} {
		assert.True(t, registry.Log(level, level))
	}

	var levels []loggo.Level
	for _, e := range console.entries {
		levels = append(levels, e.Level)
	}
	assert.Equal(t, []loggo.Level{loggo.DEBUG, loggo.INFO, loggo.WARNING, loggo.ERROR, loggo.CRITICAL}, levels)
}

func TestRegistryClose(t *testing.T) {
	t.Parallel()

	registry := newTestRegistry(domain.LevelInfo)
	console, remote := &recordingHandler{}, &recordingHandler{}
	_, err := registry.Reconcile(map[string]Handler{ConsoleHandler: console, LokiHandler: remote})
	require.NoError(t, err)

	require.NoError(t, registry.Close())

	assert.Empty(t, registry.Installed())
	assert.Equal(t, 1, console.closed)
	assert.Equal(t, 1, remote.closed)
	assert.False(t, registry.Log("nope", "x"))
}
