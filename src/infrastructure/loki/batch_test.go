package loki

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchEncode(t *testing.T) {
	t.Parallel()

	// given
	ts := time.Unix(0, 1640995200000000000)
	errors := LabelSet{"juju_unit": "loki-tester/0", "level": "error"}
	debug := LabelSet{"juju_unit": "loki-tester/0", "level": "debug"}

	b := newBatch(
		entry{labels: errors, Entry: Entry{Timestamp: ts, Line: "first"}},
		entry{labels: debug, Entry: Entry{Timestamp: ts, Line: "second"}},
	)
	b.add(entry{labels: errors, Entry: Entry{Timestamp: ts.Add(time.Nanosecond), Line: `say "hi"`}})

	// when
	buf, n, err := b.encode()
	require.NoError(t, err)

	// then
	assert.Equal(t, 3, n)
	assert.Equal(t, len("first")+len("second")+len(`say "hi"`), b.sizeBytes())
	assert.JSONEq(t, `{"streams": [
		{"stream": {"juju_unit": "loki-tester/0", "level": "error"}, "values": [
			["1640995200000000000", "first"],
			["1640995200000000001", "say \"hi\""]
		]},
		{"stream": {"juju_unit": "loki-tester/0", "level": "debug"}, "values": [
			["1640995200000000000", "second"]
		]}
	]}`, string(buf))
}

func TestLabelSet(t *testing.T) {
	t.Parallel()

	set := LabelSet{"level": "error", "juju_model": "cos"}

	assert.Equal(t, `{juju_model="cos", level="error"}`, set.String())
	assert.NoError(t, set.Validate())
	assert.Error(t, LabelSet{"juju-model": "cos"}.Validate())

	clone := set.Clone()
	clone["level"] = "debug"
	assert.Equal(t, "error", set["level"])
}
