package loki

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/common/model"
)

// LabelSet is the label set of a Loki stream.
type LabelSet map[string]string

func (self LabelSet) Validate() error {
	for k, v := range self {
		if !model.LabelName(k).IsValid() {
			return errors.Errorf("Invalid label name %q", k)
		}
		if !model.LabelValue(v).IsValid() {
			return errors.Errorf("Invalid value for label %q", k)
		}
	}
	return nil
}

func (self LabelSet) Clone() LabelSet {
	clone := make(LabelSet, len(self))
	for k, v := range self {
		clone[k] = v
	}
	return clone
}

// String returns the labels in LogQL stream selector form with keys sorted.
func (self LabelSet) String() string {
	keys := make([]string, 0, len(self))
	for k := range self {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strconv.Quote(self[k]))
	}
	b.WriteByte('}')
	return b.String()
}

type Entry struct {
	Timestamp time.Time
	Line      string
}

// MarshalJSON encodes the entry as a `["<unix nanoseconds>", "<line>"]` pair.
func (self Entry) MarshalJSON() ([]byte, error) {
	line, err := json.Marshal(self.Line)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf(`["%d",%s]`, self.Timestamp.UnixNano(), line)), nil
}

type Stream struct {
	Labels  LabelSet `json:"stream"`
	Entries []Entry  `json:"values"`
}

type PushRequest struct {
	Streams []Stream `json:"streams"`
}
