package loki

import (
	"github.com/juju/loggo/v2"

	"github.com/canonical/loki-tester/src/domain"
)

const (
	LevelLabel  = "level"
	LoggerLabel = "logger"
)

// Writer is a loggo.Writer that pushes every entry it receives to Loki,
// labelled with the given tags plus the entry's level and logger name.
type Writer struct {
	client *Client
	tags   LabelSet
}

func NewWriter(client *Client, tags map[string]string) *Writer {
	return &Writer{client: client, tags: LabelSet(tags).Clone()}
}

var _ loggo.Writer = (*Writer)(nil)

func (self *Writer) Write(e loggo.Entry) {
	labels := self.tags.Clone()
	labels[LevelLabel] = domain.LevelLabel(e.Level)
	if e.Module != "" {
		labels[LoggerLabel] = e.Module
	}

	// Entries written after Close are dropped.
	_ = self.client.Handle(labels, Entry{Timestamp: e.Timestamp, Line: e.Message})
}

// Close flushes pending entries.
func (self *Writer) Close() error {
	self.client.Stop()
	return nil
}
