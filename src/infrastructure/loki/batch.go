package loki

import (
	"encoding/json"
	"time"
)

type entry struct {
	labels LabelSet
	Entry
}

// batch groups entries by stream until it is sent.
type batch struct {
	streams   map[string]*Stream
	order     []string
	bytes     int
	createdAt time.Time
}

func newBatch(entries ...entry) *batch {
	b := &batch{
		streams:   map[string]*Stream{},
		createdAt: time.Now(),
	}

	for _, e := range entries {
		b.add(e)
	}

	return b
}

func (self *batch) add(e entry) {
	self.bytes += len(e.Line)

	key := e.labels.String()
	if stream, ok := self.streams[key]; ok {
		stream.Entries = append(stream.Entries, e.Entry)
		return
	}

	self.streams[key] = &Stream{
		Labels:  e.labels,
		Entries: []Entry{e.Entry},
	}
	self.order = append(self.order, key)
}

func (self *batch) sizeBytes() int {
	return self.bytes
}

func (self *batch) sizeBytesAfter(e entry) int {
	return self.bytes + len(e.Line)
}

func (self *batch) age() time.Duration {
	return time.Since(self.createdAt)
}

func (self *batch) empty() bool {
	return len(self.streams) == 0
}

func (self *batch) numEntries() (n int) {
	for _, stream := range self.streams {
		n += len(stream.Entries)
	}
	return
}

// encode returns the JSON push request body and the number of entries in it.
func (self *batch) encode() ([]byte, int, error) {
	req := PushRequest{Streams: make([]Stream, 0, len(self.streams))}
	for _, key := range self.order {
		req.Streams = append(req.Streams, *self.streams[key])
	}

	buf, err := json.Marshal(req)
	if err != nil {
		return nil, 0, err
	}

	return buf, self.numEntries(), nil
}
