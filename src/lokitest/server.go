// Package lokitest provides an in-memory stand-in for the parts of the Loki
// HTTP API that the tester and the integration harness talk to.
package lokitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/grafana/loki/pkg/logql/syntax"
	"github.com/prometheus/prometheus/model/labels"
	"gopkg.in/yaml.v3"

	"github.com/canonical/loki-tester/src/domain"
)

const Version = "2.4.1"

type Entry struct {
	Labels    map[string]string
	Timestamp time.Time
	Line      string
}

type Alert struct {
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	State       string            `json:"state"`
	ActiveAt    time.Time         `json:"activeAt"`
	Value       string            `json:"value"`
}

type pushRequest struct {
	Streams []struct {
		Stream map[string]string `json:"stream"`
		Values [][2]string       `json:"values"`
	} `json:"streams"`
}

type Server struct {
	mu           sync.Mutex
	entries      []Entry
	rules        map[string][]domain.AlertRuleGroup
	alerts       []Alert
	pushStatuses []int
	pushes       int

	router *mux.Router
}

func NewServer() *Server {
	self := &Server{rules: map[string][]domain.AlertRuleGroup{}}

	r := mux.NewRouter()
	r.HandleFunc("/loki/api/v1/push", self.push).Methods(http.MethodPost)
	r.HandleFunc("/loki/api/v1/rules", self.lokiRules).Methods(http.MethodGet)
	r.HandleFunc("/loki/api/v1/status/buildinfo", self.buildInfo).Methods(http.MethodGet)
	r.HandleFunc("/loki/api/v1/query_range", self.queryRange).Methods(http.MethodGet)
	r.HandleFunc("/prometheus/api/v1/alerts", self.prometheusAlerts).Methods(http.MethodGet)
	self.router = r

	return self
}

// Serve starts the fake on a local port for the duration of the test
// and returns its base URL.
func Serve(t *testing.T) (*Server, string) {
	t.Helper()

	self := NewServer()
	srv := httptest.NewServer(self)
	t.Cleanup(srv.Close)

	return self, srv.URL
}

func (self *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	self.router.ServeHTTP(w, req)
}

// FailPushes makes the next pushes answer with the given status codes, in order.
func (self *Server) FailPushes(statuses ...int) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.pushStatuses = append(self.pushStatuses, statuses...)
}

func (self *Server) SetRules(namespace string, groups ...domain.AlertRuleGroup) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if len(groups) == 0 {
		delete(self.rules, namespace)
		return
	}
	self.rules[namespace] = groups
}

func (self *Server) SetAlerts(alerts ...Alert) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.alerts = alerts
}

func (self *Server) Entries() []Entry {
	self.mu.Lock()
	defer self.mu.Unlock()
	return append([]Entry(nil), self.entries...)
}

// Pushes returns the number of push requests received, including rejected ones.
func (self *Server) Pushes() int {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.pushes
}

func (self *Server) push(w http.ResponseWriter, req *http.Request) {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.pushes++

	if len(self.pushStatuses) > 0 {
		status := self.pushStatuses[0]
		self.pushStatuses = self.pushStatuses[1:]
		http.Error(w, "injected failure", status)
		return
	}

	body := pushRequest{}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	for _, stream := range body.Streams {
		for _, value := range stream.Values {
			ns, err := strconv.ParseInt(value[0], 10, 64)
			if err != nil {
				http.Error(w, fmt.Sprintf("invalid timestamp %q", value[0]), http.StatusBadRequest)
				return
			}
			self.entries = append(self.entries, Entry{
				Labels:    stream.Stream,
				Timestamp: time.Unix(0, ns).UTC(),
				Line:      value[1],
			})
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (self *Server) lokiRules(w http.ResponseWriter, req *http.Request) {
	self.mu.Lock()
	defer self.mu.Unlock()

	if len(self.rules) == 0 {
		http.Error(w, "no rule groups found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	if err := yaml.NewEncoder(w).Encode(self.rules); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (self *Server) buildInfo(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, map[string]string{
		"version":   Version,
		"revision":  "lokitest",
		"branch":    "HEAD",
		"goVersion": "go1.20",
	})
}

func (self *Server) prometheusAlerts(w http.ResponseWriter, req *http.Request) {
	self.mu.Lock()
	alerts := append([]Alert{}, self.alerts...)
	self.mu.Unlock()

	writeJSON(w, map[string]any{
		"status": "success",
		"data":   map[string]any{"alerts": alerts},
	})
}

func (self *Server) queryRange(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()

	matchers, err := syntax.ParseMatchers(q.Get("query"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start, end := int64(0), int64(1<<63-1)
	if v := q.Get("start"); v != "" {
		if start, err = strconv.ParseInt(v, 10, 64); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if v := q.Get("end"); v != "" {
		if end, err = strconv.ParseInt(v, 10, 64); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	limit := 100
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	type stream struct {
		Stream map[string]string `json:"stream"`
		Values [][2]string       `json:"values"`
	}

	var matching []Entry
	for _, e := range self.Entries() {
		ns := e.Timestamp.UnixNano()
		if ns < start || ns >= end || !matches(matchers, e.Labels) {
			continue
		}
		matching = append(matching, e)
	}
	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Timestamp.Before(matching[j].Timestamp)
	})
	if len(matching) > limit {
		matching = matching[:limit]
	}

	byLabels := map[string]*stream{}
	result := []*stream{}
	for _, e := range matching {
		key := labels.FromMap(e.Labels).String()
		s, ok := byLabels[key]
		if !ok {
			s = &stream{Stream: e.Labels}
			byLabels[key] = s
			result = append(result, s)
		}
		s.Values = append(s.Values, [2]string{strconv.FormatInt(e.Timestamp.UnixNano(), 10), e.Line})
	}

	writeJSON(w, map[string]any{
		"status": "success",
		"data": map[string]any{
			"resultType": "streams",
			"result":     result,
		},
	})
}

func matches(matchers []*labels.Matcher, set map[string]string) bool {
	for _, m := range matchers {
		if !m.Matches(set[m.Name]) {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
