package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/grafana/loki/pkg/loghttp"
	"github.com/pborman/ansi"
	"github.com/pkg/errors"
	prometheus "github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"gopkg.in/yaml.v3"

	"github.com/canonical/loki-tester/src/domain"
)

type LokiService interface {
	QueryRangeLog(context.Context, string, time.Time, *time.Time, string) (LokiLog, error)
	QueryRange(context.Context, string, time.Time, *time.Time, func(loghttp.Stream) (bool, error)) error
	// Rules returns the rule groups loaded by the ruler, by namespace.
	Rules(context.Context) (map[string][]domain.AlertRuleGroup, error)
	BuildInfo(context.Context) (LokiBuildInfo, error)
	// Alerts returns the alerts of the ruler's Prometheus compatible API.
	Alerts(context.Context) ([]v1.Alert, error)
}

type LokiBuildInfo struct {
	Version   string `json:"version"`
	Revision  string `json:"revision"`
	Branch    string `json:"branch"`
	GoVersion string `json:"goVersion"`
}

type LokiLog []LokiLine

type LokiLine struct {
	Time   time.Time
	Source string
	Text   string
}

type lokiService struct {
	prometheus prometheus.Client
	ruler      v1.API
}

// NewLokiService takes a client for Loki's own API and one for the
// Prometheus compatible API of its ruler, which is served under /prometheus.
func NewLokiService(lokiClient prometheus.Client, rulerClient prometheus.Client) LokiService {
	return &lokiService{prometheus: lokiClient, ruler: v1.NewAPI(rulerClient)}
}

func (self lokiService) QueryRangeLog(ctx context.Context, query string, start time.Time, end *time.Time, sourceLabel string) (LokiLog, error) {
	const linesToFetch = 10000

	log := LokiLog{}

	if err := self.QueryRange(ctx, query, start, end, func(stream loghttp.Stream) (bool, error) {
		callbackLog := new(LokiLog)
		callbackLog.FromStream(stream, sourceLabel)

		log = append(log, *callbackLog...)

		return len(log) >= linesToFetch, nil
	}); err != nil {
		return nil, err
	}

	log.Sort()
	log.Deduplicate()

	return log, nil
}

func (self lokiService) QueryRange(ctx context.Context, query string, start time.Time, end *time.Time, callback func(loghttp.Stream) (bool, error)) error {
	// Loki's default max_entries_limit_per_query
	const limit int64 = 5000

	if end == nil {
		now := time.Now().UTC()
		end = &now
	}

	endLater := end.Add(1 * time.Minute)
	end = &endLater

done:
	for {
		req, err := http.NewRequestWithContext(
			ctx,
			http.MethodGet,
			self.prometheus.URL("/loki/api/v1/query_range", nil).String(),
			http.NoBody,
		)
		if err != nil {
			return err
		}

		q := req.URL.Query()
		q.Set("query", query)
		q.Set("limit", strconv.FormatInt(limit, 10))
		q.Set("start", strconv.FormatInt(start.UnixNano(), 10))
		q.Set("end", strconv.FormatInt(end.UnixNano(), 10))
		q.Set("direction", "FORWARD")
		req.URL.RawQuery = q.Encode()

		done, body, err := self.prometheus.Do(ctx, req)
		if err != nil {
			return errors.WithMessage(err, "Failed to talk with loki")
		}

		if done.StatusCode/100 != 2 {
			return fmt.Errorf("Error response %d from Loki: %s", done.StatusCode, string(body))
		}

		response := loghttp.QueryResponse{}

		err = json.Unmarshal(body, &response)
		if err != nil {
			return err
		}

		streams, ok := response.Data.Result.(loghttp.Streams)
		if !ok {
			return fmt.Errorf("Unexpected loki result type: %s", response.Data.Result.Type())
		}

		if len(streams) == 0 {
			break done
		}

		var numEntries int64
		for _, stream := range streams {
			if stop, err := callback(stream); err != nil {
				return err
			} else if stop {
				break done
			}

			numEntries += int64(len(stream.Entries))
			for _, entry := range stream.Entries {
				if entry.Timestamp.After(start) {
					start = entry.Timestamp
				}
			}
		}
		if numEntries < limit {
			break done
		}
	}

	return nil
}

func (self lokiService) Rules(ctx context.Context) (map[string][]domain.AlertRuleGroup, error) {
	status, body, err := self.get(ctx, "/loki/api/v1/rules")
	if err != nil {
		return nil, err
	}

	rules := map[string][]domain.AlertRuleGroup{}

	// The ruler answers 404 when no rule group is loaded.
	if status == http.StatusNotFound {
		return rules, nil
	}
	if status/100 != 2 {
		return nil, fmt.Errorf("Error response %d from Loki: %s", status, string(body))
	}

	if err := yaml.Unmarshal(body, &rules); err != nil {
		return nil, errors.WithMessage(err, "While decoding Loki rules")
	}

	return rules, nil
}

func (self lokiService) BuildInfo(ctx context.Context) (info LokiBuildInfo, err error) {
	status, body, err := self.get(ctx, "/loki/api/v1/status/buildinfo")
	if err != nil {
		return
	}
	if status/100 != 2 {
		err = fmt.Errorf("Error response %d from Loki: %s", status, string(body))
		return
	}

	err = errors.WithMessage(json.Unmarshal(body, &info), "While decoding Loki build info")
	if err == nil && info.Version == "" {
		err = errors.New("Loki build info has no version")
	}
	return
}

func (self lokiService) Alerts(ctx context.Context) ([]v1.Alert, error) {
	result, err := self.ruler.Alerts(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "Failed to get alerts from the Loki ruler")
	}
	return result.Alerts, nil
}

func (self lokiService) get(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, self.prometheus.URL(path, nil).String(), http.NoBody)
	if err != nil {
		return 0, nil, err
	}

	resp, body, err := self.prometheus.Do(ctx, req)
	if err != nil {
		return 0, nil, errors.WithMessage(err, "Failed to talk with loki")
	}

	return resp.StatusCode, body, nil
}

func (self *LokiLog) FromStream(stream loghttp.Stream, sourceLabel string) {
	source, ok := stream.Labels.Map()[sourceLabel]
	if !ok {
		return
	}

	for _, entry := range stream.Entries {
		line := LokiLine{Time: entry.Timestamp, Source: source, Text: entry.Line}
		lines := strings.Split(entry.Line, "\r")
		for _, l := range lines {
			if sane, err := ansi.Strip([]byte(l)); err == nil {
				line.Text = string(sane)
			} else {
				line.Text = l
			}
			*self = append(*self, line)
		}
	}
}

func (self *LokiLog) Sort() {
	sort.SliceStable(*self, func(i, j int) bool {
		return (*self)[i].Time.Before((*self)[j].Time)
	})
}

// Removes duplicates as considered by `LokiLine.Equal()`.
// Assumes the log is already sorted.
func (self *LokiLog) Deduplicate() {
	deduped := make(LokiLog, 0, len(*self))
	for i, l := range *self {
		if i > 0 && l.Equal((*self)[i-1]) {
			continue
		}
		deduped = append(deduped, l)
	}
	*self = deduped
}

func (self LokiLine) Equal(o LokiLine) bool {
	return self.Time.Equal(o.Time) &&
		self.Text == o.Text &&
		self.Source == o.Source
}
