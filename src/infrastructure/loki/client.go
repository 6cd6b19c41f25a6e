package loki

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/grafana/dskit/backoff"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/canonical/loki-tester/src/config"
)

// Derived from LXD's copy of the promtail client, which speaks JSON
// instead of snappy-compressed protobuf.

const (
	contentType  = "application/json"
	maxErrMsgLen = 1024
)

var ErrClientStopped = errors.New("loki client stopped")

// Client batches log entries and pushes them to a single Loki push endpoint.
type Client struct {
	cfg    config.EmitterConfig
	url    string
	client *http.Client
	logger zerolog.Logger

	ctx     context.Context
	entries chan entry
	quit    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup

	mu      sync.Mutex
	sent    int
	dropped int
}

func NewClient(ctx context.Context, cfg config.EmitterConfig, pushURL string, logger *zerolog.Logger) *Client {
	client := &Client{
		cfg:     cfg,
		url:     pushURL,
		client:  &http.Client{},
		logger:  logger.With().Str("component", "LokiClient").Str("url", pushURL).Logger(),
		ctx:     ctx,
		entries: make(chan entry),
		quit:    make(chan struct{}),
	}

	client.wg.Add(1)
	go client.run()

	return client
}

// Handle queues a line for the stream identified by labels.
func (c *Client) Handle(labels LabelSet, e Entry) error {
	select {
	case <-c.quit:
		return ErrClientStopped
	case <-c.ctx.Done():
		return ErrClientStopped
	case c.entries <- entry{labels: labels, Entry: e}:
		return nil
	}
}

// Stop sends all pending entries and stops the client.
func (c *Client) Stop() {
	c.once.Do(func() { close(c.quit) })
	c.wg.Wait()
}

// Stats returns the number of entries delivered and given up on.
func (c *Client) Stats() (sent, dropped int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent, c.dropped
}

func (c *Client) run() {
	batch := newBatch()

	minWaitCheckFrequency := 10 * time.Millisecond
	maxWaitCheckFrequency := c.cfg.BatchWait / 10

	if maxWaitCheckFrequency < minWaitCheckFrequency {
		maxWaitCheckFrequency = minWaitCheckFrequency
	}

	maxWaitCheck := time.NewTicker(maxWaitCheckFrequency)

	defer func() {
		maxWaitCheck.Stop()
		// Send all pending batches
		c.sendBatch(batch)
		c.wg.Done()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return

		case <-c.quit:
			return

		case e := <-c.entries:
			// If adding the entry to the batch will increase the size over the max
			// size allowed, we do send the current batch and then create a new one
			if !batch.empty() && batch.sizeBytesAfter(e) > c.cfg.BatchSize {
				c.sendBatch(batch)

				batch = newBatch(e)
				break
			}

			batch.add(e)

		case <-maxWaitCheck.C:
			// Send batch if max wait time has been reached
			if batch.empty() || batch.age() < c.cfg.BatchWait {
				break
			}

			c.sendBatch(batch)
			batch = newBatch()
		}
	}
}

func (c *Client) sendBatch(batch *batch) {
	if batch.empty() {
		return
	}

	buf, numEntries, err := batch.encode()
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to encode batch")
		c.count(0, numEntries)
		return
	}

	// The batch is flushed on Stop even if the client context is done.
	ctx := c.ctx
	if ctx.Err() != nil {
		ctx = context.Background()
	}

	backoff := backoff.New(ctx, c.cfg.BackoffConfig)

	var status int

	for backoff.Ongoing() {
		status, err = c.send(ctx, buf)
		if err == nil {
			c.logger.Trace().Int("entries", numEntries).Int("bytes", len(buf)).Msg("Sent batch")
			c.count(numEntries, 0)
			return
		}

		// Only retry 429s, 500s and connection-level errors.
		if status > 0 && status != http.StatusTooManyRequests && status/100 != 5 {
			break
		}

		c.logger.Debug().Err(err).Int("status", status).Int("retries", backoff.NumRetries()).Msg("Retrying batch")
		backoff.Wait()
	}

	c.logger.Warn().Err(err).Int("status", status).Int("entries", numEntries).Msg("Dropping batch")
	c.count(0, numEntries)
}

func (c *Client) send(ctx context.Context, buf []byte) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(buf))
	if err != nil {
		return -1, err
	}

	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return -1, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		scanner := bufio.NewScanner(io.LimitReader(resp.Body, maxErrMsgLen))
		line := ""

		if scanner.Scan() {
			line = scanner.Text()
		}

		err = fmt.Errorf("server returned HTTP status %s (%d): %s", resp.Status, resp.StatusCode, line)
	}

	return resp.StatusCode, err
}

func (c *Client) count(sent, dropped int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent += sent
	c.dropped += dropped
}
