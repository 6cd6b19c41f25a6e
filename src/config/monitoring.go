package config

import (
	"time"

	"github.com/grafana/dskit/backoff"
	"github.com/hashicorp/go-retryablehttp"
	prometheus "github.com/prometheus/client_golang/api"
	"github.com/rs/zerolog"
)

// EmitterConfig configures the client that pushes log lines to Loki.
type EmitterConfig struct {
	BatchWait     time.Duration
	BatchSize     int
	Timeout       time.Duration
	BackoffConfig backoff.Config
}

func NewEmitterConfig() (EmitterConfig, error) {
	conf := EmitterConfig{
		BackoffConfig: backoff.Config{
			MinBackoff: 100 * time.Millisecond,
			MaxBackoff: 2 * time.Second,
		},
	}

	var err error
	if conf.BatchWait, err = GetenvMillis("LOKI_BATCH_WAIT_MS", 1*time.Second); err != nil {
		return conf, err
	}
	if conf.Timeout, err = GetenvMillis("LOKI_TIMEOUT_MS", 5*time.Second); err != nil {
		return conf, err
	}

	if v, err := GetenvInt("LOKI_BATCH_SIZE"); err != nil {
		return conf, err
	} else if *v != 0 {
		conf.BatchSize = *v
	} else {
		conf.BatchSize = 100 * 1024
	}

	if v, err := GetenvInt("LOKI_MAX_RETRIES"); err != nil {
		return conf, err
	} else if *v != 0 {
		conf.BackoffConfig.MaxRetries = *v
	} else {
		conf.BackoffConfig.MaxRetries = 3
	}

	return conf, nil
}

// NewLokiAPIClient returns a client for Loki's HTTP API at addr
// (e.g. "http://10.1.2.3:3100") that retries transient failures.
func NewLokiAPIClient(addr string, logger *zerolog.Logger) (prometheus.Client, error) {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.HTTPClient.Timeout = 5 * time.Second
	retryClient.Logger = &RetryableHTTPLogger{
		Logger: logger.With().Str("client", "loki").Str("address", addr).Logger(),
	}

	return prometheus.NewClient(prometheus.Config{
		Address:      addr,
		RoundTripper: &retryablehttp.RoundTripper{Client: retryClient},
	})
}

// RetryableHTTPLogger adapts zerolog to retryablehttp.LeveledLogger.
type RetryableHTTPLogger struct {
	zerolog.Logger
}

func (l *RetryableHTTPLogger) Error(msg string, keysAndValues ...interface{}) {
	l.Logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l *RetryableHTTPLogger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *RetryableHTTPLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.Trace().Fields(keysAndValues).Msg(msg)
}

func (l *RetryableHTTPLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.Logger.Warn().Fields(keysAndValues).Msg(msg)
}
