package service

import (
	"context"
	"io"

	"github.com/juju/loggo/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/canonical/loki-tester/src/config"
	"github.com/canonical/loki-tester/src/domain"
	"github.com/canonical/loki-tester/src/infrastructure/loki"
)

const (
	ConsoleHandler = "console"
	LokiHandler    = "loki"
)

//go:generate mockery --name HandlerFactory --output ./mocks

type HandlerFactory interface {
	Console() Handler
	Loki(endpoint domain.Endpoint, tags map[string]string) (Handler, error)
}

type handlerFactory struct {
	ctx     context.Context
	out     io.Writer
	emitter config.EmitterConfig
	logger  *zerolog.Logger
}

func NewHandlerFactory(ctx context.Context, out io.Writer, emitter config.EmitterConfig, logger *zerolog.Logger) HandlerFactory {
	return &handlerFactory{ctx: ctx, out: out, emitter: emitter, logger: logger}
}

type consoleHandler struct {
	loggo.Writer
}

func (consoleHandler) Close() error {
	return nil
}

func (self *handlerFactory) Console() Handler {
	return consoleHandler{loggo.NewSimpleWriter(self.out, loggo.DefaultFormatter)}
}

func (self *handlerFactory) Loki(endpoint domain.Endpoint, tags map[string]string) (Handler, error) {
	if err := endpoint.Validate(); err != nil {
		return nil, err
	}

	if err := loki.LabelSet(tags).Validate(); err != nil {
		return nil, errors.WithMessage(err, "Invalid Loki labels")
	}

	client := loki.NewClient(self.ctx, self.emitter, endpoint.URL, self.logger)
	return loki.NewWriter(client, tags), nil
}
