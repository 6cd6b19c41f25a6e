package service

import (
	"context"
	"encoding/json"

	"github.com/juju/names/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/canonical/loki-tester/src/application"
	"github.com/canonical/loki-tester/src/domain"
)

const (
	unitEndpointKey = "endpoint"
	appEndpointsKey = "endpoints"
)

//go:generate mockery --name EndpointService --output ./mocks

type EndpointService interface {
	// Endpoints lists the push API endpoints advertised over the relation,
	// deduplicated, in relation order.
	Endpoints(ctx context.Context) ([]domain.Endpoint, error)
}

type endpointService struct {
	logger   zerolog.Logger
	tools    application.HookTools
	relation string
}

func NewEndpointService(tools application.HookTools, relation string, logger *zerolog.Logger) EndpointService {
	return &endpointService{
		logger:   logger.With().Str("component", "EndpointService").Logger(),
		tools:    tools,
		relation: relation,
	}
}

func (self *endpointService) Endpoints(ctx context.Context) ([]domain.Endpoint, error) {
	ids, err := self.tools.RelationIds(ctx, self.relation)
	if err != nil {
		return nil, err
	}

	endpoints := []domain.Endpoint{}
	seen := map[string]struct{}{}
	add := func(endpoint domain.Endpoint) {
		if err := endpoint.Validate(); err != nil {
			self.logger.Warn().Err(err).Msg("Ignoring endpoint")
			return
		}
		if _, ok := seen[endpoint.URL]; ok {
			return
		}
		seen[endpoint.URL] = struct{}{}
		endpoints = append(endpoints, endpoint)
	}

	for _, id := range ids {
		found, err := self.relationEndpoints(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, endpoint := range found {
			add(endpoint)
		}
	}

	self.logger.Debug().Int("count", len(endpoints)).Msg("Discovered endpoints")

	return endpoints, nil
}

func (self *endpointService) relationEndpoints(ctx context.Context, id string) ([]domain.Endpoint, error) {
	units, err := self.tools.RelationList(ctx, id)
	if err != nil {
		return nil, err
	}

	endpoints := []domain.Endpoint{}
	apps := []string{}
	for _, unit := range units {
		if app, err := names.UnitApplication(unit); err == nil && !slices.Contains(apps, app) {
			apps = append(apps, app)
		}

		data, err := self.tools.RelationGet(ctx, id, unit, false)
		if err != nil {
			return nil, err
		}

		raw, ok := data[unitEndpointKey]
		if !ok {
			continue
		}

		endpoint := domain.Endpoint{}
		if err := json.Unmarshal([]byte(raw), &endpoint); err != nil {
			self.logger.Warn().Err(err).Str("unit", unit).Msg("Invalid endpoint in unit data")
			continue
		}
		endpoints = append(endpoints, endpoint)
	}

	if len(endpoints) > 0 {
		return endpoints, nil
	}

	for _, app := range apps {
		data, err := self.tools.RelationGet(ctx, id, app, true)
		if err != nil {
			return nil, err
		}

		raw, ok := data[appEndpointsKey]
		if !ok {
			continue
		}

		found := []domain.Endpoint{}
		if err := json.Unmarshal([]byte(raw), &found); err != nil {
			return nil, errors.WithMessagef(err, "While decoding endpoints of %s in relation %s", app, id)
		}
		endpoints = append(endpoints, found...)
	}

	return endpoints, nil
}
