package service

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/loki-tester/src/application/mocks"
	"github.com/canonical/loki-tester/src/domain"
)

func TestEndpointsFromUnitData(t *testing.T) {
	t.Parallel()

	// given
	ctx := context.Background()
	logger := zerolog.New(io.Discard)
	tools := mocks.NewHookTools(t)

	tools.On("RelationIds", ctx, "logging").Return([]string{"logging:1", "logging:2"}, nil)
	tools.On("RelationList", ctx, "logging:1").Return([]string{"loki/0", "loki/1"}, nil)
	tools.On("RelationList", ctx, "logging:2").Return([]string{"loki/0"}, nil)
	tools.On("RelationGet", ctx, "logging:1", "loki/0", false).
		Return(map[string]string{"endpoint": `{"url": "http://loki-0:3100/loki/api/v1/push"}`}, nil)
	tools.On("RelationGet", ctx, "logging:1", "loki/1", false).
		Return(map[string]string{"endpoint": `{"url": "http://loki-1:3100/loki/api/v1/push"}`}, nil)
	tools.On("RelationGet", ctx, "logging:2", "loki/0", false).
		Return(map[string]string{"endpoint": `{"url": "http://loki-0:3100/loki/api/v1/push"}`}, nil)

	// when
	endpoints, err := NewEndpointService(tools, "logging", &logger).Endpoints(ctx)

	// then
	require.NoError(t, err)
	assert.Equal(t, []domain.Endpoint{
		{URL: "http://loki-0:3100/loki/api/v1/push"},
		{URL: "http://loki-1:3100/loki/api/v1/push"},
	}, endpoints)
}

func TestEndpointsFromAppData(t *testing.T) {
	t.Parallel()

	// given
	ctx := context.Background()
	logger := zerolog.New(io.Discard)
	tools := mocks.NewHookTools(t)

	tools.On("RelationIds", ctx, "logging").Return([]string{"logging:1"}, nil)
	tools.On("RelationList", ctx, "logging:1").Return([]string{"loki/0", "loki/1"}, nil)
	tools.On("RelationGet", ctx, "logging:1", "loki/0", false).Return(map[string]string{"ingress-address": "10.1.2.3"}, nil)
	tools.On("RelationGet", ctx, "logging:1", "loki/1", false).Return(map[string]string{"endpoint": "not json"}, nil)
	tools.On("RelationGet", ctx, "logging:1", "loki", true).
		Return(map[string]string{"endpoints": `[{"url": "http://loki-0:3100/loki/api/v1/push"}, {"url": "ftp://nope"}]`}, nil)

	// when
	endpoints, err := NewEndpointService(tools, "logging", &logger).Endpoints(ctx)

	// then
	require.NoError(t, err)
	assert.Equal(t, []domain.Endpoint{{URL: "http://loki-0:3100/loki/api/v1/push"}}, endpoints)
}

func TestEndpointsNoRelation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	logger := zerolog.New(io.Discard)
	tools := mocks.NewHookTools(t)
	tools.On("RelationIds", ctx, "logging").Return([]string{}, nil)

	endpoints, err := NewEndpointService(tools, "logging", &logger).Endpoints(ctx)

	require.NoError(t, err)
	assert.Empty(t, endpoints)
}
