package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/docquill/docquill/config"
)

func TestInitDisabledReturnsNoop(t *testing.T) {
	cfg := config.TelemetryConfig{Enabled: false}

	providers, err := Init(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, providers)
	assert.Nil(t, providers.tp)
	assert.Nil(t, providers.mp)
}

func TestShutdownNoopProviders(t *testing.T) {
	providers := &Providers{}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestShutdownNilProviders(t *testing.T) {
	var providers *Providers
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestBuildVersion(t *testing.T) {
	assert.NotEmpty(t, buildVersion())
}
