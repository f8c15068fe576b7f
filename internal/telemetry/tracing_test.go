package telemetry

import (
	"context"
	"testing"

	"go-trading-post/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTracing_NoEndpointIsNoop(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), &config.Config{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(context.Background()))
	// A second call has nothing left to flush
	assert.NoError(t, shutdown(context.Background()))
}
