package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("BACKOFFICE_USER", "operator")
	t.Setenv("BACKOFFICE_PASSWORD", "secret")
	t.Setenv("BACKOFFICE_ENV", "staging")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "operator", cfg.User)
	assert.Equal(t, []string{"node1", "node2"}, cfg.Nodes)
	assert.Equal(t, "modules.json", cfg.SnapshotPath)
	assert.Equal(t, 3, cfg.WorkersPerNode)
	assert.Equal(t, 3, cfg.RetryMax)
	assert.Equal(t, time.Duration(0), cfg.RetryDelay)
	assert.Equal(t, 45*time.Second, cfg.NavTimeout)
	assert.Equal(t, 6*time.Hour, cfg.ScheduleInterval)
	assert.True(t, cfg.Headless)
}

func TestLoadMissingCredentials(t *testing.T) {
	t.Setenv("BACKOFFICE_USER", "")
	t.Setenv("BACKOFFICE_PASSWORD", "")
	t.Setenv("BACKOFFICE_ENV", "staging")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKOFFICE_USER")
	assert.Contains(t, err.Error(), "BACKOFFICE_PASSWORD")
	assert.NotContains(t, err.Error(), "BACKOFFICE_ENV")
}

func TestEndpointsDerivedFromEnvironment(t *testing.T) {
	setRequired(t)
	t.Setenv("BACKOFFICE_NODES", "app1, app2 ,")
	t.Setenv("BACKOFFICE_DOMAIN", "vendorcloud.io")

	cfg, err := Load()
	require.NoError(t, err)

	endpoints := cfg.Endpoints()
	require.Len(t, endpoints, 2)
	assert.Equal(t, "app1", endpoints[0].Node)
	assert.Equal(t, "https://backoffice-app1.staging.vendorcloud.io", endpoints[0].BaseURL)
	assert.Equal(t, "https://backoffice-app2.staging.vendorcloud.io", endpoints[1].BaseURL)

	assert.Equal(t, endpoints[0], cfg.ScanEndpoint())
}

func TestFloorsOnWorkerAndRetryCounts(t *testing.T) {
	setRequired(t)
	t.Setenv("WORKERS_PER_NODE", "0")
	t.Setenv("RETRY_MAX", "-1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.WorkersPerNode)
	assert.Equal(t, 1, cfg.RetryMax)
}
