package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 20, c.Regime.Window)
	assert.Equal(t, 3, c.Regime.Count)
	assert.Equal(t, 252.0, c.Regime.Annualization)
	assert.Equal(t, 5, c.Forecast.Horizon)
	assert.Equal(t, 0.95, c.Forecast.Confidence)
	assert.Equal(t, 2, c.Forecast.Order.P)
	assert.Equal(t, 1, c.Forecast.Order.D)
	assert.Equal(t, 2, c.Forecast.Order.Q)
	assert.Equal(t, 20, c.Forecast.MinObservations)
	assert.Equal(t, 0.5, c.Consensus.MinConfidence)
	assert.Equal(t, 0.7, c.Consensus.ConflictReliability)
	assert.Equal(t, 0.05, c.Consensus.Significance)
	assert.Equal(t, "normal", c.Consensus.Distribution)
	assert.Equal(t, 30*time.Second, c.Cache.TTL)
	assert.Equal(t, "signaldesk.decisions", c.Kafka.DecisionsTopic)
}

func TestParseOverrides(t *testing.T) {
	yml := `
environment: prod
regime:
  window: 30
forecast:
  order: {p: 1, d: 0, q: 1}
  search: {enabled: true, max_p: 2, min_d: 0, max_d: 1, max_q: 2}
consensus:
  distribution: student
  sources:
    - {name: technical, url: "http://tech/signal", reliability: 0.9}
`
	c, err := Parse([]byte(yml))
	require.NoError(t, err)
	assert.Equal(t, 30, c.Regime.Window)
	assert.Equal(t, 3, c.Regime.Count)
	assert.Equal(t, 0, c.Forecast.Order.D)
	assert.True(t, c.Forecast.Search.Enabled)
	assert.Equal(t, 2, c.Forecast.Search.MaxQ)
	assert.Equal(t, "student", c.Consensus.Distribution)
	require.Len(t, c.Consensus.Sources, 1)
	assert.Equal(t, 0.9, c.Consensus.Sources[0].Reliability)
}

func TestParseRejectsInvalid(t *testing.T) {
	for _, yml := range []string{
		"environment: x\nregime: {window: 1}\n",
		"environment: x\nforecast: {confidence: 1.2}\n",
		"environment: x\nconsensus: {distribution: cauchy}\n",
		"environment: x\nconsensus: {sources: [{name: a}]}\n",
		"environment: x\nforecast: {search: {enabled: true, min_d: 2, max_d: 1}}\n",
	} {
		_, err := Parse([]byte(yml))
		assert.Error(t, err, yml)
	}
}

func TestLoadWithEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\n"), 0o644))

	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("LOG_LEVEL", "debug")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Cache.Redis.Enabled)
	assert.Equal(t, "redis:6379", c.Cache.Redis.Addr)
	assert.Equal(t, "debug", c.Log.Level)
}
