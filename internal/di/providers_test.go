package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	icache "SignalDesk/internal/service/cache"
	"SignalDesk/pkg/config"
	applogger "SignalDesk/pkg/logger"
)

func TestInitializeAppWithoutInfrastructure(t *testing.T) {
	cfg, err := config.Parse([]byte("log:\n  level: error\n"))
	require.NoError(t, err)

	app, err := InitializeApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, app)
}

func TestOptionalProvidersStayNil(t *testing.T) {
	cfg, err := config.Parse(nil)
	require.NoError(t, err)
	l := applogger.NewNop()

	client, err := ProvideClickHouseClient(cfg, l)
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.Nil(t, ProvidePriceStore(cfg, nil, l))

	producer, err := ProvideKafkaProducer(cfg)
	require.NoError(t, err)
	assert.Nil(t, producer)
	assert.Nil(t, ProvideDecisionPublisher(cfg, nil))

	assert.Nil(t, ProvideRedisCache(cfg, l))
	_, isTTL := ProvideForecastCache(nil).(*icache.TTLCache)
	assert.True(t, isTTL)
}

func TestProvideSignalSources(t *testing.T) {
	cfg, err := config.Parse([]byte(`
consensus:
  sources:
    - name: momentum
      url: http://momentum:8000/signal
      reliability: 0.8
    - name: sentiment
      url: http://sentiment:8000/signal
      reliability: 0.6
`))
	require.NoError(t, err)

	srcs := ProvideSignalSources(cfg)
	require.Len(t, srcs, 2)
	assert.Equal(t, "momentum", srcs[0].Name())
	assert.Equal(t, "sentiment", srcs[1].Name())
}

func TestProvideServicesRejectBadConfig(t *testing.T) {
	cfg, err := config.Parse(nil)
	require.NoError(t, err)

	cfg.Consensus.Significance = 1.5
	_, err = ProvideConsensusEngine(cfg)
	assert.Error(t, err)

	cfg.Forecast.Horizon = 0
	_, err = ProvideForecaster(cfg)
	assert.Error(t, err)
}
