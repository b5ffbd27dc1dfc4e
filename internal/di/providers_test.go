package di

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalrepo "AltCredit/internal/repository"
	"AltCredit/internal/services/scoring"
	"AltCredit/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Log.Output = "stderr"
	return cfg
}

func TestInitializeAppWithoutInfrastructure(t *testing.T) {
	app, err := InitializeApp(testConfig(t))
	require.NoError(t, err)
	assert.NotNil(t, app)
}

func TestOptionalInfrastructureIsNilWhenDisabled(t *testing.T) {
	cfg := testConfig(t)

	p, err := ProvideKafkaProducer(cfg)
	require.NoError(t, err)
	assert.Nil(t, p)

	ch, err := ProvideClickHouseClient(cfg)
	require.NoError(t, err)
	assert.Nil(t, ch)

	svc, err := ProvideCacheService(cfg)
	require.NoError(t, err)
	assert.Nil(t, svc)
	assert.Nil(t, ProvideScoreCache(cfg, svc))

	c, err := ProvideKafkaConsumer(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, c)

	assert.IsType(t, internalrepo.NopPublisher{}, ProvideDecisionPublisher(cfg, nil))
	st, err := ProvideDecisionStore(cfg, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, internalrepo.NopStore{}, st)
}

func TestProvideCacheServiceMemory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = true

	svc, err := ProvideCacheService(cfg)
	require.NoError(t, err)
	require.NotNil(t, svc)
	assert.NotNil(t, ProvideScoreCache(cfg, svc))
	assert.NoError(t, svc.Close())
}

func TestProvideJitter(t *testing.T) {
	cfg := testConfig(t)
	assert.Equal(t, scoring.NoJitter{}, ProvideJitter(cfg))

	cfg.Scoring.Jitter.Enabled = true
	cfg.Scoring.Jitter.Seed = 7
	j, ok := ProvideJitter(cfg).(*scoring.SeededJitter)
	require.True(t, ok)
	assert.Equal(t, uint64(7), j.Seed())

	model, err := ProvideModel()
	require.NoError(t, err)
	assert.False(t, ProvideScorer(model, j).Deterministic())
}

func TestProvideLimiter(t *testing.T) {
	cfg := testConfig(t)
	assert.NotNil(t, ProvideLimiter(cfg))

	cfg.RateLimit.Enabled = false
	assert.Nil(t, ProvideLimiter(cfg))
}

func TestDecisionsHandlerWithoutLimiter(t *testing.T) {
	assert.Nil(t, asLimiter(nil))

	h := ProvideDecisionsHandler(nil, internalrepo.NopStore{}, nil)
	e := echo.New()
	h.RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/decisions", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
