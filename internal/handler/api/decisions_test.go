package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AltCredit/internal/domain/models"
	"AltCredit/internal/domain/repository"
	internalrepo "AltCredit/internal/repository"
)

type memStore struct {
	internalrepo.NopStore
	evs       []*models.DecisionEvent
	from, to  time.Time
	lastLimit int
}

func (m *memStore) Query(_ context.Context, from, to time.Time, limit int) ([]*models.DecisionEvent, error) {
	m.from, m.to, m.lastLimit = from, to, limit
	return m.evs, nil
}

func decisionsEcho(store repository.DecisionStore) *echo.Echo {
	e := echo.New()
	NewDecisionsHandler(nil, store, nil).RegisterRoutes(e)
	return e
}

func TestDecisionsList(t *testing.T) {
	store := &memStore{evs: []*models.DecisionEvent{{RequestID: "r1", Score: 745, RiskCategory: models.RiskGood}}}
	e := decisionsEcho(store)

	rec, env := do(t, e, http.MethodGet, "/api/decisions?since=1h&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, store.lastLimit)
	assert.InDelta(t, time.Hour.Seconds(), store.to.Sub(store.from).Seconds(), 1)

	var body struct {
		Count     int                     `json:"count"`
		Decisions []*models.DecisionEvent `json:"decisions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "r1", body.Decisions[0].RequestID)
}

func TestDecisionsDefaultsAndValidation(t *testing.T) {
	store := &memStore{}
	e := decisionsEcho(store)

	rec, _ := do(t, e, http.MethodGet, "/api/decisions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultAuditLimit, store.lastLimit)

	rec, _ = do(t, e, http.MethodGet, "/api/decisions?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = do(t, e, http.MethodGet, "/api/decisions?since=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecisionsDisabled(t *testing.T) {
	e := decisionsEcho(internalrepo.NopStore{})
	rec, env := do(t, e, http.MethodGet, "/api/decisions", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "decision audit is disabled", env.Error)
}
