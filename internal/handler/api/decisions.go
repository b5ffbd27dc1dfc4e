package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"AltCredit/internal/domain/models"
	"AltCredit/internal/domain/repository"
	xhttp "AltCredit/pkg/http"
	"AltCredit/pkg/http/middleware"
	xlogger "AltCredit/pkg/logger"
)

const (
	defaultAuditWindow = 24 * time.Hour
	defaultAuditLimit  = 100
	maxAuditLimit      = 1000
)

// DecisionsHandler serves recent decisions from the audit store.
type DecisionsHandler struct {
	logger  *xlogger.Logger
	store   repository.DecisionStore
	limiter middleware.Limiter
}

func NewDecisionsHandler(logger *xlogger.Logger, store repository.DecisionStore, limiter middleware.Limiter) *DecisionsHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &DecisionsHandler{logger: logger, store: store, limiter: limiter}
}

var _ xhttp.Handler = (*DecisionsHandler)(nil)

func (h *DecisionsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/decisions")
	if h.limiter != nil {
		g.Use(middleware.RateLimit(h.limiter))
	}
	g.GET("", h.List)
}

// List answers GET /api/decisions?since=24h&limit=100.
func (h *DecisionsHandler) List(c echo.Context) error {
	window := defaultAuditWindow
	if s := c.QueryParam("since"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
				Code: "ERR_DURATION", Field: "since", Message: "since must be a positive duration such as 24h",
			}})
		}
		window = d
	}

	limit := defaultAuditLimit
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxAuditLimit {
			return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
				Code: "ERR_RANGE", Field: "limit", Message: "limit must be between 1 and 1000",
				Params: map[string]interface{}{"min": 1, "max": maxAuditLimit},
			}})
		}
		limit = n
	}

	to := time.Now().UTC()
	evs, err := h.store.Query(c.Request().Context(), to.Add(-window), to, limit)
	switch {
	case errors.Is(err, repository.ErrAuditDisabled):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(err.Error()))
	case err != nil:
		h.logger.Error("decision audit query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("Failed to query decisions").WithError(err))
	}
	if evs == nil {
		evs = []*models.DecisionEvent{}
	}

	return xhttp.SuccessResponse(c, map[string]interface{}{
		"from":      to.Add(-window),
		"to":        to,
		"count":     len(evs),
		"decisions": evs,
	})
}
