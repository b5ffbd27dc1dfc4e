package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"AltCredit/internal/domain/models"
	epmetrics "AltCredit/internal/service/metrics"
	"AltCredit/internal/usecase"
	xhttp "AltCredit/pkg/http"
	"AltCredit/pkg/http/middleware"
	xlogger "AltCredit/pkg/logger"
)

// CreditScoringHandler exposes the scoring use case over Echo.
type CreditScoringHandler struct {
	logger  *xlogger.Logger
	uc      *usecase.CreditScoring
	limiter middleware.Limiter
	debug   bool
	env     string
	version string
	started time.Time
}

// HandlerOption configures CreditScoringHandler.
type HandlerOption func(*CreditScoringHandler)

// WithLimiter rate limits the /api group per client IP.
func WithLimiter(l middleware.Limiter) HandlerOption {
	return func(h *CreditScoringHandler) { h.limiter = l }
}

// WithDebug exposes internal error details in 500 responses.
func WithDebug(debug bool) HandlerOption {
	return func(h *CreditScoringHandler) { h.debug = debug }
}

func WithEnvironment(env string) HandlerOption {
	return func(h *CreditScoringHandler) { h.env = env }
}

func NewCreditScoringHandler(logger *xlogger.Logger, uc *usecase.CreditScoring, opts ...HandlerOption) *CreditScoringHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	h := &CreditScoringHandler{
		logger:  logger,
		uc:      uc,
		env:     "development",
		version: uc.ModelInfo().Version,
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	epmetrics.Register()
	return h
}

var _ xhttp.Handler = (*CreditScoringHandler)(nil)

func (h *CreditScoringHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	if h.limiter != nil {
		g.Use(middleware.RateLimit(h.limiter))
	}

	cs := g.Group("/credit-scoring")
	cs.POST("/calculate", h.Calculate)
	cs.POST("/batch", h.Batch)
	cs.POST("/explain", h.Explain)
	cs.POST("/bias-report", h.BiasReport)
	cs.GET("/model-info", h.ModelInfo)

	g.POST("/fairness/evaluate", h.EvaluateFairness)
}

func (h *CreditScoringHandler) Calculate(c echo.Context) error {
	start := time.Now()
	req := &models.ApplicantRequest{}
	if verr := xhttp.Bind(c, req); verr != nil {
		epmetrics.Observe("calculate", start, "bind")
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.uc.Calculate(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, "calculate", start, err, "Failed to calculate credit score")
	}
	epmetrics.Observe("calculate", start, "")
	return xhttp.SuccessResponse(c, res)
}

func (h *CreditScoringHandler) Batch(c echo.Context) error {
	start := time.Now()
	req := &models.BatchRequest{}
	if verr := xhttp.Bind(c, req); verr != nil {
		epmetrics.Observe("batch", start, "bind")
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.uc.Batch(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, "batch", start, err, "Failed to process batch scoring request")
	}
	epmetrics.Observe("batch", start, "")
	return xhttp.SuccessResponse(c, res)
}

func (h *CreditScoringHandler) Explain(c echo.Context) error {
	start := time.Now()
	req := &models.ApplicantRequest{}
	if verr := xhttp.Bind(c, req); verr != nil {
		epmetrics.Observe("explain", start, "bind")
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.uc.Explain(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, "explain", start, err, "Failed to generate explanation")
	}
	epmetrics.Observe("explain", start, "")
	return xhttp.SuccessResponse(c, res)
}

func (h *CreditScoringHandler) BiasReport(c echo.Context) error {
	start := time.Now()
	req := &models.ApplicantRequest{}
	if verr := xhttp.Bind(c, req); verr != nil {
		epmetrics.Observe("bias_report", start, "bind")
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.uc.BiasReport(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, "bias_report", start, err, "Failed to generate bias report")
	}
	epmetrics.Observe("bias_report", start, "")
	return xhttp.SuccessResponse(c, res)
}

func (h *CreditScoringHandler) ModelInfo(c echo.Context) error {
	start := time.Now()
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	info := h.uc.ModelInfo()
	epmetrics.Observe("model_info", start, "")
	return xhttp.SuccessResponse(c, info)
}

func (h *CreditScoringHandler) EvaluateFairness(c echo.Context) error {
	start := time.Now()
	req := &models.FairnessEvaluationRequest{}
	if verr := xhttp.Bind(c, req); verr != nil {
		epmetrics.Observe("fairness_evaluate", start, "bind")
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.uc.EvaluateFairness(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, "fairness_evaluate", start, err, "Failed to evaluate fairness")
	}
	epmetrics.Observe("fairness_evaluate", start, "")
	return xhttp.SuccessResponse(c, res)
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	Uptime       float64   `json:"uptime"`
	Environment  string    `json:"environment"`
	ModelVersion string    `json:"modelVersion"`
}

func (h *CreditScoringHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:       "OK",
		Timestamp:    time.Now().UTC(),
		Uptime:       time.Since(h.started).Seconds(),
		Environment:  h.env,
		ModelVersion: h.version,
	})
}

// fail maps use case errors: validation to 400 with field detail, anything
// else to 500 with a generic message.
func (h *CreditScoringHandler) fail(c echo.Context, endpoint string, start time.Time, err error, msg string) error {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		epmetrics.Observe(endpoint, start, "validation")
		return xhttp.BadRequestResponse(c, fieldErrors(ve))
	}

	epmetrics.Observe(endpoint, start, "internal")
	h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
	appErr := xhttp.InternalError(msg).WithError(err)
	if h.debug {
		appErr = appErr.WithDetails()
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func fieldErrors(ve *models.ValidationError) []xhttp.ValidationError {
	out := make([]xhttp.ValidationError, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		out = append(out, xhttp.ValidationError{Code: f.Code, Field: f.Field, Message: f.Message})
	}
	return out
}
