package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kailas-cloud/arborist/internal/domain"
	domusage "github.com/kailas-cloud/arborist/internal/domain/usage"
	"github.com/kailas-cloud/arborist/internal/logger"
	datasetrepo "github.com/kailas-cloud/arborist/internal/repository/dataset"
	healthuc "github.com/kailas-cloud/arborist/internal/usecase/health"
	queryuc "github.com/kailas-cloud/arborist/internal/usecase/query"
	usageuc "github.com/kailas-cloud/arborist/internal/usecase/usage"
)

// maxBodyBytes bounds the POST /query body.
const maxBodyBytes = 64 << 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface.
type Server struct {
	query         *queryuc.Service
	dataset       *datasetrepo.Store
	usage         *usageuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	query *queryuc.Service,
	dataset *datasetrepo.Store,
	usage *usageuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		query:   query,
		dataset: dataset,
		usage:   usage,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrTranslationQuotaExceeded,
			http.StatusServiceUnavailable, ErrorResponseCodeTranslationQuotaExceeded),
		sentinelHandler(domain.ErrTranslatorProviderError,
			http.StatusBadGateway, ErrorResponseCodeTranslatorProviderError),
		sentinelHandler(domain.ErrTranslationFailed,
			http.StatusInternalServerError, ErrorResponseCodeTranslationFailed),
		sentinelHandler(domain.ErrDataUnavailable,
			http.StatusInternalServerError, ErrorResponseCodeDataUnavailable),
	}
	return s
}

// PostQuery handles POST /query.
func (s *Server) PostQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.runQuery(w, r, req.Prompt, req.Limit, req.Explain)
}

// GetQuery handles GET /query.
func (s *Server) GetQuery(w http.ResponseWriter, r *http.Request, params QueryParams) {
	s.runQuery(w, r, params.Prompt, params.Limit, params.Explain)
}

func (s *Server) runQuery(w http.ResponseWriter, r *http.Request, prompt *string, limit *int, explain *bool) {
	if prompt == nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Missing 'prompt'")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.query.Query(ctx, queryuc.Request{
		Prompt:  *prompt,
		Limit:   derefInt(limit),
		Explain: derefBool(explain),
	})
	setTranslationHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, FeatureCollection(resp))
}

// GetDataset handles GET /dataset.
func (s *Server) GetDataset(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dataset.Stats())
}

// ReloadDataset handles POST /dataset/reload.
func (s *Server) ReloadDataset(w http.ResponseWriter, r *http.Request) {
	stats, err := s.dataset.Reload(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetUsage handles GET /usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request, params UsageParams) {
	period, err := domusage.ParsePeriod(derefString(params.Period))
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	report := s.usage.GetReport(r.Context(), period)

	resp := UsageResponse{
		Period:        string(report.Period()),
		PeriodStartAt: report.Start(),
		PeriodEndAt:   report.End(),
		TokensUsed:    report.TokensUsed(),
		Budget:        BudgetStatus{IsExhausted: report.IsExhausted()},
	}
	if report.Limited() {
		limit, remaining, resetsAt := report.TokensLimit(), max(report.TokensRemaining(), 0), report.End()
		resp.Budget.TokensLimit = &limit
		resp.Budget.TokensRemaining = &remaining
		resp.Budget.ResetsAt = &resetsAt
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// BadRequestHandler renders parameter binding failures.
func BadRequestHandler(w http.ResponseWriter, _ *http.Request, err error) {
	msg := "invalid request"
	var pe *InvalidParamFormatError
	if errors.As(err, &pe) {
		msg = "invalid parameter " + pe.ParamName
	}
	writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, msg)
}

func setTranslationHeaders(w http.ResponseWriter, usage *domain.TranslationUsage) {
	if usage == nil || !usage.Used {
		return
	}
	w.Header().Set("X-Translation-Tokens", strconv.Itoa(usage.TotalTokens))
	cache := "miss"
	if usage.CacheHit {
		cache = "hit"
	}
	w.Header().Set("X-Translation-Cache", cache)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrTranslationQuotaExceeded,
		domain.ErrTranslatorProviderError,
		domain.ErrTranslationFailed,
		domain.ErrDataUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.requestLogger(r)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

// requestLogger prefers the per-request logger placed by the request middleware.
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if l := logger.FromContext(r.Context()); l.Core().Enabled(zapcore.ErrorLevel) {
		return l
	}
	return s.logger
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefBool(p *bool) bool {
	if p == nil {
		return false
	}
	return *p
}
