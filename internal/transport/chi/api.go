package chi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ErrorResponseCode is the machine-readable error code in ErrorResponse.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest               ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed         ErrorResponseCode = "validation_failed"
	ErrorResponseCodeTranslationFailed        ErrorResponseCode = "translation_failed"
	ErrorResponseCodeDataUnavailable          ErrorResponseCode = "data_unavailable"
	ErrorResponseCodeTranslatorProviderError  ErrorResponseCode = "translator_provider_error"
	ErrorResponseCodeTranslationQuotaExceeded ErrorResponseCode = "translation_quota_exceeded"
	ErrorResponseCodeInternalError            ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// QueryRequest is the POST /query body.
type QueryRequest struct {
	Prompt  *string `json:"prompt"`
	Limit   *int    `json:"limit,omitempty"`
	Explain *bool   `json:"explain,omitempty"`
}

// QueryParams are the GET /query parameters.
type QueryParams struct {
	Prompt  *string `form:"prompt,omitempty" json:"prompt,omitempty"`
	Limit   *int    `form:"limit,omitempty" json:"limit,omitempty"`
	Explain *bool   `form:"explain,omitempty" json:"explain,omitempty"`
}

// UsageParams are the GET /usage parameters.
type UsageParams struct {
	Period *string `form:"period,omitempty" json:"period,omitempty"`
}

// BudgetStatus is the budget part of UsageResponse.
type BudgetStatus struct {
	TokensLimit     *int64     `json:"tokens_limit,omitempty"`
	TokensRemaining *int64     `json:"tokens_remaining,omitempty"`
	IsExhausted     bool       `json:"is_exhausted"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
}

// UsageResponse is the GET /usage body.
type UsageResponse struct {
	Period        string       `json:"period"`
	PeriodStartAt time.Time    `json:"period_start_at"`
	PeriodEndAt   time.Time    `json:"period_end_at"`
	TokensUsed    int64        `json:"tokens_used"`
	Budget        BudgetStatus `json:"budget"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ServerInterface lists the HTTP operations.
type ServerInterface interface {
	// (POST /query)
	PostQuery(w http.ResponseWriter, r *http.Request)
	// (GET /query)
	GetQuery(w http.ResponseWriter, r *http.Request, params QueryParams)
	// (GET /dataset)
	GetDataset(w http.ResponseWriter, r *http.Request)
	// (POST /dataset/reload)
	ReloadDataset(w http.ResponseWriter, r *http.Request)
	// (GET /usage)
	GetUsage(w http.ResponseWriter, r *http.Request, params UsageParams)
	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError is passed to ErrorHandlerFunc when a parameter cannot be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions mounts si on the base router.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	errorHandler := options.ErrorHandlerFunc
	if errorHandler == nil {
		errorHandler = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := serverInterfaceWrapper{handler: si, errorHandlerFunc: errorHandler}

	r.Post("/query", si.PostQuery)
	r.Get("/query", wrapper.GetQuery)
	r.Get("/dataset", si.GetDataset)
	r.Post("/dataset/reload", si.ReloadDataset)
	r.Get("/usage", wrapper.GetUsage)
	r.Get("/health", si.HealthCheck)
	r.Get("/metrics", si.Metrics)
	return r
}

type serverInterfaceWrapper struct {
	handler          ServerInterface
	errorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// GetQuery binds query parameters for GET /query.
func (siw serverInterfaceWrapper) GetQuery(w http.ResponseWriter, r *http.Request) {
	var params QueryParams
	q := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "prompt", q, &params.Prompt); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "prompt", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &params.Limit); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "explain", q, &params.Explain); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "explain", Err: err})
		return
	}

	siw.handler.GetQuery(w, r, params)
}

// GetUsage binds query parameters for GET /usage.
func (siw serverInterfaceWrapper) GetUsage(w http.ResponseWriter, r *http.Request) {
	var params UsageParams

	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &params.Period); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "period", Err: err})
		return
	}

	siw.handler.GetUsage(w, r, params)
}
