// Package api serves settings validation over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/reposettings/settings"
	"github.com/c360studio/reposettings/validator"
)

// maxRequestBodySize limits POST body sizes to prevent DoS.
const maxRequestBodySize = 1 << 20 // 1 MB

// ValidatePath is where settings are submitted for validation.
const ValidatePath = "/v1/settings/validate"

// Checker validates a complete settings submission.
type Checker interface {
	ValidateAll(ctx context.Context, in settings.Input) *validator.Result
}

// ValidateResponse is the response body for POST /v1/settings/validate.
type ValidateResponse struct {
	RunID  string         `json:"run_id"`
	Valid  bool           `json:"valid"`
	Errors []FieldFailure `json:"errors"`
}

// FieldFailure is one failed field in a ValidateResponse.
type FieldFailure struct {
	Field   string `json:"field"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Handler serves the validation endpoint. The checker can be replaced while
// requests are in flight.
type Handler struct {
	mu      sync.RWMutex
	checker Checker

	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// NewHandler creates a handler. A nil gatherer leaves /metrics unregistered.
func NewHandler(checker Checker, gatherer prometheus.Gatherer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		checker:  checker,
		gatherer: gatherer,
		logger:   logger,
	}
}

// SetChecker replaces the checker used by subsequent requests.
func (h *Handler) SetChecker(c Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checker = c
}

func (h *Handler) currentChecker() Checker {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.checker
}

// RegisterHTTPHandlers registers the handlers on mux:
//
//	POST /v1/settings/validate
//	GET  /healthz
//	GET  /metrics
func (h *Handler) RegisterHTTPHandlers(mux *http.ServeMux) {
	mux.HandleFunc(ValidatePath, h.handleValidate)
	mux.HandleFunc("/healthz", h.handleHealthz)
	if h.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
}

// ----------------------------------------------------------------------------
// POST /v1/settings/validate
// ----------------------------------------------------------------------------

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var in settings.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	in.SelectedBundles = settings.NormalizeBundles(in.SelectedBundles)

	for _, id := range in.SelectedBundles {
		if _, err := settings.ParseBundle(id); err != nil {
			h.logger.Warn("Unrecognised bundle identifier",
				"field", settings.FieldGeminiPseudo, "bundle", id, "error", err)
		}
	}

	res := h.currentChecker().ValidateAll(r.Context(), in)
	writeJSON(w, http.StatusOK, NewValidateResponse(res))
}

// NewValidateResponse converts a validation result into its wire form.
func NewValidateResponse(res *validator.Result) ValidateResponse {
	resp := ValidateResponse{
		RunID:  res.RunID,
		Valid:  res.Valid(),
		Errors: make([]FieldFailure, 0, len(res.Errors)),
	}
	for _, fe := range res.Errors {
		resp.Errors = append(resp.Errors, FieldFailure{
			Field:   string(fe.Field),
			Kind:    string(fe.Kind),
			Message: fe.Message(),
		})
	}
	return resp
}

// ----------------------------------------------------------------------------
// GET /healthz
// ----------------------------------------------------------------------------

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
