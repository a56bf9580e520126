package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/roamspot/placegate/internal/cache"
	"github.com/roamspot/placegate/internal/domain"
	healthuc "github.com/roamspot/placegate/internal/usecase/health"
	lookupuc "github.com/roamspot/placegate/internal/usecase/lookup"
	usageuc "github.com/roamspot/placegate/internal/usecase/usage"
)

// Error response codes.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "not_found"
	codeBudgetExceeded   = "budget_exceeded"
	codeProviderError    = "provider_error"
	codeInternalError    = "internal_error"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the lookup, usage, and ops endpoints.
type Server struct {
	lookup        *lookupuc.Service
	usage         *usageuc.Service
	health        *healthuc.Service
	cache         *cache.Cache
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	lookup *lookupuc.Service,
	usage *usageuc.Service,
	health *healthuc.Service,
	c *cache.Cache,
	logger *zap.Logger,
) *Server {
	s := &Server{
		lookup: lookup,
		usage:  usage,
		health: health,
		cache:  c,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrUnknownCategory, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrBudgetExceeded, http.StatusPaymentRequired, codeBudgetExceeded),
		sentinelHandler(domain.ErrProviderError, http.StatusBadGateway, codeProviderError),
	}
	return s
}

// Routes registers all endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/geocode", s.Geocode)
		r.Get("/places/{id}", s.PlaceDetails)
		r.Get("/nearby", s.NearbySearch)
		r.Get("/autocomplete", s.Autocomplete)
		r.Get("/usage", s.GetUsage)
		r.Put("/budget", s.PutBudget)
		r.Get("/cache/stats", s.CacheStats)
		r.Delete("/cache", s.ClearCache)
	})
}

// Geocode handles GET /v1/geocode. Pass address= for forward geocoding
// or lat= and lng= for reverse.
func (s *Server) Geocode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	address := q.Get("address")
	hasCoords := q.Get("lat") != "" || q.Get("lng") != ""

	if address == "" && !hasCoords {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"address or lat/lng query parameters are required")
		return
	}
	if address != "" && hasCoords {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"address and lat/lng are mutually exclusive")
		return
	}

	req := domain.GeocodeRequest{Address: address}
	if hasCoords {
		ll, err := parseLatLng(q.Get("lat"), q.Get("lng"))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
			return
		}
		req.LatLng = &ll
	}

	results, err := s.lookup.Geocode(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// PlaceDetails handles GET /v1/places/{id}. The optional fields= query
// parameter narrows the provider fields and sets the billing weight.
func (s *Server) PlaceDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "place id is required")
		return
	}

	req := domain.PlaceDetailsRequest{PlaceID: id}
	if raw := r.URL.Query().Get("fields"); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			if f = strings.TrimSpace(f); f != "" {
				req.Fields = append(req.Fields, f)
			}
		}
	}

	details, err := s.lookup.PlaceDetails(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// NearbySearch handles GET /v1/nearby?lat=&lng=&radius=&keyword=.
func (s *Server) NearbySearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	ll, err := parseLatLng(q.Get("lat"), q.Get("lng"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	radius, err := strconv.Atoi(q.Get("radius"))
	if err != nil || radius <= 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"radius must be a positive integer of meters")
		return
	}

	places, err := s.lookup.NearbySearch(r.Context(), domain.NearbySearchRequest{
		Location: ll,
		RadiusM:  radius,
		Keyword:  q.Get("keyword"),
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": places})
}

// Autocomplete handles GET /v1/autocomplete?input=.
func (s *Server) Autocomplete(w http.ResponseWriter, r *http.Request) {
	input := r.URL.Query().Get("input")
	if strings.TrimSpace(input) == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "input query parameter is required")
		return
	}

	predictions, err := s.lookup.Autocomplete(r.Context(), domain.AutocompleteRequest{Input: input})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"predictions": predictions})
}

// GetUsage handles GET /v1/usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.usage.GetReport(r.Context()))
}

// PutBudget handles PUT /v1/budget.
func (s *Server) PutBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DailyBudgetUSD *float64 `json:"daily_budget_usd"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.DailyBudgetUSD == nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "daily_budget_usd is required")
		return
	}

	if err := s.usage.SetDailyBudget(r.Context(), *req.DailyBudgetUSD); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.usage.GetReport(r.Context()))
}

// CacheStats handles GET /v1/cache/stats.
func (s *Server) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

// ClearCache handles DELETE /v1/cache.
func (s *Server) ClearCache(w http.ResponseWriter, r *http.Request) {
	s.cache.Clear()
	s.logger.Info("Cache cleared via API")
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func parseLatLng(latRaw, lngRaw string) (domain.LatLng, error) {
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return domain.LatLng{}, fmt.Errorf("lat must be a number")
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return domain.LatLng{}, fmt.Errorf("lng must be a number")
	}
	if lat < -90 || lat > 90 {
		return domain.LatLng{}, fmt.Errorf("lat must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return domain.LatLng{}, fmt.Errorf("lng must be between -180 and 180")
	}
	return domain.LatLng{Lat: lat, Lng: lng}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrUnknownCategory,
		domain.ErrNotFound,
		domain.ErrBudgetExceeded,
		domain.ErrProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
