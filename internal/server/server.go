package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/loan-simulator/internal/bank"
	"github.com/iwvelando/loan-simulator/internal/metrics"
	"github.com/iwvelando/loan-simulator/internal/simulation"
	"github.com/iwvelando/loan-simulator/internal/store"
	"github.com/iwvelando/loan-simulator/pkg/constants"
	"github.com/iwvelando/loan-simulator/pkg/loans"
	"github.com/iwvelando/loan-simulator/pkg/output"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// ErrMissingStore is returned by NewHandler when no simulation store is given.
var ErrMissingStore = errors.New("server: a simulation store is required")

// Dependencies are the components the API serves. Store is required and
// remains owned by the caller, which closes it after the server stops.
type Dependencies struct {
	Builder     *simulation.Builder
	Store       store.Store
	Submitter   bank.Submitter
	RateLimiter *RateLimiter
}

type handler struct {
	logger      *zap.Logger
	builder     *simulation.Builder
	store       store.Store
	submitter   bank.Submitter
	limiter     *RateLimiter
	ttl         time.Duration
	maxBodySize int64
	version     string
	now         func() time.Time
}

// NewHandler constructs the HTTP handler that serves the simulation API.
func NewHandler(logger *zap.Logger, cfg *Config, deps Dependencies) (http.Handler, error) {
	if deps.Store == nil {
		return nil, ErrMissingStore
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	h := &handler{
		logger:      logger,
		builder:     deps.Builder,
		store:       deps.Store,
		submitter:   deps.Submitter,
		limiter:     deps.RateLimiter,
		ttl:         cfg.TTL,
		maxBodySize: cfg.BodySizeBytes(),
		version:     cfg.Version,
		now:         time.Now,
	}
	if h.builder == nil {
		h.builder = simulation.NewBuilder(logger, simulation.DefaultPolicy())
	}
	if h.submitter == nil {
		h.submitter = bank.NewLogSubmitter(logger)
	}
	if h.ttl <= 0 {
		h.ttl = constants.DefaultSimulationTTL
	}

	mux := http.NewServeMux()

	// Simulation lifecycle
	mux.Handle("POST /api/simulations", h.rateLimit(http.HandlerFunc(h.handleCreateSimulation)))
	mux.HandleFunc("GET /api/simulations/{id}", h.handleGetSimulation)
	mux.HandleFunc("GET /api/simulations/{id}/schedule.csv", h.handleScheduleCSV)
	mux.Handle("POST /api/simulations/{id}/submit", h.rateLimit(http.HandlerFunc(h.handleSubmit)))

	// Product catalogue for form options
	mux.HandleFunc("GET /api/products", h.handleProducts)

	// Version endpoint for UI metadata
	mux.HandleFunc("GET /api/version", h.handleVersion)

	mux.Handle("GET /metrics", promhttp.Handler())

	var root http.Handler = h.instrument(mux)
	if len(cfg.AllowedOrigins) > 0 {
		root = cors.New(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type"},
		}).Handler(root)
	}
	return root, nil
}

type createResponse struct {
	ID        uuid.UUID          `json:"id"`
	ExpiresAt time.Time          `json:"expiresAt"`
	Summary   simulation.Summary `json:"summary"`
}

type submitRequest struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	AcceptTerms bool   `json:"acceptTerms"`
}

type productResponse struct {
	ProductType          simulation.ProductType `json:"productType"`
	Label                string                 `json:"label"`
	InterestRate         float64                `json:"interestRate"`
	ProcessingMultiplier float64                `json:"processingMultiplier"`
}

func (h *handler) handleCreateSimulation(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCreateSimulation"

	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}

	var req simulation.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxBodySize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode simulation request: %v", err), op)
		return
	}

	summary, err := h.simulate(req)
	if err != nil {
		if errors.Is(err, loans.ErrInvalidLoanParameters) {
			metrics.ObserveSimulation(req.ProductType, metrics.StatusInvalid, 0, 0)
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
			return
		}
		metrics.ObserveSimulation(req.ProductType, metrics.StatusError, 0, 0)
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to compute simulation: %v", err), op)
		return
	}

	status := metrics.StatusOK
	if summary.DefaultedProduct {
		status = metrics.StatusDefaults
	}
	metrics.ObserveSimulation(string(summary.ProductType), status, summary.TotalAmount, summary.EffortRate)

	record := store.NewRecord(req, summary, h.now(), h.ttl)
	if err := h.store.Save(r.Context(), record); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to store simulation: %v", err), op)
		return
	}

	h.logger.Info("simulation computed",
		zap.String("op", op),
		zap.String("id", record.ID.String()),
		zap.String("product", string(summary.ProductType)),
		zap.Float64("monthlyPayment", summary.MonthlyPayment),
		zap.Bool("hasCapacity", summary.HasCapacity),
	)

	h.writeJSON(w, http.StatusCreated, createResponse{
		ID:        record.ID,
		ExpiresAt: record.ExpiresAt,
		Summary:   summary,
	})
}

// simulate builds the summary of a simulation form submission, which also
// carries the applicant contact details.
func (h *handler) simulate(req simulation.Request) (simulation.Summary, error) {
	if err := req.ValidateContact(); err != nil {
		return simulation.Summary{}, err
	}
	return h.builder.Build(req)
}

func (h *handler) handleGetSimulation(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadRecord(w, r, "server.handleGetSimulation")
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

func (h *handler) handleScheduleCSV(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleScheduleCSV"

	record, ok := h.loadRecord(w, r, op)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="simulation-%s.csv"`, record.ID))
	w.WriteHeader(http.StatusOK)
	if err := output.CsvFormat(w, record.Summary); err != nil {
		h.logger.Error("failed to write CSV response",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

func (h *handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSubmit"

	record, ok := h.loadRecord(w, r, op)
	if !ok {
		return
	}

	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}
	var payload submitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode submission: %v", err), op)
		return
	}

	submission := bank.Submission{
		SimulationID:   record.ID,
		FullName:       firstNonEmpty(payload.FullName, record.Request.FullName),
		Email:          firstNonEmpty(payload.Email, record.Request.Email),
		PhoneNumber:    firstNonEmpty(payload.PhoneNumber, record.Request.PhoneNumber),
		AcceptTerms:    payload.AcceptTerms,
		ProductType:    string(record.Summary.ProductType),
		Amount:         record.Summary.TotalAmount,
		Term:           record.Summary.Term,
		MonthlyPayment: record.Summary.MonthlyPayment,
		Currency:       record.Summary.Currency,
	}

	receipt, err := h.submitter.Submit(r.Context(), submission)
	if err != nil {
		if errors.Is(err, bank.ErrInvalidSubmission) {
			metrics.Submissions.WithLabelValues(metrics.StatusInvalid).Inc()
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
			return
		}
		metrics.Submissions.WithLabelValues(metrics.StatusError).Inc()
		h.respondErrorWithOp(w, http.StatusBadGateway, fmt.Sprintf("failed to submit simulation: %v", err), op)
		return
	}
	metrics.Submissions.WithLabelValues(metrics.StatusOK).Inc()

	// The wizard has moved on, the simulation is no longer needed.
	if err := h.store.Delete(r.Context(), record.ID); err != nil {
		h.logger.Warn("failed to discard submitted simulation",
			zap.String("op", op),
			zap.String("id", record.ID.String()),
			zap.Error(err),
		)
	}

	h.writeJSON(w, http.StatusAccepted, receipt)
}

func (h *handler) handleProducts(w http.ResponseWriter, r *http.Request) {
	policy := h.builder.Policy()
	catalogue := policy.Catalogue()
	products := make([]productResponse, 0, len(catalogue))
	for _, product := range catalogue {
		terms := policy.Products[product]
		products = append(products, productResponse{
			ProductType:          product,
			Label:                product.Label(),
			InterestRate:         terms.InterestRate,
			ProcessingMultiplier: terms.ProcessingMultiplier,
		})
	}
	h.writeJSON(w, http.StatusOK, products)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) loadRecord(w http.ResponseWriter, r *http.Request, op string) (store.Record, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusNotFound, "simulation not found", op)
		return store.Record{}, false
	}

	record, err := h.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.respondErrorWithOp(w, http.StatusNotFound, "simulation not found", op)
		return store.Record{}, false
	}
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to load simulation: %v", err), op)
		return store.Record{}, false
	}
	return record, true
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (h *handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("simulation request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
