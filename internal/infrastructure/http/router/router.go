package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"credit-risk-core/internal/interfaces/http/handler"
)

// Router holds all HTTP handlers
type Router struct {
	mux           *http.ServeMux
	riskHandler   *handler.RiskHandler
	otpHandler    *handler.OtpHandler
	healthHandler *handler.HealthHandler
	metrics       bool
}

// NewRouter creates a new router with all routes configured
func NewRouter(
	riskHandler *handler.RiskHandler,
	otpHandler *handler.OtpHandler,
	healthHandler *handler.HealthHandler,
	metrics bool,
) *Router {
	r := &Router{
		mux:           http.NewServeMux(),
		riskHandler:   riskHandler,
		otpHandler:    otpHandler,
		healthHandler: healthHandler,
		metrics:       metrics,
	}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// Health endpoints
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)
	r.mux.HandleFunc("GET /ready", r.healthHandler.Ready)
	r.mux.HandleFunc("GET /live", r.healthHandler.Live)

	// Event scoring endpoints
	r.mux.HandleFunc("POST /api/v1/risk/score", r.riskHandler.ScoreEvent)
	r.mux.HandleFunc("POST /api/v1/risk/score/batch", r.riskHandler.ScoreBatch)

	// Suspicious cases
	r.mux.HandleFunc("GET /api/v1/risk/cases", r.riskHandler.ListCases)
	r.mux.HandleFunc("GET /api/v1/risk/cases/{id}", r.riskHandler.GetCase)
	r.mux.HandleFunc("POST /api/v1/risk/cases/{id}/report", r.riskHandler.ReportCase)
	r.mux.HandleFunc("POST /api/v1/risk/cases/{id}/resolve", r.riskHandler.ResolveCase)

	// Customer risk rollup
	r.mux.HandleFunc("GET /api/v1/risk/customers/{id}/assessment", r.riskHandler.AssessCustomer)

	// OTP verification
	r.mux.HandleFunc("POST /api/v1/otp/request", r.otpHandler.Request)
	r.mux.HandleFunc("POST /api/v1/otp/verify", r.otpHandler.Verify)

	if r.metrics {
		r.mux.Handle("GET /metrics", promhttp.Handler())
	}
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// Add CORS headers
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Api-Key")

	if req.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.mux.ServeHTTP(w, req)
}

// Handler returns the http.Handler
func (r *Router) Handler() http.Handler {
	return r
}
