package web

import (
	"context"
	"net/http"
	"time"

	"loyalty-campaign/internal/config"
	"loyalty-campaign/internal/infra/i18n"
	"loyalty-campaign/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Pinger reports database reachability for /health/db.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	campaigns     usecase.CampaignUseCase
	barcodes      usecase.BarcodeUseCase
	users         usecase.UserUseCase
	opportunities usecase.OpportunityUseCase
	auth          *AuthManager
	locales       *i18n.Bundle
	db            Pinger
	apiKey        string
	cfg           config.HTTPConfig
	now           func() time.Time
	log           *zerolog.Logger
}

func NewServer(
	campaigns usecase.CampaignUseCase,
	barcodes usecase.BarcodeUseCase,
	users usecase.UserUseCase,
	opportunities usecase.OpportunityUseCase,
	auth *AuthManager,
	locales *i18n.Bundle,
	db Pinger,
	apiKey string,
	cfg config.HTTPConfig,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		campaigns:     campaigns,
		barcodes:      barcodes,
		users:         users,
		opportunities: opportunities,
		auth:          auth,
		locales:       locales,
		db:            db,
		apiKey:        apiKey,
		cfg:           cfg,
		now:           time.Now,
		log:           logger,
	}
}

// Routes builds the full router: public account and health endpoints, the
// token-protected user API and the API-key protected admin API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(TraceID())
	if s.locales != nil {
		r.Use(Localize(s.locales))
	}
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))
	if s.cfg.HandlerTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.HandlerTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if s.cfg.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(s.cfg.RateLimitPerMinute, time.Minute))
	}

	r.Get("/health", s.handleHealth)
	r.Get("/health/db", s.handleHealthDB)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/barcodes/status/", s.handleBarcodeStatus)

	r.Route("/users", func(r chi.Router) {
		r.Post("/register/", s.handleRegister)
		r.Post("/login/", s.handleLogin)
		r.Post("/verify/", s.handleVerifyPhone)
		r.Post("/token/refresh/", s.handleTokenRefresh)
		r.Post("/logout/", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(RequireUser(s.auth, s.log))
			r.Get("/profile/", s.handleProfile)
			r.Put("/profile/update/", s.handleUpdateProfile)
			r.Delete("/profile/delete/", s.handleDeleteAccount)
			r.Get("/children/", s.handleListChildren)
			r.Post("/children/add/", s.handleAddChild)
			r.Put("/children/{id}/update/", s.handleUpdateChild)
			r.Delete("/children/{id}/delete/", s.handleDeleteChild)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireUser(s.auth, s.log))
		r.Get("/barcodes/user-barcode/", s.handleUserBarcode)
		r.Get("/barcodes/active-campaign/", s.handleActiveCampaign)
		r.Post("/barcodes/assign-barcode/", s.handleAssignBarcode)
		r.Get("/opportunities/", s.handleListOpportunities)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireAdmin(s.apiKey, s.log))
		r.Get("/campaigns/", s.handleListCampaigns)
		r.Post("/campaigns/", s.handleCreateCampaign)
		r.Put("/campaigns/{code}/", s.handleUpdateCampaign)
		r.Get("/campaigns/{code}/stats/", s.handleCampaignStats)
		r.Post("/barcodes/unassign/", s.handleResetBarcodes)
		r.Post("/barcodes/{id}/active/", s.handleSetBarcodeActive)
		r.Post("/opportunities/", s.handleCreateOpportunity)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, r, http.StatusNotFound, false, msgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, r, http.StatusMethodNotAllowed, false, "error.method_not_allowed")
	})
	return r
}

func (s *Server) corsOrigins() []string {
	if len(s.cfg.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return s.cfg.CORSOrigins
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, r, http.StatusOK, true, "health.ok")
}

func (s *Server) handleHealthDB(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeMessage(w, r, http.StatusServiceUnavailable, false, "health.db_not_configured")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		s.log.Warn().Err(err).Msg("database health check failed")
		writeMessage(w, r, http.StatusServiceUnavailable, false, "health.db_unreachable")
		return
	}
	writeMessage(w, r, http.StatusOK, true, "health.ok")
}
