package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/domain"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/infra/auth"
	"github.com/StriderCraft315/Pterodactyl-Server-Deploy-Bot/internal/journal"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ReadStore — read-only доступ к хранилищу для консоли оператора.
type ReadStore interface {
	ListServers(ctx context.Context, limit int) ([]domain.ServerRecord, error)
	ListJournal(ctx context.Context, limit int) ([]journal.Record, error)
}

// MaintenanceSwitch переключает режим обслуживания панели.
type MaintenanceSwitch interface {
	Set(ctx context.Context, scope string, on bool) error
	IsMaintenance(scope string) bool
}

// Server — HTTP-консоль оператора: health, metrics, токены и read-only API
// поверх хранилища. Единственная мутация — переключатель обслуживания панели.
type Server struct {
	router *chi.Mux
	logger *zap.Logger

	issuer    *TokenIssuer
	validator auth.TokenValidator
	store     ReadStore
	maint     MaintenanceSwitch
	scopes    map[string]struct{}
	registry  *prometheus.Registry
}

func NewServer(
	logger *zap.Logger,
	issuer *TokenIssuer,
	validator auth.TokenValidator,
	store ReadStore,
	maint MaintenanceSwitch,
	scopes []string,
	registry *prometheus.Registry,
) *Server {
	known := make(map[string]struct{}, len(scopes))
	for _, sc := range scopes {
		known[sc] = struct{}{}
	}
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.Named("ops-api"),
		issuer:    issuer,
		validator: validator,
		store:     store,
		maint:     maint,
		scopes:    known,
		registry:  registry,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	// 1. Глобальные инфраструктурные middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// 2. Публичные роуты
	r.Group(func(r chi.Router) {
		r.Post("/auth/token", s.handleToken)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	})

	// 3. Защищенный периметр (RS256-токен)
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.validator, s.logger))

		r.Get("/v1/servers", s.handleListServers)
		r.Get("/v1/audit", s.handleListJournal)

		r.Route("/v1/scopes/{scope}", func(r chi.Router) {
			r.Get("/maintenance", s.handleGetMaintenance)
			r.Put("/maintenance", s.handleSetMaintenance)
		})
	})
}

// ServeHTTP позволяет использовать Server как стандартный http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	resp, err := s.issuer.IssueToken(req.Username, req.Password)
	if err != nil {
		s.logger.Warn("token issue refused", zap.String("username", req.Username))
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListServers(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListServers(r.Context(), queryLimit(r, 200))
	if err != nil {
		s.logger.Error("list servers failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"servers": rows})
}

func (s *Server) handleListJournal(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListJournal(r.Context(), queryLimit(r, 100))
	if err != nil {
		s.logger.Error("list journal failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"records": recs})
}

func (s *Server) handleGetMaintenance(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")
	if _, ok := s.scopes[scope]; !ok {
		http.Error(w, "unknown scope", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scope":       scope,
		"maintenance": s.maint.IsMaintenance(scope),
	})
}

func (s *Server) handleSetMaintenance(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")
	if _, ok := s.scopes[scope]; !ok {
		http.Error(w, "unknown scope", http.StatusNotFound)
		return
	}

	var req struct {
		Maintenance bool `json:"maintenance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := s.maint.Set(r.Context(), scope, req.Maintenance); err != nil {
		s.logger.Error("maintenance switch failed", zap.String("scope", scope), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.logger.Info("maintenance switched",
		zap.String("scope", scope),
		zap.Bool("maintenance", req.Maintenance),
	)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scope":       scope,
		"maintenance": req.Maintenance,
	})
}

func queryLimit(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > 1000 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
