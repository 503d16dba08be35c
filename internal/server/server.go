package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vani-bank-backend/internal/bank"
	"vani-bank-backend/internal/config"
	"vani-bank-backend/internal/types"
)

type Server struct {
	router     *chi.Mux
	cfg        config.Config
	store      bank.Store
	oracle     bank.Oracle
	dispatcher *bank.Dispatcher
}

func NewServer(cfg config.Config, st bank.Store, oracle bank.Oracle) *Server {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{
		router:     r,
		cfg:        cfg,
		store:      st,
		oracle:     oracle,
		dispatcher: bank.NewDispatcher(st, oracle),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Post("/api/login", s.handleLogin)
	// REST mirrors of the conversational operations
	s.router.Get("/api/users/{userID}/profile", s.handleUserProfile)
	s.router.Get("/api/users/{userID}/accounts", s.handleUserAccounts)
	s.router.Get("/api/accounts/{accountID}/balance", s.handleAccountBalance)
	s.router.Get("/api/accounts/{accountID}/transactions", s.handleAccountTransactions)
	s.router.Get("/api/accounts/{accountID}/charges", s.handleAccountCharges)
	s.router.Post("/api/loans/apply", s.handleApplyLoan)
	s.router.Post("/api/cards/block", s.handleBlockCard)
	// Conversational transport
	s.router.Get("/ws", s.handleWS)
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, types.ErrorResponse{Error: msg})
}
