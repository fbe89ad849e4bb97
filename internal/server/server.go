package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"account-ledger/internal/auth"
	"account-ledger/internal/config"
	"account-ledger/internal/handler"
	"account-ledger/internal/service"
	"account-ledger/internal/store"
)

// Server represents the HTTP server
type Server struct {
	router *mux.Router
	server *http.Server
	logger *slog.Logger
	port   string
}

// NewServer wires the store, guard, services and routes.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if dir := filepath.Dir(cfg.Store.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	accounts := store.NewJSONStore(cfg.Store.Path, logger)
	guard := store.NewGuard(cfg.Ledger.LockTimeout)

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authManager := auth.NewManager(accounts, guard, tokens, logger)
	ledger := service.NewLedgerService(accounts, guard, logger)

	authHandler := handler.NewAuthHandler(authManager)
	ledgerHandler := handler.NewLedgerHandler(ledger)

	router := mux.NewRouter()
	router.Use(loggingMiddleware(logger))

	// Public routes
	router.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	router.HandleFunc("/api/auth/logout", authHandler.Logout).Methods("POST")

	// Every ledger operation sits behind the auth middleware; handlers
	// receive the validated identity through the request context.
	api := router.PathPrefix("/api").Subrouter()
	api.Use(handler.AuthMiddleware(authManager))
	api.HandleFunc("/accounts/{account_number}", ledgerHandler.GetAccount).Methods("GET")
	api.HandleFunc("/accounts/{account_number}/balance", ledgerHandler.GetBalance).Methods("GET")
	api.HandleFunc("/accounts/{account_number}/transfers", ledgerHandler.ListTransfers).Methods("GET")
	api.HandleFunc("/transfers", ledgerHandler.Transfer).Methods("POST")

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if _, err := accounts.LoadAll(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "store unavailable"})
			return
		}

		json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}).Methods("GET")

	return &Server{
		router: router,
		logger: logger,
	}, nil
}

// loggingMiddleware adds request logging
func loggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Create response wrapper to capture status code
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration", time.Since(start),
				"user_agent", r.UserAgent(),
			)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server on the specified address.
func (s *Server) Start(addr string) (string, error) {
	// Create listener first to get actual port
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}

	tcpAddr := listener.Addr().(*net.TCPAddr)
	s.port = strconv.Itoa(tcpAddr.Port)

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server", "port", s.port)

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Server failed to start", "error", err)
		}
	}()

	return s.port, nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() string {
	return s.port
}

// StartServer starts the server with the given configuration
func StartServer(cfg *config.Config) (*Server, string, error) {
	// Use a discard logger when bound to an ephemeral port (tests).
	var logger *slog.Logger
	if cfg.Server.Addr == ":0" || cfg.Server.Addr == "0.0.0.0:0" {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	server, err := NewServer(cfg, logger)
	if err != nil {
		return nil, "", err
	}

	port, err := server.Start(cfg.Server.Addr)
	if err != nil {
		return nil, "", err
	}

	return server, port, nil
}
