// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gift-exchange/internal/models"
	"github.com/gift-exchange/internal/service"
	"github.com/gift-exchange/internal/types"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Service interfaces for dependency injection and testing

// AuthServiceInterface defines the interface for authentication operations
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
	RegisterWithInvite(ctx context.Context, token, name, password string) (*models.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	ChangePassword(ctx context.Context, userID int64, current, newPassword string) error
	UpdateProfile(ctx context.Context, userID int64, name string, giftDeliveryEmail *string) (*models.User, error)
	ChangeEmail(ctx context.Context, userID int64, newEmail, password string) (*models.User, error)
}

// AccountServiceInterface defines the interface for account lifecycle operations
type AccountServiceInterface interface {
	Invite(ctx context.Context, actor *models.User, name, email string) (*models.User, string, error)
	Archive(ctx context.Context, actor *models.User, targetID int64, reason string) error
	Restore(ctx context.Context, actor *models.User, targetID int64) error
	Delete(ctx context.Context, actor *models.User, targetID int64, adminPassword, confirmation string) error
	CreateChild(ctx context.Context, parent *models.User, name string) (*models.User, *models.List, error)
	Promote(ctx context.Context, actor *models.User, childID int64, newEmail string, sendInvite bool) (*models.User, string, error)
}

// ListServiceInterface defines the interface for list read models
type ListServiceInterface interface {
	Dashboard(ctx context.Context, viewer *models.User) (*service.DashboardView, error)
	MyList(ctx context.Context, viewer *models.User) (*service.MyListView, error)
	ViewList(ctx context.Context, viewer *models.User, listID int64, availableOnly bool) (*service.ListView, error)
}

// ItemServiceInterface defines the interface for item operations
type ItemServiceInterface interface {
	Add(ctx context.Context, actor *models.User, listID int64, input *service.ItemInput) (*models.Item, error)
	Edit(ctx context.Context, actor *models.User, itemID int64, input *service.ItemInput) (*models.Item, error)
	Delete(ctx context.Context, actor *models.User, itemID int64) error
	Move(ctx context.Context, actor *models.User, itemID int64, direction types.MoveDirection) error
	MarkReceived(ctx context.Context, actor *models.User, itemID int64) error
	Restore(ctx context.Context, actor *models.User, itemID int64) (*models.Item, error)
}

// ClaimServiceInterface defines the interface for claim operations
type ClaimServiceInterface interface {
	Claim(ctx context.Context, actor *models.User, itemID int64) (*models.Claim, error)
	Unclaim(ctx context.Context, actor *models.User, itemID int64) error
}

// UserProvider resolves session user IDs to users.
type UserProvider interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// SessionStore manages login sessions.
type SessionStore interface {
	Create(ctx context.Context, userID int64, ttl time.Duration) (string, error)
	GetUserID(ctx context.Context, sessionID string) (int64, bool, error)
	Delete(ctx context.Context, sessionID string) error
}

// Server represents the HTTP API server.
type Server struct {
	router       *mux.Router
	httpServer   *http.Server
	auth         AuthServiceInterface
	accounts     AccountServiceInterface
	lists        ListServiceInterface
	items        ItemServiceInterface
	claims       ClaimServiceInterface
	users        UserProvider
	sessions     SessionStore
	loginLimiter *LoginRateLimiter
	config       *ServerConfig
	logger       *logrus.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	SessionTTL      time.Duration
	RememberTTL     time.Duration
	LoginPerMinute  int
	LoginBurst      int
	SecureCookies   bool
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	auth AuthServiceInterface,
	accounts AccountServiceInterface,
	lists ListServiceInterface,
	items ItemServiceInterface,
	claims ClaimServiceInterface,
	users UserProvider,
	sessions SessionStore,
	logger *logrus.Logger,
) *Server {
	s := &Server{
		router:       mux.NewRouter(),
		auth:         auth,
		accounts:     accounts,
		lists:        lists,
		items:        items,
		claims:       claims,
		users:        users,
		sessions:     sessions,
		loginLimiter: NewLoginRateLimiter(config.LoginPerMinute, config.LoginBurst),
		config:       config,
		logger:       logger,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	// Set up middleware (order matters!)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(corsMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Public auth endpoints
	api.Handle("/auth/login", s.loginLimiter.Middleware(http.HandlerFunc(s.handleLogin))).Methods("POST")
	api.HandleFunc("/auth/register/{token}", s.handleRegister).Methods("POST")
	api.HandleFunc("/auth/forgot-password", s.handleForgotPassword).Methods("POST")
	api.HandleFunc("/auth/reset-password/{token}", s.handleResetPassword).Methods("POST")

	// Everything below requires a session
	authed := api.NewRoute().Subrouter()
	authed.Use(s.authMiddleware)

	authed.HandleFunc("/auth/logout", s.handleLogout).Methods("POST")

	// Dashboard and lists
	authed.HandleFunc("/dashboard", s.handleDashboard).Methods("GET")
	authed.HandleFunc("/my-list", s.handleMyList).Methods("GET")
	authed.HandleFunc("/lists/{id:[0-9]+}", s.handleViewList).Methods("GET")

	// Items
	authed.HandleFunc("/lists/{id:[0-9]+}/items", s.handleAddItem).Methods("POST")
	authed.HandleFunc("/items/{id:[0-9]+}", s.handleEditItem).Methods("PUT")
	authed.HandleFunc("/items/{id:[0-9]+}", s.handleDeleteItem).Methods("DELETE")
	authed.HandleFunc("/items/{id:[0-9]+}/move", s.handleMoveItem).Methods("POST")
	authed.HandleFunc("/items/{id:[0-9]+}/received", s.handleMarkReceived).Methods("POST")
	authed.HandleFunc("/items/{id:[0-9]+}/restore", s.handleRestoreItem).Methods("POST")

	// Claims
	authed.HandleFunc("/items/{id:[0-9]+}/claim", s.handleClaim).Methods("POST")
	authed.HandleFunc("/items/{id:[0-9]+}/unclaim", s.handleUnclaim).Methods("POST")

	// Profile
	authed.HandleFunc("/profile", s.handleGetProfile).Methods("GET")
	authed.HandleFunc("/profile", s.handleUpdateProfile).Methods("PUT")
	authed.HandleFunc("/profile/password", s.handleChangePassword).Methods("POST")
	authed.HandleFunc("/profile/email", s.handleChangeEmail).Methods("POST")

	// Children
	authed.HandleFunc("/children", s.handleCreateChild).Methods("POST")
	authed.HandleFunc("/children/{id:[0-9]+}/promote", s.handlePromoteChild).Methods("POST")

	// Admin
	authed.HandleFunc("/admin/invites", s.handleInvite).Methods("POST")
	authed.HandleFunc("/admin/users/{id:[0-9]+}/archive", s.handleArchiveUser).Methods("POST")
	authed.HandleFunc("/admin/users/{id:[0-9]+}/restore", s.handleRestoreUser).Methods("POST")
	authed.HandleFunc("/admin/users/{id:[0-9]+}", s.handleDeleteUser).Methods("DELETE")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "gift-exchange",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the root handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
