package server

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/dukerupert/grocer/internal/auth"
	"github.com/dukerupert/grocer/internal/config"
	"github.com/dukerupert/grocer/internal/grocery"
	"github.com/dukerupert/grocer/internal/handler"
	"github.com/dukerupert/grocer/internal/middleware"
	"github.com/dukerupert/grocer/internal/store"
	ws "github.com/dukerupert/grocer/internal/websocket"
)

type Server struct {
	cfg         *config.Config
	hub         *ws.Hub
	auth        *auth.Authenticator
	healthH     *handler.HealthHandler
	listH       *handler.ListHandler
	itemH       *handler.ItemHandler
	storeH      *handler.StoreHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	groceryStore := store.NewGroceryStore(db, cfg.Database.DriverName())

	lists := grocery.NewListManager(groceryStore, hub, logger.With("component", "lists"))
	items := grocery.NewItemManager(lists, cfg.Items.AutoCategorize, logger.With("component", "items"))
	migrator := grocery.NewMigrator(lists)
	stores := grocery.NewStoreDirectory(groceryStore)

	return &Server{
		cfg:         cfg,
		hub:         hub,
		auth:        auth.NewAuthenticator(cfg.Auth),
		healthH:     handler.NewHealthHandler(db, logger.With("component", "health")),
		listH:       handler.NewListHandler(lists, migrator, logger.With("component", "list_handler")),
		itemH:       handler.NewItemHandler(items, logger.With("component", "item_handler")),
		storeH:      handler.NewStoreHandler(stores, logger.With("component", "store_handler")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the change feed hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("GET /{$}", s.healthH.Root)
	outerMux.HandleFunc("GET /health", s.healthH.Health)

	// API routes: bearer auth, then a per-user rate limit
	apiMux := http.NewServeMux()
	s.registerAPIRoutes(apiMux)

	rl := middleware.RateLimit(s.rateLimiter, middleware.PrincipalKey, s.cfg.RateLimit.Requests, s.cfg.RateLimit.Window)
	outerMux.Handle("/api/", middleware.RequireAuth(s.auth)(rl(apiMux)))

	var h http.Handler = outerMux
	h = middleware.CORS(s.cfg.CORS.Origins())(h)
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	h = middleware.RequestID(h)
	return h
}

func (s *Server) registerAPIRoutes(mux *http.ServeMux) {
	// Lists
	mux.HandleFunc("GET /api/lists", s.listH.List)
	mux.HandleFunc("POST /api/lists", s.listH.Create)
	mux.HandleFunc("GET /api/lists/{id}", s.listH.Get)
	mux.HandleFunc("PUT /api/lists/{id}", s.listH.Update)
	mux.HandleFunc("DELETE /api/lists/{id}", s.listH.Delete)
	mux.HandleFunc("POST /api/lists/{id}/close", s.listH.Close)
	mux.HandleFunc("POST /api/lists/{id}/migrate-items", s.listH.MigrateItems)

	// Items
	mux.HandleFunc("GET /api/items/list/{list_id}", s.itemH.ListForList)
	mux.HandleFunc("POST /api/items/list/{list_id}", s.itemH.Create)
	mux.HandleFunc("GET /api/items/{id}", s.itemH.Get)
	mux.HandleFunc("PUT /api/items/{id}", s.itemH.Update)
	mux.HandleFunc("PATCH /api/items/{id}/purchased", s.itemH.SetPurchased)
	mux.HandleFunc("DELETE /api/items/{id}", s.itemH.Delete)

	// Admin
	mux.Handle("GET /api/stores/popular", middleware.RequireAdmin(http.HandlerFunc(s.storeH.Popular)))

	// Change feed
	mux.HandleFunc("GET /api/ws", ws.Handle(s.hub, s.cfg.CORS.Origins(), s.logger.With("component", "websocket")))
}
