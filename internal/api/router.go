package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/fairtrade/internal/ledger"
)

// Options configures the router.
type Options struct {
	JWTSecret   string
	TokenExpiry time.Duration
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, l *ledger.Ledger, opts Options) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, Ledger: l, JWTSecret: opts.JWTSecret, TokenExpiry: opts.TokenExpiry}
	accountsHandler := &AccountsHandler{Ledger: l}
	rolesHandler := &RolesHandler{Ledger: l}
	itemsHandler := &ItemsHandler{Ledger: l}
	eventsHandler := &EventsHandler{Ledger: l}

	authMW := AuthMiddleware(opts.JWTSecret, db)
	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }

	// Auth.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))
	mux.Handle("GET /api/auth/me", authed(authHandler.Me))

	// Accounts: listing is admin only, funding and registration are checked
	// by the ledger.
	mux.Handle("GET /api/accounts", authMW(RequireAdmin(http.HandlerFunc(accountsHandler.List))))
	mux.Handle("POST /api/accounts", authed(accountsHandler.Create))
	mux.Handle("POST /api/accounts/{id}/fund", authed(accountsHandler.Fund))
	mux.HandleFunc("GET /api/accounts/{id}/balance", accountsHandler.Balance)
	mux.HandleFunc("GET /api/accounts/{id}/roles", accountsHandler.Roles)

	// Role registry.
	mux.Handle("POST /api/roles", authed(rolesHandler.Grant))
	mux.Handle("DELETE /api/roles", authed(rolesHandler.Revoke))
	mux.HandleFunc("GET /api/roles/{role}/{account}", rolesHandler.Has)

	// Items: reads are open, every transition needs a caller.
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.Handle("POST /api/items", authed(itemsHandler.Harvest))
	mux.HandleFunc("GET /api/items/{upc}/summary", itemsHandler.Summary)
	mux.HandleFunc("GET /api/items/{upc}/commerce", itemsHandler.Commerce)
	mux.HandleFunc("GET /api/items/{upc}/history", itemsHandler.History)
	mux.Handle("POST /api/items/{upc}/process", authed(itemsHandler.Process))
	mux.Handle("POST /api/items/{upc}/pack", authed(itemsHandler.Pack))
	mux.Handle("POST /api/items/{upc}/sell", authed(itemsHandler.Sell))
	mux.Handle("POST /api/items/{upc}/buy", authed(itemsHandler.Buy))
	mux.Handle("POST /api/items/{upc}/ship", authed(itemsHandler.Ship))
	mux.Handle("POST /api/items/{upc}/receive", authed(itemsHandler.Receive))
	mux.Handle("POST /api/items/{upc}/purchase", authed(itemsHandler.Purchase))

	// Event log.
	mux.HandleFunc("GET /api/events", eventsHandler.List)

	return LoggingMiddleware(mux)
}
