package handlers

// router.go constructs the chi router, registers all middleware, and wires all
// routes to their respective handlers. it is the single source of truth for
// the HTTP surface area of the control plane API.
// adding a new endpoint means adding one line in this file, nothing else.

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/corvus-faas/control-plane/auth"
	"github.com/corvus-faas/control-plane/catalog"
	"github.com/corvus-faas/control-plane/deploy"
	"github.com/corvus-faas/control-plane/invoke"
	"github.com/corvus-faas/control-plane/proxy"
)

// RouterDependencies groups all external dependencies that the router and
// its handlers need. passing a single struct instead of N arguments keeps
// CreateAndSetupRouter's signature stable as more handlers are added.
// adding a new dependency means adding one field here, not changing every call site.
type RouterDependencies struct {
	Logger          *slog.Logger
	AuthService     *auth.Service
	CatalogStore    catalog.Store
	DeployPipeline  *deploy.Pipeline
	Scheduler       *invoke.Scheduler
	Proxy           *proxy.Proxy
	MaxFunctionSize int64
}

// CreateAndSetupRouter constructs the chi multiplexer, attaches middleware, constructs
// all handlers with their dependencies, and registers all routes.
// it returns a plain http.Handler so main.go has no chi import or awareness.
// the server in main.go only needs to know it has something that satisfies http.Handler.
func CreateAndSetupRouter(dependencies RouterDependencies) http.Handler {
	router := chi.NewRouter() // type is *chi.Mux, implements http.Handler interface

	router.Use(middleware.Logger) // TODO replace with a custom slog middleware
	router.Use(middleware.Recoverer)

	// --- handler init/construction ---
	// each handler receives only the dependencies it actually needs.
	healthHandler := NewHealthHandler(dependencies.Logger)
	authHandler := NewAuthHandler(dependencies.AuthService, dependencies.Logger)
	deployHandler := NewDeployHandler(dependencies.DeployPipeline, dependencies.Logger, dependencies.MaxFunctionSize)
	listHandler := NewListHandler(dependencies.CatalogStore, dependencies.Logger)
	invokeHandler := NewInvokeHandler(dependencies.Scheduler, dependencies.Proxy, dependencies.Logger)

	authGuard := requireAuth(dependencies.AuthService, dependencies.Logger)

	// --- route registration ---

	// The `/health` endpoint is intentionally kept at the root level rather
	// than under any group. External infrastructure components, such as
	// load balancers and container orchestrators, expect health checks at
	// standard root paths and have no context about internal route grouping.
	router.Get("/health", healthHandler.Health)

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Group(func(authenticatedRouter chi.Router) {
		authenticatedRouter.Use(authGuard)
		authenticatedRouter.Post("/deploy", deployHandler.Deploy)
		authenticatedRouter.Get("/list", listHandler.List)
	})

	// /invoke/{namespace}/{name} is intentionally unauthenticated: the
	// namespace UUID itself is the access control, per the request proxy's
	// contract.
	router.HandleFunc("/invoke/{namespace}/{name}", invokeHandler.Invoke)

	return router
}
