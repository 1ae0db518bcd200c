// Package app contains the application setup for the catalog service.
package app

import (
	"log/slog"
	"net/http"

	"github.com/abgdnv/gocatalog/internal/catalog/config"
	"github.com/abgdnv/gocatalog/internal/catalog/service"
	"github.com/abgdnv/gocatalog/internal/catalog/store"
	"github.com/abgdnv/gocatalog/internal/catalog/transport/rest"
	"github.com/abgdnv/gocatalog/pkg/auth"
	"github.com/abgdnv/gocatalog/pkg/messaging"
	"github.com/abgdnv/gocatalog/pkg/metrics"
	"github.com/abgdnv/gocatalog/pkg/server"
	"github.com/abgdnv/gocatalog/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// ServiceName labels logs, traces and metrics.
const ServiceName = "catalog"

type Dependencies struct {
	Store          store.ProductStore
	ProductService service.ProductService
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	// Verifier guards catalog writes when set.
	Verifier auth.Verifier
}

// NewStore opens the file-backed catalog described by cfg.
func NewStore(cfg config.Config, logger *slog.Logger) *store.FileStore {
	return store.NewFileStore(cfg.Catalog.Path, logger, store.WithIndent(cfg.Catalog.Indent))
}

func SetupDependencies(productStore store.ProductStore, publisher messaging.Publisher, logger *slog.Logger) *Dependencies {
	m := metrics.New(prometheus.NewRegistry())
	pService := service.NewService(productStore, publisher, m, logger)

	return &Dependencies{
		Store:          productStore,
		ProductService: pService,
		Metrics:        m,
		Logger:         logger,
	}
}

// SetupHttpHandler initializes the router with the catalog routes, health check and metrics endpoint.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(ServiceName, deps.Logger, deps.Metrics.Middleware(ServiceName))
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the catalog service.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	var writeGuards []func(http.Handler) http.Handler
	if deps.Verifier != nil {
		writeGuards = append(writeGuards, web.RequireBearer(deps.Verifier, deps.Logger))
	}
	productHandler := rest.NewHandler(deps.ProductService, deps.Logger)
	productHandler.RegisterRoutes(mux, writeGuards...)
	mux.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
}

// SetupHttpServer creates and configures an HTTP server for the catalog service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps))
}
