package main

import (
	batch "Ventosa/internal/calc/batch"
	suction "Ventosa/internal/calc/suction"
	"Ventosa/internal/catalog"
	"Ventosa/internal/config"
	"Ventosa/internal/logging"
	"Ventosa/internal/middleware"
	"Ventosa/internal/observability"
	report "Ventosa/internal/report"
	repo "Ventosa/internal/repo"
	"Ventosa/internal/session"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var wg sync.WaitGroup

type App struct {
	Config  config.Config
	Options config.Options
	Catalog catalog.Catalog
	Policy  catalog.TolerancePolicy
	Metrics *observability.Collector
	Log     *zap.Logger
}

func HandleList(router *mux.Router, app *App) {
	sessions := session.NewStore(app.Config.SessionKey, app.Config.SessionTTL, app.Config.CookieSecure)
	limiter := middleware.NewIPRateLimiter(rate.Limit(app.Config.RateLimit), app.Config.RateBurst)

	router.Use(app.Metrics.Middleware)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.RequestLogger(app.Log))
	api.Use(limiter.Limit)

	forceH := &suction.Handler{Options: app.Options, Sessions: sessions, Metrics: app.Metrics, Log: app.Log}
	batchH := &batch.Handler{Metrics: app.Metrics, Log: app.Log}
	catalogH := &catalog.Handler{Catalog: app.Catalog, Policy: app.Policy, Sessions: sessions, Metrics: app.Metrics, Log: app.Log}
	reportH := &report.Handler{Catalog: app.Catalog, Policy: app.Policy, Sessions: sessions, Log: app.Log}
	sessionH := &session.Handler{Store: sessions}

	api.HandleFunc("/force/calc", forceH.Calc).Methods("POST")
	api.HandleFunc("/force/manual", forceH.Manual).Methods("POST")
	api.HandleFunc("/force/batch", batchH.Calc).Methods("POST")
	api.HandleFunc("/force/import", batchH.Import).Methods("POST")
	api.HandleFunc("/session", sessionH.Get).Methods("GET")
	api.Handle("/options", app.Options).Methods("GET")
	api.HandleFunc("/catalog/search", catalogH.Search).Methods("POST")
	api.HandleFunc("/report/pdf", reportH.Generate).Methods("POST")

	router.Handle("/metrics", app.Metrics.Handler()).Methods("GET")
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": "ok", "catalog_rows": app.Catalog.Len()})
	}).Methods("GET")
}

// loadCatalog never fails: a broken source leaves the service running over
// an empty catalog.
func loadCatalog(ctx context.Context, cfg config.Config, logger *zap.Logger) (catalog.Catalog, func()) {
	var src catalog.Source
	closer := func() {}
	if cfg.CatalogDSN != "" {
		db, err := repo.OpenDB(ctx, cfg.CatalogDSN)
		if err != nil {
			logger.Error("catalog database unavailable", zap.Error(err))
			return catalog.FromTable(nil), closer
		}
		closer = func() { closeDB(db, logger) }
		pg, err := repo.NewPostgresCatalogDB(db, cfg.CatalogTable)
		if err != nil {
			logger.Error("catalog table", zap.Error(err))
			return catalog.FromTable(nil), closer
		}
		src = pg
	} else {
		src = catalog.SheetSource{Path: cfg.CatalogPath}
	}

	cat, err := src.LoadCatalog(ctx)
	if err != nil {
		logger.Error("catalog not loaded, continuing with an empty catalog", zap.Error(err))
		return catalog.FromTable(nil), closer
	}
	for _, col := range []string{catalog.ColSuctionForce, catalog.ColMaterial, catalog.ColSurface, catalog.ColApplications} {
		if !cat.HasColumn(col) {
			logger.Warn("catalog column missing, filter disabled", zap.String("column", col))
		}
	}
	logger.Info("catalog loaded", zap.Int("rows", cat.Len()), zap.Strings("columns", cat.Columns))
	return cat, closer
}

func closeDB(db *sql.DB, logger *zap.Logger) {
	if err := db.Close(); err != nil {
		logger.Warn("close database", zap.Error(err))
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	opts, err := config.LoadOptions(cfg.OptionsPath)
	if err != nil {
		logger.Warn("option tables not loaded, using defaults", zap.Error(err))
	}
	policy, err := catalog.ParsePolicy(cfg.TolerancePolicy)
	if err != nil {
		logger.Fatal("TOLERANCE_POLICY", zap.Error(err))
	}
	metrics, err := observability.NewCollector(nil)
	if err != nil {
		logger.Fatal("metrics", zap.Error(err))
	}

	cat, closeCatalog := loadCatalog(ctx, cfg, logger)
	defer closeCatalog()
	metrics.SetCatalogRows(cat.Len())

	router := mux.NewRouter()
	HandleList(router, &App{
		Config:  cfg,
		Options: opts,
		Catalog: cat,
		Policy:  policy,
		Metrics: metrics,
		Log:     logger,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           middleware.CORS(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("starting server", zap.String("addr", cfg.Addr), zap.Bool("tls", cfg.TLSEnabled()), zap.String("policy", string(policy)))
		var serveErr error
		if cfg.TLSEnabled() {
			serveErr = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			serveErr = server.ListenAndServe()
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(serveErr))
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, closing active connections")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	wg.Wait()
	logger.Info("server stopped")
}
