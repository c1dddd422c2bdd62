package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/promofarm/core-go/internal/action"
	"github.com/promofarm/core-go/internal/activity"
	"github.com/promofarm/core-go/internal/archive"
	"github.com/promofarm/core-go/internal/config"
	"github.com/promofarm/core-go/internal/gameclient"
	"github.com/promofarm/core-go/internal/handler"
	"github.com/promofarm/core-go/internal/jobs"
	"github.com/promofarm/core-go/internal/middleware"
	"github.com/promofarm/core-go/internal/orchestrator"
	"github.com/promofarm/core-go/internal/redis"
	"github.com/promofarm/core-go/internal/session"
	"github.com/promofarm/core-go/internal/store"
	"github.com/promofarm/core-go/internal/util"
)

// watchedEvents lists the promotional events the detector keeps verdicts
// for. Date-gated pages print their active window; the selector locates it.
var watchedEvents = []activity.EventSpec{
	{ID: "attendance", Path: "/event/attendance", DateGated: true, DateSelector: ".event-period"},
	{ID: "coupon", Path: "/event/coupon"},
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setLogLevel(cfg.LogLevel)

	if cfg.APIToken == "" {
		token, err := util.GenerateToken()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to generate API token")
		}
		cfg.APIToken = token
		log.Info().Str("token", token).Msg("API_TOKEN not set, generated one for this run")
	}

	cookies := store.NewCookieStore(cfg.DataDir)
	accounts := store.NewAccountRegistry(cfg.DataDir)
	activityStore := store.NewActivityStore(cfg.DataDir)
	promos := store.NewPromoHistory(cfg.DataDir)
	checkpoints := store.NewCheckpointStore(cfg.DataDir)

	db, err := archive.Connect(cfg.ArchiveFile())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open archive database")
	}
	defer db.Close()
	reports := archive.NewReportRepository(db.DB)
	recorder := archive.NewRecorder(reports)
	log.Info().Str("path", cfg.ArchiveFile()).Msg("archive database ready")

	var pacer gameclient.Pacer
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		pacer = gameclient.NewRedisPacer(redisClient.Client, cfg.Domain(), config.PacerWindow, config.PacerLimit)
		log.Info().Msg("redis connected, pacing is shared")
	} else {
		pacer = gameclient.NewLocalPacer(config.PacerWindow/config.PacerLimit, 1)
	}

	var provisioner session.Provisioner
	if cfg.ImportBrowser != "" {
		provisioner = session.NewImportProvisioner(cfg.Domain(), cfg.ImportBrowser)
		log.Info().Str("browser", cfg.ImportBrowser).Msg("importing sessions from local browser store")
	} else if cfg.BrowserPath != "" {
		provisioner = session.NewBrowserProvisioner(cfg.GameBaseURL, cfg.Domain(), cfg.Profiles(), cfg.BrowserPath, cookies)
		log.Info().Str("browser", cfg.BrowserPath).Msg("using browser-driven session provisioning")
	} else {
		provisioner = session.NewWarmupProvisioner(cfg.GameBaseURL)
		log.Info().Msg("using HTTP warm-up session provisioning")
	}

	detector := activity.NewDetector(
		activityStore, cookies, cfg.GameBaseURL,
		cfg.ReferenceOwner, cfg.ReferenceAccount,
		time.Duration(cfg.ServerUTCOffset)*time.Hour,
		watchedEvents,
	)

	attendance := action.NewAttendanceAction()
	actionsByName := map[string]action.EventAction{
		attendance.Name(): attendance,
	}
	farmActions := []action.EventAction{attendance}

	orch := orchestrator.New(
		accounts, cookies, promos, checkpoints,
		detector, provisioner, recorder, pacer,
		cfg.GameBaseURL, farmActions,
	)

	authMiddleware := middleware.NewAuthMiddleware(cfg.APIToken)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	accountsHandler := handler.NewAccountsHandler(accounts, cookies, orch)
	eventsHandler := handler.NewEventsHandler(detector, activityStore)
	runsHandler := handler.NewRunsHandler(orch, accounts, actionsByName)
	farmHandler := handler.NewFarmHandler(orch)
	reportsHandler := handler.NewReportsHandler(reports)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Mount("/accounts", accountsHandler.Routes())
		r.Mount("/events", eventsHandler.Routes())
		r.Mount("/runs", runsHandler.Routes())
		r.Mount("/farm", farmHandler.Routes())
		r.Mount("/reports", reportsHandler.Routes())
	})

	pruneJob := jobs.NewPruneJob(reports, config.ReportRetention, config.PruneJobInterval)
	pruneJob.Start()
	defer pruneJob.Stop()

	if cfg.FarmCycleMinutes > 0 {
		cycleJob := jobs.NewFarmCycleJob(orch, time.Duration(cfg.FarmCycleMinutes)*time.Minute)
		cycleJob.Start()
		defer cycleJob.Stop()
	}

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     r,
		ReadTimeout: config.ServerReadTimeout,
		IdleTimeout: config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// a paused sweep keeps its checkpoint; a running one is stopped cleanly
	orch.Jobs().Shutdown()

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
