package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"soq/db"
	"soq/db/migrations"
	"soq/internal/config"
	"soq/internal/estimate"
	"soq/internal/handlers"
	"soq/internal/logger"
	appmw "soq/internal/middleware"
	"soq/internal/notify"
	"soq/internal/scheduler"
	"soq/internal/seed"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/pflag"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal(err)
	}

	flags := pflag.NewFlagSet("api-server", pflag.ExitOnError)
	flags.StringVar(&cfg.ServerAddress, "addr", cfg.ServerAddress, "HTTP listen address")
	flags.StringVar(&cfg.PostgresConn, "postgres", cfg.PostgresConn, "PostgreSQL connection string")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&cfg.SeedFile, "seed", cfg.SeedFile, "YAML file with demo categories, loaded into an empty database")
	flags.StringVar(&cfg.WindowSweepSpec, "window-sweep", cfg.WindowSweepSpec, "cron spec for tender window notices")
	skipMigrations := flags.Bool("skip-migrations", false, "do not run database migrations on start")
	flags.Parse(os.Args[1:])

	logger.Init(cfg.LogLevel, cfg.Env)
	log := logger.Log
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	dbConn, err := sqlx.Connect("postgres", cfg.PostgresConn)
	if err != nil {
		log.Fatalf("Cannot connect to DB: %v", err)
	}
	defer dbConn.Close()

	if !*skipMigrations {
		if err := migrations.Run(dbConn.DB); err != nil {
			log.Fatal(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := db.NewStorage(dbConn)
	broadcaster := notify.NewBroadcaster(log)
	defer broadcaster.Close()
	notifier := notify.Multi{notify.LogDispatcher{Log: log}, broadcaster}
	book := estimate.NewBook(estimate.WithNotifier(notifier))

	if err := restore(ctx, store, book, cfg.SeedFile); err != nil {
		log.Fatalf("Cannot load state: %v", err)
	}

	sweeper := scheduler.NewWindowSweeper(book, notifier, nil)
	sweeps, err := scheduler.Start(cfg.WindowSweepSpec, sweeper, log)
	if err != nil {
		log.Fatalf("Invalid window sweep spec %q: %v", cfg.WindowSweepSpec, err)
	}
	defer sweeps.Stop()

	h := handlers.NewHandler(book, store)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ws", broadcaster.HandleWS)
	r.Route("/api", func(r chi.Router) {
		r.Use(appmw.RateLimit(cfg.RateLimitLimit, cfg.RateLimitPeriod))
		r.Get("/ping", h.PingHandler)
		// категории и работы
		r.Get("/categories", h.GetCategoriesHandler)
		r.Post("/categories", h.CreateCategoryHandler)
		r.Patch("/categories/{categoryId}", h.RenameCategoryHandler)
		r.Delete("/categories/{categoryId}", h.DeleteCategoryHandler)
		r.Get("/categories/{categoryId}/total", h.CategoryTotalHandler)
		r.Post("/categories/{categoryId}/jobs", h.CreateJobHandler)
		r.Get("/jobs/{jobId}", h.GetJobHandler)
		r.Patch("/jobs/{jobId}", h.EditJobHandler)
		r.Delete("/jobs/{jobId}", h.DeleteJobHandler)
		r.Put("/jobs/{jobId}/status", h.ChangeJobStatusHandler)
		r.Put("/jobs/{jobId}/move", h.MoveJobHandler)
		r.Post("/jobs/{jobId}/recompute", h.RecomputeJobHandler)
		// позиции сметы
		r.Post("/jobs/{jobId}/materials", h.AddMaterialHandler)
		r.Post("/jobs/{jobId}/labor", h.AddLaborHandler)
		r.Patch("/items/{itemId}", h.EditItemHandler)
		r.Delete("/items/{itemId}", h.DeleteItemHandler)
		r.Post("/items/{itemId}/attachments", h.AddAttachmentHandler)
		// тендеры
		r.Post("/tenders/new", h.CreateTenderHandler)
		r.Get("/tenders", h.GetTendersHandler)
		r.Get("/tenders/my", h.GetUserTendersHandler)
		r.Get("/tenders/{tenderId}", h.GetTenderHandler)
		r.Delete("/tenders/{tenderId}", h.DeleteTenderHandler)
		r.Post("/tenders/{tenderId}/jobs", h.AddTenderJobHandler)
		r.Delete("/tenders/{tenderId}/jobs/{jobId}", h.RemoveTenderJobHandler)
		r.Put("/tenders/{tenderId}/privacy", h.SetPrivacyHandler)
		r.Put("/tenders/{tenderId}/schedule", h.RescheduleTenderHandler)
		r.Put("/tenders/{tenderId}/status", h.ChangeTenderStatusHandler)
		r.Get("/tenders/{tenderId}/versions/{version}", h.GetTenderVersionHandler)
		// предложения (bids) и сравнение
		r.Post("/tenders/{tenderId}/bids", h.CreateBidHandler)
		r.Get("/tenders/{tenderId}/bids", h.GetBidsForTenderHandler)
		r.Patch("/tenders/{tenderId}/bids/{bidderName}", h.EditBidHandler)
		r.Get("/tenders/{tenderId}/comparison", h.GetComparisonHandler)
		r.Get("/tenders/{tenderId}/comparison.xlsx", h.ExportComparisonXLSXHandler)
		r.Get("/tenders/{tenderId}/comparison.pdf", h.ExportComparisonPDFHandler)
	})

	srv := &http.Server{Addr: cfg.ServerAddress, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Infof("Starting server on %s", cfg.ServerAddress)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// restore загружает состояние из базы. Пустая база заполняется из seed-файла, если он задан.
func restore(ctx context.Context, store *db.Storage, book *estimate.Book, seedFile string) error {
	snap, err := store.LoadSnapshot(ctx)
	if err != nil {
		return err
	}
	if err := book.Restore(snap); err != nil {
		return err
	}
	if !snap.IsEmpty() || seedFile == "" {
		return nil
	}

	f, err := seed.Load(seedFile)
	if err != nil {
		return err
	}
	if err := seed.Apply(book, f); err != nil {
		return err
	}
	logger.Log.WithField("file", seedFile).Info("seeded empty database")
	return store.SaveSnapshot(ctx, book.Export())
}
