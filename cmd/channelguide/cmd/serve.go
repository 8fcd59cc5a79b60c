package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aseeltv/channelguide/internal/auth"
	"github.com/aseeltv/channelguide/internal/cache"
	"github.com/aseeltv/channelguide/internal/catalog"
	"github.com/aseeltv/channelguide/internal/checkup"
	"github.com/aseeltv/channelguide/internal/config"
	"github.com/aseeltv/channelguide/internal/server"
	"github.com/aseeltv/channelguide/internal/service"
	"github.com/aseeltv/channelguide/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the guide HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runServe(cfg)
	},
}

func runServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The store is optional. Without DATABASE_URL the guide runs on the
	// cache and the built-in defaults.
	var st store.Store
	if cfg.DatabaseURL != "" {
		// A failed migration is logged, not fatal: the catalog loader
		// falls back to the cache when the database is unreachable.
		if err := store.RunMigrations(cfg.DatabaseURL, migrationsPath()); err != nil {
			log.Printf("migrate: %v (continuing; store may be unavailable)", err)
		}

		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("db: %v (continuing without store)", err)
		} else {
			defer pg.Close()
			st = pg
			if !store.WaitReady(ctx, pg, cfg.ReadyAttempts, cfg.ReadyInterval) {
				log.Printf("db not ready after %d attempts; serving from cache until it comes back", cfg.ReadyAttempts)
			}
		}
	} else {
		log.Println("store disabled (DATABASE_URL not set)")
	}

	// The cache is Redis when configured, otherwise in-process.
	var c cache.Cache
	var rds *cache.Redis
	if cfg.RedisURL != "" {
		r, err := cache.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Printf("redis: %v (falling back to in-memory cache)", err)
		} else if err := r.Ping(ctx); err != nil {
			log.Printf("redis ping: %v (falling back to in-memory cache)", err)
			r.Close()
		} else {
			rds = r
			c = r
			defer r.Close()
			log.Println("redis connected (shared cache enabled)")
		}
	}
	if c == nil {
		c = cache.NewMemory()
		log.Println("using in-memory cache")
	}

	var verifier auth.Verifier
	if cfg.AdminIdentity != "" && cfg.AdminSecret != "" {
		verifier = auth.StaticVerifier{Identity: cfg.AdminIdentity, Secret: cfg.AdminSecret}
	} else {
		log.Println("admin login disabled (ADMIN_IDENTITY/ADMIN_SECRET not set)")
	}
	gate := auth.NewGate(verifier, c)

	loader := catalog.New(st, c, catalog.Options{RefreshInterval: cfg.RefreshInterval})
	loader.Load(ctx)
	loader.Start()
	defer loader.Close()

	// Queued playlist imports only make sense with a shared queue.
	if rds != nil {
		go runImportWorker(ctx, rds, loader, cfg)
	}

	checker := checkup.New(st, c, verifier)
	srv := server.New(loader, gate, checker, rds, cfg)
	return srv.ListenAndServe(ctx)
}

// migrationsPath locates the migrations directory next to the working
// directory, else next to the executable.
func migrationsPath() string {
	abs, err := filepath.Abs("migrations")
	if err != nil {
		abs = "migrations"
	}
	if _, err := os.Stat(abs); err != nil {
		if exe, e := os.Executable(); e == nil {
			abs = filepath.Join(filepath.Dir(exe), "migrations")
		}
	}
	return "file://" + abs
}

// runImportWorker continuously dequeues playlist import jobs from Redis
// and runs them. It stops when ctx is cancelled.
func runImportWorker(ctx context.Context, rds *cache.Redis, loader *catalog.Loader, cfg *config.Config) {
	log.Println("import worker started")
	for {
		select {
		case <-ctx.Done():
			log.Println("import worker stopping")
			return
		default:
		}

		job, err := cache.DequeueImport(ctx, rds, 5*time.Second)
		if err != nil {
			log.Printf("import worker: dequeue error: %v", err)
			time.Sleep(2 * time.Second)
			continue
		}
		if job == nil {
			continue // timeout, loop back to check ctx
		}

		log.Printf("import worker: processing %s", job.URL)
		sections, channels, err := service.Import(ctx, loader, job.URL, job.Section, cfg.UserAgent, cfg.Timeout)
		if err != nil {
			log.Printf("import worker: %v", err)
			continue
		}
		log.Printf("import worker: done (%d sections created, %d channels imported)", sections, channels)
	}
}
