package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"afyalink.org/internal/auth"
	"afyalink.org/internal/config"
	"afyalink.org/internal/httpapi"
	"afyalink.org/internal/obs"
	"afyalink.org/internal/store"
)

var version = "0.3.1"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("AFYA_BUILD_COMMIT"))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Without a DSN the service runs on in-memory backends, which is enough
	// for local development and the smoke binary.
	var (
		db       *sql.DB
		provider auth.Provider
		st       store.Store
	)
	if cfg.PostgresDSN != "" {
		pg, err := store.Open(cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db = pg.DB()
		st = pg
		provider = auth.NewPGProvider(db,
			auth.WithSessionTTL(cfg.SessionTTL),
			auth.WithRoleLookup(profileRole(pg)))
	} else {
		log.Println("AFYA_PG_DSN not set, using in-memory backends")
		mem := store.NewInMemory()
		st = mem
		mp := auth.NewMemoryProvider()
		mp.SetRoleLookup(profileRole(mem))
		provider = mp
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, provider, st)
	api.SetRateLimit(cfg.RateBurst, cfg.RatePerSec)
	api.SetMaxBodyBytes(cfg.MaxBodyBytes)

	// No WriteTimeout: /v1/session/stream holds its response open.
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting afya-api %s on %s", version, srv.Addr)
	obs.SetReady(true)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}

// profileRole stamps issued tokens with the caller's profile role.
func profileRole(st store.Store) auth.RoleLookup {
	return func(ctx context.Context, userID string) string {
		profile, err := st.Profiles(ctx).Find(ctx, userID)
		if err != nil {
			return ""
		}
		return string(profile.Role)
	}
}
