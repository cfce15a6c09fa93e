// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command eventdesk runs the community event content admin.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/eventdesk-go/internal/auth"
	"github.com/olegiv/eventdesk-go/internal/blob"
	"github.com/olegiv/eventdesk-go/internal/cache"
	"github.com/olegiv/eventdesk-go/internal/config"
	"github.com/olegiv/eventdesk-go/internal/editor"
	"github.com/olegiv/eventdesk-go/internal/handler"
	"github.com/olegiv/eventdesk-go/internal/keyval"
	"github.com/olegiv/eventdesk-go/internal/logging"
	"github.com/olegiv/eventdesk-go/internal/middleware"
	"github.com/olegiv/eventdesk-go/internal/model"
	"github.com/olegiv/eventdesk-go/internal/scheduler"
	"github.com/olegiv/eventdesk-go/internal/session"
	"github.com/olegiv/eventdesk-go/internal/store"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (ignore error in production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	logger := logging.Setup(db, logging.ParseLevel(cfg.LogLevel))
	logger.Info("starting eventdesk",
		"version", appVersion,
		"commit", appGitCommit,
		"env", cfg.Env,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := store.SeedAdmin(ctx, db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("seeding admin account: %w", err)
		}
	}

	appCache, err := cache.New(cache.Options{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.AllowlistCacheTTL(),
		MaxSize:    cfg.CacheMaxSize,
	})
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = appCache.Close() }()

	allowList := auth.NewCachedAllowList(auth.NewStoreAllowList(db), appCache, cfg.AllowlistCacheTTL())

	manager, err := session.NewManager(session.Config{
		KV:        keyval.NewSQLiteStore(db),
		Verifier:  auth.NewAccountVerifier(db),
		AllowList: allowList,
		Duration:  cfg.SessionDuration(),
	})
	if err != nil {
		return fmt.Errorf("creating session manager: %w", err)
	}
	// Pick up a persisted session from a previous run.
	manager.Restore(ctx)

	sessionManager := newHTTPSessionManager(db, cfg)

	blobStore, err := blob.NewDiskStore(cfg.UploadsDir, "/uploads")
	if err != nil {
		return fmt.Errorf("initializing upload store: %w", err)
	}

	sched := scheduler.New(db, logger, allowList, time.Duration(cfg.AuditRetentionDays)*24*time.Hour)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	r := buildRouter(ctx, cfg, db, sessionManager, manager, blobStore)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ServerAddr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// newHTTPSessionManager configures the browser session store.
func newHTTPSessionManager(db *sql.DB, cfg *config.Config) *scs.SessionManager {
	sm := scs.New()
	// The scheduler owns expired-session cleanup.
	sm.Store = sqlite3store.NewWithCleanupInterval(db, 0)
	sm.Lifetime = cfg.SessionDuration()
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !cfg.IsDevelopment()
	return sm
}

// buildRouter wires the section editors and all HTTP routes.
func buildRouter(ctx context.Context, cfg *config.Config, db *sql.DB,
	sm *scs.SessionManager, manager *session.Manager, blobStore *blob.DiskStore) chi.Router {

	// Deletion confirmation happens in the browser; the server side accepts
	// every confirmed request.
	confirm := func(string) bool { return true }

	events := editor.New(editor.Options[model.Event, *model.Event]{
		Store:    store.NewCollection[model.Event](db, model.CollectionEvents),
		Uploader: blobStore,
		Confirm:  confirm,
	})
	pastEvents := editor.New(editor.Options[model.PastEvent, *model.PastEvent]{
		Store:   store.NewCollection[model.PastEvent](db, model.CollectionPastEvents),
		Confirm: confirm,
	})
	features := editor.New(editor.Options[model.Feature, *model.Feature]{
		Store:    store.NewCollection[model.Feature](db, model.CollectionFeatures),
		Uploader: blobStore,
		Confirm:  confirm,
	})
	inspirations := editor.New(editor.Options[model.Inspiration, *model.Inspiration]{
		Store:   store.NewCollection[model.Inspiration](db, model.CollectionInspirations),
		Confirm: confirm,
	})
	users := editor.New(editor.Options[model.User, *model.User]{
		Store:     store.NewCollection[model.User](db, model.CollectionUsers),
		Confirm:   confirm,
		Protected: func(u *model.User) bool { return u.IsProtected() },
	})

	events.Subscribe(ctx)
	pastEvents.Subscribe(ctx)
	features.Subscribe(ctx)
	inspirations.Subscribe(ctx)
	users.Subscribe(ctx)

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	authHandler := handler.NewAuthHandler(sm, manager, loginProtection, cfg.SessionDuration())
	adminShell := handler.NewAdminShell(manager, cfg.SessionDuration())
	mediaHandler := handler.NewMediaHandler(blobStore)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(sm.LoadAndSave)
	csrfKey := []byte(cfg.SessionSecret)[:config.MinSessionSecretLength]
	r.Use(middleware.CSRF(middleware.DefaultCSRFConfig(csrfKey, cfg.IsDevelopment())))

	r.Get("/healthz", healthz(db))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RedirectAuthenticated(sm, manager))
		r.Get(middleware.RouteLogin, authHandler.LoginForm)
		r.Post(middleware.RouteLogin, authHandler.Login)
	})
	r.Post("/logout", authHandler.Logout)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, middleware.RouteAdmin, http.StatusSeeOther)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(sm, manager))

		r.Get(middleware.RouteAdmin, adminShell.ServeHTTP)
		r.Get("/api/session", authHandler.Session)
		r.Post("/api/password", handler.NewPasswordHandler(db, manager).Change)
		r.Post("/api/preview", handler.Preview)
		r.Post("/api/uploads", mediaHandler.Upload)
		r.Get("/api/audit", handler.NewAuditHandler(db).List)

		r.Mount("/api/events", handler.NewResource(model.CollectionEvents, events).Routes())
		r.Mount("/api/past-events", handler.NewResource(model.CollectionPastEvents, pastEvents).Routes())
		r.Mount("/api/features", handler.NewResource(model.CollectionFeatures, features).Routes())
		r.Mount("/api/inspirations", handler.NewResource(model.CollectionInspirations, inspirations).Routes())
		r.Mount("/api/users", handler.NewResource(model.CollectionUsers, users).Routes())
	})

	uploadsFS := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir)))
	r.Get("/uploads/*", uploadsFS.ServeHTTP)

	return r
}

func healthz(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if err := db.PingContext(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  status,
			"version": appVersion,
		})
	}
}
