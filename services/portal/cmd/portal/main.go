package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"knowledgegalaxy/internal/metrics"
	"knowledgegalaxy/internal/ratelimit"
	"knowledgegalaxy/internal/usertoken"
	"knowledgegalaxy/internal/util"
	"knowledgegalaxy/pkg/ai"
	"knowledgegalaxy/pkg/store"
	"knowledgegalaxy/services/portal/internal/app"
	"knowledgegalaxy/services/portal/internal/authclient"
	"knowledgegalaxy/services/portal/internal/config"
	"knowledgegalaxy/services/portal/internal/searchclient"
	"knowledgegalaxy/services/portal/internal/seed"
	"knowledgegalaxy/services/portal/internal/server"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to parse session TTL: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		defer rdb.Close()
	}

	var st store.Store
	if cfg.DatabaseURL != "" {
		gs, err := store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to init store: %v", err)
		}
		st = gs
	} else {
		st = store.NewMemoryStore()
	}

	ds, err := seed.Load()
	if err != nil {
		log.Fatalf("failed to load seed data: %v", err)
	}
	if cfg.Seed {
		if err := seed.Install(st, ds); err != nil {
			log.Fatalf("failed to seed store: %v", err)
		}
	}

	var (
		authn    app.Authenticator
		searcher app.Searcher
	)
	switch cfg.AuthMode {
	case config.AuthModeRemote:
		authn = app.NewRemoteAuthenticator(authclient.NewClient(cfg.RemoteURL))
		searcher = searchclient.NewClient(cfg.RemoteURL, searchclient.DefaultBreakerConfig())
	default:
		accounts := make([]app.LocalAccount, 0, len(ds.Credentials))
		for _, c := range ds.Credentials {
			accounts = append(accounts, app.LocalAccount{Username: c.Username, Password: c.Password})
		}
		local, err := app.NewLocalAuthenticator(st, accounts)
		if err != nil {
			log.Fatalf("failed to init local accounts: %v", err)
		}
		authn = local
		searcher = app.NewLocalSearcher(st, local)
	}

	var creds store.CredentialStore = store.NewMemoryCredentialStore()
	var loginLimiter *ratelimit.FixedWindowLimiter
	if rdb != nil {
		creds = store.NewRedisCredentialStore(rdb, "portal:cred:")
		if cfg.LoginRateLimitPerMinute > 0 {
			loginLimiter, err = ratelimit.NewFixedWindowLimiter(rdb, "portal:rl:login", cfg.LoginRateLimitPerMinute, time.Minute)
			if err != nil {
				log.Fatalf("failed to init login limiter: %v", err)
			}
		}
	}

	tokens, err := usertoken.NewManager(usertoken.Config{
		Secret: cfg.JWTSecret,
		Issuer: "knowledge-galaxy",
		TTL:    sessionTTL,
	})
	if err != nil {
		log.Fatalf("failed to init token manager: %v", err)
	}

	collector := metrics.New("galaxy")
	appCore, err := app.New(app.Config{
		Store:         st,
		Credentials:   creds,
		Authenticator: authn,
		Searcher:      searcher,
		Summarizer:    ai.NewCannedSummarizer(uint64(time.Now().UnixNano())),
		Metrics:       collector,
		Tokens:        tokens,
		SessionTTL:    sessionTTL,
		PageSize:      cfg.PageSize,
		TitleLocale:   cfg.TitleLocale,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}
	httpServer, err := server.New(server.Config{
		App:            appCore,
		Metrics:        collector,
		LoginLimiter:   loginLimiter,
		TrustedProxies: trusted,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("portal listening", "addr", addr, "auth_mode", cfg.AuthMode, "seeded", cfg.Seed)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
	logger.Info("portal stopped")
}
