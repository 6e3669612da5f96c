package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
	"github.com/amirhosseinghanipour/provisioner/internal/application/project"
	"github.com/amirhosseinghanipour/provisioner/internal/domain"
	infraauth "github.com/amirhosseinghanipour/provisioner/internal/infrastructure/auth"
	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/cache"
	httprouter "github.com/amirhosseinghanipour/provisioner/internal/infrastructure/http"
	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/http/handlers"
	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/http/middleware"
	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/keycloak"
	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/kibana"
	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/persistence/db"
	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/persistence/postgres"
	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/queue"
	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/restapi"
	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/searchguard"
	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/webhook"
)

var runMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the webhook worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&runMigrations, "migrate", false, "apply pending migrations before serving")
}

func serve(ctx context.Context) error {
	pool, err := connectDatabase(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()
	if runMigrations {
		if err := postgres.Migrate(ctx, pool, log); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	var redisOpt *redis.Options
	if cfg.Redis.URL != "" {
		redisOpt, err = redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		redisClient = redis.NewClient(redisOpt)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed; continuing without redis")
			redisClient = nil
		}
	}

	queries := db.New(pool)
	projectRepo := postgres.NewProjectRepository(queries, pool, domain.ProjectDefaults{
		DeploySystem: cfg.Defaults.DeploySystem,
		RemoveSystem: cfg.Defaults.RemoveSystem,
	})
	customerRepo := postgres.NewCustomerRepository(queries)
	membershipRepo := postgres.NewMembershipRepository(queries)
	var permissions ports.PermissionRepository = membershipRepo
	if redisClient != nil && cfg.PermissionCache.TTL > 0 {
		permissions = cache.NewPermissionCache(redisClient, membershipRepo, cfg.PermissionCache.TTL, log)
	}

	groups := keycloak.NewGroupManager(ctx, keycloak.Config{
		BaseURL:      cfg.Keycloak.URL,
		Realm:        cfg.Keycloak.Realm,
		ClientID:     cfg.Keycloak.ClientID,
		ClientSecret: cfg.Keycloak.ClientSecret,
		Timeout:      cfg.Keycloak.Timeout,
	}, log)
	roles := searchguard.NewRoleManager(restapi.New(cfg.SearchGuard.URL+"/_searchguard/api",
		restapi.WithBasicAuth(cfg.SearchGuard.Username, cfg.SearchGuard.Password),
	), log)
	patterns := kibana.NewProvisioner(restapi.New(cfg.Kibana.URL+"/api",
		restapi.WithBasicAuth(cfg.Kibana.Username, cfg.Kibana.Password),
		restapi.WithHeader("kbn-xsrf", "true"),
	), log)

	var emitter ports.WebhookEmitter = webhook.NewLogEmitter(log)
	if cfg.Webhook.URL != "" {
		var opts []webhook.HTTPEmitterOption
		if cfg.Webhook.Authorization != "" {
			opts = append(opts, webhook.WithHeader("Authorization", cfg.Webhook.Authorization))
		}
		emitter = webhook.NewHTTPEmitter(cfg.Webhook.URL, opts...)
	}
	var taskEnqueuer ports.TaskEnqueuer
	var asynqWorker *queue.Worker
	if redisClient != nil {
		asynqOpt := asynq.RedisClientOpt{Addr: redisOpt.Addr, Password: redisOpt.Password, DB: redisOpt.DB}
		asynqEnq, err := queue.NewAsynqEnqueuer(asynqOpt, log)
		if err != nil {
			log.Fatal().Err(err).Msg("create asynq enqueuer")
		}
		defer asynqEnq.Close()
		taskEnqueuer = asynqEnq
		asynqWorker = queue.NewWorker(asynqOpt, emitter, log)
		go func() {
			if err := asynqWorker.Run(); err != nil {
				log.Warn().Err(err).Msg("asynq worker stopped")
			}
		}()
	} else {
		taskEnqueuer = queue.NewInlineEnqueuer(emitter, log)
	}

	issuer, err := loadIssuer()
	if err != nil {
		return err
	}

	projectsHandler := handlers.NewProjectsHandler(
		project.NewCreateProject(projectRepo, customerRepo, groups, roles, patterns, log),
		project.NewUpdateProject(projectRepo, membershipRepo, groups, log),
		project.NewDeleteProject(projectRepo, groups, roles, log),
		project.NewDeleteAllProjects(projectRepo, groups, log),
		project.NewQueryProjects(projectRepo),
		taskEnqueuer,
		log,
	)
	var adminHandler *handlers.AdminHandler
	if cfg.JWT.PrivateKeyPath != "" {
		adminHandler = handlers.NewAdminHandler(issuer, cfg.JWT.AccessExpiry, log)
	}

	checks := map[string]handlers.Pinger{"database": pool}
	if redisClient != nil {
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}
	healthHandler := handlers.NewHealthHandler(checks)

	ipLimit, err := middleware.NewIPRateLimiter(cfg.RateLimit.RatePerIP)
	if err != nil {
		log.Fatal().Err(err).Msg("create IP rate limiter")
	}
	callerLimit, err := middleware.NewCallerRateLimiter(cfg.RateLimit.RatePerCaller)
	if err != nil {
		log.Fatal().Err(err).Msg("create caller rate limiter")
	}
	secureMiddleware := middleware.NewSecure(middleware.SecureOptions(cfg.Secure.IsDevelopment, cfg.Secure.AllowedHosts))

	router := httprouter.NewRouter(httprouter.RouterConfig{
		HealthHandler:   healthHandler,
		ProjectsHandler: projectsHandler,
		AdminHandler:    adminHandler,
		RequireAuth:     middleware.NewAuthValidator(issuer, permissions, log).Handler,
		Log:             log,
		Secure:          secureMiddleware,
		IPRateLimit:     ipLimit,
		CallerRateLimit: callerLimit,
		Metrics:         true,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if asynqWorker != nil {
		asynqWorker.Shutdown()
	}
	log.Info().Msg("server stopped")
	return nil
}

// loadIssuer prefers the private key so the service can also mint tokens.
func loadIssuer() (*infraauth.TokenIssuer, error) {
	if cfg.JWT.PrivateKeyPath != "" {
		pemBytes, err := cfg.LoadJWTPrivateKey()
		if err != nil {
			return nil, err
		}
		privateKey, err := infraauth.LoadRSAPrivateKeyFromPEM(pemBytes)
		if err != nil {
			return nil, err
		}
		return infraauth.NewTokenIssuer(privateKey, cfg.JWT.Issuer, cfg.JWT.Audience), nil
	}
	pemBytes, err := cfg.LoadJWTPublicKey()
	if err != nil {
		return nil, err
	}
	publicKey, err := infraauth.LoadRSAPublicKeyFromPEM(pemBytes)
	if err != nil {
		return nil, err
	}
	return infraauth.NewTokenVerifier(publicKey, cfg.JWT.Issuer, cfg.JWT.Audience), nil
}
