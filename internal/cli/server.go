package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-engine-service/internal/app"
	"quiz-engine-service/internal/config"
	"quiz-engine-service/internal/domain"
	"quiz-engine-service/internal/identity"
	"quiz-engine-service/internal/infra/memory"
	"quiz-engine-service/internal/infra/postgres"
	infraredis "quiz-engine-service/internal/infra/redis"
	transport "quiz-engine-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

type poolLoader interface {
	LoadPool(ctx context.Context, categoryID int64) ([]domain.Question, error)
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := newLogger(cfg)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var (
		store  app.Store
		loader poolLoader
	)
	if cfg.Postgres.URL != "" {
		db := postgres.Open(cfg.Postgres.URL)
		defer db.Close()
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = postgres.NewStore(db)
		loader = postgres.NewPoolLoader(pool)
	} else {
		log.Warn("postgres not configured, using in-memory demo store")
		mem := demoStore()
		store, loader = mem, mem
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	poolTTL := config.TTLDuration(cfg.Quiz.PoolTTL, 5*time.Minute)
	issuedTTL := config.TTLDuration(cfg.Quiz.IssuedTTL, 2*time.Hour)

	var (
		questionPool app.QuestionPool
		issued       app.IssuedSets
	)
	if redisClient != nil {
		questionPool = infraredis.NewQuestionPool(redisClient, loader, poolTTL, log)
		issued = infraredis.NewIssuedSets(redisClient, issuedTTL)
	} else {
		questionPool = memory.NewQuestionPool(loader, poolTTL)
		issued = memory.NewIssuedSets(issuedTTL)
	}

	authCfg := authConfig(cfg)
	issuer, err := identity.NewIssuer(authCfg)
	if err != nil {
		return err
	}

	sampler := app.NewSampler(questionPool, cfg.Quiz.SampleSize)
	handler := transport.NewRouter(transport.RouterConfig{
		Quiz:            app.NewQuizService(store, sampler, issued, log),
		Editor:          app.NewQuestionEditor(store, questionPool),
		Admin:           app.NewAdminService(store),
		Verifier:        identity.NewVerifier(authCfg),
		Issuer:          issuer,
		BootstrapSecret: cfg.Auth.BootstrapSecret,
		CookieName:      cfg.Auth.CookieName,
		CookieFallback:  cfg.Auth.CookieFallback,
		CORSOrigins:     cfg.CORS.Origins,
		Log:             log,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.WithField("port", finalPort).WithField("sample_size", sampler.Size()).Info("starting quiz engine")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// demoStore provides a minimal data set; point DATABASE_URL at Postgres in production.
func demoStore() *memory.Store {
	store := memory.NewStore()
	store.AddUser(domain.User{Email: "admin@example.com", Firstname: "Demo", Lastname: "Admin", IsActive: true, IsAdmin: true})
	store.AddUser(domain.User{Email: "player@example.com", Firstname: "Demo", Lastname: "Player", IsActive: true})

	math := store.AddCategory("Math")
	for _, q := range []struct {
		text   string
		right  string
		wrongs []string
	}{
		{"What is 2 + 2?", "4", []string{"3", "5", "22"}},
		{"What is 3 x 3?", "9", []string{"6", "12", "33"}},
		{"What is 10 / 2?", "5", []string{"2", "8", "20"}},
		{"What is 7 - 4?", "3", []string{"4", "11", "-3"}},
		{"What is 5 squared?", "25", []string{"10", "15", "55"}},
		{"What is the square root of 81?", "9", []string{"8", "7", "18"}},
	} {
		choices := []domain.Choice{{Description: q.right, IsCorrect: true}}
		for _, w := range q.wrongs {
			choices = append(choices, domain.Choice{Description: w})
		}
		store.AddQuestion(math.ID, q.text, true, choices...)
	}

	geo := store.AddCategory("Geography")
	store.AddQuestion(geo.ID, "Capital of France?", true,
		domain.Choice{Description: "Paris", IsCorrect: true},
		domain.Choice{Description: "Lyon"},
		domain.Choice{Description: "Marseille"},
	)
	return store
}
