package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"paintflow/core"
	"paintflow/db"
	"paintflow/ideas"
	"paintflow/imagegen"
	"paintflow/logging"
	"paintflow/pipeline"
	"paintflow/shutdown"
	"paintflow/webui"
	"paintflow/webui/auth"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Use fmt here since the logger isn't initialized yet
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	isDevelopment := core.GetEnvOrDefault("APP_ENV", "development") != "production"

	logger, err := logging.NewLogger(isDevelopment, core.GetEnvOrDefault("LOG_FILE", "paintflow.log"))
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		return core.ExitCodeError
	}
	defer logger.Sync()

	config, err := core.LoadConfig()
	if err != nil {
		logger.Error("Failed to load configuration", zap.Error(err))
		return core.ExitCodeError
	}

	logger.Info("Configuration loaded",
		zap.String("concept_model", config.OpenRouterModel),
		zap.String("image_model", config.ImageModel),
		zap.String("image_size", config.ImageSize),
		zap.Int("max_concurrent", config.MaxConcurrent),
		zap.Int("default_quantity", config.DefaultQuantity),
		zap.Duration("ai_timeout", config.AITimeout),
		zap.String("db_path", config.DBPath),
		zap.Int("port", config.Port),
		zap.Bool("dev_mode", isDevelopment),
	)

	// Open the database and bring the schema up to date
	database, err := db.NewDatabase(config.DBPath, migrationsURL(config.MigrationsPath))
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))
		return core.ExitCodeError
	}

	if err := database.Migrate(); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return core.ExitCodeError
	}

	// Repositories
	users := db.NewUserRepository(database)
	titles := db.NewTitleRepository(database)
	refs := db.NewReferenceRepository(database)
	ideaRepo := db.NewIdeaRepository(database)
	paintings := db.NewPaintingRepository(database)

	// Generation pipeline
	generator := ideas.NewGenerator(config, ideaRepo, logger)

	provider, err := imagegen.NewOpenAIProvider(config)
	if err != nil {
		logger.Error("Failed to create image provider", zap.Error(err))
		return core.ExitCodeError
	}

	renderer, err := imagegen.NewRenderer(provider, imagegen.NewDownloader(), paintings, config.UploadsDir, logger)
	if err != nil {
		logger.Error("Failed to create renderer", zap.Error(err))
		return core.ExitCodeError
	}

	dispatcher := pipeline.NewDispatcher(renderer, config.MaxConcurrent, logger,
		pipeline.WithRenderTimeout(config.RenderTimeout))
	coordinator := pipeline.NewCoordinator(
		generator, dispatcher,
		titles, refs, ideaRepo, paintings,
		config.DefaultQuantity, config.MaxQuantity,
		logger,
	)

	manager := shutdown.NewManager(logger)
	manager.Start()
	ctx := manager.Context()

	// Auth surface
	sessions := webui.NewSessionStore(config.SessionTTL)
	sessions.StartCleanupTicker(ctx, config.SessionTTL/4)
	limiter := webui.NewRateLimiter(core.DefaultMaxAttempts, core.DefaultRateLimitWindow)
	limiter.StartCleanupTicker(ctx, core.DefaultRateLimitWindow)
	middleware := auth.NewMiddleware(sessions, logger)
	authHandlers := auth.NewHandlers(users, sessions, limiter, logger)

	// HTTP server
	serverConfig := webui.DefaultServerConfig()
	serverConfig.Port = config.Port
	serverConfig.UploadsDir = config.UploadsDir

	server := webui.NewServer(
		serverConfig,
		middleware,
		func(mux *http.ServeMux) { authHandlers.RegisterRoutes(mux, middleware) },
		[]webui.RouteRegistrar{
			webui.NewTitlesAPI(titles, logger),
			webui.NewReferencesAPI(refs, titles, logger),
			webui.NewPaintingsAPI(coordinator, paintings, refs, logger),
		},
		logger,
	)

	manager.Register("http-server", 10, func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})
	manager.Register("database", 30, func(ctx context.Context) error {
		return database.Close()
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	exitCode := core.ExitCodeSuccess
	select {
	case <-ctx.Done():
		exitCode = manager.ExitCode()
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
			exitCode = core.ExitCodeError
		}
	}

	if err := manager.Shutdown(); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
		if exitCode == core.ExitCodeSuccess {
			exitCode = core.ExitCodeError
		}
	}

	logger.Info("Goodbye!")
	return exitCode
}

// migrationsURL turns a filesystem path into the file:// source URL
// golang-migrate expects.
func migrationsURL(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	return "file://" + strings.TrimPrefix(path, "./")
}
