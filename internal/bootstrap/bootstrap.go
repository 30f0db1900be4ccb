package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/blindgrade/blindgrade/internal/app/controllers"
	"github.com/blindgrade/blindgrade/internal/app/migrations"
	"github.com/blindgrade/blindgrade/internal/app/repositories"
	approutes "github.com/blindgrade/blindgrade/internal/app/routes"
	"github.com/blindgrade/blindgrade/internal/app/services"
	"github.com/blindgrade/blindgrade/internal/config"
	"github.com/blindgrade/blindgrade/internal/db"
	"github.com/blindgrade/blindgrade/internal/middleware"
	"github.com/blindgrade/blindgrade/internal/pkg/auth"
	"github.com/blindgrade/blindgrade/internal/pkg/helpers"
	"github.com/blindgrade/blindgrade/internal/pkg/logger"
	"github.com/blindgrade/blindgrade/internal/seed"
)

// Dependencies holds the wired application components
type Dependencies struct {
	Config       *config.Config
	Repositories *repositories.Repositories
	Services     *services.Services
	JWTService   *auth.JWTService

	AuthController       *controllers.AuthController
	SubjectController    *controllers.SubjectController
	EvaluationController *controllers.EvaluationController
	MatchingController   *controllers.MatchingController
	AuthMiddleware       *middleware.AuthMiddleware
}

// LoadConfigAndSetupLogger loads the configuration file and configures the
// global logger from it
func LoadConfigAndSetupLogger() (*config.Config, error) {
	configPath := config.GetEnv("CONFIG_PATH", "configs/config.yaml")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Configure(logger.Config{
		Level:  logger.LogLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Format == "text",
	})

	logger.Info().Str("mode", cfg.Server.Mode).Msg("Configuration loaded")
	return cfg, nil
}

// SetupDatabase connects to PostgreSQL, applies pending migrations and runs
// the custodian seed
func SetupDatabase(cfg *config.Config) (*db.PostgresDB, error) {
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	migrator := migrations.NewMigrator(database.Pool)
	migrationsDir := config.GetEnv("MIGRATIONS_DIR", "migrations")
	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := seed.SeedCustodian(ctx, repositories.NewRepositories(database.Pool)); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}

	return database, nil
}

// BuildDependencies constructs repositories, services, controllers and
// middleware from the configuration and database connection
func BuildDependencies(cfg *config.Config, database *db.PostgresDB) *Dependencies {
	repos := repositories.NewRepositories(database.Pool)

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	svcs := services.NewServices(repos, database, jwtService)

	return &Dependencies{
		Config:       cfg,
		Repositories: repos,
		Services:     svcs,
		JWTService:   jwtService,

		AuthController:       controllers.NewAuthController(svcs.AuthService),
		SubjectController:    controllers.NewSubjectController(svcs.SubjectService),
		EvaluationController: controllers.NewEvaluationController(svcs.EvaluationService),
		MatchingController:   controllers.NewMatchingController(svcs.MatchingService),
		AuthMiddleware:       middleware.NewAuthMiddleware(jwtService),
	}
}

// SetupRouter builds the gin engine with all routes registered
func SetupRouter(deps *Dependencies) *gin.Engine {
	if deps.Config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	approutes.SetupRouter(
		router,
		deps.AuthController,
		deps.SubjectController,
		deps.EvaluationController,
		deps.MatchingController,
		deps.AuthMiddleware,
	)

	return router
}
