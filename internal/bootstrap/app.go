package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"box3-backend/internal/llm"
	openai "box3-backend/internal/llm/openai"
	"box3-backend/internal/queue"
	"box3-backend/internal/reportversions"
	"box3-backend/internal/reviews"
	"box3-backend/internal/shared/config"
	"box3-backend/internal/shared/server"
	"box3-backend/internal/shared/storage/db"
	"box3-backend/internal/shared/storage/object"
	localstore "box3-backend/internal/shared/storage/object/local"
	s3store "box3-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies for the API, the worker and the Lambda entrypoints.
type App struct {
	Config               config.Config
	Router               *gin.Engine
	DB                   *sql.DB
	Store                object.ObjectStore
	Queue                queue.Client
	LLM                  llm.Client
	ReviewsRepo          reviews.Repo
	ReportVersionsRepo   reportversions.Repo
	Reviews              *reviews.Service
	ReportVersions       *reportversions.Service
	ReviewHandler        *reviews.Handler
	ReportVersionHandler *reportversions.Handler
}

// Build wires config, storage, queue, LLM client, services and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	llmClient, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
		LLM:    llmClient,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:               app.Config,
		DB:                   app.DB,
		ReviewHandler:        app.ReviewHandler,
		ReportVersionHandler: app.ReportVersionHandler,
	})

	return app, nil
}

// Close releases the database pool unless it is the shared Lambda singleton.
func (a *App) Close() {
	if a == nil || a.DB == nil || db.IsLambdaRuntime() {
		return
	}
	if err := a.DB.Close(); err != nil {
		log.Printf("bootstrap: close database: %v", err)
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	// Dev databases are migrated on start; deployed ones go through cmd/migrate.
	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildQueue returns nil when no queue is configured; reviews then apply inline.
func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.FeedbackQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.FeedbackQueueURL, cfg.AWSRegion)
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	if cfg.LLMProvider != "openai" {
		return llm.PlaceholderClient{}, nil
	}
	client, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), cfg.LLMModel)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: openai client unavailable; AI endpoints disabled: %v", err)
			return llm.PlaceholderClient{}, nil
		}
		return nil, err
	}
	return client, nil
}

func buildServices(app *App) {
	var reviewRepo reviews.Repo
	var versionRepo reportversions.Repo

	if app.DB != nil {
		reviewRepo = &reviews.PGRepo{DB: app.DB}
		versionRepo = &reportversions.PGRepo{DB: app.DB}
	} else {
		reviewRepo = reviews.NewMemoryRepo()
		versionRepo = reportversions.NewMemoryRepo()
	}

	versionSvc := &reportversions.Service{
		Repo:  versionRepo,
		Store: app.Store,
	}
	reviewSvc := &reviews.Service{
		Repo:     reviewRepo,
		Versions: versionSvc,
		LLM:      app.LLM,
		Queue:    app.Queue,
	}

	app.ReviewsRepo = reviewRepo
	app.ReportVersionsRepo = versionRepo
	app.ReportVersions = versionSvc
	app.Reviews = reviewSvc
	app.ReviewHandler = reviews.NewHandler(reviewSvc)
	app.ReportVersionHandler = reportversions.NewHandler(versionSvc)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
