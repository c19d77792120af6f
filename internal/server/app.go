// Package server wires the NeuroResume backend together: logging, the
// Postgres pool and migrations, answer generator and renderer providers,
// artifact storage, services and the HTTP API. It also runs the background
// purge of expired revoked tokens and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/neuroresume/internal/logging"
	"github.com/dmitrijs2005/neuroresume/internal/server/blobstore"
	"github.com/dmitrijs2005/neuroresume/internal/server/config"
	"github.com/dmitrijs2005/neuroresume/internal/server/gemini"
	"github.com/dmitrijs2005/neuroresume/internal/server/generator"
	"github.com/dmitrijs2005/neuroresume/internal/server/httpapi"
	"github.com/dmitrijs2005/neuroresume/internal/server/pagination"
	"github.com/dmitrijs2005/neuroresume/internal/server/renderer"
	"github.com/dmitrijs2005/neuroresume/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/neuroresume/internal/server/services"
	"github.com/gin-gonic/gin"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	userService *services.UserService
	server      *httpapi.HTTPServer
	closers     []func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := logging.New(os.Stdout, logging.Options{
		Backend: c.LogBackend,
		Level:   c.LogLevel,
		Format:  c.LogFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &App{config: c, logger: logger}
	if err := app.init(ctx); err != nil {
		_ = app.close()
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db open error: %w", err)
	}
	app.db = db
	app.closers = append(app.closers, db.Close)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	gen, err := app.newGenerator(ctx)
	if err != nil {
		return err
	}
	rend, err := app.newRenderer(ctx)
	if err != nil {
		return err
	}
	blobs, err := app.newBlobStore(ctx)
	if err != nil {
		return err
	}

	policy := pagination.Policy{DefaultPageSize: c.DefaultPageSize, MaxPageSize: c.MaxPageSize}

	app.userService = services.NewUserService(db, rm, c)
	completion := services.NewCompletionService(db, rm, rend, blobs, c.UpstreamTimeout, app.logger)
	svc := httpapi.Services{
		Users:      app.userService,
		Sessions:   services.NewSessionService(db, rm, blobs, policy, app.logger),
		Messages:   services.NewMessageService(db, rm, gen, c.UpstreamTimeout),
		Completion: completion,
		Artifacts:  services.NewArtifactService(db, rm, completion, policy),
	}

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(svc, httpapi.RouterConfig{Prefix: c.APIPrefix, CORSOrigins: c.CORSOrigins}, app.logger)
	app.server = httpapi.NewHTTPServer(c.HTTPAddr, app.logger, router, c.ShutdownTimeout)

	return nil
}

func (app *App) geminiClient(ctx context.Context, systemInstruction string) (*gemini.Client, error) {
	client, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:     app.config.GeminiAPIKey,
		ModelName:  app.config.GeminiModel,
		MaxRetries: 3,
		RetryDelay: time.Second,
	}, systemInstruction, app.logger)
	if err != nil {
		return nil, fmt.Errorf("gemini init error: %w", err)
	}
	app.closers = append(app.closers, client.Close)
	return client, nil
}

func (app *App) newGenerator(ctx context.Context) (generator.Generator, error) {
	if app.config.GeneratorProvider != config.GeneratorGemini {
		return generator.NewBuiltin(), nil
	}
	client, err := app.geminiClient(ctx, generator.SystemInstruction)
	if err != nil {
		return nil, err
	}
	return generator.NewGemini(client), nil
}

func (app *App) newRenderer(ctx context.Context) (renderer.Renderer, error) {
	if app.config.RendererProvider != config.RendererGemini {
		return renderer.NewHeuristic(), nil
	}
	client, err := app.geminiClient(ctx, renderer.SystemInstruction)
	if err != nil {
		return nil, err
	}
	return renderer.NewGemini(client), nil
}

func (app *App) newBlobStore(ctx context.Context) (blobstore.Store, error) {
	c := app.config
	if c.ArtifactStorage != config.StorageS3 {
		return blobstore.NewPostgresStore(app.db), nil
	}
	store, err := blobstore.NewS3Store(ctx, blobstore.S3Config{
		Region:        c.S3Region,
		AccessKey:     c.S3RootUser,
		SecretKey:     c.S3RootPassword,
		Bucket:        c.S3Bucket,
		BaseEndpoint:  c.S3BaseEndpoint,
		PresignExpiry: c.S3PresignExpiry,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 init error: %w", err)
	}
	return store, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server error", "error", err)
		cancelFunc()
	}
}

// purgeRevokedTokens drops expired denylist entries every interval until
// ctx is done.
func (app *App) purgeRevokedTokens(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.userService.PurgeRevoked(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					app.logger.Warn(ctx, "revoked token purge failed", "error", err)
				}
				continue
			}
			if n > 0 {
				app.logger.Debug(ctx, "purged revoked tokens", "count", n)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.purgeRevokedTokens(ctx, app.config.RevokedTokensPurgeInterval)
	}()

	wg.Wait()

	if err := app.close(); err != nil {
		app.logger.Error(ctx, "shutdown error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}

func (app *App) close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		errs = append(errs, app.closers[i]())
	}
	app.closers = nil
	return errors.Join(errs...)
}
