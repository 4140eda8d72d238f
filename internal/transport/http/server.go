package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/handler"
	"yatube/internal/logger"
	"yatube/internal/queue"
	"yatube/internal/repository"
	"yatube/internal/service"
	"yatube/internal/telemetry"
	"yatube/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required to verify identity tokens")
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.OTELServiceName)
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	// 2. Connect to Database and bring the schema up to date
	db, err := database.Connect(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db, log); err != nil {
		return err
	}

	// 3. Page cache. Without Redis the index page is simply not cached.
	var pageCache cache.PageCache
	redisClient, err := cache.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn("redis unavailable, page cache disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		pageCache = cache.NewPageCache(redisClient, log)
	}

	images, err := service.NewS3ImageStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to init image store: %w", err)
	}

	// 4. Wire repositories, services and handlers
	tx := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	followRepo := repository.NewFollowRepository(db)

	userService := service.NewUserService(userRepo, log)
	groupService := service.NewGroupService(groupRepo, log)
	followService := service.NewFollowService(tx, followRepo, userRepo, log)
	postService := service.NewPostService(tx, postRepo, groupRepo, commentRepo, images, cfg.MaxImageSizeBytes, log)
	commentService := service.NewCommentService(tx, commentRepo, postRepo, log)
	feedService := service.NewFeedService(postRepo, groupRepo, userRepo, followService, tx, images, cfg.IndexCacheTTL, log)

	// Discarded images are removed by background workers when Redis is up.
	if redisClient != nil {
		postService.SetImageJanitor(queue.NewPublisher(redisClient, log))

		manager := worker.NewManager(
			queue.NewConsumer(redisClient, log),
			worker.NewHandler(images, log),
			worker.DefaultManagerConfig(),
			log,
		)
		if err := manager.Start(ctx); err != nil {
			log.Warn("image workers not started, deleting images inline", zap.Error(err))
			postService.SetImageJanitor(nil)
		} else {
			defer manager.Stop()
		}
	}

	router := NewRouter(RouterConfig{
		FeedHandler:    handler.NewFeedHandler(feedService, pageCache, log),
		GroupHandler:   handler.NewGroupHandler(groupService, log),
		PostHandler:    handler.NewPostHandler(postService, cfg.MaxImageSizeBytes, log),
		CommentHandler: handler.NewCommentHandler(commentService, log),
		FollowHandler:  handler.NewFollowHandler(followService, log),
		IdentityStore:  userService,
		JWTSecret:      cfg.JWTSecret,
		LoginURL:       cfg.LoginURL,
		Logger:         log,
	})

	// 5. Serve until interrupted
	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           telemetry.Middleware(cfg.OTELServiceName)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
