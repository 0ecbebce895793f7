package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"postservice/internal/cache"
	"postservice/internal/config"
	"postservice/internal/database"
	"postservice/internal/handler"
	"postservice/internal/queue"
	redisclient "postservice/internal/redis"
	"postservice/internal/repository"
	"postservice/internal/service"
	"postservice/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	// 3. Repositories
	tx := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	upvoteRepo := repository.NewUpvoteRepository(db)

	// 4. Feed pipeline (optional)
	var (
		feedCache cache.FeedCache
		publisher queue.Publisher = queue.NopPublisher{}
		manager   *worker.Manager
	)
	if cfg.RedisURL != "" {
		rdb, err := redisclient.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()

		feedCache = cache.NewFeedCache(rdb.Client)
		publisher = queue.NewPublisher(rdb.Client)

		managerCfg := worker.DefaultManagerConfig()
		managerCfg.WorkerCount = cfg.FeedWorkers
		manager = worker.NewManager(
			queue.NewConsumer(rdb.Client),
			worker.NewHandler(feedCache, followRepo, postRepo),
			managerCfg,
		)
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start feed workers: %w", err)
		}
		defer manager.Stop()
	} else {
		log.Println("REDIS_URL not set, feed is served from PostgreSQL")
	}

	// 5. Object storage (optional)
	var (
		assets    service.AssetResolver = service.PublicURLResolver{BaseURL: cfg.R2PublicURL}
		pictures  service.PictureStore
		presigner handler.MediaService
	)
	if cfg.StorageConfigured() {
		media, err := service.NewMediaService(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to init media service: %w", err)
		}
		assets, pictures, presigner = media, media, media
	} else {
		log.Println("R2 storage not configured, uploads are disabled")
	}

	// 6. Services
	paginator := service.NewPaginator(cfg.PageSize, cfg.MaxPageSize)
	postService := service.NewPostService(postRepo, commentRepo, publisher, assets, paginator)
	engagementService := service.NewEngagementService(tx, postRepo, upvoteRepo, commentRepo, assets)
	followService := service.NewFollowService(tx, profileRepo, followRepo, publisher)
	feedService := service.NewFeedService(feedCache, postRepo, followRepo, assets)
	userService := service.NewUserService(service.UserServiceDeps{
		Tx:          tx,
		UserRepo:    userRepo,
		ProfileRepo: profileRepo,
		FollowRepo:  followRepo,
		PostRepo:    postRepo,
		UpvoteRepo:  upvoteRepo,
		Publisher:   publisher,
		Pictures:    pictures,
		Assets:      assets,
		Paginator:   paginator,
	})

	// 7. Setup Server
	router := NewRouter(RouterConfig{
		PostHandler:       handler.NewPostHandler(postService),
		EngagementHandler: handler.NewEngagementHandler(engagementService),
		UserHandler:       handler.NewUserHandler(userService, followService),
		FeedHandler:       handler.NewFeedHandler(feedService),
		MediaHandler:      handler.NewMediaHandler(presigner),
		Accounts:          userService,
		JWTSecret:         cfg.JWTSecret,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
