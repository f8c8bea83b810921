package container

import (
	"context"
	"fmt"

	"github.com/opencode-cafe/marketplace/cmd/marketplace/repository"
	"github.com/opencode-cafe/marketplace/cmd/marketplace/service"
	"github.com/opencode-cafe/marketplace/common/bootstrap"
	"github.com/opencode-cafe/marketplace/common/clients"
	"github.com/opencode-cafe/marketplace/common/ratelimit"
	rediscommon "github.com/opencode-cafe/marketplace/common/redis"
	"github.com/redis/go-redis/v9"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components
	Redis      *rediscommon.Client
	Limiter    *ratelimit.Limiter

	// Repositories
	ExtensionRepo *repository.ExtensionRepository
	CommentRepo   *repository.CommentRepository
	LikeRepo      *repository.CommentLikeRepository

	// Services
	ExtensionService *service.ExtensionService
	CommentService   *service.CommentService
	FeedService      *service.FeedService
	Dispatcher       *service.Dispatcher
}

// NewContainer initializes all services and repositories once
func NewContainer(ctx context.Context, components *bootstrap.Components) (*Container, error) {
	cfg := components.Config
	log := components.Logger

	redisRaw := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	redisClient := rediscommon.NewClient(redisRaw, log)
	if err := redisClient.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	limiter := ratelimit.NewLimiter(redisRaw, log)

	// Initialize repositories
	extensionRepo := repository.NewExtensionRepository(components.DB)
	commentRepo := repository.NewCommentRepository(components.DB)
	likeRepo := repository.NewCommentLikeRepository(components.DB)

	// Notification pipeline: services publish events, the dispatcher
	// consumes them and delivers email out of band
	notifier := service.NewQueueNotifier(components.Queue, cfg.Email.AdminEmail, log)

	var sender clients.EmailSender
	if cfg.Email.Enabled {
		sender = clients.NewEmailClient(cfg.Email.Endpoint, cfg.Email.APIKey, cfg.Email.From, log)
	} else {
		sender = clients.NewNoopEmailSender(log)
	}

	dispatcher := service.NewDispatcher(sender, log)
	if err := dispatcher.Start(ctx, components.Queue); err != nil {
		return nil, fmt.Errorf("failed to start notification dispatcher: %w", err)
	}

	// Initialize services (bottom-up: dependencies first)
	screener := service.NewScreener(cfg.Screening.Rules, log)

	extensionService := service.NewExtensionService(
		extensionRepo,
		screener,
		notifier,
		components.Cache,
		cfg.Cache.DefaultTTL,
		cfg.Review.ResubmitOnEdit,
		log,
	)

	commentService := service.NewCommentService(
		commentRepo,
		likeRepo,
		extensionRepo,
		limiter,
		cfg.RateLimit.CommentLimit,
		cfg.RateLimit.CommentWindow,
		notifier,
		log,
	)

	feedService := service.NewFeedService(
		extensionRepo,
		cfg.Feed.Title,
		cfg.Service.BaseURL,
		cfg.Feed.Limit,
	)

	return &Container{
		Components:       components,
		Redis:            redisClient,
		Limiter:          limiter,
		ExtensionRepo:    extensionRepo,
		CommentRepo:      commentRepo,
		LikeRepo:         likeRepo,
		ExtensionService: extensionService,
		CommentService:   commentService,
		FeedService:      feedService,
		Dispatcher:       dispatcher,
	}, nil
}

// Close releases container-owned resources
func (c *Container) Close() error {
	return c.Redis.Close()
}
