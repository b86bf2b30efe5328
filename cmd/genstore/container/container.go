package container

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lyzr/genstore/cmd/genstore/repository"
	"github.com/lyzr/genstore/cmd/genstore/service"
	"github.com/lyzr/genstore/common/bootstrap"
	"github.com/lyzr/genstore/common/diff"
	"github.com/lyzr/genstore/common/events"
	"github.com/lyzr/genstore/common/merge"
	"github.com/lyzr/genstore/common/ratelimit"
	rediscommon "github.com/lyzr/genstore/common/redis"
	"github.com/lyzr/genstore/common/storage"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components
	RedisRaw   *redis.Client // nil when progress events fall back to in-memory

	// Repositories
	ProjectRepo    *repository.ProjectRepository
	GenerationRepo *repository.GenerationRepository
	Ledger         *repository.Ledger

	// Engine
	Store   *storage.Store
	Emitter events.Emitter
	Manager *service.VersionManager

	// Limiter is nil when rate limiting is disabled or Redis is down
	Limiter *ratelimit.Limiter
}

// NewContainer initializes all services and repositories once
func NewContainer(ctx context.Context, components *bootstrap.Components) (*Container, error) {
	cfg := components.Config

	// Progress events go to Redis pub/sub when it is reachable. The engine
	// works without it, so a dev box with no Redis degrades to an
	// in-memory emitter instead of refusing to start.
	var emitter events.Emitter
	redisRaw, err := rediscommon.NewClient(ctx, cfg.RedisAddr(), cfg.Events.RedisPassword, components.Logger)
	if err != nil {
		components.Logger.Warn("redis unreachable, progress events stay in-process", "addr", cfg.RedisAddr(), "error", err)
		emitter = events.NewMemoryEmitter(components.Logger)
		redisRaw = nil
	} else {
		emitter = events.NewRedisEmitter(redisRaw, cfg.Events.ChannelPrefix, components.Logger)
	}

	var limiter *ratelimit.Limiter
	if redisRaw != nil && cfg.RateLimit.Enabled {
		limiter = ratelimit.NewLimiter(redisRaw, components.Logger)
	}

	// Initialize repositories
	projectRepo := repository.NewProjectRepository(components.DB)
	generationRepo := repository.NewGenerationRepository(components.DB)
	ledger := repository.NewLedger(components.DB, projectRepo, generationRepo)

	// Initialize engine (bottom-up: dependencies first)
	store := storage.New(cfg.Storage, components.Logger)
	validator, err := merge.NewValidator(cfg.Merge.WarnExpression)
	if err != nil {
		return nil, fmt.Errorf("invalid merge warn expression: %w", err)
	}

	manager := service.NewVersionManager(
		ledger,
		store,
		diff.NewEngine(),
		merge.NewMerger(components.Logger),
		validator,
		components.Cache,
		emitter,
		components.Logger,
	)

	return &Container{
		Components:     components,
		RedisRaw:       redisRaw,
		ProjectRepo:    projectRepo,
		GenerationRepo: generationRepo,
		Ledger:         ledger,
		Store:          store,
		Emitter:        emitter,
		Manager:        manager,
		Limiter:        limiter,
	}, nil
}

// Shutdown releases container-owned resources. Components are shut down
// separately by bootstrap. The emitter owns the redis connection and
// closes it.
func (c *Container) Shutdown() {
	if err := c.Emitter.Close(); err != nil {
		c.Components.Logger.Warn("failed to close event emitter", "error", err)
	}
}
