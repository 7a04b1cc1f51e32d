package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/familyhub/core/internal/adapters/ai"
	"github.com/familyhub/core/internal/adapters/cache"
	"github.com/familyhub/core/internal/adapters/notify"
	"github.com/familyhub/core/internal/adapters/repository"
	"github.com/familyhub/core/internal/application/services"
	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/domain/voice"
	"github.com/familyhub/core/internal/infrastructure/config"
	"github.com/familyhub/core/internal/infrastructure/database"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/infrastructure/metrics"
	"github.com/familyhub/core/internal/infrastructure/server"
	"github.com/familyhub/core/internal/ports"
)

// application holds every long-lived collaborator of the serve command
type application struct {
	cfg           *config.Config
	logger        *logger.Logger
	loc           *time.Location
	db            *database.DB
	redis         *redis.Client
	deps          server.Dependencies
	notifications *services.NotificationService
}

// openStore selects the storage backend named by the configuration. db is
// nil for the memory driver.
func openStore(cfg *config.Config) (ports.Store, *database.DB, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := database.New(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPostgresStore(db.DB), db, nil
	default:
		return repository.NewMemoryStore(), nil, nil
	}
}

func newApplication(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (*application, error) {
	loc, err := cfg.Voice.Location()
	if err != nil {
		return nil, fmt.Errorf("resolve voice timezone: %w", err)
	}

	app := &application{cfg: cfg, logger: appLogger, loc: loc}

	store, db, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	app.db = db

	checks := make(map[string]server.HealthCheck)
	if db != nil {
		checks["database"] = db.HealthCheck
	}

	var contextCache ports.CacheRepository
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.redis = client
		redisCache := cache.NewRedisCache(client, "familyhub")
		contextCache = redisCache
		checks["redis"] = redisCache.Ping
	}

	chat, err := ai.NewChatClient(cfg.AI)
	if err != nil {
		app.Close()
		return nil, err
	}
	if !chat.Enabled() {
		appLogger.Warnw("OPENAI_API_KEY not set, voice commands fall back to rules only")
	}

	router := notify.NewRouter(notify.NewLogDeliverer(appLogger))
	ses, err := notify.NewSESDeliverer(ctx, cfg.Notifications, appLogger)
	if err != nil {
		app.Close()
		return nil, err
	}
	if ses != nil {
		router.Handle(entities.DeliveryEmail, ses)
	}

	m := metrics.New()

	extractor := voice.NewExtractor(voice.ExtractorConfig{
		DefaultAssigneeID: cfg.Voice.DefaultAssigneeID,
		DefaultHour:       cfg.Voice.DefaultHour,
		DefaultMinute:     cfg.Voice.DefaultMinute,
		EventDuration:     cfg.Voice.DefaultEventDuration,
	})
	aiInterpreter := services.NewAIInterpreter(chat, loc, m, appLogger, nil)

	contexts := services.NewFamilyContextProvider(store, contextCache, cfg.Redis.ContextTTL, cfg.Voice.ContextEventLimit, appLogger, nil)
	store = contexts.Watch(store)

	app.notifications = services.NewNotificationService(store.Notifications(), store.Members(), router, m, appLogger, nil)

	interpreter := services.NewFallbackChain(appLogger, services.NewRuleInterpreter(extractor, loc, nil), aiInterpreter)
	materializer := services.NewMaterializer(store, services.MaterializerConfig{
		DefaultAssigneeID: cfg.Voice.DefaultAssigneeID,
		EventDuration:     cfg.Voice.DefaultEventDuration,
	}, m, appLogger, nil)

	app.deps = server.Dependencies{
		Store:         store,
		DB:            db,
		Checks:        checks,
		Metrics:       m,
		Location:      loc,
		Members:       services.NewMemberService(store.Members(), appLogger),
		Tasks:         services.NewTaskService(store.Tasks(), appLogger, nil),
		Events:        services.NewEventService(store.Events(), appLogger, nil),
		Deadlines:     services.NewDeadlineService(store.Deadlines(), appLogger, nil),
		VoiceNotes:    services.NewVoiceNoteService(store.VoiceNotes(), appLogger, nil),
		Notifications: app.notifications,
		Voice: services.NewVoiceService(services.VoiceServiceDeps{
			Contexts:     contexts,
			Interpreter:  interpreter,
			Materializer: materializer,
			Suggester:    aiInterpreter,
			Extractor:    extractor,
			Location:     loc,
			Metrics:      m,
			Logger:       appLogger,
		}),
	}

	return app, nil
}

// Close releases connections opened by newApplication
func (a *application) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warnw("Closing redis failed", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warnw("Closing database failed", "error", err)
		}
	}
}
