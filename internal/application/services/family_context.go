package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/ports"
)

const familyContextCacheKey = "family-context"

// FamilyContextProvider assembles the household snapshot the interpreters
// work against: members, upcoming events and pending tasks.
type FamilyContextProvider struct {
	store      ports.Store
	cache      ports.CacheRepository
	cacheTTL   time.Duration
	eventLimit int
	logger     *logger.Logger
	now        Clock
}

// NewFamilyContextProvider creates a provider. cache may be nil.
func NewFamilyContextProvider(store ports.Store, cache ports.CacheRepository, cacheTTL time.Duration, eventLimit int, logger *logger.Logger, clock Clock) *FamilyContextProvider {
	if eventLimit <= 0 {
		eventLimit = 10
	}
	return &FamilyContextProvider{
		store:      store,
		cache:      cache,
		cacheTTL:   cacheTTL,
		eventLimit: eventLimit,
		logger:     logger.WithComponent("family_context"),
		now:        clock.orNow(),
	}
}

// GetFamilyContext returns the current snapshot, from cache when fresh
func (p *FamilyContextProvider) GetFamilyContext(ctx context.Context) (*ports.FamilyContext, error) {
	if p.cache != nil {
		var cached ports.FamilyContext
		err := p.cache.Get(ctx, familyContextCacheKey, &cached)
		switch {
		case err == nil:
			return &cached, nil
		case !errors.Is(err, ports.ErrCacheMiss):
			p.logger.Warnw("Family context cache read failed", "error", err)
		}
	}

	fc, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, familyContextCacheKey, fc, p.cacheTTL); err != nil {
			p.logger.Warnw("Family context cache write failed", "error", err)
		}
	}

	return fc, nil
}

// Invalidate drops the cached snapshot after a write
func (p *FamilyContextProvider) Invalidate(ctx context.Context) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Delete(ctx, familyContextCacheKey); err != nil {
		p.logger.Warnw("Family context cache invalidation failed", "error", err)
	}
}

func (p *FamilyContextProvider) load(ctx context.Context) (*ports.FamilyContext, error) {
	now := p.now()
	fc := &ports.FamilyContext{GeneratedAt: now}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		members, err := p.store.Members().List(gCtx)
		if err != nil {
			return fmt.Errorf("load family members: %w", err)
		}
		fc.Members = members
		return nil
	})

	g.Go(func() error {
		events, err := p.store.Events().List(gCtx, ports.EventFilter{From: &now, Limit: p.eventLimit})
		if err != nil {
			return fmt.Errorf("load upcoming events: %w", err)
		}
		fc.UpcomingEvents = events
		return nil
	})

	g.Go(func() error {
		tasks, err := p.store.Tasks().List(gCtx, ports.TaskFilter{Pending: true})
		if err != nil {
			return fmt.Errorf("load pending tasks: %w", err)
		}
		fc.PendingTasks = tasks
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if fc.Members == nil {
		fc.Members = []*entities.FamilyMember{}
	}
	return fc, nil
}

// Watch wraps store so that member, task and event writes drop the cached
// snapshot. Reads pass straight through.
func (p *FamilyContextProvider) Watch(store ports.Store) ports.Store {
	return &watchedStore{Store: store, provider: p}
}

type watchedStore struct {
	ports.Store
	provider *FamilyContextProvider
}

func (s *watchedStore) Members() ports.FamilyMemberRepository {
	return &watchedMembers{FamilyMemberRepository: s.Store.Members(), provider: s.provider}
}

func (s *watchedStore) Tasks() ports.TaskRepository {
	return &watchedTasks{TaskRepository: s.Store.Tasks(), provider: s.provider}
}

func (s *watchedStore) Events() ports.EventRepository {
	return &watchedEvents{EventRepository: s.Store.Events(), provider: s.provider}
}

// invalidated drops the snapshot when a write succeeded
func (p *FamilyContextProvider) invalidated(ctx context.Context, err error) error {
	if err == nil {
		p.Invalidate(ctx)
	}
	return err
}

type watchedMembers struct {
	ports.FamilyMemberRepository
	provider *FamilyContextProvider
}

func (r *watchedMembers) Create(ctx context.Context, member *entities.FamilyMember) error {
	return r.provider.invalidated(ctx, r.FamilyMemberRepository.Create(ctx, member))
}

func (r *watchedMembers) Delete(ctx context.Context, id int64) error {
	return r.provider.invalidated(ctx, r.FamilyMemberRepository.Delete(ctx, id))
}

type watchedTasks struct {
	ports.TaskRepository
	provider *FamilyContextProvider
}

func (r *watchedTasks) Create(ctx context.Context, task *entities.Task) error {
	return r.provider.invalidated(ctx, r.TaskRepository.Create(ctx, task))
}

func (r *watchedTasks) Update(ctx context.Context, task *entities.Task) error {
	return r.provider.invalidated(ctx, r.TaskRepository.Update(ctx, task))
}

type watchedEvents struct {
	ports.EventRepository
	provider *FamilyContextProvider
}

func (r *watchedEvents) Create(ctx context.Context, event *entities.Event) error {
	return r.provider.invalidated(ctx, r.EventRepository.Create(ctx, event))
}

func (r *watchedEvents) Update(ctx context.Context, event *entities.Event) error {
	return r.provider.invalidated(ctx, r.EventRepository.Update(ctx, event))
}

func (r *watchedEvents) Delete(ctx context.Context, id int64) error {
	return r.provider.invalidated(ctx, r.EventRepository.Delete(ctx, id))
}
