package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/familyhub/core/internal/adapters/repository"
	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/ports"
)

var testNow = time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)

func fixedClock() Clock {
	return func() time.Time { return testNow }
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

// fakeChat is a scripted ChatCompleter
type fakeChat struct {
	mu     sync.Mutex
	reply  string
	err    error
	calls  int
	system string
	user   string
}

func (f *fakeChat) CompleteJSON(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.system = systemPrompt
	f.user = userMessage
	return f.reply, f.err
}

func (f *fakeChat) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// failingTaskStore rejects task writes and delegates everything else
type failingTaskStore struct {
	ports.Store
}

type failingTaskRepo struct {
	ports.TaskRepository
}

func (failingTaskRepo) Create(ctx context.Context, task *entities.Task) error {
	return errors.New("disk full")
}

func (s failingTaskStore) Tasks() ports.TaskRepository {
	return failingTaskRepo{s.Store.Tasks()}
}

func seededStore(names ...string) *repository.MemoryStore {
	store := repository.NewMemoryStore()
	for _, name := range names {
		store.Members().Create(context.Background(), &entities.FamilyMember{Name: name, Role: entities.MemberRoleParent})
	}
	return store
}

// mapCache is an in-process CacheRepository for tests
type mapCache struct {
	mu     sync.Mutex
	values map[string]interface{}
	gets   int
	err    error
}

func newMapCache() *mapCache {
	return &mapCache{values: make(map[string]interface{})}
}

func (c *mapCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.values[key] = value
	return nil
}

func (c *mapCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.err != nil {
		return c.err
	}
	v, ok := c.values[key]
	if !ok {
		return ports.ErrCacheMiss
	}
	*(dest.(*ports.FamilyContext)) = *(v.(*ports.FamilyContext))
	return nil
}

func (c *mapCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}
