package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hajjtrust/agency-assistant/internal/domain/entities"
)

// memoryCache is an in-process CacheProvider for tests.
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
	fail bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return nil, errors.New("cache down")
	}
	value, ok := m.data[key]
	if !ok {
		return nil, errors.New("key not found")
	}
	return value, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("cache down")
	}
	m.data[key] = value
	return nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memoryCache) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func TestSessionService_WindowLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("empty session yields an empty window", func(t *testing.T) {
		svc := NewSessionService(newMemoryCache(), 10, 500, 3600)
		assert.Empty(t, svc.Window(ctx, "s1"))
	})

	t.Run("appended turns come back in order", func(t *testing.T) {
		svc := NewSessionService(newMemoryCache(), 10, 500, 3600)
		svc.AppendTurn(ctx, "s1", "first question", "first answer")
		svc.AppendTurn(ctx, "s1", "second question", "second answer")

		window := svc.Window(ctx, "s1")
		require.Len(t, window, 4)
		assert.Equal(t, entities.ContextRoleUser, window[0].Role)
		assert.Equal(t, "first question", window[0].Content)
		assert.Equal(t, "second answer", window[3].Content)
	})

	t.Run("window is trimmed to the configured turn count", func(t *testing.T) {
		svc := NewSessionService(newMemoryCache(), 2, 500, 3600)
		for i := 0; i < 5; i++ {
			svc.AppendTurn(ctx, "s1", "question", "answer")
		}
		assert.Len(t, svc.Window(ctx, "s1"), 4)
	})

	t.Run("messages are capped at the rune limit", func(t *testing.T) {
		svc := NewSessionService(newMemoryCache(), 10, 20, 3600)
		svc.AppendTurn(ctx, "s1", strings.Repeat("ش", 100), "short")

		window := svc.Window(ctx, "s1")
		require.Len(t, window, 2)
		assert.Len(t, []rune(window[0].Content), 20)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		svc := NewSessionService(newMemoryCache(), 10, 500, 3600)
		svc.AppendTurn(ctx, "s1", "about makkah", "answer")
		assert.Empty(t, svc.Window(ctx, "s2"))
	})

	t.Run("clear drops the window", func(t *testing.T) {
		svc := NewSessionService(newMemoryCache(), 10, 500, 3600)
		svc.AppendTurn(ctx, "s1", "question", "answer")
		svc.Clear(ctx, "s1")
		assert.Empty(t, svc.Window(ctx, "s1"))
	})

	t.Run("cache failure degrades to an empty window", func(t *testing.T) {
		cache := newMemoryCache()
		cache.fail = true
		svc := NewSessionService(cache, 10, 500, 3600)
		svc.AppendTurn(ctx, "s1", "question", "answer")
		assert.Empty(t, svc.Window(ctx, "s1"))
	})
}
