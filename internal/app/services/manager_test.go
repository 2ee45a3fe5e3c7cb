package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacktogon/ringcam/internal/logger"
)

type journal struct {
	events []string
	mu     sync.Mutex
}

func (j *journal) add(e string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, e)
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

type fakeService struct {
	journal  *journal
	startErr error
	name     string
	deps     []string
}

func (f *fakeService) Name() string           { return f.name }
func (f *fakeService) Dependencies() []string { return f.deps }

func (f *fakeService) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.journal.add("start:" + f.name)
	return nil
}

func (f *fakeService) Stop(ctx context.Context) error {
	f.journal.add("stop:" + f.name)
	return nil
}

func createTestLogger() logger.StyledLogger {
	log, _, _ := logger.New(&logger.Config{Level: "error", Theme: "default"})
	return logger.NewPlainStyledLogger(log)
}

func TestServiceManager_StartsInDependencyOrder(t *testing.T) {
	j := &journal{}
	sm := NewServiceManager(createTestLogger())

	require.NoError(t, sm.Register(&fakeService{journal: j, name: "http", deps: []string{"capture", "security"}}))
	require.NoError(t, sm.Register(&fakeService{journal: j, name: "capture", deps: []string{"buffer"}}))
	require.NoError(t, sm.Register(&fakeService{journal: j, name: "buffer", deps: []string{"stats"}}))
	require.NoError(t, sm.Register(&fakeService{journal: j, name: "security", deps: []string{"stats"}}))
	require.NoError(t, sm.Register(&fakeService{journal: j, name: "stats"}))

	require.NoError(t, sm.Start(context.Background()))

	started := j.all()
	require.Len(t, started, 5)
	index := func(e string) int {
		for i, v := range started {
			if v == e {
				return i
			}
		}
		return -1
	}
	assert.Equal(t, "start:stats", started[0])
	assert.Less(t, index("start:buffer"), index("start:capture"))
	assert.Less(t, index("start:security"), index("start:http"))
	assert.Equal(t, "start:http", started[4])

	require.NoError(t, sm.Stop(context.Background()))
	stopped := j.all()[5:]
	assert.Equal(t, "stop:http", stopped[0])
	assert.Equal(t, "stop:stats", stopped[4])
}

func TestServiceManager_StableOrder(t *testing.T) {
	var first []string
	for range 5 {
		sm := NewServiceManager(createTestLogger())
		for _, name := range []string{"d", "a", "c", "b"} {
			require.NoError(t, sm.Register(&fakeService{journal: &journal{}, name: name}))
		}
		order, err := sm.resolveDependencies()
		require.NoError(t, err)
		if first == nil {
			first = order
			continue
		}
		assert.Equal(t, first, order)
	}
}

func TestServiceManager_RollsBackOnFailure(t *testing.T) {
	j := &journal{}
	sm := NewServiceManager(createTestLogger())
	boom := errors.New("boom")

	require.NoError(t, sm.Register(&fakeService{journal: j, name: "stats"}))
	require.NoError(t, sm.Register(&fakeService{journal: j, name: "buffer", deps: []string{"stats"}}))
	require.NoError(t, sm.Register(&fakeService{journal: j, name: "capture", deps: []string{"buffer"}, startErr: boom}))

	err := sm.Start(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"start:stats", "start:buffer", "stop:buffer", "stop:stats"}, j.all())
}

func TestServiceManager_RejectsBadGraphs(t *testing.T) {
	t.Run("duplicate", func(t *testing.T) {
		sm := NewServiceManager(createTestLogger())
		require.NoError(t, sm.Register(&fakeService{journal: &journal{}, name: "stats"}))
		assert.Error(t, sm.Register(&fakeService{journal: &journal{}, name: "stats"}))
	})

	t.Run("missing dependency", func(t *testing.T) {
		sm := NewServiceManager(createTestLogger())
		require.NoError(t, sm.Register(&fakeService{journal: &journal{}, name: "http", deps: []string{"capture"}}))
		assert.ErrorContains(t, sm.Start(context.Background()), "unregistered capture")
	})

	t.Run("cycle", func(t *testing.T) {
		sm := NewServiceManager(createTestLogger())
		require.NoError(t, sm.Register(&fakeService{journal: &journal{}, name: "a", deps: []string{"b"}}))
		require.NoError(t, sm.Register(&fakeService{journal: &journal{}, name: "b", deps: []string{"a"}}))
		assert.ErrorContains(t, sm.Start(context.Background()), "circular")
	})
}

func TestServiceRegistry_TypedLookup(t *testing.T) {
	r := NewServiceRegistry()
	stats := NewStatsService(createTestLogger())
	r.Register(ServiceStats, stats)
	r.Register(ServiceBuffer, &fakeService{name: ServiceBuffer})

	got, err := r.GetStats()
	require.NoError(t, err)
	assert.Same(t, stats, got)

	_, err = r.GetBuffer()
	assert.Error(t, err)

	_, err = r.GetHTTP()
	assert.ErrorContains(t, err, "not found")
}
