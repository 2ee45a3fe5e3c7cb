package services

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/jacktogon/ringcam/internal/logger"
)

// ManagedService is a unit of the daemon with an explicit start/stop
// lifecycle. Dependencies name the services that must be running first.
type ManagedService interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Dependencies() []string
}

// ServiceManager starts services in dependency order and stops them in
// reverse. A failed start rolls back whatever already came up.
type ServiceManager struct {
	services   map[string]ManagedService
	registry   *ServiceRegistry
	logger     logger.StyledLogger
	startOrder []string
	mu         sync.RWMutex
}

func NewServiceManager(logger logger.StyledLogger) *ServiceManager {
	return &ServiceManager{
		services: make(map[string]ManagedService),
		registry: NewServiceRegistry(),
		logger:   logger,
	}
}

func (sm *ServiceManager) Register(service ManagedService) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	name := service.Name()
	if _, exists := sm.services[name]; exists {
		return fmt.Errorf("service %s already registered", name)
	}

	sm.services[name] = service
	sm.registry.Register(name, service)
	sm.logger.Debug("Service registered", "name", name)
	return nil
}

// resolveDependencies orders services with Kahn's algorithm. Names are
// seeded in sorted order so the result is stable between runs.
func (sm *ServiceManager) resolveDependencies() ([]string, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	dependencies := make(map[string][]string, len(sm.services))
	inDegree := make(map[string]int, len(sm.services))

	for name, service := range sm.services {
		dependencies[name] = service.Dependencies()
		inDegree[name] = 0
	}

	for name, deps := range dependencies {
		for _, dep := range deps {
			if _, exists := sm.services[dep]; !exists {
				return nil, fmt.Errorf("service %s depends on unregistered %s", name, dep)
			}
			inDegree[dep]++
		}
	}

	queue := make([]string, 0, len(inDegree))
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	slices.Sort(queue)

	order := make([]string, 0, len(sm.services))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		deps := slices.Clone(dependencies[current])
		slices.Sort(deps)
		for _, dep := range deps {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) != len(sm.services) {
		return nil, fmt.Errorf("circular dependency detected")
	}

	// dependants were emitted first
	slices.Reverse(order)
	return order, nil
}

func (sm *ServiceManager) Start(ctx context.Context) error {
	order, err := sm.resolveDependencies()
	if err != nil {
		return fmt.Errorf("failed to resolve dependencies: %w", err)
	}

	sm.mu.Lock()
	sm.startOrder = order
	sm.mu.Unlock()

	sm.logger.Debug("Starting services", "order", order)

	started := make([]string, 0, len(order))
	for _, name := range order {
		service := sm.services[name]
		if err := service.Start(ctx); err != nil {
			sm.logger.Error("Failed to start service", "name", name, "error", err)
			slices.Reverse(started)
			_ = sm.stopServices(ctx, started)
			return fmt.Errorf("failed to start service %s: %w", name, err)
		}
		started = append(started, name)
		sm.logger.Debug("Service started", "name", name)
	}

	return nil
}

// Stop shuts services down dependants first and returns the first error
func (sm *ServiceManager) Stop(ctx context.Context) error {
	sm.mu.RLock()
	order := slices.Clone(sm.startOrder)
	sm.mu.RUnlock()

	slices.Reverse(order)
	sm.logger.Debug("Stopping services", "order", order)
	return sm.stopServices(ctx, order)
}

func (sm *ServiceManager) stopServices(ctx context.Context, names []string) error {
	var firstErr error
	for _, name := range names {
		service, exists := sm.services[name]
		if !exists {
			continue
		}
		if err := service.Stop(ctx); err != nil {
			sm.logger.Error("Failed to stop service", "name", name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		sm.logger.Debug("Service stopped", "name", name)
	}
	return firstErr
}

func (sm *ServiceManager) Get(name string) (ManagedService, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	service, exists := sm.services[name]
	return service, exists
}

func (sm *ServiceManager) GetRegistry() *ServiceRegistry {
	return sm.registry
}
