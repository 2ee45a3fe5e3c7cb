package services

import (
	"fmt"
)

const (
	ServiceStats    = "stats"
	ServiceBuffer   = "buffer"
	ServiceCapture  = "capture"
	ServiceSecurity = "security"
	ServiceHTTP     = "http"
)

// ServiceRegistry hands out registered services by name once wiring is done
type ServiceRegistry struct {
	services map[string]ManagedService
}

func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[string]ManagedService),
	}
}

func (r *ServiceRegistry) Register(name string, service ManagedService) {
	r.services[name] = service
}

func (r *ServiceRegistry) Get(name string) (ManagedService, error) {
	service, exists := r.services[name]
	if !exists {
		return nil, fmt.Errorf("service %s not found", name)
	}
	return service, nil
}

func lookup[T ManagedService](r *ServiceRegistry, name string) (T, error) {
	var zero T
	service, err := r.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := service.(T)
	if !ok {
		return zero, fmt.Errorf("service %s is %T, not %T", name, service, zero)
	}
	return typed, nil
}

func (r *ServiceRegistry) GetStats() (*StatsService, error) {
	return lookup[*StatsService](r, ServiceStats)
}

func (r *ServiceRegistry) GetBuffer() (*BufferService, error) {
	return lookup[*BufferService](r, ServiceBuffer)
}

func (r *ServiceRegistry) GetCapture() (*CaptureService, error) {
	return lookup[*CaptureService](r, ServiceCapture)
}

func (r *ServiceRegistry) GetSecurity() (*SecurityService, error) {
	return lookup[*SecurityService](r, ServiceSecurity)
}

func (r *ServiceRegistry) GetHTTP() (*HTTPService, error) {
	return lookup[*HTTPService](r, ServiceHTTP)
}
