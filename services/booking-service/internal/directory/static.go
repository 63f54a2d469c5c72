package directory

import (
	"context"
	"fmt"
	"sync"
)

// Static is an in-memory directory for local runs and tests.
type Static struct {
	mu         sync.RWMutex
	customers  map[string]Customer
	businesses map[string]Business
	services   map[string]Service
}

func NewStatic() *Static {
	return &Static{
		customers:  map[string]Customer{},
		businesses: map[string]Business{},
		services:   map[string]Service{},
	}
}

func (s *Static) AddCustomer(c Customer) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
	return s
}

func (s *Static) AddBusiness(b Business) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.businesses[b.ID] = b
	return s
}

func (s *Static) AddService(svc Service) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[svc.ID] = svc
	return s
}

func (s *Static) ResolveCustomer(_ context.Context, id string) (Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return Customer{}, fmt.Errorf("%w: customer %s", ErrNotFound, id)
	}
	return c, nil
}

func (s *Static) ResolveBusiness(_ context.Context, id string) (Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.businesses[id]
	if !ok {
		return Business{}, fmt.Errorf("%w: business %s", ErrNotFound, id)
	}
	return b, nil
}

func (s *Static) ResolveService(_ context.Context, id string) (Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[id]
	if !ok {
		return Service{}, fmt.Errorf("%w: service %s", ErrNotFound, id)
	}
	return svc, nil
}
