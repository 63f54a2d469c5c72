// Package directory resolves the customer, business and service references an
// appointment carries into the ids and display names notifications need.
package directory

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("directory entry not found")

type Customer struct {
	ID          string
	DisplayName string
}

type Business struct {
	ID      string
	OwnerID string
	Name    string
}

type Service struct {
	ID         string
	BusinessID string
	Name       string
}

type Directory interface {
	ResolveCustomer(ctx context.Context, id string) (Customer, error)
	ResolveBusiness(ctx context.Context, id string) (Business, error)
	ResolveService(ctx context.Context, id string) (Service, error)
}
