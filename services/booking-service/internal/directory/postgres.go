package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/localbook/libs/db"
)

// Postgres reads the directory_* read-model tables.
type Postgres struct {
	pool *db.Pool
}

func NewPostgres(pool *db.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) ResolveCustomer(ctx context.Context, id string) (Customer, error) {
	c := Customer{ID: id}
	err := p.pool.QueryRow(ctx, `SELECT display_name FROM directory_customers WHERE id = $1`, id).Scan(&c.DisplayName)
	return c, notFound(err, "customer", id)
}

func (p *Postgres) ResolveBusiness(ctx context.Context, id string) (Business, error) {
	b := Business{ID: id}
	err := p.pool.QueryRow(ctx, `SELECT owner_id, name FROM directory_businesses WHERE id = $1`, id).Scan(&b.OwnerID, &b.Name)
	return b, notFound(err, "business", id)
}

func (p *Postgres) ResolveService(ctx context.Context, id string) (Service, error) {
	s := Service{ID: id}
	err := p.pool.QueryRow(ctx, `SELECT business_id, name FROM directory_services WHERE id = $1`, id).Scan(&s.BusinessID, &s.Name)
	return s, notFound(err, "service", id)
}

func notFound(err error, kind, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	return err
}
