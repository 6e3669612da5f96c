package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/amirhosseinghanipour/provisioner/internal/application/ports"
	"github.com/amirhosseinghanipour/provisioner/internal/domain"
	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/persistence/db"
)

type CustomerRepository struct {
	q *db.Queries
}

func NewCustomerRepository(q *db.Queries) *CustomerRepository {
	return &CustomerRepository{q: q}
}

func (r *CustomerRepository) GetByID(ctx context.Context, id domain.CustomerID) (*domain.Customer, error) {
	c, err := r.q.GetCustomer(ctx, int32(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.Customer{ID: domain.CustomerID(c.ID), Name: c.Name}, nil
}

var _ ports.CustomerRepository = (*CustomerRepository)(nil)
