package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Carts is the cart shell repository. The auth flows only ever create one
// cart per customer; the catalog service owns everything else about it.
type Carts interface {
	repository.Repository[*Cart]

	GetByCustomer(ctx context.Context, customerID uuid.UUID) (*Cart, error)

	Provision(ctx context.Context, cart *Cart) (*Cart, error)
	ProvisionTx(ctx context.Context, tx bun.IDB, cart *Cart) (*Cart, error)
}

type carts struct {
	repository.Repository[*Cart]
	db *bun.DB
}

var (
	_ Carts                        = (*carts)(nil)
	_ repository.Repository[*Cart] = (*carts)(nil)
	_ CartStore                    = (*carts)(nil)
)

func NewCartsRepository(db *bun.DB) Carts {
	repo := repository.NewRepository[*Cart](db, repository.ModelHandlers[*Cart]{
		NewRecord: func() *Cart { return &Cart{} },
		GetID: func(c *Cart) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Cart, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
	})

	return &carts{
		Repository: repo,
		db:         db,
	}
}

func (a *carts) GetByCustomer(ctx context.Context, customerID uuid.UUID) (*Cart, error) {
	record := &Cart{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.customer_id = ?", customerID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"customer_id": customerID.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *carts) Provision(ctx context.Context, cart *Cart) (*Cart, error) {
	return a.ProvisionTx(ctx, a.db, cart)
}

func (a *carts) ProvisionTx(ctx context.Context, tx bun.IDB, cart *Cart) (*Cart, error) {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, tx, cart)
}
