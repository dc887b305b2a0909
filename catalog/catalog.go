// Package catalog owns the product set of the machine: identity,
// price, icon and stock with its [0, max] invariant.
package catalog

import (
	"fmt"

	"github.com/juju/errors"

	"github.com/vendsim/vendsim/currency"
)

var (
	ErrNotFound        = errors.New("product not found")
	ErrInvalidPrice    = errors.New("price is not valid")
	ErrInvalidStock    = errors.New("stock is not valid")
	ErrStockOutOfRange = errors.New("stock out of range")
)

// Product is owned by the Store; callers get copies.
// JSON field names are the persistence adapter contract, do not
// rename without migrating stored snapshots.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Icon     string          `json:"icon"`
	Price    currency.Amount `json:"price"`
	Stock    int             `json:"quantity"`
	MaxStock int             `json:"maxQuantity"`
}

func (self Product) String() string {
	return fmt.Sprintf("%s %s price=%s stock=%d/%d",
		self.Name, self.Icon, self.Price.Format100I(), self.Stock, self.MaxStock)
}

// Draft is admin form staging for create. It carries no identity;
// the Store assigns one on commit.
type Draft struct {
	Name     string
	Icon     string
	Price    currency.Amount
	Stock    int
	MaxStock int
}

// Validate checks the same invariants for create and update. Prices
// must decompose into accepted nominals, otherwise the change maker
// could face an impossible remainder after a purchase.
func (self Draft) Validate(accept currency.Nominals) error {
	if self.Name == "" {
		return errors.NotValidf("product name is empty")
	}
	if self.Price == 0 {
		return errors.Annotate(ErrInvalidPrice, "price=0")
	}
	if !accept.Representable(self.Price) {
		return errors.Annotatef(ErrInvalidPrice,
			"price=%s is not representable by accepted nominals", self.Price.Format100I())
	}
	if self.MaxStock < 0 {
		return errors.Annotatef(ErrInvalidStock, "max=%d", self.MaxStock)
	}
	if self.Stock < 0 || self.Stock > self.MaxStock {
		return errors.Annotatef(ErrInvalidStock, "stock=%d max=%d", self.Stock, self.MaxStock)
	}
	return nil
}

// Fields is a partial update; nil members keep current values.
type Fields struct {
	Name     *string
	Icon     *string
	Price    *currency.Amount
	Stock    *int
	MaxStock *int
}

func (self Fields) apply(p Product) Draft {
	d := Draft{Name: p.Name, Icon: p.Icon, Price: p.Price, Stock: p.Stock, MaxStock: p.MaxStock}
	if self.Name != nil {
		d.Name = *self.Name
	}
	if self.Icon != nil {
		d.Icon = *self.Icon
	}
	if self.Price != nil {
		d.Price = *self.Price
	}
	if self.Stock != nil {
		d.Stock = *self.Stock
	}
	if self.MaxStock != nil {
		d.MaxStock = *self.MaxStock
	}
	return d
}
