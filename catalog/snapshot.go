package catalog

import (
	"encoding/json"

	"github.com/juju/errors"
)

// Snapshot format is a plain JSON product list, the contract with the
// persistence adapter. No versioning, changes are not backward
// compatible.

func (self *Store) MarshalBinary() ([]byte, error) {
	b, err := json.Marshal(self.List())
	return b, errors.Annotate(err, "catalog snapshot marshal")
}

// UnmarshalBinary replaces store contents with a stored snapshot.
// Every record is re-validated; a snapshot violating invariants is
// rejected whole so the caller can fall back to seeding.
func (self *Store) UnmarshalBinary(b []byte) error {
	var ps []Product
	if err := json.Unmarshal(b, &ps); err != nil {
		return errors.Annotate(err, "catalog snapshot unmarshal")
	}
	m := make(map[string]*Product, len(ps))
	order := make([]string, 0, len(ps))
	for i := range ps {
		p := ps[i]
		if p.ID == "" {
			return errors.NotValidf("catalog snapshot: empty id name=%s", p.Name)
		}
		if _, ok := m[p.ID]; ok {
			return errors.NotValidf("catalog snapshot: duplicate id=%s", p.ID)
		}
		d := Draft{Name: p.Name, Icon: p.Icon, Price: p.Price, Stock: p.Stock, MaxStock: p.MaxStock}
		if err := d.Validate(self.accept); err != nil {
			return errors.Annotatef(err, "catalog snapshot id=%s", p.ID)
		}
		m[p.ID] = &p
		order = append(order, p.ID)
	}
	self.mu.Lock()
	self.m = m
	self.order = order
	self.mu.Unlock()
	return nil
}
