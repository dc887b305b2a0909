package catalog

import (
	"sync"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/vendsim/vendsim/currency"
	"github.com/vendsim/vendsim/log2"
)

// Store is an ordered product collection. Insertion order is
// preserved for display. All stock mutations funnel through
// AdjustStock or Draft validation so the [0, max] invariant has a
// single chokepoint.
type Store struct {
	log    *log2.Log
	accept currency.Nominals

	mu       sync.RWMutex
	m        map[string]*Product
	order    []string
	onChange func()
}

func NewStore(log *log2.Log, accept currency.Nominals) *Store {
	return &Store{
		log:    log,
		accept: accept,
		m:      make(map[string]*Product, 16),
	}
}

// SetOnChange registers a hook called after every successful
// mutation, outside the store lock. Used for best-effort persistence.
func (self *Store) SetOnChange(f func()) {
	self.mu.Lock()
	self.onChange = f
	self.mu.Unlock()
}

func (self *Store) notify() {
	self.mu.RLock()
	f := self.onChange
	self.mu.RUnlock()
	if f != nil {
		f()
	}
}

func (self *Store) Create(d Draft) (Product, error) {
	if err := d.Validate(self.accept); err != nil {
		return Product{}, errors.Annotate(err, "catalog create")
	}
	p := Product{
		// random identity is collision-free across deletions
		ID:       uuid.New().String(),
		Name:     d.Name,
		Icon:     d.Icon,
		Price:    d.Price,
		Stock:    d.Stock,
		MaxStock: d.MaxStock,
	}
	self.mu.Lock()
	self.m[p.ID] = &p
	self.order = append(self.order, p.ID)
	self.mu.Unlock()
	self.log.Debugf("catalog create %s", p.String())
	self.notify()
	return p, nil
}

func (self *Store) Update(id string, f Fields) (Product, error) {
	self.mu.Lock()
	p, ok := self.m[id]
	if !ok {
		self.mu.Unlock()
		return Product{}, errors.Annotatef(ErrNotFound, "catalog update id=%s", id)
	}
	d := f.apply(*p)
	if err := d.Validate(self.accept); err != nil {
		self.mu.Unlock()
		return Product{}, errors.Annotatef(err, "catalog update id=%s", id)
	}
	p.Name, p.Icon, p.Price, p.Stock, p.MaxStock = d.Name, d.Icon, d.Price, d.Stock, d.MaxStock
	updated := *p
	self.mu.Unlock()
	self.log.Debugf("catalog update %s", updated.String())
	self.notify()
	return updated, nil
}

func (self *Store) Delete(id string) error {
	self.mu.Lock()
	if _, ok := self.m[id]; !ok {
		self.mu.Unlock()
		return errors.Annotatef(ErrNotFound, "catalog delete id=%s", id)
	}
	delete(self.m, id)
	for i, x := range self.order {
		if x == id {
			self.order = append(self.order[:i], self.order[i+1:]...)
			break
		}
	}
	self.mu.Unlock()
	self.log.Debugf("catalog delete id=%s", id)
	self.notify()
	return nil
}

// AdjustStock is the only mutation path for stock deltas, shared by
// admin restocking and purchase decrement. On range violation stock
// is left unchanged.
func (self *Store) AdjustStock(id string, delta int) (Product, error) {
	self.mu.Lock()
	p, ok := self.m[id]
	if !ok {
		self.mu.Unlock()
		return Product{}, errors.Annotatef(ErrNotFound, "catalog adjust id=%s", id)
	}
	next := p.Stock + delta
	if next < 0 || next > p.MaxStock {
		cur := *p
		self.mu.Unlock()
		return cur, errors.Annotatef(ErrStockOutOfRange,
			"id=%s stock=%d delta=%d max=%d", id, cur.Stock, delta, cur.MaxStock)
	}
	p.Stock = next
	updated := *p
	self.mu.Unlock()
	self.log.Debugf("catalog adjust id=%s delta=%d stock=%d", id, delta, updated.Stock)
	self.notify()
	return updated, nil
}

func (self *Store) Get(id string) (Product, error) {
	self.mu.RLock()
	defer self.mu.RUnlock()
	p, ok := self.m[id]
	if !ok {
		return Product{}, errors.Annotatef(ErrNotFound, "catalog get id=%s", id)
	}
	return *p, nil
}

// List returns product copies in insertion order.
func (self *Store) List() []Product {
	self.mu.RLock()
	defer self.mu.RUnlock()
	ps := make([]Product, 0, len(self.order))
	for _, id := range self.order {
		ps = append(ps, *self.m[id])
	}
	return ps
}

func (self *Store) Len() int {
	self.mu.RLock()
	defer self.mu.RUnlock()
	return len(self.order)
}
