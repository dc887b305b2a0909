// Package vend is the transaction engine: selection, purchase and
// refund sequencing over the catalog and coin credit. It owns all
// session state; nothing here survives process restart.
package vend

import (
	"fmt"
	"strings"
	"sync"

	"github.com/juju/errors"

	"github.com/vendsim/vendsim/catalog"
	"github.com/vendsim/vendsim/currency"
	"github.com/vendsim/vendsim/head/money"
	"github.com/vendsim/vendsim/log2"
)

var (
	ErrNoSelection = errors.New("no product selected")
	ErrOutOfStock  = errors.New("out of stock")
)

// InsufficientFundsError reports the exact missing amount.
type InsufficientFundsError struct {
	Shortfall currency.Amount
}

func (self InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %s more", self.Shortfall.Format100I())
}

func IsInsufficientFunds(err error) bool {
	_, ok := errors.Cause(err).(InsufficientFundsError)
	return ok
}

// Messages are the display strings for user-visible outcomes.
// Format verbs: Credit/Shortfall/Change take one amount string,
// Selected takes name and price, Dispense takes name.
type Messages struct {
	Intro     string
	Credit    string
	Selected  string
	Shortfall string
	SoldOut   string
	Dispense  string
	Change    string
	Refunded  string
	NoBalance string
}

func DefaultMessages() Messages {
	return Messages{
		Intro:     "Welcome! Please insert coins.",
		Credit:    "Credit: %s",
		Selected:  "Selected: %s - %s",
		Shortfall: "Need %s more.",
		SoldOut:   "Out of stock!",
		Dispense:  "Dispensing %s.",
		Change:    "Change returned: %s",
		Refunded:  "Returned: %s",
		NoBalance: "No change to return.",
	}
}

func (self *Messages) normalize() {
	def := DefaultMessages()
	fill := func(p *string, d string) {
		if *p == "" {
			*p = d
		}
	}
	fill(&self.Intro, def.Intro)
	fill(&self.Credit, def.Credit)
	fill(&self.Selected, def.Selected)
	fill(&self.Shortfall, def.Shortfall)
	fill(&self.SoldOut, def.SoldOut)
	fill(&self.Dispense, def.Dispense)
	fill(&self.Change, def.Change)
	fill(&self.Refunded, def.Refunded)
	fill(&self.NoBalance, def.NoBalance)
}

// Dispense is the observable outcome of a successful purchase.
type Dispense struct {
	Product      catalog.Product
	Change       []currency.Nominal
	ChangeAmount currency.Amount
}

// Refunded is the outcome of returning the balance.
type Refunded struct {
	Coins  []currency.Nominal
	Amount currency.Amount
}

// Status is a read-only view for displays.
type Status struct {
	State    State
	Balance  currency.Amount
	Credit   string
	Selected *catalog.Product
	Message  string
}

// Machine serializes all session transitions under one lock; every
// operation is atomic with respect to the others. Core guarantee:
// no transition leaves balance negative or stock outside [0, max].
type Machine struct {
	log      *log2.Log
	catalog  *catalog.Store
	acceptor *money.Acceptor
	accept   currency.Nominals
	msgs     Messages

	mu       sync.Mutex
	state    State
	selected string
	message  string
}

func NewMachine(log *log2.Log, cat *catalog.Store, acceptor *money.Acceptor, accept currency.Nominals, msgs Messages) *Machine {
	msgs.normalize()
	return &Machine{
		log:      log,
		catalog:  cat,
		acceptor: acceptor,
		accept:   accept,
		msgs:     msgs,
		state:    StateIdle,
		message:  msgs.Intro,
	}
}

func (self *Machine) State() State {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.state
}

func (self *Machine) Message() string {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.message
}

func (self *Machine) Balance() currency.Amount { return self.acceptor.Balance() }

// Insert adds a coin to the session credit in any state. It holds
// the machine lock around the acceptor call: Purchase reads balance,
// settles and clears credit as one step, a coin slipping in between
// would be erased by the clear.
func (self *Machine) Insert(n currency.Nominal) (currency.Amount, error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	balance, err := self.acceptor.Insert(n)
	if err != nil {
		return balance, err
	}
	self.message = fmt.Sprintf(self.msgs.Credit, balance.Format100I())
	return balance, nil
}

// Select picks a product for purchase. Selecting again replaces the
// previous choice without side effects. Out-of-stock selection fails
// and leaves balance and any previous selection unchanged.
func (self *Machine) Select(id string) (catalog.Product, error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	p, err := self.catalog.Get(id)
	if err != nil {
		if id == self.selected {
			// selection went dangling, drop it
			self.selected = ""
			self.state = StateIdle
		}
		return catalog.Product{}, errors.Annotate(err, "select")
	}
	if p.Stock == 0 {
		self.message = self.msgs.SoldOut
		return p, errors.Annotatef(ErrOutOfStock, "select %s", p.Name)
	}
	self.selected = p.ID
	self.state = StateSelected
	self.message = fmt.Sprintf(self.msgs.Selected, p.Name, p.Price.Format100I())
	return p, nil
}

// Purchase settles the current selection: validates funds, decrements
// stock, computes change and resets the session, all as one step.
func (self *Machine) Purchase() (Dispense, error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	if self.selected == "" {
		return Dispense{}, ErrNoSelection
	}
	p, err := self.catalog.Get(self.selected)
	if err != nil {
		// product deleted after selection: lazy invalidation
		self.selected = ""
		self.state = StateIdle
		return Dispense{}, errors.Annotate(err, "purchase")
	}
	balance := self.acceptor.Balance()
	if balance < p.Price {
		shortfall := p.Price - balance
		self.message = fmt.Sprintf(self.msgs.Shortfall, shortfall.Format100I())
		return Dispense{}, InsufficientFundsError{Shortfall: shortfall}
	}

	self.state = StateDispensing
	p, err = self.catalog.AdjustStock(p.ID, -1)
	if err != nil {
		// depleted between selection and purchase
		self.selected = ""
		self.state = StateIdle
		self.message = self.msgs.SoldOut
		if errors.Cause(err) == catalog.ErrStockOutOfRange {
			err = errors.Annotatef(ErrOutOfStock, "purchase %s", p.Name)
		}
		return Dispense{}, err
	}

	changeAmount := balance - p.Price
	var coins []currency.Nominal
	if changeAmount > 0 {
		coins, err = self.accept.MakeChange(changeAmount)
		if err != nil {
			// prices are validated representable, this must not happen;
			// undo the stock decrement and keep the session intact
			if _, err2 := self.catalog.AdjustStock(p.ID, 1); err2 != nil {
				self.log.Errorf("purchase rollback failed: %v", err2)
			}
			self.state = StateSelected
			return Dispense{}, errors.Annotate(err, "purchase change")
		}
	}
	self.acceptor.Clear()
	self.selected = ""
	self.state = StateIdle

	msg := fmt.Sprintf(self.msgs.Dispense, p.Name)
	if changeAmount > 0 {
		msg += " " + fmt.Sprintf(self.msgs.Change, changeAmount.Format100I())
	}
	self.message = msg
	self.log.Infof("vend dispense %s change=%s", p.String(), changeAmount.Format100I())
	return Dispense{Product: p, Change: coins, ChangeAmount: changeAmount}, nil
}

// Refund returns the whole balance and resets the session from any
// state. With zero balance it is a no-op reported as NoBalance.
func (self *Machine) Refund() (Refunded, error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	coins, amount, err := self.acceptor.Refund()
	if err != nil {
		if errors.Cause(err) == money.ErrNoBalance {
			self.message = self.msgs.NoBalance
		}
		return Refunded{}, err
	}
	self.state = StateRefunding
	self.selected = ""
	self.state = StateIdle
	self.message = fmt.Sprintf(self.msgs.Refunded, formatCoins(coins))
	self.log.Infof("vend refund amount=%s", amount.Format100I())
	return Refunded{Coins: coins, Amount: amount}, nil
}

// Status reports the session for displays. A dangling selection is
// cleared lazily here as well.
func (self *Machine) Status() Status {
	self.mu.Lock()
	defer self.mu.Unlock()

	st := Status{
		State:   self.state,
		Balance: self.acceptor.Balance(),
		Credit:  self.acceptor.Credit().String(),
		Message: self.message,
	}
	if self.selected != "" {
		if p, err := self.catalog.Get(self.selected); err == nil {
			st.Selected = &p
		} else {
			self.selected = ""
			self.state = StateIdle
			st.State = StateIdle
		}
	}
	return st
}

func formatCoins(coins []currency.Nominal) string {
	ss := make([]string, len(coins))
	for i, n := range coins {
		ss[i] = currency.Amount(n).Format100I()
	}
	return strings.Join(ss, ", ")
}
