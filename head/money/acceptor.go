// Package money accumulates inserted coins into session credit and
// pays it back out. Coins arrive as direct calls from the UI layers,
// there is no hardware poll loop.
package money

import (
	"sync"

	"github.com/juju/errors"

	"github.com/vendsim/vendsim/currency"
	"github.com/vendsim/vendsim/log2"
)

var (
	ErrUnsupportedNominal = errors.New("coin nominal is not accepted")
	// ErrNoBalance is informational: refund with nothing to give back.
	ErrNoBalance = errors.New("no balance")
)

// Acceptor validates inserted coins against the accepted nominal set
// and tracks credit per nominal. Balance is always the exact integer
// sum of inserted coin values.
type Acceptor struct {
	log    *log2.Log
	accept currency.Nominals

	mu     sync.Mutex
	credit currency.NominalGroup
}

func NewAcceptor(log *log2.Log, accept currency.Nominals) *Acceptor {
	self := &Acceptor{log: log, accept: accept}
	self.credit.SetValid(accept)
	return self
}

// Insert validates the coin even though UI layers only offer valid
// buttons. Returns the updated balance.
func (self *Acceptor) Insert(n currency.Nominal) (currency.Amount, error) {
	if !self.accept.Contains(n) {
		return self.Balance(), errors.Annotatef(ErrUnsupportedNominal, "n=%s", currency.Amount(n).Format100I())
	}
	self.mu.Lock()
	defer self.mu.Unlock()
	if err := self.credit.Add(n, 1); err != nil {
		return self.credit.Total(), errors.Annotate(err, "insert")
	}
	balance := self.credit.Total()
	self.log.Debugf("money insert n=%s balance=%s", currency.Amount(n).Format100I(), balance.Format100I())
	return balance, nil
}

func (self *Acceptor) Balance() currency.Amount {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.credit.Total()
}

// Credit returns a snapshot of inserted coins.
func (self *Acceptor) Credit() *currency.NominalGroup {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.credit.Copy()
}

// Clear drops the credit. Callers must have settled it first.
func (self *Acceptor) Clear() {
	self.mu.Lock()
	self.credit.Clear()
	self.mu.Unlock()
}

// Refund pays the whole balance back as coins and resets credit.
func (self *Acceptor) Refund() ([]currency.Nominal, currency.Amount, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	balance := self.credit.Total()
	if balance == 0 {
		return nil, 0, ErrNoBalance
	}
	coins, err := self.accept.MakeChange(balance)
	if err != nil {
		// impossible while credit only ever holds accepted nominals
		return nil, balance, errors.Annotate(err, "refund")
	}
	self.credit.Clear()
	self.log.Debugf("money refund amount=%s coins=%d", balance.Format100I(), len(coins))
	return coins, balance, nil
}
