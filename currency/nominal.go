package currency

import (
	"fmt"
	"sort"
	"strings"

	"github.com/juju/errors"
)

// Nominal is value of one coin
type Nominal Amount

var (
	ErrNominalInvalid = errors.New("nominal is not valid for this group")
	ErrNominalSet     = errors.New("nominal set is not valid")
	ErrNotCanonical   = errors.New("nominal set breaks greedy change")
	ErrChange         = errors.New("amount is not representable by nominal set")
)

// Nominals is the accepted denomination set, stored largest first.
//
// Construction enforces the invariant that every nominal is a
// multiple of the smallest one. That makes exact greedy decomposition
// a theorem rather than a hope: the remainder always stays a multiple
// of the smallest nominal and greedy can subtract the smallest until
// zero. Minimality of the greedy result is a separate property, see
// CheckCanonical.
type Nominals []Nominal

func NewNominals(ns ...Nominal) (Nominals, error) {
	if len(ns) == 0 {
		return nil, errors.Annotate(ErrNominalSet, "empty")
	}
	set := make(Nominals, len(ns))
	copy(set, ns)
	sort.Slice(set, func(i, j int) bool { return set[i] > set[j] })
	smallest := set[len(set)-1]
	if smallest == 0 {
		return nil, errors.Annotate(ErrNominalSet, "nominal=0")
	}
	for i, n := range set {
		if i > 0 && set[i-1] == n {
			return nil, errors.Annotatef(ErrNominalSet, "duplicate nominal=%s", Amount(n).Format100I())
		}
		if n%smallest != 0 {
			return nil, errors.Annotatef(ErrNominalSet,
				"nominal=%s is not a multiple of smallest=%s",
				Amount(n).Format100I(), Amount(smallest).Format100I())
		}
	}
	return set, nil
}

func MustNominals(ns ...Nominal) Nominals {
	set, err := NewNominals(ns...)
	if err != nil {
		panic(err)
	}
	return set
}

func (self Nominals) Smallest() Nominal { return self[len(self)-1] }

func (self Nominals) Contains(n Nominal) bool {
	for _, x := range self {
		if x == n {
			return true
		}
	}
	return false
}

// Representable reports whether amount decomposes exactly into
// accepted nominals. With the multiple-of-smallest invariant this is
// a divisibility check.
func (self Nominals) Representable(a Amount) bool {
	return a%Amount(self.Smallest()) == 0
}

// MakeChange decomposes amount into coins, greedy largest first.
// Postcondition: returned coins sum to exactly amount.
func (self Nominals) MakeChange(a Amount) ([]Nominal, error) {
	coins := make([]Nominal, 0, 8)
	rem := a
	for _, n := range self {
		for rem >= Amount(n) {
			rem -= Amount(n)
			coins = append(coins, n)
		}
	}
	if rem != 0 {
		return nil, errors.Annotatef(ErrChange, "amount=%s remainder=%s", a.Format100I(), rem.Format100I())
	}
	return coins, nil
}

// CheckCanonical verifies that greedy change is also minimal change
// for this set. Greedy exactness is guaranteed by construction;
// minimality holds only for canonical coin systems (1-2-5 style
// scaling) and is asserted here, not assumed. Any counterexample
// to greedy minimality lies below the sum of the two largest
// nominals (Kozen-Zaks), so the scan is bounded.
func (self Nominals) CheckCanonical() error {
	bound := Amount(self[0])
	if len(self) > 1 {
		bound += Amount(self[1])
	}
	step := Amount(self.Smallest())
	// optimal coin counts by dynamic programming over multiples of
	// the smallest nominal
	const inf = int(^uint(0) >> 1)
	best := make([]int, bound/step+1)
	for i := range best {
		best[i] = inf
	}
	best[0] = 0
	for i := Amount(1); i*step <= bound; i++ {
		a := i * step
		for _, n := range self {
			if Amount(n) > a {
				continue
			}
			if prev := best[(a-Amount(n))/step]; prev != inf && prev+1 < best[i] {
				best[i] = prev + 1
			}
		}
		coins, err := self.MakeChange(a)
		if err != nil {
			return errors.Annotatef(err, "canonical check amount=%s", a.Format100I())
		}
		if len(coins) != best[i] {
			return errors.Annotatef(ErrNotCanonical,
				"amount=%s greedy=%d optimal=%d", a.Format100I(), len(coins), best[i])
		}
	}
	return nil
}

// NominalGroup counts money comprised of multiple nominals.
// coin10 : 4
// coin5  : 1
// total  : 45
type NominalGroup struct {
	values map[Nominal]uint
}

func (self *NominalGroup) SetValid(valid []Nominal) {
	self.values = make(map[Nominal]uint, len(valid))
	for _, n := range valid {
		if n != 0 {
			self.values[n] = 0
		}
	}
}

func (self *NominalGroup) Add(n Nominal, count uint) error {
	if _, ok := self.values[n]; !ok {
		return errors.Annotatef(ErrNominalInvalid, "Add(n=%s, c=%d)", Amount(n).Format100I(), count)
	}
	self.values[n] += count
	return nil
}

func (self *NominalGroup) Get(n Nominal) (uint, error) {
	stored, ok := self.values[n]
	if !ok {
		return 0, ErrNominalInvalid
	}
	return stored, nil
}

func (self *NominalGroup) Total() Amount {
	sum := Amount(0)
	for nominal, count := range self.values {
		sum += Amount(nominal) * Amount(count)
	}
	return sum
}

func (self *NominalGroup) Clear() {
	for n := range self.values {
		self.values[n] = 0
	}
}

func (self *NominalGroup) Copy() *NominalGroup {
	ng2 := &NominalGroup{
		values: make(map[Nominal]uint, len(self.values)),
	}
	for k, v := range self.values {
		ng2.values[k] = v
	}
	return ng2
}

// Iter visits nominals largest first.
func (self *NominalGroup) Iter(f func(nominal Nominal, count uint) error) error {
	order := make([]Nominal, 0, len(self.values))
	for n := range self.values {
		order = append(order, n)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] > order[j] })
	for _, n := range order {
		if err := f(n, self.values[n]); err != nil {
			return err
		}
	}
	return nil
}

func (self *NominalGroup) String() string {
	parts := make([]string, 0, len(self.values)+1)
	sum := Amount(0)
	for nominal, count := range self.values {
		if count > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", Amount(nominal).Format100I(), count))
			sum += Amount(nominal) * Amount(count)
		}
	}
	sort.Strings(parts)
	parts = append(parts, fmt.Sprintf("total:%s", sum.Format100I()))
	return strings.Join(parts, ",")
}
