// Package currency implements fixed-point money arithmetic for the
// vending core. All math is integer over minor units; amounts must
// never pass through floating point.
package currency

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// Amount is integer counting lowest currency unit, e.g. $1.20 = 120
type Amount uint32

var (
	ErrInvalidAmount = errors.New("amount is not valid")
	ErrUnderflow     = errors.New("amount underflow")
)

// Format100I renders the amount in major units with fixed two
// decimals. 160 -> "1.60"
func (self Amount) Format100I() string {
	return fmt.Sprintf("%d.%02d", uint32(self)/100, uint32(self)%100)
}

// Sub fails with ErrUnderflow instead of wrapping around. Only
// balance-affecting code paths may observe underflow; change math
// guarantees a non-negative remainder by construction.
func (self Amount) Sub(other Amount) (Amount, error) {
	if other > self {
		return self, errors.Annotatef(ErrUnderflow, "%s-%s", self.Format100I(), other.Format100I())
	}
	return self - other, nil
}

// ParseAmount reads a major-unit string "D" or "D.C" or "D.CC" into
// minor units using integer math only.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") {
		return 0, errors.Annotatef(ErrInvalidAmount, "input=%q", s)
	}
	major, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		major, frac = s[:i], s[i+1:]
	}
	if major == "" {
		major = "0"
	}
	m, err := strconv.ParseUint(major, 10, 32)
	if err != nil {
		return 0, errors.Annotatef(ErrInvalidAmount, "input=%q", s)
	}
	c := uint64(0)
	switch len(frac) {
	case 0:
	case 1:
		c, err = strconv.ParseUint(frac, 10, 32)
		c *= 10
	case 2:
		c, err = strconv.ParseUint(frac, 10, 32)
	default:
		return 0, errors.Annotatef(ErrInvalidAmount, "input=%q more than 2 decimals", s)
	}
	if err != nil {
		return 0, errors.Annotatef(ErrInvalidAmount, "input=%q", s)
	}
	total := m*100 + c
	if total > uint64(^uint32(0)) {
		return 0, errors.Annotatef(ErrInvalidAmount, "input=%q overflow", s)
	}
	return Amount(total), nil
}
