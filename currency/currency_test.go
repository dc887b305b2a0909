package currency

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat100I(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a      Amount
		expect string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{90, "0.90"},
		{160, "1.60"},
		{200, "2.00"},
		{12345, "123.45"},
	}
	for _, c := range cases {
		assert.Equal(t, c.expect, c.a.Format100I())
	}
}

func TestSub(t *testing.T) {
	t.Parallel()

	r, err := Amount(170).Sub(160)
	require.NoError(t, err)
	assert.Equal(t, Amount(10), r)

	r, err = Amount(150).Sub(160)
	assert.True(t, errors.Cause(err) == ErrUnderflow, "err=%v", err)
	assert.Equal(t, Amount(150), r)
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input     string
		expect    Amount
		expectErr bool
	}{
		{"1.60", 160, false},
		{"1.6", 160, false},
		{"2", 200, false},
		{"0.05", 5, false},
		{".50", 50, false},
		{" 3.00 ", 300, false},
		{"", 0, true},
		{"-1.00", 0, true},
		{"1.234", 0, true},
		{"abc", 0, true},
		{"1.x", 0, true},
	}
	for _, c := range cases {
		a, err := ParseAmount(c.input)
		if c.expectErr {
			assert.Error(t, err, "input=%q", c.input)
			assert.True(t, errors.Cause(err) == ErrInvalidAmount, "input=%q err=%v", c.input, err)
		} else {
			require.NoError(t, err, "input=%q", c.input)
			assert.Equal(t, c.expect, a, "input=%q", c.input)
		}
	}
}
