package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendsim/vendsim/currency"
	"github.com/vendsim/vendsim/log2"
)

func testStore(t testing.TB) *Store {
	return NewStore(log2.NewTest(t, log2.LDebug), currency.MustNominals(5, 10, 20, 50, 100, 200))
}

func TestCreateValidate(t *testing.T) {
	t.Parallel()
	s := testStore(t)

	p, err := s.Create(Draft{Name: "Espresso", Icon: "☕", Price: 160, Stock: 10, MaxStock: 15})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, 1, s.Len())

	_, err = s.Create(Draft{Icon: "?", Price: 100, Stock: 1, MaxStock: 5})
	assert.True(t, errors.IsNotValid(err), "err=%v", err)

	_, err = s.Create(Draft{Name: "Free", Price: 0, Stock: 1, MaxStock: 5})
	assert.True(t, errors.Cause(err) == ErrInvalidPrice, "err=%v", err)

	// 1.13 cannot be paid out by 5-minor-unit coins
	_, err = s.Create(Draft{Name: "Odd", Price: 113, Stock: 1, MaxStock: 5})
	assert.True(t, errors.Cause(err) == ErrInvalidPrice, "err=%v", err)

	_, err = s.Create(Draft{Name: "Over", Price: 100, Stock: 6, MaxStock: 5})
	assert.True(t, errors.Cause(err) == ErrInvalidStock, "err=%v", err)

	_, err = s.Create(Draft{Name: "Neg", Price: 100, Stock: -1, MaxStock: 5})
	assert.True(t, errors.Cause(err) == ErrInvalidStock, "err=%v", err)

	assert.Equal(t, 1, s.Len())
}

func TestListOrder(t *testing.T) {
	t.Parallel()
	s := testStore(t)

	names := []string{"Espresso", "Croissant", "Chocolate", "Water"}
	for _, name := range names {
		_, err := s.Create(Draft{Name: name, Price: 100, Stock: 5, MaxStock: 10})
		require.NoError(t, err)
	}
	ps := s.List()
	require.Len(t, ps, 4)
	for i, p := range ps {
		assert.Equal(t, names[i], p.Name)
	}

	require.NoError(t, s.Delete(ps[1].ID))
	ps = s.List()
	require.Len(t, ps, 3)
	assert.Equal(t, []string{"Espresso", "Chocolate", "Water"},
		[]string{ps[0].Name, ps[1].Name, ps[2].Name})
}

func TestUpdatePartial(t *testing.T) {
	t.Parallel()
	s := testStore(t)

	p, err := s.Create(Draft{Name: "Water", Icon: "💧", Price: 90, Stock: 5, MaxStock: 15})
	require.NoError(t, err)

	newPrice := currency.Amount(95)
	up, err := s.Update(p.ID, Fields{Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, currency.Amount(95), up.Price)
	assert.Equal(t, "Water", up.Name)
	assert.Equal(t, 5, up.Stock)

	badPrice := currency.Amount(97)
	_, err = s.Update(p.ID, Fields{Price: &badPrice})
	assert.True(t, errors.Cause(err) == ErrInvalidPrice, "err=%v", err)
	got, err := s.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, currency.Amount(95), got.Price)

	badStock := 20
	_, err = s.Update(p.ID, Fields{Stock: &badStock})
	assert.True(t, errors.Cause(err) == ErrInvalidStock, "err=%v", err)

	_, err = s.Update("missing", Fields{})
	assert.True(t, errors.Cause(err) == ErrNotFound, "err=%v", err)
}

func TestAdjustStock(t *testing.T) {
	t.Parallel()
	s := testStore(t)

	p, err := s.Create(Draft{Name: "Chocolate", Price: 150, Stock: 1, MaxStock: 2})
	require.NoError(t, err)

	up, err := s.AdjustStock(p.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, up.Stock)

	_, err = s.AdjustStock(p.ID, -1)
	assert.True(t, errors.Cause(err) == ErrStockOutOfRange, "err=%v", err)
	got, _ := s.Get(p.ID)
	assert.Equal(t, 0, got.Stock)

	up, err = s.AdjustStock(p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, up.Stock)

	_, err = s.AdjustStock(p.ID, 1)
	assert.True(t, errors.Cause(err) == ErrStockOutOfRange, "err=%v", err)
	got, _ = s.Get(p.ID)
	assert.Equal(t, 2, got.Stock)

	_, err = s.AdjustStock("missing", 1)
	assert.True(t, errors.Cause(err) == ErrNotFound, "err=%v", err)
}

func TestOnChange(t *testing.T) {
	t.Parallel()
	s := testStore(t)

	changes := 0
	s.SetOnChange(func() { changes++ })

	p, err := s.Create(Draft{Name: "Juice", Price: 200, Stock: 5, MaxStock: 10})
	require.NoError(t, err)
	_, err = s.AdjustStock(p.ID, -1)
	require.NoError(t, err)
	require.NoError(t, s.Delete(p.ID))
	assert.Equal(t, 3, changes)

	// failed mutations must not report a change
	_, err = s.AdjustStock(p.ID, 1)
	require.Error(t, err)
	assert.Equal(t, 3, changes)
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()
	s := testStore(t)

	for _, d := range DefaultSeed() {
		_, err := s.Create(d)
		require.NoError(t, err)
	}
	b, err := s.MarshalBinary()
	require.NoError(t, err)

	s2 := testStore(t)
	require.NoError(t, s2.UnmarshalBinary(b))
	assert.Equal(t, s.List(), s2.List())
}

func TestSnapshotRejectsInvalid(t *testing.T) {
	t.Parallel()
	s := testStore(t)

	cases := []struct {
		name  string
		input string
	}{
		{"garbage", `{"not":"a list"`},
		{"empty id", `[{"id":"","name":"X","price":100,"quantity":1,"maxQuantity":5}]`},
		{"dup id", `[{"id":"a","name":"X","price":100,"quantity":1,"maxQuantity":5},
			{"id":"a","name":"Y","price":100,"quantity":1,"maxQuantity":5}]`},
		{"bad stock", `[{"id":"a","name":"X","price":100,"quantity":9,"maxQuantity":5}]`},
		{"bad price", `[{"id":"a","name":"X","price":13,"quantity":1,"maxQuantity":5}]`},
	}
	for _, c := range cases {
		err := s.UnmarshalBinary([]byte(c.input))
		assert.Error(t, err, "case=%s", c.name)
	}
	assert.Equal(t, 0, s.Len())
}

func TestSeedFetch(t *testing.T) {
	t.Parallel()

	ds, err := SeedSource{}.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, ds, len(DefaultSeed()))

	custom := SeedSource{Drafts: []Draft{{Name: "Tea", Price: 120, Stock: 3, MaxStock: 5}}}
	ds, err = custom.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "Tea", ds[0].Name)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = SeedSource{Delay: time.Hour}.Fetch(ctx)
	assert.Error(t, err)
}
