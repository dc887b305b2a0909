package state

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendsim/vendsim/currency"
	"github.com/vendsim/vendsim/log2"
)

func TestParseConfig(t *testing.T) {
	t.Parallel()

	type Case struct {
		name      string
		input     string
		check     func(t testing.TB, c *Config)
		expectErr string
	}
	cases := []Case{
		{"empty", "", func(t testing.TB, c *Config) {
			assert.Equal(t, 1, c.Money.Scale)
			assert.Equal(t, []int{5, 10, 20, 50, 100, 200}, c.Money.Nominals)
			assert.Equal(t, 500, c.Seed.DelayMs)
		}, ""},

		{"money", `money { scale = 10 nominals = [1, 2, 5, 10, 20] }`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, currency.Amount(1600), c.ScaleI(160))
				set, err := c.Nominals()
				require.NoError(t, err)
				assert.Equal(t, currency.Nominal(200), set[0])
			}, ""},

		{"nominals-not-canonical", `money { nominals = [10, 70, 100] }`,
			nil, "greedy"},

		{"nominals-bad", `money { nominals = [10, -5] }`,
			nil, "nominal"},

		{"seed", `
seed {
  delay_ms = 1
  product "Espresso" { icon = "☕" price = 160 stock = 10 max_stock = 15 }
  product "Water" { icon = "💧" price = 90 stock = 5 max_stock = 15 }
}`,
			func(t testing.TB, c *Config) {
				ds := c.SeedDrafts()
				require.Len(t, ds, 2)
				assert.Equal(t, "Espresso", ds[0].Name)
				assert.Equal(t, currency.Amount(160), ds[0].Price)
				assert.Equal(t, 15, ds[1].MaxStock)
			}, ""},

		{"ui", `ui { front { msg_intro = "hello" msg_shortfall = "missing %s" } }`,
			func(t testing.TB, c *Config) {
				m := c.Messages()
				assert.Equal(t, "hello", m.Intro)
				assert.Equal(t, "missing %s", m.Shortfall)
				assert.Equal(t, "", m.SoldOut)
			}, ""},

		{"listen+persist", `listen { http = ":8080" } persist { root = "/tmp/x" }`,
			func(t testing.TB, c *Config) {
				assert.Equal(t, ":8080", c.Listen.HTTP)
				assert.Equal(t, "/tmp/x", c.Persist.Root)
			}, ""},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			log := log2.NewTest(t, log2.LDebug)
			cfg, err := ParseConfig(log, []byte(c.input))
			if c.expectErr != "" {
				require.Error(t, err)
				assert.Contains(t, strings.ToLower(err.Error()), c.expectErr)
				return
			}
			require.NoError(t, err)
			if c.check != nil {
				c.check(t, cfg)
			}
		})
	}
}

func TestGlobalInitSeedsAndPersists(t *testing.T) {
	t.Parallel()

	log := log2.NewTest(t, log2.LDebug)
	root := t.TempDir()
	cfg, err := ParseConfig(log, []byte(`
persist { root = "`+root+`" }
seed {
  delay_ms = 1
  product "Espresso" { icon = "☕" price = 160 stock = 10 max_stock = 15 }
}`))
	require.NoError(t, err)

	ctx, g := NewContext(log)
	require.NoError(t, g.Init(ctx, cfg))
	require.Equal(t, 1, g.Catalog.Len())
	ps := g.Catalog.List()
	assert.Equal(t, "Espresso", ps[0].Name)

	// a purchase-like mutation persists and survives a new Global
	_, err = g.Catalog.AdjustStock(ps[0].ID, -1)
	require.NoError(t, err)

	ctx2, g2 := NewContext(log)
	require.NoError(t, g2.Init(ctx2, cfg))
	require.Equal(t, 1, g2.Catalog.Len())
	assert.Equal(t, 9, g2.Catalog.List()[0].Stock)
	assert.Equal(t, ps[0].ID, g2.Catalog.List()[0].ID)

	assert.True(t, g2.Uptime() >= 0)
	g.Stop()
	g2.Stop()
}

func TestGlobalInitNoPersist(t *testing.T) {
	t.Parallel()

	log := log2.NewTest(t, log2.LDebug)
	cfg, err := ParseConfig(log, []byte(`seed { delay_ms = 1 }`))
	require.NoError(t, err)

	ctx, g := NewContext(log)
	require.NoError(t, g.Init(ctx, cfg))
	// built-in seed
	assert.True(t, g.Catalog.Len() > 0)
	require.NotNil(t, g.Machine)
	_, err = g.Machine.Insert(100)
	require.NoError(t, err)
	assert.Equal(t, currency.Amount(100), g.Machine.Balance())
	g.Stop()
}
