package state

import (
	"os"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"

	"github.com/vendsim/vendsim/catalog"
	"github.com/vendsim/vendsim/currency"
	"github.com/vendsim/vendsim/head/vend"
	"github.com/vendsim/vendsim/log2"
)

type Config struct {
	Money struct {
		// Scale multiplies config prices and nominals into minor units.
		Scale    int   `hcl:"scale"`
		Nominals []int `hcl:"nominals"`
	}

	Persist struct {
		Root string `hcl:"root"`
	}

	Seed struct {
		DelayMs  int           `hcl:"delay_ms"`
		Products []SeedProduct `hcl:"product"`
	}

	UI struct {
		Front struct {
			MsgIntro     string `hcl:"msg_intro"`
			MsgCredit    string `hcl:"msg_credit"`
			MsgSelected  string `hcl:"msg_selected"`
			MsgShortfall string `hcl:"msg_shortfall"`
			MsgSoldOut   string `hcl:"msg_sold_out"`
			MsgDispense  string `hcl:"msg_dispense"`
			MsgChange    string `hcl:"msg_change"`
			MsgRefunded  string `hcl:"msg_refunded"`
			MsgNoBalance string `hcl:"msg_no_balance"`
		}
	}

	Listen struct {
		HTTP string `hcl:"http"`
	}
}

type SeedProduct struct {
	Name     string `hcl:"name,key"`
	Icon     string `hcl:"icon"`
	Price    int    `hcl:"price"`
	Stock    int    `hcl:"stock"`
	MaxStock int    `hcl:"max_stock"`
}

func (c *Config) ScaleI(i int) currency.Amount {
	return currency.Amount(i) * currency.Amount(c.Money.Scale)
}

func (c *Config) SeedDelay() time.Duration {
	return time.Duration(c.Seed.DelayMs) * time.Millisecond
}

// Nominals builds the accepted denomination set, scaled, and asserts
// greedy change stays correct for it.
func (c *Config) Nominals() (currency.Nominals, error) {
	ns := make([]currency.Nominal, 0, len(c.Money.Nominals))
	for _, n := range c.Money.Nominals {
		if n <= 0 {
			return nil, errors.NotValidf("config: money.nominal=%d", n)
		}
		ns = append(ns, currency.Nominal(c.ScaleI(n)))
	}
	set, err := currency.NewNominals(ns...)
	if err != nil {
		return nil, errors.Annotate(err, "config: money.nominals")
	}
	if err := set.CheckCanonical(); err != nil {
		return nil, errors.Annotate(err, "config: money.nominals")
	}
	return set, nil
}

// SeedDrafts converts configured seed products, empty means built-in.
func (c *Config) SeedDrafts() []catalog.Draft {
	if len(c.Seed.Products) == 0 {
		return nil
	}
	ds := make([]catalog.Draft, 0, len(c.Seed.Products))
	for _, sp := range c.Seed.Products {
		ds = append(ds, catalog.Draft{
			Name:     sp.Name,
			Icon:     sp.Icon,
			Price:    c.ScaleI(sp.Price),
			Stock:    sp.Stock,
			MaxStock: sp.MaxStock,
		})
	}
	return ds
}

func (c *Config) Messages() vend.Messages {
	f := c.UI.Front
	return vend.Messages{
		Intro:     f.MsgIntro,
		Credit:    f.MsgCredit,
		Selected:  f.MsgSelected,
		Shortfall: f.MsgShortfall,
		SoldOut:   f.MsgSoldOut,
		Dispense:  f.MsgDispense,
		Change:    f.MsgChange,
		Refunded:  f.MsgRefunded,
		NoBalance: f.MsgNoBalance,
	}
}

func (c *Config) normalize(log *log2.Log) {
	if c.Money.Scale == 0 {
		c.Money.Scale = 1
		log.Debugf("config: money.scale default=1")
	}
	if len(c.Money.Nominals) == 0 {
		c.Money.Nominals = []int{5, 10, 20, 50, 100, 200}
		log.Debugf("config: money.nominals default=%v", c.Money.Nominals)
	}
	if c.Seed.DelayMs == 0 {
		c.Seed.DelayMs = 500
	}
}

func ParseConfig(log *log2.Log, b []byte) (*Config, error) {
	c := &Config{}
	if err := hcl.Unmarshal(b, c); err != nil {
		return nil, errors.Annotate(err, "config unmarshal")
	}
	c.normalize(log)
	if c.Money.Scale < 0 {
		return nil, errors.NotValidf("config: money.scale < 0")
	}
	if _, err := c.Nominals(); err != nil {
		return nil, err
	}
	return c, nil
}

func ReadConfig(log *log2.Log, path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "config path=%s", path)
	}
	return ParseConfig(log, b)
}

func MustReadConfig(log *log2.Log, path string) *Config {
	c, err := ReadConfig(log, path)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
