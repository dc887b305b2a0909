package state

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/atomic_clock"

	"github.com/vendsim/vendsim/catalog"
	"github.com/vendsim/vendsim/currency"
	"github.com/vendsim/vendsim/head/money"
	"github.com/vendsim/vendsim/head/vend"
	"github.com/vendsim/vendsim/log2"
	"github.com/vendsim/vendsim/state/persist"
)

type Global struct {
	Alive    *alive.Alive
	Config   *Config
	Log      *log2.Log
	Accept   currency.Nominals
	Catalog  *catalog.Store
	Acceptor *money.Acceptor
	Machine  *vend.Machine
	Persist  persist.Persist

	started *atomic_clock.Clock
}

const ContextKey = "run/state-global"

func NewContext(log *log2.Log) (context.Context, *Global) {
	if log == nil {
		panic("code error state.NewContext() log=nil")
	}
	g := &Global{
		Alive:   alive.NewAlive(),
		Log:     log,
		started: atomic_clock.Now(),
	}
	ctx := context.WithValue(context.Background(), ContextKey, g)
	return ctx, g
}

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

// If `Init` fails, consider `Global` is in broken state.
func (g *Global) Init(ctx context.Context, cfg *Config) error {
	g.Config = cfg
	cfg.normalize(g.Log)

	accept, err := cfg.Nominals()
	if err != nil {
		return errors.Trace(err)
	}
	g.Accept = accept

	g.Catalog = catalog.NewStore(g.Log, accept)
	if cfg.Persist.Root == "" {
		g.Log.Infof("config: persist.root=empty, catalog will not survive restart")
	}
	if err := g.Persist.Init("catalog", g.Catalog, cfg.Persist.Root, g.Log); err != nil {
		return errors.Annotate(err, "persist init")
	}
	if err := g.Persist.Load(); err != nil {
		// stored snapshot is broken, reseed below
		g.Error(err)
	}
	if g.Catalog.Len() == 0 {
		if err := g.seed(ctx); err != nil {
			return errors.Annotate(err, "seed")
		}
	}
	// runtime mutations persist best-effort
	g.Catalog.SetOnChange(g.Persist.StoreOrLog)

	g.Acceptor = money.NewAcceptor(g.Log, accept)
	g.Machine = vend.NewMachine(g.Log, g.Catalog, g.Acceptor, accept, cfg.Messages())
	g.Log.Debugf("global init done products=%d nominals=%d", g.Catalog.Len(), len(accept))
	return nil
}

func (g *Global) MustInit(ctx context.Context, cfg *Config) {
	if err := g.Init(ctx, cfg); err != nil {
		g.Log.Fatal(errors.ErrorStack(err))
	}
}

func (g *Global) seed(ctx context.Context) error {
	src := catalog.SeedSource{
		Delay:  g.Config.SeedDelay(),
		Drafts: g.Config.SeedDrafts(),
	}
	g.Log.Infof("catalog is empty, fetching seed delay=%v", src.Delay)
	drafts, err := src.Fetch(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	for _, d := range drafts {
		if _, err := g.Catalog.Create(d); err != nil {
			return errors.Trace(err)
		}
	}
	g.Persist.StoreOrLog()
	return nil
}

func (g *Global) Error(err error, args ...interface{}) {
	if err == nil {
		return
	}
	if len(args) != 0 {
		msg := args[0].(string)
		err = errors.Annotatef(err, msg, args[1:]...)
	}
	g.Log.Errorf(errors.ErrorStack(err))
}

func (g *Global) Uptime() time.Duration { return atomic_clock.Since(g.started) }

// Stop ends background tasks (web server, prompt loop) and waits.
func (g *Global) Stop() {
	g.Alive.Stop()
	g.Alive.Wait()
}
