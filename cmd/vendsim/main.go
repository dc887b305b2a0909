package main

import (
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/juju/errors"

	"github.com/vendsim/vendsim/head/ui"
	"github.com/vendsim/vendsim/head/web"
	"github.com/vendsim/vendsim/log2"
	"github.com/vendsim/vendsim/state"
)

func main() {
	// .env is optional, flags and real env win
	_ = godotenv.Load()

	flagConfig := flag.String("config", envDefault("VENDSIM_CONFIG", "vendsim.hcl"), "config file path")
	flagHTTP := flag.String("http", os.Getenv("VENDSIM_HTTP"), "serve JSON API on addr, overrides config listen.http")
	flagDebug := flag.Bool("debug", false, "")
	flag.Parse()

	log := log2.NewStderr(log2.LInfo)
	log.SetFlags(log2.LInteractiveFlags)
	if *flagDebug {
		log.SetLevel(log2.LDebug)
	}

	config, err := state.ReadConfig(log, *flagConfig)
	if err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			log.Fatal(errors.ErrorStack(err))
		}
		// no config file, run with defaults and the built-in seed
		log.Infof("config %s not found, using defaults", *flagConfig)
		config, err = state.ParseConfig(log, nil)
		if err != nil {
			log.Fatal(errors.ErrorStack(err))
		}
	}
	ctx, g := state.NewContext(log)
	g.MustInit(ctx, config)

	addr := config.Listen.HTTP
	if *flagHTTP != "" {
		addr = *flagHTTP
	}
	if addr != "" {
		srv := web.NewServer(g)
		g.Alive.Add(1)
		go func() {
			defer g.Alive.Done()
			log.Infof("http listen=%s", addr)
			if err := srv.Run(addr); err != nil {
				g.Error(err)
				g.Alive.Stop()
			}
		}()
	}

	ui.NewFront(g).Run()
	// piped stdin ran out, or prompt loop returned
	g.Stop()
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
