// Package web is a JSON presentation boundary over the vending core.
// It holds no state of its own; every handler is a thin translation
// to Machine or Catalog calls.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vendsim/vendsim/log2"
	"github.com/vendsim/vendsim/state"
)

type Server struct {
	g   *state.Global
	log *log2.Log
}

func NewServer(g *state.Global) *Server {
	return &Server{g: g, log: g.Log}
}

func (self *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", self.healthz)
	r.Get("/status", self.status)
	r.Get("/products", self.listProducts)
	r.Post("/coins/{nominal}", self.insertCoin)
	r.Post("/selection/{id}", self.selectProduct)
	r.Post("/purchase", self.purchase)
	r.Post("/refund", self.refund)

	// admin mode is a UI surface, not an access-control boundary
	r.Route("/admin/products", func(r chi.Router) {
		r.Post("/", self.createProduct)
		r.Put("/{id}", self.updateProduct)
		r.Delete("/{id}", self.deleteProduct)
		r.Post("/{id}/stock", self.adjustStock)
	})
	return r
}

// Run serves until Global.Alive stops.
func (self *Server) Run(addr string) error {
	srv := &http.Server{Addr: addr, Handler: self.Router()}
	go func() {
		<-self.g.Alive.StopChan()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		err = nil
	}
	return err
}
