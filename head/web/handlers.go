package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/juju/errors"

	"github.com/vendsim/vendsim/catalog"
	"github.com/vendsim/vendsim/currency"
	"github.com/vendsim/vendsim/head/money"
	"github.com/vendsim/vendsim/head/vend"
)

type statusView struct {
	State    string           `json:"state"`
	Balance  currency.Amount  `json:"balance"`
	Display  string           `json:"balance_display"`
	Credit   string           `json:"credit"`
	Selected *catalog.Product `json:"selected,omitempty"`
	Message  string           `json:"message"`
}

type dispenseView struct {
	Product       catalog.Product    `json:"product"`
	Change        []currency.Nominal `json:"change"`
	ChangeAmount  currency.Amount    `json:"change_amount"`
	ChangeDisplay string             `json:"change_display"`
	Message       string             `json:"message"`
}

type refundView struct {
	Coins   []currency.Nominal `json:"coins"`
	Amount  currency.Amount    `json:"amount"`
	Display string             `json:"amount_display"`
	Message string             `json:"message"`
}

type productReq struct {
	Name     *string `json:"name"`
	Icon     *string `json:"icon"`
	Price    *uint32 `json:"price"`
	Stock    *int    `json:"quantity"`
	MaxStock *int    `json:"maxQuantity"`
}

func (self *Server) healthz(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": self.g.Uptime().String(),
	})
}

func (self *Server) status(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, self.statusView())
}

func (self *Server) statusView() statusView {
	st := self.g.Machine.Status()
	return statusView{
		State:    st.State.String(),
		Balance:  st.Balance,
		Display:  st.Balance.Format100I(),
		Credit:   st.Credit,
		Selected: st.Selected,
		Message:  st.Message,
	}
}

func (self *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, self.g.Catalog.List())
}

func (self *Server) insertCoin(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "nominal")
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		self.respondError(w, errors.Annotatef(money.ErrUnsupportedNominal, "nominal=%q", raw))
		return
	}
	if _, err := self.g.Machine.Insert(currency.Nominal(v)); err != nil {
		self.respondError(w, err)
		return
	}
	respond(w, http.StatusOK, self.statusView())
}

func (self *Server) selectProduct(w http.ResponseWriter, r *http.Request) {
	if _, err := self.g.Machine.Select(chi.URLParam(r, "id")); err != nil {
		self.respondError(w, err)
		return
	}
	respond(w, http.StatusOK, self.statusView())
}

func (self *Server) purchase(w http.ResponseWriter, r *http.Request) {
	d, err := self.g.Machine.Purchase()
	if err != nil {
		self.respondError(w, err)
		return
	}
	respond(w, http.StatusOK, dispenseView{
		Product:       d.Product,
		Change:        emptyCoins(d.Change),
		ChangeAmount:  d.ChangeAmount,
		ChangeDisplay: d.ChangeAmount.Format100I(),
		Message:       self.g.Machine.Message(),
	})
}

func (self *Server) refund(w http.ResponseWriter, r *http.Request) {
	ref, err := self.g.Machine.Refund()
	if errors.Cause(err) == money.ErrNoBalance {
		// informational, not a failure
		respond(w, http.StatusOK, refundView{
			Coins:   []currency.Nominal{},
			Message: self.g.Machine.Message(),
		})
		return
	}
	if err != nil {
		self.respondError(w, err)
		return
	}
	respond(w, http.StatusOK, refundView{
		Coins:   emptyCoins(ref.Coins),
		Amount:  ref.Amount,
		Display: ref.Amount.Format100I(),
		Message: self.g.Machine.Message(),
	})
}

func (self *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		self.respondError(w, errors.NotValidf("body: %v", err))
		return
	}
	d := catalog.Draft{}
	if req.Name != nil {
		d.Name = *req.Name
	}
	if req.Icon != nil {
		d.Icon = *req.Icon
	}
	if req.Price != nil {
		d.Price = currency.Amount(*req.Price)
	}
	if req.Stock != nil {
		d.Stock = *req.Stock
	}
	if req.MaxStock != nil {
		d.MaxStock = *req.MaxStock
	}
	p, err := self.g.Catalog.Create(d)
	if err != nil {
		self.respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, p)
}

func (self *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		self.respondError(w, errors.NotValidf("body: %v", err))
		return
	}
	f := catalog.Fields{Name: req.Name, Icon: req.Icon, Stock: req.Stock, MaxStock: req.MaxStock}
	if req.Price != nil {
		price := currency.Amount(*req.Price)
		f.Price = &price
	}
	p, err := self.g.Catalog.Update(chi.URLParam(r, "id"), f)
	if err != nil {
		self.respondError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (self *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := self.g.Catalog.Delete(chi.URLParam(r, "id")); err != nil {
		self.respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"deleted": chi.URLParam(r, "id")})
}

func (self *Server) adjustStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		self.respondError(w, errors.NotValidf("body: %v", err))
		return
	}
	p, err := self.g.Catalog.AdjustStock(chi.URLParam(r, "id"), req.Delta)
	if err != nil {
		self.respondError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorView struct {
	Error     string           `json:"error"`
	Shortfall *currency.Amount `json:"shortfall,omitempty"`
}

func (self *Server) respondError(w http.ResponseWriter, err error) {
	view := errorView{Error: err.Error()}
	status := http.StatusInternalServerError
	cause := errors.Cause(err)
	switch {
	case cause == catalog.ErrNotFound:
		status = http.StatusNotFound
	case vend.IsInsufficientFunds(err):
		status = http.StatusPaymentRequired
		s := cause.(vend.InsufficientFundsError).Shortfall
		view.Shortfall = &s
	case cause == vend.ErrOutOfStock || cause == catalog.ErrStockOutOfRange:
		status = http.StatusConflict
	case cause == vend.ErrNoSelection ||
		cause == money.ErrUnsupportedNominal ||
		cause == catalog.ErrInvalidPrice ||
		cause == catalog.ErrInvalidStock ||
		cause == currency.ErrInvalidAmount ||
		errors.IsNotValid(err):
		status = http.StatusBadRequest
	default:
		self.log.Errorf("web: %v", err)
	}
	respond(w, status, view)
}

// keep JSON arrays instead of null for empty change
func emptyCoins(coins []currency.Nominal) []currency.Nominal {
	if coins == nil {
		return []currency.Nominal{}
	}
	return coins
}
