package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendsim/vendsim/catalog"
	"github.com/vendsim/vendsim/log2"
	"github.com/vendsim/vendsim/state"
)

func testServer(t *testing.T) *Server {
	log := log2.NewTest(t, log2.LDebug)
	cfg, err := state.ParseConfig(log, []byte(`
seed {
  delay_ms = 1
  product "Espresso" { icon = "☕" price = 160 stock = 10 max_stock = 15 }
  product "Chocolate" { icon = "🍫" price = 150 stock = 0 max_stock = 15 }
}`))
	require.NoError(t, err)
	ctx, g := state.NewContext(log)
	require.NoError(t, g.Init(ctx, cfg))
	t.Cleanup(g.Stop)
	return NewServer(g)
}

func do(t *testing.T, h http.Handler, method, path, body string, out interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), "body=%s", w.Body.String())
	}
	return w
}

func TestVendingFlow(t *testing.T) {
	t.Parallel()
	s := testServer(t)
	r := s.Router()

	var products []catalog.Product
	w := do(t, r, "GET", "/products", "", &products)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, products, 2)
	espresso, chocolate := products[0], products[1]

	for _, n := range []int{100, 50, 20} {
		w = do(t, r, "POST", fmt.Sprintf("/coins/%d", n), "", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	var st statusView
	do(t, r, "GET", "/status", "", &st)
	assert.Equal(t, uint32(170), uint32(st.Balance))

	// unsupported coin is rejected
	w = do(t, r, "POST", "/coins/25", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// select sold-out product
	w = do(t, r, "POST", "/selection/"+chocolate.ID, "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, "POST", "/selection/"+espresso.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var d dispenseView
	w = do(t, r, "POST", "/purchase", "", &d)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint32(10), uint32(d.ChangeAmount))
	assert.Equal(t, 9, d.Product.Stock)

	// balance is zero now, refund reports no balance but stays 200
	var ref refundView
	w = do(t, r, "POST", "/refund", "", &ref)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint32(0), uint32(ref.Amount))
}

func TestInsufficientFunds(t *testing.T) {
	t.Parallel()
	s := testServer(t)
	r := s.Router()

	var products []catalog.Product
	do(t, r, "GET", "/products", "", &products)
	do(t, r, "POST", "/coins/100", "", nil)
	do(t, r, "POST", "/selection/"+products[0].ID, "", nil)

	var ev errorView
	w := do(t, r, "POST", "/purchase", "", &ev)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	require.NotNil(t, ev.Shortfall)
	assert.Equal(t, uint32(60), uint32(*ev.Shortfall))
}

func TestAdminCRUD(t *testing.T) {
	t.Parallel()
	s := testServer(t)
	r := s.Router()

	var created catalog.Product
	w := do(t, r, "POST", "/admin/products/",
		`{"name":"Juice","icon":"🧃","price":200,"quantity":5,"maxQuantity":10}`, &created)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, created.ID)

	// invalid price rejected
	w = do(t, r, "POST", "/admin/products/",
		`{"name":"Odd","price":13,"quantity":1,"maxQuantity":5}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var updated catalog.Product
	w = do(t, r, "PUT", "/admin/products/"+created.ID, `{"price":250}`, &updated)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint32(250), uint32(updated.Price))
	assert.Equal(t, "Juice", updated.Name)

	w = do(t, r, "POST", "/admin/products/"+created.ID+"/stock", `{"delta":5}`, &updated)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, updated.Stock)

	w = do(t, r, "POST", "/admin/products/"+created.ID+"/stock", `{"delta":1}`, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, "DELETE", "/admin/products/"+created.ID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, "DELETE", "/admin/products/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	s := testServer(t)

	var body map[string]string
	w := do(t, s.Router(), "GET", "/healthz", "", &body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["uptime"])
}
