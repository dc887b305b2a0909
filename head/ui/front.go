// Package ui is the line-oriented operator front. Same core calls as
// the web boundary, rendered for a terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/juju/errors"

	"github.com/vendsim/vendsim/catalog"
	"github.com/vendsim/vendsim/currency"
	"github.com/vendsim/vendsim/head/money"
	"github.com/vendsim/vendsim/helpers"
	"github.com/vendsim/vendsim/helpers/cli"
	"github.com/vendsim/vendsim/state"
)

const usage = `commands:
  status              session state, balance, selection
  list                products with price and stock
  coin <nominal>      insert a coin, e.g. coin 50
  select <n|id>       pick a product by list number or id
  buy                 purchase the selection
  refund              return the balance
  admin               toggle admin commands
  exit                stop
admin commands:
  add <name> <price> <stock> <max> [icon]
  price <n|id> <amount>   amounts in major units, e.g. price 1 2.50
  restock <n|id> <delta>
  delete <n|id>`

type Front struct {
	g     *state.Global
	w     io.Writer
	exit  func(code int)
	admin bool
}

func NewFront(g *state.Global) *Front {
	return &Front{g: g, w: os.Stdout, exit: os.Exit}
}

func (self *Front) Run() {
	fmt.Fprintln(self.w, self.g.Machine.Message())
	cli.MainLoop("vendsim", self.Exec, self.Complete)
}

func (self *Front) Exec(line string) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return
	}
	cmd, args := words[0], words[1:]

	var err error
	switch cmd {
	case "help", "?":
		fmt.Fprintln(self.w, usage)
	case "status":
		self.printStatus()
	case "list", "ls":
		self.printList()
	case "coin":
		err = self.coin(args)
	case "select", "sel":
		err = self.selectProduct(args)
	case "buy":
		err = self.buy()
	case "refund":
		err = self.refund()
	case "admin":
		self.admin = !self.admin
		fmt.Fprintf(self.w, "admin=%t\n", self.admin)
	case "add":
		err = self.adminOnly(func() error { return self.add(args) })
	case "price":
		err = self.adminOnly(func() error { return self.price(args) })
	case "restock":
		err = self.adminOnly(func() error { return self.restock(args) })
	case "delete", "del":
		err = self.adminOnly(func() error { return self.delete(args) })
	case "exit", "quit":
		// wait for background tasks (http shutdown) before leaving
		self.g.Stop()
		self.exit(0)
	default:
		err = errors.Errorf("unknown command %q, try help", cmd)
	}
	if err != nil {
		fmt.Fprintf(self.w, "error: %v\n", err)
	}
}

func (self *Front) printStatus() {
	st := self.g.Machine.Status()
	fmt.Fprintf(self.w, "state=%s balance=%s", st.State.String(), st.Balance.Format100I())
	if st.Credit != "" {
		fmt.Fprintf(self.w, " coins=%s", st.Credit)
	}
	if st.Selected != nil {
		fmt.Fprintf(self.w, " selected=%s", st.Selected.Name)
	}
	fmt.Fprintf(self.w, "\n%s\n", st.Message)
}

func (self *Front) printList() {
	for i, p := range self.g.Catalog.List() {
		mark := ""
		if p.Stock == 0 {
			mark = " SOLD OUT"
		}
		fmt.Fprintf(self.w, "%2d. %s %s %s stock=%d/%d%s\n",
			i+1, p.Icon, p.Name, p.Price.Format100I(), p.Stock, p.MaxStock, mark)
	}
}

func (self *Front) coin(args []string) error {
	if len(args) != 1 {
		return errors.Errorf("usage: coin <nominal>")
	}
	v, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return errors.Errorf("bad nominal %q", args[0])
	}
	if _, err := self.g.Machine.Insert(currency.Nominal(v)); err != nil {
		return err
	}
	fmt.Fprintln(self.w, self.g.Machine.Message())
	return nil
}

func (self *Front) selectProduct(args []string) error {
	if len(args) != 1 {
		return errors.Errorf("usage: select <n|id>")
	}
	id, err := self.resolve(args[0])
	if err != nil {
		return err
	}
	if _, err := self.g.Machine.Select(id); err != nil {
		return err
	}
	fmt.Fprintln(self.w, self.g.Machine.Message())
	return nil
}

func (self *Front) buy() error {
	d, err := self.g.Machine.Purchase()
	if err != nil {
		return err
	}
	fmt.Fprintf(self.w, "%s %s\n", d.Product.Icon, self.g.Machine.Message())
	return nil
}

func (self *Front) refund() error {
	if _, err := self.g.Machine.Refund(); err != nil && errors.Cause(err) != money.ErrNoBalance {
		return err
	}
	fmt.Fprintln(self.w, self.g.Machine.Message())
	return nil
}

func (self *Front) adminOnly(f func() error) error {
	if !self.admin {
		return errors.Errorf("admin command, run `admin` first")
	}
	return f()
}

func (self *Front) add(args []string) error {
	if len(args) < 4 {
		return errors.Errorf("usage: add <name> <price> <stock> <max> [icon]")
	}
	price, err1 := currency.ParseAmount(args[1])
	stock, err2 := strconv.Atoi(args[2])
	max, err3 := strconv.Atoi(args[3])
	if err := helpers.FoldErrors([]error{err1, err2, err3}); err != nil {
		return errors.Annotate(err, "add: bad number")
	}
	d := catalog.Draft{Name: args[0], Price: price, Stock: stock, MaxStock: max}
	if len(args) > 4 {
		d.Icon = args[4]
	}
	p, err := self.g.Catalog.Create(d)
	if err != nil {
		return err
	}
	fmt.Fprintf(self.w, "added %s id=%s\n", p.Name, p.ID)
	return nil
}

func (self *Front) price(args []string) error {
	if len(args) != 2 {
		return errors.Errorf("usage: price <n|id> <amount>")
	}
	id, err := self.resolve(args[0])
	if err != nil {
		return err
	}
	price, err := currency.ParseAmount(args[1])
	if err != nil {
		return errors.Annotatef(err, "price")
	}
	p, err := self.g.Catalog.Update(id, catalog.Fields{Price: &price})
	if err != nil {
		return err
	}
	fmt.Fprintf(self.w, "%s price=%s\n", p.Name, p.Price.Format100I())
	return nil
}

func (self *Front) restock(args []string) error {
	if len(args) != 2 {
		return errors.Errorf("usage: restock <n|id> <delta>")
	}
	id, err := self.resolve(args[0])
	if err != nil {
		return err
	}
	delta, err := strconv.Atoi(args[1])
	if err != nil {
		return errors.Errorf("bad delta %q", args[1])
	}
	p, err := self.g.Catalog.AdjustStock(id, delta)
	if err != nil {
		return err
	}
	fmt.Fprintf(self.w, "%s stock=%d/%d\n", p.Name, p.Stock, p.MaxStock)
	return nil
}

func (self *Front) delete(args []string) error {
	if len(args) != 1 {
		return errors.Errorf("usage: delete <n|id>")
	}
	id, err := self.resolve(args[0])
	if err != nil {
		return err
	}
	if err := self.g.Catalog.Delete(id); err != nil {
		return err
	}
	fmt.Fprintf(self.w, "deleted %s\n", id)
	return nil
}

// resolve accepts a 1-based list number or a full product id.
func (self *Front) resolve(arg string) (string, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		ps := self.g.Catalog.List()
		if n < 1 || n > len(ps) {
			return "", errors.Errorf("no product #%d", n)
		}
		return ps[n-1].ID, nil
	}
	return arg, nil
}

func (self *Front) Complete(d prompt.Document) []prompt.Suggest {
	suggests := []prompt.Suggest{
		{Text: "status", Description: "session state and balance"},
		{Text: "list", Description: "products"},
		{Text: "coin", Description: "insert a coin"},
		{Text: "select", Description: "pick a product"},
		{Text: "buy", Description: "purchase the selection"},
		{Text: "refund", Description: "return the balance"},
		{Text: "admin", Description: "toggle admin commands"},
		{Text: "help", Description: "show usage"},
		{Text: "exit", Description: "stop"},
	}
	if self.admin {
		suggests = append(suggests,
			prompt.Suggest{Text: "add", Description: "add a product"},
			prompt.Suggest{Text: "price", Description: "change a price"},
			prompt.Suggest{Text: "restock", Description: "adjust stock"},
			prompt.Suggest{Text: "delete", Description: "remove a product"},
		)
	}
	text := d.TextBeforeCursor()
	if strings.Contains(text, " ") {
		cmd := strings.Fields(text)[0]
		switch cmd {
		case "coin":
			out := make([]prompt.Suggest, 0, len(self.g.Accept))
			for _, n := range self.g.Accept {
				out = append(out, prompt.Suggest{
					Text:        strconv.FormatUint(uint64(n), 10),
					Description: currency.Amount(n).Format100I(),
				})
			}
			return out
		case "select", "sel", "price", "restock", "delete", "del":
			ps := self.g.Catalog.List()
			out := make([]prompt.Suggest, 0, len(ps))
			for i, p := range ps {
				out = append(out, prompt.Suggest{
					Text:        strconv.Itoa(i + 1),
					Description: fmt.Sprintf("%s %s", p.Name, p.Price.Format100I()),
				})
			}
			return out
		}
		return nil
	}
	return prompt.FilterHasPrefix(suggests, d.GetWordBeforeCursor(), true)
}
