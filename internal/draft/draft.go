// Package draft holds the per-store order being assembled before it is sent.
package draft

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"pedidos/internal/model"
	"pedidos/internal/textnorm"
)

// Stores is the fixed list of store names in display order.
var Stores = []string{"Loja 1", "Loja 2", "Loja 3", "Loja 4", "Loja 5", "Loja 6"}

const DefaultStore = "Loja 5"

var (
	ErrUnknownStore    = errors.New("unknown store")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrItemNotFound    = errors.New("item not in draft")
)

var fraction = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s*/\s*(\d+(?:[.,]\d+)?)$`)

// ParseQuantity reads a quantity typed by a user: "2", "1,5" or "1/2".
// Units require a whole number.
func ParseQuantity(raw string, unit model.Unit) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	var q float64
	if m := fraction.FindStringSubmatch(s); m != nil {
		a, okA := textnorm.ParseNumber(m[1])
		b, okB := textnorm.ParseNumber(m[2])
		if !okA || !okB || b <= 0 {
			return 0, false
		}
		q = a / b
	} else {
		v, ok := textnorm.ParseNumber(s)
		if !ok {
			return 0, false
		}
		q = v
	}
	if !ValidQuantity(q, unit) {
		return 0, false
	}
	return q, true
}

// ValidQuantity reports whether q is a usable quantity for unit.
func ValidQuantity(q float64, unit model.Unit) bool {
	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
		return false
	}
	if unit == model.UnitUnidade && q != math.Trunc(q) {
		return false
	}
	return true
}

// IsStore reports whether name is one of Stores.
func IsStore(name string) bool {
	for _, s := range Stores {
		if s == name {
			return true
		}
	}
	return false
}

// Draft is the persisted shape: the selected store plus every store's items.
type Draft struct {
	Store        string                       `json:"loja"`
	ItemsByStore map[string][]model.OrderItem `json:"itemsByLoja"`
}

func New() *Draft {
	return &Draft{Store: DefaultStore, ItemsByStore: map[string][]model.OrderItem{}}
}

func (d *Draft) Select(store string) error {
	if !IsStore(store) {
		return fmt.Errorf("%w: %q", ErrUnknownStore, store)
	}
	d.Store = store
	return nil
}

// Items returns a copy of the selected store's items.
func (d *Draft) Items() []model.OrderItem {
	return append([]model.OrderItem(nil), d.ItemsByStore[d.Store]...)
}

// HasItems reports whether any store has at least one item.
func (d *Draft) HasItems() bool {
	for _, list := range d.ItemsByStore {
		if len(list) > 0 {
			return true
		}
	}
	return false
}

// Add puts qty of p into the selected store, summing with an existing line.
func (d *Draft) Add(p model.Product, qty float64) error {
	if !ValidQuantity(qty, p.Unit) {
		return fmt.Errorf("%w: %v", ErrInvalidQuantity, qty)
	}
	d.ensure()
	list := d.ItemsByStore[d.Store]
	for i := range list {
		if list[i].ProductID == p.ID {
			list[i].Quantity += qty
			return nil
		}
	}
	d.ItemsByStore[d.Store] = append(list, model.NewOrderItem(p, qty))
	return nil
}

// Increment changes a line by delta, clamping at zero. A line reaching zero is removed.
func (d *Draft) Increment(productID string, delta float64) error {
	list := d.ItemsByStore[d.Store]
	i := indexOf(list, productID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, productID)
	}
	q := math.Max(0, list[i].Quantity+delta)
	if q <= 0 {
		d.ItemsByStore[d.Store] = append(list[:i:i], list[i+1:]...)
		return nil
	}
	list[i].Quantity = q
	return nil
}

// SetQuantity replaces a line's quantity with the parsed raw value.
func (d *Draft) SetQuantity(productID, raw string) error {
	list := d.ItemsByStore[d.Store]
	i := indexOf(list, productID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, productID)
	}
	q, ok := ParseQuantity(raw, list[i].Unit)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidQuantity, raw)
	}
	list[i].Quantity = q
	return nil
}

func (d *Draft) Remove(productID string) bool {
	list := d.ItemsByStore[d.Store]
	i := indexOf(list, productID)
	if i < 0 {
		return false
	}
	d.ItemsByStore[d.Store] = append(list[:i:i], list[i+1:]...)
	return true
}

// Clear empties the selected store.
func (d *Draft) Clear() {
	d.ensure()
	d.ItemsByStore[d.Store] = []model.OrderItem{}
}

// Orders lists every store in display order: known stores first, then any
// other stored names in collation order.
func (d *Draft) Orders() []model.StoreOrder {
	out := make([]model.StoreOrder, 0, len(d.ItemsByStore))
	for _, s := range Stores {
		if list, ok := d.ItemsByStore[s]; ok {
			out = append(out, model.StoreOrder{Store: s, Items: append([]model.OrderItem(nil), list...)})
		}
	}
	var extra []model.StoreOrder
	for s, list := range d.ItemsByStore {
		if IsStore(s) {
			continue
		}
		extra = append(extra, model.StoreOrder{Store: s, Items: append([]model.OrderItem(nil), list...)})
	}
	textnorm.SortByName(extra, func(o model.StoreOrder) string { return o.Store })
	return append(out, extra...)
}

func (d *Draft) ensure() {
	if d.ItemsByStore == nil {
		d.ItemsByStore = map[string][]model.OrderItem{}
	}
}

func indexOf(list []model.OrderItem, productID string) int {
	for i := range list {
		if list[i].ProductID == productID {
			return i
		}
	}
	return -1
}
