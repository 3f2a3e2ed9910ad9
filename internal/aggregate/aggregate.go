// Package aggregate turns a pasted multi-line order into per-product totals
// with a per-store breakdown and line-level diagnostics.
package aggregate

import (
	"fmt"
	"strings"

	"pedidos/internal/lineparse"
	"pedidos/internal/model"
	"pedidos/internal/resolve"
	"pedidos/internal/textnorm"
)

const reasonNoQuantity = "sem quantidade"

// Options tunes a parse pass. AssumeBagQuantity <= 0 disables the assumption.
type Options struct {
	AssumeBagQuantity float64 `json:"assumeBagQuantity"`
}

// Result is plain data; it holds no references into the catalog.
type Result struct {
	Items                []model.OrderItem    `json:"items"`
	InvalidLines         []string             `json:"invalidLines"`
	UnknownProductLines  []string             `json:"unknownProductLines"`
	AssumedQuantityLines []string             `json:"assumedQuantityLines"`
	UnitMismatchLines    []string             `json:"unitMismatchLines"`
	StoreBreakdown       model.StoreBreakdown `json:"storeBreakdownByProduct"`
}

// Diagnostics is the number of lines that need the user's attention.
func (r Result) Diagnostics() int {
	return len(r.InvalidLines) + len(r.UnknownProductLines) + len(r.UnitMismatchLines)
}

// pass is the accumulator folded over the input lines.
type pass struct {
	opts         Options
	idx          *resolve.Index
	currentStore int
	items        map[string]*model.OrderItem
	order        []string
	res          Result
}

// ParseOrderText interprets text against catalog. Identical inputs give identical results.
func ParseOrderText(text string, catalog []model.Product, opts Options) Result {
	return ParseWithIndex(text, resolve.NewIndex(catalog), opts)
}

// ParseWithIndex is ParseOrderText with a prebuilt index.
func ParseWithIndex(text string, idx *resolve.Index, opts Options) Result {
	p := &pass{
		opts:  opts,
		idx:   idx,
		items: make(map[string]*model.OrderItem),
		res: Result{
			InvalidLines:         []string{},
			UnknownProductLines:  []string{},
			AssumedQuantityLines: []string{},
			UnitMismatchLines:    []string{},
			StoreBreakdown:       model.StoreBreakdown{},
		},
	}
	for _, line := range SplitLines(text) {
		p.step(line)
	}
	return p.finish()
}

// SplitLines splits on LF or CRLF and trims each line.
func SplitLines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, len(raw))
	for i, l := range raw {
		out[i] = strings.TrimSpace(l)
	}
	return out
}

func (p *pass) step(line string) {
	if store, ok := lineparse.StoreNumber(line); ok {
		p.currentStore = store
		return
	}

	parsed := lineparse.Parse(line)
	switch parsed.Kind {
	case lineparse.Skip:
		return
	case lineparse.Invalid:
		p.res.InvalidLines = append(p.res.InvalidLines, fmt.Sprintf("%s (%s)", line, parsed.Reason))
		return
	}

	prod, ok := p.idx.Resolve(parsed.NameRaw)
	if !ok {
		p.res.UnknownProductLines = append(p.res.UnknownProductLines, line)
		return
	}

	var qty float64
	switch {
	case parsed.Quantity != nil:
		qty = *parsed.Quantity
	case prod.Unit == model.UnitSaco && p.opts.AssumeBagQuantity > 0:
		qty = p.opts.AssumeBagQuantity
		p.res.AssumedQuantityLines = append(p.res.AssumedQuantityLines, line)
	default:
		p.res.InvalidLines = append(p.res.InvalidLines, fmt.Sprintf("%s (%s)", line, reasonNoQuantity))
		return
	}

	if parsed.UnitHint != nil && *parsed.UnitHint != prod.Unit {
		p.res.UnitMismatchLines = append(p.res.UnitMismatchLines,
			fmt.Sprintf("%s (texto: %s, cadastro: %s)", line, *parsed.UnitHint, prod.Unit))
	}

	p.accumulate(prod, qty)
}

func (p *pass) accumulate(prod model.Product, qty float64) {
	if it, ok := p.items[prod.ID]; ok {
		it.Quantity += qty
	} else {
		it := model.NewOrderItem(prod, qty)
		p.items[prod.ID] = &it
		p.order = append(p.order, prod.ID)
	}
	if p.currentStore > 0 {
		p.res.StoreBreakdown.Add(prod.ID, p.currentStore, qty)
	}
}

func (p *pass) finish() Result {
	items := make([]model.OrderItem, 0, len(p.order))
	for _, id := range p.order {
		items = append(items, *p.items[id])
	}
	textnorm.SortByName(items, func(it model.OrderItem) string { return it.Name })
	p.res.Items = items
	return p.res
}
