// Package compose renders order items as WhatsApp messages and printable checklists.
package compose

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"pedidos/internal/model"
	"pedidos/internal/textnorm"
)

// Line is one printable row. ID is the product id.
type Line struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Section groups the lines of one category.
type Section struct {
	Category model.Category `json:"categoria"`
	Label    string         `json:"categoryLabel"`
	Lines    []Line         `json:"lines"`
}

// StoreSections is the print view of one store.
type StoreSections struct {
	Store    string    `json:"loja"`
	Sections []Section `json:"sections"`
}

// FormatNumber renders integers bare and decimals with a comma.
func FormatNumber(n float64) string {
	if n == math.Trunc(n) && !math.IsInf(n, 0) {
		return strconv.FormatFloat(n, 'f', 0, 64)
	}
	return strings.Replace(strconv.FormatFloat(n, 'f', -1, 64), ".", ",", 1)
}

// FormatQuantity renders "1s", "1,5kg" or "150 un".
func FormatQuantity(it model.OrderItem) string {
	raw := FormatNumber(it.Quantity)
	switch it.Unit {
	case model.UnitSaco:
		return raw + "s"
	case model.UnitKg:
		return raw + "kg"
	default:
		return raw + " un"
	}
}

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴',
	'5': '⁵', '6': '⁶', '7': '⁷', '8': '⁸', '9': '⁹',
	',': '˙', '.': '˙', '-': '⁻', '/': '⁄',
}

// Superscript renders n with superscript glyphs.
func Superscript(n float64) string {
	return strings.Map(func(r rune) rune {
		if s, ok := superscripts[r]; ok {
			return s
		}
		return r
	}, FormatNumber(n))
}

func groupByCategory(items []model.OrderItem) map[model.Category][]model.OrderItem {
	out := make(map[model.Category][]model.OrderItem)
	for _, it := range items {
		c := it.Category
		if !c.Valid() {
			c = model.CategoryOutros
		}
		out[c] = append(out[c], it)
	}
	return out
}

func sections(items []model.OrderItem, text func(model.OrderItem) string) []Section {
	groups := groupByCategory(items)
	out := []Section{}
	for _, cat := range model.CategoryOrder {
		list := groups[cat]
		if len(list) == 0 {
			continue
		}
		sorted := append([]model.OrderItem(nil), list...)
		textnorm.SortByName(sorted, func(it model.OrderItem) string { return it.Name })
		lines := make([]Line, 0, len(sorted))
		for _, it := range sorted {
			lines = append(lines, Line{ID: it.ProductID, Text: text(it)})
		}
		out = append(out, Section{Category: cat, Label: cat.Label(), Lines: lines})
	}
	return out
}

func itemText(it model.OrderItem) string {
	return it.Name + " " + FormatQuantity(it)
}

// Sections groups items by category in display order with "<name> <qty>" lines.
func Sections(items []model.OrderItem) []Section {
	return sections(items, itemText)
}

// ChecklistSections is Sections with the per-store annotation appended to every line.
func ChecklistSections(items []model.OrderItem, breakdown model.StoreBreakdown) []Section {
	return sections(items, func(it model.OrderItem) string {
		ann := StoreAnnotation(breakdown[it.ProductID])
		if ann == "" {
			return itemText(it) + "."
		}
		return itemText(it) + " " + ann + "."
	})
}

// StoreAnnotation renders "5² 6¹" for the stores with a positive quantity.
func StoreAnnotation(perStore map[int]float64) string {
	stores := make([]int, 0, len(perStore))
	for s, q := range perStore {
		if q > 0 {
			stores = append(stores, s)
		}
	}
	sort.Ints(stores)
	parts := make([]string, len(stores))
	for i, s := range stores {
		parts[i] = strconv.Itoa(s) + Superscript(perStore[s])
	}
	return strings.Join(parts, " ")
}

// StoreMessage builds the outgoing WhatsApp message for every store with items.
// With no items anywhere it is just "<selected> precisa".
func StoreMessage(orders []model.StoreOrder, selected string) string {
	var lines []string
	for _, o := range orders {
		if len(o.Items) == 0 {
			continue
		}
		lines = append(lines, o.Store+" precisa")
		for _, sec := range Sections(o.Items) {
			lines = append(lines, sec.Label)
			for _, l := range sec.Lines {
				lines = append(lines, l.Text)
			}
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		return selected + " precisa"
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// PrintSections is the per-store print view; stores without items are left out.
func PrintSections(orders []model.StoreOrder) []StoreSections {
	out := []StoreSections{}
	for _, o := range orders {
		if len(o.Items) == 0 {
			continue
		}
		out = append(out, StoreSections{Store: o.Store, Sections: Sections(o.Items)})
	}
	return out
}

// RenderSections renders sections as a plain-text checklist under title.
func RenderSections(title string, secs []Section) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteString("\n\n")
	}
	for i, s := range secs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(s.Label)
		b.WriteString("\n")
		for _, l := range s.Lines {
			b.WriteString("[ ] ")
			b.WriteString(l.Text)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RenderStoreSections renders every store block one after the other.
func RenderStoreSections(title string, stores []StoreSections) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteString("\n\n")
	}
	for i, s := range stores {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(RenderSections("== "+s.Store+" ==", s.Sections))
	}
	return b.String()
}
