// Package resolve maps free-text product names onto catalog entries.
package resolve

import (
	"sort"
	"strings"
	"unicode/utf8"

	"pedidos/internal/model"
	"pedidos/internal/textnorm"
)

// DefaultSearchLimit caps autocomplete results.
const DefaultSearchLimit = 18

type entry struct {
	product  model.Product
	norm     string
	haystack string
}

// Index is built once per catalog snapshot. It is read-only after NewIndex.
type Index struct {
	entries []entry
	byName  map[string]int
}

func NewIndex(catalog []model.Product) *Index {
	idx := &Index{
		entries: make([]entry, 0, len(catalog)),
		byName:  make(map[string]int, len(catalog)),
	}
	for _, p := range catalog {
		n := textnorm.Normalize(p.Name)
		hay := textnorm.Normalize(strings.Join([]string{
			p.Name, p.Category.Label(), p.Unit.Label(), p.ChocolateType.Label(),
		}, " "))
		idx.entries = append(idx.entries, entry{product: p, norm: n, haystack: hay})
		if n != "" {
			// later duplicates win
			idx.byName[n] = len(idx.entries) - 1
		}
	}
	return idx
}

func (x *Index) Len() int { return len(x.entries) }

// Resolve returns the product for nameRaw: an exact normalized match first,
// then a substring match only when it is unique.
func (x *Index) Resolve(nameRaw string) (model.Product, bool) {
	key := textnorm.Normalize(nameRaw)
	if key == "" {
		return model.Product{}, false
	}
	if i, ok := x.byName[key]; ok {
		return x.entries[i].product, true
	}
	found := -1
	for i, e := range x.entries {
		if !strings.Contains(e.norm, key) {
			continue
		}
		if found >= 0 {
			return model.Product{}, false
		}
		found = i
	}
	if found < 0 {
		return model.Product{}, false
	}
	return x.entries[found].product, true
}

// Resolve is a convenience for one-off lookups against a catalog snapshot.
func Resolve(nameRaw string, catalog []model.Product) (model.Product, bool) {
	return NewIndex(catalog).Resolve(nameRaw)
}

type scored struct {
	product model.Product
	score   int
}

// Search ranks catalog entries for interactive autocomplete.
// An empty query returns the catalog in name order. limit <= 0 means DefaultSearchLimit.
func (x *Index) Search(query string, limit int) []model.Product {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := textnorm.Normalize(query)
	hits := make([]scored, 0, len(x.entries))
	for _, e := range x.entries {
		if q == "" {
			hits = append(hits, scored{product: e.product})
			continue
		}
		s, ok := Score(e.haystack, q)
		if !ok || s <= 0 {
			continue
		}
		hits = append(hits, scored{product: e.product, score: s})
	}
	textnorm.SortByName(hits, func(s scored) string { return s.product.Name })
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]model.Product, len(hits))
	for i, h := range hits {
		out[i] = h.product
	}
	return out
}

// Score rates how well the normalized query q matches the normalized haystack.
// Prefix beats substring, which beats an ordered subsequence; tighter is better.
func Score(haystack, q string) (int, bool) {
	if q == "" {
		return 0, true
	}
	if strings.HasPrefix(haystack, q) {
		return 1000 - utf8.RuneCountInString(haystack), true
	}
	if i := strings.Index(haystack, q); i >= 0 {
		return 800 - utf8.RuneCountInString(haystack[:i]), true
	}
	h := []rune(haystack)
	qi := 0
	qr := []rune(q)
	gaps := 0
	last := -1
	for i := 0; i < len(h) && qi < len(qr); i++ {
		if h[i] != qr[qi] {
			continue
		}
		if last >= 0 {
			gaps += i - last - 1
		}
		last = i
		qi++
	}
	if qi < len(qr) {
		return 0, false
	}
	return 200 - gaps, true
}
