// Package lineparse classifies single lines of pasted order text.
package lineparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"pedidos/internal/model"
	"pedidos/internal/textnorm"
)

type Kind int

const (
	Skip Kind = iota
	Invalid
	Item
)

func (k Kind) String() string {
	switch k {
	case Skip:
		return "skip"
	case Invalid:
		return "invalid"
	case Item:
		return "item"
	}
	return "unknown"
}

const (
	ReasonNoName          = "Sem nome"
	ReasonInvalidQuantity = "Quantidade inválida"
)

// Line is the classification of one input line.
// Quantity and UnitHint are nil when the text carries none.
type Line struct {
	Kind     Kind
	Reason   string
	NameRaw  string
	Quantity *float64
	UnitHint *model.Unit
}

var (
	trailingQty = regexp.MustCompile(`(?i)^(?:(.*?)\s+)?(\d+(?:[.,]\d+)?)\s*(s|kg|un|unid\.?|unidade|unidades)\s*$`)
	leadingQty  = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s+(.+)$`)

	storeAnchored = regexp.MustCompile(`^loja\s*(\d+)\b`)
	storeAnywhere = regexp.MustCompile(`\bloja\s*(\d+)\b`)
)

var noiseExact = map[string]struct{}{
	"bombons":         {},
	"barras":          {},
	"trufas":          {},
	"ursos":           {},
	"licores":         {},
	"precisa":         {},
	"fabrica":         {},
	"fabrica precisa": {},
	"preciso":         {},
}

// IsNoise reports whether line is structural boilerplate copied from a chat.
func IsNoise(line string) bool {
	n := textnorm.Normalize(line)
	if n == "" {
		return true
	}
	if strings.HasPrefix(n, "pedido") || strings.HasPrefix(n, "loja ") {
		return true
	}
	_, ok := noiseExact[n]
	return ok
}

// StoreNumber detects a "loja N" header. Store 0 is not a header.
func StoreNumber(line string) (int, bool) {
	n := textnorm.Normalize(line)
	m := storeAnchored.FindStringSubmatch(n)
	if m == nil {
		m = storeAnywhere.FindStringSubmatch(n)
	}
	if m == nil {
		return 0, false
	}
	num, err := strconv.Atoi(m[1])
	if err != nil || num <= 0 {
		return 0, false
	}
	return num, true
}

// Parse classifies a single line.
func Parse(line string) Line {
	raw := strings.TrimSpace(line)
	if IsNoise(raw) {
		return Line{Kind: Skip}
	}

	if m := trailingQty.FindStringSubmatch(raw); m != nil {
		hint := unitFromToken(m[3])
		return item(strings.TrimSpace(m[1]), m[2], &hint)
	}
	if m := leadingQty.FindStringSubmatch(raw); m != nil {
		return item(strings.TrimSpace(m[2]), m[1], nil)
	}
	return Line{Kind: Item, NameRaw: raw}
}

func item(name, number string, hint *model.Unit) Line {
	if name == "" {
		return Line{Kind: Invalid, Reason: ReasonNoName}
	}
	q, ok := textnorm.ParseNumber(number)
	if !ok || q <= 0 || math.IsInf(q, 0) {
		return Line{Kind: Invalid, Reason: ReasonInvalidQuantity}
	}
	return Line{Kind: Item, NameRaw: name, Quantity: &q, UnitHint: hint}
}

func unitFromToken(tok string) model.Unit {
	switch strings.ToLower(tok) {
	case "kg":
		return model.UnitKg
	case "s":
		return model.UnitSaco
	default:
		return model.UnitUnidade
	}
}
