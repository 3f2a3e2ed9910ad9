package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// StandardBagKg is the weight of one "saco".
const StandardBagKg = 2.0

// ErrInvalidProduct is wrapped by ProductInput.Validate.
var ErrInvalidProduct = errors.New("invalid product")

type Category string

const (
	CategoryBombons Category = "bombons"
	CategoryBarras  Category = "barras"
	CategoryTrufas  Category = "trufas"
	CategoryUrsos   Category = "ursos"
	CategoryLicores Category = "licores"
	CategoryOutros  Category = "outros"
)

// CategoryOrder is the display order used by every composed text.
var CategoryOrder = []Category{
	CategoryBombons,
	CategoryBarras,
	CategoryTrufas,
	CategoryUrsos,
	CategoryLicores,
	CategoryOutros,
}

var categoryLabels = map[Category]string{
	CategoryBombons: "Bombons",
	CategoryBarras:  "Barras",
	CategoryTrufas:  "Trufas",
	CategoryUrsos:   "Ursos",
	CategoryLicores: "Licores",
	CategoryOutros:  "Outros",
}

func (c Category) String() string { return string(c) }

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Rank is the position of c in CategoryOrder; unknown categories sort last.
func (c Category) Rank() int {
	for i, v := range CategoryOrder {
		if v == c {
			return i
		}
	}
	return len(CategoryOrder)
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

type Unit string

const (
	UnitSaco    Unit = "saco"
	UnitKg      Unit = "kg"
	UnitUnidade Unit = "unidade"
)

var Units = []Unit{UnitSaco, UnitKg, UnitUnidade}

var unitLabels = map[Unit]string{
	UnitSaco:    "Saco (2kg)",
	UnitKg:      "Kg",
	UnitUnidade: "Unidade",
}

func (u Unit) String() string { return string(u) }

func (u Unit) Valid() bool {
	_, ok := unitLabels[u]
	return ok
}

func (u Unit) Label() string {
	if l, ok := unitLabels[u]; ok {
		return l
	}
	return string(u)
}

func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(s)))
	if !u.Valid() {
		return "", fmt.Errorf("unknown unit %q", s)
	}
	return u, nil
}

type ChocolateType string

const (
	ChocolateAoLeite    ChocolateType = "ao_leite"
	ChocolateBranco     ChocolateType = "branco"
	ChocolateMeioAmargo ChocolateType = "meio_amargo"
	ChocolateSetenta    ChocolateType = "setenta"
	ChocolateDiet       ChocolateType = "diet"
)

var ChocolateTypes = []ChocolateType{
	ChocolateAoLeite,
	ChocolateBranco,
	ChocolateMeioAmargo,
	ChocolateSetenta,
	ChocolateDiet,
}

var chocolateLabels = map[ChocolateType]string{
	ChocolateAoLeite:    "Ao leite",
	ChocolateBranco:     "Branco",
	ChocolateMeioAmargo: "Meio amargo",
	ChocolateSetenta:    "70%",
	ChocolateDiet:       "Diet",
}

func (t ChocolateType) String() string { return string(t) }

func (t ChocolateType) Valid() bool {
	_, ok := chocolateLabels[t]
	return ok
}

func (t ChocolateType) Label() string {
	if l, ok := chocolateLabels[t]; ok {
		return l
	}
	return string(t)
}

// Wire is the value stored in the products table, where setenta is "70".
func (t ChocolateType) Wire() string {
	if t == ChocolateSetenta {
		return "70"
	}
	return string(t)
}

// ParseChocolateType also accepts the legacy "70" value.
func ParseChocolateType(s string) (ChocolateType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "70" || v == "70%" {
		return ChocolateSetenta, nil
	}
	t := ChocolateType(v)
	if !t.Valid() {
		return "", fmt.Errorf("unknown chocolate type %q", s)
	}
	return t, nil
}

// UnmarshalJSON maps the legacy "70" to setenta. Unknown values are kept
// as-is so validation can report them.
func (t *ChocolateType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if parsed, err := ParseChocolateType(s); err == nil {
		*t = parsed
		return nil
	}
	*t = ChocolateType(s)
	return nil
}

// Product is a catalog entry.
type Product struct {
	ID            string        `json:"id"`
	Name          string        `json:"nome"`
	Category      Category      `json:"categoria"`
	Unit          Unit          `json:"unidade"`
	ChocolateType ChocolateType `json:"tipo_chocolate"`
	UnitWeightKg  *float64      `json:"peso_por_unidade_kg"`
}

// WeightPerUnit reports the per-piece weight of a "unidade" product.
func (p Product) WeightPerUnit() (float64, bool) {
	return unitWeight(p.Unit, p.UnitWeightKg)
}

// OrderItem is one aggregated line of an order.
type OrderItem struct {
	ProductID     string        `json:"productId"`
	Name          string        `json:"nome"`
	Category      Category      `json:"categoria"`
	Unit          Unit          `json:"unidade"`
	ChocolateType ChocolateType `json:"tipo_chocolate"`
	UnitWeightKg  *float64      `json:"peso_por_unidade_kg"`
	Quantity      float64       `json:"quantidade"`
}

func NewOrderItem(p Product, qty float64) OrderItem {
	var w *float64
	if p.UnitWeightKg != nil {
		v := *p.UnitWeightKg
		w = &v
	}
	return OrderItem{
		ProductID:     p.ID,
		Name:          p.Name,
		Category:      p.Category,
		Unit:          p.Unit,
		ChocolateType: p.ChocolateType,
		UnitWeightKg:  w,
		Quantity:      qty,
	}
}

func (it OrderItem) WeightPerUnit() (float64, bool) {
	return unitWeight(it.Unit, it.UnitWeightKg)
}

func unitWeight(u Unit, w *float64) (float64, bool) {
	if u != UnitUnidade || w == nil {
		return 0, false
	}
	v := *w
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// StoreBreakdown maps product id -> store number -> quantity.
type StoreBreakdown map[string]map[int]float64

// Add accumulates qty for product id at store.
func (b StoreBreakdown) Add(id string, store int, qty float64) {
	m, ok := b[id]
	if !ok {
		m = make(map[int]float64)
		b[id] = m
	}
	m[store] += qty
}

// ProductInput is the payload for creating or updating a catalog entry.
type ProductInput struct {
	Name          string        `json:"nome" yaml:"nome"`
	Category      Category      `json:"categoria" yaml:"categoria"`
	Unit          Unit          `json:"unidade" yaml:"unidade"`
	ChocolateType ChocolateType `json:"tipo_chocolate" yaml:"tipo_chocolate"`
	UnitWeightKg  *float64      `json:"peso_por_unidade_kg,omitempty" yaml:"peso_por_unidade_kg,omitempty"`
}

// Validate checks the input and returns a cleaned copy.
// The unit weight is kept only for "unidade" products.
func (in ProductInput) Validate() (ProductInput, error) {
	out := in
	out.Name = strings.TrimSpace(in.Name)
	if out.Name == "" {
		return ProductInput{}, fmt.Errorf("%w: nome obrigatório", ErrInvalidProduct)
	}
	if !out.Category.Valid() {
		return ProductInput{}, fmt.Errorf("%w: categoria %q", ErrInvalidProduct, in.Category)
	}
	if !out.Unit.Valid() {
		return ProductInput{}, fmt.Errorf("%w: unidade %q", ErrInvalidProduct, in.Unit)
	}
	if !out.ChocolateType.Valid() {
		t, err := ParseChocolateType(string(in.ChocolateType))
		if err != nil {
			return ProductInput{}, fmt.Errorf("%w: tipo_chocolate %q", ErrInvalidProduct, in.ChocolateType)
		}
		out.ChocolateType = t
	}
	if out.Unit != UnitUnidade {
		out.UnitWeightKg = nil
		return out, nil
	}
	if _, ok := unitWeight(out.Unit, in.UnitWeightKg); !ok {
		return ProductInput{}, fmt.Errorf("%w: peso por unidade obrigatório", ErrInvalidProduct)
	}
	w := *in.UnitWeightKg
	out.UnitWeightKg = &w
	return out, nil
}

// Product builds a catalog entry with the given id from a validated input.
func (in ProductInput) Product(id string) Product {
	return Product{
		ID:            id,
		Name:          in.Name,
		Category:      in.Category,
		Unit:          in.Unit,
		ChocolateType: in.ChocolateType,
		UnitWeightKg:  in.UnitWeightKg,
	}
}

// StoreOrder is the item list of one named store, in display order.
type StoreOrder struct {
	Store string      `json:"loja"`
	Items []OrderItem `json:"items"`
}
