package lineparse

import (
	"testing"

	"pedidos/internal/model"
)

func TestParse_TrailingBagUnit(t *testing.T) {
	l := Parse("Bombom Explosivo 1s")
	if l.Kind != Item || l.NameRaw != "Bombom Explosivo" {
		t.Fatalf("unexpected line: %+v", l)
	}
	if l.Quantity == nil || *l.Quantity != 1 {
		t.Fatalf("unexpected quantity: %+v", l.Quantity)
	}
	if l.UnitHint == nil || *l.UnitHint != model.UnitSaco {
		t.Fatalf("unexpected hint: %+v", l.UnitHint)
	}
}

func TestParse_TrailingUnitTokens(t *testing.T) {
	cases := []struct {
		in   string
		name string
		qty  float64
		unit model.Unit
	}{
		{"Urso ao leite 150 unidades", "Urso ao leite", 150, model.UnitUnidade},
		{"Barra branca 1,5kg", "Barra branca", 1.5, model.UnitKg},
		{"Barra branca 2.5 KG", "Barra branca", 2.5, model.UnitKg},
		{"Pirulito 10un", "Pirulito", 10, model.UnitUnidade},
		{"Pirulito 10 unid.", "Pirulito", 10, model.UnitUnidade},
		{"Pirulito 3 unidade", "Pirulito", 3, model.UnitUnidade},
		{"Barra 70 2kg", "Barra 70", 2, model.UnitKg},
	}
	for _, tc := range cases {
		l := Parse(tc.in)
		if l.Kind != Item || l.NameRaw != tc.name || l.Quantity == nil || *l.Quantity != tc.qty || l.UnitHint == nil || *l.UnitHint != tc.unit {
			t.Fatalf("Parse(%q) unexpected: %+v", tc.in, l)
		}
	}
}

func TestParse_LeadingNumber(t *testing.T) {
	l := Parse("3 Trufa de maracujá")
	if l.Kind != Item || l.NameRaw != "Trufa de maracujá" || l.Quantity == nil || *l.Quantity != 3 || l.UnitHint != nil {
		t.Fatalf("unexpected line: %+v", l)
	}
}

func TestParse_BareName(t *testing.T) {
	l := Parse("  Bombom Morango  ")
	if l.Kind != Item || l.NameRaw != "Bombom Morango" || l.Quantity != nil || l.UnitHint != nil {
		t.Fatalf("unexpected line: %+v", l)
	}
}

func TestParse_Invalid(t *testing.T) {
	if l := Parse("Bombom 0s"); l.Kind != Invalid || l.Reason != ReasonInvalidQuantity {
		t.Fatalf("zero quantity: %+v", l)
	}
	if l := Parse("0 Bombom"); l.Kind != Invalid || l.Reason != ReasonInvalidQuantity {
		t.Fatalf("zero leading quantity: %+v", l)
	}
	if l := Parse("2s"); l.Kind != Invalid || l.Reason != ReasonNoName {
		t.Fatalf("missing name: %+v", l)
	}
}

func TestParse_Noise(t *testing.T) {
	for _, in := range []string{"", "   ", "Loja 5 precisa", "PEDIDO da semana", "Bombons", "Fábrica precisa", "preciso", "licores"} {
		if l := Parse(in); l.Kind != Skip {
			t.Fatalf("Parse(%q) should skip, got %+v", in, l)
		}
	}
}

func TestStoreNumber(t *testing.T) {
	cases := map[string]int{
		"Loja 5":             5,
		"loja6 precisa":      6,
		"Pedido da Loja 12:": 12,
	}
	for in, want := range cases {
		got, ok := StoreNumber(in)
		if !ok || got != want {
			t.Fatalf("StoreNumber(%q)=%d,%v want %d", in, got, ok, want)
		}
	}
	for _, in := range []string{"Loja 0", "Bombom 1s", "lojas"} {
		if _, ok := StoreNumber(in); ok {
			t.Fatalf("StoreNumber(%q) should not match", in)
		}
	}
}
