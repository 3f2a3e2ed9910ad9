package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func ptr(f float64) *float64 { return &f }

func TestParseChocolateType_AcceptsLegacySeventy(t *testing.T) {
	got, err := ParseChocolateType("70")
	if err != nil || got != ChocolateSetenta {
		t.Fatalf("unexpected: %v %v", got, err)
	}
	if _, err := ParseChocolateType("amargo"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestChocolateTypeUnmarshalJSON(t *testing.T) {
	var it OrderItem
	if err := json.Unmarshal([]byte(`{"tipo_chocolate":"70"}`), &it); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if it.ChocolateType != ChocolateSetenta {
		t.Fatalf("want setenta, got %q", it.ChocolateType)
	}
	var in ProductInput
	if err := json.Unmarshal([]byte(`{"tipo_chocolate":"amargo"}`), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if in.ChocolateType != "amargo" {
		t.Fatalf("unknown value should be kept for validation, got %q", in.ChocolateType)
	}
}

func TestCategoryRank(t *testing.T) {
	if CategoryBombons.Rank() != 0 || CategoryOutros.Rank() != 5 {
		t.Fatalf("unexpected ranks")
	}
	if Category("x").Rank() != len(CategoryOrder) {
		t.Fatalf("unknown category should sort last")
	}
}

func TestProductInputValidate(t *testing.T) {
	cases := []struct {
		name string
		in   ProductInput
		ok   bool
	}{
		{"blank name", ProductInput{Name: "  ", Category: CategoryBombons, Unit: UnitSaco, ChocolateType: ChocolateBranco}, false},
		{"bad category", ProductInput{Name: "X", Category: "doces", Unit: UnitSaco, ChocolateType: ChocolateBranco}, false},
		{"unidade without weight", ProductInput{Name: "Urso", Category: CategoryUrsos, Unit: UnitUnidade, ChocolateType: ChocolateAoLeite}, false},
		{"unidade zero weight", ProductInput{Name: "Urso", Category: CategoryUrsos, Unit: UnitUnidade, ChocolateType: ChocolateAoLeite, UnitWeightKg: ptr(0)}, false},
		{"unidade ok", ProductInput{Name: "Urso", Category: CategoryUrsos, Unit: UnitUnidade, ChocolateType: ChocolateAoLeite, UnitWeightKg: ptr(0.15)}, true},
		{"legacy seventy", ProductInput{Name: "Barra 70", Category: CategoryBarras, Unit: UnitKg, ChocolateType: "70"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.in.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidProduct) {
				t.Fatalf("want ErrInvalidProduct, got %v", err)
			}
		})
	}
}

func TestProductInputValidate_DropsWeightForNonUnit(t *testing.T) {
	out, err := ProductInput{Name: " Bombom ", Category: CategoryBombons, Unit: UnitSaco, ChocolateType: ChocolateBranco, UnitWeightKg: ptr(1)}.Validate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.UnitWeightKg != nil || out.Name != "Bombom" {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestStoreBreakdownAdd(t *testing.T) {
	b := StoreBreakdown{}
	b.Add("p1", 5, 1)
	b.Add("p1", 5, 1)
	b.Add("p1", 6, 1)
	if b["p1"][5] != 2 || b["p1"][6] != 1 {
		t.Fatalf("unexpected breakdown: %+v", b)
	}
}

func TestNewOrderItem_CopiesWeight(t *testing.T) {
	p := Product{ID: "u", Name: "Urso", Unit: UnitUnidade, UnitWeightKg: ptr(0.2)}
	it := NewOrderItem(p, 3)
	*p.UnitWeightKg = 9
	if w, ok := it.WeightPerUnit(); !ok || w != 0.2 {
		t.Fatalf("weight should be copied: %v %v", w, ok)
	}
}
