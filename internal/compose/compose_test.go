package compose

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"pedidos/internal/model"
)

func it(id, name string, cat model.Category, unit model.Unit, qty float64) model.OrderItem {
	return model.OrderItem{ProductID: id, Name: name, Category: cat, Unit: unit, ChocolateType: model.ChocolateAoLeite, Quantity: qty}
}

func TestFormatQuantity(t *testing.T) {
	cases := []struct {
		item model.OrderItem
		want string
	}{
		{it("a", "A", model.CategoryBombons, model.UnitSaco, 1), "1s"},
		{it("a", "A", model.CategoryBarras, model.UnitKg, 1.5), "1,5kg"},
		{it("a", "A", model.CategoryUrsos, model.UnitUnidade, 150), "150 un"},
		{it("a", "A", model.CategoryBombons, model.UnitSaco, 0.25), "0,25s"},
	}
	for _, tc := range cases {
		if got := FormatQuantity(tc.item); got != tc.want {
			t.Fatalf("FormatQuantity(%v %s)=%q want=%q", tc.item.Quantity, tc.item.Unit, got, tc.want)
		}
	}
}

func TestSuperscript(t *testing.T) {
	if got := Superscript(12); got != "¹²" {
		t.Fatalf("got %q", got)
	}
	if got := Superscript(1.5); got != "¹˙⁵" {
		t.Fatalf("got %q", got)
	}
	if got := Superscript(-3); got != "⁻³" {
		t.Fatalf("got %q", got)
	}
}

func TestSections_OrderAndGrouping(t *testing.T) {
	items := []model.OrderItem{
		it("u", "Urso ao leite", model.CategoryUrsos, model.UnitUnidade, 10),
		it("b2", "Bombom Morango", model.CategoryBombons, model.UnitSaco, 2),
		it("b1", "Bombom Avelã", model.CategoryBombons, model.UnitSaco, 1),
		it("x", "Caixa", "desconhecida", model.UnitUnidade, 3),
	}
	want := []Section{
		{Category: model.CategoryBombons, Label: "Bombons", Lines: []Line{
			{ID: "b1", Text: "Bombom Avelã 1s"},
			{ID: "b2", Text: "Bombom Morango 2s"},
		}},
		{Category: model.CategoryUrsos, Label: "Ursos", Lines: []Line{{ID: "u", Text: "Urso ao leite 10 un"}}},
		{Category: model.CategoryOutros, Label: "Outros", Lines: []Line{{ID: "x", Text: "Caixa 3 un"}}},
	}
	if diff := cmp.Diff(want, Sections(items)); diff != "" {
		t.Fatalf("sections mismatch (-want +got):\n%s", diff)
	}
}

func TestChecklistSections_StoreAnnotation(t *testing.T) {
	items := []model.OrderItem{
		it("bx", "Bombom X", model.CategoryBombons, model.UnitSaco, 3),
		it("br", "Barra Branca", model.CategoryBarras, model.UnitKg, 1.5),
	}
	breakdown := model.StoreBreakdown{
		"bx": {6: 1, 5: 2, 3: 0},
	}
	got := ChecklistSections(items, breakdown)
	want := []Section{
		{Category: model.CategoryBombons, Label: "Bombons", Lines: []Line{{ID: "bx", Text: "Bombom X 3s 5² 6¹."}}},
		{Category: model.CategoryBarras, Label: "Barras", Lines: []Line{{ID: "br", Text: "Barra Branca 1,5kg."}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("checklist mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreMessage(t *testing.T) {
	orders := []model.StoreOrder{
		{Store: "Loja 1"},
		{Store: "Loja 5", Items: []model.OrderItem{
			it("u", "Urso ao leite", model.CategoryUrsos, model.UnitUnidade, 150),
			it("bx", "Bombom X", model.CategoryBombons, model.UnitSaco, 1),
		}},
		{Store: "Loja 6", Items: []model.OrderItem{
			it("br", "Barra Branca", model.CategoryBarras, model.UnitKg, 1.5),
		}},
	}
	want := "Loja 5 precisa\n" +
		"Bombons\nBombom X 1s\n\n" +
		"Ursos\nUrso ao leite 150 un\n\n" +
		"Loja 6 precisa\n" +
		"Barras\nBarra Branca 1,5kg"
	if got := StoreMessage(orders, "Loja 5"); got != want {
		t.Fatalf("message mismatch:\n%s\n---\n%s", got, want)
	}
}

func TestStoreMessage_Empty(t *testing.T) {
	if got := StoreMessage([]model.StoreOrder{{Store: "Loja 2"}}, "Loja 3"); got != "Loja 3 precisa" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderSections(t *testing.T) {
	secs := []Section{
		{Label: "Bombons", Lines: []Line{{Text: "Bombom X 1s."}}},
		{Label: "Barras", Lines: []Line{{Text: "Barra 2kg."}}},
	}
	want := "Produção\n\nBombons\n[ ] Bombom X 1s.\n\nBarras\n[ ] Barra 2kg.\n"
	if got := RenderSections("Produção", secs); got != want {
		t.Fatalf("render mismatch:\n%q\n%q", got, want)
	}
}

func TestPrintSections_SkipsEmptyStores(t *testing.T) {
	got := PrintSections([]model.StoreOrder{
		{Store: "Loja 1"},
		{Store: "Loja 2", Items: []model.OrderItem{it("bx", "Bombom X", model.CategoryBombons, model.UnitSaco, 1)}},
	})
	if len(got) != 1 || got[0].Store != "Loja 2" || len(got[0].Sections) != 1 {
		t.Fatalf("unexpected print sections: %+v", got)
	}
}
