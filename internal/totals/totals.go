package totals

import (
	"math"

	"github.com/shopspring/decimal"

	"pedidos/internal/model"
)

// Totals is the production summary of an item list. Values are rounded to 2 places.
type Totals struct {
	TotalBags              float64                         `json:"totalSacos"`
	TotalKg                float64                         `json:"totalKg"`
	KgByChocolate          map[model.ChocolateType]float64 `json:"kgPorChocolate"`
	ItemsMissingUnitWeight int                             `json:"itensSemPesoUnidade"`
}

var bagKg = decimal.NewFromFloat(model.StandardBagKg)

// Compute recomputes totals from scratch. Non-positive or non-finite quantities are ignored.
func Compute(items []model.OrderItem) Totals {
	bags := decimal.Zero
	kg := decimal.Zero
	byType := make(map[model.ChocolateType]decimal.Decimal, len(model.ChocolateTypes))
	for _, t := range model.ChocolateTypes {
		byType[t] = decimal.Zero
	}
	missing := 0

	for _, it := range items {
		q := it.Quantity
		if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
			continue
		}
		qty := decimal.NewFromFloat(q)

		var add decimal.Decimal
		switch it.Unit {
		case model.UnitKg:
			add = qty
		case model.UnitSaco:
			bags = bags.Add(qty)
			add = qty.Mul(bagKg)
		case model.UnitUnidade:
			w, ok := it.WeightPerUnit()
			if !ok {
				missing++
				continue
			}
			add = qty.Mul(decimal.NewFromFloat(w))
		default:
			continue
		}

		kg = kg.Add(add)
		if _, ok := byType[it.ChocolateType]; ok {
			byType[it.ChocolateType] = byType[it.ChocolateType].Add(add)
		}
	}

	out := Totals{
		TotalBags:              round2(bags),
		TotalKg:                round2(kg),
		KgByChocolate:          make(map[model.ChocolateType]float64, len(byType)),
		ItemsMissingUnitWeight: missing,
	}
	for t, v := range byType {
		out.KgByChocolate[t] = round2(v)
	}
	return out
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
