// Package catalog stores the product list the order parser resolves against.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"pedidos/internal/model"
	"pedidos/internal/textnorm"
)

var ErrNotFound = errors.New("product not found")

// Repository is the catalog backend.
type Repository interface {
	// List returns every product ordered by category, then name.
	List(ctx context.Context) ([]model.Product, error)
	Create(ctx context.Context, in model.ProductInput) (model.Product, error)
	Update(ctx context.Context, id string, in model.ProductInput) (model.Product, error)
	Delete(ctx context.Context, id string) error
}

// NewID returns a fresh product id.
var NewID = func() string { return uuid.NewString() }

// Sort orders products by category display order, then by pt-BR name.
func Sort(ps []model.Product) {
	textnorm.SortByName(ps, func(p model.Product) string { return p.Name })
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Category.Rank() < ps[j].Category.Rank() })
}

// productFromRow converts stored column values into a Product.
func productFromRow(id, name, category, unit, chocolate string, weight *float64) (model.Product, error) {
	c, err := model.ParseCategory(category)
	if err != nil {
		return model.Product{}, fmt.Errorf("product %s: %w", id, err)
	}
	u, err := model.ParseUnit(unit)
	if err != nil {
		return model.Product{}, fmt.Errorf("product %s: %w", id, err)
	}
	t, err := model.ParseChocolateType(chocolate)
	if err != nil {
		return model.Product{}, fmt.Errorf("product %s: %w", id, err)
	}
	if u != model.UnitUnidade {
		weight = nil
	}
	return model.Product{ID: id, Name: name, Category: c, Unit: u, ChocolateType: t, UnitWeightKg: weight}, nil
}

type seedFile struct {
	Products []model.ProductInput `yaml:"products"`
}

// LoadSeed reads a YAML catalog seed:
//
//	products:
//	  - nome: Bombom Explosivo
//	    categoria: bombons
//	    unidade: saco
//	    tipo_chocolate: ao_leite
func LoadSeed(path string) ([]model.ProductInput, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	out := make([]model.ProductInput, 0, len(f.Products))
	for i, in := range f.Products {
		v, err := in.Validate()
		if err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i+1, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Import creates every input whose normalized name is not in the catalog yet.
func Import(ctx context.Context, repo Repository, inputs []model.ProductInput) (int, error) {
	existing, err := repo.List(ctx)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		seen[textnorm.Normalize(p.Name)] = struct{}{}
	}
	created := 0
	for _, in := range inputs {
		key := textnorm.Normalize(in.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		if _, err := repo.Create(ctx, in); err != nil {
			return created, fmt.Errorf("import %q: %w", in.Name, err)
		}
		seen[key] = struct{}{}
		created++
	}
	return created, nil
}
