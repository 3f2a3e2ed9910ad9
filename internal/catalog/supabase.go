package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"pedidos/internal/model"
)

const supabaseColumns = "id,nome,categoria,unidade,peso_por_unidade_kg,tipo_chocolate,created_at,updated_at"

// SupabaseRepository talks to the PostgREST endpoint of a Supabase project.
type SupabaseRepository struct {
	client *resty.Client
}

type supabaseRow struct {
	ID            string   `json:"id"`
	Name          string   `json:"nome"`
	Category      string   `json:"categoria"`
	Unit          string   `json:"unidade"`
	UnitWeightKg  *float64 `json:"peso_por_unidade_kg"`
	ChocolateType string   `json:"tipo_chocolate"`
}

type supabasePayload struct {
	ID            string   `json:"id,omitempty"`
	Name          string   `json:"nome"`
	Category      string   `json:"categoria"`
	Unit          string   `json:"unidade"`
	UnitWeightKg  *float64 `json:"peso_por_unidade_kg"`
	ChocolateType string   `json:"tipo_chocolate"`
}

func NewSupabaseRepository(baseURL, anonKey string) *SupabaseRepository {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+"/rest/v1").
		SetHeader("apikey", anonKey).
		SetAuthToken(anonKey).
		SetHeader("Content-Type", "application/json")
	return &SupabaseRepository{client: c}
}

func (r *SupabaseRepository) List(ctx context.Context) ([]model.Product, error) {
	var rows []supabaseRow
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"select": supabaseColumns,
			"order":  "categoria.asc,nome.asc",
		}).
		SetResult(&rows).
		Get("/products")
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list products: status %d: %s", resp.StatusCode(), resp.String())
	}
	out := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		p, err := row.product()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	Sort(out)
	return out, nil
}

func (r *SupabaseRepository) Create(ctx context.Context, in model.ProductInput) (model.Product, error) {
	v, err := in.Validate()
	if err != nil {
		return model.Product{}, err
	}
	body := payload(v)
	body.ID = NewID()
	var rows []supabaseRow
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("select", supabaseColumns).
		SetBody(body).
		SetResult(&rows).
		Post("/products")
	if err != nil {
		return model.Product{}, fmt.Errorf("insert product: %w", err)
	}
	if resp.IsError() {
		return model.Product{}, fmt.Errorf("insert product: status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(rows) == 0 {
		return v.Product(body.ID), nil
	}
	return rows[0].product()
}

func (r *SupabaseRepository) Update(ctx context.Context, id string, in model.ProductInput) (model.Product, error) {
	v, err := in.Validate()
	if err != nil {
		return model.Product{}, err
	}
	var rows []supabaseRow
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParams(map[string]string{
			"id":     "eq." + id,
			"select": supabaseColumns,
		}).
		SetBody(payload(v)).
		SetResult(&rows).
		Patch("/products")
	if err != nil {
		return model.Product{}, fmt.Errorf("update product: %w", err)
	}
	if resp.IsError() {
		return model.Product{}, fmt.Errorf("update product: status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(rows) == 0 {
		return model.Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rows[0].product()
}

func (r *SupabaseRepository) Delete(ctx context.Context, id string) error {
	var rows []supabaseRow
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("id", "eq."+id).
		SetResult(&rows).
		Delete("/products")
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("delete product: status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func payload(v model.ProductInput) supabasePayload {
	return supabasePayload{
		Name:          v.Name,
		Category:      string(v.Category),
		Unit:          string(v.Unit),
		UnitWeightKg:  v.UnitWeightKg,
		ChocolateType: v.ChocolateType.Wire(),
	}
}

func (row supabaseRow) product() (model.Product, error) {
	return productFromRow(row.ID, row.Name, row.Category, row.Unit, row.ChocolateType, row.UnitWeightKg)
}
