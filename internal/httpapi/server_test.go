package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"pedidos/internal/catalog"
	"pedidos/internal/dispatch"
	"pedidos/internal/draft"
	"pedidos/internal/metrics"
	"pedidos/internal/model"
	"pedidos/internal/state"
)

func init() { gin.SetMode(gin.TestMode) }

type memWriter struct{ recs []dispatch.Record }

func (w *memWriter) Append(_ context.Context, r dispatch.Record) error {
	w.recs = append(w.recs, r)
	return nil
}

type fixture struct {
	router *gin.Engine
	spans  *tracetest.SpanRecorder
	out    *memWriter
	reg    *metrics.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	w := 0.15
	products := catalog.NewMemoryRepository(
		model.Product{ID: "bx", Name: "Bombom Explosivo", Category: model.CategoryBombons, Unit: model.UnitSaco, ChocolateType: model.ChocolateAoLeite},
		model.Product{ID: "tm", Name: "Trufa Maracujá", Category: model.CategoryTrufas, Unit: model.UnitKg, ChocolateType: model.ChocolateBranco},
		model.Product{ID: "ur", Name: "Urso Pequeno", Category: model.CategoryUrsos, Unit: model.UnitUnidade, ChocolateType: model.ChocolateAoLeite, UnitWeightKg: &w},
	)
	reg := metrics.NewRegistry()
	out := &memWriter{}
	drafts, err := draft.NewService(draft.NewRepository(state.NewInMemoryStore(), nil), products, out, reg, nil)
	require.NoError(t, err)

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	h := NewHandler(Options{
		Products:          products,
		Drafts:            drafts,
		Metrics:           reg,
		Tracer:            tp.Tracer("test"),
		AssumeBagQuantity: 1,
	})
	return &fixture{router: h.Router(), spans: sr, out: out, reg: reg}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusOK, f.do(t, "GET", "/healthz", nil).Code)

	f.do(t, "GET", "/api/produtos", nil)
	rec := f.do(t, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pedidos_catalog_products 3")
}

func TestProducts_CRUD(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, "POST", "/api/produtos", map[string]any{
		"nome": "Licor de Cacau", "categoria": "licores", "unidade": "unidade",
		"tipo_chocolate": "meio_amargo", "peso_por_unidade_kg": 0.5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.Product](t, rec)
	assert.NotEmpty(t, created.ID)

	rec = f.do(t, "PUT", "/api/produtos/"+created.ID, map[string]any{
		"nome": "Licor de Cacau 70", "categoria": "licores", "unidade": "kg", "tipo_chocolate": "70",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	upd := decode[model.Product](t, rec)
	assert.Equal(t, model.ChocolateSetenta, upd.ChocolateType)
	assert.Nil(t, upd.UnitWeightKg)

	list := decode[[]model.Product](t, f.do(t, "GET", "/api/produtos", nil))
	require.Len(t, list, 4)
	assert.Equal(t, model.CategoryLicores, list[3].Category)

	assert.Equal(t, http.StatusNoContent, f.do(t, "DELETE", "/api/produtos/"+created.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, "DELETE", "/api/produtos/"+created.ID, nil).Code)
}

func TestProducts_ValidationIs400(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, "POST", "/api/produtos", map[string]any{
		"nome": "Urso", "categoria": "ursos", "unidade": "unidade", "tipo_chocolate": "branco",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")

	rec = f.do(t, "PUT", "/api/produtos/nope", map[string]any{
		"nome": "X", "categoria": "bombons", "unidade": "saco", "tipo_chocolate": "branco",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProducts_Search(t *testing.T) {
	f := newFixture(t)
	got := decode[[]model.Product](t, f.do(t, "GET", "/api/produtos/search?q=trufa", nil))
	require.Len(t, got, 1)
	assert.Equal(t, "tm", got[0].ID)

	got = decode[[]model.Product](t, f.do(t, "GET", "/api/produtos/search?q=&limit=2", nil))
	assert.Len(t, got, 2)

	assert.Equal(t, http.StatusBadRequest, f.do(t, "GET", "/api/produtos/search?q=a&limit=x", nil).Code)
}

func TestParseOrder(t *testing.T) {
	f := newFixture(t)
	text := "Loja 5\nBombom explosivo 2s\ntrufa maracuja 1,5kg\nLoja 6\nbombom explosivo\nPicolé 3s\n"
	rec := f.do(t, "POST", "/api/fabrica/parse", map[string]any{"text": text})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Result struct {
			Items                []model.OrderItem `json:"items"`
			UnknownProductLines  []string          `json:"unknownProductLines"`
			AssumedQuantityLines []string          `json:"assumedQuantityLines"`
		} `json:"result"`
		Totals struct {
			TotalBags float64 `json:"totalSacos"`
			TotalKg   float64 `json:"totalKg"`
		} `json:"totals"`
		ChecklistText string `json:"checklistText"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Result.Items, 2)
	assert.Equal(t, []string{"Picolé 3s"}, resp.Result.UnknownProductLines)
	assert.Equal(t, []string{"bombom explosivo (sem quantidade)"}, resp.Result.AssumedQuantityLines)
	assert.Equal(t, 3.0, resp.Totals.TotalBags)
	assert.Equal(t, 7.5, resp.Totals.TotalKg)
	assert.Contains(t, resp.ChecklistText, "[ ] Bombom Explosivo 3s 5² 6¹.")

	var names []string
	for _, s := range f.spans.Ended() {
		names = append(names, s.Name())
	}
	assert.Contains(t, names, "fabrica.parse")
	assert.Contains(t, names, "catalog.list")
}

func TestParseOrder_RejectsNegativeBagQuantity(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, "POST", "/api/fabrica/parse", map[string]any{"text": "x", "assumeBagQuantity": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseOrder_ZeroBagQuantityDisablesAssumption(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, "POST", "/api/fabrica/parse", map[string]any{"text": "Loja 5\nbombom explosivo", "assumeBagQuantity": 0})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Result struct {
			Items                []model.OrderItem `json:"items"`
			InvalidLines         []string          `json:"invalidLines"`
			AssumedQuantityLines []string          `json:"assumedQuantityLines"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Result.Items)
	assert.Empty(t, resp.Result.AssumedQuantityLines)
	require.Len(t, resp.Result.InvalidLines, 1)
	assert.Contains(t, resp.Result.InvalidLines[0], "bombom explosivo")
}

func TestLoja_Flow(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, "POST", "/api/loja/select", map[string]any{"loja": "Loja 3"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, "POST", "/api/loja/items", map[string]any{"productId": "bx", "quantity": "1/2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = f.do(t, "POST", "/api/loja/items", map[string]any{"productId": "ur", "quantity": 10})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, "PATCH", "/api/loja/items/ur", map[string]any{"delta": -4})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = f.do(t, "PATCH", "/api/loja/items/bx", map[string]any{"quantity": "2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	v := decode[draft.View](t, f.do(t, "GET", "/api/loja", nil))
	assert.Equal(t, "Loja 3", v.Draft.Store)
	assert.Equal(t, "Loja 3 precisa\nBombons\nBombom Explosivo 2s\n\nUrsos\nUrso Pequeno 6 un", v.Message)
	assert.Equal(t, 4.9, v.Totals.TotalKg)

	printed := f.do(t, "GET", "/api/loja/print", nil)
	assert.True(t, strings.HasPrefix(printed.Body.String(), "Pedido das Lojas"))

	rec = f.do(t, "POST", "/api/loja/dispatch", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, f.out.recs, 1)
	assert.Equal(t, v.Message, f.out.recs[0].Text)

	assert.Equal(t, http.StatusOK, f.do(t, "DELETE", "/api/loja/items/ur", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, "DELETE", "/api/loja/items/ur", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, "DELETE", "/api/loja/items", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, "POST", "/api/loja/dispatch", nil).Code)
}

func TestLoja_Errors(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusBadRequest, f.do(t, "POST", "/api/loja/select", map[string]any{"loja": "Loja 7"}).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, "POST", "/api/loja/items", map[string]any{"productId": "zz"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, "POST", "/api/loja/items", map[string]any{"productId": "ur", "quantity": "1,5"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, "POST", "/api/loja/items", map[string]any{}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, "PATCH", "/api/loja/items/bx", map[string]any{"delta": 1, "quantity": "1"}).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, "PATCH", "/api/loja/items/bx", map[string]any{"delta": 1}).Code)
}
