package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"pedidos/internal/model"
	"pedidos/internal/resolve"
)

func (h *Handler) ListProducts(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "produtos.list")
	defer span.End()

	ps, err := h.products.List(ctx)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	h.metrics.CatalogSize.Set(float64(len(ps)))
	span.SetAttributes(attribute.Int("products", len(ps)))
	c.JSON(http.StatusOK, ps)
}

func (h *Handler) SearchProducts(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "produtos.search")
	defer span.End()

	q := c.Query("q")
	limit := resolve.DefaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.fail(c, span, fmt.Errorf("%w: limit %q", errBadRequest, raw))
			return
		}
		limit = n
	}
	span.SetAttributes(attribute.String("q", q), attribute.Int("limit", limit))

	ps, err := h.products.List(ctx)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, resolve.NewIndex(ps).Search(q, limit))
}

func (h *Handler) CreateProduct(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "produtos.create")
	defer span.End()

	var in model.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, span, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	p, err := h.products.Create(ctx, in)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	span.SetAttributes(attribute.String("product_id", p.ID))
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "produtos.update")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("product_id", id))
	var in model.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, span, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	p, err := h.products.Update(ctx, id, in)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "produtos.delete")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("product_id", id))
	if err := h.products.Delete(ctx, id); err != nil {
		h.fail(c, span, err)
		return
	}
	c.Status(http.StatusNoContent)
}
