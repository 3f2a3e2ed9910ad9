package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"pedidos/internal/draft"
)

type selectRequest struct {
	Store string `json:"loja"`
}

type addItemRequest struct {
	ProductID string      `json:"productId"`
	Quantity  rawQuantity `json:"quantity"`
}

type patchItemRequest struct {
	Quantity *rawQuantity `json:"quantity"`
	Delta    *float64     `json:"delta"`
}

func (h *Handler) GetDraft(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "loja.get")
	defer span.End()
	c.JSON(http.StatusOK, h.drafts.View())
}

func (h *Handler) PrintDraft(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "loja.print")
	defer span.End()
	c.String(http.StatusOK, h.drafts.PrintView())
}

func (h *Handler) SelectStore(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "loja.select")
	defer span.End()

	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, span, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	span.SetAttributes(attribute.String("loja", req.Store))
	v, err := h.drafts.Select(req.Store)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) AddItem(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "loja.add")
	defer span.End()

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, span, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if req.ProductID == "" {
		h.fail(c, span, fmt.Errorf("%w: productId is required", errBadRequest))
		return
	}
	span.SetAttributes(attribute.String("product_id", req.ProductID), attribute.String("quantity", string(req.Quantity)))
	v, err := h.drafts.Add(ctx, req.ProductID, string(req.Quantity))
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) PatchItem(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "loja.patch")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("product_id", id))
	var req patchItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, span, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	var (
		v   draft.View
		err error
	)
	switch {
	case req.Quantity != nil && req.Delta == nil:
		v, err = h.drafts.SetQuantity(id, string(*req.Quantity))
	case req.Delta != nil && req.Quantity == nil:
		v, err = h.drafts.Increment(id, *req.Delta)
	default:
		err = fmt.Errorf("%w: send exactly one of quantity or delta", errBadRequest)
	}
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) RemoveItem(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "loja.remove")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("product_id", id))
	v, err := h.drafts.Remove(id)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) ClearItems(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "loja.clear")
	defer span.End()

	v, err := h.drafts.Clear()
	if err != nil {
		h.fail(c, span, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) Dispatch(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "loja.dispatch")
	defer span.End()

	rec, err := h.drafts.Dispatch(ctx)
	if err != nil {
		h.fail(c, span, err)
		return
	}
	span.SetAttributes(attribute.String("loja", rec.Store))
	c.JSON(http.StatusOK, rec)
}
