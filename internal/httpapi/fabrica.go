package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"pedidos/internal/aggregate"
	"pedidos/internal/compose"
	"pedidos/internal/totals"
)

// parseRequest.AssumeBagQuantity: absent uses the configured default, 0 disables.
type parseRequest struct {
	Text              string   `json:"text"`
	AssumeBagQuantity *float64 `json:"assumeBagQuantity"`
}

type parseResponse struct {
	Result        aggregate.Result  `json:"result"`
	Totals        totals.Totals     `json:"totals"`
	Checklist     []compose.Section `json:"checklist"`
	ChecklistText string            `json:"checklistText"`
}

// ParseOrder interprets pasted WhatsApp text against the current catalog.
func (h *Handler) ParseOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "fabrica.parse")
	defer span.End()

	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, span, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	opts := aggregate.Options{AssumeBagQuantity: h.assumeBagQuantity}
	if req.AssumeBagQuantity != nil {
		if *req.AssumeBagQuantity < 0 {
			h.fail(c, span, fmt.Errorf("%w: assumeBagQuantity must be >= 0", errBadRequest))
			return
		}
		opts.AssumeBagQuantity = *req.AssumeBagQuantity
	}

	_, catSpan := h.tracer.Start(ctx, "catalog.list")
	ps, err := h.products.List(ctx)
	catSpan.End()
	if err != nil {
		h.fail(c, span, err)
		return
	}

	start := time.Now()
	res := aggregate.ParseOrderText(req.Text, ps, opts)
	lines := len(aggregate.SplitLines(req.Text))
	h.metrics.ObserveParse(res, lines, time.Since(start))

	span.SetAttributes(
		attribute.Int("lines", lines),
		attribute.Int("items", len(res.Items)),
		attribute.Int("diagnostics", res.Diagnostics()),
	)

	checklist := compose.ChecklistSections(res.Items, res.StoreBreakdown)
	c.JSON(http.StatusOK, parseResponse{
		Result:        res,
		Totals:        totals.Compute(res.Items),
		Checklist:     checklist,
		ChecklistText: compose.RenderSections("Produção", checklist),
	})
}
