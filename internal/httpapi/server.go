// Package httpapi exposes the catalog, the factory parser and the store drafts over HTTP.
package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"pedidos/internal/catalog"
	"pedidos/internal/draft"
	"pedidos/internal/metrics"
	"pedidos/internal/model"
)

var errBadRequest = errors.New("bad request")

// Handler holds the collaborators of every route.
type Handler struct {
	products          catalog.Repository
	drafts            *draft.Service
	metrics           *metrics.Registry
	tracer            trace.Tracer
	log               *zap.Logger
	assumeBagQuantity float64
}

type Options struct {
	Products catalog.Repository
	Drafts   *draft.Service
	Metrics  *metrics.Registry
	Tracer   trace.Tracer
	Log      *zap.Logger
	// AssumeBagQuantity is used when a parse request does not set one.
	AssumeBagQuantity float64
}

func NewHandler(o Options) *Handler {
	h := &Handler{
		products:          o.Products,
		drafts:            o.Drafts,
		metrics:           o.Metrics,
		tracer:            o.Tracer,
		log:               o.Log,
		assumeBagQuantity: o.AssumeBagQuantity,
	}
	if h.tracer == nil {
		h.tracer = noop.NewTracerProvider().Tracer("pedidos")
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	if h.metrics == nil {
		h.metrics = metrics.NewRegistry()
	}
	if h.assumeBagQuantity <= 0 {
		h.assumeBagQuantity = 1
	}
	return h
}

// Router wires every route onto a fresh gin engine.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.accessLog())

	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	api := r.Group("/api")

	produtos := api.Group("/produtos")
	produtos.GET("", h.ListProducts)
	produtos.GET("/search", h.SearchProducts)
	produtos.POST("", h.CreateProduct)
	produtos.PUT("/:id", h.UpdateProduct)
	produtos.DELETE("/:id", h.DeleteProduct)

	api.POST("/fabrica/parse", h.ParseOrder)

	loja := api.Group("/loja")
	loja.GET("", h.GetDraft)
	loja.GET("/print", h.PrintDraft)
	loja.POST("/select", h.SelectStore)
	loja.POST("/items", h.AddItem)
	loja.PATCH("/items/:id", h.PatchItem)
	loja.DELETE("/items/:id", h.RemoveItem)
	loja.DELETE("/items", h.ClearItems)
	loja.POST("/dispatch", h.Dispatch)
	return r
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		h.log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()))
	}
}

// statusFor maps domain errors to HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, model.ErrInvalidProduct),
		errors.Is(err, draft.ErrInvalidQuantity),
		errors.Is(err, draft.ErrUnknownStore),
		errors.Is(err, draft.ErrEmptyDraft):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, draft.ErrItemNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, span trace.Span, err error) {
	span.RecordError(err)
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// rawQuantity accepts a JSON number or a string such as "1/2" or "1,5".
type rawQuantity string

func (q *rawQuantity) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*q = rawQuantity(s)
		return nil
	}
	if string(b) == "null" {
		*q = ""
		return nil
	}
	if _, err := strconv.ParseFloat(string(b), 64); err != nil {
		return err
	}
	*q = rawQuantity(b)
	return nil
}
