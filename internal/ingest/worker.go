// Package ingest consumes pasted order texts from Kafka and emits production checklists.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"
	"unicode/utf8"

	ck "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"pedidos/internal/aggregate"
	"pedidos/internal/catalog"
	"pedidos/internal/compose"
	"pedidos/internal/dispatch"
	"pedidos/internal/metrics"
)

// Consumer is the part of *ck.Consumer the worker uses.
type Consumer interface {
	ReadMessage(timeout time.Duration) (*ck.Message, error)
	CommitMessage(m *ck.Message) ([]ck.TopicPartition, error)
}

// Envelope is the optional JSON form of a message; plain text is also accepted.
type Envelope struct {
	Text              string   `json:"text"`
	AssumeBagQuantity *float64 `json:"assumeBagQuantity,omitempty"`
}

type Worker struct {
	consumer Consumer
	products catalog.Repository
	out      dispatch.Writer
	metrics  *metrics.Registry
	log      *zap.Logger
	opts     aggregate.Options
	// PollTimeout bounds each ReadMessage call so cancellation is noticed.
	PollTimeout time.Duration
}

func NewWorker(c Consumer, products catalog.Repository, out dispatch.Writer, m *metrics.Registry, log *zap.Logger, opts aggregate.Options) *Worker {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewRegistry()
	}
	return &Worker{
		consumer:    c,
		products:    products,
		out:         out,
		metrics:     m,
		log:         log,
		opts:        opts,
		PollTimeout: time.Second,
	}
}

// NewKafkaConsumer subscribes a manual-commit consumer to topic.
func NewKafkaConsumer(bootstrap, groupID, topic string) (*ck.Consumer, error) {
	c, err := ck.NewConsumer(&ck.ConfigMap{
		"bootstrap.servers":  bootstrap,
		"group.id":           groupID,
		"enable.auto.commit": false,
		"isolation.level":    "read_committed",
		"auto.offset.reset":  "earliest",
	})
	if err != nil {
		return nil, err
	}
	if err := c.SubscribeTopics([]string{topic}, nil); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Run polls until ctx is cancelled. Per-message failures are logged, never returned.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("ingest worker started")
	defer w.log.Info("ingest worker stopped")
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msg, err := w.consumer.ReadMessage(w.PollTimeout)
		if err != nil {
			var kerr ck.Error
			if errors.As(err, &kerr) && kerr.Code() == ck.ErrTimedOut {
				continue
			}
			w.log.Warn("read message", zap.Error(err))
			continue
		}
		w.metrics.IngestMessages.Inc()
		if w.Handle(ctx, msg.Value) {
			if _, err := w.consumer.CommitMessage(msg); err != nil {
				w.log.Warn("commit offset", zap.Error(err))
			}
		}
	}
}

// Handle processes one message value. It reports whether the offset may be committed:
// undecodable input is committed and skipped, catalog or dispatch failures are not.
func (w *Worker) Handle(ctx context.Context, value []byte) bool {
	env, ok := decode(value)
	if !ok {
		w.log.Warn("skipping undecodable message", zap.Int("bytes", len(value)))
		return true
	}
	opts := w.opts
	if env.AssumeBagQuantity != nil {
		opts.AssumeBagQuantity = *env.AssumeBagQuantity
	}

	ps, err := w.products.List(ctx)
	if err != nil {
		w.log.Error("load catalog", zap.Error(err))
		return false
	}
	w.metrics.CatalogSize.Set(float64(len(ps)))

	start := time.Now()
	res := aggregate.ParseOrderText(env.Text, ps, opts)
	lines := len(aggregate.SplitLines(env.Text))
	w.metrics.ObserveParse(res, lines, time.Since(start))

	text := compose.RenderSections("Produção", compose.ChecklistSections(res.Items, res.StoreBreakdown))
	if err := w.out.Append(ctx, dispatch.NewRecord(dispatch.KindProduction, "", text)); err != nil {
		w.metrics.DispatchFailed.Inc()
		w.log.Error("dispatch checklist", zap.Error(err))
		return false
	}
	w.metrics.Dispatched.WithLabelValues(dispatch.KindProduction).Inc()
	w.log.Info("order text processed",
		zap.Int("lines", lines),
		zap.Int("items", len(res.Items)),
		zap.Int("diagnostics", res.Diagnostics()))
	return true
}

func decode(value []byte) (Envelope, bool) {
	if !utf8.Valid(value) {
		return Envelope{}, false
	}
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 {
		return Envelope{}, false
	}
	if trimmed[0] == '{' {
		var env Envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return Envelope{}, false
		}
		return env, true
	}
	return Envelope{Text: string(value)}, true
}
