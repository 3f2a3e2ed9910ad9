package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"

	"pedidos/internal/catalog"
	"pedidos/internal/config"
	"pedidos/internal/dispatch"
	"pedidos/internal/draft"
	"pedidos/internal/metrics"
	"pedidos/internal/state"
)

// closers run in reverse order of registration.
type closers []func() error

func (c *closers) add(fn func() error) { *c = append(*c, fn) }

func (c *closers) Close() {
	for i := len(*c) - 1; i >= 0; i-- {
		if err := (*c)[i](); err != nil {
			logger.Warn("close", zap.Error(err))
		}
	}
}

func openCatalog(ctx context.Context, cc config.CatalogConfig, cl *closers) (catalog.Repository, error) {
	var repo catalog.Repository
	switch cc.Backend {
	case config.CatalogSQLite:
		if dir := filepath.Dir(cc.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir: %w", err)
			}
		}
		r, err := catalog.OpenSQLite(ctx, cc.DSN)
		if err != nil {
			return nil, err
		}
		cl.add(r.Close)
		repo = r
	case config.CatalogPostgres:
		pool, r, err := catalog.OpenPostgres(ctx, cc.DSN)
		if err != nil {
			return nil, err
		}
		cl.add(func() error { pool.Close(); return nil })
		repo = r
	case config.CatalogSupabase:
		repo = catalog.NewSupabaseRepository(cc.SupabaseURL, cc.SupabaseKey)
	default:
		return nil, fmt.Errorf("unknown catalog backend %q", cc.Backend)
	}
	logger.Debug("catalog opened", zap.String("backend", cc.Backend))

	if cc.Seed != "" {
		inputs, err := catalog.LoadSeed(cc.Seed)
		if err != nil {
			return nil, err
		}
		n, err := catalog.Import(ctx, repo, inputs)
		if err != nil {
			return nil, err
		}
		logger.Info("catalog seeded", zap.String("seed", cc.Seed), zap.Int("created", n))
	}
	return repo, nil
}

func openDraftStore(dc config.DraftsConfig, cl *closers) (state.Store, error) {
	if dc.Backend == config.DraftsMemory {
		return state.NewInMemoryStore(), nil
	}
	ps, err := state.NewPebbleStore(dc.Dir)
	if err != nil {
		return nil, fmt.Errorf("open drafts: %w", err)
	}
	cl.add(ps.Close)
	return ps, nil
}

// openDispatch returns a file writer, a Kafka writer or both.
func openDispatch(dc config.DispatchConfig) (dispatch.Writer, error) {
	var ws []dispatch.Writer
	if dc.File != "" {
		fw, err := dispatch.NewFileWriter(filepath.Dir(dc.File), filepath.Base(dc.File))
		if err != nil {
			return nil, fmt.Errorf("init dispatch file: %w", err)
		}
		ws = append(ws, fw)
	}
	if dc.KafkaBootstrap != "" {
		ws = append(ws, dispatch.NewKafkaWriter(dc.KafkaBootstrap, dc.Topic))
	}
	switch len(ws) {
	case 0:
		return nil, nil
	case 1:
		return ws[0], nil
	default:
		return dispatch.NewMultiWriter(ws...), nil
	}
}

// openDrafts wires the draft service with its catalog and dispatch log.
func openDrafts(products catalog.Repository, m *metrics.Registry, cl *closers) (*draft.Service, error) {
	st, err := openDraftStore(cfg.Drafts, cl)
	if err != nil {
		return nil, err
	}
	out, err := openDispatch(cfg.Dispatch)
	if err != nil {
		return nil, err
	}
	return draft.NewService(draft.NewRepository(st, logger), products, out, m, logger)
}

// initTracer exports over OTLP/HTTP when OTEL_EXPORTER_OTLP_ENDPOINT is set;
// otherwise spans are recorded but not exported.
func initTracer(ctx context.Context) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("pedidos"),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, err
	}
	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		exporter, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(endpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter), sdktrace.WithSampler(sdktrace.AlwaysSample()))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetTracerProvider(tp)
	return tp, nil
}
