package main

import (
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pedidos/internal/aggregate"
	"pedidos/internal/dispatch"
	"pedidos/internal/ingest"
	"pedidos/internal/metrics"
)

var ingestMetricsAddr string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Consume raw order texts from Kafka and dispatch production checklists",
	Args:  cobra.NoArgs,
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestMetricsAddr, "metrics-addr", ":9090", "address for /metrics (empty disables)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cl closers
	defer cl.Close()
	products, err := openCatalog(ctx, cfg.Catalog, &cl)
	if err != nil {
		return err
	}
	out, err := openDispatch(cfg.Dispatch)
	if err != nil {
		return err
	}
	if out == nil {
		return dispatch.ErrNotConfigured
	}

	c, err := ingest.NewKafkaConsumer(cfg.Ingest.Bootstrap, cfg.Ingest.GroupID, cfg.Ingest.Topic)
	if err != nil {
		return err
	}
	cl.add(c.Close)

	reg := metrics.NewRegistry()
	if ingestMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", reg.Handler())
		srv := &http.Server{Addr: ingestMetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics server", zap.Error(err))
			}
		}()
		cl.add(srv.Close)
	}

	logger.Info("ingest subscribed",
		zap.String("bootstrap", cfg.Ingest.Bootstrap),
		zap.String("topic", cfg.Ingest.Topic),
		zap.String("group", cfg.Ingest.GroupID))
	w := ingest.NewWorker(c, products, out, reg, logger, aggregate.Options{AssumeBagQuantity: cfg.Parse.AssumeBagQuantity})
	return w.Run(ctx)
}
