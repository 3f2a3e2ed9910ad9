package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pedidos/internal/aggregate"
	"pedidos/internal/compose"
	"pedidos/internal/model"
	"pedidos/internal/totals"
)

var (
	fabricaJSON      bool
	fabricaAssumeQty float64
)

var fabricaCmd = &cobra.Command{
	Use:   "fabrica [file|-]",
	Short: "Parse a pasted order text and print the production checklist",
	Long: `Reads the WhatsApp text from a file (or stdin when the argument is "-" or
missing), resolves every line against the catalog and prints the aggregated
items, totals, diagnostics and the checklist with per-store annotations.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFabrica,
}

func init() {
	fabricaCmd.Flags().BoolVar(&fabricaJSON, "json", false, "print the JSON result")
	fabricaCmd.Flags().Float64Var(&fabricaAssumeQty, "assume-bag-quantity", 0, "quantity assumed for bag products without one (default from config)")
}

func runFabrica(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	text, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	var cl closers
	defer cl.Close()
	products, err := openCatalog(ctx, cfg.Catalog, &cl)
	if err != nil {
		return err
	}
	ps, err := products.List(ctx)
	if err != nil {
		return err
	}

	opts := aggregate.Options{AssumeBagQuantity: cfg.Parse.AssumeBagQuantity}
	if cmd.Flags().Changed("assume-bag-quantity") {
		opts.AssumeBagQuantity = fabricaAssumeQty
	}
	start := time.Now()
	res := aggregate.ParseOrderText(text, ps, opts)
	logger.Debug("parsed order text",
		zap.Int("catalog", len(ps)),
		zap.Int("lines", len(aggregate.SplitLines(text))),
		zap.Int("items", len(res.Items)),
		zap.Int("diagnostics", res.Diagnostics()),
		zap.Duration("elapsed", time.Since(start)))

	t := totals.Compute(res.Items)
	checklist := compose.ChecklistSections(res.Items, res.StoreBreakdown)
	out := cmd.OutOrStdout()
	if fabricaJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"result":    res,
			"totals":    t,
			"checklist": checklist,
		})
	}
	printFabrica(out, res, t)
	fmt.Fprintln(out)
	fmt.Fprint(out, compose.RenderSections("Produção", checklist))
	return nil
}

func readInput(stdin io.Reader, args []string) (string, error) {
	var (
		b   []byte
		err error
	)
	if len(args) == 0 || args[0] == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(b), nil
}

func printFabrica(w io.Writer, res aggregate.Result, t totals.Totals) {
	fmt.Fprintf(w, "Itens (%d)\n", len(res.Items))
	for _, it := range res.Items {
		fmt.Fprintf(w, "  %s %s\n", it.Name, compose.FormatQuantity(it))
	}

	fmt.Fprintln(w, "\nTotais")
	fmt.Fprintf(w, "  Sacos: %s\n", compose.FormatNumber(t.TotalBags))
	fmt.Fprintf(w, "  Kg: %s\n", compose.FormatNumber(t.TotalKg))
	for _, ct := range model.ChocolateTypes {
		if kg := t.KgByChocolate[ct]; kg > 0 {
			fmt.Fprintf(w, "  %s: %s kg\n", ct.Label(), compose.FormatNumber(kg))
		}
	}
	if t.ItemsMissingUnitWeight > 0 {
		fmt.Fprintf(w, "  Itens sem peso por unidade: %d\n", t.ItemsMissingUnitWeight)
	}

	printDiagnostics(w, "Linhas inválidas", res.InvalidLines)
	printDiagnostics(w, "Produtos não encontrados", res.UnknownProductLines)
	printDiagnostics(w, "Quantidade assumida", res.AssumedQuantityLines)
	printDiagnostics(w, "Unidade divergente", res.UnitMismatchLines)
}

func printDiagnostics(w io.Writer, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s (%d)\n  %s\n", title, len(lines), strings.Join(lines, "\n  "))
}
