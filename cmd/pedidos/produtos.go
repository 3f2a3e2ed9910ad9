package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pedidos/internal/catalog"
	"pedidos/internal/compose"
	"pedidos/internal/model"
	"pedidos/internal/resolve"
)

var (
	produtosJSON  bool
	produtoInput  model.ProductInput
	produtoWeight float64
	searchLimit   int
)

var produtosCmd = &cobra.Command{
	Use:   "produtos",
	Short: "Manage the product catalog",
}

var produtosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products by category, then name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var cl closers
		defer cl.Close()
		repo, err := openCatalog(cmd.Context(), cfg.Catalog, &cl)
		if err != nil {
			return err
		}
		ps, err := repo.List(cmd.Context())
		if err != nil {
			return err
		}
		return printProducts(cmd.OutOrStdout(), ps)
	},
}

var produtosAddCmd = &cobra.Command{
	Use:   "add <nome>",
	Short: "Create a product",
	Example: `  pedidos produtos add "Bombom Explosivo" --categoria bombons --unidade saco --tipo ao_leite
  pedidos produtos add "Urso Pequeno" --categoria ursos --unidade unidade --tipo branco --peso 0.15`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := produtoInput
		in.Name = args[0]
		if cmd.Flags().Changed("peso") {
			w := produtoWeight
			in.UnitWeightKg = &w
		}
		var cl closers
		defer cl.Close()
		repo, err := openCatalog(cmd.Context(), cfg.Catalog, &cl)
		if err != nil {
			return err
		}
		p, err := repo.Create(cmd.Context(), in)
		if err != nil {
			return err
		}
		logger.Info("product created", zap.String("id", p.ID), zap.String("nome", p.Name))
		return printProducts(cmd.OutOrStdout(), []model.Product{p})
	},
}

var produtosRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a product by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var cl closers
		defer cl.Close()
		repo, err := openCatalog(cmd.Context(), cfg.Catalog, &cl)
		if err != nil {
			return err
		}
		if err := repo.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		logger.Info("product deleted", zap.String("id", args[0]))
		return nil
	},
}

var produtosImportCmd = &cobra.Command{
	Use:   "import <seed.yaml>",
	Short: "Create every seed product whose name is not in the catalog yet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := catalog.LoadSeed(args[0])
		if err != nil {
			return err
		}
		var cl closers
		defer cl.Close()
		repo, err := openCatalog(cmd.Context(), cfg.Catalog, &cl)
		if err != nil {
			return err
		}
		n, err := catalog.Import(cmd.Context(), repo, inputs)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d de %d produtos criados\n", n, len(inputs))
		return nil
	},
}

var produtosSearchCmd = &cobra.Command{
	Use:   "search <texto>",
	Short: "Rank products for a partial name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var cl closers
		defer cl.Close()
		repo, err := openCatalog(cmd.Context(), cfg.Catalog, &cl)
		if err != nil {
			return err
		}
		ps, err := repo.List(cmd.Context())
		if err != nil {
			return err
		}
		return printProducts(cmd.OutOrStdout(), resolve.NewIndex(ps).Search(args[0], searchLimit))
	},
}

func init() {
	produtosCmd.PersistentFlags().BoolVar(&produtosJSON, "json", false, "print JSON")

	f := produtosAddCmd.Flags()
	f.StringVar((*string)(&produtoInput.Category), "categoria", "", "bombons|barras|trufas|ursos|licores|outros")
	f.StringVar((*string)(&produtoInput.Unit), "unidade", "", "saco|kg|unidade")
	f.StringVar((*string)(&produtoInput.ChocolateType), "tipo", "", "ao_leite|branco|meio_amargo|70|diet")
	f.Float64Var(&produtoWeight, "peso", 0, "weight per piece in kg (unidade only)")
	_ = produtosAddCmd.MarkFlagRequired("categoria")
	_ = produtosAddCmd.MarkFlagRequired("unidade")
	_ = produtosAddCmd.MarkFlagRequired("tipo")

	produtosSearchCmd.Flags().IntVar(&searchLimit, "limit", resolve.DefaultSearchLimit, "maximum results")

	produtosCmd.AddCommand(produtosListCmd, produtosAddCmd, produtosRmCmd, produtosImportCmd, produtosSearchCmd)
}

func printProducts(w io.Writer, ps []model.Product) error {
	if produtosJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ps)
	}
	var last model.Category
	for _, p := range ps {
		if p.Category != last {
			fmt.Fprintf(w, "%s\n", p.Category.Label())
			last = p.Category
		}
		line := fmt.Sprintf("  %s  %s (%s, %s)", p.ID, p.Name, p.Unit.Label(), p.ChocolateType.Label())
		if wpu, ok := p.WeightPerUnit(); ok {
			line += fmt.Sprintf(" %s kg/un", compose.FormatNumber(wpu))
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
