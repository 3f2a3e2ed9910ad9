package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pedidos/internal/catalog"
	"pedidos/internal/compose"
	"pedidos/internal/draft"
	"pedidos/internal/metrics"
	"pedidos/internal/model"
	"pedidos/internal/resolve"
	"pedidos/internal/snapshot"
	"pedidos/internal/textnorm"
)

var lojaJSON bool

var lojaCmd = &cobra.Command{
	Use:   "loja",
	Short: "Edit the per-store order drafts",
}

var lojaShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the selected store, its items and the totals",
	Args:  cobra.NoArgs,
	RunE: withDrafts(func(ctx context.Context, env *lojaEnv, args []string) error {
		return env.print(env.svc.View())
	}),
}

var lojaSelectCmd = &cobra.Command{
	Use:   "select <loja>",
	Short: `Select the store being edited ("Loja 3" or just 3)`,
	Args:  cobra.MinimumNArgs(1),
	RunE: withDrafts(func(ctx context.Context, env *lojaEnv, args []string) error {
		v, err := env.svc.Select(storeName(args))
		if err != nil {
			return err
		}
		return env.print(v)
	}),
}

var lojaAddCmd = &cobra.Command{
	Use:   "add <produto> [quantidade]",
	Short: "Add a catalog product to the selected store",
	Long: `The product may be given by id or by name; a name must resolve to exactly
one catalog entry. The quantity accepts "2", "1,5" or "1/2" and defaults to 1.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: withDrafts(func(ctx context.Context, env *lojaEnv, args []string) error {
		p, err := env.findProduct(ctx, args[0])
		if err != nil {
			return err
		}
		qty := ""
		if len(args) == 2 {
			qty = args[1]
		}
		v, err := env.svc.Add(ctx, p.ID, qty)
		if err != nil {
			return err
		}
		return env.print(v)
	}),
}

var lojaIncCmd = &cobra.Command{
	Use:   "inc <produto> <delta>",
	Short: "Change an item quantity by delta (negative values decrease)",
	Long: `Changes an item quantity by delta. An item reaching zero is removed.
Negative deltas need "--" so they are not read as flags:

  pedidos loja inc "bombom explosivo" -- -1`,
	Args: cobra.ExactArgs(2),
	RunE: withDrafts(func(ctx context.Context, env *lojaEnv, args []string) error {
		delta, err := strconv.ParseFloat(strings.Replace(args[1], ",", ".", 1), 64)
		if err != nil {
			return fmt.Errorf("%w: %q", draft.ErrInvalidQuantity, args[1])
		}
		id, err := env.findItem(args[0])
		if err != nil {
			return err
		}
		v, err := env.svc.Increment(id, delta)
		if err != nil {
			return err
		}
		return env.print(v)
	}),
}

var lojaSetCmd = &cobra.Command{
	Use:   "set <produto> <quantidade>",
	Short: "Replace an item quantity",
	Args:  cobra.ExactArgs(2),
	RunE: withDrafts(func(ctx context.Context, env *lojaEnv, args []string) error {
		id, err := env.findItem(args[0])
		if err != nil {
			return err
		}
		v, err := env.svc.SetQuantity(id, args[1])
		if err != nil {
			return err
		}
		return env.print(v)
	}),
}

var lojaRmCmd = &cobra.Command{
	Use:   "rm <produto>",
	Short: "Remove an item from the selected store",
	Args:  cobra.ExactArgs(1),
	RunE: withDrafts(func(ctx context.Context, env *lojaEnv, args []string) error {
		id, err := env.findItem(args[0])
		if err != nil {
			return err
		}
		v, err := env.svc.Remove(id)
		if err != nil {
			return err
		}
		return env.print(v)
	}),
}

var lojaClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the selected store",
	Args:  cobra.NoArgs,
	RunE: withDrafts(func(ctx context.Context, env *lojaEnv, args []string) error {
		v, err := env.svc.Clear()
		if err != nil {
			return err
		}
		return env.print(v)
	}),
}

var lojaPrint bool

var lojaMessageCmd = &cobra.Command{
	Use:   "message",
	Short: "Print the outgoing WhatsApp message (or the print view with --print)",
	Args:  cobra.NoArgs,
	RunE: withDrafts(func(ctx context.Context, env *lojaEnv, args []string) error {
		if lojaPrint {
			fmt.Fprint(env.out, env.svc.PrintView())
			return nil
		}
		fmt.Fprintln(env.out, env.svc.View().Message)
		return nil
	}),
}

var lojaDispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Append the current message to the dispatch log",
	Args:  cobra.NoArgs,
	RunE: withDrafts(func(ctx context.Context, env *lojaEnv, args []string) error {
		rec, err := env.svc.Dispatch(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.out, "enviado (%s, %d bytes)\n", rec.Store, len(rec.Text))
		return nil
	}),
}

var backupID string

var lojaBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the draft store to the snapshot directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var cl closers
		defer cl.Close()
		st, err := openDraftStore(cfg.Drafts, &cl)
		if err != nil {
			return err
		}
		id := backupID
		if id == "" {
			id = snapshot.NewID()
		}
		if err := snapshot.NewFilesystemSnapshotter(cfg.Drafts.SnapshotDir).WriteSnapshot(id, st); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		logger.Info("drafts snapshotted", zap.String("id", id), zap.String("dir", cfg.Drafts.SnapshotDir))
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var lojaRestoreCmd = &cobra.Command{
	Use:   "restore [snapshot-id]",
	Short: "Load a snapshot (latest when no id is given) into the draft store",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var cl closers
		defer cl.Close()
		st, err := openDraftStore(cfg.Drafts, &cl)
		if err != nil {
			return err
		}
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		got, ok, err := snapshot.NewFilesystemSnapshotter(cfg.Drafts.SnapshotDir).Restore(id, st)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no snapshot to restore in %s", cfg.Drafts.SnapshotDir)
		}
		logger.Info("drafts restored", zap.String("id", got))
		fmt.Fprintln(cmd.OutOrStdout(), got)
		return nil
	},
}

func init() {
	lojaCmd.PersistentFlags().BoolVar(&lojaJSON, "json", false, "print the draft view as JSON")
	lojaMessageCmd.Flags().BoolVar(&lojaPrint, "print", false, "render the per-store checklist instead")
	lojaBackupCmd.Flags().StringVar(&backupID, "id", "", "snapshot id (default: current UTC time)")

	lojaCmd.AddCommand(lojaShowCmd, lojaSelectCmd, lojaAddCmd, lojaIncCmd, lojaSetCmd, lojaRmCmd,
		lojaClearCmd, lojaMessageCmd, lojaDispatchCmd, lojaBackupCmd, lojaRestoreCmd)
}

type lojaEnv struct {
	svc      *draft.Service
	products catalog.Repository
	out      io.Writer
}

func withDrafts(fn func(ctx context.Context, env *lojaEnv, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var cl closers
		defer cl.Close()
		products, err := openCatalog(ctx, cfg.Catalog, &cl)
		if err != nil {
			return err
		}
		svc, err := openDrafts(products, metrics.NewRegistry(), &cl)
		if err != nil {
			return err
		}
		return fn(ctx, &lojaEnv{svc: svc, products: products, out: cmd.OutOrStdout()}, args)
	}
}

func (e *lojaEnv) print(v draft.View) error {
	if lojaJSON {
		enc := json.NewEncoder(e.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	fmt.Fprintf(e.out, "Loja selecionada: %s\n\n", v.Draft.Store)
	for _, it := range v.Draft.Items() {
		fmt.Fprintf(e.out, "  [%s] %s %s\n", it.ProductID, it.Name, compose.FormatQuantity(it))
	}
	fmt.Fprintf(e.out, "\n%s\n\nSacos: %s  Kg: %s\n", v.Message,
		compose.FormatNumber(v.Totals.TotalBags), compose.FormatNumber(v.Totals.TotalKg))
	return nil
}

// findProduct accepts a product id or a name that resolves to one catalog entry.
func (e *lojaEnv) findProduct(ctx context.Context, ref string) (model.Product, error) {
	ps, err := e.products.List(ctx)
	if err != nil {
		return model.Product{}, err
	}
	for _, p := range ps {
		if p.ID == ref {
			return p, nil
		}
	}
	if p, ok := resolve.NewIndex(ps).Resolve(ref); ok {
		return p, nil
	}
	return model.Product{}, fmt.Errorf("%w: %q", catalog.ErrNotFound, ref)
}

// findItem matches ref against the selected store's items by id, then by normalized name.
func (e *lojaEnv) findItem(ref string) (string, error) {
	items := e.svc.View().Draft.Items()
	key := textnorm.Normalize(ref)
	for _, it := range items {
		if it.ProductID == ref {
			return it.ProductID, nil
		}
	}
	for _, it := range items {
		if textnorm.Normalize(it.Name) == key {
			return it.ProductID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", draft.ErrItemNotFound, ref)
}

// storeName turns "3" or "loja 3" into "Loja 3".
func storeName(args []string) string {
	s := strings.TrimSpace(strings.Join(args, " "))
	if n, err := strconv.Atoi(s); err == nil {
		return fmt.Sprintf("Loja %d", n)
	}
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "loja"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil {
			return fmt.Sprintf("Loja %d", n)
		}
	}
	return s
}
