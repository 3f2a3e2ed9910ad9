// Command genpedido writes random WhatsApp-style order texts built from a
// catalog seed, for load testing the parser and the ingest worker.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pedidos/internal/catalog"
	"pedidos/internal/compose"
	"pedidos/internal/logging"
	"pedidos/internal/model"
)

type options struct {
	seed     string
	output   string
	count    int
	stores   int
	lines    int
	noise    float64
	envelope bool
	randSeed uint64
}

func main() {
	var o options
	cmd := &cobra.Command{
		Use:          "genpedido",
		Short:        "Generate random order texts from a catalog seed",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.seed, "seed", "produtos.yaml", "catalog seed file")
	f.StringVarP(&o.output, "output", "o", "-", `output file ("-" for stdout)`)
	f.IntVarP(&o.count, "count", "n", 1, "number of order texts")
	f.IntVar(&o.stores, "stores", 3, "stores per order text")
	f.IntVar(&o.lines, "lines", 6, "maximum product lines per store")
	f.Float64Var(&o.noise, "noise", 0.1, "fraction of lines that are greetings or typos")
	f.BoolVar(&o.envelope, "jsonl", false, "write one JSON envelope per line (ingest format)")
	f.Uint64Var(&o.randSeed, "rand-seed", 0, "random seed (0 picks one)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, o options) error {
	log, err := logging.New("info", false)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	inputs, err := catalog.LoadSeed(o.seed)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("seed %s has no products", o.seed)
	}

	var w io.Writer = cmd.OutOrStdout()
	if o.output != "-" {
		file, err := os.Create(o.output)
		if err != nil {
			return fmt.Errorf("create file: %w", err)
		}
		defer file.Close()
		w = file
	}
	bw := bufio.NewWriter(w)

	seed := o.randSeed
	if seed == 0 {
		seed = rand.Uint64()
	}
	g := &generator{rng: rand.New(rand.NewPCG(seed, seed>>1)), products: inputs, opts: o}
	enc := json.NewEncoder(bw)
	for i := 0; i < o.count; i++ {
		text := g.order()
		if o.envelope {
			if err := enc.Encode(map[string]string{"text": text}); err != nil {
				return fmt.Errorf("encode order %d: %w", i+1, err)
			}
			continue
		}
		if i > 0 {
			fmt.Fprintln(bw, "\n---")
		}
		fmt.Fprintln(bw, text)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	log.Info("generated order texts",
		zap.Int("count", o.count),
		zap.String("output", o.output),
		zap.Uint64("rand_seed", seed))
	return nil
}

type generator struct {
	rng      *rand.Rand
	products []model.ProductInput
	opts     options
}

var greetings = []string{"Bom dia!", "Boa tarde pessoal", "segue o pedido", "obrigada 🙏"}

func (g *generator) order() string {
	var b strings.Builder
	for s := 1; s <= g.opts.stores; s++ {
		if s > 1 {
			b.WriteString("\n")
		}
		if g.rng.Float64() < g.opts.noise {
			b.WriteString(greetings[g.rng.IntN(len(greetings))] + "\n")
		}
		fmt.Fprintf(&b, "%s\n", g.header(s))
		n := 1 + g.rng.IntN(max(g.opts.lines, 1))
		for range n {
			b.WriteString(g.line() + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (g *generator) header(store int) string {
	switch g.rng.IntN(3) {
	case 0:
		return fmt.Sprintf("Loja %d", store)
	case 1:
		return fmt.Sprintf("*LOJA %d*", store)
	default:
		return fmt.Sprintf("loja %d:", store)
	}
}

func (g *generator) line() string {
	p := g.products[g.rng.IntN(len(g.products))]
	name := p.Name
	if g.rng.Float64() < g.opts.noise {
		name = strings.ToLower(name)
	}
	bullet := ""
	if g.rng.IntN(4) == 0 {
		bullet = "- "
	}
	switch p.Unit {
	case model.UnitKg:
		qty := float64(1+g.rng.IntN(8)) / 2
		return fmt.Sprintf("%s%s %skg", bullet, name, compose.FormatNumber(qty))
	case model.UnitUnidade:
		return fmt.Sprintf("%s%d %s", bullet, 1+g.rng.IntN(12), name)
	default:
		if g.rng.Float64() < g.opts.noise {
			return bullet + name
		}
		return fmt.Sprintf("%s%s %ds", bullet, name, 1+g.rng.IntN(6))
	}
}
