// Command simulate runs Monte Carlo rounds against a catalog game and
// prints the report as JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	jsoniter "github.com/json-iterator/go"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"github.com/MJE43/outcome-engine-go/internal/config"
	"github.com/MJE43/outcome-engine-go/internal/sim"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	var (
		game    = flag.String("game", "slots", "catalog game id")
		rounds  = flag.Uint64("rounds", 100_000, "rounds to simulate")
		workers = flag.Int("workers", runtime.GOMAXPROCS(0), "worker goroutines")
		catalog = flag.String("config", os.Getenv("OUTCOME_CONFIG"), "game catalog yaml, empty for the embedded default")
		prefix  = flag.String("seed", "", "seed prefix, defaults to sim:<game>")
		timeout = flag.Int("timeout-ms", 0, "abort after this many milliseconds, 0 for none")
		list    = flag.Bool("list", false, "list catalog games and exit")
		verbose = flag.Bool("v", false, "log reconstruction warnings")
	)
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
			os.Exit(1)
		}
		logger = l
	}
	defer logger.Sync()

	c, err := config.Load(*catalog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load catalog: %v\n", err)
		os.Exit(1)
	}

	if *list {
		for _, spec := range c.Specs() {
			fmt.Printf("%-20s %-10s %s\n", spec.ID, spec.Family, spec.Name)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s := sim.New(c, logger, sim.WithWorkers(*workers))
	rep, err := s.Run(ctx, sim.Request{
		GameID:     *game,
		Rounds:     *rounds,
		SeedPrefix: *prefix,
		TimeoutMs:  *timeout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulate %s: %v\n", *game, err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		fmt.Fprintf(os.Stderr, "encode report: %v\n", err)
		os.Exit(1)
	}
}
