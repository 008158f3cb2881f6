// Command kerf evaluates a scene script and prints the intersection
// lines of every job it declares as JSON.
//
// Usage:
//
//	kerf [-v] [-refine] [-timeout 5s] script.kerf
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/chazu/kerf/pkg/ssi"
)

func main() {
	verbose := flag.Bool("v", false, "log pipeline stages to stderr")
	refine := flag.Bool("refine", false, "refine every job's points onto the exact surfaces")
	timeout := flag.Duration("timeout", 0, "overall time limit (0 for none)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: kerf [flags] script.kerf\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if *verbose {
		ssi.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	source, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "kerf: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	start := time.Now()
	report := NewApp(*refine).Run(ctx, string(source))
	ssi.Logger().Info("kerf: finished", "jobs", len(report.Jobs), "elapsed", time.Since(start))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintf(os.Stderr, "kerf: %v\n", err)
		os.Exit(1)
	}
	if len(report.Errors) > 0 {
		for _, e := range report.Errors {
			fmt.Fprintf(os.Stderr, "%s:%d:%d: %s\n", flag.Arg(0), e.Line, e.Col, e.Message)
		}
		os.Exit(1)
	}
}
