// Package main provides the entry point for cachesim, a trace-driven
// multi-level cache simulator.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/andreipoe/cachesim/config"
	"github.com/andreipoe/cachesim/timing/hierarchy"
	"github.com/andreipoe/cachesim/trace"
)

const (
	exitInvalidCLI = iota + 1
	exitInvalidConfig
	exitInvalidTrace
	exitUnknownEncoding
	exitConfigNotFound
)

var (
	configPath = flag.String("config", "", "Path to the cache hierarchy configuration file")
	forceText  = flag.Bool("text", false, "Force the trace to be read as text, skipping the sniffer")
	forceBin   = flag.Bool("binary", false, "Force the trace to be read as binary, skipping the sniffer")
	workers    = flag.Int("workers", 1, "Worker count for the parallel binary reader")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if *configPath == "" || flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: cachesim -config <config.ini> [options] <trace-file>\n\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(exitInvalidCLI)
	}
	tracePath := flag.Arg(0)

	if _, err := os.Stat(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: configuration file not found: %v\n", err)
		os.Exit(exitConfigNotFound)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(exitInvalidConfig)
	}

	tr, err := loadTrace(tracePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitInvalidTrace)
	}

	if *verbose {
		fmt.Printf("Loaded trace: %s (%d requests)\n", tracePath, tr.Len())
		fmt.Printf("Loaded config: %s (%d levels)\n", *configPath, len(cfg.Levels))
	}

	h, err := hierarchy.New(cfg.Levels)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(exitInvalidConfig)
	}

	h.TouchAll(tr.Requests())

	printSummary(h)
}

func loadTrace(path string) (*trace.Trace, error) {
	encoding := trace.Text
	switch {
	case *forceText:
		encoding = trace.Text
	case *forceBin:
		encoding = trace.Binary
	default:
		sniffed, err := trace.SniffFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to sniff trace file: %w", err)
		}
		encoding = sniffed
	}

	switch encoding {
	case trace.Text:
		return trace.ReadTextFile(path)
	case trace.Binary:
		return trace.ReadBinaryParallel(path, *workers)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown trace encoding %d\n", encoding)
		os.Exit(exitUnknownEncoding)
		return nil, fmt.Errorf("unknown trace encoding")
	}
}

func printSummary(h *hierarchy.Hierarchy) {
	fmt.Printf("Current cycle: %d\n", h.CurrentCycle())
	fmt.Printf("Requested bytes (CPU -> L1): %d\n\n", h.Traffic(0))

	for l := 1; l <= h.NLevels(); l++ {
		c := h.Level(l)
		fmt.Printf("L%d (%s): hits=%d misses=%d total=%d evictions=%d traffic_in=%d\n",
			l, c.Type(), c.Hits(), c.Misses(), c.Total(), c.Evictions(), h.Traffic(l))
	}

	bundles := h.Bundles()
	if len(bundles) > 0 {
		fmt.Printf("\nBundles:\n")
		for pc, stats := range bundles {
			fmt.Printf("  pc=0x%x times_encountered=%d total_ops=%d\n", pc, stats.TimesEncountered, stats.TotalOps)
		}
	}
}
