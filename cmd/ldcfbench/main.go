// Command ldcfbench drives an LDCF through insert, round-trip, or
// false-positive-sampling passes from the command line, reporting
// throughput and per-level occupancy. It is a diagnostic harness, not
// part of the filter's core contract.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"ldcf/internal/ldcf"
	"ldcf/internal/logging"
	"ldcf/internal/memstat"
	"ldcf/internal/rngsrc"
	"ldcf/pkg/config"
)

var (
	configPath = flag.String("config", "configs/ldcf.yaml", "Path to configuration file")
	population = flag.Uint64("n", 0, "Expected population (0 uses the config file value)")
	epsilon    = flag.Float64("epsilon", 0, "Target false-positive rate (0 uses the config file value)")
	levels     = flag.Uint("levels", 0, "Expected tree depth lambda (0 uses the config file value)")
	mode       = flag.String("mode", "roundtrip", "Benchmark mode: insert, roundtrip, fpr-sample")
	seed       = flag.Int64("seed", 0, "RNG seed (0 uses the config file value; a zero seed there seeds from the OS CSPRNG)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *population != 0 {
		cfg.Filter.ExpectedPopulation = *population
	}
	if *epsilon != 0 {
		cfg.Filter.Epsilon = *epsilon
	}
	if *levels != 0 {
		cfg.Filter.ExpectedLevels = *levels
	}
	if *seed != 0 {
		cfg.Filter.Seed = *seed
	}

	logger, err := logging.InitializeFromConfig("ldcfbench", logging.LogConfig{
		Level:         cfg.Logging.Level,
		EnableConsole: cfg.Logging.EnableConsole,
		EnableFile:    cfg.Logging.EnableFile,
		LogFile:       cfg.Logging.LogFile,
		LogDir:        cfg.Logging.LogDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	ctx := logging.WithCorrelationID(context.Background(), logging.NewCorrelationID())

	logging.Info(ctx, logging.ComponentMain, logging.ActionStart, "ldcfbench starting", map[string]interface{}{
		"mode":       *mode,
		"epsilon":    cfg.Filter.Epsilon,
		"population": cfg.Filter.ExpectedPopulation,
		"levels":     cfg.Filter.ExpectedLevels,
	})

	var rng *rngsrc.Source
	if cfg.Filter.Seed != 0 {
		rng = rngsrc.NewSeeded(cfg.Filter.Seed)
	} else {
		rng = rngsrc.New()
	}

	tree := ldcf.NewWithSource(cfg.Filter.Epsilon, cfg.Filter.ExpectedPopulation, cfg.Filter.ExpectedLevels, rng)
	tracker := memstat.New("ldcfbench-tree", cfg.Filter.MemoryBudgetBytes)

	switch *mode {
	case "insert":
		runInsert(ctx, tree, tracker, cfg.Filter.ExpectedPopulation)
	case "roundtrip":
		runRoundtrip(ctx, tree, tracker, cfg.Filter.ExpectedPopulation)
	case "fpr-sample":
		runFPRSample(ctx, tree, tracker, cfg.Filter.ExpectedPopulation)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q: want insert, roundtrip, or fpr-sample\n", *mode)
		os.Exit(1)
	}

	printStats(tree)
}

func runInsert(ctx context.Context, tree *ldcf.LDCF, tracker *memstat.Tracker, n uint64) {
	timer := logging.StartPhase(ctx, logging.ComponentBench, logging.ActionInsert, "insert pass", map[string]interface{}{"n": n})
	for i := uint64(0); i < n; i++ {
		tree.Insert([]byte(fmt.Sprintf("item-%d", i)))
	}
	tracker.Sample(int64(tree.MemoryUsage()))
	timer.Stop(map[string]interface{}{"size": tree.Size()})
}

func runRoundtrip(ctx context.Context, tree *ldcf.LDCF, tracker *memstat.Tracker, n uint64) {
	timer := logging.StartPhase(ctx, logging.ComponentBench, logging.ActionInsert, "insert+contains pass", map[string]interface{}{"n": n})
	missing := 0
	for i := uint64(0); i < n; i++ {
		item := []byte(fmt.Sprintf("item-%d", i))
		tree.Insert(item)
		if !tree.Contains(item) {
			missing++
		}
	}
	tracker.Sample(int64(tree.MemoryUsage()))
	timer.Stop(map[string]interface{}{"size": tree.Size(), "missing_after_insert": missing})
}

func runFPRSample(ctx context.Context, tree *ldcf.LDCF, tracker *memstat.Tracker, n uint64) {
	insertTimer := logging.StartPhase(ctx, logging.ComponentBench, logging.ActionInsert, "insert pass", map[string]interface{}{"n": n})
	r := rand.New(rand.NewSource(1))
	for i := uint64(0); i < n; i++ {
		tree.Insert(randomBytes(r, 10))
	}
	tracker.Sample(int64(tree.MemoryUsage()))
	insertTimer.Stop(map[string]interface{}{"size": tree.Size()})

	sampleTimer := logging.StartPhase(ctx, logging.ComponentBench, logging.ActionSample, "false-positive sample", map[string]interface{}{"samples": 1000})
	falsePositives := 0
	for i := 0; i < 1000; i++ {
		if tree.Contains(randomBytes(r, 10)) {
			falsePositives++
		}
	}
	sampleTimer.Stop(map[string]interface{}{"false_positives": falsePositives})

	fmt.Printf("false positives: %d / 1000 (%.4f)\n", falsePositives, float64(falsePositives)/1000)
}

func randomBytes(r *rand.Rand, n int) []byte {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[r.Intn(len(letters))]
	}
	return b
}

func printStats(tree *ldcf.LDCF) {
	fmt.Printf("size: %d, depth: %d\n", tree.Size(), tree.Depth())
	for _, s := range tree.Stats() {
		fmt.Printf("  level %d: filters=%d items=%d capacity=%d load=%.3f eviction_chains=%d max_eviction_length=%d memory=%dB\n",
			s.Level, s.Filters, s.Items, s.Capacity, s.LoadFactor,
			s.EvictionChains, s.MaxEvictionLength, s.MemoryEstimate)
	}
}
