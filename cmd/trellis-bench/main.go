// trellis-bench measures throughput of the core trellis operations:
// bulk construction, incremental inserts, binary search, node lifecycle
// round-trips, traversal, and shape rebuilds.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/phroun/trellis"
)

type benchResult struct {
	name     string
	duration time.Duration
	ops      int
}

func main() {
	var size int
	var seed int64

	rootCmd := &cobra.Command{
		Use:           "trellis-bench",
		Short:         "Benchmark and stress test for the trellis library",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBench(size, seed)
		},
	}
	rootCmd.Flags().IntVar(&size, "size", 1_000_000, "number of values in the working tree")
	rootCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runBench(size int, seed int64) error {
	fmt.Println("Trellis Benchmark")
	fmt.Printf("Working set: %s values\n", humanize.Comma(int64(size)))
	fmt.Printf("Go version: %s, GOMAXPROCS: %d\n", runtime.Version(), runtime.GOMAXPROCS(0))
	fmt.Println()

	rng := rand.New(rand.NewSource(seed))
	values := rng.Perm(size)

	var results []benchResult
	measure := func(name string, ops int, fn func()) {
		start := time.Now()
		fn()
		results = append(results, benchResult{name, time.Since(start), ops})
	}

	var tree *trellis.Tree[int]
	measure("bulk construction (sort + dedupe)", size, func() {
		tree = trellis.NewWithOptions(values, trellis.Options[int]{})
	})

	measure("first shape rebuild", 1, func() {
		tree.Rebuild()
	})

	const lookups = 1_000_000
	measure("IndexOf (hit)", lookups, func() {
		for i := 0; i < lookups; i++ {
			tree.IndexOf(values[i%size])
		}
	})
	measure("IndexOf (miss)", lookups, func() {
		for i := 0; i < lookups; i++ {
			tree.IndexOf(size + i)
		}
	})

	inserts := size / 10
	measure("incremental insert", inserts, func() {
		for i := 0; i < inserts; i++ {
			tree.Insert(size + i)
		}
	})

	measure("in-order traversal", tree.Size(), func() {
		_ = tree.Traverse(func(*trellis.Node[int]) {}, trellis.TraversalOptions{})
	})
	measure("pre-order traversal", tree.Size(), func() {
		_ = tree.Traverse(func(*trellis.Node[int]) {}, trellis.TraversalOptions{Order: trellis.OrderPre})
	})

	cycles := size / 10
	measure("detach/join round-trip", cycles, func() {
		for i := 0; i < cycles; i++ {
			n := tree.At(rng.Intn(tree.Size()))
			n.Detach()
			_ = n.Join()
		}
	})

	removes := size / 10
	measure("remove", removes, func() {
		for i := 0; i < removes; i++ {
			tree.Remove(values[i%size])
		}
	})

	measure("cleanup", 1, func() {
		tree.Cleanup()
	})

	printResults(results)

	stats := tree.Stats()
	fmt.Printf("\nFinal tree: %s live nodes, shape height %d\n",
		humanize.Comma(int64(stats.Size)), stats.ShapeHeight)
	return nil
}

func printResults(results []benchResult) {
	w := table.NewWriter()
	w.SetOutputMirror(os.Stdout)
	w.AppendHeader(table.Row{"Operation", "Ops", "Duration", "Ops/sec"})
	for _, r := range results {
		opsPerSec := "-"
		if r.ops > 1 && r.duration > 0 {
			opsPerSec = humanize.Comma(int64(float64(r.ops) / r.duration.Seconds()))
		}
		w.AppendRow(table.Row{
			r.name,
			humanize.Comma(int64(r.ops)),
			r.duration.Round(time.Microsecond),
			opsPerSec,
		})
	}
	w.Render()
}
