// Command wamc is a small demonstration front end for package wam. It
// has no parser of its own (spec.md assigns surface syntax to an
// external front end): its knowledge bases and queries are built with
// wam's programmatic term constructors and selected by name on the
// command line.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/gowam/wam"
	"github.com/gowam/wam/internal/logio"
)

func main() {
	var (
		demoName      string
		trace         bool
		dump          bool
		maxInferences int
		noIndex       bool
	)
	flag.StringVar(&demoName, "demo", "length-member", "which built-in demo to run ("+demoNames()+")")
	flag.BoolVar(&trace, "trace", false, "log one line per instruction executed")
	flag.BoolVar(&dump, "dump", false, "print compiled clause disassembly before running")
	flag.IntVar(&maxInferences, "max-inferences", 1_000_000, "abort the query after this many instructions (0 = unbounded)")
	flag.BoolVar(&noIndex, "no-index", false, "disable first-argument indexing (for comparing against full-scan dispatch)")
	flag.Parse()

	top := hclog.New(&hclog.LoggerOptions{Name: "wamc", Level: hclog.Info, Output: os.Stderr})

	d, ok := demos[demoName]
	if !ok {
		top.Error("unknown demo", "name", demoName, "available", demoNames())
		os.Exit(2)
	}

	traceLog := logio.Logger{}
	traceLog.SetOutput(os.Stderr)
	defer func() { os.Exit(traceLog.ExitCode()) }()

	opts := []wam.MachineOption{
		wam.WithMaxInferences(maxInferences),
		wam.WithIndexing(!noIndex),
	}
	if trace {
		tracef := traceLog.Leveledf("TRACE")
		opts = append(opts, wam.WithLogf(func(mark, mess string, args ...interface{}) {
			tracef(mark+" "+mess, args...)
		}))
	}

	top.Info("compiling knowledge base", "demo", demoName, "clauses", len(d.clauses))
	prog := wam.Build(d.clauses, opts...)

	if dump {
		fmt.Print(prog.Disassemble())
	}

	top.Info("running query", "query", fmt.Sprint(d.query))
	sols := prog.Solve(d.query...)

	n := 0
	for {
		sol, ok, err := sols.Next()
		if err != nil {
			traceLog.Errorf("%+v", err)
			return
		}
		if !ok {
			break
		}
		n++
		fmt.Printf("--- solution %d ---\n%s\n", n, sol)
	}
	top.Info("done", "solutions", n)
}
