package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/arnavshah/shift-optimizer/pkg/config"
	"github.com/arnavshah/shift-optimizer/pkg/logger"
	"github.com/arnavshah/shift-optimizer/pkg/milp"
	"github.com/arnavshah/shift-optimizer/pkg/scheduler"
)

// Prints a feasibility sweep report as JSON, e.g.
//
//	feasibility -employees 8,10,12 -seeds 100,200,300
func main() {
	counts := flag.String("employees", "", "comma separated employee counts (default 8,10,12,15,18,20)")
	seeds := flag.String("seeds", "", "comma separated seeds (default 100..2500)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	zl, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = zl.Sync() }()

	opts := scheduler.SweepOptions{
		ProbeBudget: cfg.Solver.SweepProbeBudget,
		Concurrency: cfg.Solver.SweepConcurrency,
		Logger:      zl,
	}
	if opts.EmployeeCounts, err = parseList(*counts, strconv.Atoi); err != nil {
		zl.Fatal("invalid -employees", zap.Error(err))
	}
	if opts.Seeds, err = parseList(*seeds, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }); err != nil {
		zl.Fatal("invalid -seeds", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	solver, err := milp.NewSolver(cfg.Solver.Backend, cfg.Solver.MaxNodes, zl.Named("milp"))
	if err != nil {
		zl.Fatal("invalid solver backend", zap.Error(err))
	}

	report, err := scheduler.FindFeasibleConfig(ctx, solver, opts)
	if err != nil {
		zl.Fatal("sweep failed", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		zl.Fatal("write report", zap.Error(err))
	}
}

func parseList[T any](raw string, parse func(string) (T, error)) ([]T, error) {
	if raw == "" {
		return nil, nil
	}
	var out []T
	for _, part := range strings.Split(raw, ",") {
		v, err := parse(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
