package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arnavshah/shift-optimizer/pkg/milp"
	"github.com/arnavshah/shift-optimizer/pkg/models"
)

// SweepOptions configures FindFeasibleConfig. Zero values fall back to the defaults.
type SweepOptions struct {
	EmployeeCounts []int
	Seeds          []int64
	ProbeBudget    time.Duration
	Concurrency    int
	Logger         *zap.Logger
}

var (
	defaultSweepCounts = []int{8, 10, 12, 15, 18, 20}
	defaultSweepSeeds  = []int64{100, 200, 300, 500, 777, 1000, 1234, 1500, 2000, 2500}
)

const (
	defaultProbeBudget  = 10 * time.Second
	defaultSweepWorkers = 4
	maxReportedConfigs  = 10
)

func (o SweepOptions) withDefaults() SweepOptions {
	if len(o.EmployeeCounts) == 0 {
		o.EmployeeCounts = defaultSweepCounts
	}
	if len(o.Seeds) == 0 {
		o.Seeds = defaultSweepSeeds
	}
	if o.ProbeBudget <= 0 {
		o.ProbeBudget = defaultProbeBudget
	}
	if o.Concurrency <= 0 {
		o.Concurrency = defaultSweepWorkers
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// FindFeasibleConfig probes relaxed generated rosters over a grid of employee
// counts and seeds. For each count the seeds are tried in order until one is
// feasible. Counts are probed concurrently, each probe on its own model.
func FindFeasibleConfig(ctx context.Context, solver milp.Solver, opts SweepOptions) (*models.FeasibilityReport, error) {
	opts = opts.withDefaults()
	perCount := make([][]models.FeasibilityProbe, len(opts.EmployeeCounts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, count := range opts.EmployeeCounts {
		g.Go(func() error {
			for _, seed := range opts.Seeds {
				if err := gctx.Err(); err != nil {
					return err
				}
				probe := runProbe(gctx, solver, count, seed, opts.ProbeBudget)
				perCount[i] = append(perCount[i], probe)
				if probe.Feasible {
					break
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("feasibility sweep: %w", err)
	}

	report := &models.FeasibilityReport{
		Status:                 models.StatusSuccess,
		FeasibleConfigurations: []models.FeasibilityProbe{},
		AllResults:             []models.FeasibilityProbe{},
	}
	for _, probes := range perCount {
		for _, p := range probes {
			report.AllResults = append(report.AllResults, p)
			if p.Feasible {
				report.Summary.FeasibleFound++
				if len(report.FeasibleConfigurations) < maxReportedConfigs {
					report.FeasibleConfigurations = append(report.FeasibleConfigurations, p)
				}
			}
		}
	}
	report.Summary.TotalTested = len(report.AllResults)
	if report.Summary.TotalTested > 0 {
		rate := float64(report.Summary.FeasibleFound) / float64(report.Summary.TotalTested) * 100
		report.Summary.SuccessRate = fmt.Sprintf("%.1f%%", rate)
	} else {
		report.Summary.SuccessRate = "0%"
	}

	opts.Logger.Info("feasibility sweep finished",
		zap.Int("tested", report.Summary.TotalTested),
		zap.Int("feasible", report.Summary.FeasibleFound),
	)
	return report, nil
}

func runProbe(ctx context.Context, solver milp.Solver, count int, seed int64, budget time.Duration) models.FeasibilityProbe {
	probe := models.FeasibilityProbe{Employees: count, Seed: seed}

	inst, err := Normalize(flexibleRoster(count, seed))
	if err != nil {
		probe.Status = fmt.Sprintf("Error: %v", err)
		return probe
	}

	pctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	sol, err := solver.Solve(pctx, BuildModel(inst))
	if err != nil {
		probe.Status = fmt.Sprintf("Error: %v", err)
		return probe
	}
	probe.Feasible = sol.Status == milp.StatusOptimal
	probe.Status = sol.Status.String()
	return probe
}

// flexibleRoster is the relaxed generator the sweep probes: a core of fully
// available employees, no staffing minimums and generous headcount caps.
func flexibleRoster(count int, seed int64) *models.ScheduleRequest {
	count = ClampEmployees(count)
	rng := rand.New(rand.NewSource(seed))
	flexible := max(3, count/4)

	req := &models.ScheduleRequest{
		Days:                 append([]string(nil), exampleDays...),
		Shifts:               append([]models.ShiftDefinition(nil), exampleShifts...),
		Employees:            make([]models.EmployeeSpec, count),
		MinEmployeesPerShift: make(map[string]int),
		MaxEmployeesPerShift: make(map[string]int),
	}

	for i := 0; i < count; i++ {
		name := exampleNames[i]
		var minHours, maxHours float64
		var responsible bool
		availability := make(map[string]bool, len(exampleDays)*len(exampleShifts))

		if i < flexible {
			minHours, maxHours, responsible = 20, 40, true
			for _, day := range exampleDays {
				for _, sh := range exampleShifts {
					availability[AvailabilityKey(name, day, sh.Name)] = true
				}
			}
		} else {
			base := randInt(rng, 4, 12)
			minHours = float64(base)
			maxHours = float64(base + randInt(rng, 8, 16))
			responsible = rng.Float64() > 0.4
			for _, day := range exampleDays {
				for _, sh := range exampleShifts {
					availability[AvailabilityKey(name, day, sh.Name)] = rng.Float64() > 0.3
				}
			}
		}

		req.Employees[i] = models.EmployeeSpec{
			Name:             name,
			MinHours:         &minHours,
			MaxHours:         &maxHours,
			Wage:             exampleWage,
			CanBeResponsible: responsible,
			Availability:     availability,
			IsFullTime:       minHours >= 30,
		}
	}

	for _, day := range exampleDays {
		for _, sh := range exampleShifts {
			req.MaxEmployeesPerShift[ShiftKey(day, sh.Name)] = count
		}
	}
	return req
}
