package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arnavshah/shift-optimizer/pkg/milp"
	"github.com/arnavshah/shift-optimizer/pkg/models"
)

// DefaultTimeBudget bounds a single solve when none is configured
const DefaultTimeBudget = 30 * time.Second

// Observer receives one event per finished solve
type Observer interface {
	ObserveSolve(status string, elapsed time.Duration)
}

// Engine runs normalize, build, solve and decode for one request at a time.
// It holds only immutable configuration and is safe for concurrent use.
type Engine struct {
	solver     milp.Solver
	timeBudget time.Duration
	logger     *zap.Logger
	observer   Observer
}

// Option configures an Engine
type Option func(*Engine)

// WithTimeBudget caps the wall-clock time of each solve
func WithTimeBudget(d time.Duration) Option {
	return func(e *Engine) { e.timeBudget = d }
}

// WithLogger sets the engine logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver reports solve outcomes, typically to metrics
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// NewEngine creates a new engine around a MILP backend
func NewEngine(solver milp.Solver, opts ...Option) *Engine {
	e := &Engine{
		solver:     solver,
		timeBudget: DefaultTimeBudget,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Solve validates req and solves it. Only validation failures are returned as
// errors; every solver outcome is a result.
func (e *Engine) Solve(ctx context.Context, req *models.ScheduleRequest) (*models.ScheduleResult, error) {
	inst, err := Normalize(req)
	if err != nil {
		return nil, err
	}
	return e.SolveInstance(ctx, inst), nil
}

// SolveInstance builds, solves and decodes an already normalized instance
func (e *Engine) SolveInstance(ctx context.Context, inst *Instance) *models.ScheduleResult {
	model := BuildModel(inst)
	e.logger.Debug("model built",
		zap.Int("employees", len(inst.Employees)),
		zap.Int("variables", model.NumVars()),
		zap.Int("constraints", model.NumConstraints()),
	)

	solveCtx := ctx
	if e.timeBudget > 0 {
		var cancel context.CancelFunc
		solveCtx, cancel = context.WithTimeout(ctx, e.timeBudget)
		defer cancel()
	}

	start := time.Now()
	sol, err := e.solver.Solve(solveCtx, model)
	elapsed := time.Since(start)

	res := Decode(inst, sol, err)

	fields := []zap.Field{
		zap.String("status", res.Status),
		zap.Duration("elapsed", elapsed),
	}
	if sol != nil {
		fields = append(fields, zap.Int("nodes", sol.Nodes))
	}
	if res.TotalCost != nil {
		fields = append(fields, zap.Float64("total_cost", *res.TotalCost))
	}
	switch res.Status {
	case models.StatusUnbounded:
		e.logger.Warn("schedule model is unbounded", fields...)
	case models.StatusError:
		e.logger.Error("schedule solve failed", append(fields, zap.String("message", res.Message))...)
	default:
		e.logger.Info("schedule solved", fields...)
	}

	if e.observer != nil {
		e.observer.ObserveSolve(res.Status, elapsed)
	}
	return res
}
