package milp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
)

const (
	feasTol           = 1e-7
	integralTol       = 1e-9
	propagationPasses = 64
)

// BranchAndBound is a depth-first 0/1 branch-and-bound solver. Every node
// propagates variable bounds through the rows, then solves the LP relaxation
// of the rows that still bind. It holds configuration only, so one value can
// serve concurrent solves.
type BranchAndBound struct {
	// MaxNodes caps the search tree; 0 means unlimited.
	MaxNodes int
	// Tolerance is the distance from 0 or 1 below which a relaxed value counts as integral.
	Tolerance float64
	Logger    *zap.Logger
}

// NewBranchAndBound returns a solver with the default node cap.
func NewBranchAndBound(logger *zap.Logger) *BranchAndBound {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BranchAndBound{MaxNodes: 200000, Tolerance: 1e-6, Logger: logger}
}

type node struct {
	lo, hi []float64
}

// Solve implements Solver.
func (b *BranchAndBound) Solve(ctx context.Context, m *Model) (*Solution, error) {
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tol := b.Tolerance
	if tol <= 0 {
		tol = 1e-6
	}

	n := m.NumVars()
	lo := make([]float64, n)
	hi := make([]float64, n)
	for j := range hi {
		hi[j] = 1
	}

	integralCost := true
	for _, c := range m.Objective() {
		if !isIntegral(c) {
			integralCost = false
			break
		}
	}

	stack := []node{{lo: lo, hi: hi}}
	incumbent := math.Inf(1)
	var best []float64
	nodes := 0

	limited := func(status Status, detail string) *Solution {
		sol := &Solution{Status: status, Nodes: nodes, Detail: detail}
		if best != nil {
			sol.Values = best
			sol.Objective = incumbent
			sol.Detail = fmt.Sprintf("%s; best incumbent cost %g", detail, incumbent)
		}
		return sol
	}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return limited(StatusTimeLimit, "time budget exhausted"), nil
		}
		if b.MaxNodes > 0 && nodes >= b.MaxNodes {
			return limited(StatusNodeLimit, fmt.Sprintf("node limit %d reached", b.MaxNodes)), nil
		}

		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		if !propagate(m.Constraints(), nd.lo, nd.hi) {
			continue
		}

		relax, err := relaxation(ctx, m, nd.lo, nd.hi)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return limited(StatusTimeLimit, "time budget exhausted"), nil
			}
			return nil, fmt.Errorf("solve relaxation at node %d: %w", nodes, err)
		}
		switch relax.status {
		case StatusInfeasible:
			continue
		case StatusUnbounded:
			return &Solution{Status: StatusUnbounded, Nodes: nodes}, nil
		}

		bound := relax.obj
		if integralCost {
			bound = math.Ceil(bound - 1e-6)
		}
		if bound >= incumbent-1e-9 {
			continue
		}

		j := branchVariable(relax.x, tol)
		if j < 0 {
			values := make([]float64, n)
			for k, v := range relax.x {
				values[k] = math.Round(v)
			}
			obj := m.Evaluate(values)
			if obj < incumbent {
				incumbent = obj
				best = values
				logger.Debug("milp incumbent", zap.Int("node", nodes), zap.Float64("objective", obj))
			}
			continue
		}

		down := node{lo: clone(nd.lo), hi: clone(nd.hi)}
		down.hi[j] = 0
		up := node{lo: clone(nd.lo), hi: clone(nd.hi)}
		up.lo[j] = 1
		// The child pushed last is explored first.
		if relax.x[j] >= 0.5 {
			stack = append(stack, down, up)
		} else {
			stack = append(stack, up, down)
		}
	}

	if best == nil {
		return &Solution{Status: StatusInfeasible, Nodes: nodes}, nil
	}
	logger.Debug("milp solved", zap.String("model", m.Name), zap.Int("nodes", nodes), zap.Float64("objective", incumbent))
	return &Solution{Status: StatusOptimal, Objective: incumbent, Values: best, Nodes: nodes}, nil
}

// propagate tightens binary bounds from row activities. It returns false
// when a row can no longer be satisfied.
func propagate(cons []Constraint, lo, hi []float64) bool {
	for pass := 0; pass < propagationPasses; pass++ {
		changed := false
		for _, c := range cons {
			if c.Sense != GreaterEq {
				minAct, _ := activity(c.Terms, lo, hi)
				if minAct > c.RHS+feasTol {
					return false
				}
				for _, t := range c.Terms {
					span := math.Abs(t.Coef) * (hi[t.Var] - lo[t.Var])
					if span > 0 && minAct+span > c.RHS+feasTol {
						if t.Coef > 0 {
							hi[t.Var] = lo[t.Var]
						} else {
							lo[t.Var] = hi[t.Var]
						}
						changed = true
					}
				}
			}
			if c.Sense != LessEq {
				_, maxAct := activity(c.Terms, lo, hi)
				if maxAct < c.RHS-feasTol {
					return false
				}
				for _, t := range c.Terms {
					span := math.Abs(t.Coef) * (hi[t.Var] - lo[t.Var])
					if span > 0 && maxAct-span < c.RHS-feasTol {
						if t.Coef > 0 {
							lo[t.Var] = hi[t.Var]
						} else {
							hi[t.Var] = lo[t.Var]
						}
						changed = true
					}
				}
			}
		}
		if !changed {
			return true
		}
	}
	return true
}

func activity(terms []Term, lo, hi []float64) (minAct, maxAct float64) {
	for _, t := range terms {
		if t.Coef >= 0 {
			minAct += t.Coef * lo[t.Var]
			maxAct += t.Coef * hi[t.Var]
		} else {
			minAct += t.Coef * hi[t.Var]
			maxAct += t.Coef * lo[t.Var]
		}
	}
	return minAct, maxAct
}

// relaxation solves the LP over the variables still free at this node.
// Fixed variables move into the right-hand sides, rows that can no longer
// bind are dropped, and rows with integral coefficients are divided by their
// gcd and rounded, which is valid because every variable is integral.
func relaxation(ctx context.Context, m *Model, lo, hi []float64) (*lpResult, error) {
	n := m.NumVars()
	col := make([]int, n)
	var free []int
	constant := 0.0
	obj := m.Objective()
	for j := 0; j < n; j++ {
		if lo[j] < hi[j] {
			col[j] = len(free)
			free = append(free, j)
		} else {
			col[j] = -1
			constant += obj[j] * lo[j]
		}
	}

	c := make([]float64, len(free))
	for k, j := range free {
		c[k] = obj[j]
	}

	var rows []lpRow
	for _, con := range m.Constraints() {
		rhs := con.RHS
		coefs := make([]float64, len(free))
		nonzero := false
		for _, t := range con.Terms {
			if k := col[t.Var]; k >= 0 {
				coefs[k] += t.Coef
				nonzero = nonzero || t.Coef != 0
			} else {
				rhs -= t.Coef * lo[t.Var]
			}
		}
		if !nonzero {
			if !residualHolds(con.Sense, rhs) {
				return &lpResult{status: StatusInfeasible}, nil
			}
			continue
		}

		minAct, maxAct := 0.0, 0.0
		for _, v := range coefs {
			if v > 0 {
				maxAct += v
			} else {
				minAct += v
			}
		}
		if (con.Sense == LessEq && maxAct <= rhs+feasTol) || (con.Sense == GreaterEq && minAct >= rhs-feasTol) {
			continue
		}

		sense := con.Sense
		if g := integerGCD(coefs); g > 0 {
			for k := range coefs {
				coefs[k] /= g
			}
			rhs /= g
			switch sense {
			case LessEq:
				rhs = math.Floor(rhs + 1e-9)
			case GreaterEq:
				rhs = math.Ceil(rhs - 1e-9)
			case Equal:
				if !isIntegral(rhs) {
					return &lpResult{status: StatusInfeasible}, nil
				}
				rhs = math.Round(rhs)
			}
		}
		rows = append(rows, lpRow{coefs: coefs, sense: sense, rhs: rhs})
	}

	upper := make([]float64, len(free))
	for k, j := range free {
		upper[k] = hi[j] - lo[j]
	}

	res, err := solveLP(ctx, c, rows, upper)
	if err != nil || res.status != StatusOptimal {
		return res, err
	}

	x := make([]float64, n)
	for j := 0; j < n; j++ {
		if k := col[j]; k >= 0 {
			x[j] = lo[j] + res.x[k]
		} else {
			x[j] = lo[j]
		}
	}
	return &lpResult{status: StatusOptimal, x: x, obj: constant + res.obj}, nil
}

func residualHolds(sense Sense, rhs float64) bool {
	switch sense {
	case LessEq:
		return 0 <= rhs+feasTol
	case GreaterEq:
		return 0 >= rhs-feasTol
	default:
		return math.Abs(rhs) <= feasTol
	}
}

// branchVariable picks the most fractional value, or -1 when all are integral.
func branchVariable(x []float64, tol float64) int {
	best, bestDist := -1, 1.0
	for j, v := range x {
		f := v - math.Floor(v)
		if f <= tol || f >= 1-tol {
			continue
		}
		if d := math.Abs(f - 0.5); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

// integerGCD returns the gcd of coefs when every one is integral, else 0.
func integerGCD(coefs []float64) float64 {
	var g int64
	for _, v := range coefs {
		if v == 0 {
			continue
		}
		if !isIntegral(v) || math.Abs(v) > 1<<40 {
			return 0
		}
		g = gcd(g, int64(math.Abs(math.Round(v))))
	}
	return float64(g)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func isIntegral(v float64) bool {
	return math.Abs(v-math.Round(v)) <= integralTol
}

func clone(s []float64) []float64 {
	out := make([]float64, len(s))
	copy(out, s)
	return out
}
