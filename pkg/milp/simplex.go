package milp

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	pivotTol      = 1e-9
	costTol       = 1e-9
	phaseOneTol   = 1e-7
	dropTol       = 1e-14
	blandAfter    = 50
	ctxCheckEvery = 64
)

var errIterationLimit = errors.New("milp: simplex iteration limit reached")

// lpRow is a dense row over the structural variables of one relaxation.
type lpRow struct {
	coefs []float64
	sense Sense
	rhs   float64
}

type lpResult struct {
	status Status
	x      []float64
	obj    float64
}

// tableau is a dense simplex tableau. Each row carries its right-hand side in
// the last column; cost holds reduced costs with -z in the last column.
type tableau struct {
	rows  [][]float64
	cost  []float64
	basis []int
	width int
}

// solveLP minimises c·x subject to rows and 0 <= x_j <= upper[j] with a
// two-phase tableau simplex. Upper bounds become explicit rows.
func solveLP(ctx context.Context, c []float64, rows []lpRow, upper []float64) (*lpResult, error) {
	n := len(c)

	all := make([]lpRow, 0, len(rows)+n)
	all = append(all, rows...)
	for j, u := range upper {
		if math.IsInf(u, 1) {
			continue
		}
		coefs := make([]float64, n)
		coefs[j] = 1
		all = append(all, lpRow{coefs: coefs, sense: LessEq, rhs: u})
	}

	// Normalise to non-negative right-hand sides and count auxiliary columns.
	slacks, artificials := 0, 0
	for i := range all {
		if all[i].rhs < 0 {
			neg := make([]float64, n)
			for j, v := range all[i].coefs {
				neg[j] = -v
			}
			all[i].coefs = neg
			all[i].rhs = -all[i].rhs
			switch all[i].sense {
			case LessEq:
				all[i].sense = GreaterEq
			case GreaterEq:
				all[i].sense = LessEq
			}
		}
		switch all[i].sense {
		case LessEq:
			slacks++
		case GreaterEq:
			slacks++
			artificials++
		case Equal:
			artificials++
		}
	}

	m := len(all)
	slackStart := n
	artStart := n + slacks
	width := n + slacks + artificials

	t := &tableau{
		rows:  make([][]float64, m),
		cost:  make([]float64, width+1),
		basis: make([]int, m),
		width: width,
	}
	nextSlack, nextArt := slackStart, artStart
	for i, r := range all {
		row := make([]float64, width+1)
		copy(row, r.coefs)
		row[width] = r.rhs
		switch r.sense {
		case LessEq:
			row[nextSlack] = 1
			t.basis[i] = nextSlack
			nextSlack++
		case GreaterEq:
			row[nextSlack] = -1
			nextSlack++
			row[nextArt] = 1
			t.basis[i] = nextArt
			nextArt++
		case Equal:
			row[nextArt] = 1
			t.basis[i] = nextArt
			nextArt++
		}
		t.rows[i] = row
	}

	maxIter := 20*(m+width) + 1000

	if artificials > 0 {
		phaseOne := make([]float64, width)
		for j := artStart; j < width; j++ {
			phaseOne[j] = 1
		}
		t.price(phaseOne)
		if _, err := t.optimize(ctx, width, maxIter); err != nil {
			return nil, err
		}
		if -t.cost[width] > phaseOneTol*math.Max(1, t.rhsScale()) {
			return &lpResult{status: StatusInfeasible}, nil
		}
		t.evictArtificials(artStart)
	}

	phaseTwo := make([]float64, width)
	copy(phaseTwo, c)
	t.price(phaseTwo)
	status, err := t.optimize(ctx, artStart, maxIter)
	if err != nil {
		return nil, err
	}
	if status == StatusUnbounded {
		return &lpResult{status: StatusUnbounded}, nil
	}

	x := make([]float64, n)
	for i, b := range t.basis {
		if b < n {
			v := t.rows[i][width]
			if v < 0 {
				v = 0
			}
			x[b] = v
		}
	}
	obj := 0.0
	for j := range c {
		obj += c[j] * x[j]
	}
	return &lpResult{status: StatusOptimal, x: x, obj: obj}, nil
}

// price rebuilds the reduced-cost row for cost vector c and the current basis.
func (t *tableau) price(c []float64) {
	for j := range t.cost {
		t.cost[j] = 0
	}
	copy(t.cost, c)
	for i, b := range t.basis {
		if cb := c[b]; cb != 0 {
			floats.AddScaled(t.cost, -cb, t.rows[i])
		}
	}
}

func (t *tableau) rhsScale() float64 {
	s := 0.0
	for _, r := range t.rows {
		s += math.Abs(r[t.width])
	}
	return s
}

// optimize pivots until no column below limit has a negative reduced cost.
// Dantzig pricing is used until a run of degenerate pivots, then Bland's rule.
func (t *tableau) optimize(ctx context.Context, limit, maxIter int) (Status, error) {
	degenerate := 0
	for iter := 0; ; iter++ {
		if iter >= maxIter {
			return StatusNotSolved, errIterationLimit
		}
		if iter%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return StatusNotSolved, err
			}
		}
		col := t.entering(limit, degenerate > blandAfter)
		if col < 0 {
			return StatusOptimal, nil
		}
		row := t.leaving(col)
		if row < 0 {
			return StatusUnbounded, nil
		}
		if t.rows[row][t.width] <= pivotTol {
			degenerate++
		} else {
			degenerate = 0
		}
		t.pivot(row, col)
	}
}

func (t *tableau) entering(limit int, bland bool) int {
	best, bestVal := -1, -costTol
	for j := 0; j < limit; j++ {
		d := t.cost[j]
		if d >= -costTol {
			continue
		}
		if bland {
			return j
		}
		if d < bestVal {
			best, bestVal = j, d
		}
	}
	return best
}

// leaving runs the minimum ratio test, breaking ties on the smallest basic index.
func (t *tableau) leaving(col int) int {
	best := -1
	bestRatio := math.Inf(1)
	for i, r := range t.rows {
		a := r[col]
		if a <= pivotTol {
			continue
		}
		rhs := r[t.width]
		if rhs < 0 {
			rhs = 0
		}
		ratio := rhs / a
		switch {
		case ratio < bestRatio-1e-12:
			best, bestRatio = i, ratio
		case ratio <= bestRatio+1e-12 && best >= 0 && t.basis[i] < t.basis[best]:
			best = i
		}
	}
	return best
}

func (t *tableau) pivot(row, col int) {
	pr := t.rows[row]
	floats.Scale(1/pr[col], pr)
	pr[col] = 1
	for i, r := range t.rows {
		if i == row {
			continue
		}
		f := r[col]
		if f == 0 {
			continue
		}
		if math.Abs(f) > dropTol {
			floats.AddScaled(r, -f, pr)
		}
		r[col] = 0
	}
	if f := t.cost[col]; f != 0 {
		floats.AddScaled(t.cost, -f, pr)
		t.cost[col] = 0
	}
	t.basis[row] = col
}

// evictArtificials pivots zero-valued artificial columns out of the basis
// after phase one. Rows with no usable column are redundant and keep their
// artificial at zero; phase two never lets artificials re-enter.
func (t *tableau) evictArtificials(artStart int) {
	for i, b := range t.basis {
		if b < artStart {
			continue
		}
		r := t.rows[i]
		for j := 0; j < artStart; j++ {
			if math.Abs(r[j]) > pivotTol {
				t.pivot(i, j)
				break
			}
		}
	}
}
