package milp

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lukpank/go-glpk/glpk"
	"go.uber.org/zap"
)

// GLPK solves models with the GNU Linear Programming Kit through cgo. It
// holds configuration only, so one value can serve concurrent solves.
//
// The wrapper exposes no time limit on glp_iocp, so the context deadline is
// enforced from Go: when it fires, Solve returns StatusTimeLimit and the
// abandoned GLPK run finishes on its own thread and frees its problem.
type GLPK struct {
	Logger *zap.Logger
}

// NewGLPK returns a GLPK backend that logs through logger.
func NewGLPK(logger *zap.Logger) *GLPK {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GLPK{Logger: logger}
}

type glpkResult struct {
	sol *Solution
	err error
}

// Solve implements Solver.
func (g *GLPK) Solve(ctx context.Context, m *Model) (*Solution, error) {
	logger := g.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if ctx.Err() != nil {
		return &Solution{Status: StatusTimeLimit, Detail: "time budget exhausted before the solve started"}, nil
	}
	// Nothing to search; only constant rows can fail.
	if m.NumVars() == 0 {
		return solveEmpty(m), nil
	}

	done := make(chan glpkResult, 1)
	go func() {
		// GLPK keeps its environment in thread-local storage; the problem
		// must be created, solved and deleted on one OS thread.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		sol, err := solveGLPK(m)
		done <- glpkResult{sol: sol, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil {
			logger.Debug("glpk finished",
				zap.String("model", m.Name),
				zap.Int("vars", m.NumVars()),
				zap.Int("rows", m.NumConstraints()),
				zap.Stringer("status", r.sol.Status))
		}
		return r.sol, r.err
	case <-ctx.Done():
		logger.Warn("glpk exceeded its time budget, abandoning the run",
			zap.String("model", m.Name), zap.Int("vars", m.NumVars()))
		return &Solution{Status: StatusTimeLimit, Detail: "time budget exhausted"}, nil
	}
}

func solveEmpty(m *Model) *Solution {
	if len(m.Violations(nil, feasTol)) > 0 {
		return &Solution{Status: StatusInfeasible}
	}
	return &Solution{Status: StatusOptimal, Values: []float64{}}
}

func solveGLPK(m *Model) (*Solution, error) {
	lp := glpk.New()
	defer lp.Delete()
	lp.SetProbName(glpkName(m.Name))
	lp.SetObjDir(glpk.ObjDir(glpk.MIN))

	// GLPK indexes rows and columns from 1.
	n := m.NumVars()
	lp.AddCols(n)
	for j, c := range m.Objective() {
		col := j + 1
		lp.SetColName(col, glpkName(m.VarName(j)))
		lp.SetColKind(col, glpk.VarType(glpk.BV))
		lp.SetObjCoef(col, c)
	}

	rows := m.Constraints()
	if len(rows) > 0 {
		lp.AddRows(len(rows))
	}
	for i, c := range rows {
		row := i + 1
		lp.SetRowName(row, glpkName(c.Name))
		switch c.Sense {
		case LessEq:
			lp.SetRowBnds(row, glpk.BndsType(glpk.UP), 0, c.RHS)
		case GreaterEq:
			lp.SetRowBnds(row, glpk.BndsType(glpk.LO), c.RHS, 0)
		default:
			lp.SetRowBnds(row, glpk.BndsType(glpk.FX), c.RHS, c.RHS)
		}
		ind, val := matRow(c.Terms)
		lp.SetMatRow(row, ind, val)
	}

	smcp := glpk.NewSmcp()
	smcp.SetMsgLev(glpk.MsgLev(glpk.MSG_ERR))
	if err := lp.Simplex(smcp); err != nil {
		return nil, fmt.Errorf("simplex solver failed: %w", err)
	}
	switch lp.Status() {
	case glpk.NOFEAS:
		return &Solution{Status: StatusInfeasible, Detail: "linear relaxation has no feasible point"}, nil
	case glpk.UNBND:
		return &Solution{Status: StatusUnbounded}, nil
	}

	iocp := glpk.NewIocp()
	iocp.SetPresolve(true)
	iocp.SetMsgLev(glpk.MsgLev(glpk.MSG_ERR))
	if err := lp.Intopt(iocp); err != nil {
		switch {
		case errors.Is(err, glpk.OptError(glpk.ENOPFS)):
			return &Solution{Status: StatusInfeasible}, nil
		case errors.Is(err, glpk.OptError(glpk.ENODFS)):
			return &Solution{Status: StatusUnbounded}, nil
		case errors.Is(err, glpk.OptError(glpk.ETMLIM)):
			return limitedMIP(lp, n, "glpk time limit reached"), nil
		default:
			return nil, fmt.Errorf("integer solver failed: %w", err)
		}
	}

	switch lp.MipStatus() {
	case glpk.OPT:
		return &Solution{Status: StatusOptimal, Objective: lp.MipObjVal(), Values: mipValues(lp, n)}, nil
	case glpk.NOFEAS:
		return &Solution{Status: StatusInfeasible}, nil
	case glpk.FEAS:
		return limitedMIP(lp, n, "search stopped before proving optimality"), nil
	default:
		return &Solution{Status: StatusNotSolved, Detail: fmt.Sprintf("glpk mip status %v", lp.MipStatus())}, nil
	}
}

// limitedMIP reports a stopped search, carrying the incumbent when GLPK has one.
func limitedMIP(lp *glpk.Prob, n int, detail string) *Solution {
	sol := &Solution{Status: StatusTimeLimit, Detail: detail}
	if lp.MipStatus() == glpk.FEAS {
		sol.Objective = lp.MipObjVal()
		sol.Values = mipValues(lp, n)
		sol.Detail = fmt.Sprintf("%s; best incumbent cost %g", detail, sol.Objective)
	}
	return sol
}

func mipValues(lp *glpk.Prob, n int) []float64 {
	values := make([]float64, n)
	for j := range values {
		values[j] = lp.MipColVal(j + 1)
	}
	return values
}

// glpkNameMax is GLPK's limit on symbolic names.
const glpkNameMax = 255

// glpkName makes a name GLPK accepts. Over-long names and control
// characters are fatal errors inside the library, and names come from
// request data.
func glpkName(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return '_'
		}
		return r
	}, name)
	if len(name) <= glpkNameMax {
		return name
	}
	cut := glpkNameMax
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}

// matRow converts terms to glp_set_mat_row arguments. Element 0 of both
// slices is ignored by GLPK. Repeated variables are summed since GLPK aborts
// on duplicate column indices, and zero coefficients are dropped.
func matRow(terms []Term) ([]int32, []float64) {
	coefs := make(map[int]float64, len(terms))
	for _, t := range terms {
		coefs[t.Var] += t.Coef
	}
	vars := make([]int, 0, len(coefs))
	for v, c := range coefs {
		if c != 0 {
			vars = append(vars, v)
		}
	}
	sort.Ints(vars)

	ind := make([]int32, 1, len(vars)+1)
	val := make([]float64, 1, len(vars)+1)
	for _, v := range vars {
		ind = append(ind, int32(v+1))
		val = append(val, coefs[v])
	}
	return ind, val
}
