// Package milp holds a small linear model abstraction over binary variables
// and the backends that solve it: GLPK through cgo, and a pure Go
// branch-and-bound kept as a fallback for small models.
package milp

import (
	"context"
	"fmt"
	"math"
)

// Sense relates a constraint's left-hand side to its right-hand side.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "=="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Term is a single coefficient of a linear expression.
type Term struct {
	Var  int
	Coef float64
}

// Constraint is a named linear row: sum(Terms) Sense RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Satisfied reports whether values meet the constraint within tol.
func (c Constraint) Satisfied(values []float64, tol float64) bool {
	lhs := 0.0
	for _, t := range c.Terms {
		lhs += t.Coef * values[t.Var]
	}
	switch c.Sense {
	case LessEq:
		return lhs <= c.RHS+tol
	case GreaterEq:
		return lhs >= c.RHS-tol
	default:
		return math.Abs(lhs-c.RHS) <= tol
	}
}

// Model is a minimisation problem over binary decision variables.
// A Model is not safe for concurrent mutation; build one per request.
type Model struct {
	Name        string
	varNames    []string
	objective   []float64
	constraints []Constraint
}

// NewModel creates an empty model.
func NewModel(name string) *Model {
	return &Model{Name: name}
}

// AddBinary adds a 0/1 variable and returns its index.
func (m *Model) AddBinary(name string) int {
	m.varNames = append(m.varNames, name)
	m.objective = append(m.objective, 0)
	return len(m.varNames) - 1
}

// SetObjectiveCoef sets the cost of variable v in the minimised objective.
func (m *Model) SetObjectiveCoef(v int, coef float64) {
	m.objective[v] = coef
}

// AddConstraint appends a named row. Variable indices must come from AddBinary.
func (m *Model) AddConstraint(name string, terms []Term, sense Sense, rhs float64) {
	for _, t := range terms {
		if t.Var < 0 || t.Var >= len(m.varNames) {
			panic(fmt.Sprintf("milp: constraint %q references unknown variable %d", name, t.Var))
		}
	}
	m.constraints = append(m.constraints, Constraint{Name: name, Terms: terms, Sense: sense, RHS: rhs})
}

func (m *Model) NumVars() int        { return len(m.varNames) }
func (m *Model) NumConstraints() int { return len(m.constraints) }

// VarName returns the name given to variable v.
func (m *Model) VarName(v int) string { return m.varNames[v] }

// Objective returns the cost vector. Callers must not modify it.
func (m *Model) Objective() []float64 { return m.objective }

// Constraints returns the rows. Callers must not modify them.
func (m *Model) Constraints() []Constraint { return m.constraints }

// Evaluate returns the objective value of an assignment.
func (m *Model) Evaluate(values []float64) float64 {
	total := 0.0
	for i, c := range m.objective {
		total += c * values[i]
	}
	return total
}

// Violations lists the names of constraints that values break.
func (m *Model) Violations(values []float64, tol float64) []string {
	var out []string
	for _, c := range m.constraints {
		if !c.Satisfied(values, tol) {
			out = append(out, c.Name)
		}
	}
	return out
}

// Status is the terminal state of a solve.
type Status int

const (
	StatusNotSolved Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
	StatusTimeLimit
	StatusNodeLimit
)

func (s Status) String() string {
	switch s {
	case StatusNotSolved:
		return "Not Solved"
	case StatusOptimal:
		return "Optimal"
	case StatusInfeasible:
		return "Infeasible"
	case StatusUnbounded:
		return "Unbounded"
	case StatusTimeLimit:
		return "Time Limit"
	case StatusNodeLimit:
		return "Node Limit"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Solution is what a Solver hands back. Values is indexed like the model's
// variables and is only meaningful for StatusOptimal (or as the best
// incumbent when a limit was hit).
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	Nodes     int
	Detail    string
}

// Solver is a 0/1 integer linear programming backend.
type Solver interface {
	Solve(ctx context.Context, m *Model) (*Solution, error)
}
