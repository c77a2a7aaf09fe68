package scheduler

import (
	"fmt"

	"github.com/arnavshah/shift-optimizer/pkg/milp"
)

// BuildModel turns an instance into a cost-minimising 0/1 program. Variable
// VarIndex(e, d, s) is 1 when employee e works shift s on day d.
func BuildModel(in *Instance) *milp.Model {
	m := milp.NewModel("ShiftScheduling")

	for e, emp := range in.Employees {
		for d, day := range in.Days {
			for s, sh := range in.Shifts {
				v := m.AddBinary(fmt.Sprintf("x_%s_%s_%s", emp.Name, day, sh.Name))
				m.SetObjectiveCoef(v, emp.Wage*sh.Hours)
				if v != in.VarIndex(e, d, s) {
					panic("scheduler: variable order drifted from VarIndex")
				}
			}
		}
	}

	// Availability lock.
	for e, emp := range in.Employees {
		for d, day := range in.Days {
			for s, sh := range in.Shifts {
				if !in.Available[e][d][s] {
					m.AddConstraint(fmt.Sprintf("availability_%s_%s_%s", emp.Name, day, sh.Name),
						[]milp.Term{{Var: in.VarIndex(e, d, s), Coef: 1}}, milp.Equal, 0)
				}
			}
		}
	}

	// Weekly hours; a zero bound leaves that side open.
	for e, emp := range in.Employees {
		if emp.MinHours <= 0 && emp.MaxHours <= 0 {
			continue
		}
		hours := make([]milp.Term, 0, len(in.Days)*len(in.Shifts))
		for d := range in.Days {
			for s, sh := range in.Shifts {
				hours = append(hours, milp.Term{Var: in.VarIndex(e, d, s), Coef: sh.Hours})
			}
		}
		if emp.MinHours > 0 {
			m.AddConstraint("min_hours_"+emp.Name, hours, milp.GreaterEq, emp.MinHours)
		}
		if emp.MaxHours > 0 {
			m.AddConstraint("max_hours_"+emp.Name, hours, milp.LessEq, emp.MaxHours)
		}
	}

	if anyPositive(in.MinCount) {
		for d, day := range in.Days {
			for s, sh := range in.Shifts {
				if n := in.MinCount[d][s]; n > 0 {
					m.AddConstraint(fmt.Sprintf("min_emp_shift_%s_%s", day, sh.Name), in.headcount(d, s, false), milp.GreaterEq, float64(n))
				}
			}
		}
	}

	// A max of 0 means "no cap", not "nobody".
	if anyPositive(in.MaxCount) {
		for d, day := range in.Days {
			for s, sh := range in.Shifts {
				if n := in.MaxCount[d][s]; n > 0 {
					m.AddConstraint(fmt.Sprintf("max_emp_shift_%s_%s", day, sh.Name), in.headcount(d, s, false), milp.LessEq, float64(n))
				}
			}
		}
	}

	// Every slot needs a responsible employee, even one with no staffing demand.
	if in.ResponsibleRequired {
		for d, day := range in.Days {
			for s, sh := range in.Shifts {
				m.AddConstraint(fmt.Sprintf("responsible_req_%s_%s", day, sh.Name), in.headcount(d, s, true), milp.GreaterEq, 1)
			}
		}
	}

	return m
}

// headcount sums the slot's variables, optionally over responsible employees only.
func (in *Instance) headcount(d, s int, responsibleOnly bool) []milp.Term {
	terms := make([]milp.Term, 0, len(in.Employees))
	for e, emp := range in.Employees {
		if responsibleOnly && !emp.Responsible {
			continue
		}
		terms = append(terms, milp.Term{Var: in.VarIndex(e, d, s), Coef: 1})
	}
	return terms
}

func anyPositive(grid [][]int) bool {
	for _, row := range grid {
		for _, v := range row {
			if v > 0 {
				return true
			}
		}
	}
	return false
}
