package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/shift-optimizer/pkg/milp"
)

func constraintNames(m *milp.Model) map[string]milp.Constraint {
	out := make(map[string]milp.Constraint, m.NumConstraints())
	for _, c := range m.Constraints() {
		out[c.Name] = c
	}
	return out
}

func TestBuildModel_VariablesAndObjective(t *testing.T) {
	inst, err := Normalize(twoEmployeeRequest())
	require.NoError(t, err)

	m := BuildModel(inst)
	require.Equal(t, 4, m.NumVars())
	assert.Equal(t, "x_A_Mon_Morning", m.VarName(0))
	assert.Equal(t, "x_B_Mon_Evening", m.VarName(3))
	assert.Equal(t, []float64{40, 40, 60, 60}, m.Objective())
}

func TestBuildModel_Constraints(t *testing.T) {
	req := twoEmployeeRequest()
	req.Employees[1].Availability["B_Mon_Morning"] = false
	req.Employees[1].MaxHours = nil
	req.MinEmployeesPerShift = map[string]int{"Mon_Morning": 1}
	req.MaxEmployeesPerShift = map[string]int{"Mon_Evening": 2}

	inst, err := Normalize(req)
	require.NoError(t, err)
	cons := constraintNames(BuildModel(inst))

	lock, ok := cons["availability_B_Mon_Morning"]
	require.True(t, ok)
	assert.Equal(t, milp.Equal, lock.Sense)
	assert.Zero(t, lock.RHS)
	assert.NotContains(t, cons, "availability_A_Mon_Morning")

	assert.Equal(t, milp.GreaterEq, cons["min_hours_A"].Sense)
	assert.Equal(t, 16.0, cons["max_hours_A"].RHS)
	assert.Contains(t, cons, "min_hours_B")
	assert.NotContains(t, cons, "max_hours_B")

	assert.Contains(t, cons, "min_emp_shift_Mon_Morning")
	assert.NotContains(t, cons, "min_emp_shift_Mon_Evening")
	assert.NotContains(t, cons, "max_emp_shift_Mon_Morning")
	assert.Equal(t, 2.0, cons["max_emp_shift_Mon_Evening"].RHS)

	resp := cons["responsible_req_Mon_Evening"]
	require.Len(t, resp.Terms, 1)
	assert.Equal(t, inst.VarIndex(0, 0, 1), resp.Terms[0].Var)
}

func TestBuildModel_ZeroHeadcountsAddNothing(t *testing.T) {
	req := twoEmployeeRequest()
	req.ResponsibleRequiredOverall = false
	for i := range req.Employees {
		req.Employees[i].MinHours = ptr(0)
		req.Employees[i].MaxHours = ptr(0)
	}

	inst, err := Normalize(req)
	require.NoError(t, err)
	assert.Zero(t, BuildModel(inst).NumConstraints())
}
