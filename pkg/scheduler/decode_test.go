package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/shift-optimizer/pkg/milp"
	"github.com/arnavshah/shift-optimizer/pkg/models"
)

func TestDecode_AssignmentThreshold(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		assigned bool
	}{
		{name: "solver noise above zero", value: 1e-9, assigned: false},
		{name: "just below half", value: 0.4999999, assigned: false},
		{name: "exactly half", value: 0.5, assigned: false},
		{name: "just above half", value: 0.5000001, assigned: true},
		{name: "solver noise below one", value: 1 - 1e-9, assigned: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := Normalize(twoEmployeeRequest())
			require.NoError(t, err)

			values := make([]float64, in.NumVars())
			values[in.VarIndex(0, 0, 0)] = tt.value // A, Mon, Morning
			values[in.VarIndex(1, 0, 1)] = 1        // B, Mon, Evening
			sol := &milp.Solution{Status: milp.StatusOptimal, Objective: 60.0000004, Values: values}

			res := Decode(in, sol, nil)
			require.Equal(t, models.StatusOptimal, res.Status)
			assert.Equal(t, []string{"B"}, res.Schedule["Mon"]["Evening"])
			assert.Equal(t, 4.0, res.EmployeeHours["B"])
			assert.Equal(t, 60.0, *res.TotalCost)

			if tt.assigned {
				assert.Equal(t, []string{"A"}, res.Schedule["Mon"]["Morning"])
				assert.Equal(t, 4.0, res.EmployeeHours["A"])
				assert.Equal(t, 100.0, *res.FairnessScore)
			} else {
				assert.Equal(t, []string{}, res.Schedule["Mon"]["Morning"])
				assert.Equal(t, 0.0, res.EmployeeHours["A"])
				assert.Equal(t, 0.0, *res.FairnessScore)
			}
		})
	}
}

func TestDecode_Outcomes(t *testing.T) {
	in, err := Normalize(twoEmployeeRequest())
	require.NoError(t, err)

	res := Decode(in, nil, errors.New("boom"))
	assert.Equal(t, models.StatusError, res.Status)
	assert.Equal(t, "Solver Error: boom", res.Message)

	res = Decode(in, nil, nil)
	assert.Equal(t, "Optimization stopped with status Not Solved.", res.Message)

	res = Decode(in, &milp.Solution{Status: milp.StatusTimeLimit, Detail: "time budget exhausted"}, nil)
	assert.Equal(t, models.StatusError, res.Status)
	assert.Equal(t, "Optimization stopped with status Time Limit. time budget exhausted", res.Message)
	assert.Nil(t, res.Schedule)

	res = Decode(in, &milp.Solution{Status: milp.StatusInfeasible}, nil)
	assert.Equal(t, models.StatusInfeasible, res.Status)
	assert.Equal(t, infeasibleMessage, res.Message)
}
