package scheduler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/shift-optimizer/pkg/models"
)

func TestClampEmployees(t *testing.T) {
	assert.Equal(t, 8, ClampEmployees(-3))
	assert.Equal(t, 8, ClampEmployees(2))
	assert.Equal(t, 12, ClampEmployees(12))
	assert.Equal(t, 25, ClampEmployees(100))
}

func TestGenerateExample_Deterministic(t *testing.T) {
	a := GenerateExample(42, 15)
	b := GenerateExample(42, 15)
	assert.Equal(t, a, b)

	c := GenerateExample(43, 15)
	assert.NotEqual(t, a.Data.Employees, c.Data.Employees)
}

func TestGenerateExample_Shape(t *testing.T) {
	ex := GenerateExample(DefaultExampleSeed, 40)
	data := ex.Data

	assert.Equal(t, models.StatusSuccess, ex.Status)
	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri"}, data.Days)
	require.Len(t, data.Shifts, 3)
	require.Len(t, data.Employees, MaxExampleEmployees)
	assert.True(t, data.ResponsibleRequiredOverall)
	assert.Len(t, data.MinEmployeesPerShift, 15)
	assert.Len(t, data.MaxEmployeesPerShift, 15)

	// max(7, 0.7 * 25) leading employees are responsible.
	for i, emp := range data.Employees {
		assert.Equal(t, i < 17, emp.CanBeResponsible, emp.Name)
		assert.Equal(t, 15.0, emp.Wage)
		assert.Len(t, emp.Availability, 15)
		assert.Equal(t, *emp.MinHours >= 30, emp.IsFullTime)
		assert.LessOrEqual(t, *emp.MinHours, *emp.MaxHours)
	}

	debug := ex.DebugInfo
	assert.Equal(t, int64(DefaultExampleSeed), debug.Seed)
	assert.Equal(t, 25, debug.TotalEmployees)
	assert.Equal(t, 17, debug.ResponsibleEmployees)
	assert.Equal(t, 15, debug.TotalShiftsPerWeek)
	assert.Equal(t, 15, debug.ShiftsWithResponsibleCoverage)
	assert.Positive(t, debug.WitnessCost)
}

func TestGenerateExample_RepairInvariants(t *testing.T) {
	for seed := int64(1); seed <= 30; seed++ {
		ex := GenerateExample(seed, int(8+seed%18))
		inst, err := Normalize(&ex.Data)
		require.NoError(t, err)

		for e, emp := range inst.Employees {
			assert.GreaterOrEqual(t, inst.AvailableHours(e), emp.MinHours,
				"seed %d: %s cannot reach min hours", seed, emp.Name)
		}
		for d := range inst.Days {
			for s := range inst.Shifts {
				assert.LessOrEqual(t, inst.MinCount[d][s], 1)
				assert.Positive(t, inst.MaxCount[d][s])
			}
		}
		assert.Empty(t, Diagnose(inst), "seed %d", seed)
	}
}

func TestGenerateExample_AlwaysSolvable(t *testing.T) {
	engine := newTestEngine(t)
	for _, seed := range []int64{1, 2, 3, 99, 2024} {
		ex := GenerateExample(seed, 10)
		res, err := engine.Solve(context.Background(), &ex.Data)
		require.NoError(t, err)
		assertRoster(t, &ex.Data, res)
		assert.LessOrEqual(t, *res.TotalCost, ex.DebugInfo.WitnessCost+1e-6, "seed %d", seed)
	}
}

func TestGenerateExample_ReportsRaisedHoursCap(t *testing.T) {
	for seed := int64(1); seed <= 40; seed++ {
		ex := GenerateExample(seed, int(8+seed%18))
		var raised []string
		for _, emp := range ex.Data.Employees {
			if *emp.MaxHours > exampleHoursCap {
				raised = append(raised, emp.Name)
			}
		}
		assert.Equal(t, raised, ex.DebugInfo.HoursCapRaised, "seed %d", seed)
	}
}

func TestExport_WitnessAboveHoursCap(t *testing.T) {
	// A lone responsible employee must cover all 15 shifts: 60h against a 40h cap.
	g := newDraft(1)
	g.names[0] = "Solo"
	g.responsible[0] = true
	g.minHours[0] = 4
	g.maxHours[0] = exampleHoursCap
	for d := range exampleDays {
		for s := range exampleShifts {
			g.avail[0][d][s] = true
			g.minCount[d][s] = 1
			g.maxCount[d][s] = 1
		}
	}

	ex := g.export(1, g.witness())
	assert.Equal(t, 60.0, *ex.Data.Employees[0].MaxHours)
	assert.Equal(t, []string{"Solo"}, ex.DebugInfo.HoursCapRaised)

	body, err := json.Marshal(ex.DebugInfo)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"hours_cap_raised":["Solo"]`)
}
