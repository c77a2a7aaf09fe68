package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/arnavshah/shift-optimizer/pkg/milp"
	"github.com/arnavshah/shift-optimizer/pkg/models"
)

func TestFindFeasibleConfig_StopsAtFirstFeasibleSeed(t *testing.T) {
	logger := zaptest.NewLogger(t)
	report, err := FindFeasibleConfig(context.Background(), milp.NewGLPK(logger), SweepOptions{
		EmployeeCounts: []int{8, 12},
		Seeds:          []int64{100, 200, 300},
		Logger:         logger,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusSuccess, report.Status)
	assert.Equal(t, len(report.AllResults), report.Summary.TotalTested)
	assert.Equal(t, len(report.FeasibleConfigurations), report.Summary.FeasibleFound)

	byCount := map[int][]models.FeasibilityProbe{}
	for _, p := range report.AllResults {
		byCount[p.Employees] = append(byCount[p.Employees], p)
	}
	require.Len(t, byCount, 2)
	for count, probes := range byCount {
		for i, p := range probes[:len(probes)-1] {
			assert.False(t, p.Feasible, "count %d probe %d", count, i)
		}
		last := probes[len(probes)-1]
		if len(probes) < 3 {
			assert.True(t, last.Feasible)
			assert.Equal(t, "Optimal", last.Status)
		}
	}
}

func TestFindFeasibleConfig_AllInfeasible(t *testing.T) {
	solver := &stubSolver{sol: &milp.Solution{Status: milp.StatusInfeasible}}
	report, err := FindFeasibleConfig(context.Background(), solver, SweepOptions{
		EmployeeCounts: []int{8},
		Seeds:          []int64{1, 2},
		Concurrency:    1,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.TotalTested)
	assert.Zero(t, report.Summary.FeasibleFound)
	assert.Equal(t, "0.0%", report.Summary.SuccessRate)
	assert.Empty(t, report.FeasibleConfigurations)
	assert.Equal(t, "Infeasible", report.AllResults[0].Status)
	assert.Equal(t, int64(2), report.AllResults[1].Seed)
}

func TestFindFeasibleConfig_SuccessRate(t *testing.T) {
	solver := &stubSolver{sol: &milp.Solution{Status: milp.StatusOptimal}}
	report, err := FindFeasibleConfig(context.Background(), solver, SweepOptions{
		EmployeeCounts: []int{8, 10, 12},
		Seeds:          []int64{5, 6},
		Concurrency:    1,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Summary.TotalTested)
	assert.Equal(t, "100.0%", report.Summary.SuccessRate)
	assert.Equal(t, []int{8, 10, 12}, []int{
		report.AllResults[0].Employees, report.AllResults[1].Employees, report.AllResults[2].Employees,
	})
}

func TestFindFeasibleConfig_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FindFeasibleConfig(ctx, milp.NewGLPK(nil), SweepOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFlexibleRoster(t *testing.T) {
	req := flexibleRoster(12, 100)
	require.Len(t, req.Employees, 12)
	for i := 0; i < 3; i++ {
		emp := req.Employees[i]
		assert.Equal(t, 20.0, *emp.MinHours)
		assert.Equal(t, 40.0, *emp.MaxHours)
		assert.True(t, emp.CanBeResponsible)
	}
	assert.Equal(t, 12, req.MaxEmployeesPerShift["Mon_Morning"])
	assert.False(t, req.ResponsibleRequiredOverall)
	assert.Equal(t, req, flexibleRoster(12, 100))
}
