package scheduler

import (
	"fmt"
	"math"

	"github.com/arnavshah/shift-optimizer/pkg/milp"
	"github.com/arnavshah/shift-optimizer/pkg/models"
)

const (
	// assignedThreshold is where a relaxed 0/1 value counts as "works the shift".
	assignedThreshold = 0.5

	infeasibleMessage = "No feasible solution found. The current availability of employees is not enough to generate a schedule that satisfies all conditions. Please adjust your inputs (e.g., increase availability, reduce minimum requirements, or add more employees)."
	unboundedMessage  = "The model is unbounded, which means the objective can be infinitely improved. This usually indicates a problem in the model formulation."
)

// Decode maps a solver outcome back onto the instance's labels.
func Decode(in *Instance, sol *milp.Solution, solveErr error) *models.ScheduleResult {
	if solveErr != nil {
		return &models.ScheduleResult{
			Status:  models.StatusError,
			Message: fmt.Sprintf("Solver Error: %v", solveErr),
		}
	}
	if sol == nil {
		return &models.ScheduleResult{
			Status:  models.StatusError,
			Message: fmt.Sprintf("Optimization stopped with status %s.", milp.StatusNotSolved),
		}
	}

	switch sol.Status {
	case milp.StatusOptimal:
		return decodeOptimal(in, sol)
	case milp.StatusInfeasible:
		return &models.ScheduleResult{
			Status:    models.StatusInfeasible,
			Message:   infeasibleMessage,
			Conflicts: Diagnose(in),
		}
	case milp.StatusUnbounded:
		return &models.ScheduleResult{
			Status:  models.StatusUnbounded,
			Message: unboundedMessage,
		}
	default:
		msg := fmt.Sprintf("Optimization stopped with status %s.", sol.Status)
		if sol.Detail != "" {
			msg += " " + sol.Detail
		}
		return &models.ScheduleResult{Status: models.StatusError, Message: msg}
	}
}

func decodeOptimal(in *Instance, sol *milp.Solution) *models.ScheduleResult {
	schedule := make(map[string]map[string][]string, len(in.Days))
	hours := make(map[string]float64, len(in.Employees))
	perEmployee := make([]float64, len(in.Employees))

	for _, day := range in.Days {
		schedule[day] = make(map[string][]string, len(in.Shifts))
		for _, sh := range in.Shifts {
			schedule[day][sh.Name] = []string{}
		}
	}

	for e, emp := range in.Employees {
		for d, day := range in.Days {
			for s, sh := range in.Shifts {
				if sol.Values[in.VarIndex(e, d, s)] > assignedThreshold {
					schedule[day][sh.Name] = append(schedule[day][sh.Name], emp.Name)
					perEmployee[e] += sh.Hours
				}
			}
		}
		hours[emp.Name] = perEmployee[e]
	}

	cost := roundCost(sol.Objective)
	fairness := FairnessScore(perEmployee)
	return &models.ScheduleResult{
		Status:        models.StatusOptimal,
		Schedule:      schedule,
		TotalCost:     &cost,
		EmployeeHours: hours,
		FairnessScore: &fairness,
	}
}

// roundCost strips floating noise the simplex leaves on integral costs.
func roundCost(v float64) float64 {
	r := math.Round(v*1e6) / 1e6
	if r == 0 {
		return 0
	}
	return r
}

// FairnessScore returns a percentage (0-100) of how evenly hours are spread.
// 100% means every employee works the same hours.
func FairnessScore(hours []float64) float64 {
	if len(hours) == 0 {
		return 100.0
	}

	var sum float64
	for _, h := range hours {
		sum += h
	}
	if sum == 0 {
		return 100.0
	}

	mean := sum / float64(len(hours))

	var varianceSum float64
	for _, h := range hours {
		diff := h - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / float64(len(hours)))

	// 0% once the deviation reaches the mean.
	score := (1.0 - (stdDev / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}
