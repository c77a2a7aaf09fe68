package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/shift-optimizer/pkg/models"
)

func ptr(v float64) *float64 { return &v }

func twoEmployeeRequest() *models.ScheduleRequest {
	return &models.ScheduleRequest{
		Days:   []string{"Mon"},
		Shifts: []models.ShiftDefinition{{Name: "Morning", Hours: 4}, {Name: "Evening", Hours: 4}},
		Employees: []models.EmployeeSpec{
			{
				Name: "A", MinHours: ptr(8), MaxHours: ptr(16), Wage: 10, CanBeResponsible: true,
				Availability: map[string]bool{"A_Mon_Morning": true, "A_Mon_Evening": true},
			},
			{
				Name: "B", MinHours: ptr(4), MaxHours: ptr(8), Wage: 15,
				Availability: map[string]bool{"B_Mon_Morning": true, "B_Mon_Evening": true},
			},
		},
		MinEmployeesPerShift:       map[string]int{},
		MaxEmployeesPerShift:       map[string]int{},
		ResponsibleRequiredOverall: true,
	}
}

func TestNormalize_IndexesRequest(t *testing.T) {
	req := twoEmployeeRequest()
	req.Employees[1].Availability = map[string]bool{"B_Mon_Evening": true}
	req.MinEmployeesPerShift = map[string]int{"Mon_Evening": 2, "Tue_Morning": 9}
	req.MaxEmployeesPerShift = map[string]int{"Mon_Morning": 1}

	inst, err := Normalize(req)
	require.NoError(t, err)

	assert.Equal(t, []string{"Mon"}, inst.Days)
	assert.Equal(t, []Shift{{"Morning", 4}, {"Evening", 4}}, inst.Shifts)
	assert.Equal(t, 4, inst.NumVars())
	assert.Equal(t, [][]bool{{false, true}}, inst.Available[1])
	assert.Equal(t, [][]int{{0, 2}}, inst.MinCount)
	assert.Equal(t, [][]int{{1, 0}}, inst.MaxCount)
	assert.Equal(t, 8.0, inst.Employees[0].MinHours)
	assert.True(t, inst.Employees[0].Responsible)
	assert.Equal(t, 4.0, inst.AvailableHours(1))
	assert.Equal(t, 3, inst.VarIndex(1, 0, 1))
}

func TestNormalize_AbsentBoundsAreZero(t *testing.T) {
	req := twoEmployeeRequest()
	req.Employees[0].MinHours = nil
	req.Employees[0].MaxHours = nil

	inst, err := Normalize(req)
	require.NoError(t, err)
	assert.Zero(t, inst.Employees[0].MinHours)
	assert.Zero(t, inst.Employees[0].MaxHours)
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.ScheduleRequest)
		field  string
	}{
		{"no days", func(r *models.ScheduleRequest) { r.Days = nil }, "days"},
		{"duplicate day", func(r *models.ScheduleRequest) { r.Days = []string{"Mon", "Mon"} }, "days"},
		{"no shifts", func(r *models.ScheduleRequest) { r.Shifts = nil }, "shifts"},
		{"zero hours", func(r *models.ScheduleRequest) { r.Shifts[0].Hours = 0 }, "shifts"},
		{"duplicate shift", func(r *models.ScheduleRequest) { r.Shifts[1].Name = "Morning" }, "shifts"},
		{"duplicate employee", func(r *models.ScheduleRequest) { r.Employees[1].Name = "A" }, "employees"},
		{"unnamed employee", func(r *models.ScheduleRequest) { r.Employees[0].Name = "" }, "employees"},
		{"negative hours", func(r *models.ScheduleRequest) { r.Employees[0].MaxHours = ptr(-1) }, "employees"},
		{"negative wage", func(r *models.ScheduleRequest) { r.Employees[1].Wage = -5 }, "employees"},
		{"negative min headcount", func(r *models.ScheduleRequest) {
			r.MinEmployeesPerShift["Mon_Morning"] = -1
		}, "min_employees_per_shift"},
		{"negative max headcount", func(r *models.ScheduleRequest) {
			r.MaxEmployeesPerShift["Mon_Evening"] = -2
		}, "max_employees_per_shift"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := twoEmployeeRequest()
			tt.mutate(req)

			_, err := Normalize(req)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			assert.Contains(t, verr.Error(), tt.field)
		})
	}
}

func TestNormalize_NilRequest(t *testing.T) {
	_, err := Normalize(nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}
