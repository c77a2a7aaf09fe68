package scheduler

import (
	"fmt"

	"github.com/arnavshah/shift-optimizer/pkg/models"
)

// ValidationError rejects a malformed request before any model is built.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Shift is a normalized shift type
type Shift struct {
	Name  string
	Hours float64
}

// Employee is a normalized employee. A zero bound means unbounded on that side.
type Employee struct {
	Name        string
	MinHours    float64
	MaxHours    float64
	Wage        float64
	Responsible bool
}

// Instance is the canonical, index-addressed form of one request.
type Instance struct {
	Days      []string
	Shifts    []Shift
	Employees []Employee

	// Available is indexed [employee][day][shift].
	Available [][][]bool
	// MinCount and MaxCount are indexed [day][shift]; 0 means no bound.
	MinCount [][]int
	MaxCount [][]int

	ResponsibleRequired bool
	// FullTimeHoursPerWeek is accepted for compatibility and not used by the model.
	FullTimeHoursPerWeek *float64
}

// AvailabilityKey is the composite key upstream availability maps use.
func AvailabilityKey(employee, day, shift string) string {
	return employee + "_" + day + "_" + shift
}

// ShiftKey is the composite key of the per-shift headcount maps.
func ShiftKey(day, shift string) string {
	return day + "_" + shift
}

// VarIndex is the model variable of (employee, day, shift).
func (in *Instance) VarIndex(e, d, s int) int {
	return (e*len(in.Days)+d)*len(in.Shifts) + s
}

// NumVars is |employees| x |days| x |shifts|.
func (in *Instance) NumVars() int {
	return len(in.Employees) * len(in.Days) * len(in.Shifts)
}

// AvailableHours sums the hours of every slot employee e may work.
func (in *Instance) AvailableHours(e int) float64 {
	total := 0.0
	for d := range in.Days {
		for s, sh := range in.Shifts {
			if in.Available[e][d][s] {
				total += sh.Hours
			}
		}
	}
	return total
}

// Normalize validates req and reshapes it into an Instance.
func Normalize(req *models.ScheduleRequest) (*Instance, error) {
	if req == nil {
		return nil, &ValidationError{Message: "request is empty"}
	}
	if len(req.Days) == 0 {
		return nil, invalid("days", "at least one day is required")
	}
	if len(req.Shifts) == 0 {
		return nil, invalid("shifts", "at least one shift is required")
	}

	seenDays := make(map[string]bool, len(req.Days))
	for _, d := range req.Days {
		if d == "" {
			return nil, invalid("days", "day labels must not be empty")
		}
		if seenDays[d] {
			return nil, invalid("days", "duplicate day %q", d)
		}
		seenDays[d] = true
	}

	shifts := make([]Shift, len(req.Shifts))
	seenShifts := make(map[string]bool, len(req.Shifts))
	for i, s := range req.Shifts {
		if s.Name == "" {
			return nil, invalid("shifts", "shift names must not be empty")
		}
		if seenShifts[s.Name] {
			return nil, invalid("shifts", "duplicate shift name %q", s.Name)
		}
		if s.Hours <= 0 {
			return nil, invalid("shifts", "shift %q must have positive hours, got %g", s.Name, s.Hours)
		}
		seenShifts[s.Name] = true
		shifts[i] = Shift{Name: s.Name, Hours: s.Hours}
	}

	inst := &Instance{
		Days:                 append([]string(nil), req.Days...),
		Shifts:               shifts,
		Employees:            make([]Employee, len(req.Employees)),
		Available:            make([][][]bool, len(req.Employees)),
		ResponsibleRequired:  req.ResponsibleRequiredOverall,
		FullTimeHoursPerWeek: req.FullTimeHoursPerWeek,
	}

	seenEmployees := make(map[string]bool, len(req.Employees))
	for e, emp := range req.Employees {
		if emp.Name == "" {
			return nil, invalid("employees", "employee %d has no name", e)
		}
		if seenEmployees[emp.Name] {
			return nil, invalid("employees", "duplicate employee name %q", emp.Name)
		}
		seenEmployees[emp.Name] = true

		minHours, maxHours := deref(emp.MinHours), deref(emp.MaxHours)
		if minHours < 0 || maxHours < 0 {
			return nil, invalid("employees", "employee %q has negative hour bounds", emp.Name)
		}
		if emp.Wage < 0 {
			return nil, invalid("employees", "employee %q has a negative wage", emp.Name)
		}
		inst.Employees[e] = Employee{
			Name:        emp.Name,
			MinHours:    minHours,
			MaxHours:    maxHours,
			Wage:        emp.Wage,
			Responsible: emp.CanBeResponsible,
		}

		grid := make([][]bool, len(inst.Days))
		for d, day := range inst.Days {
			grid[d] = make([]bool, len(shifts))
			for s, sh := range shifts {
				grid[d][s] = emp.Availability[AvailabilityKey(emp.Name, day, sh.Name)]
			}
		}
		inst.Available[e] = grid
	}

	var err error
	if inst.MinCount, err = headcounts("min_employees_per_shift", req.MinEmployeesPerShift, inst); err != nil {
		return nil, err
	}
	if inst.MaxCount, err = headcounts("max_employees_per_shift", req.MaxEmployeesPerShift, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

func headcounts(field string, raw map[string]int, inst *Instance) ([][]int, error) {
	out := make([][]int, len(inst.Days))
	for d, day := range inst.Days {
		out[d] = make([]int, len(inst.Shifts))
		for s, sh := range inst.Shifts {
			v := raw[ShiftKey(day, sh.Name)]
			if v < 0 {
				return nil, invalid(field, "%s must not be negative", ShiftKey(day, sh.Name))
			}
			out[d][s] = v
		}
	}
	return out, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
