package models

// ShiftDefinition is a repeatable slot that occurs once per day
type ShiftDefinition struct {
	Name  string  `json:"name"`
	Hours float64 `json:"hours"`
}

// EmployeeSpec describes one employee as submitted with a scheduling request.
// Availability is keyed "<employee>_<day>_<shift>"; a missing key means unavailable.
type EmployeeSpec struct {
	Name             string          `json:"name"`
	MinHours         *float64        `json:"min_hours"`
	MaxHours         *float64        `json:"max_hours"`
	Wage             float64         `json:"wage"`
	CanBeResponsible bool            `json:"can_be_responsible"`
	Availability     map[string]bool `json:"availability"`
	IsFullTime       bool            `json:"is_full_time"`
}

// ScheduleRequest is one optimization instance
type ScheduleRequest struct {
	Days                       []string          `json:"days"`
	Shifts                     []ShiftDefinition `json:"shifts"`
	Employees                  []EmployeeSpec    `json:"employees"`
	MinEmployeesPerShift       map[string]int    `json:"min_employees_per_shift"`
	MaxEmployeesPerShift       map[string]int    `json:"max_employees_per_shift"`
	ResponsibleRequiredOverall bool              `json:"responsible_required_overall"`
	FullTimeHoursPerWeek       *float64          `json:"full_time_hours_per_week,omitempty"`
}

// Result statuses
const (
	StatusOptimal    = "optimal"
	StatusInfeasible = "infeasible"
	StatusUnbounded  = "unbounded"
	StatusError      = "error"
	StatusSuccess    = "success"
)

// ConflictReason explains why an instance cannot be staffed
type ConflictReason struct {
	Kind     string   `json:"kind"`
	Employee string   `json:"employee,omitempty"`
	Day      string   `json:"day,omitempty"`
	Shift    string   `json:"shift,omitempty"`
	Reasons  []string `json:"reasons"`
}

// ScheduleResult is the engine's answer. Schedule maps day -> shift -> employee names.
type ScheduleResult struct {
	Status        string                         `json:"status"`
	Schedule      map[string]map[string][]string `json:"schedule,omitempty"`
	TotalCost     *float64                       `json:"total_cost,omitempty"`
	Message       string                         `json:"message,omitempty"`
	EmployeeHours map[string]float64             `json:"employee_hours,omitempty"`
	FairnessScore *float64                       `json:"fairness_score,omitempty"`
	Conflicts     []ConflictReason               `json:"conflicts,omitempty"`
}

// ExampleData is a generated instance in the request shape plus its debug block
type ExampleData struct {
	Status    string          `json:"status"`
	Data      ScheduleRequest `json:"data"`
	DebugInfo ExampleDebug    `json:"debug_info"`
}

// ExampleDebug summarises a generated instance
type ExampleDebug struct {
	Seed                          int64   `json:"seed"`
	TotalEmployees                int     `json:"total_employees"`
	ResponsibleEmployees          int     `json:"responsible_employees"`
	TotalShiftsPerWeek            int     `json:"total_shifts_per_week"`
	TotalMinStaffing              int     `json:"total_min_staffing"`
	ResponsibleRequired           bool    `json:"responsible_required"`
	AvgAvailabilityPercent        float64 `json:"avg_availability_percent"`
	TotalAvailableHours           float64 `json:"total_available_hours"`
	TotalMinHoursNeeded           float64 `json:"total_min_hours_needed"`
	ShiftsWithResponsibleCoverage int     `json:"shifts_with_responsible_coverage"`
	WitnessCost                   float64 `json:"witness_cost"`

	// HoursCapRaised names employees whose max_hours had to exceed the
	// generator's weekly cap to keep the instance feasible.
	HoursCapRaised []string `json:"hours_cap_raised,omitempty"`
}

// FeasibilityProbe is one (employee count, seed) trial of the feasibility sweep
type FeasibilityProbe struct {
	Employees int    `json:"employees"`
	Seed      int64  `json:"seed"`
	Feasible  bool   `json:"feasible"`
	Status    string `json:"status"`
}

// FeasibilityReport is the outcome of a feasibility sweep
type FeasibilityReport struct {
	Status                 string             `json:"status"`
	FeasibleConfigurations []FeasibilityProbe `json:"feasible_configurations"`
	AllResults             []FeasibilityProbe `json:"all_results"`
	Summary                FeasibilitySummary `json:"summary"`
}

// FeasibilitySummary counts the probes of a sweep
type FeasibilitySummary struct {
	TotalTested   int    `json:"total_tested"`
	FeasibleFound int    `json:"feasible_found"`
	SuccessRate   string `json:"success_rate"`
}
