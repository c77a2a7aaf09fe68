package scheduler

import (
	"fmt"

	"github.com/arnavshah/shift-optimizer/pkg/models"
)

// Conflict kinds reported by Diagnose
const (
	ConflictEmployeeHours = "employee_hours"
	ConflictShiftStaffing = "shift_staffing"
	ConflictResponsible   = "responsible_coverage"
)

// Diagnose runs cheap necessary-condition checks over an instance. An empty
// result does not prove feasibility; the interaction between constraints can
// still leave the model without a solution.
func Diagnose(in *Instance) []models.ConflictReason {
	var conflicts []models.ConflictReason

	for e, emp := range in.Employees {
		var reasons []string
		if avail := in.AvailableHours(e); emp.MinHours > avail {
			reasons = append(reasons, fmt.Sprintf("needs %g hours but is available for only %g", emp.MinHours, avail))
		}
		if emp.MaxHours > 0 && emp.MinHours > emp.MaxHours {
			reasons = append(reasons, fmt.Sprintf("min hours %g exceed max hours %g", emp.MinHours, emp.MaxHours))
		}
		if len(reasons) > 0 {
			conflicts = append(conflicts, models.ConflictReason{
				Kind:     ConflictEmployeeHours,
				Employee: emp.Name,
				Reasons:  reasons,
			})
		}
	}

	for d, day := range in.Days {
		for s, sh := range in.Shifts {
			available, responsible := 0, 0
			for e, emp := range in.Employees {
				if !in.Available[e][d][s] {
					continue
				}
				available++
				if emp.Responsible {
					responsible++
				}
			}

			var reasons []string
			minCount, maxCount := in.MinCount[d][s], in.MaxCount[d][s]
			if minCount > available {
				reasons = append(reasons, fmt.Sprintf("needs %d employees but only %d are available", minCount, available))
			}
			if maxCount > 0 && minCount > maxCount {
				reasons = append(reasons, fmt.Sprintf("min headcount %d exceeds max headcount %d", minCount, maxCount))
			}
			if len(reasons) > 0 {
				conflicts = append(conflicts, models.ConflictReason{
					Kind:    ConflictShiftStaffing,
					Day:     day,
					Shift:   sh.Name,
					Reasons: reasons,
				})
			}

			if in.ResponsibleRequired && responsible == 0 {
				conflicts = append(conflicts, models.ConflictReason{
					Kind:    ConflictResponsible,
					Day:     day,
					Shift:   sh.Name,
					Reasons: []string{fmt.Sprintf("%d employees are available but none can be responsible", available)},
				})
			}
		}
	}

	return conflicts
}
