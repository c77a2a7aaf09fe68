package export

import (
	"fmt"
	"strconv"

	"github.com/arnavshah/shift-optimizer/pkg/models"
)

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Roster columns
var RosterHeaders = []string{"day", "shift", "employee", "hours", "cost"}

// RosterDataset flattens an optimal result into one row per assignment, in
// the request's day and shift order.
func RosterDataset(req *models.ScheduleRequest, res *models.ScheduleResult) (Dataset, error) {
	if res == nil || res.Status != models.StatusOptimal {
		return Dataset{}, fmt.Errorf("roster export needs an optimal result")
	}

	wages := make(map[string]float64, len(req.Employees))
	for _, e := range req.Employees {
		wages[e.Name] = e.Wage
	}

	data := Dataset{Headers: RosterHeaders}
	for _, day := range req.Days {
		for _, sh := range req.Shifts {
			for _, name := range res.Schedule[day][sh.Name] {
				data.Rows = append(data.Rows, map[string]string{
					"day":      day,
					"shift":    sh.Name,
					"employee": name,
					"hours":    formatNumber(sh.Hours),
					"cost":     formatNumber(sh.Hours * wages[name]),
				})
			}
		}
	}
	return data, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
