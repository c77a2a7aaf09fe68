package scheduler

import (
	"math"
	"math/rand"
	"sort"

	"github.com/arnavshah/shift-optimizer/pkg/models"
)

// Generator bounds and defaults
const (
	MinExampleEmployees     = 8
	MaxExampleEmployees     = 25
	DefaultExampleSeed      = 135
	DefaultExampleEmployees = 20
)

const (
	exampleWage          = 15.0
	exampleShiftHours    = 4.0
	exampleHoursCap      = 40.0
	exampleAvailability  = 0.8
	exampleMaxHeadcount  = 4
	demandCapacityShare  = 0.4
	minResponsibleRoster = 7
)

var exampleNames = []string{
	"Alice Johnson", "Bob Smith", "Carol Davis", "David Wilson", "Emma Brown",
	"Frank Miller", "Grace Lee", "Henry Clark", "Ivy Taylor", "Jack Anderson",
	"Kate Thompson", "Liam Garcia", "Mia Rodriguez", "Noah Martinez", "Olivia Hernandez",
	"Paul Lopez", "Quinn Jackson", "Ruby White", "Sam Harris", "Tina Young",
	"Uma Patel", "Victor Chen", "Wendy Kim", "Xavier Torres", "Yuki Tanaka",
}

var exampleDays = []string{"Mon", "Tue", "Wed", "Thu", "Fri"}

var exampleShifts = []models.ShiftDefinition{
	{Name: "Morning", Hours: exampleShiftHours},
	{Name: "Afternoon", Hours: exampleShiftHours},
	{Name: "Evening", Hours: exampleShiftHours},
}

// ClampEmployees limits a requested roster size to what the name pool supports
func ClampEmployees(n int) int {
	return max(MinExampleEmployees, min(n, MaxExampleEmployees))
}

// draft is a generated instance under construction, indexed like Instance
type draft struct {
	names       []string
	minHours    []float64
	maxHours    []float64
	responsible []bool
	avail       [][][]bool
	minCount    [][]int
	maxCount    [][]int
}

// GenerateExample builds a reproducible, feasible instance with responsible
// coverage required. The same seed and count always produce the same data.
func GenerateExample(seed int64, employees int) *models.ExampleData {
	n := ClampEmployees(employees)
	rng := rand.New(rand.NewSource(seed))
	g := newDraft(n)

	responsibleCount := max(minResponsibleRoster, int(float64(n)*0.7))
	for e := 0; e < n; e++ {
		g.names[e] = exampleNames[e]
		g.responsible[e] = e < responsibleCount

		var minHours int
		if g.responsible[e] {
			minHours = randInt(rng, 8, 16)
		} else {
			minHours = randInt(rng, 4, 12)
		}
		g.minHours[e] = float64(minHours)
		g.maxHours[e] = math.Min(float64(minHours+randInt(rng, 12, 20)), exampleHoursCap)

		for d := range exampleDays {
			for s := range exampleShifts {
				g.avail[e][d][s] = rng.Float64() < exampleAvailability
			}
		}
		g.coverMinimum(rng, e)
	}

	g.coverResponsible(rng)
	g.setStaffing()
	g.trimDemand()
	w := g.witness()

	return g.export(seed, w)
}

func newDraft(n int) *draft {
	g := &draft{
		names:       make([]string, n),
		minHours:    make([]float64, n),
		maxHours:    make([]float64, n),
		responsible: make([]bool, n),
		avail:       make([][][]bool, n),
		minCount:    grid(len(exampleDays), len(exampleShifts)),
		maxCount:    grid(len(exampleDays), len(exampleShifts)),
	}
	for e := range g.avail {
		g.avail[e] = make([][]bool, len(exampleDays))
		for d := range exampleDays {
			g.avail[e][d] = make([]bool, len(exampleShifts))
		}
	}
	return g
}

type slot struct{ d, s int }

// coverMinimum opens random slots until employee e could reach its minimum hours.
func (g *draft) coverMinimum(rng *rand.Rand, e int) {
	var closed []slot
	open := 0
	for d := range exampleDays {
		for s := range exampleShifts {
			if g.avail[e][d][s] {
				open++
			} else {
				closed = append(closed, slot{d, s})
			}
		}
	}
	short := int(g.minHours[e]) - open*int(exampleShiftHours)
	if short <= 0 {
		return
	}
	needed := (short + int(exampleShiftHours) - 1) / int(exampleShiftHours)
	for i := 0; i < min(needed, len(closed)); i++ {
		k := rng.Intn(len(closed))
		g.avail[e][closed[k].d][closed[k].s] = true
		closed = append(closed[:k], closed[k+1:]...)
	}
}

// coverResponsible makes a random responsible employee available wherever none is.
func (g *draft) coverResponsible(rng *rand.Rand) {
	var pool []int
	for e, ok := range g.responsible {
		if ok {
			pool = append(pool, e)
		}
	}
	if len(pool) == 0 {
		return
	}
	for d := range exampleDays {
		for s := range exampleShifts {
			if _, responsible := g.availableAt(d, s); responsible == 0 {
				g.avail[pool[rng.Intn(len(pool))]][d][s] = true
			}
		}
	}
}

func (g *draft) availableAt(d, s int) (available, responsible int) {
	for e := range g.names {
		if g.avail[e][d][s] {
			available++
			if g.responsible[e] {
				responsible++
			}
		}
	}
	return available, responsible
}

func (g *draft) setStaffing() {
	for d := range exampleDays {
		for s := range exampleShifts {
			available, responsible := g.availableAt(d, s)
			if available >= 2 && responsible >= 1 {
				g.minCount[d][s] = 1
			}
			g.maxCount[d][s] = min(available, exampleMaxHeadcount)
		}
	}
}

// trimDemand drops minimums from the least available shifts while total
// demand exceeds a share of the roster's capacity.
func (g *draft) trimDemand() {
	demand, capacity := 0, 0
	for _, row := range g.minCount {
		for _, v := range row {
			demand += v
		}
	}
	for _, h := range g.maxHours {
		capacity += int(h) / int(exampleShiftHours)
	}
	if float64(demand) <= float64(capacity)*demandCapacityShare {
		return
	}

	pairs := make([]slot, 0, len(exampleDays)*len(exampleShifts))
	counts := make(map[slot]int, cap(pairs))
	for d := range exampleDays {
		for s := range exampleShifts {
			p := slot{d, s}
			pairs = append(pairs, p)
			counts[p], _ = g.availableAt(d, s)
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return counts[pairs[i]] < counts[pairs[j]] })

	remove := demand - int(float64(capacity)*demandCapacityShare)
	for _, p := range pairs {
		if remove <= 0 {
			break
		}
		if g.minCount[p.d][p.s] > 0 {
			g.minCount[p.d][p.s] = 0
			remove--
		}
	}
}

// roster is a concrete assignment that satisfies every constraint of the draft
type roster struct {
	assigned [][][]bool
	slots    []int
	perPair  [][]int
}

func (r *roster) assign(e, d, s int) {
	r.assigned[e][d][s] = true
	r.slots[e]++
	r.perPair[d][s]++
}

// witness staffs the draft greedily and then loosens any upper bound the
// greedy roster exceeds, so the exported instance is feasible by construction.
func (g *draft) witness() *roster {
	n := len(g.names)
	r := &roster{
		assigned: make([][][]bool, n),
		slots:    make([]int, n),
		perPair:  grid(len(exampleDays), len(exampleShifts)),
	}
	for e := range r.assigned {
		r.assigned[e] = make([][]bool, len(exampleDays))
		for d := range exampleDays {
			r.assigned[e][d] = make([]bool, len(exampleShifts))
		}
	}

	// One responsible employee per shift, spreading load.
	for d := range exampleDays {
		for s := range exampleShifts {
			if best := g.leastLoaded(r, d, s, true); best >= 0 {
				r.assign(best, d, s)
			}
		}
	}

	// Remaining headcount minimums.
	for d := range exampleDays {
		for s := range exampleShifts {
			for r.perPair[d][s] < g.minCount[d][s] {
				best := g.leastLoaded(r, d, s, false)
				if best < 0 {
					break
				}
				r.assign(best, d, s)
			}
		}
	}

	// Each employee's minimum hours, on the emptiest shifts first.
	for e := range g.names {
		for float64(r.slots[e])*exampleShiftHours < g.minHours[e] {
			best, bestCount := slot{-1, -1}, math.MaxInt
			for d := range exampleDays {
				for s := range exampleShifts {
					if g.avail[e][d][s] && !r.assigned[e][d][s] && r.perPair[d][s] < bestCount {
						best, bestCount = slot{d, s}, r.perPair[d][s]
					}
				}
			}
			if best.d < 0 {
				break
			}
			r.assign(e, best.d, best.s)
		}
	}

	for e := range g.names {
		if hours := float64(r.slots[e]) * exampleShiftHours; hours > g.maxHours[e] {
			g.maxHours[e] = hours
		}
	}
	for d := range exampleDays {
		for s := range exampleShifts {
			if g.maxCount[d][s] > 0 && r.perPair[d][s] > g.maxCount[d][s] {
				g.maxCount[d][s] = r.perPair[d][s]
			}
		}
	}
	return r
}

// leastLoaded picks the available, unassigned employee with the fewest slots.
func (g *draft) leastLoaded(r *roster, d, s int, responsibleOnly bool) int {
	best := -1
	for e := range g.names {
		if !g.avail[e][d][s] || r.assigned[e][d][s] {
			continue
		}
		if responsibleOnly && !g.responsible[e] {
			continue
		}
		if best < 0 || r.slots[e] < r.slots[best] {
			best = e
		}
	}
	return best
}

func (g *draft) export(seed int64, w *roster) *models.ExampleData {
	n := len(g.names)
	req := models.ScheduleRequest{
		Days:                       append([]string(nil), exampleDays...),
		Shifts:                     append([]models.ShiftDefinition(nil), exampleShifts...),
		Employees:                  make([]models.EmployeeSpec, n),
		MinEmployeesPerShift:       make(map[string]int),
		MaxEmployeesPerShift:       make(map[string]int),
		ResponsibleRequiredOverall: true,
	}

	debug := models.ExampleDebug{
		Seed:                seed,
		TotalEmployees:      n,
		TotalShiftsPerWeek:  len(exampleDays) * len(exampleShifts),
		ResponsibleRequired: true,
	}

	openSlots := 0
	for e, name := range g.names {
		minHours, maxHours := g.minHours[e], g.maxHours[e]
		availability := make(map[string]bool, len(exampleDays)*len(exampleShifts))
		for d, day := range exampleDays {
			for s, sh := range exampleShifts {
				availability[AvailabilityKey(name, day, sh.Name)] = g.avail[e][d][s]
				if g.avail[e][d][s] {
					openSlots++
				}
			}
		}
		req.Employees[e] = models.EmployeeSpec{
			Name:             name,
			MinHours:         &minHours,
			MaxHours:         &maxHours,
			Wage:             exampleWage,
			CanBeResponsible: g.responsible[e],
			Availability:     availability,
			IsFullTime:       minHours >= 30,
		}
		if g.responsible[e] {
			debug.ResponsibleEmployees++
		}
		if maxHours > exampleHoursCap {
			debug.HoursCapRaised = append(debug.HoursCapRaised, name)
		}
		debug.TotalMinHoursNeeded += minHours
		debug.WitnessCost += float64(w.slots[e]) * exampleShiftHours * exampleWage
	}

	for d, day := range exampleDays {
		for s, sh := range exampleShifts {
			key := ShiftKey(day, sh.Name)
			req.MinEmployeesPerShift[key] = g.minCount[d][s]
			req.MaxEmployeesPerShift[key] = g.maxCount[d][s]
			debug.TotalMinStaffing += g.minCount[d][s]
			if _, responsible := g.availableAt(d, s); responsible > 0 {
				debug.ShiftsWithResponsibleCoverage++
			}
		}
	}

	debug.TotalAvailableHours = float64(openSlots) * exampleShiftHours
	pct := float64(openSlots) / float64(n*len(exampleDays)*len(exampleShifts)) * 100
	debug.AvgAvailabilityPercent = math.Round(pct*10) / 10

	return &models.ExampleData{
		Status:    models.StatusSuccess,
		Data:      req,
		DebugInfo: debug,
	}
}

func randInt(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

func grid(rows, cols int) [][]int {
	out := make([][]int, rows)
	for i := range out {
		out[i] = make([]int, cols)
	}
	return out
}
