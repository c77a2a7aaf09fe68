package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/shift-optimizer/pkg/cache"
	"github.com/arnavshah/shift-optimizer/pkg/export"
	"github.com/arnavshah/shift-optimizer/pkg/models"
	"github.com/arnavshah/shift-optimizer/pkg/scheduler"
)

const cacheHeader = "X-Cache"

// bindSchedule decodes the request body and, when use_stored_employees is
// set, replaces the employee list with the caller's stored roster.
func (h *Handler) bindSchedule(c *gin.Context) (*models.ScheduleRequest, bool) {
	var req models.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return nil, false
	}

	if stored, _ := strconv.ParseBool(c.Query("use_stored_employees")); stored {
		if !h.requireDB(c) {
			return nil, false
		}
		employees, err := h.storedEmployees(c.GetString("userID"))
		if err != nil {
			h.respondError(c, err)
			return nil, false
		}
		req.Employees = employees
	}
	return &req, true
}

// solve answers from the result cache when possible and stores decided results.
func (h *Handler) solve(ctx context.Context, c *gin.Context, req *models.ScheduleRequest) (*models.ScheduleResult, error) {
	key, err := cache.Fingerprint(req)
	if err != nil {
		return nil, err
	}

	if h.Cache != nil {
		cached, hit, err := h.Cache.Get(ctx, key)
		if err != nil {
			h.log().Warn("cache lookup failed", zap.Error(err))
		}
		h.Metrics.ObserveCache(hit)
		if hit {
			c.Header(cacheHeader, "HIT")
			return cached, nil
		}
		c.Header(cacheHeader, "MISS")
	}

	res, err := h.Engine.Solve(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := h.Cache.Set(ctx, key, res); err != nil {
		h.log().Warn("cache store failed", zap.Error(err))
	}
	return res, nil
}

// solveRequest binds, solves and records usage. It writes the error response itself.
func (h *Handler) solveRequest(c *gin.Context) (*models.ScheduleRequest, *models.ScheduleResult, bool) {
	req, ok := h.bindSchedule(c)
	if !ok {
		return nil, nil, false
	}

	res, err := h.solve(c.Request.Context(), c, req)
	if err != nil {
		h.respondError(c, err)
		return nil, nil, false
	}

	h.RecordUsage(c, len(req.Days)*len(req.Shifts), len(req.Employees))
	return req, res, true
}

// ScheduleJSON handles the JSON-based scheduling request
func (h *Handler) ScheduleJSON(c *gin.Context) {
	_, res, ok := h.solveRequest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res)
}

// ScheduleCSV solves and returns the roster as CSV. Results without a
// roster are returned as JSON.
func (h *Handler) ScheduleCSV(c *gin.Context) {
	req, res, ok := h.solveRequest(c)
	if !ok {
		return
	}
	if res.Status != models.StatusOptimal {
		c.JSON(http.StatusOK, res)
		return
	}

	data, err := export.RosterDataset(req, res)
	if err != nil {
		h.respondError(c, err)
		return
	}
	body, err := export.NewCSVExporter().Render(data)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="schedule.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}

// SchedulePDF solves and returns the roster as a PDF document
func (h *Handler) SchedulePDF(c *gin.Context) {
	req, res, ok := h.solveRequest(c)
	if !ok {
		return
	}
	if res.Status != models.StatusOptimal {
		c.JSON(http.StatusOK, res)
		return
	}

	data, err := export.RosterDataset(req, res)
	if err != nil {
		h.respondError(c, err)
		return
	}

	footer := fmt.Sprintf("Total cost: %.2f", *res.TotalCost)
	if res.FairnessScore != nil {
		footer += fmt.Sprintf("  Fairness: %.2f", *res.FairnessScore)
	}
	body, err := export.NewPDFExporter().Render(data, "Weekly Schedule", footer)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="schedule.pdf"`)
	c.Data(http.StatusOK, "application/pdf", body)
}

// GenerateExampleData returns a generated instance that is known to be solvable
func (h *Handler) GenerateExampleData(c *gin.Context) {
	seed, err := strconv.ParseInt(c.DefaultQuery("seed", strconv.Itoa(scheduler.DefaultExampleSeed)), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "seed must be an integer", "field": "seed"})
		return
	}
	employees, err := strconv.Atoi(c.DefaultQuery("employees", strconv.Itoa(scheduler.DefaultExampleEmployees)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "employees must be an integer", "field": "employees"})
		return
	}

	c.JSON(http.StatusOK, scheduler.GenerateExample(seed, employees))
}

// FindFeasibleConfig sweeps generated instances for solvable configurations
func (h *Handler) FindFeasibleConfig(c *gin.Context) {
	start := time.Now()
	report, err := scheduler.FindFeasibleConfig(c.Request.Context(), h.Solver, h.Sweep)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.log().Info("feasibility sweep finished",
		zap.Int("tested", report.Summary.TotalTested),
		zap.Int("feasible", report.Summary.FeasibleFound),
		zap.Duration("elapsed", time.Since(start)),
	)
	c.JSON(http.StatusOK, report)
}
