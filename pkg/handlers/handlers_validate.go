package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/shift-optimizer/pkg/models"
	"github.com/arnavshah/shift-optimizer/pkg/scheduler"
)

// ValidateInput checks a scheduling request without solving it. Conflicts
// lists the requirements that can never be met.
func (h *Handler) ValidateInput(c *gin.Context) {
	var req models.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	inst, err := scheduler.Normalize(&req)
	if err != nil {
		var verr *scheduler.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": verr.Message, "field": verr.Field})
			return
		}
		h.respondError(c, err)
		return
	}

	responsible := 0
	for _, e := range inst.Employees {
		if e.Responsible {
			responsible++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":     true,
		"conflicts": scheduler.Diagnose(inst),
		"stats": gin.H{
			"employee_count":    len(inst.Employees),
			"responsible_count": responsible,
			"day_count":         len(inst.Days),
			"shift_count":       len(inst.Days) * len(inst.Shifts),
			"variables":         inst.NumVars(),
		},
	})
}
