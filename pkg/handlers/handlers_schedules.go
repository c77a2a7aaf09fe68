package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arnavshah/shift-optimizer/pkg/database"
	apperrors "github.com/arnavshah/shift-optimizer/pkg/errors"
	"github.com/arnavshah/shift-optimizer/pkg/models"
)

// SaveSchedule solves a request and stores the request and result under a name
func (h *Handler) SaveSchedule(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	var body struct {
		Name    string                  `json:"name" binding:"required"`
		Request *models.ScheduleRequest `json:"request" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.solve(c.Request.Context(), c, body.Request)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.RecordUsage(c, len(body.Request.Days)*len(body.Request.Shifts), len(body.Request.Employees))

	rawReq, err := json.Marshal(body.Request)
	if err != nil {
		h.respondError(c, err)
		return
	}
	rawRes, err := json.Marshal(res)
	if err != nil {
		h.respondError(c, err)
		return
	}

	saved := database.SavedSchedule{
		ID:        uuid.NewString(),
		Manager:   c.GetString("userID"),
		Name:      body.Name,
		Request:   string(rawReq),
		Result:    string(rawRes),
		Status:    res.Status,
		TotalCost: res.TotalCost,
	}
	if err := h.DB.Create(&saved).Error; err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         saved.ID,
		"name":       saved.Name,
		"status":     saved.Status,
		"total_cost": saved.TotalCost,
		"result":     res,
	})
}

// ListSchedules returns the caller's saved schedules without their payloads
func (h *Handler) ListSchedules(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	var saved []database.SavedSchedule
	if err := h.DB.Where("manager = ?", c.GetString("userID")).Order("created_at desc").Find(&saved).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": saved})
}

// GetSchedule returns one saved schedule with its request and result
func (h *Handler) GetSchedule(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		h.respondError(c, apperrors.Clone(apperrors.ErrNotFound, "schedule not found"))
		return
	}

	var saved database.SavedSchedule
	if err := h.DB.Where("id = ? AND manager = ?", id, c.GetString("userID")).First(&saved).Error; err != nil {
		h.respondError(c, notFound(err, "schedule not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         saved.ID,
		"name":       saved.Name,
		"status":     saved.Status,
		"total_cost": saved.TotalCost,
		"created_at": saved.CreatedAt,
		"request":    json.RawMessage(saved.Request),
		"result":     json.RawMessage(saved.Result),
	})
}

// DeleteSchedule removes one of the caller's saved schedules
func (h *Handler) DeleteSchedule(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	result := h.DB.Where("id = ? AND manager = ?", c.Param("id"), c.GetString("userID")).Delete(&database.SavedSchedule{})
	if result.Error != nil {
		h.respondError(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		h.respondError(c, apperrors.Clone(apperrors.ErrNotFound, "schedule not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Schedule deleted"})
}
