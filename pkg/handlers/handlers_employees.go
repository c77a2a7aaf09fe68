package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arnavshah/shift-optimizer/pkg/database"
	apperrors "github.com/arnavshah/shift-optimizer/pkg/errors"
	"github.com/arnavshah/shift-optimizer/pkg/models"
)

// employeeBody is a stored employee as managers submit it. AccountID links
// the profile to the API key user that may read it through /api/my_profile.
type employeeBody struct {
	models.EmployeeSpec
	AccountID string `json:"account_id,omitempty"`
}

// employeeRecord copies a submitted employee into its stored form
func employeeRecord(manager string, body employeeBody) (database.Employee, error) {
	spec := body.EmployeeSpec
	if strings.Contains(body.AccountID, ".") {
		return database.Employee{}, apperrors.Clone(apperrors.ErrValidation, "account_id must not contain '.'")
	}
	if strings.TrimSpace(spec.Name) == "" {
		return database.Employee{}, apperrors.Clone(apperrors.ErrValidation, "name is required")
	}
	if spec.Wage < 0 || deref(spec.MinHours) < 0 || deref(spec.MaxHours) < 0 {
		return database.Employee{}, apperrors.Clone(apperrors.ErrValidation, "hours and wage must not be negative")
	}

	availability := spec.Availability
	if availability == nil {
		availability = map[string]bool{}
	}
	raw, err := json.Marshal(availability)
	if err != nil {
		return database.Employee{}, err
	}

	return database.Employee{
		Manager:          manager,
		Account:          body.AccountID,
		Name:             spec.Name,
		MinHours:         deref(spec.MinHours),
		MaxHours:         deref(spec.MaxHours),
		Wage:             spec.Wage,
		CanBeResponsible: spec.CanBeResponsible,
		IsFullTime:       spec.IsFullTime,
		Availability:     string(raw),
	}, nil
}

// employeeSpec is the request form of a stored employee
func employeeSpec(e database.Employee) (models.EmployeeSpec, error) {
	availability := map[string]bool{}
	if e.Availability != "" {
		if err := json.Unmarshal([]byte(e.Availability), &availability); err != nil {
			return models.EmployeeSpec{}, err
		}
	}
	minHours, maxHours := e.MinHours, e.MaxHours
	return models.EmployeeSpec{
		Name:             e.Name,
		MinHours:         &minHours,
		MaxHours:         &maxHours,
		Wage:             e.Wage,
		CanBeResponsible: e.CanBeResponsible,
		Availability:     availability,
		IsFullTime:       e.IsFullTime,
	}, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func (h *Handler) storedEmployees(manager string) ([]models.EmployeeSpec, error) {
	var rows []database.Employee
	if err := h.DB.Where("manager = ?", manager).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	specs := make([]models.EmployeeSpec, 0, len(rows))
	for _, row := range rows {
		spec, err := employeeSpec(row)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// ListEmployees returns the caller's stored employees
func (h *Handler) ListEmployees(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	employees, err := h.storedEmployees(c.GetString("userID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employees": employees})
}

// CreateEmployee stores an employee profile for the caller
func (h *Handler) CreateEmployee(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	var body employeeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := employeeRecord(c.GetString("userID"), body)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.DB.Create(&record).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": record.ID, "employee": body.EmployeeSpec})
}

// UpdateEmployee replaces one of the caller's employees
func (h *Handler) UpdateEmployee(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	var body employeeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	manager := c.GetString("userID")
	var existing database.Employee
	if err := h.DB.Where("id = ? AND manager = ?", c.Param("id"), manager).First(&existing).Error; err != nil {
		h.respondError(c, notFound(err, "employee not found"))
		return
	}

	record, err := employeeRecord(manager, body)
	if err != nil {
		h.respondError(c, err)
		return
	}
	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	if err := h.DB.Save(&record).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": record.ID, "employee": body.EmployeeSpec})
}

// MyProfile returns the employee profile linked to the calling account.
// It is read-only; profiles are edited by the manager who stores them.
func (h *Handler) MyProfile(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	var row database.Employee
	if err := h.DB.Where("account = ?", c.GetString("userID")).Order("id").First(&row).Error; err != nil {
		h.respondError(c, notFound(err, "employee profile not found"))
		return
	}
	spec, err := employeeSpec(row)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": row.ID, "employee": spec})
}

// DeleteEmployee removes one of the caller's employees
func (h *Handler) DeleteEmployee(c *gin.Context) {
	if !h.requireDB(c) {
		return
	}
	result := h.DB.Where("id = ? AND manager = ?", c.Param("id"), c.GetString("userID")).Delete(&database.Employee{})
	if result.Error != nil {
		h.respondError(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		h.respondError(c, apperrors.Clone(apperrors.ErrNotFound, "employee not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Employee deleted"})
}

// notFound maps a missing row to a 404 and passes other errors through
func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Wrap(err, apperrors.ErrNotFound.Code, apperrors.ErrNotFound.Status, message)
	}
	return err
}
