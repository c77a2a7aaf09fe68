package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/shift-optimizer/pkg/auth"
	"github.com/arnavshah/shift-optimizer/pkg/config"
	"github.com/arnavshah/shift-optimizer/pkg/database"
	"github.com/arnavshah/shift-optimizer/pkg/models"
)

func newDBHandler(t *testing.T) *Handler {
	t.Helper()
	h := newTestHandler(t)
	db, err := database.InitDB(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "handlers.db")}, h.Logger)
	require.NoError(t, err)
	h.DB = db
	return h
}

func TestAdminLoginAndKeys(t *testing.T) {
	h := newDBHandler(t)
	r := NewRouter(h)
	require.NoError(t, auth.EnsureAdminExists(h.DB, h.Logger))

	w := do(t, r, http.MethodPost, "/admin/login", map[string]string{"username": "admin", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodPost, "/admin/login", map[string]string{"username": "admin", "password": "admin123"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[map[string]any](t, w)["access_token"].(string)

	w = do(t, r, http.MethodPost, "/admin/keys", map[string]any{"name": "bad.name"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/admin/keys", map[string]any{"name": "store", "rate_limit": 2}, token)
	require.Equal(t, http.StatusOK, w.Code)
	created := decode[map[string]any](t, w)
	key := created["key"].(string)
	id := int(created["id"].(float64))

	w = do(t, r, http.MethodGet, "/admin/keys", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), key)
	assert.Contains(t, w.Body.String(), auth.KeyPreview(key))

	// Two solves exhaust the limit of 2.
	for i := 0; i < 2; i++ {
		w = do(t, r, http.MethodPost, "/api/schedule", twoEmployeeRequest(), key)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w = do(t, r, http.MethodPost, "/api/schedule", twoEmployeeRequest(), key)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = do(t, r, http.MethodGet, fmt.Sprintf("/admin/usage/%d", id), nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	usage := decode[map[string][]database.APIUsage](t, w)["usage"]
	require.Len(t, usage, 1)
	assert.Equal(t, 2, usage[0].RequestCount)
	assert.Equal(t, 4, usage[0].TotalShifts)
	assert.Equal(t, 4, usage[0].TotalEmployees)

	w = do(t, r, http.MethodPut, fmt.Sprintf("/admin/keys/%d", id), map[string]any{"rate_limit": 50}, token)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodPost, "/api/schedule", twoEmployeeRequest(), key)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodDelete, fmt.Sprintf("/admin/keys/%d", id), nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var count int64
	require.NoError(t, h.DB.Model(&database.APIUsage{}).Where("key_id = ?", id).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMyUsage(t *testing.T) {
	r := NewRouter(newDBHandler(t))
	key := auth.GenerateHMACKey("store")

	w := do(t, r, http.MethodPost, "/api/schedule", twoEmployeeRequest(), key)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/usage", nil, key)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "store", body["key_name"])
	totals := body["totals"].(map[string]any)
	assert.Equal(t, float64(1), totals["requests"])
	assert.Equal(t, float64(2), totals["shifts"])
	assert.Equal(t, float64(2), totals["employees"])
}

func TestEmployeesCRUD(t *testing.T) {
	r := NewRouter(newDBHandler(t))
	key := auth.GenerateHMACKey("store")
	other := auth.GenerateHMACKey("other")

	for _, emp := range twoEmployeeRequest().Employees {
		w := do(t, r, http.MethodPost, "/api/employees", emp, key)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := do(t, r, http.MethodPost, "/api/employees", models.EmployeeSpec{Name: " "}, key)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/employees", nil, key)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode[map[string][]models.EmployeeSpec](t, w)["employees"]
	require.Len(t, listed, 2)
	assert.Equal(t, "A", listed[0].Name)
	assert.True(t, listed[0].Availability["A_Mon_Evening"])

	w = do(t, r, http.MethodGet, "/api/employees", nil, other)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[map[string][]models.EmployeeSpec](t, w)["employees"])

	// The stored roster replaces whatever the body carries.
	req := twoEmployeeRequest()
	req.Employees = nil
	w = do(t, r, http.MethodPost, "/api/schedule?use_stored_employees=true", req, key)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[models.ScheduleResult](t, w)
	assert.Equal(t, models.StatusOptimal, res.Status)
	require.NotNil(t, res.TotalCost)
	assert.InDelta(t, 140, *res.TotalCost, 1e-6)

	updated := twoEmployeeRequest().Employees[1]
	updated.Wage = 5
	w = do(t, r, http.MethodPut, "/api/employees/2", updated, other)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, r, http.MethodPut, "/api/employees/2", updated, key)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodDelete, "/api/employees/1", nil, other)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, r, http.MethodDelete, "/api/employees/1", nil, key)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/employees", nil, key)
	listed = decode[map[string][]models.EmployeeSpec](t, w)["employees"]
	require.Len(t, listed, 1)
	assert.Equal(t, "B", listed[0].Name)
	assert.Equal(t, 5.0, listed[0].Wage)
}

func TestSavedSchedules(t *testing.T) {
	r := NewRouter(newDBHandler(t))
	key := auth.GenerateHMACKey("store")

	w := do(t, r, http.MethodPost, "/api/schedules", map[string]any{"name": "week 1", "request": twoEmployeeRequest()}, key)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	id := created["id"].(string)
	assert.Equal(t, models.StatusOptimal, created["status"])

	w = do(t, r, http.MethodGet, "/api/schedules", nil, key)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "week 1")

	w = do(t, r, http.MethodGet, "/api/schedules/"+id, nil, key)
	require.Equal(t, http.StatusOK, w.Code)
	saved := decode[struct {
		Name    string                 `json:"name"`
		Request models.ScheduleRequest `json:"request"`
		Result  models.ScheduleResult  `json:"result"`
	}](t, w)
	assert.Equal(t, "week 1", saved.Name)
	assert.Equal(t, []string{"Mon"}, saved.Request.Days)
	require.NotNil(t, saved.Result.TotalCost)
	assert.InDelta(t, 140, *saved.Result.TotalCost, 1e-6)

	w = do(t, r, http.MethodGet, "/api/schedules/"+id, nil, auth.GenerateHMACKey("other"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, r, http.MethodGet, "/api/schedules/not-a-uuid", nil, key)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodDelete, "/api/schedules/"+id, nil, key)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodGet, "/api/schedules", nil, key)
	assert.False(t, strings.Contains(w.Body.String(), "week 1"))
}

func TestMyProfile(t *testing.T) {
	r := NewRouter(newDBHandler(t))
	manager := auth.GenerateHMACKey("store")
	staff := auth.GenerateHMACKey("ann")
	stranger := auth.GenerateHMACKey("nobody")

	emp := twoEmployeeRequest().Employees[0]
	w := do(t, r, http.MethodPost, "/api/employees", map[string]any{
		"name": emp.Name, "min_hours": 8, "max_hours": 16, "wage": 10,
		"can_be_responsible": true, "availability": emp.Availability,
		"account_id": "ann",
	}, manager)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/my_profile", nil, staff)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	profile := decode[struct {
		ID       uint                `json:"id"`
		Employee models.EmployeeSpec `json:"employee"`
	}](t, w)
	assert.Equal(t, uint(1), profile.ID)
	assert.Equal(t, "A", profile.Employee.Name)
	assert.Equal(t, 10.0, profile.Employee.Wage)
	assert.True(t, profile.Employee.Availability["A_Mon_Morning"])

	w = do(t, r, http.MethodGet, "/api/my_profile", nil, stranger)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, r, http.MethodGet, "/api/my_profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Read-only: the route has no write verbs.
	w = do(t, r, http.MethodPut, "/api/my_profile", map[string]any{"wage": 99}, staff)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Unlinking the profile hides it from the employee.
	w = do(t, r, http.MethodPut, "/api/employees/1", emp, manager)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodGet, "/api/my_profile", nil, staff)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/api/employees", map[string]any{"name": "B", "account_id": "a.b"}, manager)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
