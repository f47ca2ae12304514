package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/peoplehq/hrm-api/internal/models"
	"github.com/peoplehq/hrm-api/internal/service"
)

type fakeDashboardSrv struct {
	hr          *service.HRDashboard
	hrHit       bool
	hrErr       error
	employee    *service.EmployeeDashboard
	lastProfile string
	lastRole    models.UserRole
}

func (f *fakeDashboardSrv) HR(context.Context) (*service.HRDashboard, bool, error) {
	return f.hr, f.hrHit, f.hrErr
}

func (f *fakeDashboardSrv) Employee(_ context.Context, profileID string, role models.UserRole) (*service.EmployeeDashboard, error) {
	f.lastProfile = profileID
	f.lastRole = role
	return f.employee, nil
}

type dashboardEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}

func TestDashboardHandlerHRCacheHitMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{
		hr:    &service.HRDashboard{ActiveEmployees: 12},
		hrHit: true,
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/hr", nil)

	handler.HR(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope dashboardEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, float64(12), envelope.Data["active_employees"])
}

func TestDashboardHandlerEmployeeRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/me", nil)

	handler.Employee(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardHandlerEmployeePassesClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeDashboardSrv{employee: &service.EmployeeDashboard{}}
	handler := NewDashboardHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := employeeContext(rec, "p1")
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/me", nil)

	handler.Employee(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p1", srv.lastProfile)
	assert.Equal(t, models.RoleEmployee, srv.lastRole)
}
