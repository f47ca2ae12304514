package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/peoplehq/hrm-api/internal/middleware"
	"github.com/peoplehq/hrm-api/internal/models"
	"github.com/peoplehq/hrm-api/internal/service"
)

type fakeGoalsheetSrv struct {
	detail    *service.GoalsheetDetail
	sheet     *models.Goalsheet
	err       error
	lastOwner string
	lastWeek  int
}

func (f *fakeGoalsheetSrv) List(_ context.Context, filter models.GoalsheetFilter, owner string) ([]models.Goalsheet, int, error) {
	f.lastOwner = owner
	return nil, 0, f.err
}

func (f *fakeGoalsheetSrv) Get(_ context.Context, id, owner string) (*service.GoalsheetDetail, error) {
	f.lastOwner = owner
	return f.detail, f.err
}

func (f *fakeGoalsheetSrv) Create(_ context.Context, req service.CreateGoalsheetRequest, createdBy string) (*models.Goalsheet, error) {
	return f.sheet, f.err
}

func (f *fakeGoalsheetSrv) SubmitWeek(_ context.Context, sheetID, owner string, req service.SubmitWeekRequest) (*service.GoalsheetDetail, error) {
	f.lastOwner = owner
	f.lastWeek = req.Week
	return f.detail, f.err
}

func (f *fakeGoalsheetSrv) TargetTypes(_ context.Context) ([]models.TargetType, error) {
	return nil, f.err
}

func TestGoalsheetHandlerListUnknownStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGoalsheetHandler(&fakeGoalsheetSrv{})

	rec := httptest.NewRecorder()
	c, _ := employeeContext(rec, "p1")
	c.Request = httptest.NewRequest(http.MethodGet, "/goalsheets?status=finished", nil)

	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGoalsheetHandlerListScopesEmployee(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeGoalsheetSrv{}
	handler := NewGoalsheetHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := employeeContext(rec, "p1")
	c.Request = httptest.NewRequest(http.MethodGet, "/goalsheets", nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p1", srv.lastOwner)
}

func TestGoalsheetHandlerListHRSeesAll(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeGoalsheetSrv{}
	handler := NewGoalsheetHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u2", Role: models.RoleHR})
	c.Request = httptest.NewRequest(http.MethodGet, "/goalsheets", nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", srv.lastOwner)
}

func TestGoalsheetHandlerSubmitWeek(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeGoalsheetSrv{detail: &service.GoalsheetDetail{}}
	handler := NewGoalsheetHandler(srv)

	body := `{"week":2,"values":{"gi1":{"value":"done"}}}`
	rec := httptest.NewRecorder()
	c, _ := employeeContext(rec, "p1")
	c.Request = httptest.NewRequest(http.MethodPost, "/goalsheets/gs1/submit-week", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "gs1"}}

	handler.SubmitWeek(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, srv.lastWeek)
	assert.Equal(t, "p1", srv.lastOwner)
}

func TestGoalsheetHandlerSubmitWeekInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGoalsheetHandler(&fakeGoalsheetSrv{})

	rec := httptest.NewRecorder()
	c, _ := employeeContext(rec, "p1")
	c.Request = httptest.NewRequest(http.MethodPost, "/goalsheets/gs1/submit-week", strings.NewReader("not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.SubmitWeek(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
