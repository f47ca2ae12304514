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
)

type fakeAttendanceSrv struct {
	today      *models.TodayAttendance
	record     *models.AttendanceRecord
	err        error
	csv        []byte
	lastID     string
	lastFilter models.AttendanceFilter
	lastReq    models.CheckOutRequest
}

func (f *fakeAttendanceSrv) Today(_ context.Context, profileID string) (*models.TodayAttendance, error) {
	f.lastID = profileID
	return f.today, f.err
}

func (f *fakeAttendanceSrv) CheckIn(_ context.Context, profileID string) (*models.AttendanceRecord, error) {
	f.lastID = profileID
	return f.record, f.err
}

func (f *fakeAttendanceSrv) CheckOut(_ context.Context, profileID string, req models.CheckOutRequest) (*models.AttendanceRecord, error) {
	f.lastID = profileID
	f.lastReq = req
	return f.record, f.err
}

func (f *fakeAttendanceSrv) List(_ context.Context, filter models.AttendanceFilter) ([]models.AttendanceListRow, int, error) {
	f.lastFilter = filter
	return nil, 0, f.err
}

func (f *fakeAttendanceSrv) ExportCSV(_ context.Context, filter models.AttendanceFilter) ([]byte, error) {
	f.lastFilter = filter
	return f.csv, f.err
}

func employeeContext(rec *httptest.ResponseRecorder, profileID string) (*gin.Context, *gin.Engine) {
	c, engine := gin.CreateTestContext(rec)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		UserID:    "u1",
		ProfileID: profileID,
		Role:      models.RoleEmployee,
	})
	return c, engine
}

func TestAttendanceHandlerCheckIn(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAttendanceSrv{record: &models.AttendanceRecord{ID: "a1", ProfileID: "p1"}}
	handler := NewAttendanceHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := employeeContext(rec, "p1")
	c.Request = httptest.NewRequest(http.MethodPost, "/attendance/check-in", nil)

	handler.CheckIn(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "p1", srv.lastID)
}

func TestAttendanceHandlerCheckOutInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(&fakeAttendanceSrv{})

	rec := httptest.NewRecorder()
	c, _ := employeeContext(rec, "p1")
	c.Request = httptest.NewRequest(http.MethodPost, "/attendance/check-out", strings.NewReader("{"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.CheckOut(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandlerCheckOutForwardsEntries(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAttendanceSrv{record: &models.AttendanceRecord{ID: "a1"}}
	handler := NewAttendanceHandler(srv)

	body := `{"entries":[{"from_time":"09:00","to_time":"13:00","description":"sprint work"}]}`
	rec := httptest.NewRecorder()
	c, _ := employeeContext(rec, "p1")
	c.Request = httptest.NewRequest(http.MethodPost, "/attendance/check-out", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.CheckOut(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p1", srv.lastID)
	assert.Len(t, srv.lastReq.Entries, 1)
	assert.Equal(t, "09:00", srv.lastReq.Entries[0].FromTime)
}

func TestAttendanceHandlerListPinsEmployee(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAttendanceSrv{}
	handler := NewAttendanceHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := employeeContext(rec, "p1")
	c.Request = httptest.NewRequest(http.MethodGet, "/attendance?profile_id=p2", nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p1", srv.lastFilter.ProfileID)
}

func TestAttendanceHandlerListInvalidDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(&fakeAttendanceSrv{})

	rec := httptest.NewRecorder()
	c, _ := employeeContext(rec, "p1")
	c.Request = httptest.NewRequest(http.MethodGet, "/attendance?date_from=31-12-2026", nil)

	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAttendanceSrv{csv: []byte("Employee,Date\n")}
	handler := NewAttendanceHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := employeeContext(rec, "p1")
	c.Request = httptest.NewRequest(http.MethodGet, "/attendance/export", nil)

	handler.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance.csv")
	assert.Equal(t, "Employee,Date\n", rec.Body.String())
}
