package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/repository"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/schedule"
	"golang.org/x/crypto/bcrypt"
)

type fakeMailer struct {
	messages []domain.MailMessage
}

func (m *fakeMailer) Publish(_ context.Context, msg domain.MailMessage) error {
	m.messages = append(m.messages, msg)
	return nil
}

var eventColumnNames = []string{
	"id", "title", "description", "start_time", "end_time", "all_day", "event_type", "status", "priority", "color",
	"project_id", "customer_id", "technician_ids", "location", "notes", "recurring_pattern",
	"created_by", "updated_by", "created_at", "updated_at",
}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.Database.QueryTimeout = 5
	cfg.Database.TransactionTimeout = 5
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 1
	cfg.Schedule.Timezone = "UTC"
	cfg.Export.RatePerMinute = 1
	cfg.Export.Burst = 1

	repo := repository.NewRepository(cfg, db)

	opts := schedule.DefaultOptions()
	opts.Location = time.UTC
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := schedule.New(repo, repo, repo, repo, opts)

	h, err := NewHandler(cfg, repo, svc, &fakeMailer{}, nil)
	require.NoError(t, err)
	h.RegisterRoutes()

	return h, mock
}

func (h *Handler) testCookie(t *testing.T, username string, role domain.Role) *http.Cookie {
	t.Helper()
	ss, expiration, err := h.issueToken(&domain.User{ID: 7, Username: username, Role: role}, time.Now())
	require.NoError(t, err)
	return &http.Cookie{Name: tokenCookieName, Value: ss, Expires: expiration}
}

func do(h *Handler, req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	h.Mux.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, data any) Response {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	if data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return Response{Success: resp.Success, Message: resp.Message}
}

func TestAuthRequired(t *testing.T) {
	h, _ := newTestHandler(t)

	resp := decode(t, do(h, httptest.NewRequest(http.MethodGet, "/events", nil), nil), nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "用户未登录", resp.Message)

	bad := &http.Cookie{Name: tokenCookieName, Value: "not-a-token"}
	resp = decode(t, do(h, httptest.NewRequest(http.MethodGet, "/events", nil), bad), nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "无效的令牌", resp.Message)
}

func TestTechnicianCannotCreateEvent(t *testing.T) {
	h, mock := newTestHandler(t)

	body := strings.NewReader(`{"title":"x","startTime":"2025-03-10T09:00:00Z","eventType":"repair","priority":"low"}`)
	rr := do(h, httptest.NewRequest(http.MethodPost, "/events", body), h.testCookie(t, "wangwei", domain.RoleTechnician))

	resp := decode(t, rr, nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "权限不足", resp.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEventValidation(t *testing.T) {
	h, _ := newTestHandler(t)
	cookie := h.testCookie(t, "dispatcher", domain.RoleDispatcher)

	body := strings.NewReader(`{"title":"x","startTime":"2025-03-10T09:00:00Z","eventType":"party","priority":"low"}`)
	resp := decode(t, do(h, httptest.NewRequest(http.MethodPost, "/events", body), cookie), nil)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Message)

	body = strings.NewReader(`{"title":"x","startTime":"2025-03-10T09:00:00Z","endTime":"2025-03-10T08:00:00Z","eventType":"repair","priority":"low"}`)
	resp = decode(t, do(h, httptest.NewRequest(http.MethodPost, "/events", body), cookie), nil)
	assert.False(t, resp.Success)
	assert.Equal(t, domain.ErrInvalidTimeRange.Error(), resp.Message)
}

func TestListEventsRejectsUnknownStatus(t *testing.T) {
	h, mock := newTestHandler(t)

	rr := do(h, httptest.NewRequest(http.MethodGet, "/events?statuses=scheduled,paused", nil), h.testCookie(t, "wangwei", domain.RoleTechnician))
	resp := decode(t, rr, nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "无效的事件状态: paused", resp.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAvailableSlots(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery("FROM schedule_events").WillReturnRows(sqlmock.NewRows(eventColumnNames))

	rr := do(h, httptest.NewRequest(http.MethodGet, "/availability?date=2025-03-10&duration=60&technicianIDs=t1,t2", nil), h.testCookie(t, "wangwei", domain.RoleTechnician))
	require.Equal(t, http.StatusOK, rr.Code)

	var slots []domain.TimeSlot
	resp := decode(t, rr, &slots)
	assert.True(t, resp.Success)
	require.Len(t, slots, 19)
	assert.Equal(t, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), slots[0].StartTime.UTC())
	for _, slot := range slots {
		assert.True(t, slot.Available)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAvailableSlotsInvalidDate(t *testing.T) {
	h, _ := newTestHandler(t)

	resp := decode(t, do(h, httptest.NewRequest(http.MethodGet, "/availability?date=tomorrow", nil), h.testCookie(t, "wangwei", domain.RoleTechnician)), nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "无效的日期", resp.Message)
}

func TestExportRateLimited(t *testing.T) {
	h, mock := newTestHandler(t)
	cookie := h.testCookie(t, "dispatcher", domain.RoleDispatcher)

	mock.ExpectQuery("FROM schedule_events").WillReturnRows(sqlmock.NewRows(eventColumnNames))

	rr := do(h, httptest.NewRequest(http.MethodGet, "/export?format=csv", nil), cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, `"Title","Description","Start Time","End Time","Location","Type","Status","Priority"`, rr.Body.String())

	rr = do(h, httptest.NewRequest(http.MethodGet, "/export?format=csv", nil), cookie)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportUnsupportedFormat(t *testing.T) {
	h, mock := newTestHandler(t)

	resp := decode(t, do(h, httptest.NewRequest(http.MethodGet, "/export?format=pdf", nil), h.testCookie(t, "dispatcher", domain.RoleDispatcher)), nil)
	assert.False(t, resp.Success)
	assert.Equal(t, domain.ErrUnsupportedExportFormat.Error(), resp.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveConflictUsesTokenUsername(t *testing.T) {
	h, mock := newTestHandler(t)
	cookie := h.testCookie(t, "tech-42", domain.RoleAdmin)

	mock.ExpectExec("UPDATE schedule_conflicts").
		WithArgs(sqlmock.AnyArg(), "tech-42", "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE schedule_conflicts").
		WithArgs(sqlmock.AnyArg(), "tech-42", "c1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	resp := decode(t, do(h, httptest.NewRequest(http.MethodPost, "/conflicts/c1/resolve", nil), cookie), nil)
	assert.True(t, resp.Success)

	resp = decode(t, do(h, httptest.NewRequest(http.MethodPost, "/conflicts/c1/resolve", nil), cookie), nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "记录不存在", resp.Message)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin(t *testing.T) {
	h, mock := newTestHandler(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	userRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "username", "password_hash", "full_name", "email", "role", "technician_id", "is_active", "created_at", "version"}).
			AddRow(int64(1), "admin", string(hash), "管理员", "admin@example.com", "admin", nil, true, time.Now(), int64(1))
	}
	mock.ExpectQuery("FROM users WHERE username").WithArgs("admin").WillReturnRows(userRows())
	mock.ExpectQuery("FROM users WHERE username").WithArgs("admin").WillReturnRows(userRows())

	rr := do(h, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin","password":"password123"}`)), nil)
	resp := decode(t, rr, nil)
	assert.True(t, resp.Success)

	var token *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == tokenCookieName {
			token = c
		}
	}
	require.NotNil(t, token)
	assert.True(t, token.HttpOnly)

	rr = do(h, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin","password":"wrong"}`)), nil)
	resp = decode(t, rr, nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "用户名不存在或密码错误", resp.Message)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func myInfoRows(technicianID any, active bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "password_hash", "full_name", "email", "role", "technician_id", "is_active", "created_at", "version"}).
		AddRow(int64(7), "chenzhq", "hash", "陈志强", "chenzhq@example.com", "technician", technicianID, active, time.Now(), int64(1))
}

func TestGetMyInfoWithTechnicianProfile(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery("FROM users WHERE id").WithArgs(int64(7)).WillReturnRows(myInfoRows("t1", true))
	mock.ExpectQuery("FROM technicians").WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"name", "email", "phone", "skills", "is_active", "created_at"}).
			AddRow("陈志强", "chenzhq@example.com", "13800138001", "{柴油机组}", true, time.Now()))

	var data struct {
		Username   string             `json:"username"`
		Technician *domain.Technician `json:"technician"`
	}
	resp := decode(t, do(h, httptest.NewRequest(http.MethodGet, "/my-info", nil), h.testCookie(t, "chenzhq", domain.RoleTechnician)), &data)
	assert.True(t, resp.Success)
	assert.Equal(t, "chenzhq", data.Username)
	require.NotNil(t, data.Technician)
	assert.Equal(t, "t1", data.Technician.ID)
	assert.Equal(t, []string{"柴油机组"}, data.Technician.Skills)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMyInfoRejectsStaleToken(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery("FROM users WHERE id").WithArgs(int64(7)).WillReturnRows(myInfoRows(nil, false))
	mock.ExpectQuery("FROM users WHERE id").WithArgs(int64(7)).WillReturnRows(myInfoRows(nil, true))

	resp := decode(t, do(h, httptest.NewRequest(http.MethodGet, "/my-info", nil), h.testCookie(t, "chenzhq", domain.RoleTechnician)), nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "账号已停用", resp.Message)

	// 令牌中的角色与数据库不一致
	resp = decode(t, do(h, httptest.NewRequest(http.MethodGet, "/my-info", nil), h.testCookie(t, "chenzhq", domain.RoleDispatcher)), nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "登录状态已过期，请重新登录", resp.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}
