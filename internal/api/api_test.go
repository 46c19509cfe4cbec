package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fitadmin/membership-app/internal/domain"
	"fitadmin/membership-app/internal/repository/memory"
	"fitadmin/membership-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "api-test-secret"

// fakeStorage satisfies storage.FileStorage for handler tests.
type fakeStorage struct{}

func (fakeStorage) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://storage.test/upload/" + key, nil
}

func (fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.test/download/" + key, nil
}

func (fakeStorage) DeleteObject(context.Context, string) error { return nil }

type testApp struct {
	router      *gin.Engine
	userService service.UserService
	authService service.AuthService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	userRepo := memory.NewUserRepository()
	planRepo := memory.NewDailyPlanRepository()
	programRepo := memory.NewProgramRepository()
	paymentRepo := memory.NewPaymentRepository()
	metricRepo := memory.NewMetricRepository()
	activityRepo := memory.NewActivityLogRepository()
	fs := fakeStorage{}

	activityService := service.NewActivityService(activityRepo)
	authService := service.NewAuthService(userRepo, activityService, testSecret, time.Hour)
	userService := service.NewUserService(userRepo, planRepo, paymentRepo, metricRepo, activityRepo, fs, activityService)
	planService := service.NewPlanService(planRepo, userRepo, activityService)
	programService := service.NewProgramService(programRepo, fs)
	paymentService := service.NewPaymentService(paymentRepo, programRepo, userRepo, activityService)
	metricService := service.NewMetricService(metricRepo, activityService)

	router := gin.New()
	SetupRoutes(router, testSecret, authService, userService, planService, paymentService, programService, metricService, activityService)

	return &testApp{router: router, userService: userService, authService: authService}
}

// do performs a JSON request against the test router.
func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// memberToken registers a member over HTTP and returns their token and id.
func (a *testApp) memberToken(t *testing.T, email string) (token, userID string) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Name: "Member " + email, Email: email, Password: "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	return a.login(t, email)
}

// adminToken creates an admin directly through the service and logs in.
func (a *testApp) adminToken(t *testing.T) (token, userID string) {
	t.Helper()
	_, err := a.userService.CreateUser(context.Background(), "Admin", "admin@example.com", "password123", domain.RoleAdmin, "", "")
	require.NoError(t, err)
	return a.login(t, "admin@example.com")
}

func (a *testApp) login(t *testing.T, email string) (token, userID string) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{
		Email: email, Password: "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.User.ID
}

func validPlanBody() gin.H {
	return gin.H{
		"title": "Leg day",
		"details": gin.H{
			"exercises": []gin.H{{"name": "Squat", "sets": 3, "reps": 10}},
		},
		"date": "2026-02-10T00:00:00Z",
	}
}

func TestRegisterForcesMemberRole(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Name: "Jane", Email: "jane@example.com", Password: "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.RoleMember, resp.Role)
}

func TestLoginSetsCookieAndLogoutClearsIt(t *testing.T) {
	app := newTestApp(t)
	app.memberToken(t, "jane@example.com")

	w := app.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{
		Email: "jane@example.com", Password: "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var authCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == AuthCookieName {
			authCookie = c
		}
	}
	require.NotNil(t, authCookie, "login must set the auth cookie")
	assert.NotEmpty(t, authCookie.Value)
	assert.True(t, authCookie.HttpOnly)

	// Logout succeeds without any credentials and expires the cookie.
	w = app.do(t, http.MethodPost, "/api/v1/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	for _, c := range w.Result().Cookies() {
		if c.Name == AuthCookieName {
			assert.Empty(t, c.Value)
			assert.Negative(t, c.MaxAge)
		}
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/api/v1/users/me/plans", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodGet, "/api/v1/users/me/plans", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutesForbiddenForMembers(t *testing.T) {
	app := newTestApp(t)
	token, _ := app.memberToken(t, "jane@example.com")

	w := app.do(t, http.MethodGet, "/api/v1/admin/users", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodPost, "/api/v1/admin/payments", token, gin.H{
		"userId": "ffffffffffffffffffffffff", "amount": 10, "method": "CASH", "transactionRef": "TX-1",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMemberPlanCRUD(t *testing.T) {
	app := newTestApp(t)
	token, userID := app.memberToken(t, "jane@example.com")

	w := app.do(t, http.MethodPost, "/api/v1/users/me/plans", token, validPlanBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created PlanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, userID, created.UserID)
	assert.Equal(t, "Leg day", created.Title)

	w = app.do(t, http.MethodGet, "/api/v1/users/me/plans", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []PlanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)

	body := validPlanBody()
	body["title"] = "Leg day v2"
	w = app.do(t, http.MethodPut, "/api/v1/users/me/plans/"+created.ID, token, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.do(t, http.MethodDelete, "/api/v1/users/me/plans/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/api/v1/users/me/plans/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMemberCannotSeeForeignPlans(t *testing.T) {
	app := newTestApp(t)
	aliceToken, _ := app.memberToken(t, "alice@example.com")
	bobToken, _ := app.memberToken(t, "bob@example.com")

	w := app.do(t, http.MethodPost, "/api/v1/users/me/plans", aliceToken, validPlanBody())
	require.Equal(t, http.StatusCreated, w.Code)
	var alicePlan PlanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alicePlan))

	// Bob gets the same answer for Alice's plan as for a made-up id.
	wForeign := app.do(t, http.MethodGet, "/api/v1/users/me/plans/"+alicePlan.ID, bobToken, nil)
	wMissing := app.do(t, http.MethodGet, "/api/v1/users/me/plans/ffffffffffffffffffffffff", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, wForeign.Code)
	assert.Equal(t, wMissing.Code, wForeign.Code)
	assert.JSONEq(t, wMissing.Body.String(), wForeign.Body.String())

	// Updates and deletes are equally blind.
	w = app.do(t, http.MethodPut, "/api/v1/users/me/plans/"+alicePlan.ID, bobToken, validPlanBody())
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = app.do(t, http.MethodDelete, "/api/v1/users/me/plans/"+alicePlan.ID, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Alice still has her plan.
	w = app.do(t, http.MethodGet, "/api/v1/users/me/plans/"+alicePlan.ID, aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMemberMetricsAndSeries(t *testing.T) {
	app := newTestApp(t)
	token, _ := app.memberToken(t, "jane@example.com")

	for i, day := range []int{3, 1, 2} {
		w := app.do(t, http.MethodPost, "/api/v1/users/me/metrics", token, gin.H{
			"key":        "WEIGHT",
			"value":      80 + float64(day),
			"unit":       "kg",
			"recordedAt": fmt.Sprintf("2026-03-0%dT08:00:00Z", day),
		})
		require.Equal(t, http.StatusCreated, w.Code, "metric %d: %s", i, w.Body.String())
	}
	w := app.do(t, http.MethodPost, "/api/v1/users/me/metrics", token, gin.H{
		"key": "BODY_FAT", "value": 18.5, "unit": "%",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Filtered list.
	w = app.do(t, http.MethodGet, "/api/v1/users/me/metrics?key=WEIGHT", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var metrics []MetricResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &metrics))
	require.Len(t, metrics, 3)

	// Series comes back chronological.
	w = app.do(t, http.MethodGet, "/api/v1/users/me/metrics/series?key=WEIGHT", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var series MetricSeriesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &series))
	require.Len(t, series.Points, 3)
	assert.Equal(t, 81.0, series.Points[0].Value)
	assert.Equal(t, 83.0, series.Points[2].Value)

	// Unknown key is a client error.
	w = app.do(t, http.MethodGet, "/api/v1/users/me/metrics/series?key=SHOE_SIZE", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminPaymentFlow(t *testing.T) {
	app := newTestApp(t)
	adminToken, _ := app.adminToken(t)
	_, memberID := app.memberToken(t, "jane@example.com")

	// Program with a price to default from.
	w := app.do(t, http.MethodPost, "/api/v1/admin/programs", adminToken, CreateProgramRequest{
		Name: "3 Month Plan", DurationDays: 90, Price: 149.99, IsActive: true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var program ProgramResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &program))

	// Amount omitted: price applies.
	w = app.do(t, http.MethodPost, "/api/v1/admin/payments", adminToken, gin.H{
		"userId": memberID, "programId": program.ID, "method": "CARD", "transactionRef": "TX-1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var payment PaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payment))
	assert.Equal(t, 149.99, payment.Amount)

	// Same reference again: conflict.
	w = app.do(t, http.MethodPost, "/api/v1/admin/payments", adminToken, gin.H{
		"userId": memberID, "programId": program.ID, "method": "CARD", "transactionRef": "TX-1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Explicit discounted amount is kept verbatim.
	w = app.do(t, http.MethodPost, "/api/v1/admin/payments", adminToken, gin.H{
		"userId": memberID, "programId": program.ID, "amount": 99.0, "method": "CASH", "transactionRef": "TX-2",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payment))
	assert.Equal(t, 99.0, payment.Amount)

	// Member sees exactly their own payments.
	memberToken, _ := app.login(t, "jane@example.com")
	w = app.do(t, http.MethodGet, "/api/v1/users/me/payments", memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var payments []PaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payments))
	assert.Len(t, payments, 2)

	// Admin list filtered by user matches.
	w = app.do(t, http.MethodGet, "/api/v1/admin/payments?userId="+memberID, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payments))
	assert.Len(t, payments, 2)
}

func TestAdminUserManagement(t *testing.T) {
	app := newTestApp(t)
	adminToken, _ := app.adminToken(t)

	w := app.do(t, http.MethodPost, "/api/v1/admin/users", adminToken, CreateUserRequest{
		Name: "New Member", Email: "new@example.com", Password: "password123", Role: domain.RoleMember,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// Duplicate email conflicts.
	w = app.do(t, http.MethodPost, "/api/v1/admin/users", adminToken, CreateUserRequest{
		Name: "Dup", Email: "new@example.com", Password: "password123", Role: domain.RoleMember,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(t, http.MethodPut, "/api/v1/admin/users/"+created.ID, adminToken, UpdateUserRequest{
		Name: "Renamed", Role: domain.RoleAdmin, Address: "1 Main St",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var updated UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, domain.RoleAdmin, updated.Role)
	assert.Equal(t, "Renamed", updated.Name)

	w = app.do(t, http.MethodDelete, "/api/v1/admin/users/"+created.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/api/v1/admin/users/"+created.ID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestActiveProgramsVisibleToMembers(t *testing.T) {
	app := newTestApp(t)
	adminToken, _ := app.adminToken(t)
	memberToken, _ := app.memberToken(t, "jane@example.com")

	for _, p := range []CreateProgramRequest{
		{Name: "Active", DurationDays: 30, Price: 49, IsActive: true},
		{Name: "Retired", DurationDays: 30, Price: 49, IsActive: false},
	} {
		w := app.do(t, http.MethodPost, "/api/v1/admin/programs", adminToken, p)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	// Members only see the active catalog.
	w := app.do(t, http.MethodGet, "/api/v1/programs", memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var programs []ProgramResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &programs))
	require.Len(t, programs, 1)
	assert.Equal(t, "Active", programs[0].Name)

	// Admins see everything.
	w = app.do(t, http.MethodGet, "/api/v1/admin/programs", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &programs))
	assert.Len(t, programs, 2)
}

func TestProfileSelfService(t *testing.T) {
	app := newTestApp(t)
	token, userID := app.memberToken(t, "jane@example.com")

	w := app.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, userID, profile.ID)

	w = app.do(t, http.MethodPut, "/api/v1/users/me", token, UpdateProfileRequest{
		Name: "Jane Renamed", Address: "2 Oak Ave", Phone: "555-0100",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "Jane Renamed", profile.Name)
	assert.Equal(t, domain.RoleMember, profile.Role)

	// Avatar upload URL.
	w = app.do(t, http.MethodPost, "/api/v1/users/me/avatar/upload-url", token, ImageUploadRequest{ContentType: "image/png"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var upload service.ImageUploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &upload))
	assert.Contains(t, upload.UploadURL, upload.ObjectKey)

	w = app.do(t, http.MethodPost, "/api/v1/users/me/avatar/upload-url", token, ImageUploadRequest{ContentType: "text/plain"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
