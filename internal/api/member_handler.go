package api

import (
	"errors"
	"net/http"
	"time"

	"fitadmin/membership-app/internal/domain"
	"fitadmin/membership-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemberHandler serves the self-service endpoints under /users/me. The
// acting user is always taken from the JWT claims, never from the request,
// so a member can only ever touch their own records.
type MemberHandler struct {
	userService    service.UserService
	planService    service.PlanService
	paymentService service.PaymentService
	programService service.ProgramService
	metricService  service.MetricService
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(
	userService service.UserService,
	planService service.PlanService,
	paymentService service.PaymentService,
	programService service.ProgramService,
	metricService service.MetricService,
) *MemberHandler {
	return &MemberHandler{
		userService:    userService,
		planService:    planService,
		paymentService: paymentService,
		programService: programService,
		metricService:  metricService,
	}
}

// --- DTOs ---

type UpdateProfileRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type CreatePlanRequest struct {
	Title   string             `json:"title" binding:"required"`
	Details domain.PlanDetails `json:"details" binding:"required"`
	Date    time.Time          `json:"date" binding:"required"`
}

type CreatePlanAdminRequest struct {
	UserID  string             `json:"userId" binding:"required"`
	Title   string             `json:"title" binding:"required"`
	Details domain.PlanDetails `json:"details" binding:"required"`
	Date    time.Time          `json:"date" binding:"required"`
}

type UpdatePlanAdminRequest struct {
	UserID  string             `json:"userId" binding:"required"`
	Title   string             `json:"title" binding:"required"`
	Details domain.PlanDetails `json:"details" binding:"required"`
	Date    time.Time          `json:"date" binding:"required"`
}

type PlanResponse struct {
	ID        string             `json:"id"`
	UserID    string             `json:"userId"`
	Title     string             `json:"title"`
	Details   domain.PlanDetails `json:"details"`
	Date      time.Time          `json:"date"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

type CreateMetricRequest struct {
	Key        domain.MetricKey `json:"key" binding:"required"`
	Value      float64          `json:"value"`
	Unit       string           `json:"unit"`
	Notes      string           `json:"notes"`
	RecordedAt time.Time        `json:"recordedAt"`
}

type UpdateMetricRequest struct {
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	Notes      string    `json:"notes"`
	RecordedAt time.Time `json:"recordedAt"`
}

type MetricResponse struct {
	ID         string           `json:"id"`
	UserID     string           `json:"userId"`
	Key        domain.MetricKey `json:"key"`
	Value      float64          `json:"value"`
	Unit       string           `json:"unit,omitempty"`
	Notes      string           `json:"notes,omitempty"`
	RecordedAt time.Time        `json:"recordedAt"`
	CreatedAt  time.Time        `json:"createdAt"`
}

type MetricSeriesResponse struct {
	Key    domain.MetricKey      `json:"key"`
	Points []service.MetricPoint `json:"points"`
}

// --- Mapping helpers ---

func MapPlanToResponse(p *domain.DailyPlan) PlanResponse {
	if p == nil {
		return PlanResponse{}
	}
	return PlanResponse{
		ID:        p.ID.Hex(),
		UserID:    p.UserID.Hex(),
		Title:     p.Title,
		Details:   p.Details,
		Date:      p.Date,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func MapPlansToResponse(plans []domain.DailyPlan) []PlanResponse {
	responses := make([]PlanResponse, len(plans))
	for i, p := range plans {
		responses[i] = MapPlanToResponse(&p)
	}
	return responses
}

func MapMetricToResponse(m *domain.Metric) MetricResponse {
	if m == nil {
		return MetricResponse{}
	}
	return MetricResponse{
		ID:         m.ID.Hex(),
		UserID:     m.UserID.Hex(),
		Key:        m.Key,
		Value:      m.Value,
		Unit:       m.Unit,
		Notes:      m.Notes,
		RecordedAt: m.RecordedAt,
		CreatedAt:  m.CreatedAt,
	}
}

func MapMetricsToResponse(metrics []domain.Metric) []MetricResponse {
	responses := make([]MetricResponse, len(metrics))
	for i, m := range metrics {
		responses[i] = MapMetricToResponse(&m)
	}
	return responses
}

func respondPlanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPlanNotFound), errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPlanAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}

func respondMetricError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMetricNotFound), errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidMetricKey), errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}

// actingUserID resolves the authenticated user's id from the JWT claims.
func actingUserID(c *gin.Context) (primitive.ObjectID, bool) {
	idStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session.")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// === Profile ===

// GetProfile returns the authenticated user's own profile.
func (h *MemberHandler) GetProfile(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve profile.")
		}
		return
	}

	resp := MapUserToResponse(user)
	if url, err := h.userService.ImageDownloadURL(c.Request.Context(), user); err == nil {
		resp.ImageURL = url
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateProfile lets the authenticated user change their contact fields.
// Role and email are not editable here.
func (h *MemberHandler) UpdateProfile(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, req.Name, req.Address, req.Phone)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update profile.")
		}
		return
	}

	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// RequestAvatarUpload presigns an avatar upload for the authenticated user.
func (h *MemberHandler) RequestAvatarUpload(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}

	var req ImageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	resp, err := h.userService.RequestImageUploadURL(c.Request.Context(), userID, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrInvalidImageType) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL.")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// === Workouts ===

// ListMyPlans returns the authenticated user's daily plans, newest date first.
func (h *MemberHandler) ListMyPlans(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}

	plans, err := h.planService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plans.")
		return
	}
	c.JSON(http.StatusOK, MapPlansToResponse(plans))
}

// CreateMyPlan records a workout plan owned by the authenticated user.
func (h *MemberHandler) CreateMyPlan(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}

	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	plan, err := h.planService.Create(c.Request.Context(), userID, req.Title, req.Details, req.Date)
	if err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MapPlanToResponse(plan))
}

// GetMyPlan returns one of the caller's plans. Plans of other users are
// indistinguishable from nonexistent ones.
func (h *MemberHandler) GetMyPlan(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}
	planID, ok := parseIDParam(c)
	if !ok {
		return
	}

	plan, err := h.planService.GetOwned(c.Request.Context(), userID, planID)
	if err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// UpdateMyPlan modifies one of the caller's plans.
func (h *MemberHandler) UpdateMyPlan(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}
	planID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	plan, err := h.planService.UpdateOwned(c.Request.Context(), userID, planID, req.Title, req.Details, req.Date)
	if err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// DeleteMyPlan removes one of the caller's plans.
func (h *MemberHandler) DeleteMyPlan(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}
	planID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.planService.DeleteOwned(c.Request.Context(), userID, planID); err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Plan deleted"})
}

// === Body metrics ===

// ListMyMetrics returns the caller's metrics, optionally filtered by key.
func (h *MemberHandler) ListMyMetrics(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}

	key := domain.MetricKey(c.Query("key"))
	metrics, err := h.metricService.ListForUser(c.Request.Context(), userID, key)
	if err != nil {
		respondMetricError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapMetricsToResponse(metrics))
}

// CreateMyMetric records a body metric for the authenticated user.
func (h *MemberHandler) CreateMyMetric(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}

	var req CreateMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	metric, err := h.metricService.Record(c.Request.Context(), userID, req.Key, req.Value, req.Unit, req.Notes, req.RecordedAt)
	if err != nil {
		respondMetricError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MapMetricToResponse(metric))
}

// UpdateMyMetric modifies one of the caller's metrics. The key is immutable.
func (h *MemberHandler) UpdateMyMetric(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}
	metricID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	metric, err := h.metricService.UpdateOwned(c.Request.Context(), userID, metricID, req.Value, req.Unit, req.Notes, req.RecordedAt)
	if err != nil {
		respondMetricError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapMetricToResponse(metric))
}

// DeleteMyMetric removes one of the caller's metrics.
func (h *MemberHandler) DeleteMyMetric(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}
	metricID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.metricService.DeleteOwned(c.Request.Context(), userID, metricID); err != nil {
		respondMetricError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Metric deleted"})
}

// GetMetricSeries returns the caller's history for one metric key in
// chronological order, ready for charting.
func (h *MemberHandler) GetMetricSeries(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}

	key := domain.MetricKey(c.Query("key"))
	points, err := h.metricService.Series(c.Request.Context(), userID, key)
	if err != nil {
		respondMetricError(c, err)
		return
	}

	c.JSON(http.StatusOK, MetricSeriesResponse{Key: key, Points: points})
}

// === Payments and programs ===

// ListMyPayments returns the caller's own payment history.
func (h *MemberHandler) ListMyPayments(c *gin.Context) {
	userID, ok := actingUserID(c)
	if !ok {
		return
	}

	payments, err := h.paymentService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve payments.")
		return
	}
	c.JSON(http.StatusOK, MapPaymentsToResponse(payments))
}

// ListActivePrograms returns the programs currently open for purchase.
func (h *MemberHandler) ListActivePrograms(c *gin.Context) {
	programs, err := h.programService.List(c.Request.Context(), true)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve programs.")
		return
	}

	responses := make([]ProgramResponse, len(programs))
	for i, p := range programs {
		url, _ := h.programService.ImageDownloadURL(c.Request.Context(), &p)
		responses[i] = MapProgramToResponse(&p, url)
	}
	c.JSON(http.StatusOK, responses)
}
