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

// AdminHandler bundles the services behind the administrative endpoints.
// Every route here may operate on any user's records via explicit ids;
// the role middleware has already established the caller is an admin.
type AdminHandler struct {
	userService     service.UserService
	planService     service.PlanService
	paymentService  service.PaymentService
	programService  service.ProgramService
	metricService   service.MetricService
	activityService service.ActivityService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	userService service.UserService,
	planService service.PlanService,
	paymentService service.PaymentService,
	programService service.ProgramService,
	metricService service.MetricService,
	activityService service.ActivityService,
) *AdminHandler {
	return &AdminHandler{
		userService:     userService,
		planService:     planService,
		paymentService:  paymentService,
		programService:  programService,
		metricService:   metricService,
		activityService: activityService,
	}
}

// --- DTOs ---

type CreateUserRequest struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8"`
	Role     domain.Role `json:"role" binding:"required,oneof=ADMIN MEMBER"`
	Address  string      `json:"address"`
	Phone    string      `json:"phone"`
}

type UpdateUserRequest struct {
	Name    string      `json:"name" binding:"required"`
	Address string      `json:"address"`
	Phone   string      `json:"phone"`
	Role    domain.Role `json:"role" binding:"required,oneof=ADMIN MEMBER"`
}

type CreatePaymentRequest struct {
	UserID         string               `json:"userId" binding:"required"`
	ProgramID      string               `json:"programId"`
	Amount         *float64             `json:"amount"` // defaults to the program price when omitted
	Method         domain.PaymentMethod `json:"method" binding:"required,oneof=CASH CARD PAYPAL"`
	TransactionRef string               `json:"transactionRef" binding:"required"`
	PaidAt         time.Time            `json:"paidAt"`
}

type UpdatePaymentRequest struct {
	Amount float64              `json:"amount" binding:"required"`
	Method domain.PaymentMethod `json:"method" binding:"required,oneof=CASH CARD PAYPAL"`
	PaidAt time.Time            `json:"paidAt"`
}

type PaymentResponse struct {
	ID             string               `json:"id"`
	UserID         string               `json:"userId"`
	ProgramID      string               `json:"programId,omitempty"`
	Amount         float64              `json:"amount"`
	Method         domain.PaymentMethod `json:"method"`
	TransactionRef string               `json:"transactionRef"`
	PaidAt         time.Time            `json:"paidAt"`
	CreatedAt      time.Time            `json:"createdAt"`
}

type CreateProgramRequest struct {
	Name         string  `json:"name" binding:"required"`
	Description  string  `json:"description"`
	DurationDays int     `json:"durationDays" binding:"required,gt=0"`
	Price        float64 `json:"price" binding:"gte=0"`
	IsActive     bool    `json:"isActive"`
}

type ProgramResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	DurationDays int       `json:"durationDays"`
	Price        float64   `json:"price"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type CreateMetricAdminRequest struct {
	UserID     string           `json:"userId" binding:"required"`
	Key        domain.MetricKey `json:"key" binding:"required"`
	Value      float64          `json:"value"`
	Unit       string           `json:"unit"`
	Notes      string           `json:"notes"`
	RecordedAt time.Time        `json:"recordedAt"`
}

type ImageUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ActivityLogResponse struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"userId"`
	Action    string                 `json:"action"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// --- Mapping helpers ---

func MapPaymentToResponse(p *domain.Payment) PaymentResponse {
	if p == nil {
		return PaymentResponse{}
	}
	resp := PaymentResponse{
		ID:             p.ID.Hex(),
		UserID:         p.UserID.Hex(),
		Amount:         p.Amount,
		Method:         p.Method,
		TransactionRef: p.TransactionRef,
		PaidAt:         p.PaidAt,
		CreatedAt:      p.CreatedAt,
	}
	if p.ProgramID != primitive.NilObjectID {
		resp.ProgramID = p.ProgramID.Hex()
	}
	return resp
}

func MapPaymentsToResponse(payments []domain.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		responses[i] = MapPaymentToResponse(&p)
	}
	return responses
}

func MapProgramToResponse(p *domain.Program, imageURL string) ProgramResponse {
	if p == nil {
		return ProgramResponse{}
	}
	return ProgramResponse{
		ID:           p.ID.Hex(),
		Name:         p.Name,
		Description:  p.Description,
		DurationDays: p.DurationDays,
		Price:        p.Price,
		ImageURL:     imageURL,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func MapActivityLogsToResponse(entries []domain.ActivityLog) []ActivityLogResponse {
	responses := make([]ActivityLogResponse, len(entries))
	for i, e := range entries {
		responses[i] = ActivityLogResponse{
			ID:        e.ID.Hex(),
			UserID:    e.UserID.Hex(),
			Action:    e.Action,
			Data:      e.Data,
			CreatedAt: e.CreatedAt,
		}
	}
	return responses
}

// parseIDParam converts the :id path parameter to an ObjectID.
func parseIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid id format.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// === User management ===

// ListUsers returns all users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve users.")
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(users))
}

// GetUser returns a single user including a temporary avatar URL.
func (h *AdminHandler) GetUser(c *gin.Context) {
	userID, ok := parseIDParam(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve user.")
		}
		return
	}

	resp := MapUserToResponse(user)
	if url, err := h.userService.ImageDownloadURL(c.Request.Context(), user); err == nil {
		resp.ImageURL = url
	}
	c.JSON(http.StatusOK, resp)
}

// CreateUser creates a user with an explicit role.
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req.Name, req.Email, req.Password, req.Role, req.Address, req.Phone)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			abortWithError(c, http.StatusConflict, err.Error())
		} else if errors.Is(err, service.ErrValidationFailed) || errors.Is(err, service.ErrInvalidRole) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create user.")
		}
		return
	}

	c.JSON(http.StatusCreated, MapUserToResponse(user))
}

// UpdateUser modifies a user's profile fields and role.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	userID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), userID, req.Name, req.Address, req.Phone, req.Role)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrValidationFailed) || errors.Is(err, service.ErrInvalidRole) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update user.")
		}
		return
	}

	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// DeleteUser removes a user and cascades over their dependent records.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), userID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete user.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// RequestUserImageUpload presigns an avatar upload for any user.
func (h *AdminHandler) RequestUserImageUpload(c *gin.Context) {
	userID, ok := parseIDParam(c)
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
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrInvalidImageType) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL.")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// === Daily plan management ===

// ListPlans returns all daily plans of the user named by the userId query.
func (h *AdminHandler) ListPlans(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Query("userId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "A valid userId query parameter is required.")
		return
	}

	plans, err := h.planService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plans.")
		return
	}
	c.JSON(http.StatusOK, MapPlansToResponse(plans))
}

// CreatePlan creates a daily plan for the user named in the body.
func (h *AdminHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid userId format.")
		return
	}

	plan, err := h.planService.Create(c.Request.Context(), userID, req.Title, req.Details, req.Date)
	if err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MapPlanToResponse(plan))
}

// UpdatePlan modifies a plan, verifying it belongs to the claimed owner.
func (h *AdminHandler) UpdatePlan(c *gin.Context) {
	planID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdatePlanAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	ownerID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid userId format.")
		return
	}

	plan, err := h.planService.UpdateOwned(c.Request.Context(), ownerID, planID, req.Title, req.Details, req.Date)
	if err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// DeletePlan removes a plan by id.
func (h *AdminHandler) DeletePlan(c *gin.Context) {
	planID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.planService.Delete(c.Request.Context(), planID); err != nil {
		respondPlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Plan deleted"})
}

// === Payment management ===

// ListPayments returns payments, optionally filtered by the userId query.
func (h *AdminHandler) ListPayments(c *gin.Context) {
	ctx := c.Request.Context()

	if userIDStr := c.Query("userId"); userIDStr != "" {
		userID, err := primitive.ObjectIDFromHex(userIDStr)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid userId format.")
			return
		}
		payments, err := h.paymentService.ListForUser(ctx, userID)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve payments.")
			return
		}
		c.JSON(http.StatusOK, MapPaymentsToResponse(payments))
		return
	}

	payments, err := h.paymentService.ListAll(ctx)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve payments.")
		return
	}
	c.JSON(http.StatusOK, MapPaymentsToResponse(payments))
}

// CreatePayment records a payment. When amount is omitted and a program is
// given, the program's price is used; an explicit amount always wins.
func (h *AdminHandler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid userId format.")
		return
	}

	programID := primitive.NilObjectID
	if req.ProgramID != "" {
		programID, err = primitive.ObjectIDFromHex(req.ProgramID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid programId format.")
			return
		}
	}

	payment, err := h.paymentService.Record(c.Request.Context(), userID, programID, req.Amount, req.Method, req.TransactionRef, req.PaidAt)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateTransaction):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrProgramNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrValidationFailed),
			errors.Is(err, service.ErrInvalidPaymentMethod),
			errors.Is(err, service.ErrPaymentAmountRequired):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to record payment.")
		}
		return
	}

	c.JSON(http.StatusCreated, MapPaymentToResponse(payment))
}

// UpdatePayment corrects a recorded payment.
func (h *AdminHandler) UpdatePayment(c *gin.Context) {
	paymentID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	payment, err := h.paymentService.Update(c.Request.Context(), paymentID, req.Amount, req.Method, req.PaidAt)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrValidationFailed) || errors.Is(err, service.ErrInvalidPaymentMethod) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update payment.")
		}
		return
	}

	c.JSON(http.StatusOK, MapPaymentToResponse(payment))
}

// DeletePayment removes a payment record.
func (h *AdminHandler) DeletePayment(c *gin.Context) {
	paymentID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.paymentService.Delete(c.Request.Context(), paymentID); err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete payment.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment deleted"})
}

// === Program management ===

// ListPrograms returns all programs, active or not.
func (h *AdminHandler) ListPrograms(c *gin.Context) {
	programs, err := h.programService.List(c.Request.Context(), false)
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

// CreateProgram creates a purchasable program.
func (h *AdminHandler) CreateProgram(c *gin.Context) {
	var req CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	program, err := h.programService.Create(c.Request.Context(), req.Name, req.Description, req.DurationDays, req.Price, req.IsActive)
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create program.")
		}
		return
	}

	c.JSON(http.StatusCreated, MapProgramToResponse(program, ""))
}

// UpdateProgram modifies a program.
func (h *AdminHandler) UpdateProgram(c *gin.Context) {
	programID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	program, err := h.programService.Update(c.Request.Context(), programID, req.Name, req.Description, req.DurationDays, req.Price, req.IsActive)
	if err != nil {
		if errors.Is(err, service.ErrProgramNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update program.")
		}
		return
	}

	url, _ := h.programService.ImageDownloadURL(c.Request.Context(), program)
	c.JSON(http.StatusOK, MapProgramToResponse(program, url))
}

// DeleteProgram removes a program.
func (h *AdminHandler) DeleteProgram(c *gin.Context) {
	programID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.programService.Delete(c.Request.Context(), programID); err != nil {
		if errors.Is(err, service.ErrProgramNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete program.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Program deleted"})
}

// RequestProgramImageUpload presigns an image upload for a program.
func (h *AdminHandler) RequestProgramImageUpload(c *gin.Context) {
	programID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req ImageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	resp, err := h.programService.RequestImageUploadURL(c.Request.Context(), programID, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrProgramNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrInvalidImageType) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL.")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// === Metric management ===

// ListMetrics returns metrics of the user named by the userId query,
// optionally filtered by key.
func (h *AdminHandler) ListMetrics(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Query("userId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "A valid userId query parameter is required.")
		return
	}

	key := domain.MetricKey(c.Query("key"))
	metrics, err := h.metricService.ListForUser(c.Request.Context(), userID, key)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMetricKey) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve metrics.")
		}
		return
	}
	c.JSON(http.StatusOK, MapMetricsToResponse(metrics))
}

// CreateMetric records a metric for the user named in the body.
func (h *AdminHandler) CreateMetric(c *gin.Context) {
	var req CreateMetricAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid userId format.")
		return
	}

	metric, err := h.metricService.Record(c.Request.Context(), userID, req.Key, req.Value, req.Unit, req.Notes, req.RecordedAt)
	if err != nil {
		respondMetricError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MapMetricToResponse(metric))
}

// DeleteMetric removes a metric by id.
func (h *AdminHandler) DeleteMetric(c *gin.Context) {
	metricID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.metricService.Delete(c.Request.Context(), metricID); err != nil {
		respondMetricError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Metric deleted"})
}

// === Activity trail ===

// ListActivity returns the audit trail of the user named by the userId query.
func (h *AdminHandler) ListActivity(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Query("userId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "A valid userId query parameter is required.")
		return
	}

	entries, err := h.activityService.GetForUser(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve activity.")
		return
	}
	c.JSON(http.StatusOK, MapActivityLogsToResponse(entries))
}
