package handlers

import (
	"net/http"

	domain "enrollment-platform/internal/domain/enrollment"
	serviceInterfaces "enrollment-platform/internal/interfaces/service"
	"enrollment-platform/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// EnrollmentHandler handles selection-related HTTP requests
type EnrollmentHandler struct {
	enrollmentService serviceInterfaces.EnrollmentService
	catalogService    serviceInterfaces.CatalogService
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(enrollmentService serviceInterfaces.EnrollmentService, catalogService serviceInterfaces.CatalogService) *EnrollmentHandler {
	return &EnrollmentHandler{
		enrollmentService: enrollmentService,
		catalogService:    catalogService,
	}
}

// SubmitSelection handles POST /api/v1/selections
func (h *EnrollmentHandler) SubmitSelection(c *gin.Context) {
	var req serviceInterfaces.SubmitSelectionRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid request format",
			Errors:  err.Error(),
		})
		return
	}

	if err := validator.ValidateStruct(&req); err != nil {
		validationErrors := validator.FormatValidationError(err)
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Validation failed",
			Errors:  validationErrors,
		})
		return
	}

	req.Privileged = c.GetBool("privileged")
	if key, exists := c.Get("idempotency_key"); exists {
		req.IdempotencyKey, _ = key.(string)
	}

	response, err := h.enrollmentService.SubmitSelection(c.Request.Context(), &req)
	if err != nil {
		h.writeDomainError(c, err, "Selection rejected")
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Selection committed successfully",
		Data:    response,
	})
}

// GetEligibleOfferings handles GET /api/v1/students/:student_id/offerings
func (h *EnrollmentHandler) GetEligibleOfferings(c *gin.Context) {
	studentID, ok := h.parseStudentID(c)
	if !ok {
		return
	}

	universe, err := h.catalogService.EligibleUniverse(c.Request.Context(), studentID)
	if err != nil {
		h.writeDomainError(c, err, "Failed to retrieve eligible offerings")
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Eligible offerings retrieved successfully",
		Data:    universe,
	})
}

// GetCurrentSelection handles GET /api/v1/students/:student_id/selection
func (h *EnrollmentHandler) GetCurrentSelection(c *gin.Context) {
	studentID, ok := h.parseStudentID(c)
	if !ok {
		return
	}

	selection, err := h.enrollmentService.CurrentSelection(c.Request.Context(), studentID)
	if err != nil {
		h.writeDomainError(c, err, "Failed to retrieve current selection")
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Current selection retrieved successfully",
		Data:    selection,
	})
}

func (h *EnrollmentHandler) parseStudentID(c *gin.Context) (uuid.UUID, bool) {
	studentID, err := uuid.Parse(c.Param("student_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid student ID format",
		})
		return uuid.Nil, false
	}
	return studentID, true
}

// writeDomainError maps a domain rejection onto its HTTP status. Conflicts
// carry the reason and the offending offering ids so the client can mark
// exactly which candidates to change.
func (h *EnrollmentHandler) writeDomainError(c *gin.Context, err error, fallbackMessage string) {
	domainErr, ok := domain.AsError(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, APIResponse{
			Success: false,
			Message: fallbackMessage,
			Errors:  err.Error(),
		})
		return
	}

	switch domainErr.Kind {
	case domain.KindNotFound:
		c.JSON(http.StatusNotFound, APIResponse{
			Success: false,
			Message: domainErr.Message,
			Errors:  gin.H{"reason": domainErr.Reason, "offering_ids": domainErr.OfferingIDs},
		})
	case domain.KindConflict:
		c.JSON(http.StatusConflict, APIResponse{
			Success: false,
			Message: domainErr.Message,
			Errors:  gin.H{"reason": domainErr.Reason, "offering_ids": domainErr.OfferingIDs},
		})
	default:
		c.JSON(http.StatusInternalServerError, APIResponse{
			Success: false,
			Message: fallbackMessage,
			Errors:  domainErr.Message,
		})
	}
}
