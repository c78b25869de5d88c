package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"saludclara-server/internal/middleware"
	"saludclara-server/internal/models"
	"saludclara-server/internal/utils"
)

// ConfirmationSender dispatches the booking confirmation email. Satisfied by
// notify.Dispatcher; stubbed in tests.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, appointment *models.Appointment) error
}

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	DB        *gorm.DB
	Notifier  ConfirmationSender
	Log       *zap.Logger
	now       func() time.Time
	emailWait time.Duration
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(db *gorm.DB, notifier ConfirmationSender, log *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		DB:        db,
		Notifier:  notifier,
		Log:       log,
		now:       time.Now,
		emailWait: 15 * time.Second,
	}
}

// CreateAppointmentRequest represents the request body for creating an appointment.
type CreateAppointmentRequest struct {
	OwnerID          string `json:"ownerId" binding:"required"`
	ConfirmationCode string `json:"confirmationCode" binding:"required"`
	PatientName      string `json:"patientName" binding:"required"`
	PatientEmail     string `json:"patientEmail" binding:"required,email"`
	PatientPhone     string `json:"patientPhone" binding:"required"`
	VisitType        string `json:"visitType" binding:"required,oneof=presencial virtual"`
	Location         string `json:"location"`
	Specialty        string `json:"specialty" binding:"required"`
	Date             string `json:"date" binding:"required,datetime=2006-01-02"`
	Time             string `json:"time" binding:"required"`
	Reason           string `json:"reason" binding:"required"`
}

// CreateAppointment persists a finalized booking. The owner in the body must
// match the caller identity; nobody books on someone else's behalf.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	identity, exists := middleware.GetIdentityFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	if identity.ID != req.OwnerID {
		utils.Forbidden(c, "Not authorized")
		return
	}

	if len(strings.TrimSpace(req.Reason)) < 10 {
		utils.BadRequest(c, "Reason must be at least 10 characters")
		return
	}

	visitType := models.VisitType(req.VisitType)
	location := strings.TrimSpace(req.Location)
	if visitType == models.VisitInPerson && location == "" {
		utils.BadRequest(c, "Location is required for in-person appointments")
		return
	}
	if visitType == models.VisitVirtual {
		// Virtual visits always carry the fixed sentinel location
		location = models.VirtualLocation
	}

	appointment := models.Appointment{
		OwnerID:          req.OwnerID,
		ConfirmationCode: req.ConfirmationCode,
		PatientName:      req.PatientName,
		PatientEmail:     req.PatientEmail,
		PatientPhone:     req.PatientPhone,
		VisitType:        visitType,
		Location:         location,
		Specialty:        req.Specialty,
		Date:             req.Date,
		Time:             req.Time,
		Reason:           req.Reason,
		Status:           models.StatusConfirmed,
	}

	if err := h.DB.Create(&appointment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.BadRequest(c, "Confirmation code already in use")
			return
		}
		utils.InternalServerError(c, "Failed to create appointment: "+err.Error())
		return
	}

	// Confirmation email is best-effort and must never affect the response.
	if h.Notifier != nil {
		go h.dispatchConfirmation(appointment)
	}

	utils.Created(c, "Appointment created successfully", appointment)
}

func (h *AppointmentHandler) dispatchConfirmation(appointment models.Appointment) {
	ctx, cancel := context.WithTimeout(context.Background(), h.emailWait)
	defer cancel()
	if err := h.Notifier.SendConfirmation(ctx, &appointment); err != nil {
		h.Log.Warn("confirmation email not delivered",
			zap.String("confirmationCode", appointment.ConfirmationCode),
			zap.Error(err))
	}
}

// GetAppointmentsForOwner lists the caller's appointments, most recent date
// first, latest time first within the same date.
func (h *AppointmentHandler) GetAppointmentsForOwner(c *gin.Context) {
	ownerID := c.Param("id")

	identity, exists := middleware.GetIdentityFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	if identity.ID != ownerID {
		utils.Forbidden(c, "Not authorized")
		return
	}

	var appointments []models.Appointment
	err := h.DB.Where("owner_id = ?", ownerID).
		Order("date desc").Order("time desc").
		Find(&appointments).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// CancelAppointment marks the appointment with the given confirmation code
// as cancelled. Cancellation is one-way and idempotent: cancelling an
// already-cancelled appointment returns the same ack.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	code := c.Param("code")

	identity, exists := middleware.GetIdentityFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var appointment models.Appointment
	if err := h.DB.Where("confirmation_code = ?", code).First(&appointment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if appointment.OwnerID != identity.ID {
		utils.Forbidden(c, "Not authorized")
		return
	}

	appointment.Status = models.StatusCancelled
	if err := h.DB.Save(&appointment).Error; err != nil {
		utils.InternalServerError(c, "Failed to cancel appointment: "+err.Error())
		return
	}

	utils.Success(c, "Appointment cancelled successfully", gin.H{
		"confirmationCode": appointment.ConfirmationCode,
		"status":           appointment.Status,
	})
}

// GetAppointmentStats returns aggregate counts for the caller's
// appointments, classified with the same date arithmetic the booking client
// uses for display.
func (h *AppointmentHandler) GetAppointmentStats(c *gin.Context) {
	ownerID := c.Param("id")

	identity, exists := middleware.GetIdentityFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	if identity.ID != ownerID {
		utils.Forbidden(c, "Not authorized")
		return
	}

	var appointments []models.Appointment
	if err := h.DB.Where("owner_id = ?", ownerID).Find(&appointments).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	stats := models.TallyStats(appointments, h.now())
	utils.Success(c, "Appointment stats fetched successfully", stats)
}
