package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain"
	"github.com/clinicdesk/clinicdesk/internal/domain/appointment"
	"github.com/clinicdesk/clinicdesk/internal/service"
	"github.com/clinicdesk/clinicdesk/pkg/metrics"
)

type AppointmentHandler struct {
	bookingSvc      *service.BookingService
	availabilitySvc *service.AvailabilityService
	collector       *metrics.Collector
}

func NewAppointmentHandler(bookingSvc *service.BookingService, availabilitySvc *service.AvailabilityService, collector *metrics.Collector) *AppointmentHandler {
	return &AppointmentHandler{
		bookingSvc:      bookingSvc,
		availabilitySvc: availabilitySvc,
		collector:       collector,
	}
}

type bookAppointmentRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id" binding:"required"`
	PatientID uuid.UUID `json:"patient_id" binding:"required"`
	StartsAt  time.Time `json:"starts_at" binding:"required"`
}

type updateAppointmentRequest struct {
	DoctorID  *uuid.UUID `json:"doctor_id"`
	PatientID *uuid.UUID `json:"patient_id"`
	StartsAt  *time.Time `json:"starts_at"`
}

func (h *AppointmentHandler) Book(c *gin.Context) {
	var req bookAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}
	claims := claimsFrom(c)

	cmd := &appointment.BookAppointmentCommand{
		DoctorID:  req.DoctorID,
		PatientID: req.PatientID,
		StartsAt:  req.StartsAt,
		CreatedBy: claims.UserID,
	}

	a, err := h.bookingSvc.Book(c.Request.Context(), cmd, claims, c.ClientIP())
	if err != nil {
		if errors.Is(err, appointment.ErrAppointmentConflict) {
			h.collector.BookingConflictsTotal.Inc()
		}
		respondServiceError(c, err)
		return
	}

	h.collector.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()
	respondCreated(c, a)
}

func (h *AppointmentHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}
	claims := claimsFrom(c)

	cmd := &appointment.UpdateAppointmentCommand{
		AppointmentID: id,
		DoctorID:      req.DoctorID,
		PatientID:     req.PatientID,
		StartsAt:      req.StartsAt,
		UpdatedBy:     claims.UserID,
	}

	a, err := h.bookingSvc.Update(c.Request.Context(), cmd, claims, c.ClientIP())
	if err != nil {
		if errors.Is(err, appointment.ErrAppointmentConflict) {
			h.collector.BookingConflictsTotal.Inc()
		}
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.bookingSvc.Cancel(c.Request.Context(), id, claimsFrom(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()
	respondOK(c, a)
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	h.transition(c, h.bookingSvc.Complete)
}

func (h *AppointmentHandler) MarkNoShow(c *gin.Context) {
	h.transition(c, h.bookingSvc.MarkNoShow)
}

func (h *AppointmentHandler) transition(c *gin.Context, apply func(ctx context.Context, id uuid.UUID, caller *domain.Claims, ip string) (*appointment.Appointment, error)) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := apply(c.Request.Context(), id, claimsFrom(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.AppointmentsTotal.WithLabelValues(string(a.Status)).Inc()
	respondOK(c, a)
}

// Availability returns a doctor's free one-hour slots on a date as
// "HH:mm - HH:mm" strings. An unknown doctor yields an empty list.
func (h *AppointmentHandler) Availability(c *gin.Context) {
	doctorID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	date, ok := parseDate(c, "date")
	if !ok {
		return
	}

	slots, err := h.availabilitySvc.Resolve(c.Request.Context(), doctorID, date)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.collector.AvailabilityQueriesTotal.Inc()

	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.String())
	}
	respondOK(c, out)
}

// Validate runs the pure pre-booking check without writing anything.
func (h *AppointmentHandler) Validate(c *gin.Context) {
	var req bookAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &appointment.BookAppointmentCommand{
		DoctorID:  req.DoctorID,
		PatientID: req.PatientID,
		StartsAt:  req.StartsAt,
	}

	result, err := h.bookingSvc.Validate(c.Request.Context(), cmd)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse[any]{Data: gin.H{
		"result": result.String(),
		"valid":  result == service.ValidationValid,
	}})
}
