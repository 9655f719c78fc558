package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/clinicdesk/clinicdesk/internal/domain/prescription"
	"github.com/clinicdesk/clinicdesk/internal/service"
	"github.com/clinicdesk/clinicdesk/pkg/metrics"
)

type PrescriptionHandler struct {
	prescriptionSvc *service.PrescriptionService
	collector       *metrics.Collector
}

func NewPrescriptionHandler(prescriptionSvc *service.PrescriptionService, collector *metrics.Collector) *PrescriptionHandler {
	return &PrescriptionHandler{prescriptionSvc: prescriptionSvc, collector: collector}
}

type savePrescriptionRequest struct {
	PatientName string         `json:"patient_name"`
	Medication  string         `json:"medication" binding:"required"`
	Dosage      string         `json:"dosage" binding:"required"`
	DoctorNotes string         `json:"doctor_notes"`
	Extra       map[string]any `json:"extra"`
}

func (h *PrescriptionHandler) Save(c *gin.Context) {
	appointmentID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req savePrescriptionRequest
	if !bindJSON(c, &req) {
		return
	}
	claims := claimsFrom(c)

	cmd := &prescription.SavePrescriptionCommand{
		AppointmentID: appointmentID,
		PatientName:   req.PatientName,
		Medication:    req.Medication,
		Dosage:        req.Dosage,
		DoctorNotes:   req.DoctorNotes,
		Extra:         req.Extra,
		CreatedBy:     claims.UserID,
	}

	p, err := h.prescriptionSvc.SavePrescription(c.Request.Context(), cmd, claims, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.PrescriptionsIssued.Inc()
	respondCreated(c, p)
}

func (h *PrescriptionHandler) ByAppointment(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	list, err := h.prescriptionSvc.GetByAppointment(c.Request.Context(), id, claimsFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, list)
}
