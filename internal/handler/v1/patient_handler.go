package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/clinicdesk/clinicdesk/internal/domain/appointment"
	"github.com/clinicdesk/clinicdesk/internal/domain/patient"
	"github.com/clinicdesk/clinicdesk/internal/service"
	"github.com/clinicdesk/clinicdesk/pkg/metrics"
)

type PatientHandler struct {
	patientSvc *service.PatientService
	collector  *metrics.Collector
}

func NewPatientHandler(patientSvc *service.PatientService, collector *metrics.Collector) *PatientHandler {
	return &PatientHandler{patientSvc: patientSvc, collector: collector}
}

type registerPatientRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Phone     string `json:"phone"`
	Email     string `json:"email" binding:"required,email"`
	Address   string `json:"address"`
	Password  string `json:"password" binding:"required"`
}

// Register is the one unauthenticated write: patient self-signup.
func (h *PatientHandler) Register(c *gin.Context) {
	var req registerPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &patient.RegisterPatientCommand{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   req.Address,
		Password:  req.Password,
	}

	p, err := h.patientSvc.Register(c.Request.Context(), cmd)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.PatientsCreatedTotal.Inc()
	respondCreated(c, p)
}

func (h *PatientHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.patientSvc.GetPatient(c.Request.Context(), id, claimsFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

// Appointments lists a patient's appointments. ?condition accepts "past"
// (completed) or "future" (scheduled); ?doctor_name narrows by substring.
func (h *PatientHandler) Appointments(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	condition := appointment.Condition(c.Query("condition"))
	views, err := h.patientSvc.FilterPatientAppointments(
		c.Request.Context(), id, condition, c.Query("doctor_name"), claimsFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, views)
}
