package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clinicdesk/clinicdesk/internal/domain/doctor"
	"github.com/clinicdesk/clinicdesk/internal/domain/timeslot"
	"github.com/clinicdesk/clinicdesk/internal/service"
)

type DoctorHandler struct {
	doctorSvc *service.DoctorService
}

func NewDoctorHandler(doctorSvc *service.DoctorService) *DoctorHandler {
	return &DoctorHandler{doctorSvc: doctorSvc}
}

type createDoctorRequest struct {
	FirstName      string   `json:"first_name" binding:"required"`
	LastName       string   `json:"last_name" binding:"required"`
	Specialty      string   `json:"specialty" binding:"required"`
	Phone          string   `json:"phone"`
	Email          string   `json:"email" binding:"required,email"`
	Password       string   `json:"password" binding:"required"`
	AvailableTimes []string `json:"available_times"`
}

type updateDoctorRequest struct {
	FirstName      *string   `json:"first_name"`
	LastName       *string   `json:"last_name"`
	Specialty      *string   `json:"specialty"`
	Phone          *string   `json:"phone"`
	Email          *string   `json:"email"`
	AvailableTimes *[]string `json:"available_times"`
}

func (h *DoctorHandler) Create(c *gin.Context) {
	var req createDoctorRequest
	if !bindJSON(c, &req) {
		return
	}
	claims := claimsFrom(c)

	cmd := &doctor.CreateDoctorCommand{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Specialty:      req.Specialty,
		Phone:          req.Phone,
		Email:          req.Email,
		Password:       req.Password,
		AvailableTimes: req.AvailableTimes,
		CreatedBy:      claims.UserID,
	}

	d, err := h.doctorSvc.CreateDoctor(c.Request.Context(), cmd, claims, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, d.ToView())
}

func (h *DoctorHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateDoctorRequest
	if !bindJSON(c, &req) {
		return
	}
	claims := claimsFrom(c)

	cmd := &doctor.UpdateDoctorCommand{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Specialty:      req.Specialty,
		Phone:          req.Phone,
		Email:          req.Email,
		AvailableTimes: req.AvailableTimes,
		UpdatedBy:      claims.UserID,
	}

	d, err := h.doctorSvc.UpdateDoctor(c.Request.Context(), id, cmd, claims, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, d.ToView())
}

func (h *DoctorHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.doctorSvc.DeleteDoctor(c.Request.Context(), id, claimsFrom(c), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DoctorHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	d, err := h.doctorSvc.GetDoctor(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, d.ToView())
}

// Filter composes name, specialty, and time-of-day filters as AND. Omitted
// parameters match everything; ?time_of_day accepts "AM" or "PM".
func (h *DoctorHandler) Filter(c *gin.Context) {
	q := &doctor.FilterDoctorsQuery{
		Name:      c.Query("name"),
		Specialty: c.Query("specialty"),
	}

	if raw := strings.TrimSpace(c.Query("time_of_day")); raw != "" {
		b, err := timeslot.ParseBucket(raw)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		q.TimeOfDay = &b
	}

	views, err := h.doctorSvc.FilterDoctors(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, views)
}

// DaySchedule lists a doctor's appointments on ?date, optionally narrowed
// by ?patient_name.
func (h *DoctorHandler) DaySchedule(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	date, ok := parseDate(c, "date")
	if !ok {
		return
	}

	views, err := h.doctorSvc.DaySchedule(c.Request.Context(), id, date, c.Query("patient_name"), claimsFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, views)
}
