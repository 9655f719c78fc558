package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clinicdesk/clinicdesk/internal/domain"
	"github.com/clinicdesk/clinicdesk/pkg/auth"
	"github.com/clinicdesk/clinicdesk/pkg/metrics"
)

type Handlers struct {
	Auth         *AuthHandler
	Appointment  *AppointmentHandler
	Doctor       *DoctorHandler
	Patient      *PatientHandler
	Prescription *PrescriptionHandler
}

// NewRouter wires middleware and the versioned API surface.
func NewRouter(h Handlers, jwtManager *auth.JWTManager, collector *metrics.Collector, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(log), Metrics(collector))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api/v1")

	// Public surface: login, token refresh, and patient self-signup.
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.POST("/patients", h.Patient.Register)

	authed := api.Group("", Authenticate(jwtManager))
	{
		doctors := authed.Group("/doctors")
		doctors.GET("", h.Doctor.Filter)
		doctors.GET("/:id", h.Doctor.Get)
		doctors.GET("/:id/availability", h.Appointment.Availability)
		doctors.GET("/:id/schedule", h.Doctor.DaySchedule)
		doctors.POST("", RequireRoles(domain.RoleAdmin), h.Doctor.Create)
		doctors.PATCH("/:id", RequireRoles(domain.RoleAdmin, domain.RoleDoctor), h.Doctor.Update)
		doctors.DELETE("/:id", RequireRoles(domain.RoleAdmin), h.Doctor.Delete)

		patients := authed.Group("/patients")
		patients.GET("/:id", h.Patient.Get)
		patients.GET("/:id/appointments", h.Patient.Appointments)

		appts := authed.Group("/appointments")
		appts.POST("", h.Appointment.Book)
		appts.POST("/validate", h.Appointment.Validate)
		appts.PATCH("/:id", h.Appointment.Update)
		appts.POST("/:id/cancel", h.Appointment.Cancel)
		appts.POST("/:id/complete", RequireRoles(domain.RoleAdmin, domain.RoleDoctor), h.Appointment.Complete)
		appts.POST("/:id/no-show", RequireRoles(domain.RoleAdmin, domain.RoleDoctor), h.Appointment.MarkNoShow)
		appts.POST("/:id/prescriptions", RequireRoles(domain.RoleAdmin, domain.RoleDoctor), h.Prescription.Save)
		appts.GET("/:id/prescriptions", h.Prescription.ByAppointment)
	}

	return r
}
