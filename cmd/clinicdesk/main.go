package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clinicdesk/clinicdesk/internal/config"
	v1 "github.com/clinicdesk/clinicdesk/internal/handler/v1"
	"github.com/clinicdesk/clinicdesk/internal/repository"
	"github.com/clinicdesk/clinicdesk/internal/service"
	"github.com/clinicdesk/clinicdesk/pkg/auth"
	"github.com/clinicdesk/clinicdesk/pkg/database"
	"github.com/clinicdesk/clinicdesk/pkg/logger"
	"github.com/clinicdesk/clinicdesk/pkg/metrics"
	"github.com/clinicdesk/clinicdesk/pkg/tracer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := database.Migrate(db, log); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	mongoDB, disconnectMongo, err := database.ConnectMongo(context.Background(), cfg.Mongo)
	if err != nil {
		return fmt.Errorf("connecting to mongo: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = disconnectMongo(ctx)
	}()

	collector := metrics.NewCollector("clinicdesk")
	statsDone := make(chan struct{})
	defer close(statsDone)
	if sqlDB, err := db.DB(); err == nil {
		go samplePoolStats(sqlDB, collector, statsDone)
	}

	// Repositories
	txManager := repository.NewTxManager(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	doctorRepo := repository.NewDoctorRepository(db, log)
	patientRepo := repository.NewPatientRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	prescriptionRepo := repository.NewPrescriptionRepository(mongoDB)

	// Services
	auditSvc := service.NewAuditService(auditRepo, collector, log)
	defer auditSvc.Shutdown()

	jwtManager := auth.NewJWTManager(cfg.JWT)
	authSvc := service.NewAuthService(userRepo, jwtManager, auditSvc, log)
	availabilitySvc := service.NewAvailabilityService(doctorRepo, appointmentRepo, log)
	bookingSvc := service.NewBookingService(appointmentRepo, doctorRepo, patientRepo, availabilitySvc, txManager, auditSvc, log)
	doctorSvc := service.NewDoctorService(doctorRepo, appointmentRepo, patientRepo, userRepo, txManager, auditSvc, log)
	patientSvc := service.NewPatientService(patientRepo, appointmentRepo, doctorRepo, userRepo, txManager, auditSvc, log)
	prescriptionSvc := service.NewPrescriptionService(prescriptionRepo, appointmentRepo, auditSvc, log)

	router := v1.NewRouter(v1.Handlers{
		Auth:         v1.NewAuthHandler(authSvc),
		Appointment:  v1.NewAppointmentHandler(bookingSvc, availabilitySvc, collector),
		Doctor:       v1.NewDoctorHandler(doctorSvc),
		Patient:      v1.NewPatientHandler(patientSvc, collector),
		Prescription: v1.NewPrescriptionHandler(prescriptionSvc, collector),
	}, jwtManager, collector, log)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.App.Environment),
			zap.String("version", cfg.App.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// samplePoolStats keeps the connection gauge tracking the live pool until
// done closes.
func samplePoolStats(sqlDB *sql.DB, collector *metrics.Collector, done <-chan struct{}) {
	collector.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			collector.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))
		case <-done:
			return
		}
	}
}
