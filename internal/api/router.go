package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nexusclinic/clinic-scheduling/internal/scheduling"
)

type RouterConfig struct {
	Service *scheduling.Service
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Logger  zerolog.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Everything below is tenant-scoped.
	r.Group(func(r chi.Router) {
		r.Use(TenantMiddleware)

		r.Post("/appointments", createAppointmentHandler(cfg.Service))
		r.Get("/appointments", listAppointmentsHandler(cfg.Service))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
		r.Post("/appointments/{id}/confirm-payment", confirmPaymentHandler(cfg.Service))
		r.Post("/appointments/{id}/anamnesis", sendAnamnesisHandler(cfg.Service))
		r.Post("/appointments/{id}/confirm", confirmByPatientHandler(cfg.Service))
		r.Post("/appointments/{id}/check-in", checkInHandler(cfg.Service))
		r.Post("/appointments/{id}/start", startAttendanceHandler(cfg.Service))
		r.Post("/appointments/{id}/finalize", finalizeAttendanceHandler(cfg.Service))
		r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Service))
		r.Post("/appointments/{id}/no-show", markNoShowHandler(cfg.Service))

		r.Get("/availability/check", checkAvailabilityHandler(cfg.Service))
		r.Get("/availability/occupied-slots", occupiedSlotsHandler(cfg.Service))
		r.Get("/availability/slots", availableSlotsHandler(cfg.Service))
	})

	return r
}
