package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/config"
	"github.com/hms/hms/internal/domain/appointment"
	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/clerking"
	"github.com/hms/hms/internal/domain/facility"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/domain/pharmacy"
	"github.com/hms/hms/internal/domain/prescription"
	"github.com/hms/hms/internal/domain/staff"
	"github.com/hms/hms/internal/domain/user"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/jobs"
	"github.com/hms/hms/internal/platform/metrics"
	"github.com/hms/hms/internal/platform/middleware"
	"github.com/hms/hms/internal/platform/permission"
	"github.com/hms/hms/internal/platform/seed"
	"github.com/hms/hms/internal/platform/validate"
)

const (
	tokenIssuer     = "hms"
	requestTimeout  = 30 * time.Second
	limiterIdle     = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// app holds everything the HTTP server and the background jobs share.
type app struct {
	cfg         *config.Config
	logger      zerolog.Logger
	pool        *pgxpool.Pool
	guard       *db.Guard
	matrix      *permission.Matrix
	revocations auth.RevocationStore
	limiter     *middleware.RateLimiter

	users        *user.Service
	appointments *appointment.Service

	handlers []routeRegistrar
}

type routeRegistrar interface {
	RegisterRoutes(api *echo.Group)
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg != nil && cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// newApp builds repositories, services and handlers. pool may be nil, in
// which case only seed-backed reads can succeed.
func newApp(cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool, revocations auth.RevocationStore) (*app, error) {
	matrix, err := permission.Load(cfg.PermissionsFile)
	if err != nil {
		return nil, err
	}

	var pinger db.Pinger
	if pool != nil {
		pinger = pool
	}
	guard := db.NewGuard(pinger, cfg.SeedFallback, logger)

	var tx db.TxRunner = db.NoTx{}
	if pool != nil {
		tx = db.PoolTxRunner{Pool: pool}
	}

	seedFS := seed.FS()

	patientSeed, err := patient.NewSeedRepo(seedFS)
	if err != nil {
		return nil, err
	}
	staffSeed, err := staff.NewSeedRepo(seedFS)
	if err != nil {
		return nil, err
	}
	facilitySeed, err := facility.NewSeedRepo(seedFS)
	if err != nil {
		return nil, err
	}
	drugSeed, err := pharmacy.NewSeedRepo(seedFS)
	if err != nil {
		return nil, err
	}
	appointmentSeed, err := appointment.NewSeedRepo(seedFS)
	if err != nil {
		return nil, err
	}

	patientSvc := patient.NewService(patient.NewFallbackRepo(patient.NewPatientRepo(pool), patientSeed, guard))
	staffSvc := staff.NewService(staff.NewFallbackRepo(staff.NewStaffRepo(pool), staffSeed, guard))
	facilitySvc := facility.NewService(facility.NewFallbackRepo(facility.NewFacilityRepo(pool), facilitySeed, guard))
	clerkingSvc := clerking.NewService(clerking.NewClerkingRepo(pool))

	billingSvc := billing.NewService(billing.NewInvoiceRepo(pool), tx)
	payments := appointment.PaymentRecorderFunc(func(ctx context.Context, a *appointment.Appointment) error {
		ch := billing.AppointmentCharge{PatientID: a.PatientID, AppointmentID: a.ID, Reference: a.PaymentReference}
		if a.PaymentAmount != nil {
			ch.Amount = *a.PaymentAmount
		}
		if a.PaymentMethod != nil {
			ch.Method = *a.PaymentMethod
		}
		if a.Department != nil {
			ch.Description = "Consultation fee (" + *a.Department + ")"
		}
		_, err := billingSvc.SettleAppointment(ctx, ch)
		return err
	})
	appointmentSvc := appointment.NewService(
		appointment.NewFallbackRepo(appointment.NewAppointmentRepo(pool), appointmentSeed, guard),
		payments, tx, logger,
	)

	prescriptionRepo := prescription.NewPrescriptionRepo(pool)
	prescriptionSvc := prescription.NewService(prescriptionRepo, tx)
	pharmacySvc := pharmacy.NewService(
		pharmacy.NewFallbackRepo(pharmacy.NewDrugRepo(pool), drugSeed, guard),
		pharmacy.NewDispensationRepo(pool),
		prescriptionRepo, tx, logger,
	)

	tokens := auth.NewTokenIssuer(cfg.SigningKey(), tokenIssuer, cfg.JWTTTL)
	userSvc := user.NewService(user.NewUserRepo(pool), tokens, revocations, matrix, tx, logger)

	return &app{
		cfg:          cfg,
		logger:       logger,
		pool:         pool,
		guard:        guard,
		matrix:       matrix,
		revocations:  revocations,
		limiter:      middleware.NewRateLimiter(middleware.RateLimitConfig{RequestsPerSecond: cfg.RateLimitRPS, BurstSize: cfg.RateLimitBurst}),
		users:        userSvc,
		appointments: appointmentSvc,
		handlers: []routeRegistrar{
			user.NewHandler(userSvc, matrix),
			patient.NewHandler(patientSvc, matrix),
			clerking.NewHandler(clerkingSvc, matrix),
			appointment.NewHandler(appointmentSvc, matrix),
			prescription.NewHandler(prescriptionSvc, matrix),
			pharmacy.NewHandler(pharmacySvc, matrix),
			billing.NewHandler(billingSvc, matrix),
			staff.NewHandler(staffSvc, matrix),
			facility.NewHandler(facilitySvc, matrix),
			permission.NewHandler(matrix),
		},
	}, nil
}

// router assembles the echo instance with the global middleware chain and
// every route.
func (a *app) router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()
	e.HTTPErrorHandler = middleware.ErrorHandler(a.logger)

	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))
	e.Use(middleware.Metrics())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  a.cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", middleware.DataSourceHeader},
	}))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.BodyLimit("2M"))
	e.Use(middleware.RequestTimeout(requestTimeout))
	e.Use(middleware.DataSource())

	jwtCfg := auth.JWTConfig{
		SigningKey:  a.cfg.SigningKey(),
		Issuer:      tokenIssuer,
		Revocations: a.revocations,
		Skipper:     auth.AuthSkipper,
	}
	if a.cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware(jwtCfg))
	} else {
		e.Use(auth.JWTMiddleware(jwtCfg))
	}
	e.Use(middleware.Audit(a.logger))
	e.Use(a.limiter.Middleware())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(a.pool, a.guard))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	api := e.Group("/api/v1")
	for _, h := range a.handlers {
		h.RegisterRoutes(api)
	}
	return e
}

// scheduleJobs registers the database probe, the unpaid appointment sweep and
// the limiter cleanup.
func (a *app) scheduleJobs(s *jobs.Scheduler) error {
	if err := s.Every("db-probe", a.cfg.DBPingInterval, func(ctx context.Context) error {
		_ = a.guard.Probe(ctx)
		return nil
	}); err != nil {
		return err
	}
	if err := s.Schedule("unpaid-appointments", "@every 15m", func(ctx context.Context) error {
		if !a.guard.Available() {
			return nil
		}
		_, err := a.appointments.CancelStaleUnpaid(ctx, a.cfg.PaymentTimeout)
		return err
	}); err != nil {
		return err
	}
	return s.Every("rate-limiter-sweep", limiterIdle, func(context.Context) error {
		a.limiter.Sweep(limiterIdle)
		return nil
	})
}

func openRevocations(ctx context.Context, cfg *config.Config) (auth.RevocationStore, *redis.Client, error) {
	if cfg.RedisURL == "" {
		return auth.NewMemoryRevocationStore(), nil, nil
	}
	client, err := auth.OpenRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return auth.NewRedisRevocationStore(client), client, nil
}

func runServer() error {
	cfg, err := config.Load()
	logger := newLogger(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()

	// The pool dials lazily so the server still starts while Postgres is down.
	pool, err := db.Open(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure database")
	}
	defer pool.Close()

	revocations, redisClient, err := openRevocations(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
		logger.Info().Msg("token revocations stored in redis")
	}

	a, err := newApp(cfg, logger, pool, revocations)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise services")
	}

	if err := a.guard.Probe(ctx); err != nil {
		if !cfg.SeedFallback {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		logger.Warn().Err(err).Msg("database unreachable, serving seed data for reads")
	} else {
		logger.Info().Msg("connected to database")
		if created, err := a.users.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			logger.Error().Err(err).Msg("bootstrap admin failed")
		} else if created {
			logger.Info().Str("username", cfg.AdminUsername).Msg("bootstrap admin account ready")
		}
	}

	scheduler := jobs.New(logger)
	if err := a.scheduleJobs(scheduler); err != nil {
		logger.Fatal().Err(err).Msg("failed to schedule jobs")
	}
	scheduler.Start()

	e := a.router()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
