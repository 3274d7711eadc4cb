package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medops/medops/internal/config"
	"github.com/medops/medops/internal/domain/equipment"
	"github.com/medops/medops/internal/domain/maintenance"
	"github.com/medops/medops/internal/domain/request"
	"github.com/medops/medops/internal/domain/technician"
	"github.com/medops/medops/internal/platform/db"
	"github.com/medops/medops/internal/platform/middleware"
	"github.com/medops/medops/internal/platform/notification"
	"github.com/medops/medops/internal/platform/scheduler"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medops-server",
		Short: "Hospital maintenance operations API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, cfg.MigrationsDir).Up(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("applied %d migration(s)\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, cfg.MigrationsDir).Status(ctx)
			if err != nil {
				return err
			}
			for _, s := range statuses {
				state := "pending"
				if s.Applied {
					state = "applied " + s.AppliedAt.Format(time.RFC3339)
				}
				fmt.Printf("%03d %-40s %s\n", s.Version, s.Name, state)
			}
			return nil
		},
	})

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo equipment and technicians",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()
			return seedDemoData(ctx, pool)
		},
	}
}

// activityProbe derives equipment activity from the maintenance and request
// repositories without the equipment package importing either.
type activityProbe struct {
	tasks   maintenance.Repository
	tickets request.Repository
}

func (p *activityProbe) EquipmentActivity(ctx context.Context, equipmentID uuid.UUID) (equipment.Activity, error) {
	active, err := p.tasks.HasActiveMaintenance(ctx, equipmentID, time.Now())
	if err != nil {
		return equipment.Activity{}, err
	}
	critical, err := p.tickets.HasOpenCriticalRequest(ctx, equipmentID)
	if err != nil {
		return equipment.Activity{}, err
	}
	return equipment.Activity{
		ActiveMaintenance:   active,
		OpenCriticalRequest: critical,
	}, nil
}

// workloadSource backs the technician availability predicates with derived
// queries over the task and ticket rows.
type workloadSource struct {
	tasks   maintenance.Repository
	tickets request.Repository
}

func (w *workloadSource) CountActiveTasks(ctx context.Context, technicianID uuid.UUID) (int, error) {
	return w.tasks.CountActiveByTechnician(ctx, technicianID)
}

func (w *workloadSource) ListWindowsOnDate(ctx context.Context, technicianID uuid.UUID, date time.Time) ([]technician.Window, error) {
	slots, err := w.tasks.ListSlotsOnDate(ctx, technicianID, date)
	if err != nil {
		return nil, err
	}
	var out []technician.Window
	for _, s := range slots {
		start, err := technician.ClockToHours(s.StartClock)
		if err != nil {
			return nil, err
		}
		out = append(out, technician.Window{Start: start, Duration: s.DurationHours})
	}
	return out, nil
}

func (w *workloadSource) CountOpenRequests(ctx context.Context, technicianID uuid.UUID) (int, error) {
	return w.tickets.CountOpenByTechnician(ctx, technicianID)
}

// scheduleSource feeds the technician schedule endpoint from the maintenance
// service.
type scheduleSource struct {
	svc *maintenance.Service
}

func (s *scheduleSource) ListByTechnician(ctx context.Context, technicianID uuid.UUID, limit, offset int) (interface{}, int, error) {
	items, total, err := s.svc.List(ctx, maintenance.Filter{TechnicianID: &technicianID}, limit, offset)
	return items, total, err
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Repositories
	equipmentRepo := equipment.NewRepoPG(pool)
	technicianRepo := technician.NewRepoPG(pool)
	maintenanceRepo := maintenance.NewRepoPG(pool)
	requestRepo := request.NewRepoPG(pool)
	notificationRepo := notification.NewRepoPG(pool)
	codes := db.NewCodeAllocator(pool)

	// Services
	notifier := notification.NewRecorder(notificationRepo, notification.NewTemplateEngine(), logger)
	equipmentSvc := equipment.NewService(equipmentRepo, &activityProbe{tasks: maintenanceRepo, tickets: requestRepo})
	technicianSvc := technician.NewService(technicianRepo, &workloadSource{tasks: maintenanceRepo, tickets: requestRepo})
	maintenanceSvc := maintenance.NewService(maintenanceRepo, equipmentSvc, technicianSvc, codes, notifier)
	maintenanceSvc.UseTxRunner(func(ctx context.Context, fn func(context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	})
	requestSvc := request.NewService(requestRepo, equipmentSvc, technicianSvc, codes, notifier)

	// Hourly due-task sweep
	sweep := maintenance.NewSweep(maintenanceRepo, equipmentSvc, notifier, logger)
	cronSched, err := scheduler.NewCron(cfg.SweepTimezone, logger)
	if err != nil {
		return err
	}
	if err := cronSched.Add(cfg.SweepCron, sweep); err != nil {
		return err
	}
	cronSched.Start()
	defer cronSched.Stop()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = errorHandler(cfg, logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")
	maintenance.NewHandler(maintenanceSvc).RegisterRoutes(apiV1)
	request.NewHandler(requestSvc).RegisterRoutes(apiV1)
	technician.NewHandler(technicianSvc, &scheduleSource{svc: maintenanceSvc}).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// errorHandler keeps internal error detail out of responses unless running in
// development mode.
func errorHandler(cfg *config.Config, logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		message := interface{}("internal server error")

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			message = he.Message
		}
		if code == http.StatusInternalServerError {
			logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
			if !cfg.IsDev() {
				message = "internal server error"
			}
		}

		if c.Response().Committed {
			return
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, map[string]interface{}{"error": message})
	}
}
