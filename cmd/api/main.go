package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-workforce-go/internal/config"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-workforce-go/internal/fixtures"
	appHTTP "github.com/cmlabs-hris/hris-workforce-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-workforce-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-workforce-go/internal/repository/memory"
	"github.com/cmlabs-hris/hris-workforce-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-workforce-go/internal/service/attendance"
	leaveService "github.com/cmlabs-hris/hris-workforce-go/internal/service/leave"
	payrollService "github.com/cmlabs-hris/hris-workforce-go/internal/service/payroll"
)

// repositories is the storage backend selected by STORAGE_DRIVER.
type repositories struct {
	txManager        database.TxManager
	directory        employee.Directory
	attendanceRepo   attendance.AttendanceRepository
	auditRepo        attendance.AuditRepository
	leaveTypeRepo    leave.LeaveTypeRepository
	leaveBalanceRepo leave.LeaveBalanceRepository
	leaveRequestRepo leave.LeaveRequestRepository
	payrollRepo      payroll.PayrollRepository
	close            func()
}

func newPostgresRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &repositories{
		txManager:        postgresql.NewTxManager(db),
		directory:        postgresql.NewEmployeeDirectory(db),
		attendanceRepo:   postgresql.NewAttendanceRepository(db),
		auditRepo:        postgresql.NewAttendanceAuditRepository(db),
		leaveTypeRepo:    postgresql.NewLeaveTypeRepository(db),
		leaveBalanceRepo: postgresql.NewLeaveBalanceRepository(db),
		leaveRequestRepo: postgresql.NewLeaveRequestRepository(db),
		payrollRepo:      postgresql.NewPayrollRepository(db),
		close:            db.Close,
	}, nil
}

func newMemoryRepositories(cfg *config.Config) *repositories {
	store := memory.NewStore()
	if cfg.App.SeedDemoData {
		ids := fixtures.Seed(store)
		slog.Info("seeded demo data",
			"leave_types", len(ids.LeaveTypeIDs),
			"employees", len(ids.EmployeeIDs),
		)
	}

	return &repositories{
		txManager:        memory.NewTxManager(store),
		directory:        memory.NewEmployeeDirectory(store),
		attendanceRepo:   memory.NewAttendanceRepository(store),
		auditRepo:        memory.NewAttendanceAuditRepository(store),
		leaveTypeRepo:    memory.NewLeaveTypeRepository(store),
		leaveBalanceRepo: memory.NewLeaveBalanceRepository(store),
		leaveRequestRepo: memory.NewLeaveRequestRepository(store),
		payrollRepo:      memory.NewPayrollRepository(store),
		close:            func() {},
	}
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})).With(slog.String("app", "hris-workforce"), slog.String("env", cfg.App.Env)))

	if cfg.Cron.Enabled && cfg.Policy.AbsencePenaltyPerDay.IsPositive() {
		slog.Warn("absence sweep marks every calendar day; rest days will carry the absence penalty",
			"absence_penalty_per_day", cfg.Policy.AbsencePenaltyPerDay.String(),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	siteLoc, err := time.LoadLocation(cfg.App.SiteTimezone)
	if err != nil {
		return fmt.Errorf("invalid site timezone: %w", err)
	}

	var repos *repositories
	switch cfg.App.StorageDriver {
	case config.StorageDriverMemory:
		repos = newMemoryRepositories(cfg)
	default:
		repos, err = newPostgresRepositories(ctx, cfg)
		if err != nil {
			return err
		}
	}
	defer repos.close()

	attendanceSvc := attendanceService.NewAttendanceService(
		repos.txManager,
		repos.attendanceRepo,
		repos.auditRepo,
		repos.directory,
		attendance.Policy{
			GraceMinutes: cfg.Policy.GraceMinutes,
			HalfDayRatio: cfg.Policy.HalfDayRatio,
		},
		siteLoc,
	)

	quotaCalculator := leaveService.NewQuotaCalculator()
	quotaService := leaveService.NewQuotaService(repos.leaveTypeRepo, repos.leaveBalanceRepo, quotaCalculator)
	leaveSvc := leaveService.NewLeaveService(
		repos.txManager,
		repos.leaveTypeRepo,
		repos.leaveBalanceRepo,
		repos.leaveRequestRepo,
		repos.directory,
		quotaService,
		quotaCalculator,
		attendanceSvc,
	)

	payrollSvc := payrollService.NewPayrollService(
		repos.txManager,
		repos.payrollRepo,
		repos.attendanceRepo,
		leaveSvc,
		repos.directory,
		payroll.Policy{
			LatePenaltyPerMinute: cfg.Policy.LatePenaltyPerMinute,
			AbsencePenaltyPerDay: cfg.Policy.AbsencePenaltyPerDay,
			StatutoryRateOfBasic: cfg.Policy.StatutoryRate,
		},
		cfg.Payroll.BatchConcurrency,
	)

	if cfg.Cron.Enabled {
		scheduler := cron.NewScheduler()
		cron.NewAttendanceJobs(attendanceSvc, repos.directory, siteLoc).RegisterJobs(scheduler)
		cron.NewLeaveJobs(leaveSvc, repos.directory, siteLoc).RegisterJobs(scheduler)
		scheduler.Start()
		defer scheduler.Stop()
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			AppEnv:         cfg.App.Env,
			AllowedOrigins: cfg.App.AllowedOrigins,
			LogLevel:       cfg.SlogLevel(),
		},
		JWTService,
		appHTTP.NewAttendanceHandler(attendanceSvc),
		appHTTP.NewLeaveHandler(leaveSvc),
		appHTTP.NewPayrollHandler(payrollSvc),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server running", "addr", server.Addr, "storage", cfg.App.StorageDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
