// Package container wires configuration, persistence, services and workers
// into a running application. Initialization is ordered; teardown runs in
// reverse.
package container

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/koperasidigital/simpanpinjam/internal/application/dispatcher"
	"github.com/koperasidigital/simpanpinjam/internal/application/port"
	"github.com/koperasidigital/simpanpinjam/internal/application/service"
	"github.com/koperasidigital/simpanpinjam/internal/config"
	"github.com/koperasidigital/simpanpinjam/internal/infrastructure/persistence/repository"
	"github.com/koperasidigital/simpanpinjam/internal/notification"
	"github.com/koperasidigital/simpanpinjam/internal/infrastructure/persistence/sqlite"
	"github.com/koperasidigital/simpanpinjam/internal/worker"
	"github.com/koperasidigital/simpanpinjam/pkg/database"
	"github.com/koperasidigital/simpanpinjam/pkg/logging"
)

// Repositories groups the persistence ports for convenient access
type Repositories struct {
	Request   port.RequestRepository
	Step      port.StepRepository
	Execution port.ExecutionRepository
	History   port.HistoryRepository
}

// Services groups the application services
type Services struct {
	Approval service.ApprovalService
	Bulk     service.BulkService
	Query    service.QueryService
}

// Container holds all wired application components
type Container struct {
	config *config.Config
	logger *zap.Logger

	sqlDB *sql.DB
	db    *sqlite.DB

	Repositories *Repositories
	Dispatcher   dispatcher.Dispatcher
	Services     *Services
	Workers      *worker.Manager

	closed atomic.Bool
}

// New builds the full dependency graph from configuration. The database is
// opened and migrated; workers are registered but not started.
func New(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	sqlDB, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.NewMigrator(sqlDB, logger).Run(cfg.Database.MigrationsDir); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db := sqlite.NewDB(sqlDB, logger)

	repos := &Repositories{
		Request:   repository.NewRequestRepository(db, logger),
		Step:      repository.NewStepRepository(db, logger),
		Execution: repository.NewExecutionRepository(db, logger),
		History:   repository.NewHistoryRepository(db, logger),
	}

	disp := dispatcher.New(dispatcher.WithLogger(logging.NewKV(logger)))
	notification.NewLogSubscriber(logger).Register(disp)

	engineCfg, err := engineConfig(cfg.Engine)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	approvals := service.NewApprovalService(
		repos.Request, repos.Step, repos.Execution, repos.History,
		db, disp, engineCfg, logging.NewKV(logger),
	)

	services := &Services{
		Approval: approvals,
		Bulk:     service.NewBulkService(approvals, cfg.Engine.BulkWorkers, logging.NewKV(logger)),
		Query:    service.NewQueryService(repos.Request, repos.Step, repos.History, repos.Execution, logging.NewKV(logger)),
	}

	workers := worker.NewManager(logger)
	workers.Register(worker.NewMaturityWatcher(
		repos.Request, disp,
		cfg.Engine.MaturityPollInterval, cfg.Engine.MaturityBatchSize,
		logger,
	))

	return &Container{
		config:       cfg,
		logger:       logger,
		sqlDB:        sqlDB,
		db:           db,
		Repositories: repos,
		Dispatcher:   disp,
		Services:     services,
		Workers:      workers,
	}, nil
}

// Start starts background workers
func (c *Container) Start(ctx context.Context) error {
	return c.Workers.StartAll(ctx)
}

// Close shuts down components in reverse initialization order
func (c *Container) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	c.Workers.StopAll()

	if err := c.Dispatcher.Close(); err != nil {
		c.logger.Error("Failed to close dispatcher", zap.Error(err))
		errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
	}

	if err := c.sqlDB.Close(); err != nil {
		c.logger.Error("Failed to close database", zap.Error(err))
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed")
	return nil
}

// Logger exposes the shared structured logger
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// engineConfig parses the decimal engine settings
func engineConfig(cfg config.EngineConfig) (service.EngineConfig, error) {
	adminFee, err := decimal.NewFromString(cfg.DepositChangeAdminFee)
	if err != nil {
		return service.EngineConfig{}, fmt.Errorf("invalid deposit_change_admin_fee: %w", err)
	}
	penaltyRate, err := decimal.NewFromString(cfg.PenaltyRatePct)
	if err != nil {
		return service.EngineConfig{}, fmt.Errorf("invalid penalty_rate_pct: %w", err)
	}
	return service.EngineConfig{
		AdminFee:              adminFee,
		DefaultPenaltyRatePct: penaltyRate,
	}, nil
}
