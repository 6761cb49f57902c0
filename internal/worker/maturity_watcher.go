package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/koperasidigital/simpanpinjam/internal/application/dispatcher"
	"github.com/koperasidigital/simpanpinjam/internal/application/port"
	"github.com/koperasidigital/simpanpinjam/internal/domain/event"
)

// MaturityWatcher periodically scans active deposits whose maturity date has
// passed and emits a deposit.matured event for each. It stamps the request's
// maturity flag so the same deposit is never reported twice; it never changes
// the request status.
type MaturityWatcher struct {
	requestRepo port.RequestRepository
	dispatcher  dispatcher.Dispatcher
	logger      *zap.Logger

	pollInterval time.Duration
	batchSize    int

	mu        sync.Mutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewMaturityWatcher creates a maturity watcher
func NewMaturityWatcher(
	requestRepo port.RequestRepository,
	d dispatcher.Dispatcher,
	pollInterval time.Duration,
	batchSize int,
	logger *zap.Logger,
) *MaturityWatcher {
	if pollInterval <= 0 {
		pollInterval = time.Hour
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &MaturityWatcher{
		requestRepo:  requestRepo,
		dispatcher:   d,
		logger:       logger,
		pollInterval: pollInterval,
		batchSize:    batchSize,
	}
}

// Start starts the watcher loop
func (w *MaturityWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return fmt.Errorf("maturity watcher is already running")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true

	w.logger.Info("MaturityWatcher started",
		zap.Duration("poll_interval", w.pollInterval),
		zap.Int("batch_size", w.batchSize))

	go w.watchLoop()

	return nil
}

// Stop stops the watcher
func (w *MaturityWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.isRunning {
		return
	}

	w.isRunning = false
	if w.cancel != nil {
		w.cancel()
	}

	w.logger.Info("MaturityWatcher stopped")
}

// Name returns the worker name for identification
func (w *MaturityWatcher) Name() string {
	return "MaturityWatcher"
}

func (w *MaturityWatcher) watchLoop() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Scan immediately on start
	w.scanMatured()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Debug("Watch loop context cancelled")
			return

		case <-ticker.C:
			w.scanMatured()
		}
	}
}

// scanMatured processes one batch of newly matured deposits
func (w *MaturityWatcher) scanMatured() {
	ctx, cancel := context.WithTimeout(w.ctx, 30*time.Second)
	defer cancel()

	now := time.Now()
	matured, err := w.requestRepo.ListMaturedDeposits(ctx, now, w.batchSize)
	if err != nil {
		w.logger.Error("Failed to list matured deposits", zap.Error(err))
		return
	}

	if len(matured) == 0 {
		return
	}

	notified := 0
	for _, req := range matured {
		payload := map[string]interface{}{
			"member_id": req.MemberID,
			"status":    req.Status.String(),
		}
		if req.MaturesAt != nil {
			payload["matures_at"] = req.MaturesAt.Format(time.RFC3339)
		}

		evt := event.New(event.TypeDepositMatured, req.ID, req.Number, payload)
		if err := w.dispatcher.Dispatch(ctx, evt); err != nil {
			w.logger.Error("Failed to dispatch maturity event",
				zap.Int64("request_id", req.ID),
				zap.Error(err))
			continue
		}

		if err := w.requestRepo.MarkMaturityNotified(ctx, req.ID, now); err != nil {
			w.logger.Error("Failed to mark deposit maturity",
				zap.Int64("request_id", req.ID),
				zap.Error(err))
			continue
		}
		notified++
	}

	w.logger.Info("Maturity scan completed",
		zap.Int("matured", len(matured)),
		zap.Int("notified", notified))
}
