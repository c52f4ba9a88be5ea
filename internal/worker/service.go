package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"earthistory/internal/logger"
	"earthistory/internal/workers"
)

var (
	// ErrReingestDisabled is returned when no re-ingestion worker is configured
	ErrReingestDisabled = errors.New("periodic ingestion is not configured")
	// ErrNotRunning is returned when work is requested from a stopped service
	ErrNotRunning = errors.New("background workers are not running")
)

// WorkerService manages background workers for the server
type WorkerService struct {
	reingestWorker *workers.ReingestWorker
	log            *logger.Logger
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	running        bool
	startedAt      time.Time
	mu             sync.RWMutex
}

// NewWorkerService creates a new worker service. reingest may be nil when
// periodic ingestion is disabled.
func NewWorkerService(reingest *workers.ReingestWorker, log *logger.Logger) *WorkerService {
	if log == nil {
		log = logger.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerService{
		reingestWorker: reingest,
		log:            log.With("service", "WorkerService"),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Start starts all background workers
func (ws *WorkerService) Start() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.running {
		return nil
	}

	ws.log.Info("Starting background workers...")

	if ws.reingestWorker != nil {
		ws.wg.Add(1)
		go func() {
			defer ws.wg.Done()
			ws.runReingestWorker()
		}()
	} else {
		ws.log.Info("⏸️ Periodic re-ingestion disabled")
	}

	ws.running = true
	ws.startedAt = time.Now()
	ws.log.Info("Background workers started successfully")
	return nil
}

// Stop stops all background workers
func (ws *WorkerService) Stop() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if !ws.running {
		return
	}

	ws.log.Info("Stopping background workers...")
	ws.cancel()
	ws.wg.Wait()

	ws.running = false
	ws.log.Info("Background workers stopped")
}

// IsRunning returns whether the worker service is currently running
func (ws *WorkerService) IsRunning() bool {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.running
}

func (ws *WorkerService) runReingestWorker() {
	ws.reingestWorker.Start(ws.ctx)

	<-ws.ctx.Done()

	ws.reingestWorker.Stop()
}

// TriggerReingest starts one bulk run in the background, bound to the service's
// lifetime. It returns false when a run is already in progress.
func (ws *WorkerService) TriggerReingest() (bool, error) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	if ws.reingestWorker == nil {
		return false, ErrReingestDisabled
	}
	if !ws.running {
		return false, ErrNotRunning
	}
	if !ws.reingestWorker.Claim() {
		return false, nil
	}

	ws.log.Info("▶️ Re-ingestion triggered on demand")
	ws.wg.Add(1)
	go func() {
		defer ws.wg.Done()
		ws.reingestWorker.RunClaimed(ws.ctx)
	}()
	return true, nil
}

// GetStatus returns the current status of the worker service
func (ws *WorkerService) GetStatus() map[string]interface{} {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	status := map[string]interface{}{
		"running":          ws.running,
		"reingest_enabled": ws.reingestWorker != nil,
	}
	if ws.running {
		status["uptime"] = time.Since(ws.startedAt).Round(time.Second).String()
	}
	if ws.reingestWorker != nil {
		status["reingest_worker"] = ws.reingestWorker.GetStats()
	}
	return status
}
