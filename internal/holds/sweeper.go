package holds

import (
	"context"
	"log"
	"time"

	"github.com/iradwatkins/stepper-ui-forge-sub003/pkg/logger"
)

// JobProcessor handles background jobs for the hold lifecycle
type JobProcessor struct {
	service Service
	config  *JobConfig
	logger  *logger.Logger
	done    chan struct{}
}

// JobConfig contains configuration for background jobs
type JobConfig struct {
	SweepInterval     time.Duration
	ReconcileInterval time.Duration
}

// DefaultJobConfig returns default job configuration
func DefaultJobConfig() *JobConfig {
	return &JobConfig{
		SweepInterval:     5 * time.Second, // Expire overdue holds promptly
		ReconcileInterval: 1 * time.Minute, // Repair audit rows that missed their resolve write
	}
}

// NewJobProcessor creates a new job processor
func NewJobProcessor(service Service, config *JobConfig) *JobProcessor {
	if config == nil {
		config = DefaultJobConfig()
	}

	return &JobProcessor{
		service: service,
		config:  config,
		logger:  logger.GetDefault(),
		done:    make(chan struct{}),
	}
}

// Start starts all background jobs
func (jp *JobProcessor) Start(ctx context.Context) {
	log.Println("Starting hold background jobs...")

	// Start expiration sweep
	go jp.startExpirySweep(ctx)

	// Start audit trail reconciler
	go jp.startAuditReconciler(ctx)

	log.Println("Hold background jobs started")
}

// Stop stops all background jobs
func (jp *JobProcessor) Stop() {
	log.Println("Stopping hold background jobs...")
	close(jp.done)
	log.Println("Hold background jobs stopped")
}

// startExpirySweep runs the expiration sweep on its interval. A failed
// pass is logged and retried on the next tick; the loop itself never
// exits until shutdown.
func (jp *JobProcessor) startExpirySweep(ctx context.Context) {
	ticker := time.NewTicker(jp.config.SweepInterval)
	defer ticker.Stop()

	log.Printf("Started hold expiration sweep with %v interval", jp.config.SweepInterval)

	for {
		select {
		case <-ticker.C:
			jp.runSweep(ctx)
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (jp *JobProcessor) runSweep(ctx context.Context) {
	start := time.Now()
	expired, err := jp.service.SweepExpired(ctx)
	if err != nil {
		jp.logger.ErrorWithContext(ctx, "hold sweep pass failed", err, nil)
		return
	}
	jp.logger.LogSweepCompleted(ctx, expired, time.Since(start))
}

// startAuditReconciler periodically repairs audit rows left ACTIVE by
// failed resolve-time writes.
func (jp *JobProcessor) startAuditReconciler(ctx context.Context) {
	ticker := time.NewTicker(jp.config.ReconcileInterval)
	defer ticker.Stop()

	log.Printf("Started hold audit reconciler with %v interval", jp.config.ReconcileInterval)

	for {
		select {
		case <-ticker.C:
			jp.runReconcile(ctx)
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (jp *JobProcessor) runReconcile(ctx context.Context) {
	repaired, err := jp.service.ReconcileAuditTrail(ctx)
	if err != nil {
		jp.logger.ErrorWithContext(ctx, "hold audit reconcile pass failed", err, nil)
		return
	}
	if repaired > 0 {
		log.Printf("Repaired %d hold audit rows", repaired)
	}
}

// GetJobStatus returns the status of background jobs
func (jp *JobProcessor) GetJobStatus() map[string]interface{} {
	return map[string]interface{}{
		"sweep_interval":     jp.config.SweepInterval.String(),
		"reconcile_interval": jp.config.ReconcileInterval.String(),
		"status":             "running",
	}
}
