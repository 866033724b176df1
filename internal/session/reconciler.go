package session

import (
	"context"
	"log"
	"time"

	"github.com/iradwatkins/stepper-ui-forge-sub003/pkg/logger"
)

// Reconciler runs the session background jobs: the view reconcile loop
// and idle eviction.
type Reconciler struct {
	service Service
	config  *ReconcilerConfig
	logger  *logger.Logger
	done    chan struct{}
}

// ReconcilerConfig contains configuration for session background jobs
type ReconcilerConfig struct {
	ReconcileInterval time.Duration
	EvictInterval     time.Duration
}

// DefaultReconcilerConfig returns default job configuration
func DefaultReconcilerConfig() *ReconcilerConfig {
	return &ReconcilerConfig{
		ReconcileInterval: 2 * time.Second, // Countdown and seat views follow server truth closely
		EvictInterval:     1 * time.Minute, // Idle sessions only need coarse cleanup
	}
}

// NewReconciler creates a new session job runner
func NewReconciler(service Service, config *ReconcilerConfig) *Reconciler {
	if config == nil {
		config = DefaultReconcilerConfig()
	}

	return &Reconciler{
		service: service,
		config:  config,
		logger:  logger.GetDefault(),
		done:    make(chan struct{}),
	}
}

// Start starts all session background jobs
func (r *Reconciler) Start(ctx context.Context) {
	log.Println("Starting session background jobs...")

	go r.startViewReconciler(ctx)
	go r.startIdleEvictor(ctx)

	log.Println("Session background jobs started")
}

// Stop stops all session background jobs
func (r *Reconciler) Stop() {
	log.Println("Stopping session background jobs...")
	close(r.done)
	log.Println("Session background jobs stopped")
}

// startViewReconciler folds server truth into session views on its
// interval. A failed pass is logged and retried on the next tick.
func (r *Reconciler) startViewReconciler(ctx context.Context) {
	ticker := time.NewTicker(r.config.ReconcileInterval)
	defer ticker.Stop()

	log.Printf("Started session view reconciler with %v interval", r.config.ReconcileInterval)

	for {
		select {
		case <-ticker.C:
			r.runReconcile(ctx)
		case <-r.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (r *Reconciler) runReconcile(ctx context.Context) {
	touched, err := r.service.Reconcile(ctx)
	if err != nil {
		r.logger.ErrorWithContext(ctx, "session reconcile pass failed", err, nil)
		return
	}
	if touched > 0 {
		r.logger.DebugWithContext(ctx, "Session views reconciled", map[string]interface{}{
			"touched": touched,
		})
	}
}

// startIdleEvictor drops sessions nobody has touched past the idle
// timeout.
func (r *Reconciler) startIdleEvictor(ctx context.Context) {
	ticker := time.NewTicker(r.config.EvictInterval)
	defer ticker.Stop()

	log.Printf("Started session idle evictor with %v interval", r.config.EvictInterval)

	for {
		select {
		case <-ticker.C:
			if evicted := r.service.EvictIdle(ctx); evicted > 0 {
				log.Printf("Evicted %d idle sessions", evicted)
			}
		case <-r.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// GetJobStatus returns the status of background jobs
func (r *Reconciler) GetJobStatus() map[string]interface{} {
	return map[string]interface{}{
		"reconcile_interval": r.config.ReconcileInterval.String(),
		"evict_interval":     r.config.EvictInterval.String(),
		"status":             "running",
	}
}
