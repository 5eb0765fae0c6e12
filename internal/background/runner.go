package background

import (
	"context"
	"log"
	"sync"
	"time"

	"workspace-service/internal/config"
	"workspace-service/internal/metrics"
)

// InvitationSweeper expires overdue pending invitations in bulk
type InvitationSweeper interface {
	ExpireOverdueInvitations(ctx context.Context) (int64, error)
}

// Runner manages the invitation expiry sweep. The sweep is a safety
// net: redemption checks expiry on its own, so a missed run never
// lets a stale invitation through.
type Runner struct {
	sweeper     InvitationSweeper
	metrics     *metrics.Metrics
	config      config.InvitationConfig
	stopCh      chan struct{}
	wg          sync.WaitGroup
	sweepTicker *time.Ticker
}

// NewRunner creates a new background runner
func NewRunner(sweeper InvitationSweeper, m *metrics.Metrics, cfg config.InvitationConfig) *Runner {
	return &Runner{
		sweeper: sweeper,
		metrics: m,
		config:  cfg,
		stopCh:  make(chan struct{}),
	}
}

// Start begins the background job processing
func (r *Runner) Start() {
	log.Println("Starting background job runner...")

	sweepInterval := time.Duration(r.config.SweepInterval) * time.Minute
	r.sweepTicker = time.NewTicker(sweepInterval)
	log.Printf("Invitation expiry sweep scheduled every %v", sweepInterval)

	r.wg.Add(1)
	go r.runSweepJob()

	log.Println("Background job runner started successfully")
}

// Stop gracefully stops all background jobs
func (r *Runner) Stop() {
	log.Println("Stopping background job runner...")
	close(r.stopCh)

	if r.sweepTicker != nil {
		r.sweepTicker.Stop()
	}

	// Wait for goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Background job runner stopped gracefully")
	case <-time.After(30 * time.Second):
		log.Println("Background job runner stop timeout - forcing shutdown")
	}
}

// runSweepJob runs the expiry sweep periodically
func (r *Runner) runSweepJob() {
	defer r.wg.Done()

	// Run immediately on start to catch invitations that lapsed while
	// the service was down
	r.executeSweep()

	for {
		select {
		case <-r.stopCh:
			log.Println("Expiry sweep stopping...")
			return
		case <-r.sweepTicker.C:
			r.executeSweep()
		}
	}
}

// executeSweep performs the actual sweep
func (r *Runner) executeSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	expired, err := r.sweeper.ExpireOverdueInvitations(ctx)
	if err != nil {
		log.Printf("Error in invitation expiry sweep: %v", err)
		return
	}

	if expired > 0 {
		log.Printf("Invitation expiry sweep completed: %d invitations expired", expired)
		if r.metrics != nil {
			r.metrics.InvitationsSwept.Add(float64(expired))
		}
	}
}

// RunOnce runs the sweep once (for testing/manual trigger)
func (r *Runner) RunOnce(ctx context.Context) error {
	expired, err := r.sweeper.ExpireOverdueInvitations(ctx)
	if err != nil {
		return err
	}
	log.Printf("Expired %d overdue invitations", expired)
	return nil
}
