package trainer

import (
	"context"
	"log"
	"time"

	"github.com/ntentasd/pdm-pipeline/pkg/types"
)

// Supervisor checks trainer jobs periodically and restarts failed ones.
type Supervisor struct {
	Client    *Client
	Interval  time.Duration
	cancelCtx context.CancelFunc
}

// NewSupervisor creates a new background worker for training-job supervision.
func NewSupervisor(client *Client, interval time.Duration) *Supervisor {
	return &Supervisor{
		Client:   client,
		Interval: interval,
	}
}

func (s *Supervisor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancelCtx = cancel

	go func() {
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		log.Println("[supervisor] started training-job monitor")

		for {
			select {
			case <-ctx.Done():
				log.Println("[supervisor] stopped")
				return
			case <-ticker.C:
				if err := s.checkAndRestartJobs(); err != nil {
					log.Printf("[supervisor] error: %v", err)
				}
			}
		}
	}()
}

// Stop gracefully stops the background worker.
func (s *Supervisor) Stop() {
	if s.cancelCtx != nil {
		s.cancelCtx()
	}
}

func (s *Supervisor) checkAndRestartJobs() error {
	jobs, err := s.Client.ListJobs()
	if err != nil {
		return err
	}

	for _, j := range jobs {
		if j.State != types.StateTypeStopped && j.State != types.StateTypeFailed {
			continue
		}

		log.Printf("[supervisor] job %s is %s, restarting...", j.ID, j.State)
		if err := s.Client.RestartJob(j.ID); err != nil {
			log.Printf("[supervisor] restart failed for %s: %v", j.ID, err)
		} else {
			log.Printf("[supervisor] job %s restarted successfully", j.ID)
		}
	}

	return nil
}
