package booking

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// CleanupWorker periodically purges cancelled and rejected bookings
type CleanupWorker struct {
	service   *Service
	interval  time.Duration
	retention time.Duration
	stopCh    chan struct{}
}

// NewCleanupWorker creates a cleanup worker. Zero values fall back to a daily
// run that keeps 30 days of history.
func NewCleanupWorker(service *Service, interval, retention time.Duration) *CleanupWorker {
	if interval == 0 {
		interval = 24 * time.Hour
	}
	if retention == 0 {
		retention = 30 * 24 * time.Hour
	}
	return &CleanupWorker{
		service:   service,
		interval:  interval,
		retention: retention,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the background worker
func (w *CleanupWorker) Start() {
	log.Info().Dur("interval", w.interval).Dur("retention", w.retention).Msg("Starting booking cleanup worker...")
	go w.loop()
}

// Stop gracefully stops the background worker
func (w *CleanupWorker) Stop() {
	log.Info().Msg("Stopping booking cleanup worker...")
	close(w.stopCh)
}

func (w *CleanupWorker) loop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.runOnce()
		case <-w.stopCh:
			return
		}
	}
}

func (w *CleanupWorker) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := w.service.Cleanup(ctx, w.retention); err != nil {
		log.Error().Err(err).Msg("Failed to clean up inactive bookings")
	}
}
