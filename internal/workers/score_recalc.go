package workers

import (
	"context"
	"log"
	"time"

	"github.com/carlesonielfa/isthatslop-sub000/internal/services"
)

// ScoreRecalcWorker periodically drains the stale score queue. It is a
// convenience wrapper over the same ProcessBatch entry point the HTTP
// trigger uses; running both at once is safe because recalculation always
// overwrites from the authoritative claim set.
type ScoreRecalcWorker struct {
	recalc    *services.RecalculationService
	interval  time.Duration
	batchSize int
	ticker    *time.Ticker
	stopChan  chan bool
}

// NewScoreRecalcWorker creates a new score recalculation worker
func NewScoreRecalcWorker(recalc *services.RecalculationService, interval time.Duration, batchSize int) *ScoreRecalcWorker {
	if batchSize <= 0 {
		batchSize = services.DefaultBatchSize
	}
	return &ScoreRecalcWorker{
		recalc:    recalc,
		interval:  interval,
		batchSize: batchSize,
		stopChan:  make(chan bool),
	}
}

// Start begins the periodic recalculation loop
func (w *ScoreRecalcWorker) Start(ctx context.Context) {
	w.ticker = time.NewTicker(w.interval)

	log.Printf("🔄 Starting score recalculation worker (every %v, batch size %d)", w.interval, w.batchSize)

	// Run an initial pass immediately so a restart doesn't leave a backlog
	// sitting until the first tick.
	go w.runOnce()

	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Printf("🛑 Score recalculation worker stopping due to context cancellation")
				return
			case <-w.stopChan:
				log.Printf("🛑 Score recalculation worker stopping")
				return
			case <-w.ticker.C:
				w.runOnce()
			}
		}
	}()
}

// Stop stops the worker
func (w *ScoreRecalcWorker) Stop() {
	if w.ticker != nil {
		w.ticker.Stop()
	}
	close(w.stopChan)
	log.Printf("✅ Score recalculation worker stopped")
}

func (w *ScoreRecalcWorker) runOnce() {
	result, err := w.recalc.ProcessBatch(w.batchSize)
	if err != nil {
		log.Printf("❌ Score recalculation batch failed: %v", err)
		return
	}
	if result.Processed > 0 || len(result.FailedSourceIDs) > 0 {
		log.Printf("📊 Recalculated %d sources (%d failed, %d still stale)",
			result.Processed, len(result.FailedSourceIDs), result.Remaining)
	}
}

// Stats holds a snapshot of the stale queue for status endpoints.
type Stats struct {
	StaleSources int64         `json:"stale_sources"`
	Interval     time.Duration `json:"interval"`
	BatchSize    int           `json:"batch_size"`
	LastCheck    time.Time     `json:"last_check"`
}

// GetStats returns statistics about the stale score queue
func (w *ScoreRecalcWorker) GetStats() (*Stats, error) {
	count, err := w.recalc.StaleCount()
	if err != nil {
		return nil, err
	}
	return &Stats{
		StaleSources: count,
		Interval:     w.interval,
		BatchSize:    w.batchSize,
		LastCheck:    time.Now(),
	}, nil
}
