package sweeper

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go_ipam/internal/cache"
)

// lockKey is the lease shared by all instances; only the holder sweeps.
const lockKey = "ipam:sweeper:lock"

// Purger hard-deletes deallocated addresses whose retention has elapsed.
type Purger interface {
	PurgeAllDeallocatedIPs() error
}

// Worker periodically purges expired deallocated addresses
type Worker struct {
	ctx      context.Context
	cancel   context.CancelFunc
	purger   Purger
	redis    *redis.Client
	logger   *logrus.Entry
	interval time.Duration
	lockTTL  time.Duration
	owner    string
}

// Config holds the configuration for the sweeper worker
type Config struct {
	Purger      Purger
	Redis       *redis.Client // optional; nil disables the distributed lease
	Logger      *logrus.Entry
	IntervalSec int
	LockTTLSec  int
}

// NewWorker creates a new sweeper worker
func NewWorker(cfg *Config) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		ctx:      ctx,
		cancel:   cancel,
		purger:   cfg.Purger,
		redis:    cfg.Redis,
		logger:   cfg.Logger.WithField("component", "sweeper"),
		interval: time.Duration(cfg.IntervalSec) * time.Second,
		lockTTL:  time.Duration(cfg.LockTTLSec) * time.Second,
		owner:    uuid.NewString(),
	}
}

// Start begins the periodic sweeps
func (w *Worker) Start() {
	w.logger.Info("Starting sweeper worker...")
	ticker := time.NewTicker(w.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.runSweep()
			case <-w.ctx.Done():
				w.logger.Info("Stopping sweeper worker...")
				return
			}
		}
	}()
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.cancel()
}

func (w *Worker) runSweep() {
	if w.redis != nil {
		acquired, err := cache.AcquireLock(w.ctx, w.redis, lockKey, w.owner, w.lockTTL)
		if err != nil {
			w.logger.Errorf("Failed to acquire sweep lease: %v", err)
			return
		}
		if !acquired {
			return
		}
		defer func() {
			if err := cache.ReleaseLock(w.ctx, w.redis, lockKey, w.owner); err != nil {
				w.logger.Errorf("Failed to release sweep lease: %v", err)
			}
		}()
	}

	if err := w.purger.PurgeAllDeallocatedIPs(); err != nil {
		w.logger.Errorf("Sweep failed: %v", err)
		return
	}
}
