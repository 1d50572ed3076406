package cleanup

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"imghead/internal/config"
	"imghead/internal/logging"
	"imghead/internal/scan"
	"imghead/internal/storage"
)

// Daemon periodically rescans the library and drops cache rows for files
// that are gone or older than the configured TTL.
type Daemon struct {
	cfg     *config.Config
	db      *storage.DB
	fs      *storage.Filesystem
	scanner *scan.Scanner

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func NewDaemon(cfg *config.Config, db *storage.DB, fs *storage.Filesystem, scanner *scan.Scanner) *Daemon {
	return &Daemon{cfg: cfg, db: db, fs: fs, scanner: scanner}
}

func (d *Daemon) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})

	interval := time.Duration(d.cfg.ScanIntervalMin) * time.Minute
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	go func() {
		defer close(d.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// Run immediately on start
		d.tick(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.tick(ctx)
			}
		}
	}()
}

// Stop cancels any running scan and waits for the loop to exit.
func (d *Daemon) Stop() {
	d.once.Do(func() {
		if d.cancel == nil {
			return
		}
		d.cancel()
		<-d.done
	})
}

func (d *Daemon) tick(ctx context.Context) {
	if _, err := d.scanner.Run(ctx); err != nil {
		if errors.Is(err, scan.ErrScanInProgress) || errors.Is(err, context.Canceled) {
			return
		}
		logging.Get("cleanup").Printf("cleanup: scan failed: %v", err)
	}
	d.prune(time.Now())
}

// prune removes rows whose files no longer exist and rows measured before
// the TTL cutoff.
func (d *Daemon) prune(now time.Time) {
	paths, err := d.db.ListPaths()
	if err != nil {
		logging.Get("cleanup").Printf("cleanup: failed to list cached paths: %v", err)
		return
	}

	var removed int
	for _, p := range paths {
		if _, err := d.fs.Stat(p); err == nil || !isGone(err) {
			continue
		}
		if err := d.db.DeleteMeasurement(p); err != nil {
			logging.Get("cleanup").Printf("cleanup: failed to delete %s: %v", p, err)
			continue
		}
		removed++
	}

	if d.cfg.CacheTTLHours > 0 {
		cutoff := now.Add(-time.Duration(d.cfg.CacheTTLHours * float64(time.Hour))).Unix()
		n, err := d.db.DeleteMeasurementsOlderThan(cutoff)
		if err != nil {
			logging.Get("cleanup").Printf("cleanup: failed to expire rows: %v", err)
		}
		removed += int(n)
	}

	if removed > 0 {
		logging.Get("cleanup").Printf("cleanup: removed %d cached measurements", removed)
	}
}

func isGone(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, storage.ErrOutsideRoot)
}
