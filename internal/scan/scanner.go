package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"imghead/internal/image"
	"imghead/internal/logging"
	"imghead/internal/metrics"
	"imghead/internal/storage"
)

var ErrScanInProgress = errors.New("scan already in progress")

// Scanner keeps the measurement cache in sync with the library. Every
// worker opens its own file handle.
type Scanner struct {
	db        *storage.DB
	fs        *storage.Filesystem
	extractor *image.Extractor
	metrics   *metrics.Metrics
	workers   int

	running sync.Mutex
	now     func() time.Time
}

func NewScanner(db *storage.DB, fs *storage.Filesystem, extractor *image.Extractor, m *metrics.Metrics, workers int) *Scanner {
	if extractor == nil {
		extractor = image.DefaultExtractor
	}
	if workers < 1 {
		workers = 1
	}
	return &Scanner{
		db:        db,
		fs:        fs,
		extractor: extractor,
		metrics:   m,
		workers:   workers,
		now:       time.Now,
	}
}

// Run walks the library and measures every image whose cached entry is
// missing or stale. Only one run may be active at a time.
func (s *Scanner) Run(ctx context.Context) (*storage.ScanRun, error) {
	if !s.running.TryLock() {
		return nil, ErrScanInProgress
	}
	defer s.running.Unlock()

	start := s.now()
	run := &storage.ScanRun{
		ID:        uuid.NewString(),
		Root:      s.fs.Root(),
		StartedAt: start.Unix(),
	}
	if err := s.db.InsertScanRun(run); err != nil {
		return nil, fmt.Errorf("insert scan run: %w", err)
	}

	var files []storage.FileInfo
	walkErr := s.fs.Walk(func(fi storage.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		files = append(files, fi)
		return nil
	})

	var measured, skipped, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, fi := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			cached, err := s.db.GetMeasurement(fi.Path)
			if err != nil {
				return fmt.Errorf("lookup %s: %w", fi.Path, err)
			}
			if cached != nil && cached.Fresh(fi.Size, fi.ModTime) {
				skipped.Add(1)
				return nil
			}

			m := s.measure(fi)
			if err := s.db.UpsertMeasurement(m); err != nil {
				return fmt.Errorf("store %s: %w", fi.Path, err)
			}
			if m.Error != "" {
				failed.Add(1)
			} else {
				measured.Add(1)
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = walkErr
	}
	if err == nil {
		err = ctx.Err()
	}

	run.Files = len(files)
	run.Measured = int(measured.Load())
	run.Skipped = int(skipped.Load())
	run.Failed = int(failed.Load())
	run.FinishedAt = s.now().Unix()
	if ferr := s.db.FinishScanRun(run); ferr != nil && err == nil {
		err = fmt.Errorf("finish scan run: %w", ferr)
	}

	elapsed := s.now().Sub(start)
	s.metrics.ObserveScan(elapsed.Seconds())
	logging.Get("scan").Print(logging.KV(map[string]any{
		"run":      run.ID,
		"files":    run.Files,
		"measured": run.Measured,
		"skipped":  run.Skipped,
		"failed":   run.Failed,
		"dur_ms":   elapsed.Milliseconds(),
	}))

	return run, err
}

// Lookup returns the measurement for a library-relative path, probing the
// file if the cache has no fresh entry.
func (s *Scanner) Lookup(rel string) (*storage.Measurement, error) {
	fi, err := s.fs.Stat(rel)
	if err != nil {
		return nil, err
	}

	cached, err := s.db.GetMeasurement(fi.Path)
	if err != nil {
		return nil, err
	}
	if cached != nil && cached.Fresh(fi.Size, fi.ModTime) {
		s.metrics.RecordCacheLookup(true)
		return cached, nil
	}
	s.metrics.RecordCacheLookup(false)

	m := s.measure(*fi)
	if err := s.db.UpsertMeasurement(m); err != nil {
		return nil, fmt.Errorf("store %s: %w", fi.Path, err)
	}
	return m, nil
}

func (s *Scanner) measure(fi storage.FileInfo) *storage.Measurement {
	m := &storage.Measurement{
		Path:       fi.Path,
		Format:     image.FormatUnknown.String(),
		FileSize:   fi.Size,
		ModTime:    fi.ModTime,
		MeasuredAt: s.now().Unix(),
	}

	path, err := s.fs.Resolve(fi.Path)
	if err != nil {
		m.Error = image.Reason(err)
		return m
	}

	format, d, err := s.extractor.MeasureFile(path)
	reason := image.Reason(err)
	s.metrics.RecordMeasurement(format.String(), reason)

	m.Format = format.String()
	if err != nil {
		m.Error = reason
		logging.Get("measure").Print(logging.KV(map[string]any{
			"path":   fi.Path,
			"format": format,
			"result": reason,
			"err":    err,
		}))
		return m
	}
	m.Width, m.Height = d.Width, d.Height
	return m
}
