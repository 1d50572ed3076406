package storage

import (
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDB(dir)
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDB(t *testing.T) {
	dir := t.TempDir()
	db, err := NewDB(dir)
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	defer db.Close()

	if db.conn == nil {
		t.Error("db.conn is nil")
	}

	// Migration must be repeatable.
	if err := db.migrate(); err != nil {
		t.Errorf("second migrate() error = %v", err)
	}
}

func TestDB_UpsertAndGetMeasurement(t *testing.T) {
	db := testDB(t)

	now := time.Now().Unix()
	m := &Measurement{
		Path:       "2024/photo.jpg",
		Format:     "jpeg",
		Width:      4032,
		Height:     3024,
		FileSize:   12345,
		ModTime:    now - 60,
		MeasuredAt: now,
	}
	if err := db.UpsertMeasurement(m); err != nil {
		t.Fatalf("UpsertMeasurement() error = %v", err)
	}

	got, err := db.GetMeasurement("2024/photo.jpg")
	if err != nil {
		t.Fatalf("GetMeasurement() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetMeasurement() = nil")
	}
	if *got != *m {
		t.Errorf("GetMeasurement() = %+v, want %+v", got, m)
	}
	if !got.Fresh(12345, now-60) {
		t.Error("Fresh() = false for matching size and mtime")
	}
	if got.Fresh(12346, now-60) {
		t.Error("Fresh() = true after size change")
	}

	// Re-measure replaces the row.
	m.Width, m.Height, m.Error = 0, 0, "short_read"
	if err := db.UpsertMeasurement(m); err != nil {
		t.Fatalf("UpsertMeasurement() second error = %v", err)
	}
	got, _ = db.GetMeasurement("2024/photo.jpg")
	if got.Width != 0 || got.Error != "short_read" {
		t.Errorf("after upsert = %+v, want zero size with error", got)
	}
}

func TestDB_GetMeasurement_Missing(t *testing.T) {
	db := testDB(t)

	got, err := db.GetMeasurement("nope.png")
	if err != nil {
		t.Fatalf("GetMeasurement() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetMeasurement() = %+v, want nil", got)
	}
}

func TestDB_ListAndDelete(t *testing.T) {
	db := testDB(t)

	for i, p := range []string{"c.png", "a.png", "b.gif"} {
		err := db.UpsertMeasurement(&Measurement{Path: p, Format: "png", Width: 1, Height: 1, MeasuredAt: int64(100 + i)})
		if err != nil {
			t.Fatal(err)
		}
	}

	list, total, err := db.ListMeasurements(2, 0)
	if err != nil {
		t.Fatalf("ListMeasurements() error = %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(list) != 2 || list[0].Path != "a.png" || list[1].Path != "b.gif" {
		t.Errorf("ListMeasurements(2, 0) = %v, want [a.png b.gif]", list)
	}

	paths, err := db.ListPaths()
	if err != nil || len(paths) != 3 {
		t.Errorf("ListPaths() = %v, %v; want 3 paths", paths, err)
	}

	if err := db.DeleteMeasurement("a.png"); err != nil {
		t.Fatalf("DeleteMeasurement() error = %v", err)
	}
	n, err := db.DeleteMeasurementsOlderThan(102)
	if err != nil {
		t.Fatalf("DeleteMeasurementsOlderThan() error = %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteMeasurementsOlderThan() = %d, want 1", n)
	}

	_, total, _ = db.ListMeasurements(10, 0)
	if total != 1 {
		t.Errorf("total after deletes = %d, want 1", total)
	}
}

func TestDB_CountByFormat(t *testing.T) {
	db := testDB(t)

	rows := []*Measurement{
		{Path: "1.png", Format: "png", Width: 1, Height: 1},
		{Path: "2.png", Format: "png", Width: 1, Height: 1},
		{Path: "3.jpg", Format: "jpeg", Width: 1, Height: 1},
		{Path: "4.jpg", Format: "jpeg", Error: "frame_not_found"},
	}
	for _, m := range rows {
		if err := db.UpsertMeasurement(m); err != nil {
			t.Fatal(err)
		}
	}

	counts, err := db.CountByFormat()
	if err != nil {
		t.Fatalf("CountByFormat() error = %v", err)
	}
	want := map[string]int{"png": 2, "jpeg": 1, "failed": 1}
	for k, v := range want {
		if counts[k] != v {
			t.Errorf("counts[%q] = %d, want %d", k, counts[k], v)
		}
	}
}

func TestDB_ScanRuns(t *testing.T) {
	db := testDB(t)

	if run, err := db.LatestScanRun(); err != nil || run != nil {
		t.Fatalf("LatestScanRun() on empty db = %v, %v", run, err)
	}

	run := &ScanRun{ID: "run-1", Root: "/srv/lib", StartedAt: 1000}
	if err := db.InsertScanRun(run); err != nil {
		t.Fatalf("InsertScanRun() error = %v", err)
	}
	run.Files, run.Measured, run.Skipped, run.Failed = 10, 7, 2, 1
	if err := db.FinishScanRun(run); err != nil {
		t.Fatalf("FinishScanRun() error = %v", err)
	}
	if run.FinishedAt == 0 {
		t.Error("FinishScanRun() should stamp FinishedAt")
	}

	got, err := db.GetScanRun("run-1")
	if err != nil {
		t.Fatalf("GetScanRun() error = %v", err)
	}
	if *got != *run {
		t.Errorf("GetScanRun() = %+v, want %+v", got, run)
	}

	if err := db.InsertScanRun(&ScanRun{ID: "run-2", Root: "/srv/lib", StartedAt: 2000}); err != nil {
		t.Fatal(err)
	}
	latest, _ := db.LatestScanRun()
	if latest == nil || latest.ID != "run-2" {
		t.Errorf("LatestScanRun() = %+v, want run-2", latest)
	}

	missing, err := db.GetScanRun("nope")
	if err != nil || missing != nil {
		t.Errorf("GetScanRun(missing) = %v, %v; want nil, nil", missing, err)
	}
}
