package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rmarek/headshot-service/internal/model"
)

func testRepo(t *testing.T) JobRepository {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewJobRepository(db)
}

func TestJobCreateAndRecent(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	job := &model.JobRecord{
		RequestID:    "req-1",
		Digest:       "abc123",
		Preset:       "natural",
		FaceFound:    true,
		TightCrop:    false,
		CropLeft:     70,
		CropTop:      142,
		CropWidth:    720,
		CropHeight:   720,
		AvgLuminance: 83.4,
		DurationMs:   412,
		Status:       model.JobCompleted,
	}
	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.ID == 0 {
		t.Error("Create did not set the record ID")
	}

	jobs, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("Recent returned %d rows, want 1", len(jobs))
	}

	got := jobs[0]
	if got.Digest != "abc123" || got.Preset != "natural" || !got.FaceFound {
		t.Errorf("round-tripped job = %+v", got)
	}
	if got.CropWidth != 720 || got.CropTop != 142 {
		t.Errorf("crop fields lost: %+v", got)
	}
	if got.ErrorMessage != nil {
		t.Errorf("error message should be NULL, got %q", *got.ErrorMessage)
	}
}

func TestJobFailedRecord(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	msg := "stage crop: vips extract failed"
	job := &model.JobRecord{
		Digest:       "deadbeef",
		Preset:       "studio",
		Status:       model.JobFailed,
		ErrorMessage: &msg,
	}
	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("Create: %v", err)
	}

	failed, err := repo.CountByStatus(ctx, model.JobFailed)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if failed != 1 {
		t.Errorf("failed count = %d, want 1", failed)
	}

	jobs, err := repo.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if jobs[0].ErrorMessage == nil || *jobs[0].ErrorMessage != msg {
		t.Errorf("error message lost: %+v", jobs[0])
	}
}

func TestJobStats(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	records := []*model.JobRecord{
		{Digest: "a", Preset: "natural", FaceFound: true, TightCrop: true, DurationMs: 100, Status: model.JobCompleted},
		{Digest: "b", Preset: "natural", FaceFound: true, DurationMs: 300, Status: model.JobCompleted},
		{Digest: "c", Preset: "vivid", DurationMs: 200, Status: model.JobFailed},
	}
	for _, rec := range records {
		if err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.Completed != 2 || stats.Failed != 1 {
		t.Errorf("counts = %+v", stats)
	}
	if stats.FaceFound != 2 || stats.TightCrops != 1 {
		t.Errorf("face counts = %+v", stats)
	}
	if stats.AvgDurationMs != 200 {
		t.Errorf("avg duration = %v, want 200", stats.AvgDurationMs)
	}
}

func TestStatsEmptyTable(t *testing.T) {
	repo := testRepo(t)
	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats on empty table: %v", err)
	}
	if stats.Total != 0 || stats.AvgDurationMs != 0 {
		t.Errorf("empty stats = %+v", stats)
	}
}
