package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rmarek/headshot-service/internal/model"
)

// Stats is the aggregate view served by the admin endpoint.
type Stats struct {
	Total         int64   `db:"total" json:"total"`
	Completed     int64   `db:"completed" json:"completed"`
	Failed        int64   `db:"failed" json:"failed"`
	FaceFound     int64   `db:"face_found" json:"face_found"`
	TightCrops    int64   `db:"tight_crops" json:"tight_crops"`
	AvgDurationMs float64 `db:"avg_duration_ms" json:"avg_duration_ms"`
}

// JobRepository persists per-request bookkeeping records.
type JobRepository interface {
	Create(ctx context.Context, job *model.JobRecord) error
	CountByStatus(ctx context.Context, status model.JobStatus) (int64, error)
	Stats(ctx context.Context) (*Stats, error)
	Recent(ctx context.Context, limit int) ([]model.JobRecord, error)
}

type sqliteJobRepository struct {
	db *sqlx.DB
}

// NewJobRepository creates the SQLite-backed JobRepository.
func NewJobRepository(db *sqlx.DB) JobRepository {
	return &sqliteJobRepository{db: db}
}

func (r *sqliteJobRepository) Create(ctx context.Context, job *model.JobRecord) error {
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO jobs (request_id, digest, preset, face_found, tight_crop,
			crop_left, crop_top, crop_width, crop_height,
			avg_luminance, duration_ms, status, error_message)
		VALUES (:request_id, :digest, :preset, :face_found, :tight_crop,
			:crop_left, :crop_top, :crop_width, :crop_height,
			:avg_luminance, :duration_ms, :status, :error_message)
	`, job)
	if err != nil {
		return fmt.Errorf("creating job record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	job.ID = id
	return nil
}

func (r *sqliteJobRepository) CountByStatus(ctx context.Context, status model.JobStatus) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM jobs WHERE status = ?", status)
	return count, err
}

func (r *sqliteJobRepository) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.db.GetContext(ctx, &s, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) AS failed,
			COALESCE(SUM(CASE WHEN face_found THEN 1 ELSE 0 END), 0) AS face_found,
			COALESCE(SUM(CASE WHEN tight_crop THEN 1 ELSE 0 END), 0) AS tight_crops,
			COALESCE(AVG(duration_ms), 0) AS avg_duration_ms
		FROM jobs
	`)
	if err != nil {
		return nil, fmt.Errorf("reading job stats: %w", err)
	}
	return &s, nil
}

func (r *sqliteJobRepository) Recent(ctx context.Context, limit int) ([]model.JobRecord, error) {
	var jobs []model.JobRecord
	err := r.db.SelectContext(ctx, &jobs,
		"SELECT * FROM jobs ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent jobs: %w", err)
	}
	return jobs, nil
}
