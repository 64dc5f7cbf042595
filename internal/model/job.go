package model

import "time"

// JobStatus represents the outcome of one processing request.
type JobStatus string

const (
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// JobRecord is the bookkeeping row written after each processing request.
// Tags: `db` for sqlx row scanning, `json` for the admin API.
type JobRecord struct {
	ID           int64     `db:"id" json:"id"`
	RequestID    string    `db:"request_id" json:"request_id"`
	Digest       string    `db:"digest" json:"digest"`
	Preset       string    `db:"preset" json:"preset"`
	FaceFound    bool      `db:"face_found" json:"face_found"`
	TightCrop    bool      `db:"tight_crop" json:"tight_crop"`
	CropLeft     int       `db:"crop_left" json:"crop_left"`
	CropTop      int       `db:"crop_top" json:"crop_top"`
	CropWidth    int       `db:"crop_width" json:"crop_width"`
	CropHeight   int       `db:"crop_height" json:"crop_height"`
	AvgLuminance float64   `db:"avg_luminance" json:"avg_luminance"`
	DurationMs   int64     `db:"duration_ms" json:"duration_ms"`
	Status       JobStatus `db:"status" json:"status"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
