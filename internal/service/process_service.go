// Package service contains the request-level logic around the pipeline
// core: config resolution at the boundary, the output cache fast path, and
// job bookkeeping.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/rmarek/headshot-service/internal/engine"
	"github.com/rmarek/headshot-service/internal/model"
	"github.com/rmarek/headshot-service/internal/preset"
	"github.com/rmarek/headshot-service/internal/storage"
)

// Request is one processing request as it arrives from HTTP or the CLI.
type Request struct {
	RequestID string
	Preset    string
	Overrides *preset.Overrides
	Image     []byte
}

// Response carries the processed bytes plus the material for Content-Type
// and diagnostics.
type Response struct {
	Output []byte
	Format string
	Report engine.Report
	Cached bool
}

// ProcessService runs requests through the pipeline, serving override-free
// repeats from the output cache and recording every run in the job log.
type ProcessService struct {
	orchestrator *engine.Orchestrator
	jobs         storage.JobRepository
	cache        *storage.Cache
	logger       *zap.Logger
}

// NewProcessService wires the request layer. jobs and cache may be nil in
// tests; both are best-effort and never fail a request.
func NewProcessService(orchestrator *engine.Orchestrator, jobs storage.JobRepository, cache *storage.Cache, logger *zap.Logger) *ProcessService {
	return &ProcessService{
		orchestrator: orchestrator,
		jobs:         jobs,
		cache:        cache,
		logger:       logger,
	}
}

// Process resolves the config, consults the cache, and runs the pipeline.
// Config resolution happens first so an incomplete config fails before any
// pixel work.
func (s *ProcessService) Process(ctx context.Context, req Request) (*Response, error) {
	cfg, err := preset.Resolve(req.Preset, req.Overrides)
	if err != nil {
		return nil, err
	}

	digest := contentDigest(req.Image)
	cacheable := s.cache != nil && req.Overrides.Empty()

	if cacheable {
		if data, err := s.cache.Read(digest, cfg.Name, cfg.Output.Format); err == nil {
			s.logger.Debug("cache hit",
				zap.String("request_id", req.RequestID),
				zap.String("digest", digest),
				zap.String("preset", cfg.Name),
			)
			return &Response{Output: data, Format: cfg.Output.Format, Cached: true}, nil
		}
	}

	started := time.Now()
	result, err := s.orchestrator.Process(ctx, req.Image, cfg)
	duration := time.Since(started)

	if err != nil {
		s.recordJob(req, digest, cfg.Name, nil, duration, err)
		return nil, err
	}
	s.recordJob(req, digest, cfg.Name, &result.Report, duration, nil)

	if cacheable {
		if err := s.cache.Write(digest, cfg.Name, cfg.Output.Format, result.Output); err != nil {
			s.logger.Warn("caching output failed", zap.Error(err))
		}
	}

	s.logger.Info("request processed",
		zap.String("request_id", req.RequestID),
		zap.String("preset", cfg.Name),
		zap.Bool("face_found", result.Report.Face != nil),
		zap.Duration("duration", duration),
	)

	return &Response{Output: result.Output, Format: cfg.Output.Format, Report: result.Report}, nil
}

// recordJob writes the bookkeeping row. Failures are logged, never
// surfaced: bookkeeping must not break image delivery.
func (s *ProcessService) recordJob(req Request, digest, presetName string, report *engine.Report, duration time.Duration, procErr error) {
	if s.jobs == nil {
		return
	}

	job := &model.JobRecord{
		RequestID:  req.RequestID,
		Digest:     digest,
		Preset:     presetName,
		DurationMs: duration.Milliseconds(),
		Status:     model.JobCompleted,
	}
	if report != nil {
		job.FaceFound = report.Face != nil
		job.TightCrop = report.Verdict != nil && report.Verdict.IsTight
		job.CropLeft = report.Region.Left
		job.CropTop = report.Region.Top
		job.CropWidth = report.Region.Width
		job.CropHeight = report.Region.Height
		job.AvgLuminance = report.AvgLuminance
	}
	if procErr != nil {
		job.Status = model.JobFailed
		msg := procErr.Error()
		job.ErrorMessage = &msg
	}

	// Detached context: the record should land even when the request's
	// context is already canceled.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.jobs.Create(ctx, job); err != nil {
		s.logger.Warn("recording job failed", zap.Error(err))
	}
}

func contentDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
