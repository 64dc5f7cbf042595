// Package main provides the headshot CLI: one-shot and batch processing
// without running the HTTP server.
//
// Run with: go run ./cmd/cli process --in portrait.jpg --out headshot.jpg
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rmarek/headshot-service/internal/config"
	"github.com/rmarek/headshot-service/internal/detector"
	"github.com/rmarek/headshot-service/internal/engine"
	"github.com/rmarek/headshot-service/internal/preset"
	"github.com/rmarek/headshot-service/internal/service"
	"github.com/rmarek/headshot-service/internal/transform"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "headshot",
		Short: "Portrait cropping and enhancement tools",
	}

	root.AddCommand(processCmd())
	root.AddCommand(batchCmd())
	root.AddCommand(presetsCmd())
	return root
}

func processCmd() *cobra.Command {
	var in, out, presetName, overridesJSON string

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process a single portrait",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(in, out, presetName, overridesJSON)
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "Input image path")
	cmd.Flags().StringVar(&out, "out", "", "Output image path")
	cmd.Flags().StringVar(&presetName, "preset", "", "Preset name (default preset when empty)")
	cmd.Flags().StringVar(&overridesJSON, "overrides", "", "JSON config overrides")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func batchCmd() *cobra.Command {
	var inDir, outDir, presetName string
	var workers int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Process every portrait in a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(inDir, outDir, presetName, workers)
		},
	}

	cmd.Flags().StringVar(&inDir, "in-dir", "", "Input directory")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Output directory")
	cmd.Flags().StringVar(&presetName, "preset", "", "Preset name (default preset when empty)")
	cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent pipeline runs")
	_ = cmd.MarkFlagRequired("in-dir")
	_ = cmd.MarkFlagRequired("out-dir")
	return cmd
}

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range preset.Names() {
				marker := " "
				if name == preset.DefaultName {
					marker = "*"
				}
				fmt.Printf("%s %s\n", marker, name)
			}
			return nil
		},
	}
}

// newProcessor builds a pipeline-only service: no job log, no output
// cache. The caller must defer transform.Shutdown.
func newProcessor(logger *zap.Logger) (*service.ProcessService, error) {
	configPath := os.Getenv("HEADSHOT_CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	transform.Startup(cfg.Transform.Concurrency)

	faces := detector.New(detector.Config{
		CascadePath:      cfg.Detector.CascadePath,
		MinSize:          cfg.Detector.MinSize,
		MaxSize:          cfg.Detector.MaxSize,
		ShiftFactor:      cfg.Detector.ShiftFactor,
		ScaleFactor:      cfg.Detector.ScaleFactor,
		ClusterIoU:       cfg.Detector.ClusterIoU,
		QualityThreshold: cfg.Detector.QualityThreshold,
		MaxDetectionEdge: cfg.Detector.MaxDetectionEdge,
	}, logger)

	orchestrator := engine.NewOrchestrator(faces, transform.NewEngine(logger), logger)
	return service.NewProcessService(orchestrator, nil, nil, logger), nil
}

func runProcess(in, out, presetName, overridesJSON string) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	processor, err := newProcessor(logger)
	if err != nil {
		return err
	}
	defer transform.Shutdown()

	var overrides *preset.Overrides
	if overridesJSON != "" {
		overrides, err = preset.Decode([]byte(overridesJSON), logger)
		if err != nil {
			return fmt.Errorf("parsing overrides: %w", err)
		}
	}

	raw, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	resp, err := processor.Process(context.Background(), service.Request{
		RequestID: uuid.NewString(),
		Preset:    presetName,
		Overrides: overrides,
		Image:     raw,
	})
	if err != nil {
		return fmt.Errorf("processing %s: %w", in, err)
	}

	if err := os.WriteFile(out, resp.Output, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	logger.Info("processed",
		zap.String("in", in),
		zap.String("out", out),
		zap.Bool("face_found", resp.Report.Face != nil),
	)
	return nil
}

func runBatch(inDir, outDir, presetName string, workers int) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	processor, err := newProcessor(logger)
	if err != nil {
		return err
	}
	defer transform.Shutdown()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	inputs, err := listImages(inDir)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no images found in %s", inDir)
	}

	// Ctrl+C stops scheduling new files; in-flight files finish.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("cancelling batch...")
		cancel()
	}()

	if workers < 1 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var failed atomic.Int64
	for _, in := range inputs {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			raw, err := os.ReadFile(in)
			if err != nil {
				logger.Error("reading input", zap.String("file", in), zap.Error(err))
				failed.Add(1)
				return nil
			}

			resp, err := processor.Process(ctx, service.Request{
				RequestID: uuid.NewString(),
				Preset:    presetName,
				Image:     raw,
			})
			if err != nil {
				// One bad portrait must not abort the batch.
				logger.Error("processing failed", zap.String("file", in), zap.Error(err))
				failed.Add(1)
				return nil
			}

			out := outputPath(outDir, in, resp.Format)
			if err := os.WriteFile(out, resp.Output, 0o644); err != nil {
				logger.Error("writing output", zap.String("file", out), zap.Error(err))
				failed.Add(1)
				return nil
			}

			logger.Info("processed",
				zap.String("in", in),
				zap.String("out", out),
				zap.Bool("face_found", resp.Report.Face != nil),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}

	logger.Info("batch complete",
		zap.Int("total", len(inputs)),
		zap.Int64("failed", failed.Load()),
	)
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d files failed", n, len(inputs))
	}
	return nil
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png", ".webp":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

func outputPath(outDir, in, format string) string {
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	ext := ".jpg"
	switch format {
	case preset.FormatPNG:
		ext = ".png"
	case preset.FormatWebP:
		ext = ".webp"
	}
	return filepath.Join(outDir, base+ext)
}
