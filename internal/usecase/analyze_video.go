package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fiapx/fiapx-frametype-service/internal/analysis"
	"github.com/fiapx/fiapx-frametype-service/internal/domain/entity"
	"github.com/fiapx/fiapx-frametype-service/internal/domain/port"
	"github.com/fiapx/fiapx-frametype-service/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

type Stage string

const (
	StageProbe       Stage = "probe"
	StageClassify    Stage = "classify"
	StageExtract     Stage = "extract"
	StageSizes       Stage = "sizes"
	StageReconstruct Stage = "reconstruct"
)

// StageEvent is emitted before (Done=false) and after (Done=true) each stage.
// FrameType is set for per-type extraction events.
type StageEvent struct {
	Stage     Stage
	FrameType entity.FrameType
	Done      bool
	Err       error
}

type StageObserver func(StageEvent)

type AnalyzeInput struct {
	VideoPath string
	// WorkDir receives one <T>_frames directory per frame type. It is
	// created if missing and never cleaned.
	WorkDir    string
	FrameTypes []entity.FrameType

	Reconstruct       bool
	ReconstructFPS    float64
	ReconstructOutput string
}

// Pipeline chains probe, classification, extraction, size comparison and
// optional I-frame reconstruction for a single local video.
type Pipeline struct {
	prober        port.Prober
	extractor     port.FrameExtractor
	sizes         port.SizeAnalyzer
	reconstructor port.Reconstructor
	logger        *zap.Logger
	observer      StageObserver
}

func NewPipeline(
	prober port.Prober,
	extractor port.FrameExtractor,
	sizes port.SizeAnalyzer,
	reconstructor port.Reconstructor,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		prober:        prober,
		extractor:     extractor,
		sizes:         sizes,
		reconstructor: reconstructor,
		logger:        logger,
	}
}

func (p *Pipeline) WithObserver(o StageObserver) *Pipeline {
	cp := *p
	cp.observer = o
	return &cp
}

// StageCount is the number of StageEvent pairs Run emits for in.
func StageCount(in AnalyzeInput) int {
	n := 3 + len(normalizeFrameTypes(in.FrameTypes, in.Reconstruct)) // probe, classify, sizes
	if in.Reconstruct {
		n++
	}
	return n
}

func (p *Pipeline) Run(ctx context.Context, in AnalyzeInput) (*entity.AnalysisReport, error) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "Pipeline.Run")
	defer span.End()
	span.SetAttributes(attribute.String("video.path", in.VideoPath))

	if in.VideoPath == "" || in.WorkDir == "" {
		return nil, fmt.Errorf("video path and work dir are required")
	}

	log := p.logger.With(zap.String("video", in.VideoPath))
	types := normalizeFrameTypes(in.FrameTypes, in.Reconstruct)
	report := &entity.AnalysisReport{VideoPath: in.VideoPath}

	// A probe failure aborts the run.
	err := p.stage(ctx, StageProbe, "", func(ctx context.Context) error {
		info, err := p.prober.StreamInfo(ctx, in.VideoPath)
		if err != nil {
			return err
		}
		report.Stream = info
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Error("probe failed", zap.Error(err))
		return nil, err
	}

	err = p.stage(ctx, StageClassify, "", func(ctx context.Context) error {
		tags, err := p.prober.FrameTypes(ctx, in.VideoPath)
		if err != nil {
			return err
		}
		report.Distribution = analysis.Classify(tags)
		for t, n := range report.Distribution.Counts {
			metrics.FramesClassifiedTotal.WithLabelValues(t.String()).Add(float64(n))
		}
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Error("frame classification failed", zap.Error(err))
		return nil, err
	}

	log.Info("frames classified",
		zap.Int("total", report.Distribution.Total),
		zap.Any("counts", report.Distribution.Counts),
	)

	for _, t := range types {
		dir := filepath.Join(in.WorkDir, t.DirName())
		err := p.stage(ctx, StageExtract, t, func(ctx context.Context) error {
			res, err := p.extractor.ExtractFrames(ctx, in.VideoPath, dir, t)
			if err != nil {
				return err
			}
			metrics.FramesExtractedTotal.WithLabelValues(t.String()).Add(float64(res.FrameCount))
			report.Extractions = append(report.Extractions, entity.ExtractionSummary{
				FrameType:  t,
				Directory:  dir,
				FrameCount: res.FrameCount,
				FramePaths: res.FramePaths,
			})
			return nil
		})
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			log.Error("frame extraction failed", zap.String("frame_type", t.String()), zap.Error(err))
			return nil, err
		}
	}

	err = p.stage(ctx, StageSizes, "", func(ctx context.Context) error {
		reports := make([]entity.SizeReport, 0, len(report.Extractions))
		for _, ex := range report.Extractions {
			r, err := p.sizes.Analyze(ex.Directory, ex.FrameType)
			if err != nil {
				return fmt.Errorf("size analysis of %s frames: %w", ex.FrameType, err)
			}
			reports = append(reports, r)
		}
		report.Sizes = analysis.CompareSizes(reports...)
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Error("size analysis failed", zap.Error(err))
		return nil, err
	}

	if in.Reconstruct {
		iFrames, _ := report.Extraction(entity.FrameTypeI)
		out := in.ReconstructOutput
		if out == "" {
			out = filepath.Join(in.WorkDir, "reconstructed.mp4")
		}
		err := p.stage(ctx, StageReconstruct, entity.FrameTypeI, func(ctx context.Context) error {
			return p.reconstructor.Reconstruct(ctx, iFrames.Directory, out, in.ReconstructFPS)
		})
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			log.Error("reconstruction failed", zap.Error(err))
			return nil, err
		}
		report.ReconstructedVideo = out
	}

	log.Info("analysis finished",
		zap.Bool("has_winner", report.Sizes.HasWinner),
		zap.String("winner", report.Sizes.Winner.String()),
	)
	return report, nil
}

// stage wraps fn in a span, a duration observation and observer events.
func (p *Pipeline) stage(ctx context.Context, stage Stage, t entity.FrameType, fn func(context.Context) error) error {
	ctx, span := otel.Tracer("usecase").Start(ctx, string(stage))
	defer span.End()
	if t != "" {
		span.SetAttributes(attribute.String("frame.type", t.String()))
	}

	p.notify(StageEvent{Stage: stage, FrameType: t})
	start := time.Now()
	err := fn(ctx)
	metrics.StageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if kind := entity.KindOf(err); kind != entity.KindUnknown {
			metrics.EngineFailuresTotal.WithLabelValues(kind.String()).Inc()
		}
	}
	p.notify(StageEvent{Stage: stage, FrameType: t, Done: true, Err: err})
	return err
}

func (p *Pipeline) notify(ev StageEvent) {
	if p.observer != nil {
		p.observer(ev)
	}
}

// normalizeFrameTypes defaults to I, P, B, drops duplicates and makes sure
// I-frames are extracted when a reconstruction is requested.
func normalizeFrameTypes(types []entity.FrameType, needI bool) []entity.FrameType {
	if len(types) == 0 {
		types = entity.AllFrameTypes()
	}

	seen := map[entity.FrameType]bool{}
	var out []entity.FrameType
	if needI {
		out = append(out, entity.FrameTypeI)
		seen[entity.FrameTypeI] = true
	}
	for _, t := range types {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
