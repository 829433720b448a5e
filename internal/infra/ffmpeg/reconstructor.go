package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fiapx/fiapx-frametype-service/internal/domain/entity"
	ffmpeggo "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

const (
	DefaultReconstructFPS = 1.0
	DefaultCodec          = "libx264"
	DefaultPixelFormat    = "yuv420p"
)

type ReconstructorConfig struct {
	FFmpegPath  string
	ImageFormat string
	Codec       string
	PixelFormat string
}

type Reconstructor struct {
	runner Runner
	cfg    ReconstructorConfig
	logger *zap.Logger
}

func NewReconstructor(runner Runner, cfg ReconstructorConfig, logger *zap.Logger) *Reconstructor {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.ImageFormat == "" {
		cfg.ImageFormat = "png"
	}
	cfg.ImageFormat = strings.TrimPrefix(cfg.ImageFormat, ".")
	if cfg.Codec == "" {
		cfg.Codec = DefaultCodec
	}
	if cfg.PixelFormat == "" {
		cfg.PixelFormat = DefaultPixelFormat
	}
	return &Reconstructor{runner: runner, cfg: cfg, logger: logger}
}

// Reconstruct encodes the frame_%04d image sequence in framesDir into
// outputPath at frameRate fps (1 when frameRate <= 0). Gaps in the sequence
// are left to ffmpeg.
func (r *Reconstructor) Reconstruct(ctx context.Context, framesDir string, outputPath string, frameRate float64) error {
	const op = "reconstruct video"

	if frameRate <= 0 {
		frameRate = DefaultReconstructFPS
	}
	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return entity.NewEngineError(entity.KindEncoding, op, nil, fmt.Errorf("create output dir: %w", err))
		}
	}

	args := r.encodeArgs(framesDir, outputPath, frameRate)
	r.logger.Debug("running ffmpeg", zap.String("op", op), zap.Strings("args", args))

	stdout, stderr, err := r.runner.Run(ctx, r.cfg.FFmpegPath, args...)
	if err != nil {
		return entity.NewEngineError(entity.KindEncoding, op, append(stdout, stderr...), err)
	}

	r.logger.Info("video reconstructed",
		zap.String("frames_dir", framesDir),
		zap.String("output", outputPath),
		zap.Float64("fps", frameRate),
	)
	return nil
}

func (r *Reconstructor) encodeArgs(framesDir, outputPath string, frameRate float64) []string {
	return ffmpeggo.Input(FramePattern(framesDir, r.cfg.ImageFormat), ffmpeggo.KwArgs{
		"framerate": strconv.FormatFloat(frameRate, 'f', -1, 64),
	}).
		Output(outputPath, ffmpeggo.KwArgs{
			"c:v":     r.cfg.Codec,
			"pix_fmt": r.cfg.PixelFormat,
		}).
		OverWriteOutput().
		GetArgs()
}
