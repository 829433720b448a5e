package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fiapx/fiapx-frametype-service/internal/domain/entity"
	"github.com/fiapx/fiapx-frametype-service/internal/domain/port"
	ffmpeggo "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

type Extractor struct {
	runner Runner
	ffmpeg string
	format string
	logger *zap.Logger
}

func NewExtractor(runner Runner, ffmpegPath string, format string, logger *zap.Logger) *Extractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if format == "" {
		format = "png"
	}
	return &Extractor{runner: runner, ffmpeg: ffmpegPath, format: strings.TrimPrefix(format, "."), logger: logger}
}

// ExtractFrames writes every frame of frameType in videoPath to outputDir as
// frame_0001.<format>, frame_0002.<format>, ... The directory is created if
// needed and never cleared, so earlier files with higher sequence numbers
// survive. The result lists only the files this call wrote, detected by a
// change in modification time or size. A rewrite that keeps both (same bytes
// within one timestamp tick on a coarse-grained filesystem) is not counted.
func (e *Extractor) ExtractFrames(ctx context.Context, videoPath string, outputDir string, frameType entity.FrameType) (*port.FrameExtractionResult, error) {
	op := fmt.Sprintf("extract %s frames", frameType)

	if _, err := entity.ParseFrameType(string(frameType)); err != nil {
		return nil, entity.NewEngineError(entity.KindExtraction, op, nil, err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, entity.NewEngineError(entity.KindExtraction, op, nil, fmt.Errorf("create output dir: %w", err))
	}

	before, err := e.snapshot(outputDir)
	if err != nil {
		return nil, entity.NewEngineError(entity.KindExtraction, op, nil, err)
	}

	args := e.extractArgs(videoPath, outputDir, frameType)
	e.logger.Debug("running ffmpeg", zap.String("op", op), zap.Strings("args", args))

	stdout, stderr, err := e.runner.Run(ctx, e.ffmpeg, args...)
	if err != nil {
		return nil, entity.NewEngineError(entity.KindExtraction, op, append(stdout, stderr...), err)
	}

	after, err := e.snapshot(outputDir)
	if err != nil {
		return nil, entity.NewEngineError(entity.KindExtraction, op, nil, err)
	}

	var written []string
	for path, cur := range after {
		if prev, existed := before[path]; !existed || prev.changed(cur) {
			written = append(written, path)
		}
	}
	sort.Strings(written)

	e.logger.Info("frames extracted",
		zap.String("frame_type", frameType.String()),
		zap.String("dir", outputDir),
		zap.Int("count", len(written)),
	)

	return &port.FrameExtractionResult{
		FrameType:  frameType,
		FramePaths: written,
		FrameCount: len(written),
	}, nil
}

func (e *Extractor) extractArgs(videoPath, outputDir string, frameType entity.FrameType) []string {
	return ffmpeggo.Input(videoPath).
		Output(FramePattern(outputDir, e.format), ffmpeggo.KwArgs{
			"vf":    SelectFilter(frameType),
			"vsync": "vfr",
		}).
		OverWriteOutput().
		GetArgs()
}

// SelectFilter is the ffmpeg video filter keeping only frames of frameType.
func SelectFilter(frameType entity.FrameType) string {
	return fmt.Sprintf(`select=eq(pict_type\,%s)`, frameType)
}

type fileStamp struct {
	modTime time.Time
	size    int64
}

func (s fileStamp) changed(cur fileStamp) bool {
	return !s.modTime.Equal(cur.modTime) || s.size != cur.size
}

func (e *Extractor) snapshot(dir string) (map[string]fileStamp, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "frame_*."+e.format))
	if err != nil {
		return nil, fmt.Errorf("glob frames: %w", err)
	}

	files := make(map[string]fileStamp, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("stat frame: %w", err)
		}
		if info.Mode().IsRegular() {
			files[m] = fileStamp{modTime: info.ModTime(), size: info.Size()}
		}
	}
	return files, nil
}
