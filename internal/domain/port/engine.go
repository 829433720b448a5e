package port

import (
	"context"

	"github.com/fiapx/fiapx-frametype-service/internal/domain/entity"
)

type Prober interface {
	StreamInfo(ctx context.Context, videoPath string) (entity.StreamInfo, error)
	FrameTypes(ctx context.Context, videoPath string) ([]entity.FrameType, error)
}

type FrameExtractionResult struct {
	FrameType  entity.FrameType
	FramePaths []string
	FrameCount int
}

type FrameExtractor interface {
	ExtractFrames(ctx context.Context, videoPath string, outputDir string, frameType entity.FrameType) (*FrameExtractionResult, error)
}

type Reconstructor interface {
	Reconstruct(ctx context.Context, framesDir string, outputPath string, frameRate float64) error
}

type SizeAnalyzer interface {
	Analyze(dir string, frameType entity.FrameType) (entity.SizeReport, error)
}

type Zipper interface {
	CreateZip(ctx context.Context, filePaths []string, outputPath string) error
}
