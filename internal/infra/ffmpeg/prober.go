package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fiapx/fiapx-frametype-service/internal/domain/entity"
	"go.uber.org/zap"
)

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
	Duration   string `json:"duration"`
	NbFrames   string `json:"nb_frames"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

type frameOutput struct {
	Frames []struct {
		PictType string `json:"pict_type"`
	} `json:"frames"`
}

type Prober struct {
	runner  Runner
	ffprobe string
	logger  *zap.Logger
}

func NewProber(runner Runner, ffprobePath string, logger *zap.Logger) *Prober {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Prober{runner: runner, ffprobe: ffprobePath, logger: logger}
}

// StreamInfo describes the first video stream of videoPath. Any failure,
// including a file without video or a missing field, is a KindProbe
// EngineError and no partial StreamInfo is returned.
func (p *Prober) StreamInfo(ctx context.Context, videoPath string) (entity.StreamInfo, error) {
	const op = "stream info"

	stdout, stderr, err := p.runner.Run(ctx, p.ffprobe,
		"-v", "error",
		"-show_streams",
		"-show_format",
		"-of", "json",
		videoPath,
	)
	if err != nil {
		return entity.StreamInfo{}, entity.NewEngineError(entity.KindProbe, op, stderr, err)
	}

	var out probeOutput
	if err := json.Unmarshal(stdout, &out); err != nil {
		return entity.StreamInfo{}, entity.NewEngineError(entity.KindProbe, op, stderr, fmt.Errorf("parse ffprobe json: %w", err))
	}

	var video *probeStream
	for i := range out.Streams {
		if out.Streams[i].CodecType == "video" {
			video = &out.Streams[i]
			break
		}
	}
	if video == nil {
		return entity.StreamInfo{}, entity.NewEngineError(entity.KindProbe, op, stderr, entity.ErrNoVideoStream)
	}

	info, err := streamInfoFrom(video, out.Format)
	if err != nil {
		return entity.StreamInfo{}, entity.NewEngineError(entity.KindProbe, op, stderr, err)
	}

	p.logger.Debug("probed video stream",
		zap.String("video", videoPath),
		zap.String("codec", video.CodecName),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
		zap.Float64("duration", info.Duration),
		zap.String("frame_rate", info.FrameRate.String()),
		zap.Int("frame_count", info.FrameCount),
	)
	return info, nil
}

func streamInfoFrom(s *probeStream, format probeFormat) (entity.StreamInfo, error) {
	durationStr := s.Duration
	if durationStr == "" || durationStr == "N/A" {
		durationStr = format.Duration
	}
	duration, err := requiredFloat("duration", durationStr)
	if err != nil {
		return entity.StreamInfo{}, err
	}

	if s.RFrameRate == "" {
		return entity.StreamInfo{}, fmt.Errorf("%w: r_frame_rate", entity.ErrMissingField)
	}
	rate, err := entity.ParseRational(s.RFrameRate)
	if err != nil {
		return entity.StreamInfo{}, fmt.Errorf("r_frame_rate: %w", err)
	}

	if s.NbFrames == "" || s.NbFrames == "N/A" {
		return entity.StreamInfo{}, fmt.Errorf("%w: nb_frames", entity.ErrMissingField)
	}
	frames, err := strconv.Atoi(s.NbFrames)
	if err != nil {
		return entity.StreamInfo{}, fmt.Errorf("nb_frames: %w", err)
	}

	info := entity.StreamInfo{
		Width:      s.Width,
		Height:     s.Height,
		Duration:   duration,
		FrameRate:  rate,
		FrameCount: frames,
	}
	if err := info.Validate(); err != nil {
		return entity.StreamInfo{}, err
	}
	return info, nil
}

func requiredFloat(field, raw string) (float64, error) {
	if raw == "" || raw == "N/A" {
		return 0, fmt.Errorf("%w: %s", entity.ErrMissingField, field)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return v, nil
}

// FrameTypes lists the picture type of every frame of the first video stream
// in the order ffprobe reports them. Types other than I, P and B are dropped.
func (p *Prober) FrameTypes(ctx context.Context, videoPath string) ([]entity.FrameType, error) {
	const op = "frame types"

	stdout, stderr, err := p.runner.Run(ctx, p.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "frame=pict_type",
		"-of", "json",
		videoPath,
	)
	if err != nil {
		return nil, entity.NewEngineError(entity.KindProbe, op, stderr, err)
	}

	var out frameOutput
	if err := json.Unmarshal(stdout, &out); err != nil {
		return nil, entity.NewEngineError(entity.KindProbe, op, stderr, fmt.Errorf("parse ffprobe json: %w", err))
	}

	tags := make([]entity.FrameType, 0, len(out.Frames))
	skipped := map[string]int{}
	for _, f := range out.Frames {
		t, err := entity.ParseFrameType(f.PictType)
		if err != nil {
			skipped[f.PictType]++
			continue
		}
		tags = append(tags, t)
	}

	if len(skipped) > 0 {
		p.logger.Warn("skipped frames with unsupported picture type",
			zap.String("video", videoPath),
			zap.Any("picture_types", skipped),
		)
	}
	return tags, nil
}
