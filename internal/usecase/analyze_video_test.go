package usecase

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fiapx/fiapx-frametype-service/internal/analysis"
	"github.com/fiapx/fiapx-frametype-service/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	I = entity.FrameTypeI
	P = entity.FrameTypeP
	B = entity.FrameTypeB
)

func newTestPipeline() (*Pipeline, *fakeProber, *fakeExtractor, *fakeReconstructor) {
	prober := &fakeProber{
		info: entity.StreamInfo{
			Width:      320,
			Height:     240,
			Duration:   2,
			FrameRate:  entity.Rational{Num: 25, Den: 1},
			FrameCount: 6,
		},
		tags: []entity.FrameType{I, P, B, B, P, I},
	}
	extractor := &fakeExtractor{
		perType: map[entity.FrameType]int{I: 2, P: 2, B: 2},
		sizes:   map[entity.FrameType]int{I: 3000, P: 1000, B: 500},
	}
	rec := &fakeReconstructor{}
	p := NewPipeline(prober, extractor, analysis.NewSizeAnalyzer("png"), rec, zap.NewNop())
	return p, prober, extractor, rec
}

func TestPipelineRun(t *testing.T) {
	p, _, extractor, rec := newTestPipeline()
	work := t.TempDir()

	report, err := p.Run(context.Background(), AnalyzeInput{VideoPath: "clip.mp4", WorkDir: work})
	require.NoError(t, err)

	assert.Equal(t, 320, report.Stream.Width)
	assert.Equal(t, 6, report.Distribution.Total)
	assert.Equal(t, 2, report.Distribution.Counts[B])
	assert.InDelta(t, 33.33, report.Distribution.Percentages[I], 0.01)

	assert.Equal(t, []entity.FrameType{I, P, B}, extractor.calls)
	require.Len(t, report.Extractions, 3)
	assert.Equal(t, filepath.Join(work, "P_frames"), report.Extractions[1].Directory)

	assert.True(t, report.Sizes.HasWinner)
	assert.Equal(t, I, report.Sizes.Winner)
	assert.Empty(t, report.ReconstructedVideo)
	assert.Empty(t, rec.output, "reconstruction not requested")
}

func TestPipelineProbeFailureAborts(t *testing.T) {
	p, prober, extractor, _ := newTestPipeline()
	prober.infoErr = entity.NewEngineError(entity.KindProbe, "ffprobe", []byte("moov atom not found"), errBoom)

	report, err := p.Run(context.Background(), AnalyzeInput{VideoPath: "broken.mp4", WorkDir: t.TempDir()})
	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, entity.ErrProbe)
	assert.Equal(t, 0, prober.classify)
	assert.Empty(t, extractor.calls)
}

func TestPipelineExtractionFailure(t *testing.T) {
	p, _, extractor, _ := newTestPipeline()
	extractor.err = entity.NewEngineError(entity.KindExtraction, "ffmpeg", nil, errBoom)

	_, err := p.Run(context.Background(), AnalyzeInput{VideoPath: "clip.mp4", WorkDir: t.TempDir()})
	assert.ErrorIs(t, err, entity.ErrExtraction)
	assert.Equal(t, entity.KindExtraction, entity.KindOf(err))
	assert.Len(t, extractor.calls, 1, "stops at the first failing type")
}

func TestPipelineReconstructForcesIFrames(t *testing.T) {
	p, _, extractor, rec := newTestPipeline()
	work := t.TempDir()

	report, err := p.Run(context.Background(), AnalyzeInput{
		VideoPath:      "clip.mp4",
		WorkDir:        work,
		FrameTypes:     []entity.FrameType{B},
		Reconstruct:    true,
		ReconstructFPS: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, []entity.FrameType{I, B}, extractor.calls)
	assert.Equal(t, filepath.Join(work, "I_frames"), rec.framesDir)
	assert.Equal(t, filepath.Join(work, "reconstructed.mp4"), rec.output)
	assert.Equal(t, 2.0, rec.fps)
	assert.Equal(t, rec.output, report.ReconstructedVideo)
}

func TestPipelineReconstructCustomOutput(t *testing.T) {
	p, _, _, rec := newTestPipeline()
	out := filepath.Join(t.TempDir(), "out.mp4")

	report, err := p.Run(context.Background(), AnalyzeInput{
		VideoPath:         "clip.mp4",
		WorkDir:           t.TempDir(),
		Reconstruct:       true,
		ReconstructOutput: out,
	})
	require.NoError(t, err)
	assert.Equal(t, out, rec.output)
	assert.Equal(t, out, report.ReconstructedVideo)
}

func TestPipelineReconstructFailure(t *testing.T) {
	p, _, _, rec := newTestPipeline()
	rec.err = entity.NewEngineError(entity.KindEncoding, "ffmpeg", []byte("Unknown encoder"), errBoom)

	_, err := p.Run(context.Background(), AnalyzeInput{VideoPath: "clip.mp4", WorkDir: t.TempDir(), Reconstruct: true})
	assert.ErrorIs(t, err, entity.ErrEncoding)
}

func TestPipelineObserverEvents(t *testing.T) {
	p, _, _, _ := newTestPipeline()
	in := AnalyzeInput{VideoPath: "clip.mp4", WorkDir: t.TempDir(), Reconstruct: true}

	var events []StageEvent
	_, err := p.WithObserver(func(ev StageEvent) { events = append(events, ev) }).Run(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, events, 2*StageCount(in))
	assert.Equal(t, StageEvent{Stage: StageProbe}, events[0])
	assert.Equal(t, StageEvent{Stage: StageProbe, Done: true}, events[1])
	assert.Equal(t, StageExtract, events[4].Stage)
	assert.Equal(t, I, events[4].FrameType)
	assert.Equal(t, StageReconstruct, events[len(events)-1].Stage)
	assert.True(t, events[len(events)-1].Done)
}

func TestPipelineWithObserverLeavesOriginalUntouched(t *testing.T) {
	p, _, _, _ := newTestPipeline()
	_ = p.WithObserver(func(StageEvent) {})
	assert.Nil(t, p.observer)
}

func TestPipelineRequiresPaths(t *testing.T) {
	p, prober, _, _ := newTestPipeline()
	_, err := p.Run(context.Background(), AnalyzeInput{VideoPath: "clip.mp4"})
	assert.Error(t, err)
	assert.Equal(t, 0, prober.probed)
}

func TestNormalizeFrameTypes(t *testing.T) {
	tests := []struct {
		name  string
		in    []entity.FrameType
		needI bool
		want  []entity.FrameType
	}{
		{"default", nil, false, []entity.FrameType{I, P, B}},
		{"dedup", []entity.FrameType{B, B, P}, false, []entity.FrameType{B, P}},
		{"I first when reconstructing", []entity.FrameType{P, I}, true, []entity.FrameType{I, P}},
		{"I added when reconstructing", []entity.FrameType{B}, true, []entity.FrameType{I, B}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeFrameTypes(tt.in, tt.needI))
		})
	}
}

func TestStageCount(t *testing.T) {
	assert.Equal(t, 6, StageCount(AnalyzeInput{}))
	assert.Equal(t, 6, StageCount(AnalyzeInput{FrameTypes: []entity.FrameType{B}, Reconstruct: true}))
}
