package ffmpeg

import (
	"context"
	"errors"
	"testing"

	"github.com/fiapx/fiapx-frametype-service/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const probeJSON = `{
  "streams": [
    {"index": 0, "codec_name": "aac", "codec_type": "audio", "duration": "10.0"},
    {"index": 1, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080,
     "r_frame_rate": "30000/1001", "duration": "10.010000", "nb_frames": "300"}
  ],
  "format": {"duration": "10.050000"}
}`

func TestProberStreamInfo(t *testing.T) {
	runner := &fakeRunner{fn: respond(probeJSON)}
	p := NewProber(runner, "", zap.NewNop())

	info, err := p.StreamInfo(context.Background(), "clip.mp4")
	require.NoError(t, err)

	assert.Equal(t, 1920, info.Width)
	assert.Equal(t, 1080, info.Height)
	assert.InDelta(t, 10.01, info.Duration, 1e-9)
	assert.Equal(t, entity.Rational{Num: 30000, Den: 1001}, info.FrameRate)
	assert.Equal(t, 300, info.FrameCount)

	c := runner.lastCall()
	assert.Equal(t, "ffprobe", c.name)
	assert.Equal(t, "json", flagValue(c.args, "-of"))
	assert.True(t, hasArg(c.args, "-show_streams"))
	assert.Equal(t, "clip.mp4", c.args[len(c.args)-1])
}

func TestProberStreamInfoFallsBackToFormatDuration(t *testing.T) {
	runner := &fakeRunner{fn: respond(`{
	  "streams": [{"codec_type": "video", "width": 320, "height": 240, "r_frame_rate": "25/1", "nb_frames": "50"}],
	  "format": {"duration": "2.000000"}
	}`)}

	info, err := NewProber(runner, "/opt/bin/ffprobe", zap.NewNop()).StreamInfo(context.Background(), "a.mkv")
	require.NoError(t, err)
	assert.Equal(t, 2.0, info.Duration)
	assert.Equal(t, "/opt/bin/ffprobe", runner.lastCall().name)
}

func TestProberStreamInfoFailures(t *testing.T) {
	tests := []struct {
		name    string
		stdout  string
		wantErr error
	}{
		{"no video stream", `{"streams": [{"codec_type": "audio"}], "format": {"duration": "3"}}`, entity.ErrNoVideoStream},
		{"missing nb_frames", `{"streams": [{"codec_type": "video", "width": 2, "height": 2, "r_frame_rate": "25/1", "duration": "1"}]}`, entity.ErrMissingField},
		{"missing duration", `{"streams": [{"codec_type": "video", "width": 2, "height": 2, "r_frame_rate": "25/1", "nb_frames": "1"}]}`, entity.ErrMissingField},
		{"missing frame rate", `{"streams": [{"codec_type": "video", "width": 2, "height": 2, "duration": "1", "nb_frames": "1"}]}`, entity.ErrMissingField},
		{"zero denominator", `{"streams": [{"codec_type": "video", "width": 2, "height": 2, "r_frame_rate": "0/0", "duration": "1", "nb_frames": "1"}]}`, entity.ErrInvalidRational},
		{"zero width", `{"streams": [{"codec_type": "video", "width": 0, "height": 2, "r_frame_rate": "25/1", "duration": "1", "nb_frames": "1"}]}`, nil},
		{"not json", `Invalid data found when processing input`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProber(&fakeRunner{fn: respond(tt.stdout)}, "", zap.NewNop())
			info, err := p.StreamInfo(context.Background(), "x.mp4")

			require.Error(t, err)
			assert.ErrorIs(t, err, entity.ErrProbe)
			assert.Equal(t, entity.StreamInfo{}, info)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestProberEngineFailureCarriesDiagnostic(t *testing.T) {
	runner := &fakeRunner{fn: func(string, []string) ([]byte, []byte, error) {
		return nil, []byte("missing.mp4: No such file or directory\n"), errors.New("exit status 1")
	}}
	p := NewProber(runner, "", zap.NewNop())

	_, err := p.StreamInfo(context.Background(), "missing.mp4")
	require.Error(t, err)

	var engineErr *entity.EngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, entity.KindProbe, engineErr.Kind)
	assert.Equal(t, "missing.mp4: No such file or directory", engineErr.Diagnostic)

	_, err = p.FrameTypes(context.Background(), "missing.mp4")
	assert.ErrorIs(t, err, entity.ErrProbe)
}

func TestProberFrameTypes(t *testing.T) {
	runner := &fakeRunner{fn: respond(`{"frames": [
		{"pict_type": "I"}, {"pict_type": "P"}, {"pict_type": "B"},
		{"pict_type": "?"}, {"pict_type": "B"}, {"pict_type": "P"}
	]}`)}
	p := NewProber(runner, "", zap.NewNop())

	tags, err := p.FrameTypes(context.Background(), "clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, []entity.FrameType{"I", "P", "B", "B", "P"}, tags)

	c := runner.lastCall()
	assert.Equal(t, "v:0", flagValue(c.args, "-select_streams"))
	assert.Equal(t, "frame=pict_type", flagValue(c.args, "-show_entries"))
}

func TestProberFrameTypesEmptyAndMalformed(t *testing.T) {
	p := NewProber(&fakeRunner{fn: respond(`{}`)}, "", zap.NewNop())
	tags, err := p.FrameTypes(context.Background(), "empty.mp4")
	require.NoError(t, err)
	assert.Empty(t, tags)

	p = NewProber(&fakeRunner{fn: respond(`{"frames": [`)}, "", zap.NewNop())
	_, err = p.FrameTypes(context.Background(), "bad.mp4")
	assert.ErrorIs(t, err, entity.ErrProbe)
}
