package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fiapx/fiapx-frametype-service/internal/domain/entity"
	"github.com/fiapx/fiapx-frametype-service/internal/domain/port"
)

type fakeProber struct {
	info     entity.StreamInfo
	infoErr  error
	tags     []entity.FrameType
	tagsErr  error
	probed   int
	classify int
}

func (f *fakeProber) StreamInfo(context.Context, string) (entity.StreamInfo, error) {
	f.probed++
	return f.info, f.infoErr
}

func (f *fakeProber) FrameTypes(context.Context, string) ([]entity.FrameType, error) {
	f.classify++
	return f.tags, f.tagsErr
}

// fakeExtractor writes perType[t] files of sizes[t] bytes into the output dir.
type fakeExtractor struct {
	perType map[entity.FrameType]int
	sizes   map[entity.FrameType]int
	err     error
	calls   []entity.FrameType
}

func (f *fakeExtractor) ExtractFrames(_ context.Context, _ string, outputDir string, t entity.FrameType) (*port.FrameExtractionResult, error) {
	f.calls = append(f.calls, t)
	if f.err != nil {
		return nil, f.err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	res := &port.FrameExtractionResult{FrameType: t}
	for i := 1; i <= f.perType[t]; i++ {
		p := filepath.Join(outputDir, fmt.Sprintf("frame_%04d.png", i))
		if err := os.WriteFile(p, make([]byte, f.sizes[t]), 0o644); err != nil {
			return nil, err
		}
		res.FramePaths = append(res.FramePaths, p)
	}
	res.FrameCount = len(res.FramePaths)
	return res, nil
}

type fakeReconstructor struct {
	err       error
	framesDir string
	output    string
	fps       float64
}

func (f *fakeReconstructor) Reconstruct(_ context.Context, framesDir, outputPath string, fps float64) error {
	f.framesDir, f.output, f.fps = framesDir, outputPath, fps
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outputPath, []byte("mp4"), 0o644)
}

type fakeZipper struct {
	zipped map[string][]string
}

func (f *fakeZipper) CreateZip(_ context.Context, paths []string, out string) error {
	if f.zipped == nil {
		f.zipped = map[string][]string{}
	}
	f.zipped[filepath.Base(out)] = paths
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	return os.WriteFile(out, []byte("PK"), 0o644)
}

type fakeStorage struct {
	mu          sync.Mutex
	downloadErr error
	uploadErr   error
	uploads     map[string]string
}

func (f *fakeStorage) DownloadVideo(_ context.Context, _ string, dest string) error {
	if f.downloadErr != nil {
		return f.downloadErr
	}
	return os.WriteFile(dest, []byte("video"), 0o644)
}

func (f *fakeStorage) UploadArtifact(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploads == nil {
		f.uploads = map[string]string{}
	}
	f.uploads[key] = contentType
	return nil
}

type fakePublisher struct {
	results [][]byte
}

func (f *fakePublisher) PublishResult(_ context.Context, msg []byte) error {
	f.results = append(f.results, msg)
	return nil
}

type fakeDLQ struct {
	reasons []string
	bodies  [][]byte
}

func (f *fakeDLQ) PublishToDLQ(_ context.Context, msg []byte, reason string) error {
	f.bodies = append(f.bodies, msg)
	f.reasons = append(f.reasons, reason)
	return nil
}

type fakeNotifier struct {
	sent []string
}

func (f *fakeNotifier) NotifyFailure(_ context.Context, email, _, _, stage, msg string, exhausted bool) error {
	f.sent = append(f.sent, strings.Join([]string{email, stage, msg, strconv.FormatBool(exhausted)}, "|"))
	return nil
}

var errBoom = errors.New("boom")
