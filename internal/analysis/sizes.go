package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fiapx/fiapx-frametype-service/internal/domain/entity"
)

// SizeAnalyzer totals the byte size of extracted frame images in a directory.
type SizeAnalyzer struct {
	ext string
}

// NewSizeAnalyzer counts files with the given image extension ("png", ".jpg").
func NewSizeAnalyzer(format string) *SizeAnalyzer {
	ext := strings.ToLower(strings.TrimPrefix(format, "."))
	if ext == "" {
		ext = "png"
	}
	return &SizeAnalyzer{ext: "." + ext}
}

func (a *SizeAnalyzer) Analyze(dir string, frameType entity.FrameType) (entity.SizeReport, error) {
	files, err := a.ListImages(dir)
	if err != nil {
		return entity.SizeReport{}, err
	}

	report := entity.SizeReport{FrameType: frameType}
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			return entity.SizeReport{}, fmt.Errorf("stat %s: %w", f, err)
		}
		report.TotalBytes += info.Size()
		report.Count++
	}
	if report.Count > 0 {
		report.AverageBytes = float64(report.TotalBytes) / float64(report.Count)
	}
	return report, nil
}

// ListImages returns the sorted paths of regular image files directly in dir.
func (a *SizeAnalyzer) ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frames dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if strings.ToLower(filepath.Ext(e.Name())) != a.ext {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
