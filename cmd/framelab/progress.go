package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fiapx/fiapx-frametype-service/internal/usecase"
	"github.com/schollz/progressbar/v3"
)

type progressBar struct {
	bar *progressbar.ProgressBar
}

func newProgressBar(w io.Writer, stages int) *progressBar {
	return &progressBar{
		bar: progressbar.NewOptions(stages,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("Analyzing"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "█",
				SaucerHead:    "█",
				SaucerPadding: "░",
				BarStart:      "▐",
				BarEnd:        "▌",
			}),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionClearOnFinish(),
		),
	}
}

func (p *progressBar) observe(ev usecase.StageEvent) {
	if !ev.Done {
		p.bar.Describe(stageLabel(ev))
		return
	}
	_ = p.bar.Add(1)
}

func (p *progressBar) Finish() {
	_ = p.bar.Finish()
}

func stageLabel(ev usecase.StageEvent) string {
	switch ev.Stage {
	case usecase.StageProbe:
		return "Probing stream"
	case usecase.StageClassify:
		return "Classifying frames"
	case usecase.StageExtract:
		return fmt.Sprintf("Extracting %s-frames", ev.FrameType)
	case usecase.StageSizes:
		return "Comparing sizes"
	case usecase.StageReconstruct:
		return "Reconstructing video"
	}
	return string(ev.Stage)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// pickProgressWriter returns stderr when it is a terminal, so stdout stays
// clean for the report.
func pickProgressWriter() (io.Writer, bool) {
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	return nil, false
}
