package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fiapx/fiapx-frametype-service/internal/analysis"
	"github.com/fiapx/fiapx-frametype-service/internal/domain/entity"
)

// fail reports err on stderr and returns the process exit code. Engine
// failures print the stage and ffmpeg's own diagnostic rather than the Go
// error chain.
func fail(err error) int {
	fmt.Fprintln(os.Stderr, failureLine(err))
	return 1
}

func failureLine(err error) string {
	var engineErr *entity.EngineError
	if !errors.As(err, &engineErr) {
		return "error: " + err.Error()
	}
	diag := engineErr.Diagnostic
	if diag == "" && engineErr.Err != nil {
		diag = engineErr.Err.Error()
	}
	return fmt.Sprintf("%s stage failed: %s", engineErr.Kind, diag)
}

func emitJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fail(err)
	}
	return 0
}

func printStreamInfo(w io.Writer, info entity.StreamInfo) {
	fmt.Fprintf(w, "Resolution: %dx%d\n", info.Width, info.Height)
	fmt.Fprintf(w, "Duration: %.2f seconds\n", info.Duration)
	fmt.Fprintf(w, "Frame Rate: %.2f fps (%s)\n", info.FrameRate.Float64(), info.FrameRate)
	fmt.Fprintf(w, "Frame Count: %d\n", info.FrameCount)
}

func printDistribution(w io.Writer, dist entity.FrameDistribution) {
	fmt.Fprintf(w, "Total frames: %d\n", dist.Total)
	for _, t := range entity.AllFrameTypes() {
		fmt.Fprintf(w, "%s-frames: %d (%.2f%%)\n", t, dist.Counts[t], dist.Percentages[t])
	}
}

func printSizes(w io.Writer, cmp entity.SizeComparison) {
	for _, r := range cmp.Reports {
		fmt.Fprintln(w, analysis.ReportLine(r))
	}
	fmt.Fprintln(w, analysis.Conclusion(cmp))
}

func printReport(w io.Writer, r *entity.AnalysisReport) {
	fmt.Fprintf(w, "Video: %s\n\n", r.VideoPath)
	printStreamInfo(w, r.Stream)

	fmt.Fprintln(w)
	printDistribution(w, r.Distribution)

	fmt.Fprintln(w)
	for _, ex := range r.Extractions {
		fmt.Fprintf(w, "Extracted %d %s-frames to %s\n", ex.FrameCount, ex.FrameType, ex.Directory)
	}

	fmt.Fprintln(w)
	printSizes(w, r.Sizes)

	if r.ReconstructedVideo != "" {
		fmt.Fprintf(w, "\nVideo reconstructed at %s\n", r.ReconstructedVideo)
	}
}
