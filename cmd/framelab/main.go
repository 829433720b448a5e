package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fiapx/fiapx-frametype-service/internal/analysis"
	"github.com/fiapx/fiapx-frametype-service/internal/domain/entity"
	"github.com/fiapx/fiapx-frametype-service/internal/infra/config"
	"github.com/fiapx/fiapx-frametype-service/internal/infra/ffmpeg"
	"github.com/fiapx/fiapx-frametype-service/internal/usecase"
	"github.com/fiapx/fiapx-frametype-service/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmds := map[string]func(context.Context, []string) int{
		"probe":       probeCmd,
		"classify":    classifyCmd,
		"extract":     extractCmd,
		"sizes":       sizesCmd,
		"reconstruct": reconstructCmd,
		"analyze":     analyzeCmd,
	}
	cmd, ok := cmds[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
	if code := cmd(ctx, args[1:]); code != 0 {
		os.Exit(code)
	}
}

// engine bundles the media-engine adapters built from the environment.
type engine struct {
	cfg           *config.Config
	log           *zap.Logger
	prober        *ffmpeg.Prober
	extractor     *ffmpeg.Extractor
	reconstructor *ffmpeg.Reconstructor
	sizes         *analysis.SizeAnalyzer
}

func newEngine(logLevel string) (*engine, error) {
	cfg, err := config.LoadWithDotenv(".env")
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.NewConsole(logLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	runner := ffmpeg.NewExecRunner(cfg.EngineTimeout)
	reconstructor := ffmpeg.NewReconstructor(runner, ffmpeg.ReconstructorConfig{
		FFmpegPath:  cfg.FFmpegPath,
		ImageFormat: cfg.FrameImageFormat,
		Codec:       cfg.ReconstructCodec,
		PixelFormat: cfg.ReconstructPixFmt,
	}, log)

	return &engine{
		cfg:           cfg,
		log:           log,
		prober:        ffmpeg.NewProber(runner, cfg.FFprobePath, log),
		extractor:     ffmpeg.NewExtractor(runner, cfg.FFmpegPath, cfg.FrameImageFormat, log),
		reconstructor: reconstructor,
		sizes:         analysis.NewSizeAnalyzer(cfg.FrameImageFormat),
	}, nil
}

func (e *engine) pipeline() *usecase.Pipeline {
	return usecase.NewPipeline(e.prober, e.extractor, e.sizes, e.reconstructor, e.log)
}

type commonFlags struct {
	logLevel string
	json     bool
}

func newFlagSet(name string, usage string) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	c := &commonFlags{}
	fs.StringVar(&c.logLevel, "log-level", "warn", "engine log level (debug, info, warn, error)")
	fs.BoolVar(&c.json, "json", false, "print the result as JSON")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: framelab %s %s\n\nflags:\n", name, usage)
		fs.PrintDefaults()
	}
	return fs, c
}

// parseArgs lets flags appear before, between or after positional arguments.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

func parseCommand(fs *flag.FlagSet, args []string, want int, exact bool) ([]string, int) {
	pos, err := parseArgs(fs, args)
	if errors.Is(err, flag.ErrHelp) {
		return nil, 0
	}
	if err != nil {
		return nil, 2
	}
	if len(pos) < want || (exact && len(pos) != want) {
		fs.Usage()
		return nil, 2
	}
	return pos, -1
}

func probeCmd(ctx context.Context, args []string) int {
	fs, c := newFlagSet("probe", "<video>")
	pos, code := parseCommand(fs, args, 1, true)
	if code >= 0 {
		return code
	}
	e, err := newEngine(c.logLevel)
	if err != nil {
		return fail(err)
	}

	info, err := e.prober.StreamInfo(ctx, pos[0])
	if err != nil {
		return fail(err)
	}
	if c.json {
		return emitJSON(info)
	}
	printStreamInfo(os.Stdout, info)
	return 0
}

func classifyCmd(ctx context.Context, args []string) int {
	fs, c := newFlagSet("classify", "<video>")
	pos, code := parseCommand(fs, args, 1, true)
	if code >= 0 {
		return code
	}
	e, err := newEngine(c.logLevel)
	if err != nil {
		return fail(err)
	}

	tags, err := e.prober.FrameTypes(ctx, pos[0])
	if err != nil {
		return fail(err)
	}
	dist := analysis.Classify(tags)
	if c.json {
		return emitJSON(dist)
	}
	printDistribution(os.Stdout, dist)
	return 0
}

func extractCmd(ctx context.Context, args []string) int {
	fs, c := newFlagSet("extract", "<video> <output-dir> <I|P|B>")
	pos, code := parseCommand(fs, args, 3, true)
	if code >= 0 {
		return code
	}
	t, err := entity.ParseFrameType(pos[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	e, err := newEngine(c.logLevel)
	if err != nil {
		return fail(err)
	}

	res, err := e.extractor.ExtractFrames(ctx, pos[0], pos[1], t)
	if err != nil {
		return fail(err)
	}
	summary := entity.ExtractionSummary{FrameType: t, Directory: pos[1], FrameCount: res.FrameCount}
	if c.json {
		return emitJSON(summary)
	}
	fmt.Fprintf(os.Stdout, "Extracted %d %s-frames to %s\n", summary.FrameCount, t, summary.Directory)
	return 0
}

func sizesCmd(_ context.Context, args []string) int {
	fs, c := newFlagSet("sizes", "<T_frames-dir | T=dir>...")
	pos, code := parseCommand(fs, args, 1, false)
	if code >= 0 {
		return code
	}
	e, err := newEngine(c.logLevel)
	if err != nil {
		return fail(err)
	}

	reports := make([]entity.SizeReport, 0, len(pos))
	for _, arg := range pos {
		t, dir, err := sizeTarget(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 2
		}
		r, err := e.sizes.Analyze(dir, t)
		if err != nil {
			return fail(err)
		}
		reports = append(reports, r)
	}

	cmp := analysis.CompareSizes(reports...)
	if c.json {
		return emitJSON(cmp)
	}
	printSizes(os.Stdout, cmp)
	return 0
}

// sizeTarget accepts either "P=some/dir" or a directory named like "P_frames".
func sizeTarget(arg string) (entity.FrameType, string, error) {
	if name, dir, ok := strings.Cut(arg, "="); ok {
		t, err := entity.ParseFrameType(name)
		return t, dir, err
	}
	base := filepath.Base(filepath.Clean(arg))
	name, _, ok := strings.Cut(base, "_")
	if !ok {
		return "", "", fmt.Errorf("cannot infer frame type from %q, use T=%s", arg, arg)
	}
	t, err := entity.ParseFrameType(name)
	if err != nil {
		return "", "", fmt.Errorf("cannot infer frame type from %q: %w", arg, err)
	}
	return t, arg, nil
}

func reconstructCmd(ctx context.Context, args []string) int {
	fs, c := newFlagSet("reconstruct", "<frames-dir> <output-video>")
	fps := fs.Float64("fps", 0, "output frame rate (default RECONSTRUCT_FPS)")
	pos, code := parseCommand(fs, args, 2, true)
	if code >= 0 {
		return code
	}
	e, err := newEngine(c.logLevel)
	if err != nil {
		return fail(err)
	}
	if *fps <= 0 {
		*fps = e.cfg.ReconstructFPS
	}

	if err := e.reconstructor.Reconstruct(ctx, pos[0], pos[1], *fps); err != nil {
		return fail(err)
	}
	fmt.Fprintf(os.Stdout, "Video reconstructed at %s\n", pos[1])
	return 0
}

func analyzeCmd(ctx context.Context, args []string) int {
	fs, c := newFlagSet("analyze", "<video> <work-dir>")
	types := fs.String("types", "I,P,B", "comma separated frame types to extract")
	reconstruct := fs.Bool("reconstruct", false, "rebuild a video from the extracted I-frames")
	fps := fs.Float64("fps", 0, "reconstruction frame rate (default RECONSTRUCT_FPS)")
	out := fs.String("out", "", "reconstructed video path (default <work-dir>/reconstructed.mp4)")
	pos, code := parseCommand(fs, args, 2, true)
	if code >= 0 {
		return code
	}

	var frameTypes []entity.FrameType
	for _, s := range strings.Split(*types, ",") {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		t, err := entity.ParseFrameType(s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "--types: %v\n", err)
			return 2
		}
		frameTypes = append(frameTypes, t)
	}

	e, err := newEngine(c.logLevel)
	if err != nil {
		return fail(err)
	}
	if err := ffmpeg.CheckAvailable(e.cfg.FFmpegPath, e.cfg.FFprobePath); err != nil {
		return fail(err)
	}
	if *fps <= 0 {
		*fps = e.cfg.ReconstructFPS
	}

	in := usecase.AnalyzeInput{
		VideoPath:         pos[0],
		WorkDir:           pos[1],
		FrameTypes:        frameTypes,
		Reconstruct:       *reconstruct,
		ReconstructFPS:    *fps,
		ReconstructOutput: *out,
	}

	p := e.pipeline()
	if w, interactive := pickProgressWriter(); interactive && !c.json {
		bar := newProgressBar(w, usecase.StageCount(in))
		defer bar.Finish()
		p = p.WithObserver(bar.observe)
	}

	report, err := p.Run(ctx, in)
	if err != nil {
		return fail(err)
	}
	if c.json {
		return emitJSON(report)
	}
	printReport(os.Stdout, report)
	return 0
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `usage:
  framelab <command> [flags] <args>

commands:
  probe        print width, height, duration, frame rate and frame count
  classify     count I, P and B frames and their share of the stream
  extract      write every frame of one type as an image sequence
  sizes        compare extracted frame sizes per type
  reconstruct  encode an image sequence back into a video
  analyze      run the whole pipeline and print a report

Engine settings come from the environment (.env is read when present):
FFMPEG_PATH, FFPROBE_PATH, FRAME_IMAGE_FORMAT, RECONSTRUCT_FPS,
RECONSTRUCT_CODEC, RECONSTRUCT_PIX_FMT, ENGINE_TIMEOUT.

Use "framelab <command> -h" for command flags.
`)
}
