package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fiapx/fiapx-frametype-service/internal/domain/entity"
	"github.com/fiapx/fiapx-frametype-service/internal/domain/port"
	"github.com/fiapx/fiapx-frametype-service/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ProcessRequestUseCase struct {
	repo      port.JobRepository
	storage   port.VideoStorage
	pipeline  *Pipeline
	zipper    port.Zipper
	publisher port.ResultPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	tempDir   string
	maxRetry  int
	fps       float64
}

type ProcessRequestConfig struct {
	TempDir        string
	MaxRetries     int
	ReconstructFPS float64
}

func NewProcessRequestUseCase(
	repo port.JobRepository,
	storage port.VideoStorage,
	pipeline *Pipeline,
	zipper port.Zipper,
	publisher port.ResultPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg ProcessRequestConfig,
) *ProcessRequestUseCase {
	return &ProcessRequestUseCase{
		repo:      repo,
		storage:   storage,
		pipeline:  pipeline,
		zipper:    zipper,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		tempDir:   cfg.TempDir,
		maxRetry:  cfg.MaxRetries,
		fps:       cfg.ReconstructFPS,
	}
}

// Execute handles one raw analysis request. A nil return acks the message
// (success, or a failure already routed to the DLQ); an error asks the
// consumer to requeue it.
func (uc *ProcessRequestUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ProcessRequestUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.AnalysisRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		metrics.AnalysesProcessedTotal.WithLabelValues("dlq").Inc()
		return nil
	}

	frameTypes, err := parseFrameTypes(msg.FrameTypes)
	if err != nil {
		uc.logger.Error("invalid frame types in request", zap.Error(err), zap.Strings("frame_types", msg.FrameTypes))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "invalid_request: "+err.Error())
		metrics.AnalysesProcessedTotal.WithLabelValues("dlq").Inc()
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_key", msg.VideoKey))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewAnalysisJob(msg.UserID, msg.VideoKey, uc.maxRetry)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded", job.FailedStage, true)
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.analyze(ctx, job, msg, frameTypes, rawMsg, log); err != nil {
		return err
	}

	metrics.AnalysesProcessedTotal.WithLabelValues("completed").Inc()
	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())
	return nil
}

func (uc *ProcessRequestUseCase) analyze(
	ctx context.Context,
	job *entity.AnalysisJob,
	msg entity.AnalysisRequestMessage,
	frameTypes []entity.FrameType,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.tempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	dlStart := time.Now()
	ctxDl, spanDl := tracer.Start(ctx, "download_video")
	videoPath := filepath.Join(workDir, "input"+filepath.Ext(msg.VideoKey))
	if err := uc.storage.DownloadVideo(ctxDl, msg.VideoKey, videoPath); err != nil {
		spanDl.End()
		log.Error("failed to download video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "download_video: "+err.Error(), entity.KindUnknown, log)
	}
	spanDl.End()
	metrics.StageDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	fps := msg.ReconstructFPS
	if fps <= 0 {
		fps = uc.fps
	}
	report, err := uc.pipeline.Run(ctx, AnalyzeInput{
		VideoPath:      videoPath,
		WorkDir:        filepath.Join(workDir, "frames"),
		FrameTypes:     frameTypes,
		Reconstruct:    msg.Reconstruct,
		ReconstructFPS: fps,
	})
	if err != nil {
		kind := entity.KindOf(err)
		if isPermanent(err) {
			log.Warn("video cannot be analysed, not retrying", zap.Error(err))
			return uc.handlePermanentFailure(ctx, job, msg, rawMsg, err.Error(), kind, false)
		}
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, err.Error(), kind, log)
	}
	report.VideoPath = msg.VideoKey

	upStart := time.Now()
	artifactKeys, reconstructKey, err := uc.uploadArtifacts(ctx, job, report, workDir)
	if err != nil {
		log.Error("artifact upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_artifacts: "+err.Error(), entity.KindUnknown, log)
	}
	metrics.StageDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	for i := range report.Extractions {
		report.Extractions[i].FramePaths = nil
	}
	job.MarkCompleted(report, artifactKeys, reconstructKey)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishResult(ctx, job, log)
	uc.forget(ctx, job, log)

	log.Info("analysis completed",
		zap.Int("frames", report.Distribution.Total),
		zap.Bool("has_winner", report.Sizes.HasWinner),
		zap.String("winner", report.Sizes.Winner.String()),
		zap.Int("artifacts", len(artifactKeys)),
	)
	return nil
}

func (uc *ProcessRequestUseCase) uploadArtifacts(
	ctx context.Context,
	job *entity.AnalysisJob,
	report *entity.AnalysisReport,
	workDir string,
) (map[entity.FrameType]string, string, error) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "upload_artifacts")
	defer span.End()

	prefix := fmt.Sprintf("%s/%s", job.UserID, job.ID.String())
	keys := make(map[entity.FrameType]string, len(report.Extractions))

	for _, ex := range report.Extractions {
		zipPath := filepath.Join(workDir, "zips", ex.FrameType.DirName()+".zip")
		if err := uc.zipper.CreateZip(ctx, ex.FramePaths, zipPath); err != nil {
			return nil, "", fmt.Errorf("zip %s frames: %w", ex.FrameType, err)
		}
		key := fmt.Sprintf("%s/%s.zip", prefix, ex.FrameType.DirName())
		if err := uc.uploadFile(ctx, key, zipPath, "application/zip"); err != nil {
			return nil, "", err
		}
		keys[ex.FrameType] = key
	}

	if report.ReconstructedVideo == "" {
		return keys, "", nil
	}
	key := fmt.Sprintf("%s/reconstructed%s", prefix, filepath.Ext(report.ReconstructedVideo))
	if err := uc.uploadFile(ctx, key, report.ReconstructedVideo, "video/mp4"); err != nil {
		return nil, "", err
	}
	return keys, key, nil
}

func (uc *ProcessRequestUseCase) uploadFile(ctx context.Context, key, path, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	return uc.storage.UploadArtifact(ctx, key, f, stat.Size(), contentType)
}

func (uc *ProcessRequestUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.AnalysisJob,
	msg entity.AnalysisRequestMessage,
	rawMsg []byte,
	errMsg string,
	stage entity.ErrorKind,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg, stage)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg, stage, true)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishResult(ctx, job, log)

	return &entity.RetryError{Attempt: job.Attempt, MaxAttempts: job.MaxAttempts, Err: errors.New(errMsg)}
}

func (uc *ProcessRequestUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.AnalysisJob,
	msg entity.AnalysisRequestMessage,
	rawMsg []byte,
	errMsg string,
	stage entity.ErrorKind,
	retriesExhausted bool,
) error {
	job.MarkFailed(errMsg, stage)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishResult(ctx, job, uc.logger)
	uc.forget(ctx, job, uc.logger)

	metrics.AnalysesProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), msg.VideoKey, stage.String(), errMsg, retriesExhausted)
	}

	return nil
}

func (uc *ProcessRequestUseCase) publishResult(ctx context.Context, job *entity.AnalysisJob, log *zap.Logger) {
	data, _ := json.Marshal(entity.NewAnalysisResultMessage(job))
	if err := uc.publisher.PublishResult(ctx, data); err != nil {
		log.Error("failed to publish result", zap.Error(err))
	}
}

// forget drops a job whose final result has already been published.
func (uc *ProcessRequestUseCase) forget(ctx context.Context, job *entity.AnalysisJob, log *zap.Logger) {
	if err := uc.repo.Delete(ctx, job.ID); err != nil {
		log.Warn("failed to drop finished job", zap.Error(err))
	}
}

// isPermanent reports failures that re-running the same input cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, entity.ErrNoVideoStream) ||
		errors.Is(err, entity.ErrMissingField) ||
		errors.Is(err, entity.ErrInvalidRational) ||
		errors.Is(err, entity.ErrUnknownFrameType)
}

func parseFrameTypes(raw []string) ([]entity.FrameType, error) {
	types := make([]entity.FrameType, 0, len(raw))
	for _, s := range raw {
		t, err := entity.ParseFrameType(s)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}
