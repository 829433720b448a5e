package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fiapx/fiapx-frametype-service/internal/analysis"
	"github.com/fiapx/fiapx-frametype-service/internal/infra/config"
	"github.com/fiapx/fiapx-frametype-service/internal/infra/email"
	"github.com/fiapx/fiapx-frametype-service/internal/infra/ffmpeg"
	"github.com/fiapx/fiapx-frametype-service/internal/infra/memory"
	"github.com/fiapx/fiapx-frametype-service/internal/infra/metrics"
	miniostorage "github.com/fiapx/fiapx-frametype-service/internal/infra/minio"
	"github.com/fiapx/fiapx-frametype-service/internal/infra/rabbitmq"
	"github.com/fiapx/fiapx-frametype-service/internal/infra/tracing"
	"github.com/fiapx/fiapx-frametype-service/internal/usecase"
	"github.com/fiapx/fiapx-frametype-service/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadWithDotenv(".env")
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting fiapx-frametype-service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := ffmpeg.NewExecRunner(cfg.EngineTimeout)
	engineReady := func() error { return ffmpeg.CheckAvailable(cfg.FFmpegPath, cfg.FFprobePath) }

	engine := tracing.Engine{Name: "ffmpeg", FrameFormat: cfg.FrameImageFormat}
	if err := engineReady(); err != nil {
		log.Warn("media engine not found on PATH, analyses will fail", zap.Error(err))
	} else if engine.Version, err = ffmpeg.EngineVersion(ctx, runner, cfg.FFmpegPath); err != nil {
		log.Warn("could not read media engine version", zap.Error(err))
	} else {
		log.Info("media engine found", zap.String("version", engine.Version))
	}

	// Tracing (non-fatal if Jaeger unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint, engine)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// MinIO
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:       cfg.MinIOEndpoint,
		AccessKey:      cfg.MinIOAccessKey,
		SecretKey:      cfg.MinIOSecretKey,
		UseSSL:         cfg.MinIOUseSSL,
		VideoBucket:    cfg.MinIOVideoBucket,
		ArtifactBucket: cfg.MinIOArtifactBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx), "ensure minio buckets")

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")
	defer pub.Close()

	resultPub := rabbitmq.NewResultPublisher(pub, rabbitmq.ResultRoutingKey)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	// Media engine
	prober := ffmpeg.NewProber(runner, cfg.FFprobePath, log)
	extractor := ffmpeg.NewExtractor(runner, cfg.FFmpegPath, cfg.FrameImageFormat, log)
	reconstructor := ffmpeg.NewReconstructor(runner, ffmpeg.ReconstructorConfig{
		FFmpegPath:  cfg.FFmpegPath,
		ImageFormat: cfg.FrameImageFormat,
		Codec:       cfg.ReconstructCodec,
		PixelFormat: cfg.ReconstructPixFmt,
	}, log)
	sizes := analysis.NewSizeAnalyzer(cfg.FrameImageFormat)

	repo := memory.NewJobRepository()
	zipper := ffmpeg.NewZipCreator()
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

	pipeline := usecase.NewPipeline(prober, extractor, sizes, reconstructor, log)
	uc := usecase.NewProcessRequestUseCase(
		repo, storage, pipeline, zipper,
		resultPub, dlqPub, notifier,
		log,
		usecase.ProcessRequestConfig{
			TempDir:        cfg.TempDir,
			MaxRetries:     cfg.MaxRetries,
			ReconstructFPS: cfg.ReconstructFPS,
		},
	)

	// Metrics server
	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, engineReady, log)

	// Consumer (worker pool)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:          cfg.RabbitMQURL,
		RequestQueue: cfg.RabbitMQRequestQueue,
		ResultQueue:  cfg.RabbitMQResultQueue,
		Exchange:     cfg.RabbitMQExchange,
		DLQ:          cfg.RabbitMQDLQ,
		Prefetch:     cfg.RabbitMQPrefetch,
		WorkerCount:  cfg.WorkerCount,
		BaseDelayMs:  cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("fiapx-frametype-service started, consuming analysis requests",
		zap.String("queue", cfg.RabbitMQRequestQueue),
		zap.Int("workers", cfg.WorkerCount),
	)

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("fiapx-frametype-service stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
