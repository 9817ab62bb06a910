package archiver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/robfig/cron/v3"

	"github.com/stvgt/interfaces/internal/observability"
	"github.com/stvgt/interfaces/internal/registry"
)

// Reader is the read-path dependency the archiver snapshots.
type Reader interface {
	GetComponents(ctx context.Context) ([]registry.Component, *registry.Error)
}

// Config holds the archiver's S3 destination and schedule.
type Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	CronSchedule string
}

// Archiver exports a full component dump to S3 on a cron schedule.
type Archiver struct {
	reader Reader
	client *s3.Client
	bucket string
	logger *observability.Logger
	cron   *cron.Cron
}

// New builds an Archiver. Credentials fall back to the default AWS
// credential chain when cfg.AccessKey/SecretKey are empty, matching the
// teacher's MinIO-or-AWS dual mode.
func New(ctx context.Context, cfg Config, reader Reader, logger *observability.Logger) (*Archiver, error) {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	var awsConfig aws.Config
	var err error
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsConfig, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		)
	} else {
		awsConfig, err = config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})

	return &Archiver{
		reader: reader,
		client: client,
		bucket: cfg.Bucket,
		logger: logger,
		cron:   cron.New(),
	}, nil
}

// Start schedules the periodic snapshot job and returns once the
// schedule is registered; the cron loop itself runs in a background
// goroutine. Calling code should call Stop on shutdown.
func (a *Archiver) Start(schedule string) error {
	_, err := a.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if err := a.RunSnapshot(ctx); err != nil {
			a.logger.WithError(err).Error("snapshot archival failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule snapshot job: %w", err)
	}

	a.cron.Start()
	return nil
}

// Stop halts the cron scheduler and waits for any in-flight job.
func (a *Archiver) Stop() {
	ctx := a.cron.Stop()
	<-ctx.Done()
}

// snapshot is the JSON document written to S3: the full dump plus the
// wall-clock time it was taken.
type snapshot struct {
	TakenAt    time.Time             `json:"taken_at"`
	Components []registry.Component `json:"components"`
}

// RunSnapshot dumps the registry and writes it to
// s3://<bucket>/snapshots/<RFC3339 nano>.json.
func (a *Archiver) RunSnapshot(ctx context.Context) error {
	components, regErr := a.reader.GetComponents(ctx)
	if regErr != nil {
		return fmt.Errorf("failed to read components for snapshot: %w", regErr)
	}

	takenAt := snapshotTime()
	doc := snapshot{TakenAt: takenAt, Components: components}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := fmt.Sprintf("snapshots/%s.json", takenAt.Format(time.RFC3339Nano))
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot to s3://%s/%s: %w", a.bucket, key, err)
	}

	a.logger.Infof("archived snapshot with %d components to s3://%s/%s", len(components), a.bucket, key)
	return nil
}

// snapshotTime is factored out so it's the only call site touching wall
// clock time in this package.
func snapshotTime() time.Time {
	return time.Now().UTC()
}
