// internal/adapter/storage/minio/client.go
package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"golang.org/x/sync/singleflight"

	appconfig "github.com/GoArmGo/PromptReveal/internal/config"
	"github.com/GoArmGo/PromptReveal/internal/core/ports"
)

const (
	// MaxObjectSize — потолок размера объекта в бакете (50 MiB).
	MaxObjectSize = 50 * 1024 * 1024

	// partSize больше MaxObjectSize, поэтому uploader всегда делает один PutObject
	// и If-None-Match доходит до хранилища.
	partSize = 64 * 1024 * 1024
)

// ErrObjectTooLarge — объект больше MaxObjectSize; запрос в хранилище не отправляется.
var ErrObjectTooLarge = errors.New("object exceeds bucket size limit")

// Gateway — шлюз к S3-совместимому хранилищу (MinIO, AWS S3, R2).
type Gateway struct {
	s3Client   *s3.Client
	uploader   *manager.Uploader
	bucketName string
	region     string
	publicBase string
	logger     *slog.Logger

	sf      singleflight.Group
	ensured atomic.Bool
}

// NewGateway создает шлюз по конфигурации приложения. Сетевых запросов не делает:
// бакет проверяется лениво в EnsureBucket.
func NewGateway(cfg *appconfig.Config, logger *slog.Logger) (*Gateway, error) {
	if !cfg.StorageConfigured() {
		return nil, fmt.Errorf("S3 settings (S3_ENDPOINT, S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY, S3_BUCKET_NAME) must be set")
	}
	s := cfg.Storage

	endpointURL := s.Endpoint
	if !strings.Contains(endpointURL, "://") {
		if s.UseSSL {
			endpointURL = "https://" + endpointURL
		} else {
			endpointURL = "http://" + endpointURL
		}
	}
	endpointURL = strings.TrimRight(endpointURL, "/")

	region := s.Region
	if region == "" {
		region = "us-east-1"
	}

	cfgAws, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.AccessKeyID, s.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for object storage: %w", err)
	}

	s3Client := s3.NewFromConfig(cfgAws, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpointURL)
		o.UsePathStyle = true
		// MinIO и R2 не всегда понимают новые checksum-заголовки по умолчанию
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	uploader := manager.NewUploader(s3Client, func(u *manager.Uploader) {
		u.PartSize = partSize
		u.Concurrency = 1
	})

	publicBase := strings.TrimRight(s.PublicBaseURL, "/")
	if publicBase == "" {
		publicBase = endpointURL + "/" + s.BucketName
	}

	return &Gateway{
		s3Client:   s3Client,
		uploader:   uploader,
		bucketName: s.BucketName,
		region:     region,
		publicBase: publicBase,
		logger:     logger,
	}, nil
}

// Bucket возвращает имя бакета.
func (g *Gateway) Bucket() string { return g.bucketName }

// EnsureBucket проверяет бакет и создаёт его с публичным чтением, если его нет.
// Параллельные вызовы схлопываются в один запрос; после успеха результат запоминается.
func (g *Gateway) EnsureBucket(ctx context.Context) error {
	if g.ensured.Load() {
		return nil
	}
	_, err, _ := g.sf.Do(g.bucketName, func() (interface{}, error) {
		if g.ensured.Load() {
			return nil, nil
		}
		if err := g.ensureBucket(ctx); err != nil {
			return nil, err
		}
		g.ensured.Store(true)
		return nil, nil
	})
	return err
}

func (g *Gateway) ensureBucket(ctx context.Context) error {
	start := time.Now()

	_, err := g.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(g.bucketName),
	})
	if err == nil {
		g.logger.Debug("bucket already exists", slog.String("bucket", g.bucketName))
		return nil
	}
	if !isNotFound(err) {
		return &ports.StorageError{Op: "head bucket", Key: g.bucketName, Category: Classify(err), Err: err}
	}

	g.logger.Info("bucket not found, creating", slog.String("bucket", g.bucketName))

	input := &s3.CreateBucketInput{Bucket: aws.String(g.bucketName)}
	if g.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(g.region),
		}
	}
	if _, err := g.s3Client.CreateBucket(ctx, input); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var exists *types.BucketAlreadyExists
		if errors.As(err, &owned) || errors.As(err, &exists) {
			// бакет создал кто-то другой между HeadBucket и CreateBucket
			return nil
		}
		return &ports.StorageError{Op: "create bucket", Key: g.bucketName, Category: Classify(err), Err: err}
	}

	if _, err := g.s3Client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(g.bucketName),
		Policy: aws.String(publicReadPolicy(g.bucketName)),
	}); err != nil {
		return &ports.StorageError{Op: "put bucket policy", Key: g.bucketName, Category: Classify(err), Err: err}
	}

	g.logger.Info("bucket created",
		slog.String("bucket", g.bucketName),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}

// Put записывает объект только если ключ ещё свободен (If-None-Match: *).
func (g *Gateway) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if len(data) > MaxObjectSize {
		return &ports.StorageError{Op: "put", Key: key, Category: ports.StorageTooLarge, Err: ErrObjectTooLarge}
	}

	start := time.Now()
	_, err := g.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(g.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		return &ports.StorageError{Op: "put", Key: key, Category: Classify(err), Err: err}
	}

	g.logger.Debug("object stored",
		slog.String("bucket", g.bucketName),
		slog.String("key", key),
		slog.Int("size", len(data)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}

// Delete удаляет объект; отсутствие объекта ошибкой не считается.
func (g *Gateway) Delete(ctx context.Context, key string) error {
	_, err := g.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return &ports.StorageError{Op: "delete", Key: key, Category: Classify(err), Err: err}
	}
	return nil
}

// PublicURL возвращает публичный адрес объекта.
func (g *Gateway) PublicURL(key string) string {
	return g.publicBase + "/" + strings.TrimLeft(key, "/")
}

// Classify определяет категорию ошибки хранилища: сначала по коду S3 и HTTP-статусу,
// затем по тексту сообщения.
func Classify(err error) ports.StorageCategory {
	if err == nil {
		return ports.StorageGeneric
	}
	if errors.Is(err, ErrObjectTooLarge) {
		return ports.StorageTooLarge
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "EntityTooLarge", "MaxMessageLengthExceeded":
			return ports.StorageTooLarge
		case "NoSuchBucket", "InvalidBucketName", "AllAccessDisabled", "PermanentRedirect":
			return ports.StorageBucketMisconfigured
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "Forbidden":
			return ports.StoragePermissionDenied
		case "PreconditionFailed", "ConditionalRequestConflict":
			return ports.StorageKeyExists
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusRequestEntityTooLarge:
			return ports.StorageTooLarge
		case http.StatusForbidden, http.StatusUnauthorized:
			return ports.StoragePermissionDenied
		case http.StatusPreconditionFailed:
			return ports.StorageKeyExists
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "exceeded the maximum allowed size", "entity too large", "payload too large", "too large"):
		return ports.StorageTooLarge
	case containsAny(msg, "bucket not found", "no such bucket", "nosuchbucket", "bucket does not exist", "invalid bucket"):
		return ports.StorageBucketMisconfigured
	case containsAny(msg, "access denied", "permission", "unauthorized", "forbidden", "not authorized", "row-level security"):
		return ports.StoragePermissionDenied
	case containsAny(msg, "already exists", "duplicate", "precondition"):
		return ports.StorageKeyExists
	}
	return ports.StorageGeneric
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Sid":"PublicRead","Effect":"Allow","Principal":"*","Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}
