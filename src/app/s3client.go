package app

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	cfg "photoapp/src/configuration"
	"photoapp/src/metrics"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ClientMinio is the part of *minio.Client the gateway uses.
type ClientMinio interface {
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (info minio.UploadInfo, err error)
	FGetObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.GetObjectOptions) error
}

type MinioS3Client struct {
	bucketName string
	client     ClientMinio
	log        *zap.SugaredLogger
}

const (
	defaultContentType = "application/octet-stream"
	partSuffix         = ".part.minio"
)

var ErrEmptyKey = errors.New("s3: empty object key")

// NewMinioS3Client creates a client for the configured bucket. Static keys win
// when present; otherwise the credentials come from the AWS profile in
// credsFile.
func NewMinioS3Client(config cfg.S3Properties, credsFile string, log *zap.SugaredLogger) (*MinioS3Client, error) {
	creds := credentials.NewFileAWSCredentials(credsFile, config.Profile)
	if config.AccessKey != "" {
		creds = credentials.NewStaticV4(config.AccessKey, config.SecretKey, "")
	}

	minioClient, err := minio.New(config.Host, &minio.Options{
		Creds:  creds,
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if err != nil {
		log.Errorw("can not create minio client", "endpoint", config.Host, "profile", config.Profile, "error", err)
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return NewMinioS3ClientWith(minioClient, config.Bucket, log), nil
}

// NewMinioS3ClientWith wraps an existing client.
func NewMinioS3ClientWith(client ClientMinio, bucketName string, log *zap.SugaredLogger) *MinioS3Client {
	return &MinioS3Client{
		bucketName: bucketName,
		client:     client,
		log:        log,
	}
}

func (s3 *MinioS3Client) BucketName() string {
	return s3.bucketName
}

// CountObjects lists the whole bucket and returns the number of objects.
func (s3 *MinioS3Client) CountObjects(ctx context.Context) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	count := 0
	objectCh := s3.client.ListObjects(ctx, s3.bucketName, minio.ListObjectsOptions{
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			s3.log.Errorw("list objects failed", "bucket", s3.bucketName, "error", object.Err)
			metrics.RecordStore(metrics.StoreObjects, "list", object.Err)
			return 0, fmt.Errorf("list bucket %s: %w", s3.bucketName, object.Err)
		}
		count++
	}
	metrics.RecordStore(metrics.StoreObjects, "list", nil)
	return count, nil
}

// UploadFile puts the file at localPath under key in one request.
func (s3 *MinioS3Client) UploadFile(ctx context.Context, localPath, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = defaultContentType
	}

	info, err := s3.client.FPutObject(ctx, s3.bucketName, key, localPath,
		minio.PutObjectOptions{ContentType: contentType})
	metrics.RecordStore(metrics.StoreObjects, "upload", err)
	if err != nil {
		s3.log.Errorw("upload failed", "bucket", s3.bucketName, "key", key, "file", localPath, "error", err)
		return fmt.Errorf("upload %s to %s: %w", localPath, key, err)
	}
	s3.log.Debugw("uploaded", "key", key, "size", info.Size)
	return nil
}

// DownloadFile fetches key into dir, under the key's basename, and returns
// the local path. The caller decides the final name.
func (s3 *MinioS3Client) DownloadFile(ctx context.Context, key, dir string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	localPath := filepath.Join(dir, path.Base(key))

	err := s3.client.FGetObject(ctx, s3.bucketName, key, localPath, minio.GetObjectOptions{})
	metrics.RecordStore(metrics.StoreObjects, "download", err)
	if err != nil {
		s3.log.Errorw("download failed", "bucket", s3.bucketName, "key", key, "error", err)
		s3.removePartial(dir, filepath.Base(localPath))
		return "", fmt.Errorf("download %s: %w", key, err)
	}
	return localPath, nil
}

// removePartial deletes the <name><etag>.part.minio files a failed
// FGetObject leaves behind in dir.
func (s3 *MinioS3Client) removePartial(dir, name string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), name) || !strings.HasSuffix(e.Name(), partSuffix) {
			continue
		}
		part := filepath.Join(dir, e.Name())
		if err := os.Remove(part); err != nil {
			s3.log.Warnw("can not remove partial download", "file", part, "error", err)
			continue
		}
		s3.log.Debugw("removed partial download", "file", part)
	}
}

// PresignedURL returns a temporary GET link for key.
func (s3 *MinioS3Client) PresignedURL(ctx context.Context, key string, expires time.Duration) (*url.URL, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf("attachment; filename=\"%s\"", path.Base(key)))

	presignedURL, err := s3.client.PresignedGetObject(ctx, s3.bucketName, key, expires, reqParams)
	metrics.RecordStore(metrics.StoreObjects, "presign", err)
	if err != nil {
		s3.log.Errorw("presign failed", "bucket", s3.bucketName, "key", key, "error", err)
		return nil, fmt.Errorf("presign %s: %w", key, err)
	}
	return presignedURL, nil
}
