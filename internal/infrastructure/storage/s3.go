package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/oksasatya/go-user-auth/config"
)

// S3Uploader stores media in an S3 (or S3-compatible) bucket.
type S3Uploader struct {
	client        *s3.Client
	bucket        string
	region        string
	endpoint      string
	publicBaseURL string
	pathStyle     bool
}

// NewS3Uploader builds the client from static keys when present, else the default credential chain.
func NewS3Uploader(ctx context.Context, cfg *config.Config) (*S3Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3UsePathStyle
	})
	return &S3Uploader{
		client:        client,
		bucket:        cfg.S3Bucket,
		region:        cfg.S3Region,
		endpoint:      strings.TrimRight(cfg.S3Endpoint, "/"),
		publicBaseURL: strings.TrimRight(cfg.S3PublicBaseURL, "/"),
		pathStyle:     cfg.S3UsePathStyle,
	}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, localPath, folder string) (Object, error) {
	defer removeLocal(localPath)
	if u.client == nil || u.bucket == "" {
		return Object{}, ErrNotConfigured
	}
	f, contentType, ext, err := openLocal(localPath)
	if err != nil {
		return Object{}, err
	}
	defer func() { _ = f.Close() }()

	key := ObjectKey(folder, ext)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return Object{}, fmt.Errorf("s3 upload: %w", err)
	}
	return Object{URL: u.objectURL(key), Key: key}, nil
}

func (u *S3Uploader) Delete(ctx context.Context, key string) error {
	if u.client == nil || u.bucket == "" {
		return ErrNotConfigured
	}
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	return err
}

func (u *S3Uploader) objectURL(key string) string {
	switch {
	case u.publicBaseURL != "":
		return u.publicBaseURL + "/" + key
	case u.endpoint != "" && u.pathStyle:
		return u.endpoint + "/" + u.bucket + "/" + key
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
	}
}

var _ Uploader = (*S3Uploader)(nil)
