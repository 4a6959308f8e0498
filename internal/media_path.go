package internal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/bcms/bcms"
)

// StaticMediaPathResolver serves media under a fixed base URL or path.
type StaticMediaPathResolver struct {
	BaseURL string
}

func (r StaticMediaPathResolver) ResolveMediaPath(_ context.Context, media *bcms.Media) (string, error) {
	segments := strings.Split(mediaObjectKey("", media), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	key := strings.Join(segments, "/")
	if r.BaseURL == "" {
		return "/" + key, nil
	}
	return strings.TrimRight(r.BaseURL, "/") + "/" + key, nil
}

// S3MediaPathResolver resolves media objects to presigned GET URLs.
type S3MediaPathResolver struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	prefix    string
	ttl       time.Duration
}

// NewS3MediaPathResolver builds an S3 client from cfg. Static credentials are
// used when both keys are set; otherwise the default AWS credential chain
// applies. Endpoint targets S3-compatible stores such as MinIO.
func NewS3MediaPathResolver(ctx context.Context, cfg bcms.MediaConfig) (*S3MediaPathResolver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 media: bucket is required")
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	if cfg.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(cfg.Endpoint))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newS3MediaPathResolver(client, cfg), nil
}

func newS3MediaPathResolver(client *s3.Client, cfg bcms.MediaConfig) *S3MediaPathResolver {
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &S3MediaPathResolver{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		prefix:    cfg.Prefix,
		ttl:       ttl,
	}
}

// ObjectKey returns the bucket key for media.
func (r *S3MediaPathResolver) ObjectKey(media *bcms.Media) string {
	return mediaObjectKey(r.prefix, media)
}

// ResolveMediaPath presigns a GET request for the media object.
func (r *S3MediaPathResolver) ResolveMediaPath(ctx context.Context, media *bcms.Media) (string, error) {
	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.ObjectKey(media)),
	}, s3.WithPresignExpires(r.ttl))
	if err != nil {
		return "", fmt.Errorf("presign media %s: %w", media.ID, err)
	}
	return req.URL, nil
}

// Ping checks that the bucket exists and is reachable with the configured
// credentials.
func (r *S3MediaPathResolver) Ping(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(r.bucket)})
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchBucket":
			return fmt.Errorf("s3 bucket %q does not exist: %w", r.bucket, err)
		case "Forbidden", "AccessDenied":
			return fmt.Errorf("s3 bucket %q reachable but access denied: %w", r.bucket, err)
		}
	}
	return fmt.Errorf("s3 head bucket %q: %w", r.bucket, err)
}

// mediaObjectKey joins prefix, the media folder path and the file name,
// dropping empty segments.
func mediaObjectKey(prefix string, media *bcms.Media) string {
	segments := make([]string, 0, 4)
	for _, part := range []string{prefix, media.Path, media.Name} {
		for _, seg := range strings.Split(part, "/") {
			if seg == "" {
				continue
			}
			segments = append(segments, seg)
		}
	}
	return path.Join(segments...)
}
