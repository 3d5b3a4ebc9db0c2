package integrations

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"eventia/backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	proofKeyPrefix   = "payment-proofs"
	uploadURLExpires = 15 * time.Minute
	viewURLExpires   = 10 * time.Minute
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// S3Client stores payment proof screenshots.
type S3Client struct {
	bucket         string
	endpoint       string
	publicEndpoint string
	presign        *s3.PresignClient
	publicPresign  *s3.PresignClient
	now            func() time.Time
}

// NewS3 creates s3.
func NewS3(ctx context.Context, cfg config.S3Config) (*S3Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	endpoint := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	publicEndpoint := normalizeEndpoint(cfg.PublicEndpoint, cfg.UseSSL)
	if publicEndpoint == "" {
		publicEndpoint = endpoint
	}

	options := s3.Options{
		Region:       region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if endpoint != "" {
		options.BaseEndpoint = aws.String(endpoint)
	}

	client := s3.New(options)
	presign := s3.NewPresignClient(client)
	publicPresign := presign
	if publicEndpoint != "" && publicEndpoint != endpoint {
		publicOptions := options
		publicOptions.BaseEndpoint = aws.String(publicEndpoint)
		publicPresign = s3.NewPresignClient(s3.New(publicOptions))
	}

	return &S3Client{
		bucket:         cfg.Bucket,
		endpoint:       endpoint,
		publicEndpoint: publicEndpoint,
		presign:        presign,
		publicPresign:  publicPresign,
		now:            time.Now,
	}, nil
}

// PresignPutObject returns an upload URL, the object's public URL and its key.
func (s *S3Client) PresignPutObject(ctx context.Context, fileName, contentType string) (string, string, string, error) {
	key := s.buildObjectKey(fileName)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}

	resp, err := s.publicPresign.PresignPutObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = uploadURLExpires
	})
	if err != nil {
		return "", "", "", err
	}

	return resp.URL, s.publicURLForKey(key), key, nil
}

// PresignGetObject returns a short-lived URL an admin can open to review a proof.
func (s *S3Client) PresignGetObject(ctx context.Context, key string) (string, error) {
	if !strings.HasPrefix(key, proofKeyPrefix+"/") {
		return "", fmt.Errorf("key %q is not a payment proof", key)
	}
	resp, err := s.publicPresign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = viewURLExpires
	})
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}

// publicURLForKey builds the bucket URL of key.
func (s *S3Client) publicURLForKey(key string) string {
	if s.publicEndpoint == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
	}

	endpoint := s.publicEndpoint
	if !strings.HasPrefix(endpoint, "http") {
		endpoint = "https://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Sprintf("%s/%s/%s", endpoint, s.bucket, key)
	}
	u.Path = path.Join(u.Path, s.bucket, key)
	return u.String()
}

// buildObjectKey builds a date-partitioned key under the proof prefix.
func (s *S3Client) buildObjectKey(fileName string) string {
	safeName := strings.Trim(unsafeKeyChars.ReplaceAllString(path.Base(strings.TrimSpace(fileName)), "-"), "-.")
	if safeName == "" {
		safeName = "proof"
	}
	now := s.now().UTC()
	return fmt.Sprintf("%s/%d/%02d/%02d/%d-%s", proofKeyPrefix, now.Year(), now.Month(), now.Day(), now.UnixNano(), safeName)
}

// normalizeEndpoint normalizes endpoint.
func normalizeEndpoint(endpoint string, useSSL bool) string {
	if endpoint == "" {
		return ""
	}
	if strings.HasPrefix(endpoint, "http") {
		return endpoint
	}
	scheme := "https"
	if !useSSL {
		scheme = "http"
	}
	return scheme + "://" + endpoint
}
