package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"yatube/internal/config"
	"yatube/internal/model"
)

// ImageStore keeps uploaded post images as opaque blobs.
type ImageStore interface {
	// Save stores the bytes verbatim and returns the object key.
	Save(ctx context.Context, img *model.ImageUpload) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// CheckImage enforces the size limit and that the bytes decode as an image.
// The bytes themselves are never altered.
func CheckImage(img *model.ImageUpload, maxSize int64) error {
	if int64(len(img.Data)) > maxSize {
		return model.ErrImageTooLarge
	}
	if len(img.Data) == 0 {
		return model.ErrInvalidImage
	}
	if _, err := imaging.Decode(bytes.NewReader(img.Data)); err != nil {
		return model.ErrInvalidImage
	}
	return nil
}

// S3ImageStore stores images in an S3-compatible bucket (Cloudflare R2).
type S3ImageStore struct {
	s3Client  *s3.Client
	bucket    string
	publicURL string
}

// NewS3ImageStore constructs an S3-compatible client for Cloudflare R2.
func NewS3ImageStore(ctx context.Context, cfg *config.Config) (*S3ImageStore, error) {
	if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" || cfg.R2BucketName == "" || cfg.R2PublicURL == "" {
		return nil, fmt.Errorf("missing Cloudflare R2 configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &S3ImageStore{
		s3Client:  s3Client,
		bucket:    cfg.R2BucketName,
		publicURL: strings.TrimSuffix(cfg.R2PublicURL, "/"),
	}, nil
}

func (s *S3ImageStore) Save(ctx context.Context, img *model.ImageUpload) (string, error) {
	key := ImageKey(img)

	contentType := img.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(img.Data)
	}

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(img.Data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(model.ImageCacheControl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to r2: %w", err)
	}
	return key, nil
}

func (s *S3ImageStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from r2: %w", err)
	}
	return nil
}

func (s *S3ImageStore) URL(key string) string {
	return fmt.Sprintf("%s/%s", s.publicURL, key)
}

// ImageKey picks a fresh object key under the posts folder, keeping the
// uploaded file's extension.
func ImageKey(img *model.ImageUpload) string {
	ext := strings.ToLower(filepath.Ext(img.Filename))
	if _, err := imaging.FormatFromExtension(ext); err != nil {
		ext = ""
	}
	return fmt.Sprintf("%s/%s%s", model.PostImageFolder, uuid.NewString(), ext)
}

func imageURL(store ImageStore, key *string) *string {
	if key == nil || store == nil {
		return nil
	}
	url := store.URL(*key)
	return &url
}
