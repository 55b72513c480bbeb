// Package storage uploads menu images to an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Skotchmaster/balkan_kitchen/internal/config"
)

const MaxImageBytes = 5 << 20

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image too large")
	ErrEmpty           = errors.New("empty image")
)

var extByType = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

type ImageStore struct {
	client  *minio.Client
	bucket  string
	region  string
	baseURL string
	now     func() time.Time

	initOnce sync.Once
	initErr  error
}

func NewImageStore(cfg config.S3Config) (*ImageStore, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket)
	}

	return &ImageStore{
		client:  client,
		bucket:  bucket,
		region:  region,
		baseURL: base,
		now:     time.Now,
	}, nil
}

func (s *ImageStore) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Upload stores data and returns its public URL. Nothing is cleaned up if
// the caller later fails to reference the image.
func (s *ImageStore) Upload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	ext, err := ValidateImage(filename, contentType, len(data))
	if err != nil {
		return "", err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	key := ObjectKey(s.now(), ext)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000",
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return s.baseURL + "/" + url.PathEscape(key), nil
}

// ValidateImage checks size and type and returns the file extension to use.
func ValidateImage(filename, contentType string, size int) (string, error) {
	if size == 0 {
		return "", ErrEmpty
	}
	if size > MaxImageBytes {
		return "", ErrTooLarge
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := extByType[ct]
	if !ok {
		return "", fmt.Errorf("%q: %w", contentType, ErrUnsupportedType)
	}
	if fe := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), "."); fe != "" {
		if fe == "jpeg" {
			fe = "jpg"
		}
		if fe == ext {
			return fe, nil
		}
	}
	return ext, nil
}

// ObjectKey names an upload by time, with a short random suffix so two
// uploads in the same millisecond do not collide.
func ObjectKey(at time.Time, ext string) string {
	return fmt.Sprintf("%d-%s.%s", at.UnixMilli(), uuid.NewString()[:8], ext)
}
