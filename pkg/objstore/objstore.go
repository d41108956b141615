// Package objstore uploads rendered exports to S3-compatible object storage.
package objstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ccollicutt/ifextract/pkg/config"
	"github.com/ccollicutt/ifextract/pkg/logger"
)

// ErrNotConfigured is returned by New when upload is disabled.
var ErrNotConfigured = errors.New("object storage upload is not configured")

// Object describes an uploaded export.
type Object struct {
	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
	URL      string `json:"url"`
}

// Uploader writes exports to one bucket.
type Uploader struct {
	client  *minio.Client
	cfg     config.UploadConfig
	baseURL string

	mu            sync.Mutex
	bucketEnsured bool
}

// New creates an Uploader from a validated upload configuration.
func New(cfg config.UploadConfig) (*Uploader, error) {
	if !cfg.Enabled {
		return nil, ErrNotConfigured
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	scheme := "http"
	if cfg.Secure {
		scheme = "https"
	}

	return &Uploader{
		client:  client,
		cfg:     cfg,
		baseURL: scheme + "://" + cfg.Endpoint,
	}, nil
}

// Upload stores data under a key derived from source, format and at.
func (u *Uploader) Upload(ctx context.Context, source, format string, data []byte, at time.Time) (*Object, error) {
	timeout := u.cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultUploadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := u.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensuring bucket %s: %w", u.cfg.Bucket, err)
	}

	key := ObjectKey(u.cfg.Prefix, source, format, at)
	_, err := u.client.PutObject(ctx, u.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: ContentType(format)})
	if err != nil {
		return nil, fmt.Errorf("putting object %s: %w", key, err)
	}

	sum := sha256.Sum256(data)
	obj := &Object{
		Bucket:   u.cfg.Bucket,
		Key:      key,
		Size:     int64(len(data)),
		Checksum: "sha256:" + hex.EncodeToString(sum[:]),
		URL:      u.baseURL + "/" + path.Join(u.cfg.Bucket, key),
	}
	logger.WithField("key", key).Infof("uploaded export (%d bytes)", obj.Size)
	return obj, nil
}

func (u *Uploader) ensureBucket(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.bucketEnsured {
		return nil
	}
	exists, err := u.client.BucketExists(ctx, u.cfg.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := u.client.MakeBucket(ctx, u.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return err
		}
		logger.Infof("created bucket %s", u.cfg.Bucket)
	}
	u.bucketEnsured = true
	return nil
}

var slugRe = regexp.MustCompile(`[^a-z0-9._-]+`)

func slug(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = slugRe.ReplaceAllString(s, "")
	if s == "" {
		s = "unknown"
	}
	return s
}

// ObjectKey builds "<prefix>/<yyyymmdd>/<source-slug>_<hhmmss>.<format>".
func ObjectKey(prefix, source, format string, at time.Time) string {
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if source == "" || source == "-" {
		base = "stdin"
	}

	name := fmt.Sprintf("%s_%s.%s", slug(base), at.Format("150405"), extension(format))
	parts := []string{}
	if p := strings.Trim(strings.TrimSpace(prefix), "/"); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, at.Format("20060102"), name)
	return path.Join(parts...)
}

func extension(format string) string {
	if format == config.FormatText {
		return "txt"
	}
	return format
}

// ContentType returns the MIME type for an output format.
func ContentType(format string) string {
	switch format {
	case config.FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case config.FormatCSV:
		return "text/csv; charset=utf-8"
	case config.FormatJSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}
