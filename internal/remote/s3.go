// Package remote stores project snapshots in S3-compatible object storage
// and pushes projects there, queueing the upload when the remote fails.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/manav03panchal/mindstore/internal/config"
	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/logging"
	"github.com/manav03panchal/mindstore/internal/model"
	"github.com/manav03panchal/mindstore/internal/validate"
)

const latestObject = "latest"

// objectAPI is the subset of *s3.Client the store uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

var loadAWSConfig = awsconfig.LoadDefaultConfig

// UploadResult identifies an uploaded snapshot.
type UploadResult struct {
	Key     string `json:"key"`
	Version string `json:"version"`
}

// VersionInfo describes one stored snapshot.
type VersionInfo struct {
	Version      string    `json:"version"`
	LastModified time.Time `json:"last_modified"`
}

// S3Store keeps snapshots under <prefix>/<projectID>/<version>.json and the
// newest upload under <prefix>/<projectID>/latest.json.
type S3Store struct {
	api    objectAPI
	bucket string
	prefix string
}

// NewS3Store builds a store from cfg. It fails with ErrSyncDisabled when no
// bucket is configured.
func NewS3Store(ctx context.Context, cfg config.SyncConfig) (*S3Store, error) {
	if !cfg.Enabled() {
		return nil, errors.ErrSyncDisabled
	}
	if cfg.Endpoint != "" {
		if err := validate.Endpoint(cfg.Endpoint); err != nil {
			return nil, err
		}
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := loadAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Store(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3Store(api objectAPI, bucket, prefix string) *S3Store {
	return &S3Store{api: api, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Store) projectDir(projectID string) string {
	return path.Join(s.prefix, projectID) + "/"
}

func (s *S3Store) objectKey(projectID, version string) string {
	return s.projectDir(projectID) + version + ".json"
}

// Upload writes p under its version and as latest.
func (s *S3Store) Upload(ctx context.Context, p *model.Project) (*UploadResult, error) {
	if p == nil || p.ID == "" {
		return nil, errors.NewUserError("project id is required for upload", "")
	}
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode project %s: %w", p.ID, err)
	}

	version := p.Version
	if version == "" {
		version = model.InitialVersion
	}
	key := s.objectKey(p.ID, version)
	for _, k := range []string{key, s.objectKey(p.ID, latestObject)} {
		if _, err := s.api.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(k),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("application/json"),
		}); err != nil {
			return nil, fmt.Errorf("%w: put %s: %w", errors.ErrNetworkUnavailable, k, err)
		}
	}

	logging.DebugLog("project uploaded", logging.KeyProjectID, p.ID, logging.KeyVersion, version)
	return &UploadResult{Key: key, Version: version}, nil
}

// Download fetches a snapshot; an empty version means latest. It returns
// nil, nil when the object does not exist.
func (s *S3Store) Download(ctx context.Context, projectID, version string) (*model.Project, error) {
	if version == "" {
		version = latestObject
	}
	key := s.objectKey(projectID, version)
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get %s: %w", errors.ErrNetworkUnavailable, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", errors.ErrNetworkUnavailable, key, err)
	}
	var p model.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &p, nil
}

// ListVersions returns the stored versions of a project, oldest first.
func (s *S3Store) ListVersions(ctx context.Context, projectID string) ([]VersionInfo, error) {
	dir := s.projectDir(projectID)
	pages := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(dir),
	})

	var out []VersionInfo
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list %s: %w", errors.ErrNetworkUnavailable, dir, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), dir)
			version, ok := strings.CutSuffix(name, ".json")
			if !ok || version == latestObject || strings.Contains(version, "/") {
				continue
			}
			out = append(out, VersionInfo{Version: version, LastModified: aws.ToTime(obj.LastModified)})
		}
	}
	slices.SortFunc(out, func(a, b VersionInfo) int {
		return model.CompareVersions(a.Version, b.Version)
	})
	return out, nil
}
