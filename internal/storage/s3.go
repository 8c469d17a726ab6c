package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hirelens/hirelens/internal/cache"
)

// DefaultMaxObjectBytes caps how much of a snapshot file is fetched for
// hashing. Larger objects fail the fetch, which the change detector treats
// as unchanged for that cycle.
const DefaultMaxObjectBytes = 4 * 1024 * 1024

// SnapshotStoreConfig holds configuration for SnapshotStore
type SnapshotStoreConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UsePathStyle    bool
	MaxObjectBytes  int64
}

// SnapshotStore reads repository snapshots from S3-compatible storage.
// A snapshot is the set of objects under snapshots/<repoKey>/; the store
// implements the content-fetcher contract consumed by the hash fetcher.
type SnapshotStore struct {
	client         *s3.Client
	bucket         string
	maxObjectBytes int64
}

// NewSnapshotStore creates a new SnapshotStore with the given configuration
func NewSnapshotStore(ctx context.Context, cfg SnapshotStoreConfig) (*SnapshotStore, error) {
	// Custom resolver for S3-compatible endpoints
	customResolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			if cfg.Endpoint != "" {
				return aws.Endpoint{
					URL:               cfg.Endpoint,
					HostnameImmutable: true,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		},
	)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		config.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	maxBytes := cfg.MaxObjectBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxObjectBytes
	}

	return &SnapshotStore{
		client:         client,
		bucket:         cfg.Bucket,
		maxObjectBytes: maxBytes,
	}, nil
}

// SnapshotPrefix returns the object prefix holding a repo key's snapshot.
func SnapshotPrefix(repoKey string) string {
	return "snapshots/" + strings.ReplaceAll(repoKey, ":", "/") + "/"
}

// List returns the sub-resource paths (relative to root) of every object
// under the given snapshot root.
func (s *SnapshotStore) List(ctx context.Context, root string) ([]string, error) {
	if root != "" && !strings.HasSuffix(root, "/") {
		root += "/"
	}

	var paths []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(root),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list snapshot objects: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			rel := strings.TrimPrefix(key, root)
			if rel == "" {
				continue
			}
			paths = append(paths, rel)
		}
	}

	return paths, nil
}

// prefix is carried per store call so relative paths from List resolve back
// to full object keys.
type prefixedFetcher struct {
	store *SnapshotStore
	root  string
}

// Fetcher returns a content fetcher rooted at the given snapshot prefix:
// List yields relative paths and Fetch resolves them against the root.
func (s *SnapshotStore) Fetcher(root string) cache.ContentFetcher {
	if root != "" && !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return &prefixedFetcher{store: s, root: root}
}

func (f *prefixedFetcher) List(ctx context.Context, _ string) ([]string, error) {
	return f.store.List(ctx, f.root)
}

func (f *prefixedFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	return f.store.Fetch(ctx, f.root+path)
}

// Fetch returns the content of one object, bounded by MaxObjectBytes.
func (s *SnapshotStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer output.Body.Close()

	if size := aws.ToInt64(output.ContentLength); size > s.maxObjectBytes {
		return nil, fmt.Errorf("object %s too large to hash: %d bytes", key, size)
	}

	content, err := io.ReadAll(io.LimitReader(output.Body, s.maxObjectBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	if int64(len(content)) > s.maxObjectBytes {
		return nil, fmt.Errorf("object %s too large to hash", key)
	}

	return content, nil
}

// Put stores one object. Used when ingesting snapshots and documents.
func (s *SnapshotStore) Put(ctx context.Context, key string, content []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(content),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

// Delete removes one object. Deleting a missing key is not an error.
func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *SnapshotStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}
