package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client the fetcher needs.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Client builds an S3 client from the ambient AWS configuration.
func NewS3Client(ctx context.Context) (S3API, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// S3Fetcher downloads a package mirrored at s3://bucket/prefix/{name}/.
// The version is the date of the newest object under the package
// prefix, so re-uploading a mirror bumps the resolved version.
type S3Fetcher struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Fetcher returns a fetcher for one s3://bucket/prefix spec.
func NewS3Fetcher(spec Spec, client S3API) *S3Fetcher {
	return &S3Fetcher{client: client, bucket: spec.Bucket, prefix: spec.Prefix}
}

func (f *S3Fetcher) packagePrefix(name string) string {
	name = strings.ToLower(name)
	if f.prefix == "" {
		return name + "/"
	}
	return f.prefix + "/" + name + "/"
}

// Fetch downloads every object under the package prefix into dir.
func (f *S3Fetcher) Fetch(ctx context.Context, name, dir string) (Resolution, error) {
	keys, newest, err := f.list(ctx, name)
	if err != nil {
		return Resolution{}, err
	}

	var checksums []string
	for _, key := range keys {
		out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(f.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return Resolution{}, fmt.Errorf("failed to fetch s3://%s/%s: %w", f.bucket, key, err)
		}
		content, err := io.ReadAll(out.Body)
		out.Body.Close()
		if err != nil {
			return Resolution{}, err
		}

		target := filepath.Join(dir, path.Base(key))
		if err := os.WriteFile(target, content, 0o644); err != nil {
			return Resolution{}, err
		}
		checksums = append(checksums, checksumBytes(content))
	}

	return Resolution{
		Version:  datedVersion(newest),
		Resolved: fmt.Sprintf("s3://%s/%s", f.bucket, strings.TrimSuffix(f.packagePrefix(name), "/")),
		Checksum: combineChecksums(checksums),
	}, nil
}

// Latest reports the newest object date under the package prefix.
func (f *S3Fetcher) Latest(ctx context.Context, name string) (string, error) {
	_, newest, err := f.list(ctx, name)
	if err != nil {
		return "", err
	}
	return datedVersion(newest), nil
}

func (f *S3Fetcher) list(ctx context.Context, name string) ([]string, time.Time, error) {
	prefix := f.packagePrefix(name)

	var keys []string
	var newest time.Time
	var token *string
	for {
		out, err := f.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(f.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to list s3://%s/%s: %w", f.bucket, prefix, err)
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			keys = append(keys, key)
			if obj.LastModified != nil && obj.LastModified.After(newest) {
				newest = *obj.LastModified
			}
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}

	if len(keys) == 0 {
		return nil, time.Time{}, fmt.Errorf("%w: s3://%s/%s", ErrPackageNotFound, f.bucket, prefix)
	}
	return keys, newest, nil
}
